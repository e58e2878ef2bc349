// Package ioerror defines the tagged error taxonomy returned by the file
// I/O core. Every failure surfaced across the actor boundary carries one of
// a fixed set of kinds so that callers can branch on failure category
// without parsing message text.
package ioerror

import (
	"errors"
	"fmt"
)

// Kind identifies the category of a failure.
type Kind int

const (
	// KindInvalidInput indicates a request was malformed independent of any
	// filesystem state (bad path, path outside the roots, inverted range).
	KindInvalidInput Kind = iota
	// KindUtf8 indicates a byte sequence that was supposed to be valid UTF-8
	// was not, or that splicing it would produce invalid UTF-8.
	KindUtf8
	// KindOutOfRange indicates a byte offset fell outside the bounds of the
	// file it was addressed against.
	KindOutOfRange
	// KindInvalidCharBoundary indicates an offset split a multi-byte UTF-8
	// code point rather than landing on a character boundary.
	KindInvalidCharBoundary
	// KindContentMismatch indicates an optimistic-concurrency guard failed:
	// the caller's expected fingerprint did not match the file's current
	// fingerprint.
	KindContentMismatch
	// KindFileOperation indicates a failure at a specific step of a
	// filesystem operation (open, read, stat, rename, and so on).
	KindFileOperation
	// KindSyntaxError is reserved for collaborators that report structural
	// parse failures distinct from plain I/O failures.
	KindSyntaxError
	// KindInternal indicates a failure that should not be reachable given
	// the core's own invariants (a bug), and is also used for batch-level
	// transport failures: a request submitted after shutdown, or a request
	// whose context was cancelled.
	KindInternal
	// KindWarning is used for non-fatal conditions surfaced alongside an
	// otherwise successful result, such as a best-effort step that failed.
	KindWarning
)

// String renders the kind using the same names exposed to callers.
func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindUtf8:
		return "utf8"
	case KindOutOfRange:
		return "out_of_range"
	case KindInvalidCharBoundary:
		return "invalid_char_boundary"
	case KindContentMismatch:
		return "content_mismatch"
	case KindFileOperation:
		return "file_operation"
	case KindSyntaxError:
		return "syntax_error"
	case KindInternal:
		return "internal"
	case KindWarning:
		return "warning"
	default:
		return "unknown"
	}
}

// Step identifies the filesystem step a KindFileOperation error occurred
// during, so that callers (and logs) can distinguish "couldn't open" from
// "couldn't rename" without string matching.
type Step string

const (
	StepOpen      Step = "open"
	StepStat      Step = "stat"
	StepRead      Step = "read"
	StepCreate    Step = "create"
	StepWrite     Step = "write"
	StepSync      Step = "sync"
	StepChmod     Step = "chmod"
	StepRename    Step = "rename"
	StepClose     Step = "close"
	StepResolve   Step = "resolve"
	StepReadDir   Step = "read_dir"
)

// Error is the concrete error type returned across the actor boundary. It
// carries a Kind for programmatic branching, an optional Op describing what
// the core was trying to do, an optional Path the error pertains to, an
// optional Step for KindFileOperation errors, and the underlying cause.
type Error struct {
	Kind Kind
	Op   string
	Path string
	Step Step
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Step != "" {
		msg += fmt.Sprintf(" (step=%s)", e.Step)
	}
	if e.Path != "" {
		msg += fmt.Sprintf(" (path=%s)", e.Path)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap allows errors.Is/errors.As to reach the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// New constructs an Error of the given kind with no underlying cause.
func New(kind Kind, op, path string) *Error {
	return &Error{Kind: kind, Op: op, Path: path}
}

// Wrap constructs an Error of the given kind wrapping err.
func Wrap(kind Kind, op, path string, err error) *Error {
	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}

// WrapStep constructs a KindFileOperation error for a specific step.
func WrapStep(op, path string, step Step, err error) *Error {
	return &Error{Kind: KindFileOperation, Op: op, Path: path, Step: step, Err: err}
}

// KindOf extracts the Kind from err if it is (or wraps) an *Error. It
// returns KindInternal and false if err does not carry a recognized kind,
// which is itself useful: an untagged error reaching a caller is a defect
// in the core, not a legitimate outcome.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return KindInternal, false
}

// Is reports whether err is (or wraps) an *Error of the given kind.
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
