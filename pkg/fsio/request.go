// Package fsio implements the file I/O core: a process-local actor that
// mediates reads, scans, and writes between an in-memory code-analysis
// graph and the filesystem, guarding writes with fingerprint-based
// optimistic concurrency and performing every write atomically and
// durably.
package fsio

import (
	"github.com/ploke-dev/ploke-io/pkg/fingerprint"
)

// ReadRequest describes a single byte range to read from one file within a
// batch. The range [StartByte, EndByte) is interpreted in bytes, and must
// land on UTF-8 character boundaries once resolved against the file's
// actual content. Invariant at submission: StartByte <= EndByte.
type ReadRequest struct {
	// ID is an opaque, caller-supplied correlation identifier echoed back
	// on the corresponding result.
	ID string
	// Name is a caller-facing label for the requested span (e.g. a symbol
	// name), carried through purely for correlation and logging.
	Name string
	// Namespace groups related requests for logging and tracing purposes.
	Namespace string
	// AbsolutePath is the file to read from. It is resolved and validated
	// against the core's configured Path Policy before any I/O occurs.
	AbsolutePath string
	// ExpectedFileFingerprint is compared against the file's current
	// fingerprint; a mismatch fails the request with KindContentMismatch
	// rather than returning possibly-stale content.
	ExpectedFileFingerprint fingerprint.Fingerprint
	// ExpectedNodeFingerprint is carried through for informational purposes
	// only; the core never compares against it.
	ExpectedNodeFingerprint fingerprint.Fingerprint
	// StartByte and EndByte delimit the byte range to read.
	StartByte int
	EndByte   int
}

// ScanRequest asks the core to re-fingerprint a file and report whether its
// content has drifted from ExpectedFileFingerprint.
type ScanRequest struct {
	ID                      string
	Namespace               string
	AbsolutePath            string
	ExpectedFileFingerprint fingerprint.Fingerprint
}

// WriteRequest describes a single byte-range replacement to apply
// atomically, guarded by an expected fingerprint. Invariant at submission:
// StartByte <= EndByte; ReplacementBytes is valid UTF-8.
type WriteRequest struct {
	ID                      string
	Name                    string
	Namespace               string
	AbsolutePath            string
	ExpectedFileFingerprint fingerprint.Fingerprint
	StartByte               int
	EndByte                 int
	ReplacementBytes        []byte
	// Origin is an optional caller-supplied correlation id propagated into
	// the synthetic change event emitted on success, letting subscribers
	// suppress self-echo.
	Origin string
}
