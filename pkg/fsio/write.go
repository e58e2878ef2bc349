package fsio

import (
	"context"
	"os"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"

	"github.com/ploke-dev/ploke-io/pkg/contextutil"
	"github.com/ploke-dev/ploke-io/pkg/filesystem"
	"github.com/ploke-dev/ploke-io/pkg/filesystem/watching"
	"github.com/ploke-dev/ploke-io/pkg/ioerror"
)

// defaultWritePermissions is used for the atomic write's final chmod.
// Existing files' permissions are not otherwise read back and reapplied;
// this matches a straightforward "owner read/write, group/other read"
// policy appropriate for source files.
const defaultWritePermissions = 0644

// WriteOutcome pairs a WriteRequest's ID with either its WriteResult or the
// error encountered processing it.
type WriteOutcome struct {
	ID     string
	Result WriteResult
	Err    error
}

// write applies req's single byte-range replacement as one atomic
// operation, guarded by req.ExpectedFileFingerprint. If the guard fails or
// any earlier step fails, the file is left completely untouched; file
// creation is out of scope, so a missing target fails the write rather
// than creating one.
func (e *engine) write(ctx context.Context, req WriteRequest) (WriteResult, error) {
	const op = "write"

	if req.StartByte > req.EndByte {
		return WriteResult{}, ioerror.New(ioerror.KindInvalidInput, op, req.AbsolutePath)
	}
	if !utf8.Valid(req.ReplacementBytes) {
		return WriteResult{}, ioerror.New(ioerror.KindUtf8, op, req.AbsolutePath)
	}

	path, err := e.policy.Resolve(op, req.AbsolutePath)
	if err != nil {
		return WriteResult{}, err
	}

	if err := e.fdBudget.Acquire(ctx, 1); err != nil {
		return WriteResult{}, ioerror.Wrap(ioerror.KindInternal, op, path, err)
	}
	defer e.fdBudget.Release(1)

	// Acquire (or create) the per-path lock registry entry and hold it
	// across the entire read-verify-splice-rename sequence so that no
	// other writer in this process can observe or race the mutation.
	release := e.locks.acquireExclusive(path)
	defer release()

	before, err := os.ReadFile(path)
	if err != nil {
		return WriteResult{}, ioerror.WrapStep(op, path, ioerror.StepRead, err)
	}
	if !utf8.Valid(before) {
		return WriteResult{}, ioerror.New(ioerror.KindUtf8, op, path)
	}

	if req.StartByte < 0 || req.EndByte > len(before) {
		return WriteResult{}, ioerror.New(ioerror.KindOutOfRange, op, path)
	}
	if !checkBoundary(before, req.StartByte) || !checkBoundary(before, req.EndByte) {
		return WriteResult{}, ioerror.New(ioerror.KindInvalidCharBoundary, op, path)
	}

	fpBefore, err := e.fingerprinter.Fingerprint(before)
	if err != nil {
		return WriteResult{}, ioerror.Wrap(ioerror.KindSyntaxError, op, path, err)
	}

	if req.ExpectedFileFingerprint != fpBefore {
		return WriteResult{}, ioerror.New(ioerror.KindContentMismatch, op, path)
	}

	after := splice(before, req.StartByte, req.EndByte, req.ReplacementBytes)
	if !utf8.Valid(after) {
		// Unreachable if the boundary checks above held and the caller's
		// replacement was itself valid UTF-8, but checked explicitly
		// rather than trusted, since it gates a filesystem mutation.
		return WriteResult{}, ioerror.New(ioerror.KindUtf8, op, path)
	}

	writeResult, err := filesystem.WriteFileAtomic(path, after, defaultWritePermissions, e.logger)
	if err != nil {
		return WriteResult{}, err
	}
	if writeResult.ParentSyncError != nil && e.logger != nil {
		e.logger.Warnf("parent directory sync failed after write to '%s': %v", path, writeResult.ParentSyncError)
	}

	fpAfter, err := e.fingerprinter.Fingerprint(after)
	if err != nil {
		return WriteResult{}, ioerror.Wrap(ioerror.KindSyntaxError, op, path, err)
	}

	if e.logger != nil {
		e.logger.Debugf("wrote %s to '%s'", humanize.Bytes(uint64(len(after))), path)
	}

	if e.watcher != nil {
		e.watcher.PublishSynthetic(watching.ChangeEvent{
			Path:       path,
			Kind:       watching.KindModified,
			Origin:     req.Origin,
			ObservedAt: time.Now(),
		})
	}

	return WriteResult{
		ID:                 req.ID,
		NewFileFingerprint: fpAfter,
		Delta: Delta{
			Start:      req.StartByte,
			RemovedLen: req.EndByte - req.StartByte,
			AddedLen:   len(req.ReplacementBytes),
		},
	}, nil
}

// splice returns the concatenation of content[:start], replacement, and
// content[end:].
func splice(content []byte, start, end int, replacement []byte) []byte {
	out := make([]byte, 0, start+len(replacement)+(len(content)-end))
	out = append(out, content[:start]...)
	out = append(out, replacement...)
	out = append(out, content[end:]...)
	return out
}

// writeBatch applies each WriteRequest independently and concurrently.
// Writes to the same canonical path serialize against each other via the
// lock registry; writes to distinct paths proceed in parallel subject to
// the FD budget. It always returns one outcome per request, at the
// request's original index.
func (e *engine) writeBatch(ctx context.Context, reqs []WriteRequest) []WriteOutcome {
	outcomes := make([]WriteOutcome, len(reqs))
	for i := range outcomes {
		outcomes[i].ID = reqs[i].ID
	}

	if contextutil.IsCancelled(ctx) {
		err := ioerror.Wrap(ioerror.KindInternal, "write", "", ctx.Err())
		for i := range outcomes {
			outcomes[i].Err = err
		}
		return outcomes
	}

	done := make(chan int, len(reqs))
	for i, req := range reqs {
		go func(i int, req WriteRequest) {
			result, err := e.write(ctx, req)
			outcomes[i].Result = result
			outcomes[i].Err = err
			done <- i
		}(i, req)
	}
	for range reqs {
		<-done
	}

	return outcomes
}
