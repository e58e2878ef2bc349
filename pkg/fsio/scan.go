package fsio

import (
	"context"
	"os"
	"unicode/utf8"

	"github.com/ploke-dev/ploke-io/pkg/contextutil"
	"github.com/ploke-dev/ploke-io/pkg/ioerror"
)

// scan re-fingerprints a single file and reports a ChangedFileRecord if its
// fingerprint no longer matches req's expectation, or nil if unchanged.
func (e *engine) scan(ctx context.Context, req ScanRequest) (*ChangedFileRecord, error) {
	const op = "scan"

	path, err := e.policy.Resolve(op, req.AbsolutePath)
	if err != nil {
		return nil, err
	}

	if err := e.fdBudget.Acquire(ctx, 1); err != nil {
		return nil, ioerror.Wrap(ioerror.KindInternal, op, path, err)
	}
	defer e.fdBudget.Release(1)

	release := e.locks.acquireShared(path)
	defer release()

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, ioerror.WrapStep(op, path, ioerror.StepRead, err)
	}

	if !utf8.Valid(content) {
		return nil, ioerror.New(ioerror.KindUtf8, op, path)
	}

	actual, err := e.fingerprinter.Fingerprint(content)
	if err != nil {
		return nil, ioerror.Wrap(ioerror.KindSyntaxError, op, path, err)
	}

	if actual == req.ExpectedFileFingerprint {
		return nil, nil
	}

	return &ChangedFileRecord{
		ID:             req.ID,
		Namespace:      req.Namespace,
		OldFingerprint: req.ExpectedFileFingerprint,
		NewFingerprint: actual,
		AbsolutePath:   path,
	}, nil
}

// scanBatch processes every request independently and concurrently
// (bounded by the engine's FD budget; duplicate paths across requests are
// not deduplicated). It returns a per-index vector of optional
// ChangedFileRecords on success. If any request failed, the batch-level
// outcome is the error from the lowest-index failing request, matching the
// deterministic first-by-index selection policy.
func (e *engine) scanBatch(ctx context.Context, reqs []ScanRequest) ([]*ChangedFileRecord, error) {
	if len(reqs) == 0 {
		return []*ChangedFileRecord{}, nil
	}
	if contextutil.IsCancelled(ctx) {
		return nil, ioerror.Wrap(ioerror.KindInternal, "scan", "", ctx.Err())
	}

	type outcome struct {
		record *ChangedFileRecord
		err    error
	}
	outcomes := make([]outcome, len(reqs))

	done := make(chan int, len(reqs))
	for i, req := range reqs {
		go func(i int, req ScanRequest) {
			record, err := e.scan(ctx, req)
			outcomes[i] = outcome{record: record, err: err}
			done <- i
		}(i, req)
	}
	for range reqs {
		<-done
	}

	for _, o := range outcomes {
		if o.err != nil {
			return nil, o.err
		}
	}

	records := make([]*ChangedFileRecord, len(reqs))
	for i, o := range outcomes {
		records[i] = o.record
	}
	return records, nil
}
