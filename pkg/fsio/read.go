package fsio

import (
	"context"
	"os"
	"sync"
	"unicode/utf8"

	"github.com/ploke-dev/ploke-io/pkg/contextutil"
	"github.com/ploke-dev/ploke-io/pkg/ioerror"
)

// ReadOutcome pairs a ReadRequest's ID with either its ReadResult or the
// error encountered processing it. readBatch always returns one outcome
// per request, at the request's original index, so a batch transport
// failure is the only way for a caller to get fewer outcomes than
// requests.
type ReadOutcome struct {
	ID     string
	Result ReadResult
	Err    error
}

// readBatch implements the read path: it groups requests by their
// canonicalized path, reads each distinct path's content exactly once,
// and verifies each request against that single read. Results are
// returned in a vector indexed identically to reqs; every slot is filled
// before return (an unfilled slot is itself reported as an Internal
// error, never silently dropped).
func (e *engine) readBatch(ctx context.Context, reqs []ReadRequest) []ReadOutcome {
	const op = "read"

	outcomes := make([]ReadOutcome, len(reqs))
	filled := make([]bool, len(reqs))
	for i := range outcomes {
		outcomes[i].ID = reqs[i].ID
	}

	if contextutil.IsCancelled(ctx) {
		err := ioerror.Wrap(ioerror.KindInternal, op, "", ctx.Err())
		for i := range outcomes {
			outcomes[i].Err = err
		}
		return outcomes
	}

	byPath := make(map[string][]int)
	for i, req := range reqs {
		if req.StartByte > req.EndByte {
			outcomes[i].Err = ioerror.New(ioerror.KindInvalidInput, op, req.AbsolutePath)
			filled[i] = true
			continue
		}
		path, err := e.policy.Resolve(op, req.AbsolutePath)
		if err != nil {
			outcomes[i].Err = err
			filled[i] = true
			continue
		}
		byPath[path] = append(byPath[path], i)
	}

	var wg sync.WaitGroup
	for path, indices := range byPath {
		wg.Add(1)
		go func(path string, indices []int) {
			defer wg.Done()
			e.readPath(ctx, path, reqs, indices, outcomes, filled)
		}(path, indices)
	}
	wg.Wait()

	for i := range outcomes {
		if !filled[i] {
			outcomes[i].Err = ioerror.New(ioerror.KindInternal, op, reqs[i].AbsolutePath)
		}
	}

	return outcomes
}

// readPath performs the single shared read for path and fills in each
// outcome slot named by indices.
func (e *engine) readPath(ctx context.Context, path string, reqs []ReadRequest, indices []int, outcomes []ReadOutcome, filled []bool) {
	const op = "read"

	fail := func(err error) {
		for _, i := range indices {
			outcomes[i].Err = err
			filled[i] = true
		}
	}

	if err := e.fdBudget.Acquire(ctx, 1); err != nil {
		fail(ioerror.Wrap(ioerror.KindInternal, op, path, err))
		return
	}
	defer e.fdBudget.Release(1)

	release := e.locks.acquireShared(path)
	defer release()

	content, err := os.ReadFile(path)
	if err != nil {
		fail(ioerror.WrapStep(op, path, ioerror.StepRead, err))
		return
	}

	if !utf8.Valid(content) {
		fail(ioerror.New(ioerror.KindUtf8, op, path))
		return
	}

	actual, err := e.fingerprinter.Fingerprint(content)
	if err != nil {
		fail(ioerror.Wrap(ioerror.KindSyntaxError, op, path, err))
		return
	}

	for _, i := range indices {
		req := reqs[i]
		filled[i] = true

		if req.StartByte < 0 || req.EndByte > len(content) {
			outcomes[i].Err = ioerror.New(ioerror.KindOutOfRange, op, path)
			continue
		}
		if !checkBoundary(content, req.StartByte) || !checkBoundary(content, req.EndByte) {
			outcomes[i].Err = ioerror.New(ioerror.KindInvalidCharBoundary, op, path)
			continue
		}
		if req.ExpectedFileFingerprint != actual {
			outcomes[i].Err = ioerror.New(ioerror.KindContentMismatch, op, path)
			continue
		}

		outcomes[i].Result = ReadResult{
			ID:      req.ID,
			Content: string(content[req.StartByte:req.EndByte]),
		}
	}
}
