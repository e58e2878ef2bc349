package fsio

import (
	"context"

	"github.com/ploke-dev/ploke-io/pkg/filesystem/watching"
	"github.com/ploke-dev/ploke-io/pkg/ioerror"
)

// Handle is the sole public surface of the file I/O core. It is cheap to
// copy: every field is a pointer or channel, so a Handle value can be
// passed around and shared across goroutines freely.
type Handle struct {
	dispatcher *dispatcher
	watcher    *watching.Watcher
	events     <-chan watching.ChangeEvent
}

// GetSnippetsBatch submits a batch of reads and returns one outcome per
// request, in the same order as reqs. A non-nil error indicates a
// batch-level transport failure (e.g. the core has been shut down), not a
// per-request failure; per-request failures are reported in each
// ReadOutcome's Err field instead.
func (h *Handle) GetSnippetsBatch(ctx context.Context, reqs []ReadRequest) ([]ReadOutcome, error) {
	respCh := make(chan []ReadOutcome, 1)
	if !h.dispatcher.submit(readBatchMessage{ctx: ctx, reqs: reqs, respCh: respCh}) {
		return nil, ioerror.New(ioerror.KindInternal, "get_snippets_batch", "")
	}
	select {
	case result := <-respCh:
		return result, nil
	case <-ctx.Done():
		return nil, ioerror.Wrap(ioerror.KindInternal, "get_snippets_batch", "", ctx.Err())
	}
}

// ScanChangesBatch submits a batch of scans and returns a per-index vector
// of optional ChangedFileRecords (a nil entry means that file's content
// has not drifted). If any request in the batch failed, the batch-level
// error is returned instead, selected deterministically as the failure
// from the lowest original index.
func (h *Handle) ScanChangesBatch(ctx context.Context, reqs []ScanRequest) ([]*ChangedFileRecord, error) {
	respCh := make(chan scanBatchResponse, 1)
	if !h.dispatcher.submit(scanBatchMessage{ctx: ctx, reqs: reqs, respCh: respCh}) {
		return nil, ioerror.New(ioerror.KindInternal, "scan_changes_batch", "")
	}
	select {
	case result := <-respCh:
		return result.records, result.err
	case <-ctx.Done():
		return nil, ioerror.Wrap(ioerror.KindInternal, "scan_changes_batch", "", ctx.Err())
	}
}

// WriteSnippetsBatch submits a batch of writes and returns one outcome per
// request, in the same order as reqs. A non-nil error indicates a
// batch-level transport failure; per-request failures (including
// ContentMismatch) are reported in each WriteOutcome's Err field instead.
func (h *Handle) WriteSnippetsBatch(ctx context.Context, reqs []WriteRequest) ([]WriteOutcome, error) {
	respCh := make(chan []WriteOutcome, 1)
	if !h.dispatcher.submit(writeBatchMessage{ctx: ctx, reqs: reqs, respCh: respCh}) {
		return nil, ioerror.New(ioerror.KindInternal, "write_snippets_batch", "")
	}
	select {
	case result := <-respCh:
		return result, nil
	case <-ctx.Done():
		return nil, ioerror.Wrap(ioerror.KindInternal, "write_snippets_batch", "", ctx.Err())
	}
}

// SubscribeFileEvents returns a channel of debounced, coalesced change
// events observed under the configured roots, plus synthetic events
// published by WriteSnippetsBatch. It returns false if the watcher is not
// enabled.
func (h *Handle) SubscribeFileEvents() (<-chan watching.ChangeEvent, bool) {
	if h.events == nil {
		return nil, false
	}
	return h.events, true
}

// Shutdown signals the actor to stop accepting new work; the actor finishes
// the batch it is processing, if any, and then exits. It blocks until the
// dispatcher's run loop has fully stopped, and then terminates the watcher,
// if any. Cancelling the context passed to Build also stops the watcher.
func (h *Handle) Shutdown() {
	h.dispatcher.shutdown()
	if h.watcher != nil {
		h.watcher.Terminate()
	}
}
