package fsio

import (
	"context"

	"github.com/google/uuid"

	"github.com/ploke-dev/ploke-io/pkg/logging"
)

// message is the interface implemented by every variant accepted on the
// dispatcher's inbox channel. It gives the inbox a single concrete channel
// type; each variant hands itself to the engine through dispatch.
type message interface {
	dispatch(e *engine)
}

type readBatchMessage struct {
	ctx    context.Context
	reqs   []ReadRequest
	respCh chan []ReadOutcome
}

func (m readBatchMessage) dispatch(e *engine) {
	m.respCh <- e.readBatch(m.ctx, m.reqs)
}

type scanBatchMessage struct {
	ctx    context.Context
	reqs   []ScanRequest
	respCh chan scanBatchResponse
}

type scanBatchResponse struct {
	records []*ChangedFileRecord
	err     error
}

func (m scanBatchMessage) dispatch(e *engine) {
	records, err := e.scanBatch(m.ctx, m.reqs)
	m.respCh <- scanBatchResponse{records: records, err: err}
}

type writeBatchMessage struct {
	ctx    context.Context
	reqs   []WriteRequest
	respCh chan []WriteOutcome
}

func (m writeBatchMessage) dispatch(e *engine) {
	m.respCh <- e.writeBatch(m.ctx, m.reqs)
}

// shutdownMessage asks the dispatcher's run loop to exit. It carries no
// response channel: the caller observes completion via the dispatcher's
// done channel instead. The inbox itself is never closed.
type shutdownMessage struct{}

func (shutdownMessage) dispatch(*engine) {}

// dispatcher owns the engine and is the sole goroutine that ever touches
// it directly; every operation reaches the engine by being dispatched
// through run, which gives the core a single, well-defined serialization
// point for lifecycle management even though the engine's own batch
// methods fan work back out across goroutines.
type dispatcher struct {
	id     string
	engine *engine
	inbox  chan message
	done   chan struct{}
	logger *logging.Logger
}

func newDispatcher(engine *engine, logger *logging.Logger) *dispatcher {
	id := uuid.NewString()
	return &dispatcher{
		id:     id,
		engine: engine,
		inbox:  make(chan message),
		done:   make(chan struct{}),
		logger: logger.Sublogger("actor-" + id[:8]),
	}
}

// run is the dispatcher's goroutine body. It processes messages until it
// receives a shutdownMessage or the inbox is closed, then closes done.
func (d *dispatcher) run() {
	defer close(d.done)
	for m := range d.inbox {
		if _, ok := m.(shutdownMessage); ok {
			return
		}
		m.dispatch(d.engine)
	}
}

// submit enqueues a message and reports whether the dispatcher accepted it
// before shutting down. It blocks until the dispatcher has consumed the
// message from the inbox (not until it has finished processing it);
// callers wait on the message's own response channel for the result.
func (d *dispatcher) submit(m message) bool {
	select {
	case d.inbox <- m:
		return true
	case <-d.done:
		return false
	}
}

// shutdown requests that the dispatcher stop accepting new work and exit
// its run loop, then blocks until it has done so.
func (d *dispatcher) shutdown() {
	select {
	case d.inbox <- shutdownMessage{}:
	case <-d.done:
		return
	}
	<-d.done
}
