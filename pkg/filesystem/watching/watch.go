// Package watching implements the optional file-watcher component of the
// file I/O core. It wraps a native recursive filesystem watcher, aggregates
// and debounces its raw events into a small set of coalesced change kinds,
// and fans them out to any number of subscribers.
package watching

import (
	"errors"
	"time"
)

const (
	// flushInterval is how often the watcher scans pending (dirty) paths to
	// see whether their debounce window has elapsed. It is independent of
	// the configured debounce duration, which anchors each path's own
	// flush deadline.
	flushInterval = 10 * time.Millisecond

	// defaultDebounce is used when a caller constructs a Watcher without
	// specifying a debounce duration.
	defaultDebounce = 250 * time.Millisecond

	// maximumPendingPaths bounds the dirty set so that a pathological
	// stream of events against distinct paths (e.g. a build tool churning
	// through thousands of generated files) cannot grow watcher memory
	// without bound.
	maximumPendingPaths = 10 * 1024
)

var (
	// ErrWatchTerminated is returned by Watcher methods once the watcher's
	// run loop has stopped.
	ErrWatchTerminated = errors.New("watch terminated")
	// ErrTooManyPendingPaths is logged (not returned) when the dirty set
	// hits maximumPendingPaths; the least-recently-touched pending path is
	// evicted and flushed early to make room, rather than letting the set
	// grow without bound.
	ErrTooManyPendingPaths = errors.New("too many pending paths")
)
