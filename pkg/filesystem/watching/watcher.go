package watching

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"github.com/golang/groupcache/lru"

	"github.com/ploke-dev/ploke-io/pkg/filesystem"
	"github.com/ploke-dev/ploke-io/pkg/logging"
)

// defaultIgnorePatterns excludes paths the watcher should never surface
// changes for: the core's own temporary files (which would otherwise cause
// every atomic write to emit a spurious Created/Removed pair for its
// scratch file) and the most common VCS metadata directory.
var defaultIgnorePatterns = []string{
	filesystem.TemporaryNamePrefix + "*",
	"**/.git/**",
}

// Watcher recursively watches a set of root directories and delivers
// debounced, coalesced ChangeEvents to any number of subscribers. It adds
// watches to newly created subdirectories as they appear, so a root added
// at construction continues to be covered as its tree grows.
type Watcher struct {
	roots    []string
	debounce time.Duration
	logger   *logging.Logger

	fsWatcher *fsnotify.Watcher
	broadcast *broadcaster

	mu      sync.Mutex
	pending map[string]*pendingChange
	// evictor bounds the pending set's size on an LRU basis: once it holds
	// maximumPendingPaths entries, adding one more evicts the
	// least-recently-touched path, flushing its coalesced change early
	// instead of letting the pending set grow without bound.
	evictor *lru.Cache

	done chan struct{}
}

// New constructs a Watcher over roots. It does not start watching until
// Run is called. If debounce is zero, defaultDebounce is used.
func New(roots []string, debounce time.Duration, logger *logging.Logger) (*Watcher, error) {
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		roots:     append([]string(nil), roots...),
		debounce:  debounce,
		logger:    logger,
		fsWatcher: fsWatcher,
		broadcast: newBroadcaster(),
		pending:   make(map[string]*pendingChange),
		evictor:   lru.New(maximumPendingPaths),
		done:      make(chan struct{}),
	}
	// onPendingEvicted is invoked synchronously from within evictor.Add (and
	// evictor.Remove) while w.mu is already held by the caller; it flushes
	// the evicted path's coalesced change immediately rather than waiting
	// for its debounce window, and is a no-op if the path was already
	// flushed by the debounce ticker first (see flushExpiredLocked).
	w.evictor.OnEvicted = func(key lru.Key, _ interface{}) {
		path, ok := key.(string)
		if !ok {
			return
		}
		entry, ok := w.pending[path]
		if !ok {
			return
		}
		delete(w.pending, path)
		if w.logger != nil {
			w.logger.Warnf("%v: evicted pending path '%s' under capacity pressure", ErrTooManyPendingPaths, path)
		}
		w.broadcast.publish(ChangeEvent{
			Path:       path,
			OldPath:    entry.oldPath,
			Kind:       entry.kind,
			ObservedAt: time.Now(),
		})
	}
	return w, nil
}

// Subscribe registers a new subscriber and returns its event channel along
// with a function that unregisters it. The channel is closed when cancel is
// called or the Watcher is terminated.
func (w *Watcher) Subscribe() (<-chan ChangeEvent, func()) {
	return w.broadcast.subscribe()
}

// PublishSynthetic injects a ChangeEvent directly, bypassing debouncing.
// The write path uses this to notify subscribers of its own writes
// immediately, tagged with an origin, rather than waiting for the
// underlying native watcher to observe and debounce its own write.
func (w *Watcher) PublishSynthetic(event ChangeEvent) {
	if event.ObservedAt.IsZero() {
		event.ObservedAt = time.Now()
	}
	w.broadcast.publish(event)
}

// Run adds watches for every root (recursively) and then services
// filesystem events until ctx is cancelled or Terminate is called. It
// blocks until the run loop exits and should be called from its own
// goroutine.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.broadcast.close()
	defer w.fsWatcher.Close()

	for _, root := range w.roots {
		if err := w.addTree(root); err != nil {
			return err
		}
	}

	flushTicker := time.NewTicker(flushInterval)
	defer flushTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.done:
			return ErrWatchTerminated
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return ErrWatchTerminated
			}
			w.handleRawEvent(event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return ErrWatchTerminated
			}
			if w.logger != nil {
				w.logger.Warnf("watcher reported an error: %v", err)
			}
		case <-flushTicker.C:
			w.flushExpired(time.Now())
		}
	}
}

// Terminate stops the watcher's run loop.
func (w *Watcher) Terminate() {
	select {
	case <-w.done:
	default:
		close(w.done)
	}
}

// addTree registers fsnotify watches for root and every subdirectory under
// it, skipping anything matched by defaultIgnorePatterns.
func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if w.ignored(path) {
			return filepath.SkipDir
		}
		return w.fsWatcher.Add(path)
	})
}

// ignored reports whether path matches one of the watcher's default ignore
// patterns, using shell-style glob matching with ** support.
func (w *Watcher) ignored(path string) bool {
	base := filepath.Base(path)
	for _, pattern := range defaultIgnorePatterns {
		if matched, _ := doublestar.Match(pattern, base); matched {
			return true
		}
		if matched, _ := doublestar.Match(pattern, path); matched {
			return true
		}
	}
	return false
}

// handleRawEvent classifies a raw fsnotify event, records it in the
// pending set for debouncing, and (for newly created directories) extends
// watch coverage to the new subtree.
func (w *Watcher) handleRawEvent(event fsnotify.Event) {
	if w.ignored(event.Name) {
		return
	}

	kind := classify(event.Op)

	if event.Op.Has(fsnotify.Create) {
		if info, err := filepath.EvalSymlinks(event.Name); err == nil {
			if isDir(info) {
				if err := w.addTree(info); err != nil && w.logger != nil {
					w.logger.Warnf("unable to extend watch to new directory '%s': %v", info, err)
				}
			}
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	entry, ok := w.pending[event.Name]
	if !ok {
		entry = &pendingChange{kind: kind, firstSeen: time.Now()}
		w.pending[event.Name] = entry
	} else {
		entry.absorb(kind, "")
	}

	// Touching the evictor marks event.Name as most-recently-used; if the
	// pending set is already at maximumPendingPaths, adding a new distinct
	// path evicts the least-recently-touched one via OnEvicted above.
	w.evictor.Add(event.Name, struct{}{})
}

// flushExpired flushes every pending path whose debounce window has
// elapsed as of now.
func (w *Watcher) flushExpired(now time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.flushExpiredLocked(now)
}

func (w *Watcher) flushExpiredLocked(now time.Time) {
	for path, entry := range w.pending {
		if now.Sub(entry.firstSeen) < w.debounce {
			continue
		}
		delete(w.pending, path)
		w.evictor.Remove(path)
		w.broadcast.publish(ChangeEvent{
			Path:       path,
			OldPath:    entry.oldPath,
			Kind:       entry.kind,
			ObservedAt: now,
		})
	}
}

// classify maps a raw fsnotify operation bitmask to a single coalesced
// kind, using the same precedence order as pendingChange.absorb so that an
// event carrying multiple bits resolves to its most significant kind.
func classify(op fsnotify.Op) ChangeKind {
	switch {
	case op.Has(fsnotify.Remove):
		return KindRemoved
	case op.Has(fsnotify.Write):
		return KindModified
	case op.Has(fsnotify.Rename):
		return KindRenamed
	case op.Has(fsnotify.Create):
		return KindCreated
	case op.Has(fsnotify.Chmod):
		return KindPermissionChanged
	default:
		return KindUnknown
	}
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
