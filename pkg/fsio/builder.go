package fsio

import (
	"context"
	"time"

	"github.com/ploke-dev/ploke-io/pkg/filesystem/watching"
	"github.com/ploke-dev/ploke-io/pkg/fingerprint"
	"github.com/ploke-dev/ploke-io/pkg/ioerror"
	"github.com/ploke-dev/ploke-io/pkg/logging"
	"github.com/ploke-dev/ploke-io/pkg/pathpolicy"
)

// Builder constructs a Handle. Zero-value construction via New is valid and
// yields sensible defaults: no root restriction, DenyCrossRoot symlink
// policy (inert with no roots configured), a heuristically computed FD
// budget, and no watcher.
type Builder struct {
	permits         int
	fdLimit         int
	roots           []string
	symlinkPolicy   pathpolicy.SymlinkPolicy
	enableWatcher   bool
	watcherDebounce time.Duration
	fingerprinter   fingerprint.Fingerprinter
	logger          *logging.Logger
}

// New returns a Builder with default settings.
func New() *Builder {
	return &Builder{
		symlinkPolicy:   pathpolicy.DenyCrossRoot,
		watcherDebounce: 250 * time.Millisecond,
		fingerprinter:   fingerprint.Default(),
		logger:          logging.RootLogger.Sublogger("fsio"),
	}
}

// Permits sets an explicit FD budget, overriding the environment override,
// FDLimit, and the heuristic derived from the process's open-file limit. It
// is taken as given and is not clamped to [4, 1024]: a caller setting
// Permits directly is assumed to know its own concurrency needs.
func (b *Builder) Permits(n int) *Builder {
	b.permits = n
	return b
}

// FDLimit is an alternate, clamped way to supply an explicit FD budget. It
// is clamped to [4, 1024] like the environment override, and takes
// precedence over the environment override; Permits, if also set, wins over
// both.
func (b *Builder) FDLimit(n int) *Builder {
	b.fdLimit = n
	return b
}

// Roots sets the ordered list of root directories operations are confined
// to. Each must exist at Build time; Build canonicalizes them and does not
// check that they are directories.
func (b *Builder) Roots(roots ...string) *Builder {
	b.roots = append([]string(nil), roots...)
	return b
}

// SymlinkPolicy overrides the default DenyCrossRoot policy.
func (b *Builder) SymlinkPolicy(policy pathpolicy.SymlinkPolicy) *Builder {
	b.symlinkPolicy = policy
	return b
}

// EnableWatcher turns on the optional watcher subsystem. It has no effect
// unless Roots has also been called with a non-empty list.
func (b *Builder) EnableWatcher(enabled bool) *Builder {
	b.enableWatcher = enabled
	return b
}

// WatcherDebounce overrides the default 250ms debounce window used for
// coalescing watcher events.
func (b *Builder) WatcherDebounce(d time.Duration) *Builder {
	b.watcherDebounce = d
	return b
}

// Fingerprinter overrides the default fingerprinting capability. Most
// production deployments should inject their syntactic analyzer's
// fingerprinter here rather than rely on the built-in stand-in.
func (b *Builder) Fingerprinter(fp fingerprint.Fingerprinter) *Builder {
	b.fingerprinter = fp
	return b
}

// Logger overrides the default root logger.
func (b *Builder) Logger(logger *logging.Logger) *Builder {
	b.logger = logger
	return b
}

// Build constructs the Handle, canonicalizing roots and starting the
// dispatcher goroutine (and, if enabled, the watcher goroutine). ctx
// governs the watcher's lifetime; cancelling it stops the watcher
// independent of calling Shutdown on the Handle.
func (b *Builder) Build(ctx context.Context) (*Handle, error) {
	var policy *pathpolicy.Policy
	if len(b.roots) > 0 {
		p, err := pathpolicy.New(b.roots, b.symlinkPolicy)
		if err != nil {
			return nil, err
		}
		policy = p
	} else {
		policy = pathpolicy.AnyAbsolute()
	}

	budget := computeFDBudget(b.permits, b.fdLimit)

	var watcher *watching.Watcher
	var watcherEvents <-chan watching.ChangeEvent
	if b.enableWatcher && len(b.roots) > 0 {
		w, err := watching.New(policy.Roots(), b.watcherDebounce, b.logger.Sublogger("watcher"))
		if err != nil {
			return nil, ioerror.Wrap(ioerror.KindInternal, "build", "", err)
		}
		watcher = w
		go func() {
			if err := watcher.Run(ctx); err != nil && b.logger != nil {
				b.logger.Debugf("watcher run loop exited: %v", err)
			}
		}()
	}

	eng := newEngine(policy, b.fingerprinter, budget, b.logger, watcher)
	d := newDispatcher(eng, b.logger)
	go d.run()

	if watcher != nil {
		ch, _ := watcher.Subscribe()
		watcherEvents = ch
	}

	return &Handle{
		dispatcher: d,
		watcher:    watcher,
		events:     watcherEvents,
	}, nil
}
