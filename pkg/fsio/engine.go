package fsio

import (
	"github.com/ploke-dev/ploke-io/pkg/filesystem/watching"
	"github.com/ploke-dev/ploke-io/pkg/fingerprint"
	"github.com/ploke-dev/ploke-io/pkg/logging"
	"github.com/ploke-dev/ploke-io/pkg/pathpolicy"

	"golang.org/x/sync/semaphore"
)

// engine holds the dependencies shared by the read, scan, and write path
// implementations: the path policy every request is resolved through, the
// fingerprinting capability, the per-path lock registry, the file
// descriptor budget semaphore, the logger, and an optional watcher for
// publishing synthetic change events after a write.
type engine struct {
	policy        *pathpolicy.Policy
	fingerprinter fingerprint.Fingerprinter
	locks         *lockRegistry
	fdBudget      *semaphore.Weighted
	logger        *logging.Logger
	watcher       *watching.Watcher
}

func newEngine(policy *pathpolicy.Policy, fp fingerprint.Fingerprinter, fdBudget int, logger *logging.Logger, watcher *watching.Watcher) *engine {
	return &engine{
		policy:        policy,
		fingerprinter: fp,
		locks:         newLockRegistry(),
		fdBudget:      semaphore.NewWeighted(int64(fdBudget)),
		logger:        logger,
		watcher:       watcher,
	}
}
