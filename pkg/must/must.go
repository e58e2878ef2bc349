// Package must provides helpers for performing best-effort cleanup
// operations whose errors are worth logging but not worth propagating.
package must

import (
	"io"
	"os"

	"github.com/ploke-dev/ploke-io/pkg/logging"
)

// Close closes c, logging a warning if the close fails.
func Close(c io.Closer, logger *logging.Logger) {
	if err := c.Close(); err != nil {
		logger.Warnf("Unable to close: %s", err.Error())
	}
}

// OSRemove removes the file at name, logging a warning if the removal fails.
func OSRemove(name string, logger *logging.Logger) {
	if err := os.Remove(name); err != nil {
		logger.Warnf("Unable to remove '%s': %s", name, err.Error())
	}
}
