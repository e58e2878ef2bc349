package logging

import (
	"log"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// CurrentLevel gates which Logger methods actually emit output. It defaults
// to LevelInfo and can be overridden via the PLOKEIO_LOG_LEVEL environment
// variable (one of "disabled", "error", "warn", "info", "debug", "trace").
var CurrentLevel = LevelInfo

func init() {
	// Set the global logger to use standard output.
	log.SetOutput(os.Stdout)

	// Disable color output when standard output isn't a terminal, so that
	// logs redirected to a file or piped into another process don't carry
	// ANSI escapes.
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		color.NoColor = true
	}

	if raw := os.Getenv("PLOKEIO_LOG_LEVEL"); raw != "" {
		if level, ok := NameToLevel(raw); ok {
			CurrentLevel = level
		}
	}
}
