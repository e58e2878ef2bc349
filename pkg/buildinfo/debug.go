package buildinfo

import "os"

// DebugEnabled controls whether or not verbose debug logging is enabled. It
// is set automatically based on the PLOKEIO_DEBUG environment variable.
var DebugEnabled bool

func init() {
	DebugEnabled = os.Getenv("PLOKEIO_DEBUG") == "1"
}
