package filesystem

const (
	// TemporaryNamePrefix is the file name prefix used for all temporary
	// files created by the I/O core. Using this prefix guarantees that any
	// such files are ignored by the file watcher. It may be suffixed with
	// additional elements if desired.
	TemporaryNamePrefix = ".plokeio-temporary-"
)
