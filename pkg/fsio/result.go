package fsio

import "github.com/ploke-dev/ploke-io/pkg/fingerprint"

// ReadResult is the successful outcome of a single ReadRequest.
type ReadResult struct {
	ID      string
	Content string
}

// Delta describes the shape of a write's effect on a file so that callers
// can re-derive offsets for any stale in-memory ranges they're holding.
type Delta struct {
	Start      int
	RemovedLen int
	AddedLen   int
}

// WriteResult is the successful outcome of a WriteRequest.
type WriteResult struct {
	ID                string
	NewFileFingerprint fingerprint.Fingerprint
	Delta              Delta
}

// ChangedFileRecord is produced by a ScanRequest whose current fingerprint
// no longer matches the caller's expectation. A ScanRequest whose content
// has not drifted produces no record.
type ChangedFileRecord struct {
	ID             string
	Namespace      string
	OldFingerprint fingerprint.Fingerprint
	NewFingerprint fingerprint.Fingerprint
	AbsolutePath   string
}
