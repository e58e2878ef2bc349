// Package fingerprint defines the opaque content-identity capability used
// by the file I/O core to guard optimistic-concurrency writes. The core
// never inspects a fingerprint's bytes or derivation; it only compares two
// fingerprints for equality and asks an injected Fingerprinter to produce
// one from content.
package fingerprint

import "encoding/hex"

// Fingerprint is an opaque content-identity value. It is directly
// comparable, which is the only operation the core relies on: two
// fingerprints are either equal (same content, as far as the collaborator
// that produced them is concerned) or not.
type Fingerprint [32]byte

// String renders the fingerprint as a hex string for logging.
func (f Fingerprint) String() string {
	return hex.EncodeToString(f[:])
}

// Fingerprinter produces fingerprints from content. It is supplied by the
// caller at construction time, not baked into the core, so that the
// definition of "same content" can live wherever the authoritative
// syntactic analyzer for a given language lives.
type Fingerprinter interface {
	// Fingerprint derives a Fingerprint from the full contents of a file.
	Fingerprint(content []byte) (Fingerprint, error)
}

// Func adapts a plain function to the Fingerprinter interface.
type Func func(content []byte) (Fingerprint, error)

// Fingerprint implements Fingerprinter.
func (f Func) Fingerprint(content []byte) (Fingerprint, error) {
	return f(content)
}
