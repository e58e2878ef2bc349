package fsio

import "unicode/utf8"

// checkBoundary reports whether offset lands on a UTF-8 character boundary
// within content: either at the very start or end of content, or at a byte
// that begins a rune (not a continuation byte).
func checkBoundary(content []byte, offset int) bool {
	if offset == 0 || offset == len(content) {
		return true
	}
	if offset < 0 || offset > len(content) {
		return false
	}
	return utf8.RuneStart(content[offset])
}
