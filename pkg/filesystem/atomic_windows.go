// +build windows

package filesystem

// isCrossDeviceError reports whether err is due to an attempted rename
// across devices. Windows renames across volumes fail with a distinct,
// non-EXDEV error that this core does not yet special-case; treating every
// rename failure as a generic error here is conservative, not wrong.
func isCrossDeviceError(err error) bool {
	return false
}
