//go:build unix

package fsio

import "golang.org/x/sys/unix"

// querySoftFileLimit returns the process's soft RLIMIT_NOFILE, if it can be
// queried.
func querySoftFileLimit() (int, bool) {
	var limit unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &limit); err != nil {
		return 0, false
	}
	if limit.Cur <= 0 {
		return 0, false
	}
	return int(limit.Cur), true
}
