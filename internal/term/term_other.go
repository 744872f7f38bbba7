//go:build !linux && !darwin && !freebsd && !netbsd && !openbsd && !windows

package term

func isTerminal(uintptr) bool {
	return false
}
