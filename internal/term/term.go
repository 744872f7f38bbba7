// Package term reports whether output goes to an interactive terminal.
package term

import "os"

// IsTerminal reports whether f refers to a terminal.
func IsTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	return isTerminal(f.Fd())
}

// ColorEnabled reports whether ANSI colors should be written to f. Colors
// are off when NO_COLOR is set, when TERM is "dumb", or when f is not a
// terminal.
func ColorEnabled(f *os.File) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	return IsTerminal(f)
}
