// Package color provides ANSI terminal styling for the CLI output.
package color

import (
	"fmt"
	"os"
)

const (
	reset  = "\033[0m"
	yellow = "\033[33m"
	cyan   = "\033[36m"
	bold   = "\033[1m"
	dimmed = "\033[2m"
)

// enabled tracks whether color output is active.
var enabled = isTerminal() && os.Getenv("NO_COLOR") == ""

// isTerminal returns true if stdout appears to be a terminal.
func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}

// Disable turns off color output (useful for piped/redirected output).
func Disable() { enabled = false }

func wrap(c, s string) string {
	if !enabled {
		return s
	}
	return c + s + reset
}

// Header formats a section header.
func Header(s string) string { return wrap(bold+cyan, "--- "+s+" ---") }

// Bold formats text as bold.
func Bold(s string) string { return wrap(bold, s) }

// Dim formats text as dimmed.
func Dim(s string) string { return wrap(dimmed, s) }

// Warn formats a warning marker.
func Warn(msg string) string { return wrap(yellow, "[WARN] "+msg) }

// Warnf is a formatted Warn printf.
func Warnf(format string, a ...any) string { return Warn(fmt.Sprintf(format, a...)) }
