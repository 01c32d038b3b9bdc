// Package ui styles terminal output for the sn command.
package ui

import "fmt"

// ANSI256 color codes matching the Ayu palette.
const (
	colorAccent = 74  // blue
	colorCmd    = 250 // light gray
	colorMuted  = 245 // medium gray
	colorWarn   = 179 // amber
	colorError  = 203 // red
	colorOK     = 114 // green
)

var noColor bool

func paint(code int, s string) string {
	if noColor || s == "" {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", code, s)
}

// RenderAccent returns s in the accent (blue) color. Used for node labels.
func RenderAccent(s string) string { return paint(colorAccent, s) }

// RenderMuted returns s in the muted (gray) color. Used for ids and counts.
func RenderMuted(s string) string { return paint(colorMuted, s) }

// RenderCommand returns s styled as a command name (light gray).
func RenderCommand(s string) string { return paint(colorCmd, s) }

// RenderWarn marks cut branches and soft misses.
func RenderWarn(s string) string { return paint(colorWarn, s) }

// RenderError marks failures.
func RenderError(s string) string { return paint(colorError, s) }

// RenderOK marks accepted scans.
func RenderOK(s string) string { return paint(colorOK, s) }

// ForceNoColor disables color output globally.
func ForceNoColor() {
	noColor = true
}
