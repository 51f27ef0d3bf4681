package logger

import "github.com/charmbracelet/x/ansi"

// Clip shortens s to at most n display cells for a log line, ending it
// with "..." when cut. Multi-byte runes are never split.
func Clip(s string, n int) string {
	return ansi.Truncate(s, n, "...")
}
