package util

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// TruncateBytes trims input to at most maxBytes without splitting a rune.
func TruncateBytes(input string, maxBytes int) (string, bool) {
	if maxBytes <= 0 || len(input) <= maxBytes {
		return input, false
	}
	cut := maxBytes
	for cut > 0 && !utf8.RuneStart(input[cut]) {
		cut--
	}
	return input[:cut], true
}

// CapOutput truncates input and appends a marker with the dropped byte count.
func CapOutput(input string, maxBytes int) (string, bool) {
	out, truncated := TruncateBytes(input, maxBytes)
	if !truncated {
		return input, false
	}
	return fmt.Sprintf("%s\n[truncated %d bytes]", out, len(input)-len(out)), true
}

// LineCount counts lines the way an editor shows them.
func LineCount(text string) int {
	if text == "" {
		return 0
	}
	return strings.Count(strings.TrimSuffix(text, "\n"), "\n") + 1
}

// Preview returns the first maxLines lines of text, capped at maxBytes.
func Preview(text string, maxLines int, maxBytes int) string {
	if text == "" {
		return ""
	}
	lines := strings.Split(text, "\n")
	if maxLines > 0 && len(lines) > maxLines {
		lines = lines[:maxLines]
	}
	out, _ := TruncateBytes(strings.Join(lines, "\n"), maxBytes)
	return out
}
