package util

import (
	"path/filepath"
	"strings"
)

const maxLogNameLen = 128

// LogSafeName reduces a client-supplied filename to its base name for logs.
func LogSafeName(name string) string {
	s := strings.TrimSpace(name)
	s = strings.ReplaceAll(s, "\\", "/")
	s = filepath.Base(s)
	if s == "." || s == "/" || s == "" {
		return "(unnamed)"
	}
	s = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return '_'
		}
		return r
	}, s)
	if len(s) > maxLogNameLen {
		s = s[:maxLogNameLen]
	}
	return s
}
