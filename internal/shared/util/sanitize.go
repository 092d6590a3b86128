package util

import (
	"errors"
	"path/filepath"
	"strings"
	"unicode"
)

// ErrInvalidFileName is returned for names that cannot be stored safely.
var ErrInvalidFileName = errors.New("invalid file name")

// MaxFileNameRunes bounds stored names so object keys stay well under S3's limit.
const MaxFileNameRunes = 200

// SanitizeFileName flattens path separators, drops control characters and
// rejects traversal. Overlong names are shortened keeping the extension.
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", ErrInvalidFileName
	}
	s := strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\':
			return '_'
		case unicode.IsControl(r):
			return -1
		default:
			return r
		}
	}, strings.TrimSpace(name))
	if strings.Trim(s, "_ ") == "" {
		return "", ErrInvalidFileName
	}
	if runes := []rune(s); len(runes) > MaxFileNameRunes {
		ext := []rune(filepath.Ext(s))
		if len(ext) >= MaxFileNameRunes {
			ext = nil
		}
		s = string(runes[:MaxFileNameRunes-len(ext)]) + string(ext)
	}
	return s, nil
}

// FileExt returns the lower-cased extension of name without the leading dot.
func FileExt(name string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(strings.TrimSpace(name))), ".")
}
