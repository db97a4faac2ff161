package errors

import (
	"math"
	"strings"
	"unicode"
)

// ValidateName validates a user-supplied identifier such as a snapshot or
// display-layer name. Names end up in file paths and Redis keys, so the
// rules reject anything that could escape a directory or key namespace:
//   - No empty names
//   - No control characters or null bytes
//   - No path separators or traversal sequences
//   - Maximum length of 128 characters
func ValidateName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "name cannot be empty")
	}
	if len(name) > 128 {
		return New(ErrCodeInvalidInput, "name too long (max 128 characters)")
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "name contains invalid control characters")
		}
	}
	for _, pattern := range []string{"..", "/", "\\"} {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidInput, "name contains invalid characters: %q", pattern)
		}
	}
	return nil
}

// ValidateTileURL validates a tile URL template.
// It ensures the URL has a safe scheme (http or https).
func ValidateTileURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "tile URL cannot be empty")
	}
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "tile URL must use http or https scheme")
	}
	return nil
}

// ValidateOpacity ensures an opacity lies in [0, 1].
func ValidateOpacity(v float64) error {
	if math.IsNaN(v) || v < 0 || v > 1 {
		return New(ErrCodeInvalidInput, "opacity must be between 0 and 1, got %v", v)
	}
	return nil
}
