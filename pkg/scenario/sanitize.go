package scenario

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// DefaultMaxTextSize bounds every string argument of a step (64KB).
	DefaultMaxTextSize = 64 << 10
	// EnvMaxTextSize overrides DefaultMaxTextSize.
	EnvMaxTextSize = "EASEL_MAX_TEXT_SIZE"
)

var (
	ErrTextTooLarge = errors.New("text exceeds maximum allowed size")
	ErrInvalidUTF8  = errors.New("text contains invalid UTF-8 sequences")
)

// SanitizeText enforces the size limit, validates UTF-8 and strips control
// characters other than newline, tab and carriage return.
// Oversized text is rejected, never truncated.
func SanitizeText(text string) (string, error) {
	limit := maxTextSize()
	if len(text) > limit {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrTextTooLarge, len(text), limit)
	}
	if !utf8.ValidString(text) {
		return "", ErrInvalidUTF8
	}

	clean := true
	for _, r := range text {
		if unicode.IsControl(r) && !isSafeControl(r) {
			clean = false
			break
		}
	}
	if clean {
		return text, nil
	}

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if !unicode.IsControl(r) || isSafeControl(r) {
			b.WriteRune(r)
		}
	}
	return b.String(), nil
}

func isSafeControl(r rune) bool {
	return r == '\n' || r == '\t' || r == '\r'
}

func maxTextSize() int {
	if val := os.Getenv(EnvMaxTextSize); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return DefaultMaxTextSize
}

// sanitizeArgs cleans the string arguments of step i in place.
func sanitizeArgs(i int, with map[string]any) error {
	for key, v := range with {
		s, ok := v.(string)
		if !ok {
			continue
		}
		clean, err := SanitizeText(s)
		if err != nil {
			return &ValidationError{Paths: []string{fmt.Sprintf("/steps/%d/with/%s", i, key)}, Reason: "invalid text", Cause: err}
		}
		with[key] = clean
	}
	return nil
}
