package task

import (
	"strings"
	"unicode/utf8"
)

// MaxTitleLength is measured in runes after trimming.
const MaxTitleLength = 50

// ValidateTitle returns the trimmed title or ErrEmptyTitle / ErrTitleTooLong.
func ValidateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", ErrEmptyTitle
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return "", ErrTitleTooLong
	}
	return title, nil
}

func NormalizeDescription(desc string) string {
	return strings.TrimSpace(desc)
}
