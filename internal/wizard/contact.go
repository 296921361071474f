package wizard

import (
	"errors"
	"regexp"
	"strings"
	"unicode"
)

// ErrInvalidContact is returned when text is neither an email nor a phone number.
var ErrInvalidContact = errors.New("contact is neither an email nor a phone number")

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]{2,}$`)
	phonePattern = regexp.MustCompile(`^\+?[\d\s\-()]+$`)
)

// ValidateContact accepts an email address or a phone number with 7 to 15
// digits. Spaces, dashes and parentheses are allowed in phone numbers.
func ValidateContact(text string) error {
	text = strings.TrimSpace(text)
	if emailPattern.MatchString(text) {
		return nil
	}
	if phonePattern.MatchString(text) {
		digits := len(strings.Map(keepDigits, text))
		if digits >= 7 && digits <= 15 {
			return nil
		}
	}
	return ErrInvalidContact
}

func keepDigits(r rune) rune {
	if unicode.IsDigit(r) {
		return r
	}
	return -1
}
