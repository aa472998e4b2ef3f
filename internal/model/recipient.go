package model

import (
	"fmt"
	"regexp"
	"strings"
)

// Recipient is one message target within a dispatch batch. The phone number
// is the unique key within the batch. Overrides take precedence over the
// batch's common variables for the names they contain.
type Recipient struct {
	Phone     string            `json:"phone"`
	Name      string            `json:"name,omitempty"`
	Overrides map[string]string `json:"overrides,omitempty"`
}

var mobileRe = regexp.MustCompile(`^01[0-9]{8,9}$`)

// NormalizePhone strips every non-digit character and validates the result
// as a Korean mobile number.
func NormalizePhone(phone string) (string, error) {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}

	clean := b.String()
	if !mobileRe.MatchString(clean) {
		return "", fmt.Errorf("invalid phone number: %s", phone)
	}

	return clean, nil
}
