package model

import "strings"

// MaxDigitCount bounds the length of generated and supplied secrets
const MaxDigitCount = 12

// Secret is the hidden digit sequence a player must guess.
// Leading zeros are significant, so it is kept as a string rather than a number.
type Secret string

// ParseSecret validates raw input as a sequence of decimal digits
func ParseSecret(raw string) (Secret, error) {
	s := strings.TrimSpace(raw)
	if s == "" || len(s) > MaxDigitCount {
		return "", ErrInvalidSecret
	}
	if !IsDigits(s) {
		return "", ErrInvalidSecret
	}
	return Secret(s), nil
}

// Len returns the number of digits in the secret
func (s Secret) Len() int {
	return len(s)
}

// IsZero returns true if no secret has been assigned
func (s Secret) IsZero() bool {
	return s == ""
}

// IsDigits returns true if s is non-empty and every byte is 0-9
func IsDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
