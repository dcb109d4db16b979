package lib

import (
	"errors"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

var ErrInvalidPhone = errors.New("invalid phone number")

// NormalizePhone parses an international (or, without a leading +, defaultRegion-local)
// phone number and returns its canonical E.164 form.
func NormalizePhone(raw, defaultRegion string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrInvalidPhone
	}

	num, err := phonenumbers.Parse(raw, defaultRegion)
	if err != nil {
		return "", ErrInvalidPhone
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", ErrInvalidPhone
	}

	return phonenumbers.Format(num, phonenumbers.E164), nil
}

// NormalizeOptionalPhone is NormalizePhone for nullable columns: nil and blank input
// both map to nil. Failures are added to ve under field.
func NormalizeOptionalPhone(raw *string, defaultRegion, field string, ve *ValidationError) *string {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil
	}
	phone, err := NormalizePhone(*raw, defaultRegion)
	if err != nil {
		ve.Add(field, "must be a valid phone number")
		return nil
	}
	return &phone
}
