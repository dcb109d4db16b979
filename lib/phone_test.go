package lib

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"international", "+1 650-253-0000", "+16502530000"},
		{"e164", "+16502530000", "+16502530000"},
		{"national with default region", "06 12345678", "+31612345678"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizePhone(tt.raw, "NL")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizePhoneInvalid(t *testing.T) {
	for _, raw := range []string{"", "   ", "not-a-phone", "+1 12"} {
		_, err := NormalizePhone(raw, "NL")
		assert.ErrorIs(t, err, ErrInvalidPhone, raw)
	}
}

func TestNormalizeOptionalPhone(t *testing.T) {
	ve := &ValidationError{}

	assert.Nil(t, NormalizeOptionalPhone(nil, "NL", "phone", ve))
	blank := "  "
	assert.Nil(t, NormalizeOptionalPhone(&blank, "NL", "phone", ve))
	assert.NoError(t, ve.OrNil())

	raw := "+1 650 253 0000"
	got := NormalizeOptionalPhone(&raw, "NL", "phone", ve)
	require.NotNil(t, got)
	assert.Equal(t, "+16502530000", *got)

	bad := "12"
	assert.Nil(t, NormalizeOptionalPhone(&bad, "NL", "phone", ve))
	assert.Equal(t, []FieldError{{Field: "phone", Message: "must be a valid phone number"}}, ve.Errors)
}
