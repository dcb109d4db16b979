package lib

import (
	"strings"
	"testing"

	"storefront_server/structs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testParams = &structs.ArgonParams{Memory: 1024, Time: 1, Threads: 1, KeyLen: 32, SaltLen: 16}

func TestHashPassword(t *testing.T) {
	encoded, err := HashPassword("secret123", testParams)
	require.NoError(t, err)

	assert.NotEqual(t, "secret123", encoded)
	assert.True(t, strings.HasPrefix(encoded, "$argon2id$v=19$m=1024,t=1,p=1$"))
	assert.LessOrEqual(t, len(encoded), MaxEncodedPasswordLen)

	ok, err := VerifyPassword("secret123", encoded)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("secret124", encoded)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashPasswordUsesFreshSalt(t *testing.T) {
	first, err := HashPassword("secret123", testParams)
	require.NoError(t, err)
	second, err := HashPassword("secret123", testParams)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestHashPasswordDefaultParamsFitColumn(t *testing.T) {
	params := &structs.ArgonParams{Memory: 64 * 1024, Time: 1, Threads: 4, KeyLen: 32, SaltLen: 16}
	encoded, err := HashPassword("secret123", params)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(encoded), MaxEncodedPasswordLen)
}

func TestHashPasswordRejectsOversizedEncoding(t *testing.T) {
	_, err := HashPassword("secret123", &structs.ArgonParams{Memory: 1024, Time: 1, Threads: 1, KeyLen: 64, SaltLen: 64})
	assert.Error(t, err)
}

func TestDecodeArgon2Hash(t *testing.T) {
	encoded, err := HashPassword("secret123", testParams)
	require.NoError(t, err)

	parts, err := DecodeArgon2Hash(encoded)
	require.NoError(t, err)
	assert.Equal(t, uint32(1024), parts.Memory)
	assert.Equal(t, uint32(1), parts.Time)
	assert.Equal(t, uint8(1), parts.Threads)
	assert.Equal(t, uint32(32), parts.KeyLen)
	assert.Len(t, parts.Salt, 16)
}

func TestDecodeArgon2HashInvalid(t *testing.T) {
	tests := []struct {
		name    string
		encoded string
		want    error
	}{
		{"plaintext", "secret123", ErrInvalidHash},
		{"wrong algorithm", "$argon2i$v=19$m=1024,t=1,p=1$c2FsdHNhbHQ$aGFzaA", ErrInvalidHash},
		{"wrong version", "$argon2id$v=16$m=1024,t=1,p=1$c2FsdHNhbHQ$aGFzaA", ErrIncompatibleVersion},
		{"bad params", "$argon2id$v=19$m=x,t=1,p=1$c2FsdHNhbHQ$aGFzaA", ErrInvalidHash},
		{"zero time", "$argon2id$v=19$m=1024,t=0,p=1$c2FsdHNhbHQ$aGFzaA", ErrInvalidHash},
		{"bad salt", "$argon2id$v=19$m=1024,t=1,p=1$!!!$aGFzaA", ErrInvalidHash},
		{"empty hash", "$argon2id$v=19$m=1024,t=1,p=1$c2FsdHNhbHQ$", ErrInvalidHash},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeArgon2Hash(tt.encoded)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestVerifyPasswordRejectsPlaintextStoredValue(t *testing.T) {
	ok, err := VerifyPassword("secret123", "secret123")
	assert.ErrorIs(t, err, ErrInvalidHash)
	assert.False(t, ok)
}
