package lib

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"storefront_server/structs"
	"strings"

	"golang.org/x/crypto/argon2"
)

// MaxEncodedPasswordLen is the width of the customers.password column.
const MaxEncodedPasswordLen = 128

var (
	ErrInvalidHash         = errors.New("invalid hash format")
	ErrIncompatibleVersion = errors.New("incompatible version of argon2")
)

// Argon2HashParts contains the decoded parts of an Argon2 hash
type Argon2HashParts struct {
	Memory  uint32
	Time    uint32
	Threads uint8
	KeyLen  uint32
	Salt    []byte
	Hash    []byte
}

// HashPassword derives an argon2id hash with a fresh random salt.
// Format: $argon2id$v=19$m=65536,t=1,p=4$<salt>$<hash>
func HashPassword(password string, p *structs.ArgonParams) (string, error) {
	salt, err := generateSalt(p.SaltLen)
	if err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	hash := argon2.IDKey([]byte(password), salt, p.Time, p.Memory, p.Threads, p.KeyLen)
	b64Salt := base64.RawStdEncoding.EncodeToString(salt)
	b64Hash := base64.RawStdEncoding.EncodeToString(hash)
	params := fmt.Sprintf("m=%d,t=%d,p=%d", p.Memory, p.Time, p.Threads)
	encoded := fmt.Sprintf("$argon2id$v=%d$%s$%s$%s", argon2.Version, params, b64Salt, b64Hash)
	if len(encoded) > MaxEncodedPasswordLen {
		return "", fmt.Errorf("encoded hash is %d characters, limit is %d: reduce salt or key length", len(encoded), MaxEncodedPasswordLen)
	}
	return encoded, nil
}

func generateSalt(n uint32) ([]byte, error) {
	b := make([]byte, n)
	_, err := rand.Read(b)
	return b, err
}

// VerifyPassword checks a plain-text password against an encoded hash, using the
// parameters and salt stored in the encoding.
func VerifyPassword(password, encodedHash string) (bool, error) {
	parts, err := DecodeArgon2Hash(encodedHash)
	if err != nil {
		return false, err
	}

	hash := argon2.IDKey([]byte(password), parts.Salt, parts.Time, parts.Memory, parts.Threads, parts.KeyLen)

	return SecureCompare(hash, parts.Hash), nil
}

// DecodeArgon2Hash decodes an Argon2id hash string into its component parts
// Expected format: $argon2id$v=19$m=65536,t=1,p=4$<salt>$<hash>
func DecodeArgon2Hash(encodedHash string) (*Argon2HashParts, error) {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 {
		return nil, ErrInvalidHash
	}

	if parts[1] != "argon2id" {
		return nil, ErrInvalidHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return nil, ErrInvalidHash
	}
	if version != argon2.Version {
		return nil, ErrIncompatibleVersion
	}

	var memory, time uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return nil, ErrInvalidHash
	}
	if time == 0 || threads == 0 {
		return nil, ErrInvalidHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, ErrInvalidHash
	}

	hash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(hash) == 0 {
		return nil, ErrInvalidHash
	}

	return &Argon2HashParts{
		Memory:  memory,
		Time:    time,
		Threads: threads,
		KeyLen:  uint32(len(hash)),
		Salt:    salt,
		Hash:    hash,
	}, nil
}

// SecureCompare performs a constant-time comparison of two byte slices
func SecureCompare(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}
