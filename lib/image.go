package lib

import (
	"errors"
	"path"
	"strings"

	"github.com/google/uuid"
)

// MaxImageRefLen is the width of the products.image column.
const MaxImageRefLen = 100

var ErrInvalidImageRef = errors.New("invalid image reference")

// NormalizeImageRef returns ref as a clean path under uploadDir. Bare file names are
// placed under uploadDir; paths escaping it are rejected.
func NormalizeImageRef(ref, uploadDir string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", ErrInvalidImageRef
	}

	dir := path.Clean(uploadDir)
	var cleaned string
	if strings.HasPrefix(ref, dir+"/") {
		cleaned = path.Clean(ref)
	} else {
		base := path.Base(ref)
		if base == "." || base == "/" || base == ".." {
			return "", ErrInvalidImageRef
		}
		cleaned = path.Join(dir, base)
	}

	if !strings.HasPrefix(cleaned, dir+"/") || len(cleaned) > MaxImageRefLen {
		return "", ErrInvalidImageRef
	}
	return cleaned, nil
}

// NewImageKey returns a collision-free object key under uploadDir for an uploaded file,
// keeping the lower-cased extension of filename.
func NewImageKey(filename, uploadDir string) string {
	ext := strings.ToLower(path.Ext(strings.TrimSpace(filename)))
	return path.Join(path.Clean(uploadDir), uuid.NewString()+ext)
}
