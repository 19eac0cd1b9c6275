// Package digest provides content hashing used to pin patch inputs.
package digest

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// ErrHashMismatch is returned when content does not match the expected digest.
var ErrHashMismatch = errors.New("hash mismatch")

// Sum computes the hex SHA-256 of the content.
func Sum(content string) string {
	hash := sha256.Sum256([]byte(content))

	return hex.EncodeToString(hash[:])
}

// Verify checks the content against an expected hex digest.
func Verify(content, expected string) error {
	calculated := Sum(content)
	if !strings.EqualFold(calculated, strings.TrimSpace(expected)) {
		return fmt.Errorf("%w: expected %s, got %s", ErrHashMismatch, expected, calculated)
	}

	return nil
}
