package archive

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// CodeLength is the width of generated short codes.
const CodeLength = 8

// SaltedCodeGenerator derives short codes from the URL combined with a
// cryptographically random salt, so repeated submissions of the same URL
// get distinct codes and collisions can be resolved by regenerating.
type SaltedCodeGenerator struct{}

// NewSaltedCodeGenerator creates a SaltedCodeGenerator.
func NewSaltedCodeGenerator() *SaltedCodeGenerator {
	return &SaltedCodeGenerator{}
}

// NewCode returns a CodeLength-character hex token for the URL.
func (SaltedCodeGenerator) NewCode(url string) (string, error) {
	salt := make([]byte, 8)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("read salt: %w", err)
	}
	sum := sha256.Sum256([]byte(url + base64.RawURLEncoding.EncodeToString(salt)))
	return hex.EncodeToString(sum[:])[:CodeLength], nil
}
