// Package vault guards original evidence images: authenticated encryption at
// rest, irreversible blur masking for the public copy, and the access gate
// that decides who may see an original.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/reclaim-dev/reclaim/internal/model"
)

// Cipher performs AES-256-GCM encryption of original assets. The key is
// process-wide configuration, never derived from request data.
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher creates a Cipher from a hex-encoded 32-byte key.
func NewCipher(keyHex string) (*Cipher, error) {
	key, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, fmt.Errorf("decoding image key: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("image key must be 32 bytes, got %d", len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("creating GCM: %w", err)
	}

	return &Cipher{aead: aead}, nil
}

// Encrypt seals plaintext into a nonce-prefixed blob.
func (c *Cipher) Encrypt(plain []byte) ([]byte, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generating nonce: %w", err)
	}
	return c.aead.Seal(nonce, nonce, plain, nil), nil
}

// Decrypt opens a nonce-prefixed blob. Tampered or truncated input fails
// authentication and surfaces as model.ErrAsset; it is fatal for the single
// request only.
func (c *Cipher) Decrypt(blob []byte) ([]byte, error) {
	if len(blob) < c.aead.NonceSize() {
		return nil, fmt.Errorf("ciphertext too short: %w", model.ErrAsset)
	}
	nonce, ciphertext := blob[:c.aead.NonceSize()], blob[c.aead.NonceSize():]
	plain, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("decrypting asset: %w", model.ErrAsset)
	}
	return plain, nil
}
