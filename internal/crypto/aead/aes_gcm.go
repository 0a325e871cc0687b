// Package aead implements the single AEAD primitive the envelope relies on:
// AES-256-GCM. The envelope is laid out so other suites could be added
// later, but only this one is wired up.
package aead

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
)

// AlgorithmAESGCM is the single supported algorithm identifier, embedded
// verbatim in every envelope header.
const AlgorithmAESGCM = "AES-256-GCM"

// KeySize is the required length, in bytes, of every AES-256-GCM key.
const KeySize = 32

// NonceSize is the length, in bytes, of the random nonce prefixed to every
// sealed output.
const NonceSize = 12

// TagSize is the length, in bytes, of the GCM authentication tag.
const TagSize = 16

// Cipher seals and opens plaintext under a single 256-bit key using
// AES-256-GCM with a 128-bit tag.
type Cipher struct {
	aead cipher.AEAD
}

// New builds a Cipher from a 32-byte key. The key is not copied or retained
// beyond constructing the underlying block cipher.
func New(key []byte) (*Cipher, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("aead: key must be exactly %d bytes, got %d", KeySize, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aead: failed to create aes cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("aead: failed to create gcm: %w", err)
	}

	return &Cipher{aead: gcm}, nil
}

// GenerateKey returns a fresh, CSPRNG-sourced 256-bit key.
func GenerateKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("aead: failed to generate key: %w", err)
	}
	return key, nil
}

// Seal encrypts plaintext, authenticating aad alongside it, and lays the
// output out as nonce(12) ‖ ciphertext ‖ tag(16). A fresh nonce is drawn from
// the CSPRNG on every call; reusing (key, nonce) is a caller bug, not
// something this type can detect.
func (c *Cipher) Seal(plaintext, aad []byte) ([]byte, error) {
	nonce := make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("aead: failed to generate nonce: %w", err)
	}

	sealed := c.aead.Seal(nonce, nonce, plaintext, aad)
	return sealed, nil
}

// Open reverses Seal. It fails with ErrAuthenticationFailure on tag
// mismatch and ErrMalformedCiphertext if sealed is shorter than
// nonce+tag.
func (c *Cipher) Open(sealed, aad []byte) ([]byte, error) {
	if len(sealed) < NonceSize+TagSize {
		return nil, ErrMalformedCiphertext
	}

	nonce, ciphertext := sealed[:NonceSize], sealed[NonceSize:]
	plaintext, err := c.aead.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil, ErrAuthenticationFailure
	}
	return plaintext, nil
}
