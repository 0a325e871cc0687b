package kms

import (
	"context"
	"fmt"

	"github.com/sealedbox/sealedbox/internal/crypto/aead"
)

// devKekID is the implicit identifier used for every DEK wrapped by the
// development adapter — there is only ever one KEK, and it's named by
// configuration rather than a KMS resource path.
const devKekID = "dev"

// DevelopmentAdapter wraps/unwraps DEKs with a single locally-configured
// 32-byte KEK using the AEAD primitive directly. It is header-less: the
// KEK's identity is implicit in config, not embedded in the wrapped bytes.
type DevelopmentAdapter struct {
	cipher *aead.Cipher
}

// NewDevelopmentAdapter builds a DevelopmentAdapter from a 32-byte KEK.
func NewDevelopmentAdapter(kek []byte) (*DevelopmentAdapter, error) {
	cipher, err := aead.New(kek)
	if err != nil {
		return nil, fmt.Errorf("kms: invalid development kek: %w", err)
	}
	return &DevelopmentAdapter{cipher: cipher}, nil
}

// WrapDEK seals plaintextKey under the configured KEK. kekID is accepted
// for interface compatibility but ignored — there's only one KEK.
func (d *DevelopmentAdapter) WrapDEK(_ context.Context, plaintextKey []byte, _ string) ([]byte, error) {
	return d.cipher.Seal(plaintextKey, nil)
}

// UnwrapDEK opens wrapped under the configured KEK.
func (d *DevelopmentAdapter) UnwrapDEK(_ context.Context, wrapped []byte, _ string) ([]byte, error) {
	return d.cipher.Open(wrapped, nil)
}

// ReencryptDEK is a no-op re-wrap: there is only one KEK in development
// mode, so old and new are always the same key.
func (d *DevelopmentAdapter) ReencryptDEK(ctx context.Context, wrapped []byte, _, _ string) ([]byte, error) {
	plaintext, err := d.UnwrapDEK(ctx, wrapped, devKekID)
	if err != nil {
		return nil, err
	}
	defer zero(plaintext)
	return d.WrapDEK(ctx, plaintext, devKekID)
}

// DefaultKekID returns the implicit development KEK identifier.
func (d *DevelopmentAdapter) DefaultKekID() string {
	return devKekID
}
