// Package kms wraps and unwraps Data Encryption Keys through an external
// Key Management Service. Two adapters satisfy the same interface:
// Production talks to a real KMS over gRPC with end-to-end CRC32C
// integrity checks; Development substitutes a single locally-configured
// KEK and wraps/unwraps with the AEAD primitive directly.
package kms

import "context"

// Adapter wraps and unwraps DEK plaintext under a named KEK. Production and
// development implementations are interchangeable at construction time.
type Adapter interface {
	// WrapDEK wraps plaintextKey under the KEK named by kekID ("" selects
	// the adapter's configured default, used by the development adapter).
	WrapDEK(ctx context.Context, plaintextKey []byte, kekID string) (wrapped []byte, err error)

	// UnwrapDEK unwraps wrapped, which was wrapped under the KEK named
	// kekID.
	UnwrapDEK(ctx context.Context, wrapped []byte, kekID string) (plaintextKey []byte, err error)

	// ReencryptDEK re-wraps wrapped from oldKekID to newKekID. The default
	// implementation is unwrap-then-wrap; a production KMS capable of a
	// native re-encrypt RPC may override this for efficiency.
	ReencryptDEK(ctx context.Context, wrapped []byte, oldKekID, newKekID string) (rewrapped []byte, err error)

	// DefaultKekID returns the KEK identifier new DEKs should be wrapped
	// under.
	DefaultKekID() string
}

// reencryptViaUnwrapWrap implements the unwrap+wrap fallback shared by both
// adapters.
func reencryptViaUnwrapWrap(
	ctx context.Context,
	a Adapter,
	wrapped []byte,
	oldKekID, newKekID string,
) ([]byte, error) {
	plaintext, err := a.UnwrapDEK(ctx, wrapped, oldKekID)
	if err != nil {
		return nil, err
	}
	defer zero(plaintext)

	return a.WrapDEK(ctx, plaintext, newKekID)
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
