package kms

import (
	"context"
	"errors"
	"fmt"
	"hash/crc32"
	"time"

	kmsapi "cloud.google.com/go/kms/apiv1"
	"cloud.google.com/go/kms/apiv1/kmspb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	apperrors "github.com/sealedbox/sealedbox/internal/errors"
)

// ProductionAdapter wraps/unwraps DEKs through a remote KMS key, verifying
// end-to-end CRC32C integrity on every call per the transport contract: the
// KMS confirms it received the plaintext we sent uncorrupted, and we verify
// the response it returns wasn't corrupted in transit either. Any mismatch
// is a TransportCorruption fault and is never silently retried here. Every
// RPC is additionally bounded by timeout, surfaced as TransportTimeout.
type ProductionAdapter struct {
	client     *kmsapi.KeyManagementClient
	defaultKey string // projects/p/locations/l/keyRings/r/cryptoKeys/k
	timeout    time.Duration
}

// NewProductionAdapter builds a ProductionAdapter bound to defaultKeyPath,
// bounding every Encrypt/Decrypt RPC to timeout.
func NewProductionAdapter(ctx context.Context, defaultKeyPath string, timeout time.Duration) (*ProductionAdapter, error) {
	client, err := kmsapi.NewKeyManagementClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("kms: failed to create client: %w", err)
	}
	return &ProductionAdapter{client: client, defaultKey: defaultKeyPath, timeout: timeout}, nil
}

// withTimeout wraps an RPC call, mapping a deadline exceeded into
// KindTransportTimeout so callers don't need to know about contexts.
func withTimeout[T any](ctx context.Context, timeout time.Duration, call func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := call(ctx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			var zero T
			return zero, apperrors.Wrap(apperrors.KindTransportTimeout, apperrors.ErrTransportTimeout,
				"kms: rpc exceeded timeout")
		}
		var zero T
		return zero, err
	}
	return resp, nil
}

func crc32c(data []byte) int64 {
	return int64(crc32.Checksum(data, crc32.MakeTable(crc32.Castagnoli)))
}

func keyName(kekID, fallback string) string {
	if kekID == "" {
		return fallback
	}
	return kekID
}

// WrapDEK encrypts plaintextKey via the KMS Encrypt RPC, transmitting the
// plaintext CRC and verifying the server confirmed it, then verifying the
// returned ciphertext's CRC ourselves.
func (p *ProductionAdapter) WrapDEK(ctx context.Context, plaintextKey []byte, kekID string) ([]byte, error) {
	req := &kmspb.EncryptRequest{
		Name:            keyName(kekID, p.defaultKey),
		Plaintext:       plaintextKey,
		PlaintextCrc32C: wrapperspb.Int64(crc32c(plaintextKey)),
	}

	resp, err := withTimeout(ctx, p.timeout, func(ctx context.Context) (*kmspb.EncryptResponse, error) {
		return p.client.Encrypt(ctx, req)
	})
	if err != nil {
		if apperrors.GetKind(err) == apperrors.KindTransportTimeout {
			return nil, err
		}
		return nil, apperrors.WrapInternal(err, "kms: encrypt rpc failed")
	}

	if !resp.GetVerifiedPlaintextCrc32C() {
		return nil, apperrors.Wrap(apperrors.KindTransportCorruption, apperrors.ErrTransportCorruption,
			"kms: server did not confirm plaintext crc32c")
	}
	if crc32c(resp.GetCiphertext()) != resp.GetCiphertextCrc32C().GetValue() {
		return nil, apperrors.Wrap(apperrors.KindTransportCorruption, apperrors.ErrTransportCorruption,
			"kms: response ciphertext crc32c mismatch")
	}

	return resp.GetCiphertext(), nil
}

// UnwrapDEK decrypts wrapped via the KMS Decrypt RPC, transmitting the
// ciphertext CRC and verifying the returned plaintext's CRC ourselves.
func (p *ProductionAdapter) UnwrapDEK(ctx context.Context, wrapped []byte, kekID string) ([]byte, error) {
	req := &kmspb.DecryptRequest{
		Name:             keyName(kekID, p.defaultKey),
		Ciphertext:       wrapped,
		CiphertextCrc32C: wrapperspb.Int64(crc32c(wrapped)),
	}

	resp, err := withTimeout(ctx, p.timeout, func(ctx context.Context) (*kmspb.DecryptResponse, error) {
		return p.client.Decrypt(ctx, req)
	})
	if err != nil {
		if apperrors.GetKind(err) == apperrors.KindTransportTimeout {
			return nil, err
		}
		return nil, apperrors.WrapInternal(err, "kms: decrypt rpc failed")
	}

	if crc32c(resp.GetPlaintext()) != resp.GetPlaintextCrc32C().GetValue() {
		return nil, apperrors.Wrap(apperrors.KindTransportCorruption, apperrors.ErrTransportCorruption,
			"kms: response plaintext crc32c mismatch")
	}

	return resp.GetPlaintext(), nil
}

// ReencryptDEK unwraps under oldKekID and re-wraps under newKekID. The KMS
// API exposes no native re-encrypt RPC for symmetric keys, so this is
// unwrap+wrap, each independently CRC-checked.
func (p *ProductionAdapter) ReencryptDEK(ctx context.Context, wrapped []byte, oldKekID, newKekID string) ([]byte, error) {
	return reencryptViaUnwrapWrap(ctx, p, wrapped, oldKekID, newKekID)
}

// DefaultKekID returns the configured default KMS key path.
func (p *ProductionAdapter) DefaultKekID() string {
	return p.defaultKey
}

// Close releases the underlying gRPC connection.
func (p *ProductionAdapter) Close() error {
	return p.client.Close()
}
