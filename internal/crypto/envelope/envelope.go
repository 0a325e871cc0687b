// Package envelope implements the on-disk encrypted package format: a
// header describing how the payload was sealed, and the AEAD payload
// itself, with the header bound in as associated data.
//
// The header is encoded with github.com/fxamacker/cbor/v2's canonical mode
// (deterministic map-key ordering, shortest-form integers) so that
// identical logical header values always produce byte-identical encodings —
// required because the header is re-derived and re-used as AAD on every
// decrypt.
package envelope

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/sealedbox/sealedbox/internal/crypto/aead"
	apperrors "github.com/sealedbox/sealedbox/internal/errors"
)

// CurrentVersion is the only header version this package will produce.
// Decoding accepts versions <= CurrentVersion; anything higher is
// forward-incompatible and rejected.
const CurrentVersion = 1

// Header describes how Payload was sealed. Field order and names are fixed
// by the cbor struct tags below — canonical encoding sorts map keys
// independent of declaration order, so this is for readability only.
type Header struct {
	Alg     string `cbor:"alg"`
	Version uint32 `cbor:"version"`
	DekID   uint32 `cbor:"dekId"`
}

// Package is the full on-disk encrypted record: header plus sealed payload.
type Package struct {
	Header  Header
	Payload []byte // nonce(12) ‖ ciphertext ‖ tag(16), AEAD output
}

// wireFormat is the struct actually persisted/transmitted; Header is nested
// as raw bytes so the exact bytes used as AAD on encrypt are the same bytes
// decode hands back, and re-serialization on decrypt reproduces them.
type wireFormat struct {
	Header  []byte `cbor:"header"`
	Payload []byte `cbor:"payload"`
}

var encMode = func() cbor.EncMode {
	opts := cbor.CanonicalEncOptions()
	mode, err := opts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("envelope: invalid canonical cbor options: %v", err))
	}
	return mode
}()

// EncodeHeader serializes a Header canonically. The same bytes are produced
// for any two Headers with identical field values, satisfying the
// canonicalization invariant the AAD re-derivation on decrypt depends on.
func EncodeHeader(h Header) ([]byte, error) {
	b, err := encMode.Marshal(h)
	if err != nil {
		return nil, fmt.Errorf("envelope: failed to encode header: %w", err)
	}
	return b, nil
}

// Seal builds the encrypted package for plaintext under cipher/dekID: it
// constructs the header, uses the header's canonical bytes as AAD, seals
// the plaintext, and serializes the whole package.
func Seal(cipher *aead.Cipher, dekID uint32, plaintext []byte) ([]byte, error) {
	header := Header{Alg: aead.AlgorithmAESGCM, Version: CurrentVersion, DekID: dekID}

	headerBytes, err := EncodeHeader(header)
	if err != nil {
		return nil, err
	}

	payload, err := cipher.Seal(plaintext, headerBytes)
	if err != nil {
		return nil, apperrors.WrapInternal(err, "envelope: failed to seal payload")
	}

	encoded, err := encMode.Marshal(wireFormat{Header: headerBytes, Payload: payload})
	if err != nil {
		return nil, fmt.Errorf("envelope: failed to encode package: %w", err)
	}
	return encoded, nil
}

// Opened is what Open returns: the recovered plaintext plus the header that
// was actually used, so callers can observe which DEK decrypted it.
type Opened struct {
	Plaintext []byte
	Header    Header
}

// Open decodes raw into a Package, validates alg/version, optionally checks
// the embedded DekID against expectedDekID (a mismatch is a data-integrity
// fault, not an auth failure), and decrypts the payload using cipher,
// re-deriving the header bytes as AAD.
//
// expectedDekID of 0 skips the DekID check (0 is never a valid DEK id —
// ids are monotonic starting at 1).
func Open(cipher *aead.Cipher, raw []byte, expectedDekID uint32) (*Opened, error) {
	var wire wireFormat
	if err := cbor.Unmarshal(raw, &wire); err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, err, "envelope: failed to decode package")
	}

	var header Header
	if err := cbor.Unmarshal(wire.Header, &header); err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, err, "envelope: failed to decode header")
	}

	if header.Alg != aead.AlgorithmAESGCM {
		return nil, apperrors.Newf(apperrors.KindInternal, "envelope: unsupported algorithm %q", header.Alg)
	}
	if header.Version > CurrentVersion {
		return nil, apperrors.Newf(apperrors.KindInternal, "envelope: forward-incompatible version %d", header.Version)
	}
	if expectedDekID != 0 && expectedDekID != header.DekID {
		return nil, apperrors.Wrap(apperrors.KindInternal, apperrors.ErrDekIDMismatch,
			fmt.Sprintf("envelope: row dekId %d does not match embedded dekId %d", expectedDekID, header.DekID))
	}

	// Re-serialize for AAD re-derivation, per the canonicalization invariant,
	// rather than trusting wire.Header verbatim — catches any tampering with
	// the stored header bytes that still parses but re-encodes differently.
	headerBytes, err := EncodeHeader(header)
	if err != nil {
		return nil, err
	}

	plaintext, err := cipher.Open(wire.Payload, headerBytes)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindAuthFailure, err, "envelope: payload authentication failed")
	}

	return &Opened{Plaintext: plaintext, Header: header}, nil
}
