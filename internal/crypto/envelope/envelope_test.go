package envelope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sealedbox/sealedbox/internal/crypto/aead"
	apperrors "github.com/sealedbox/sealedbox/internal/errors"
)

func newCipher(t *testing.T) *aead.Cipher {
	t.Helper()
	key, err := aead.GenerateKey()
	require.NoError(t, err)
	c, err := aead.New(key)
	require.NoError(t, err)
	return c
}

func TestSealOpen_RoundTrip(t *testing.T) {
	cipher := newCipher(t)

	raw, err := Seal(cipher, 7, []byte("hunter2!"))
	require.NoError(t, err)

	opened, err := Open(cipher, raw, 7)
	require.NoError(t, err)
	assert.Equal(t, []byte("hunter2!"), opened.Plaintext)
	assert.Equal(t, uint32(7), opened.Header.DekID)
	assert.Equal(t, aead.AlgorithmAESGCM, opened.Header.Alg)
}

func TestEncodeHeader_IsCanonicalAndDeterministic(t *testing.T) {
	h := Header{Alg: aead.AlgorithmAESGCM, Version: 1, DekID: 42}

	a, err := EncodeHeader(h)
	require.NoError(t, err)
	b, err := EncodeHeader(h)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestOpen_DekIDMismatchIsRejected(t *testing.T) {
	cipher := newCipher(t)

	raw, err := Seal(cipher, 1, []byte("plaintext"))
	require.NoError(t, err)

	_, err = Open(cipher, raw, 2)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrDekIDMismatch)
}

func TestOpen_TamperedPayloadFailsAuthentication(t *testing.T) {
	cipher := newCipher(t)

	raw, err := Seal(cipher, 1, []byte("plaintext"))
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0xFF

	_, err = Open(cipher, raw, 1)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindAuthFailure, apperrors.GetKind(err))
}

func TestOpen_RejectsForwardIncompatibleVersion(t *testing.T) {
	cipher := newCipher(t)

	headerBytes, err := EncodeHeader(Header{Alg: aead.AlgorithmAESGCM, Version: 99, DekID: 1})
	require.NoError(t, err)
	payload, err := cipher.Seal([]byte("x"), headerBytes)
	require.NoError(t, err)

	raw, err := encMode.Marshal(wireFormat{Header: headerBytes, Payload: payload})
	require.NoError(t, err)

	_, err = Open(cipher, raw, 0)
	assert.Error(t, err)
}

func TestOpen_NoExpectedDekIDSkipsCheck(t *testing.T) {
	cipher := newCipher(t)

	raw, err := Seal(cipher, 5, []byte("plaintext"))
	require.NoError(t, err)

	opened, err := Open(cipher, raw, 0)
	require.NoError(t, err)
	assert.Equal(t, uint32(5), opened.Header.DekID)
}
