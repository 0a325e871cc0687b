package aead

import "errors"

// ErrAuthenticationFailure is returned when Open's tag check fails — a
// tampered ciphertext, tag, nonce, or AAD.
var ErrAuthenticationFailure = errors.New("aead: authentication failure")

// ErrMalformedCiphertext is returned when sealed is too short to contain a
// nonce and tag.
var ErrMalformedCiphertext = errors.New("aead: malformed ciphertext")
