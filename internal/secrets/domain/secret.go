// Package domain defines the Secret row: an envelope-encrypted value
// addressed by a unique name, optionally filed under a folder.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Secret is a single encrypted value. EncryptedPackage holds the full
// envelope (header + AEAD payload) produced by internal/crypto/envelope;
// the plaintext never touches the repository layer.
type Secret struct {
	ID               uuid.UUID
	Name             string
	EncryptedPackage []byte
	DekID            uint32
	FolderID         *uuid.UUID
	LastRotation     *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
