package dto

import (
	"time"

	"github.com/google/uuid"

	folderDomain "github.com/sealedbox/sealedbox/internal/folder/domain"
)

// FolderResponse is a folder row's public shape.
type FolderResponse struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	ParentID  *uuid.UUID `json:"parent_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// MapFolderToResponse converts a domain Folder to its public response shape.
func MapFolderToResponse(f *folderDomain.Folder) FolderResponse {
	return FolderResponse{
		ID:        f.ID,
		Name:      f.Name,
		ParentID:  f.ParentID,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}
