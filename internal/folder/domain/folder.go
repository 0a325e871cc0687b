// Package domain defines the Folder row, a namespace secrets can be filed
// under, nestable via ParentID.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Folder groups secrets under a name, optionally nested under a parent.
type Folder struct {
	ID        uuid.UUID
	Name      string
	ParentID  *uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}
