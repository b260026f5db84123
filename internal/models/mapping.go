package models

import (
	"time"

	"github.com/google/uuid"
)

// LogoMapping is one row of the remote lookup table: a durable pointer from
// a catalog entity to its migrated copy in the object store.
type LogoMapping struct {
	ID          uuid.UUID `json:"id"`
	EntityID    string    `json:"entity_id"`
	PublicURL   string    `json:"public_url"`
	StoragePath string    `json:"storage_path"`
	Source      string    `json:"source"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
