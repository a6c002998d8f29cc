package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"gorm.io/gorm"
)

// Base holds the identifier and timestamps shared by every catalog entity.
// IDs are 24-character hex strings in the object-id shape.
type Base struct {
	ID        string    `gorm:"primaryKey;size:24"`
	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time
}

// BeforeCreate assigns a fresh object id when none was set.
func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = NewID()
	}
	return nil
}

// NewID returns a new 24-character hex identifier.
func NewID() string {
	return primitive.NewObjectID().Hex()
}

// IsValidID reports whether s has the object-id shape.
func IsValidID(s string) bool {
	return len(s) == 24 && primitive.IsValidObjectID(s)
}

// NormalizeID returns the canonical lowercase form of an id. Stored ids are
// always lowercase, so lookups must use this form.
func NormalizeID(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeIDs applies NormalizeID to every element.
func NormalizeIDs(ids []string) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = NormalizeID(id)
	}
	return out
}

// All returns every model that needs a table, in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Platform{},
		&Character{},
		&Game{},
		&GameGenre{},
		&GamePlatform{},
		&GameCharacter{},
		&CharacterGame{},
		&UserFavorite{},
	}
}
