package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Persona is an owner-private set of role-playing attributes a chatbot is
// built from. Personas have no public visibility: only the owner may read or
// mutate them.
type Persona struct {
	ID          uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID                   `gorm:"index;not null;column:user_id" json:"userId"`
	Name        string                      `gorm:"not null;column:name" json:"name"`
	Description string                      `gorm:"column:description" json:"description"`
	Traits      datatypes.JSONSlice[string] `gorm:"type:jsonb;column:traits" json:"traits"`
	Tone        string                      `gorm:"column:tone" json:"tone"`
	Style       string                      `gorm:"column:style" json:"style"`
	Expertise   datatypes.JSONSlice[string] `gorm:"type:jsonb;column:expertise" json:"expertise"`
	ImageURL    string                      `gorm:"column:image_url" json:"imageUrl"`
	CreatedAt   time.Time                   `gorm:"not null" json:"createdAt"`
	UpdatedAt   time.Time                   `gorm:"not null" json:"updatedAt"`
}

func (Persona) TableName() string {
	return "persona"
}
