package types

import (
	"time"

	"github.com/google/uuid"
)

const (
	VisibilityPublic  = "public"
	VisibilityPrivate = "private"
)

// Chatbot is the only entity with a visibility field. A private chatbot is
// invisible (read and chat) to everyone but its owner; a public one is
// readable and chattable by anyone, mutable only by its owner.
type Chatbot struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID `gorm:"index;not null;column:user_id" json:"userId"`
	Name         string    `gorm:"not null;column:name" json:"name"`
	Description  string    `gorm:"column:description" json:"description"`
	Visibility   string    `gorm:"index;not null;default:'private';column:visibility;check:visibility IN ('public','private')" json:"visibility"`
	PersonaID    uuid.UUID `gorm:"index;not null;column:persona_id" json:"personaId"`
	ImageURL     string    `gorm:"column:image_url" json:"imageUrl"`
	Interactions int       `gorm:"not null;default:0;column:interactions" json:"interactions"`
	CreatedAt    time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt    time.Time `gorm:"not null" json:"updatedAt"`
}

func (Chatbot) TableName() string {
	return "chatbot"
}
