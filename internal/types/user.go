package types

import (
	"time"

	"github.com/google/uuid"
)

// User is the persisted projection of an authenticated principal. Exactly one
// row exists per principal id; it is created lazily on first authentication.
type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email     string    `gorm:"uniqueIndex;not null;column:email" json:"email"`
	Username  string    `gorm:"not null;column:username" json:"username"`
	Password  string    `gorm:"not null;column:password" json:"-"`
	Picture   string    `gorm:"column:picture" json:"picture,omitempty"`
	Tokens    int       `gorm:"not null;default:0;column:tokens" json:"tokens"`
	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`
}

func (User) TableName() string {
	return "user"
}
