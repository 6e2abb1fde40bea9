package db

import (
	"gorm.io/gorm"

	"github.com/yungbote/botsmith-backend/internal/types"
)

func AutoMigrateAll(gdb *gorm.DB) error {
	return gdb.AutoMigrate(
		// Identity
		&types.User{},
		&types.UserToken{},

		// Chatbot building blocks
		&types.Persona{},
		&types.Chatbot{},

		// Conversations
		&types.Chat{},
		&types.ChatMessage{},
	)
}
