package types

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Chat is one principal's conversation with one chatbot. The chatting
// principal owns the chat; the chatbot owner has no access to it. Messages
// are append-only rows so concurrent sends interleave instead of clobbering
// the transcript.
type Chat struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ChatbotID uuid.UUID `gorm:"index:idx_chat_bot_user,priority:1;not null;column:chatbot_id" json:"chatbotId"`
	UserID    uuid.UUID `gorm:"index:idx_chat_bot_user,priority:2;not null;column:user_id" json:"userId"`
	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`
}

func (Chat) TableName() string {
	return "chat"
}

type ChatMessage struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"-"`
	ChatID    uuid.UUID `gorm:"index:idx_chat_msgs,priority:1;not null;column:chat_id" json:"-"`
	Role      string    `gorm:"not null;column:role;check:role IN ('user','assistant')" json:"role"`
	Content   string    `gorm:"type:text;not null;column:content" json:"content"`
	CreatedAt time.Time `gorm:"index:idx_chat_msgs,priority:2;not null" json:"timestamp"`
}

func (ChatMessage) TableName() string {
	return "chat_message"
}
