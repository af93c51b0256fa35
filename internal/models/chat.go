package models

import (
	"time"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Chat struct {
	ID        string         `gorm:"column:id;primaryKey" json:"id"`
	Title     string         `gorm:"column:title;type:text" json:"title"`
	CreatedAt time.Time      `gorm:"column:created_at;type:timestamptz" json:"createdAt"`
	FocusMode string         `gorm:"column:focus_mode;type:text" json:"focusMode"`
	Files     datatypes.JSON `gorm:"column:files;type:jsonb" json:"files,omitempty"`
}

func (Chat) TableName() string { return "chats" }

// Message is one recorded conversation turn. ID is the insertion
// ordinal: rewinds delete by it, never by the caller-supplied MessageID.
type Message struct {
	ID        uint            `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	MessageID string          `gorm:"column:message_id;type:text;uniqueIndex:idx_messages_chat_message" json:"messageId"`
	ChatID    string          `gorm:"column:chat_id;type:text;index;uniqueIndex:idx_messages_chat_message" json:"chatId"`
	Role      string          `gorm:"column:role;type:text" json:"role"` // "user" | "assistant"
	Content   string          `gorm:"column:content;type:text" json:"content"`
	Embedding pgvector.Vector `gorm:"column:embedding;type:vector" json:"-"`
	Metadata  datatypes.JSON  `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`
	CreatedAt time.Time       `gorm:"column:created_at;type:timestamptz" json:"createdAt"`
}

func (Message) TableName() string { return "messages" }
