package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AI 对话角色
const (
	AIRoleUser      = "user"
	AIRoleAssistant = "assistant"
	AIRoleSystem    = "system"
)

// AIChat 每个用户一条 AI 会话（首次使用时创建）
type AIChat struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;not null;uniqueIndex"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (AIChat) TableName() string {
	return "ai_chats"
}

func (c *AIChat) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// AIMessage AI 会话消息，只追加不修改。Position 在会话内单调递增
type AIMessage struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	ChatID    uuid.UUID `json:"chat_id" gorm:"type:uuid;not null;uniqueIndex:idx_ai_messages_position,priority:1"`
	Position  int64     `json:"-" gorm:"not null;uniqueIndex:idx_ai_messages_position,priority:2"`
	Role      string    `json:"role" gorm:"type:varchar(20);not null"` // 'user' | 'assistant' | 'system'
	Content   string    `json:"content" gorm:"type:text;not null"`
	Timestamp time.Time `json:"timestamp"`
}

func (AIMessage) TableName() string {
	return "ai_messages"
}

func (m *AIMessage) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now()
	}
	return nil
}
