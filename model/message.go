package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Message 私聊消息表，创建后只有 read 字段会变化
type Message struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	SenderID   uuid.UUID `json:"sender_id" gorm:"type:uuid;not null;index:idx_messages_pair,priority:1"`
	ReceiverID uuid.UUID `json:"receiver_id" gorm:"type:uuid;not null;index:idx_messages_pair,priority:2"`
	Content    string    `json:"content" gorm:"type:text;not null"`
	Read       bool      `json:"read" gorm:"default:false"`
	CreatedAt  time.Time `json:"created_at" gorm:"autoCreateTime;index"`
}

func (Message) TableName() string {
	return "messages"
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
