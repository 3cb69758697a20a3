package store

import (
	"context"
	"fmt"
	"time"

	"friendchat/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GetOrCreateAIChat 获取用户的 AI 会话，不存在时创建
func (s *Store) GetOrCreateAIChat(ctx context.Context, userID uuid.UUID) (*model.AIChat, error) {
	var chat model.AIChat
	err := s.db.WithContext(ctx).
		Where(model.AIChat{UserID: userID}).
		FirstOrCreate(&chat).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get ai chat: %w", err)
	}
	return &chat, nil
}

// FindAIChat 查询用户的 AI 会话，不存在返回 ErrNotFound
func (s *Store) FindAIChat(ctx context.Context, userID uuid.UUID) (*model.AIChat, error) {
	var chat model.AIChat
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&chat).Error; err != nil {
		return nil, notFound(err)
	}
	return &chat, nil
}

// RecentAIMessages 取最近 n 条消息（按时间正序返回）
func (s *Store) RecentAIMessages(ctx context.Context, chatID uuid.UUID, n int) ([]model.AIMessage, error) {
	var messages []model.AIMessage
	err := s.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("position DESC").
		Limit(n).
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query ai messages: %w", err)
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// ListAIMessages 查询会话全部消息（按时间正序）
func (s *Store) ListAIMessages(ctx context.Context, chatID uuid.UUID) ([]model.AIMessage, error) {
	var messages []model.AIMessage
	err := s.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("position ASC").
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query ai messages: %w", err)
	}
	return messages, nil
}

// AppendAIMessages 在一个事务内按顺序追加多条消息，要么全部写入要么全部失败
func (s *Store) AppendAIMessages(ctx context.Context, chatID uuid.UUID, messages ...*model.AIMessage) error {
	if len(messages) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var last int64
		if err := tx.Model(&model.AIMessage{}).
			Where("chat_id = ?", chatID).
			Select("COALESCE(MAX(position), 0)").
			Scan(&last).Error; err != nil {
			return fmt.Errorf("failed to read ai message position: %w", err)
		}

		for i, msg := range messages {
			msg.ChatID = chatID
			msg.Position = last + int64(i) + 1
		}
		if err := tx.Create(&messages).Error; err != nil {
			return fmt.Errorf("failed to append ai messages: %w", err)
		}

		if err := tx.Model(&model.AIChat{}).Where("id = ?", chatID).
			Update("updated_at", time.Now()).Error; err != nil {
			return fmt.Errorf("failed to touch ai chat: %w", err)
		}
		return nil
	})
}
