package store

import (
	"context"
	"fmt"

	"friendchat/model"

	"github.com/google/uuid"
)

// CreateMessage 保存消息
func (s *Store) CreateMessage(ctx context.Context, msg *model.Message) error {
	if err := s.db.WithContext(ctx).Create(msg).Error; err != nil {
		return fmt.Errorf("failed to save message: %w", err)
	}
	return nil
}

// ListMessagesBetween 查询两人之间的聊天记录
// 按时间倒序分页取最近的 limit 条，返回时按时间正序（旧消息在前）
func (s *Store) ListMessagesBetween(ctx context.Context, userA, userB uuid.UUID, limit, offset int) ([]model.Message, error) {
	var messages []model.Message
	err := s.db.WithContext(ctx).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)", userA, userB, userB, userA).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}
