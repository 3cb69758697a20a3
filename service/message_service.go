package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"friendchat/model"
	"friendchat/store"

	"github.com/google/uuid"
)

// MaxMessageRunes 单条消息最大长度（字符数）
const MaxMessageRunes = 4000

type MessageService struct {
	store *store.Store
}

func NewMessageService(st *store.Store) *MessageService {
	return &MessageService{store: st}
}

// SendMessage 校验并保存一条消息。投递由调用方（WebSocket 网关）负责，
// 这里失败不会重试，存储错误以 KindPersistence 返回
func (s *MessageService) SendMessage(ctx context.Context, senderID, receiverID uuid.UUID, content string) (*model.Message, error) {
	if receiverID == uuid.Nil {
		return nil, validationError("receiver is required")
	}
	if senderID == receiverID {
		return nil, validationError("cannot send message to yourself")
	}
	if strings.TrimSpace(content) == "" {
		return nil, validationError("content is required")
	}
	if utf8.RuneCountInString(content) > MaxMessageRunes {
		return nil, validationError("content is too long")
	}

	if _, err := s.store.GetUser(ctx, receiverID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, persistenceError("failed to query receiver", err)
	}

	message := &model.Message{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
		Read:       false,
	}
	if err := s.store.CreateMessage(ctx, message); err != nil {
		return nil, persistenceError("failed to save message", err)
	}

	return message, nil
}

// GetHistory 获取与某个好友的聊天记录（旧消息在前）
func (s *MessageService) GetHistory(ctx context.Context, userID, friendID uuid.UUID, limit, offset int) ([]model.Message, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	messages, err := s.store.ListMessagesBetween(ctx, userID, friendID, limit, offset)
	if err != nil {
		return nil, persistenceError("failed to load chat history", err)
	}
	if messages == nil {
		messages = []model.Message{}
	}
	return messages, nil
}
