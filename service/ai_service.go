package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"friendchat/model"
	"friendchat/store"
	"friendchat/utils"

	"github.com/google/uuid"
)

const (
	// DefaultContextTurns 每次补全携带的最近历史条数
	DefaultContextTurns = 10

	SystemPrompt = "You are a helpful, intelligent, and polite AI assistant. Explain answers clearly and step-by-step. Be concise but accurate. If unsure, ask clarifying questions. Never hallucinate information."

	// FallbackReply 补全失败时返回给用户并写入记录的固定回复
	FallbackReply = "Sorry, I am having trouble connecting to my brain right now. Please try again later."

	// NotConfiguredReply 未配置补全接口时的固定回复
	NotConfiguredReply = "I am an AI assistant. Please configure your OPENAI_API_KEY to get real responses."

	completionTimeout = 60 * time.Second
)

// AIService 单用户 AI 对话：维护有界上下文并组装补全请求
type AIService struct {
	store        *store.Store
	completer    Completer
	contextTurns int
	locks        *utils.PairLock
}

// NewAIService completer 为 nil 时所有回复都是 NotConfiguredReply
func NewAIService(st *store.Store, completer Completer, contextTurns int, locks *utils.PairLock) *AIService {
	if contextTurns <= 0 {
		contextTurns = DefaultContextTurns
	}
	return &AIService{
		store:        st,
		completer:    completer,
		contextTurns: contextTurns,
		locks:        locks,
	}
}

// Chat 处理一轮对话，返回助手回复。补全失败不会向调用方报错，
// 而是用 FallbackReply 代替，用户输入和回复成对写入
func (s *AIService) Chat(ctx context.Context, userID uuid.UUID, text string) (*model.AIMessage, error) {
	if strings.TrimSpace(text) == "" {
		return nil, validationError("message is required")
	}

	// 同一用户的多轮对话串行执行，保证上下文与落库顺序一致
	unlock := s.locks.Lock("ai:" + userID.String())
	defer unlock()

	chat, err := s.store.GetOrCreateAIChat(ctx, userID)
	if err != nil {
		return nil, persistenceError("failed to load ai chat", err)
	}

	history, err := s.store.RecentAIMessages(ctx, chat.ID, s.contextTurns)
	if err != nil {
		return nil, persistenceError("failed to load ai history", err)
	}

	userTurn := &model.AIMessage{
		Role:      model.AIRoleUser,
		Content:   text,
		Timestamp: time.Now(),
	}

	reply := s.complete(ctx, BuildPrompt(history, text))

	assistantTurn := &model.AIMessage{
		Role:      model.AIRoleAssistant,
		Content:   reply,
		Timestamp: time.Now(),
	}

	if err := s.store.AppendAIMessages(ctx, chat.ID, userTurn, assistantTurn); err != nil {
		return nil, persistenceError("failed to save ai turn", err)
	}

	return assistantTurn, nil
}

// History 获取用户的完整 AI 对话记录
func (s *AIService) History(ctx context.Context, userID uuid.UUID) ([]model.AIMessage, error) {
	chat, err := s.store.FindAIChat(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return []model.AIMessage{}, nil
		}
		return nil, persistenceError("failed to load ai chat", err)
	}

	messages, err := s.store.ListAIMessages(ctx, chat.ID)
	if err != nil {
		return nil, persistenceError("failed to load ai history", err)
	}
	return messages, nil
}

func (s *AIService) complete(ctx context.Context, turns []Turn) string {
	if s.completer == nil {
		return NotConfiguredReply
	}

	ctx, cancel := context.WithTimeout(ctx, completionTimeout)
	defer cancel()

	reply, err := s.completer.Complete(ctx, turns)
	if err != nil {
		log.Printf("[ERROR] AI completion failed: %v", upstreamError(err))
		return FallbackReply
	}
	if strings.TrimSpace(reply) == "" {
		log.Printf("[ERROR] AI completion returned empty reply")
		return FallbackReply
	}
	return reply
}

// BuildPrompt 组装补全请求：系统提示 + 最近历史（正序）+ 本轮用户输入
func BuildPrompt(history []model.AIMessage, text string) []Turn {
	turns := make([]Turn, 0, len(history)+2)
	turns = append(turns, Turn{Role: model.AIRoleSystem, Content: SystemPrompt})
	for _, msg := range history {
		turns = append(turns, Turn{Role: msg.Role, Content: msg.Content})
	}
	turns = append(turns, Turn{Role: model.AIRoleUser, Content: text})
	return turns
}
