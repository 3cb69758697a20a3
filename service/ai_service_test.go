package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"friendchat/model"
	"friendchat/service"
	"friendchat/testutil"
	"friendchat/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCompleter 记录每次收到的对话，按预设返回
type fakeCompleter struct {
	mu    sync.Mutex
	calls [][]service.Turn
	reply func(turns []service.Turn) (string, error)
}

func (f *fakeCompleter) Complete(ctx context.Context, turns []service.Turn) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, append([]service.Turn(nil), turns...))
	f.mu.Unlock()
	return f.reply(turns)
}

func (f *fakeCompleter) lastCall() []service.Turn {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

func TestAI_ChatPersistsPair(t *testing.T) {
	ctx := context.Background()
	st := testutil.NewStore(t)
	alice := testutil.CreateUser(t, st, "alice")
	completer := &fakeCompleter{reply: func(turns []service.Turn) (string, error) {
		return "echo: " + turns[len(turns)-1].Content, nil
	}}
	svc := service.NewAIService(st, completer, 0, utils.NewPairLock())

	reply, err := svc.Chat(ctx, alice.ID, "hello")
	require.NoError(t, err)
	assert.Equal(t, model.AIRoleAssistant, reply.Role)
	assert.Equal(t, "echo: hello", reply.Content)

	history, err := svc.History(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, model.AIRoleUser, history[0].Role)
	assert.Equal(t, "hello", history[0].Content)
	assert.Equal(t, "echo: hello", history[1].Content)

	// 第一轮只有系统提示和用户输入
	first := completer.lastCall()
	require.Len(t, first, 2)
	assert.Equal(t, model.AIRoleSystem, first[0].Role)
	assert.Equal(t, service.SystemPrompt, first[0].Content)
}

// TestAI_ContextWindow 补全请求 = 系统提示 + 最近 N 条（正序）+ 本轮输入
func TestAI_ContextWindow(t *testing.T) {
	ctx := context.Background()
	st := testutil.NewStore(t)
	alice := testutil.CreateUser(t, st, "alice")
	completer := &fakeCompleter{reply: func(turns []service.Turn) (string, error) {
		return "re: " + turns[len(turns)-1].Content, nil
	}}
	svc := service.NewAIService(st, completer, service.DefaultContextTurns, utils.NewPairLock())

	for i := 0; i < 7; i++ {
		_, err := svc.Chat(ctx, alice.ID, fmt.Sprintf("q%d", i))
		require.NoError(t, err)
	}

	_, err := svc.Chat(ctx, alice.ID, "last")
	require.NoError(t, err)

	turns := completer.lastCall()
	require.Len(t, turns, service.DefaultContextTurns+2)
	assert.Equal(t, model.AIRoleSystem, turns[0].Role)
	assert.Equal(t, "last", turns[len(turns)-1].Content)

	// 共 14 条历史，取最后 10 条：q2 开始
	assert.Equal(t, "q2", turns[1].Content)
	assert.Equal(t, "re: q2", turns[2].Content)
	assert.Equal(t, "re: q6", turns[len(turns)-2].Content)
}

// TestAI_CompletionFailureStillPersistsPair 补全失败时写入固定回复，不出现孤立的用户消息
func TestAI_CompletionFailureStillPersistsPair(t *testing.T) {
	ctx := context.Background()
	st := testutil.NewStore(t)
	alice := testutil.CreateUser(t, st, "alice")
	completer := &fakeCompleter{reply: func([]service.Turn) (string, error) {
		return "", errors.New("upstream down")
	}}
	svc := service.NewAIService(st, completer, 0, utils.NewPairLock())

	reply, err := svc.Chat(ctx, alice.ID, "are you there?")
	require.NoError(t, err)
	assert.Equal(t, service.FallbackReply, reply.Content)

	history, err := svc.History(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "are you there?", history[0].Content)
	assert.Equal(t, service.FallbackReply, history[1].Content)
}

func TestAI_NotConfigured(t *testing.T) {
	ctx := context.Background()
	st := testutil.NewStore(t)
	alice := testutil.CreateUser(t, st, "alice")
	svc := service.NewAIService(st, nil, 0, utils.NewPairLock())

	reply, err := svc.Chat(ctx, alice.ID, "hi")
	require.NoError(t, err)
	assert.Equal(t, service.NotConfiguredReply, reply.Content)
}

func TestAI_EmptyInputRejected(t *testing.T) {
	ctx := context.Background()
	st := testutil.NewStore(t)
	alice := testutil.CreateUser(t, st, "alice")
	svc := service.NewAIService(st, nil, 0, utils.NewPairLock())

	_, err := svc.Chat(ctx, alice.ID, "  ")
	var svcErr *service.Error
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, service.KindValidation, svcErr.Kind)

	history, err := svc.History(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestAI_ConcurrentTurnsStayPaired(t *testing.T) {
	ctx := context.Background()
	st := testutil.NewStore(t)
	alice := testutil.CreateUser(t, st, "alice")
	completer := &fakeCompleter{reply: func(turns []service.Turn) (string, error) {
		return "re: " + turns[len(turns)-1].Content, nil
	}}
	svc := service.NewAIService(st, completer, 0, utils.NewPairLock())

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Chat(ctx, alice.ID, fmt.Sprintf("q%d", i))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	history, err := svc.History(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, history, 10)
	for i := 0; i < len(history); i += 2 {
		assert.Equal(t, model.AIRoleUser, history[i].Role)
		assert.Equal(t, "re: "+history[i].Content, history[i+1].Content)
	}
}

func TestOpenAICompleter(t *testing.T) {
	var got struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"cmpl-1","object":"chat.completion","created":1,"model":"test-model",
			"choices":[{"index":0,"message":{"role":"assistant","content":"pong"},"finish_reason":"stop"}]}`)
	}))
	defer srv.Close()

	completer := service.NewOpenAICompleter("test-key", srv.URL, "test-model")
	reply, err := completer.Complete(context.Background(), service.BuildPrompt(nil, "ping"))
	require.NoError(t, err)
	assert.Equal(t, "pong", reply)

	assert.Equal(t, "test-model", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "user", got.Messages[1].Role)
	assert.Equal(t, "ping", got.Messages[1].Content)
}

func TestOpenAICompleter_UpstreamErrorFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"error":{"message":"boom","type":"server_error"}}`)
	}))
	defer srv.Close()

	ctx := context.Background()
	st := testutil.NewStore(t)
	alice := testutil.CreateUser(t, st, "alice")
	completer := service.NewOpenAICompleter("test-key", srv.URL, "")
	svc := service.NewAIService(st, completer, 0, utils.NewPairLock())

	reply, err := svc.Chat(ctx, alice.ID, "hi")
	require.NoError(t, err)
	assert.Equal(t, service.FallbackReply, reply.Content)
}
