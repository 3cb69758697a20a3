package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"friendchat/handler"
	"friendchat/model"
	"friendchat/service"
	"friendchat/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type apiResponse struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Reason  string          `json:"reason"`
	Data    json.RawMessage `json:"data"`
}

func (s *testServer) do(t *testing.T, method, path string, userID uuid.UUID, body interface{}) (int, apiResponse) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, s.URL+path, reader)
	require.NoError(t, err)
	if userID != uuid.Nil {
		req.Header.Set("Authorization", "Bearer "+tokenFor(t, userID))
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out apiResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

// TestFriendAPI_RequestAcceptRemove 好友请求完整流程，并通过 WebSocket 实时提醒双方
func TestFriendAPI_RequestAcceptRemove(t *testing.T) {
	s := newTestServer(t)
	alice := testutil.CreateUser(t, s.store, "alice")
	bob := testutil.CreateUser(t, s.store, "bob")

	aliceConn := s.join(t, alice.ID)
	bobConn := s.join(t, bob.ID)

	status, resp := s.do(t, http.MethodPost, "/api/v1/friends/request", alice.ID, map[string]interface{}{"receiver_id": bob.ID})
	require.Equal(t, http.StatusCreated, status, resp.Message)

	var created model.FriendRequestWithUsers
	require.NoError(t, json.Unmarshal(resp.Data, &created))
	assert.Equal(t, model.FriendRequestPending, created.Status)

	var notified model.FriendRequestWithUsers
	require.NoError(t, json.Unmarshal(waitFor(t, bobConn, handler.EventFriendRequest, nil), &notified))
	assert.Equal(t, created.ID, notified.ID)
	assert.Equal(t, "alice", notified.Sender.Name)

	status, resp = s.do(t, http.MethodPost, "/api/v1/friends/request", alice.ID, map[string]interface{}{"receiver_id": bob.ID})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "request_pending", resp.Reason)

	status, resp = s.do(t, http.MethodGet, "/api/v1/friends/requests", bob.ID, nil)
	require.Equal(t, http.StatusOK, status)
	var incoming []model.FriendRequestWithUsers
	require.NoError(t, json.Unmarshal(resp.Data, &incoming))
	require.Len(t, incoming, 1)

	status, resp = s.do(t, http.MethodPost, "/api/v1/friends/accept", alice.ID, map[string]interface{}{"request_id": created.ID})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "forbidden", resp.Reason)

	status, _ = s.do(t, http.MethodPost, "/api/v1/friends/accept", bob.ID, map[string]interface{}{"request_id": created.ID})
	require.Equal(t, http.StatusOK, status)
	waitFor(t, aliceConn, handler.EventFriendRequestAccepted, nil)

	status, resp = s.do(t, http.MethodPost, "/api/v1/friends/accept", bob.ID, map[string]interface{}{"request_id": created.ID})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "already_handled", resp.Reason)

	status, resp = s.do(t, http.MethodGet, "/api/v1/friends/list", alice.ID, nil)
	require.Equal(t, http.StatusOK, status)
	var friends []model.PublicProfile
	require.NoError(t, json.Unmarshal(resp.Data, &friends))
	require.Len(t, friends, 1)
	assert.Equal(t, bob.ID, friends[0].ID)

	status, _ = s.do(t, http.MethodPost, "/api/v1/friends/remove", bob.ID, map[string]interface{}{"friend_id": alice.ID})
	require.Equal(t, http.StatusOK, status)

	status, resp = s.do(t, http.MethodPost, "/api/v1/friends/remove", bob.ID, map[string]interface{}{"friend_id": alice.ID})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "not_friends", resp.Reason)
}

func TestFriendAPI_Errors(t *testing.T) {
	s := newTestServer(t)
	alice := testutil.CreateUser(t, s.store, "alice")

	status, resp := s.do(t, http.MethodPost, "/api/v1/friends/request", alice.ID, map[string]interface{}{"receiver_id": alice.ID})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid_target", resp.Reason)

	status, resp = s.do(t, http.MethodPost, "/api/v1/friends/request", alice.ID, map[string]interface{}{"receiver_id": uuid.New()})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "user_not_found", resp.Reason)

	status, _ = s.do(t, http.MethodPost, "/api/v1/friends/request", alice.ID, map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, status)

	status, resp = s.do(t, http.MethodPost, "/api/v1/friends/reject", alice.ID, map[string]interface{}{"request_id": uuid.New()})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "request_not_found", resp.Reason)

	status, _ = s.do(t, http.MethodGet, "/api/v1/friends/list", uuid.Nil, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestUserAPI(t *testing.T) {
	s := newTestServer(t)
	alice := testutil.CreateUser(t, s.store, "alice")
	bob := testutil.CreateUser(t, s.store, "bob")

	status, resp := s.do(t, http.MethodGet, "/api/v1/auth/me", alice.ID, nil)
	require.Equal(t, http.StatusOK, status)
	var me model.User
	require.NoError(t, json.Unmarshal(resp.Data, &me))
	assert.Equal(t, alice.Email, me.Email)

	s.join(t, bob.ID)

	status, resp = s.do(t, http.MethodGet, "/api/v1/users/search/"+bob.UserTag[1:], alice.ID, nil)
	require.Equal(t, http.StatusOK, status)
	var found struct {
		ID       uuid.UUID `json:"id"`
		UserTag  string    `json:"user_tag"`
		IsOnline bool      `json:"is_online"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &found))
	assert.Equal(t, bob.ID, found.ID)
	assert.True(t, found.IsOnline)

	status, _ = s.do(t, http.MethodGet, "/api/v1/users/search/"+alice.UserTag[1:], alice.ID, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, resp = s.do(t, http.MethodGet, "/api/v1/presence/online", alice.ID, nil)
	require.Equal(t, http.StatusOK, status)
	var online struct {
		OnlineUsers []uuid.UUID `json:"online_users"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &online))
	assert.Equal(t, []uuid.UUID{bob.ID}, online.OnlineUsers)

	status, _ = s.do(t, http.MethodPost, "/api/v1/auth/logout", bob.ID, nil)
	require.Equal(t, http.StatusOK, status)
	assert.False(t, s.hub.Presence().IsOnline(bob.ID))
}

func TestChatAPI_History(t *testing.T) {
	s := newTestServer(t)
	alice := testutil.CreateUser(t, s.store, "alice")
	bob := testutil.CreateUser(t, s.store, "bob")

	_, err := s.services.Messages.SendMessage(t.Context(), alice.ID, bob.ID, "first")
	require.NoError(t, err)

	status, resp := s.do(t, http.MethodGet, "/api/v1/chat/"+alice.ID.String(), bob.ID, nil)
	require.Equal(t, http.StatusOK, status)
	var messages []model.Message
	require.NoError(t, json.Unmarshal(resp.Data, &messages))
	require.Len(t, messages, 1)
	assert.Equal(t, "first", messages[0].Content)

	status, _ = s.do(t, http.MethodGet, "/api/v1/chat/not-a-uuid", bob.ID, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestAIAPI_ChatAndHistory(t *testing.T) {
	s := newTestServer(t)
	alice := testutil.CreateUser(t, s.store, "alice")

	status, resp := s.do(t, http.MethodPost, "/api/v1/ai/chat", alice.ID, map[string]interface{}{"message": "hello"})
	require.Equal(t, http.StatusOK, status)
	var reply model.AIMessage
	require.NoError(t, json.Unmarshal(resp.Data, &reply))
	assert.Equal(t, service.NotConfiguredReply, reply.Content)

	status, resp = s.do(t, http.MethodGet, "/api/v1/ai/history", alice.ID, nil)
	require.Equal(t, http.StatusOK, status)
	var history []model.AIMessage
	require.NoError(t, json.Unmarshal(resp.Data, &history))
	assert.Len(t, history, 2)

	status, _ = s.do(t, http.MethodPost, "/api/v1/ai/chat", alice.ID, map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestAdminAPI_RequiresAdmin(t *testing.T) {
	s := newTestServer(t)
	alice := testutil.CreateUser(t, s.store, "alice")

	status, _ := s.do(t, http.MethodGet, "/api/admin/settings", alice.ID, nil)
	assert.Equal(t, http.StatusForbidden, status)
}

// TestAuthAPI_Register 注册后拿到的 token 可以直接访问受保护接口
func TestAuthAPI_Register(t *testing.T) {
	s := newTestServer(t)

	body := map[string]interface{}{"name": "Carol", "email": "carol@example.com"}
	status, resp := s.do(t, http.MethodPost, "/api/v1/auth/register", uuid.Nil, body)
	require.Equal(t, http.StatusCreated, status)

	var registered struct {
		User  model.User `json:"user"`
		Token string     `json:"token"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &registered))
	assert.Equal(t, "Carol", registered.User.Name)
	assert.Regexp(t, `^#[0-9A-F]{4}$`, registered.User.UserTag)
	require.NotEmpty(t, registered.Token)

	req, err := http.NewRequest(http.MethodGet, s.URL+"/api/v1/auth/me", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+registered.Token)
	me, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer me.Body.Close()
	require.Equal(t, http.StatusOK, me.StatusCode)

	var meResp apiResponse
	require.NoError(t, json.NewDecoder(me.Body).Decode(&meResp))
	var profile model.User
	require.NoError(t, json.Unmarshal(meResp.Data, &profile))
	assert.Equal(t, registered.User.ID, profile.ID)

	// 重复邮箱
	status, resp = s.do(t, http.MethodPost, "/api/v1/auth/register", uuid.Nil, body)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "email_taken", resp.Reason)

	status, _ = s.do(t, http.MethodPost, "/api/v1/auth/register", uuid.Nil, map[string]interface{}{"name": "x", "email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, status)
}
