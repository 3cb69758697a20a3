package handler

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// DefaultMaxConnectionsPerUser 默认每个用户最多 18 个设备
const DefaultMaxConnectionsPerUser = 18

const sendBufferSize = 256

var (
	ErrTooManyDevices = errors.New("too many devices")
	errSendBufferFull = errors.New("send buffer full")
	errClientClosed   = errors.New("client closed")
)

// Client 一个 WebSocket 会话
type Client struct {
	ID     uuid.UUID
	UserID uuid.UUID // 握手时由 token 确认的身份
	Conn   *websocket.Conn
	Send   chan []byte

	mu     sync.Mutex
	joined bool
	closed bool // Send channel 是否已关闭
}

// NewClient conn 可以为 nil（只在内存中收发，用于测试）
func NewClient(userID uuid.UUID, conn *websocket.Conn) *Client {
	return &Client{
		ID:     uuid.New(),
		UserID: userID,
		Conn:   conn,
		Send:   make(chan []byte, sendBufferSize),
	}
}

// enqueue 非阻塞写入发送缓冲；检查 closed 和写 channel 在同一把锁内，不会向已关闭的 channel 发送
func (c *Client) enqueue(message []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errClientClosed
	}
	select {
	case c.Send <- message:
		return nil
	default:
		return errSendBufferFull
	}
}

func (c *Client) close() {
	c.mu.Lock()
	if !c.closed {
		close(c.Send)
		c.closed = true
	}
	c.mu.Unlock()
}

func (c *Client) markJoined() {
	c.mu.Lock()
	c.joined = true
	c.mu.Unlock()
}

// IsJoined 会话是否已完成 join_room
func (c *Client) IsJoined() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.joined
}

// Hub 会话路由：userID → 该用户的所有会话
//
// 会话集合与 PresenceRegistry 的变更都在 h.mu 写锁内完成，
// 上线/下线广播也在锁内入队，所以每个会话看到的状态事件顺序与注册顺序一致。
type Hub struct {
	clients  map[uuid.UUID]map[uuid.UUID]*Client
	mu       sync.RWMutex
	presence *PresenceRegistry

	// 最大连接数限制（每个用户）
	MaxConnectionsPerUser int
}

func NewHub(presence *PresenceRegistry) *Hub {
	return &Hub{
		clients:               make(map[uuid.UUID]map[uuid.UUID]*Client),
		presence:              presence,
		MaxConnectionsPerUser: DefaultMaxConnectionsPerUser,
	}
}

// Presence 在线状态集合
func (h *Hub) Presence() *PresenceRegistry {
	return h.presence
}

// Register 注册会话。用户的第一个会话会把用户标记为在线并向所有会话广播 online，
// 新会话随后收到当前在线用户快照
func (h *Hub) Register(client *Client) error {
	h.mu.Lock()

	sessions := h.clients[client.UserID]
	if _, exists := sessions[client.ID]; exists {
		h.mu.Unlock()
		return nil
	}
	if len(sessions) >= h.MaxConnectionsPerUser {
		h.mu.Unlock()
		log.Printf("[ERROR] User %s exceeds max connections (%d), rejecting client %s",
			client.UserID, h.MaxConnectionsPerUser, client.ID)
		return ErrTooManyDevices
	}
	if sessions == nil {
		sessions = make(map[uuid.UUID]*Client)
		h.clients[client.UserID] = sessions
	}
	sessions[client.ID] = client
	deviceCount := len(sessions)
	totalUsers := len(h.clients)

	if deviceCount == 1 && h.presence.add(client.UserID) {
		h.broadcastLocked(EventUserStatusChange, StatusChangePayload{UserID: client.UserID, Status: StatusOnline})
	}
	h.sendLocked(client, EventOnlineUsersList, h.presence.Snapshot())

	h.mu.Unlock()

	h.presence.Refresh(context.Background(), client.UserID)

	log.Printf("User %s connected (client: %s), total devices: %d, total users: %d",
		client.UserID, client.ID, deviceCount, totalUsers)
	return nil
}

// Unregister 注销会话并关闭其发送通道，可重复调用。
// 最后一个会话离开时用户下线，并且只广播一次 offline
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()

	lastGone := false
	if sessions, exists := h.clients[client.UserID]; exists {
		if _, found := sessions[client.ID]; found {
			delete(sessions, client.ID)

			if len(sessions) == 0 {
				delete(h.clients, client.UserID)
				if h.presence.remove(client.UserID) {
					lastGone = true
					h.broadcastLocked(EventUserStatusChange, StatusChangePayload{UserID: client.UserID, Status: StatusOffline})
				}
				log.Printf("User %s disconnected (client: %s), all devices offline, total users: %d",
					client.UserID, client.ID, len(h.clients))
			} else {
				log.Printf("User %s disconnected (client: %s), remaining devices: %d",
					client.UserID, client.ID, len(sessions))
			}
		}
	}

	h.mu.Unlock()

	client.close()

	if lastGone {
		h.presence.MirrorOffline(context.Background(), client.UserID)
	}
}

// SendToUser 发送消息给指定用户的所有会话，返回成功入队的会话数
func (h *Hub) SendToUser(userID uuid.UUID, message []byte) int {
	h.mu.RLock()
	userClients := h.clients[userID]
	if len(userClients) == 0 {
		h.mu.RUnlock()
		return 0
	}

	// 复制一份 client 列表，在锁外发送
	clientsCopy := make([]*Client, 0, len(userClients))
	for _, client := range userClients {
		clientsCopy = append(clientsCopy, client)
	}
	h.mu.RUnlock()

	sent := 0
	for _, client := range clientsCopy {
		if h.deliver(client, message) {
			sent++
		}
	}
	return sent
}

// SendEvent 组装事件并发送给用户的所有会话
func (h *Hub) SendEvent(userID uuid.UUID, eventType string, data interface{}) int {
	message, err := encodeEvent(eventType, data)
	if err != nil {
		log.Printf("[ERROR] %v", err)
		return 0
	}
	return h.SendToUser(userID, message)
}

// BroadcastAll 发送给所有已注册会话
func (h *Hub) BroadcastAll(eventType string, data interface{}) {
	message, err := encodeEvent(eventType, data)
	if err != nil {
		log.Printf("[ERROR] %v", err)
		return
	}

	h.mu.RLock()
	all := make([]*Client, 0, len(h.clients))
	for _, sessions := range h.clients {
		for _, client := range sessions {
			all = append(all, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range all {
		h.deliver(client, message)
	}
}

// broadcastLocked 调用方必须持有 h.mu
func (h *Hub) broadcastLocked(eventType string, data interface{}) {
	message, err := encodeEvent(eventType, data)
	if err != nil {
		log.Printf("[ERROR] %v", err)
		return
	}
	for _, sessions := range h.clients {
		for _, client := range sessions {
			h.deliver(client, message)
		}
	}
}

// sendLocked 调用方必须持有 h.mu
func (h *Hub) sendLocked(client *Client, eventType string, data interface{}) {
	message, err := encodeEvent(eventType, data)
	if err != nil {
		log.Printf("[ERROR] %v", err)
		return
	}
	h.deliver(client, message)
}

// deliver 缓冲满的会话被异步注销（慢消费者）
func (h *Hub) deliver(client *Client, message []byte) bool {
	err := client.enqueue(message)
	if err == nil {
		return true
	}
	if errors.Is(err, errSendBufferFull) {
		log.Printf("[ERROR] Send channel FULL: user=%s, client=%s, closing connection", client.UserID, client.ID)
		go h.Unregister(client)
	}
	return false
}

// SessionCount 用户当前会话数
func (h *Hub) SessionCount(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// OnlineUsers 当前在线用户
func (h *Hub) OnlineUsers() []uuid.UUID {
	return h.presence.Snapshot()
}

// ForceOffline 断开用户的所有会话（用于登出）
func (h *Hub) ForceOffline(userID uuid.UUID) int {
	h.mu.RLock()
	clientsCopy := make([]*Client, 0, len(h.clients[userID]))
	for _, client := range h.clients[userID] {
		clientsCopy = append(clientsCopy, client)
	}
	h.mu.RUnlock()

	for _, client := range clientsCopy {
		h.Unregister(client)
	}
	return len(clientsCopy)
}
