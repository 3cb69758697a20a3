package handler

import (
	"context"
	"errors"
	"fmt"
	"log"

	"friendchat/model"
	"friendchat/service"
	"friendchat/utils"

	"github.com/google/uuid"
)

// MessageSender 持久化私聊消息
type MessageSender interface {
	SendMessage(ctx context.Context, senderID, receiverID uuid.UUID, content string) (*model.Message, error)
}

// Gateway 实时消息网关：解析会话事件并分发
type Gateway struct {
	hub      *Hub
	messages MessageSender
	flags    FeatureFlags
	locks    *utils.PairLock
}

func NewGateway(hub *Hub, messages MessageSender, flags FeatureFlags, locks *utils.PairLock) *Gateway {
	return &Gateway{
		hub:      hub,
		messages: messages,
		flags:    flags,
		locks:    locks,
	}
}

// Hub 会话路由
func (g *Gateway) Hub() *Hub {
	return g.hub
}

// Dispatch 处理会话收到的一帧数据。同一会话的帧由 readPump 顺序调用
func (g *Gateway) Dispatch(ctx context.Context, c *Client, raw []byte) {
	ev, err := DecodeEvent(raw)
	if err != nil {
		g.replyError(c, "invalid_event", err.Error())
		return
	}

	if _, isJoin := ev.(JoinRoomEvent); !isJoin && !c.IsJoined() {
		g.replyError(c, "not_joined", fmt.Sprintf("%s rejected: join_room required first", ev.EventType()))
		return
	}

	switch e := ev.(type) {
	case JoinRoomEvent:
		g.handleJoin(c, e)
	case SendMessageEvent:
		g.handleSendMessage(ctx, c, e)
	case TypingEvent:
		g.relayTyping(c, EventTyping, e.SenderID, e.ReceiverID)
	case StopTypingEvent:
		g.relayTyping(c, EventStopTyping, e.SenderID, e.ReceiverID)
	case HeartbeatEvent:
		g.hub.presence.Refresh(ctx, c.UserID)
	}
}

// Leave 会话断开
func (g *Gateway) Leave(c *Client) {
	g.hub.Unregister(c)
}

func (g *Gateway) handleJoin(c *Client, e JoinRoomEvent) {
	if c.IsJoined() {
		g.replyError(c, "already_joined", "session already joined")
		return
	}
	// 会话只能绑定到握手时认证的身份
	if e.UserID != c.UserID {
		log.Printf("[ERROR] join_room identity mismatch: token=%s, declared=%s", c.UserID, e.UserID)
		g.replyError(c, "identity_mismatch", "userId does not match authenticated user")
		return
	}

	if err := g.hub.Register(c); err != nil {
		if errors.Is(err, ErrTooManyDevices) {
			g.replyError(c, "too_many_devices", fmt.Sprintf("Maximum %d devices allowed", g.hub.MaxConnectionsPerUser))
			// 关闭发送通道，writePump 发完错误后关闭连接
			c.close()
			return
		}
		g.replyError(c, "join_failed", err.Error())
		return
	}
	c.markJoined()
}

// handleSendMessage 先持久化再投递：接收方所有会话，然后发送方所有会话。
// 同一 (sender, receiver) 的发送从写库到入队全程串行，投递顺序与写库顺序一致
func (g *Gateway) handleSendMessage(ctx context.Context, c *Client, e SendMessageEvent) {
	if e.SenderID != c.UserID {
		g.replyMessageError(c, "senderId does not match session user")
		return
	}

	unlock := g.locks.Lock(utils.DirectedKey(e.SenderID, e.ReceiverID))
	defer unlock()

	message, err := g.messages.SendMessage(ctx, e.SenderID, e.ReceiverID, e.Content)
	if err != nil {
		var svcErr *service.Error
		if errors.As(err, &svcErr) && svcErr.Kind != service.KindPersistence {
			g.replyMessageError(c, svcErr.Message)
			return
		}
		log.Printf("[ERROR] Failed to send message: sender=%s, receiver=%s, error=%v", e.SenderID, e.ReceiverID, err)
		g.replyMessageError(c, "Failed to send message")
		return
	}

	payload, err := encodeEvent(EventReceiveMessage, message)
	if err != nil {
		log.Printf("[ERROR] %v", err)
		return
	}
	g.hub.SendToUser(e.ReceiverID, payload)
	g.hub.SendToUser(e.SenderID, payload)
}

// relayTyping 只转发给接收方，不持久化也不回执
func (g *Gateway) relayTyping(c *Client, eventType string, senderID, receiverID uuid.UUID) {
	if g.flags != nil && !g.flags.IsFeatureEnabled(service.FeatureTypingIndicator) {
		return
	}
	if senderID != c.UserID {
		g.replyError(c, "identity_mismatch", "senderId does not match session user")
		return
	}
	g.hub.SendEvent(receiverID, eventType, TypingPayload{SenderID: senderID})
}

func (g *Gateway) replyMessageError(c *Client, message string) {
	g.reply(c, EventMessageError, MessageErrorPayload{Error: message})
}

func (g *Gateway) replyError(c *Client, code, message string) {
	g.reply(c, EventError, ErrorPayload{Code: code, Message: message})
}

// reply 只发给当前会话
func (g *Gateway) reply(c *Client, eventType string, data interface{}) {
	payload, err := encodeEvent(eventType, data)
	if err != nil {
		log.Printf("[ERROR] %v", err)
		return
	}
	if err := c.enqueue(payload); err != nil && !errors.Is(err, errClientClosed) {
		log.Printf("[ERROR] Failed to send %s to user %s: %v", eventType, c.UserID, err)
	}
}
