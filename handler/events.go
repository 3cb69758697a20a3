package handler

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// 事件名称（线上协议标识）
const (
	EventJoinRoom              = "join_room"
	EventUserStatusChange      = "user_status_change"
	EventOnlineUsersList       = "online_users_list"
	EventSendMessage           = "send_message"
	EventReceiveMessage        = "receive_message"
	EventMessageError          = "message_error"
	EventTyping                = "typing"
	EventStopTyping            = "stop_typing"
	EventHeartbeat             = "heartbeat"
	EventError                 = "error"
	EventFriendRequest         = "friend_request"
	EventFriendRequestAccepted = "friend_request_accepted"
)

const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

// WSMessage WebSocket 消息格式
type WSMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Event 客户端发来的事件，每种事件对应一个具体类型
type Event interface {
	EventType() string
}

type JoinRoomEvent struct {
	UserID uuid.UUID `json:"userId"`
}

type SendMessageEvent struct {
	SenderID   uuid.UUID `json:"senderId"`
	ReceiverID uuid.UUID `json:"receiverId"`
	Content    string    `json:"content"`
}

type TypingEvent struct {
	SenderID   uuid.UUID `json:"senderId"`
	ReceiverID uuid.UUID `json:"receiverId"`
}

type StopTypingEvent struct {
	SenderID   uuid.UUID `json:"senderId"`
	ReceiverID uuid.UUID `json:"receiverId"`
}

type HeartbeatEvent struct{}

func (JoinRoomEvent) EventType() string    { return EventJoinRoom }
func (SendMessageEvent) EventType() string { return EventSendMessage }
func (TypingEvent) EventType() string      { return EventTyping }
func (StopTypingEvent) EventType() string  { return EventStopTyping }
func (HeartbeatEvent) EventType() string   { return EventHeartbeat }

// DecodeError 事件解析或校验失败，Type 为能识别出的事件名（可能为空）
type DecodeError struct {
	Type   string
	Reason string
}

func (e *DecodeError) Error() string {
	if e.Type == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Reason)
}

// DecodeEvent 解析并校验客户端事件
func DecodeEvent(raw []byte) (Event, error) {
	var msg WSMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, &DecodeError{Reason: "invalid JSON format"}
	}

	switch msg.Type {
	case EventJoinRoom:
		var ev JoinRoomEvent
		if err := decodeData(msg, &ev); err != nil {
			return nil, err
		}
		if ev.UserID == uuid.Nil {
			return nil, &DecodeError{Type: msg.Type, Reason: "userId is required"}
		}
		return ev, nil

	case EventSendMessage:
		var ev SendMessageEvent
		if err := decodeData(msg, &ev); err != nil {
			return nil, err
		}
		if ev.SenderID == uuid.Nil || ev.ReceiverID == uuid.Nil {
			return nil, &DecodeError{Type: msg.Type, Reason: "senderId and receiverId are required"}
		}
		return ev, nil

	case EventTyping:
		var ev TypingEvent
		if err := decodeData(msg, &ev); err != nil {
			return nil, err
		}
		if ev.SenderID == uuid.Nil || ev.ReceiverID == uuid.Nil {
			return nil, &DecodeError{Type: msg.Type, Reason: "senderId and receiverId are required"}
		}
		return ev, nil

	case EventStopTyping:
		var ev StopTypingEvent
		if err := decodeData(msg, &ev); err != nil {
			return nil, err
		}
		if ev.SenderID == uuid.Nil || ev.ReceiverID == uuid.Nil {
			return nil, &DecodeError{Type: msg.Type, Reason: "senderId and receiverId are required"}
		}
		return ev, nil

	case EventHeartbeat:
		return HeartbeatEvent{}, nil

	case "":
		return nil, &DecodeError{Reason: "event type is required"}

	default:
		return nil, &DecodeError{Type: msg.Type, Reason: "unknown event type"}
	}
}

func decodeData(msg WSMessage, v interface{}) error {
	if len(msg.Data) == 0 || string(msg.Data) == "null" {
		return &DecodeError{Type: msg.Type, Reason: "data is required"}
	}
	if err := json.Unmarshal(msg.Data, v); err != nil {
		return &DecodeError{Type: msg.Type, Reason: "invalid payload"}
	}
	return nil
}

// StatusChangePayload user_status_change 事件数据
type StatusChangePayload struct {
	UserID uuid.UUID `json:"userId"`
	Status string    `json:"status"`
}

// TypingPayload typing / stop_typing 转发给接收方的数据
type TypingPayload struct {
	SenderID uuid.UUID `json:"senderId"`
}

// MessageErrorPayload message_error 事件数据
type MessageErrorPayload struct {
	Error string `json:"error"`
}

// ErrorPayload error 事件数据
type ErrorPayload struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// encodeEvent 组装下行事件
func encodeEvent(eventType string, data interface{}) ([]byte, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
	}
	return json.Marshal(WSMessage{Type: eventType, Data: payload})
}
