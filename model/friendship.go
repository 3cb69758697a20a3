package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// 好友请求状态
const (
	FriendRequestPending  = "pending"
	FriendRequestAccepted = "accepted"
	FriendRequestRejected = "rejected"
)

// FriendRequest 好友请求表，每个有序 (sender, receiver) 最多一条记录
type FriendRequest struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	SenderID   uuid.UUID `json:"sender_id" gorm:"type:uuid;not null;uniqueIndex:idx_friend_requests_pair,priority:1"`
	ReceiverID uuid.UUID `json:"receiver_id" gorm:"type:uuid;not null;uniqueIndex:idx_friend_requests_pair,priority:2;index"`
	Status     string    `json:"status" gorm:"type:varchar(20);not null;default:pending"` // 'pending' | 'accepted' | 'rejected'
	CreatedAt  time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt  time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (FriendRequest) TableName() string {
	return "friend_requests"
}

func (r *FriendRequest) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// FriendRequestWithUsers 好友请求详情（包含双方公开信息）
type FriendRequestWithUsers struct {
	FriendRequest
	Sender   PublicProfile `json:"sender"`
	Receiver PublicProfile `json:"receiver"`
}

// Friendship 好友关系表，每对好友存两行（双向）
type Friendship struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_friendships_pair,priority:1"`
	FriendID  uuid.UUID `json:"friend_id" gorm:"type:uuid;not null;uniqueIndex:idx_friendships_pair,priority:2"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (Friendship) TableName() string {
	return "friendships"
}

func (f *Friendship) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}
