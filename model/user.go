package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User 用户表（注册时分配标签）
type User struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Name      string    `json:"name" gorm:"type:varchar(100);not null"`
	Email     string    `json:"email" gorm:"type:varchar(255);uniqueIndex"`
	UserTag   string    `json:"user_tag" gorm:"type:varchar(16);not null;uniqueIndex"` // 形如 #A1B2
	Avatar    string    `json:"avatar" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// Profile 返回可公开的用户信息
func (u *User) Profile() PublicProfile {
	return PublicProfile{
		ID:      u.ID,
		Name:    u.Name,
		Avatar:  u.Avatar,
		UserTag: u.UserTag,
	}
}

// PublicProfile 用户公开信息（不含邮箱）
type PublicProfile struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Avatar  string    `json:"avatar"`
	UserTag string    `json:"user_tag"`
}
