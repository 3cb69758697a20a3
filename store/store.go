// Package store 是纯数据访问层：只负责读写和唯一性约束，不包含业务规则
package store

import (
	"context"
	"errors"

	"friendchat/model"

	"gorm.io/gorm"
)

// ErrNotFound 记录不存在
var ErrNotFound = errors.New("record not found")

// Store 基于 GORM 的存储，事务内外共用同一套方法
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB 获取底层连接（用于迁移和测试）
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Transaction 在单个数据库事务中执行 fn，fn 返回错误时整体回滚
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

// AutoMigrate 创建/更新所有表结构
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.FriendRequest{},
		&model.Friendship{},
		&model.Message{},
		&model.AIChat{},
		&model.AIMessage{},
		&model.SystemSettings{},
	)
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
