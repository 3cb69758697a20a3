package store

import (
	"context"
	"fmt"

	"friendchat/model"

	"github.com/google/uuid"
)

// CreateUser 创建用户
func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUser 根据 ID 查询用户，不存在返回 ErrNotFound
func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// GetUserByTag 根据用户标签查询用户
func (s *Store) GetUserByTag(ctx context.Context, tag string) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).Where("user_tag = ?", tag).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// UserTagExists 检查用户标签是否已被占用
func (s *Store) UserTagExists(ctx context.Context, tag string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.User{}).Where("user_tag = ?", tag).Count(&count).Error
	return count > 0, err
}

// UserEmailExists 检查邮箱是否已注册
func (s *Store) UserEmailExists(ctx context.Context, email string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.User{}).Where("email = ?", email).Count(&count).Error
	return count > 0, err
}

// GetProfiles 批量查询用户公开信息
func (s *Store) GetProfiles(ctx context.Context, ids ...uuid.UUID) (map[uuid.UUID]model.PublicProfile, error) {
	profiles := make(map[uuid.UUID]model.PublicProfile, len(ids))
	if len(ids) == 0 {
		return profiles, nil
	}

	var users []model.User
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to query profiles: %w", err)
	}
	for i := range users {
		profiles[users[i].ID] = users[i].Profile()
	}
	return profiles, nil
}
