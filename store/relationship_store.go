package store

import (
	"context"
	"fmt"
	"time"

	"friendchat/model"

	"github.com/google/uuid"
	"gorm.io/gorm/clause"
)

// GetFriendRequest 根据 ID 查询好友请求，不存在返回 ErrNotFound
func (s *Store) GetFriendRequest(ctx context.Context, id uuid.UUID) (*model.FriendRequest, error) {
	var req model.FriendRequest
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&req).Error; err != nil {
		return nil, notFound(err)
	}
	return &req, nil
}

// FindFriendRequest 查询有序 (sender, receiver) 的请求记录，不存在时返回 (nil, nil)
func (s *Store) FindFriendRequest(ctx context.Context, senderID, receiverID uuid.UUID) (*model.FriendRequest, error) {
	var reqs []model.FriendRequest
	err := s.db.WithContext(ctx).
		Where("sender_id = ? AND receiver_id = ?", senderID, receiverID).
		Limit(1).
		Find(&reqs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query friend request: %w", err)
	}
	if len(reqs) == 0 {
		return nil, nil
	}
	return &reqs[0], nil
}

// CreateFriendRequest 创建好友请求（唯一索引冲突时返回 gorm.ErrDuplicatedKey）
func (s *Store) CreateFriendRequest(ctx context.Context, req *model.FriendRequest) error {
	return s.db.WithContext(ctx).Create(req).Error
}

// TransitionFriendRequest 条件更新状态：只有当前状态为 from 时才改为 to
// 返回是否真正更新了记录
func (s *Store) TransitionFriendRequest(ctx context.Context, id uuid.UUID, from, to string) (bool, error) {
	result := s.db.WithContext(ctx).Model(&model.FriendRequest{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to update friend request: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// DeleteFriendRequestsBetween 删除两人之间两个方向的所有请求
func (s *Store) DeleteFriendRequestsBetween(ctx context.Context, userA, userB uuid.UUID) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)", userA, userB, userB, userA).
		Delete(&model.FriendRequest{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete friend requests: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// ListIncomingRequests 查询发给某用户的指定状态请求（最新在前）
func (s *Store) ListIncomingRequests(ctx context.Context, receiverID uuid.UUID, status string) ([]model.FriendRequest, error) {
	var reqs []model.FriendRequest
	err := s.db.WithContext(ctx).
		Where("receiver_id = ? AND status = ?", receiverID, status).
		Order("created_at DESC").
		Find(&reqs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query incoming requests: %w", err)
	}
	return reqs, nil
}

// AreFriends 检查两人之间是否存在好友关系（任一方向）
func (s *Store) AreFriends(ctx context.Context, userA, userB uuid.UUID) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Friendship{}).
		Where("(user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)", userA, userB, userB, userA).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check friendship: %w", err)
	}
	return count > 0, nil
}

// CreateFriendshipPair 插入双向好友关系（已存在的行跳过）
func (s *Store) CreateFriendshipPair(ctx context.Context, userA, userB uuid.UUID) error {
	rows := []model.Friendship{
		{UserID: userA, FriendID: userB},
		{UserID: userB, FriendID: userA},
	}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error; err != nil {
		return fmt.Errorf("failed to create friendship: %w", err)
	}
	return nil
}

// DeleteFriendshipPair 删除双向好友关系，返回删除行数
func (s *Store) DeleteFriendshipPair(ctx context.Context, userA, userB uuid.UUID) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("(user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)", userA, userB, userB, userA).
		Delete(&model.Friendship{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete friendship: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// ListFriendProfiles 好友列表（单次索引查询 + 用户信息）
func (s *Store) ListFriendProfiles(ctx context.Context, userID uuid.UUID) ([]model.PublicProfile, error) {
	var profiles []model.PublicProfile
	err := s.db.WithContext(ctx).
		Table("friendships f").
		Select("u.id, u.name, u.avatar, u.user_tag").
		Joins("INNER JOIN users u ON u.id = f.friend_id").
		Where("f.user_id = ?", userID).
		Order("u.name ASC").
		Scan(&profiles).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query friends: %w", err)
	}
	return profiles, nil
}
