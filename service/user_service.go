package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"friendchat/model"
	"friendchat/store"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const maxTagAttempts = 10

// UserService 用户查询与创建
type UserService struct {
	store *store.Store
}

func NewUserService(st *store.Store) *UserService {
	return &UserService{store: st}
}

// GetProfile 获取用户资料
func (s *UserService) GetProfile(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, persistenceError("failed to query user", err)
	}
	return user, nil
}

// SearchByTag 按用户标签搜索，标签可以省略 # 前缀
func (s *UserService) SearchByTag(ctx context.Context, actingUserID uuid.UUID, tag string) (*model.PublicProfile, error) {
	tag = strings.ToUpper(strings.TrimSpace(tag))
	if tag == "" || tag == "#" {
		return nil, validationError("user tag is required")
	}
	if !strings.HasPrefix(tag, "#") {
		tag = "#" + tag
	}

	user, err := s.store.GetUserByTag(ctx, tag)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, persistenceError("failed to query user", err)
	}
	if user.ID == actingUserID {
		return nil, validationError("you cannot search for yourself")
	}

	profile := user.Profile()
	return &profile, nil
}

// GenerateUserTag 生成未被占用的 #XXXX 标签
func (s *UserService) GenerateUserTag(ctx context.Context) (string, error) {
	for i := 0; i < maxTagAttempts; i++ {
		tag := fmt.Sprintf("#%04X", rand.IntN(0x10000))
		exists, err := s.store.UserTagExists(ctx, tag)
		if err != nil {
			return "", persistenceError("failed to check user tag", err)
		}
		if !exists {
			return tag, nil
		}
	}
	return "", &Error{Kind: KindConflict, Code: "tag_exhausted", Message: "failed to generate unique user tag"}
}

// CreateUser 注册用户并分配标签，标签在写入时撞车则重新生成
func (s *UserService) CreateUser(ctx context.Context, name, email, avatar string) (*model.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" {
		return nil, validationError("name and email are required")
	}

	for i := 0; i < maxTagAttempts; i++ {
		tag, err := s.GenerateUserTag(ctx)
		if err != nil {
			return nil, err
		}

		user := &model.User{
			Name:    name,
			Email:   email,
			Avatar:  avatar,
			UserTag: tag,
		}
		err = s.store.CreateUser(ctx, user)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, persistenceError("failed to create user", err)
		}

		// 邮箱重复不需要重试
		taken, lookupErr := s.store.UserEmailExists(ctx, email)
		if lookupErr != nil {
			return nil, persistenceError("failed to check email", lookupErr)
		}
		if taken {
			return nil, &Error{Kind: KindConflict, Code: "email_taken", Message: "email already registered"}
		}
	}
	return nil, &Error{Kind: KindConflict, Code: "tag_exhausted", Message: "failed to generate unique user tag"}
}
