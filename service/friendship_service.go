package service

import (
	"context"
	"errors"

	"friendchat/model"
	"friendchat/store"
	"friendchat/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FriendshipService 好友请求状态机
//
// 每个有序用户对 (A→B) 的请求状态：none → pending → accepted | rejected，
// rejected 可由原发送方重新激活为 pending，accepted 可由任一方删除回到 none。
// 所有变更都在同一对用户的进程内锁 + 数据库事务中执行，
// 镜像请求、同时接受/删除等并发竞争的失败方只会看到明确的错误而不是半完成状态。
type FriendshipService struct {
	store *store.Store
	locks *utils.PairLock
}

func NewFriendshipService(st *store.Store, locks *utils.PairLock) *FriendshipService {
	return &FriendshipService{store: st, locks: locks}
}

// SendRequest 发送好友请求
func (s *FriendshipService) SendRequest(ctx context.Context, senderID, receiverID uuid.UUID) (*model.FriendRequestWithUsers, error) {
	if senderID == receiverID {
		return nil, ErrInvalidTarget
	}

	if _, err := s.store.GetUser(ctx, receiverID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, persistenceError("failed to query receiver", err)
	}

	unlock := s.locks.Lock(utils.PairKey(senderID, receiverID))
	defer unlock()

	var result *model.FriendRequest
	err := s.store.Transaction(ctx, func(tx *store.Store) error {
		friends, err := tx.AreFriends(ctx, senderID, receiverID)
		if err != nil {
			return err
		}
		if friends {
			return ErrAlreadyFriends
		}

		// 对方已经发来待处理请求：提示去处理收到的请求，不创建镜像请求
		incoming, err := tx.FindFriendRequest(ctx, receiverID, senderID)
		if err != nil {
			return err
		}
		if incoming != nil && incoming.Status == model.FriendRequestPending {
			return ErrDuplicatePending
		}

		outgoing, err := tx.FindFriendRequest(ctx, senderID, receiverID)
		if err != nil {
			return err
		}
		if outgoing != nil {
			switch outgoing.Status {
			case model.FriendRequestPending:
				return ErrRequestPending
			case model.FriendRequestAccepted:
				return ErrAlreadyFriends
			case model.FriendRequestRejected:
				// 重新激活原记录
				ok, err := tx.TransitionFriendRequest(ctx, outgoing.ID, model.FriendRequestRejected, model.FriendRequestPending)
				if err != nil {
					return err
				}
				if !ok {
					return ErrRequestPending
				}
				result, err = tx.GetFriendRequest(ctx, outgoing.ID)
				return err
			}
		}

		req := &model.FriendRequest{
			SenderID:   senderID,
			ReceiverID: receiverID,
			Status:     model.FriendRequestPending,
		}
		if err := tx.CreateFriendRequest(ctx, req); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrRequestPending
			}
			return err
		}
		result = req
		return nil
	})
	if err != nil {
		return nil, serviceError("failed to send friend request", err)
	}

	return s.withUsers(ctx, result)
}

// AcceptRequest 接受好友请求：状态改为 accepted 并原子地插入双向好友关系
func (s *FriendshipService) AcceptRequest(ctx context.Context, requestID, actingUserID uuid.UUID) (*model.FriendRequest, error) {
	return s.handleRequest(ctx, requestID, actingUserID, model.FriendRequestAccepted)
}

// RejectRequest 拒绝好友请求
func (s *FriendshipService) RejectRequest(ctx context.Context, requestID, actingUserID uuid.UUID) (*model.FriendRequest, error) {
	return s.handleRequest(ctx, requestID, actingUserID, model.FriendRequestRejected)
}

func (s *FriendshipService) handleRequest(ctx context.Context, requestID, actingUserID uuid.UUID, to string) (*model.FriendRequest, error) {
	req, err := s.store.GetFriendRequest(ctx, requestID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, persistenceError("failed to query friend request", err)
	}

	// 只有接收方可以处理
	if req.ReceiverID != actingUserID {
		return nil, ErrForbidden
	}

	unlock := s.locks.Lock(utils.PairKey(req.SenderID, req.ReceiverID))
	defer unlock()

	var handled *model.FriendRequest
	err = s.store.Transaction(ctx, func(tx *store.Store) error {
		// 锁内重新读取：请求可能已被并发的删除好友操作清掉
		current, err := tx.GetFriendRequest(ctx, requestID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrRequestNotFound
			}
			return err
		}
		if current.Status != model.FriendRequestPending {
			return ErrAlreadyHandled
		}

		ok, err := tx.TransitionFriendRequest(ctx, requestID, model.FriendRequestPending, to)
		if err != nil {
			return err
		}
		if !ok {
			return ErrAlreadyHandled
		}

		if to == model.FriendRequestAccepted {
			if err := tx.CreateFriendshipPair(ctx, current.SenderID, current.ReceiverID); err != nil {
				return err
			}
		}

		handled, err = tx.GetFriendRequest(ctx, requestID)
		return err
	})
	if err != nil {
		return nil, serviceError("failed to handle friend request", err)
	}

	return handled, nil
}

// RemoveFriend 删除好友：原子地删除双向好友关系和两人之间的所有请求记录，
// 之后任一方都可以重新发起请求
func (s *FriendshipService) RemoveFriend(ctx context.Context, userID, otherID uuid.UUID) error {
	if _, err := s.store.GetUser(ctx, otherID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return persistenceError("failed to query user", err)
	}

	unlock := s.locks.Lock(utils.PairKey(userID, otherID))
	defer unlock()

	err := s.store.Transaction(ctx, func(tx *store.Store) error {
		removed, err := tx.DeleteFriendshipPair(ctx, userID, otherID)
		if err != nil {
			return err
		}
		if removed == 0 {
			return ErrNotFriends
		}

		_, err = tx.DeleteFriendRequestsBetween(ctx, userID, otherID)
		return err
	})
	if err != nil {
		return serviceError("failed to remove friend", err)
	}

	return nil
}

// ListFriends 好友列表
func (s *FriendshipService) ListFriends(ctx context.Context, userID uuid.UUID) ([]model.PublicProfile, error) {
	friends, err := s.store.ListFriendProfiles(ctx, userID)
	if err != nil {
		return nil, persistenceError("failed to list friends", err)
	}
	if friends == nil {
		friends = []model.PublicProfile{}
	}
	return friends, nil
}

// ListIncomingRequests 收到的待处理请求（含发送方信息）
func (s *FriendshipService) ListIncomingRequests(ctx context.Context, userID uuid.UUID) ([]model.FriendRequestWithUsers, error) {
	reqs, err := s.store.ListIncomingRequests(ctx, userID, model.FriendRequestPending)
	if err != nil {
		return nil, persistenceError("failed to list friend requests", err)
	}

	ids := make([]uuid.UUID, 0, len(reqs)+1)
	ids = append(ids, userID)
	for _, req := range reqs {
		ids = append(ids, req.SenderID)
	}
	profiles, err := s.store.GetProfiles(ctx, ids...)
	if err != nil {
		return nil, persistenceError("failed to load profiles", err)
	}

	result := make([]model.FriendRequestWithUsers, 0, len(reqs))
	for _, req := range reqs {
		result = append(result, model.FriendRequestWithUsers{
			FriendRequest: req,
			Sender:        profiles[req.SenderID],
			Receiver:      profiles[req.ReceiverID],
		})
	}
	return result, nil
}

// AreFriends 检查两人是否为好友
func (s *FriendshipService) AreFriends(ctx context.Context, userA, userB uuid.UUID) (bool, error) {
	friends, err := s.store.AreFriends(ctx, userA, userB)
	if err != nil {
		return false, persistenceError("failed to check friendship", err)
	}
	return friends, nil
}

func (s *FriendshipService) withUsers(ctx context.Context, req *model.FriendRequest) (*model.FriendRequestWithUsers, error) {
	profiles, err := s.store.GetProfiles(ctx, req.SenderID, req.ReceiverID)
	if err != nil {
		return nil, persistenceError("failed to load profiles", err)
	}
	return &model.FriendRequestWithUsers{
		FriendRequest: *req,
		Sender:        profiles[req.SenderID],
		Receiver:      profiles[req.ReceiverID],
	}, nil
}

// serviceError 业务错误原样返回，其余错误视为存储失败
func serviceError(message string, err error) error {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr
	}
	return persistenceError(message, err)
}
