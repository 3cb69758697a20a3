package handler

import (
	"friendchat/middleware"
	"friendchat/service"
	"friendchat/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type FriendHandler struct {
	friendSvc *service.FriendshipService
	hub       *Hub
}

func NewFriendHandler(friendSvc *service.FriendshipService, hub *Hub) *FriendHandler {
	return &FriendHandler{friendSvc: friendSvc, hub: hub}
}

// SendRequest 发送好友请求
// POST /api/v1/friends/request
func (h *FriendHandler) SendRequest(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		utils.Unauthorized(c, "unauthorized")
		return
	}

	var req struct {
		ReceiverID uuid.UUID `json:"receiver_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "receiver_id is required")
		return
	}

	request, err := h.friendSvc.SendRequest(c.Request.Context(), userID, req.ReceiverID)
	if err != nil {
		respondError(c, err)
		return
	}

	// 对方在线时实时提醒
	h.hub.SendEvent(req.ReceiverID, EventFriendRequest, request)

	utils.Created(c, request)
}

// AcceptRequest 接受好友请求
// POST /api/v1/friends/accept
func (h *FriendHandler) AcceptRequest(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		utils.Unauthorized(c, "unauthorized")
		return
	}

	requestID, ok := bindRequestID(c)
	if !ok {
		return
	}

	request, err := h.friendSvc.AcceptRequest(c.Request.Context(), requestID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	h.hub.SendEvent(request.SenderID, EventFriendRequestAccepted, request)

	utils.SuccessWithMessage(c, "friend request accepted", request)
}

// RejectRequest 拒绝好友请求
// POST /api/v1/friends/reject
func (h *FriendHandler) RejectRequest(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		utils.Unauthorized(c, "unauthorized")
		return
	}

	requestID, ok := bindRequestID(c)
	if !ok {
		return
	}

	request, err := h.friendSvc.RejectRequest(c.Request.Context(), requestID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessWithMessage(c, "friend request rejected", request)
}

// RemoveFriend 删除好友
// POST /api/v1/friends/remove
func (h *FriendHandler) RemoveFriend(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		utils.Unauthorized(c, "unauthorized")
		return
	}

	var req struct {
		FriendID uuid.UUID `json:"friend_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "friend_id is required")
		return
	}

	if err := h.friendSvc.RemoveFriend(c.Request.Context(), userID, req.FriendID); err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessWithMessage(c, "friend removed", nil)
}

// ListFriends 好友列表
// GET /api/v1/friends/list
func (h *FriendHandler) ListFriends(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		utils.Unauthorized(c, "unauthorized")
		return
	}

	friends, err := h.friendSvc.ListFriends(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, friends)
}

// ListIncomingRequests 收到的待处理请求
// GET /api/v1/friends/requests
func (h *FriendHandler) ListIncomingRequests(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		utils.Unauthorized(c, "unauthorized")
		return
	}

	requests, err := h.friendSvc.ListIncomingRequests(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, requests)
}

func bindRequestID(c *gin.Context) (uuid.UUID, bool) {
	var req struct {
		RequestID uuid.UUID `json:"request_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "request_id is required")
		return uuid.Nil, false
	}
	return req.RequestID, true
}
