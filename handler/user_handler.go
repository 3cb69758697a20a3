package handler

import (
	"friendchat/middleware"
	"friendchat/service"
	"friendchat/utils"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userSvc *service.UserService
	hub     *Hub
}

func NewUserHandler(userSvc *service.UserService, hub *Hub) *UserHandler {
	return &UserHandler{userSvc: userSvc, hub: hub}
}

// GetMe 当前用户资料
// GET /api/v1/auth/me
func (h *UserHandler) GetMe(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		utils.Unauthorized(c, "unauthorized")
		return
	}

	user, err := h.userSvc.GetProfile(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, user)
}

// SearchByTag 按标签搜索用户
// GET /api/v1/users/search/:userTag
func (h *UserHandler) SearchByTag(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		utils.Unauthorized(c, "unauthorized")
		return
	}

	profile, err := h.userSvc.SearchByTag(c.Request.Context(), userID, c.Param("userTag"))
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"id":        profile.ID,
		"name":      profile.Name,
		"avatar":    profile.Avatar,
		"user_tag":  profile.UserTag,
		"is_online": h.hub.Presence().IsOnline(profile.ID),
	})
}

// GetOnlineUsers 当前在线用户
// GET /api/v1/presence/online
func (h *UserHandler) GetOnlineUsers(c *gin.Context) {
	utils.SuccessResponse(c, gin.H{
		"online_users": h.hub.OnlineUsers(),
	})
}

// Logout 断开当前用户的所有 WebSocket 会话
// POST /api/v1/auth/logout
func (h *UserHandler) Logout(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		utils.Unauthorized(c, "unauthorized")
		return
	}

	closed := h.hub.ForceOffline(userID)
	utils.SuccessWithMessage(c, "logged out", gin.H{"closed_sessions": closed})
}
