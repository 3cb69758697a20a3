package handler

import (
	"log"
	"time"

	"friendchat/middleware"
	"friendchat/service"
	"friendchat/utils"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	userSvc  *service.UserService
	tokenTTL time.Duration
}

func NewAuthHandler(userSvc *service.UserService, tokenTTL time.Duration) *AuthHandler {
	return &AuthHandler{userSvc: userSvc, tokenTTL: tokenTTL}
}

// Register 注册用户，分配 #XXXX 标签并签发 token
// POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Name   string `json:"name" binding:"required"`
		Email  string `json:"email" binding:"required,email"`
		Avatar string `json:"avatar"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "name and a valid email are required")
		return
	}

	user, err := h.userSvc.CreateUser(c.Request.Context(), req.Name, req.Email, req.Avatar)
	if err != nil {
		respondError(c, err)
		return
	}

	token, err := middleware.GenerateToken(user.ID, h.tokenTTL)
	if err != nil {
		log.Printf("[ERROR] Failed to sign token for user %s: %v", user.ID, err)
		utils.InternalServerError(c, "failed to issue token")
		return
	}

	log.Printf("User %s registered with tag %s", user.ID, user.UserTag)
	utils.Created(c, gin.H{
		"user":  user,
		"token": token,
	})
}
