package handler

import (
	"strconv"

	"friendchat/middleware"
	"friendchat/service"
	"friendchat/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ChatHandler struct {
	msgSvc *service.MessageService
}

func NewChatHandler(msgSvc *service.MessageService) *ChatHandler {
	return &ChatHandler{msgSvc: msgSvc}
}

// GetHistory 获取与好友的聊天记录（按时间正序）
// GET /api/v1/chat/:friendId?limit=50&offset=0
func (h *ChatHandler) GetHistory(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		utils.Unauthorized(c, "unauthorized")
		return
	}

	friendID, err := uuid.Parse(c.Param("friendId"))
	if err != nil {
		utils.BadRequest(c, "invalid friend id")
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	messages, err := h.msgSvc.GetHistory(c.Request.Context(), userID, friendID, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, messages)
}
