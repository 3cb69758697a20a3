package handler

import (
	"friendchat/middleware"
	"friendchat/service"
	"friendchat/utils"

	"github.com/gin-gonic/gin"
)

type AIHandler struct {
	aiSvc *service.AIService
}

func NewAIHandler(aiSvc *service.AIService) *AIHandler {
	return &AIHandler{aiSvc: aiSvc}
}

// Chat 与 AI 助手对话
// POST /api/v1/ai/chat
func (h *AIHandler) Chat(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		utils.Unauthorized(c, "unauthorized")
		return
	}

	var req struct {
		Message string `json:"message" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "message is required")
		return
	}

	reply, err := h.aiSvc.Chat(c.Request.Context(), userID, req.Message)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, reply)
}

// GetHistory 获取 AI 对话记录
// GET /api/v1/ai/history
func (h *AIHandler) GetHistory(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		utils.Unauthorized(c, "unauthorized")
		return
	}

	messages, err := h.aiSvc.History(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, messages)
}
