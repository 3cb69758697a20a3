package handler

import (
	"time"

	"friendchat/middleware"
	"friendchat/service"
	"friendchat/utils"

	"github.com/gin-gonic/gin"
)

// Services 路由依赖
type Services struct {
	Friends  *service.FriendshipService
	Messages *service.MessageService
	AI       *service.AIService
	Users    *service.UserService
	Settings *service.SystemSettingsService
}

// RouterOptions 路由层配置
type RouterOptions struct {
	AdminUserIDs map[string]bool
	TokenTTL     time.Duration // 注册时签发的 token 有效期，0 表示不过期
}

// NewRouter 注册所有 HTTP 与 WebSocket 路由
func NewRouter(svcs Services, gateway *Gateway, opts RouterOptions) *gin.Engine {
	r := gin.Default()

	// 注册统一错误处理中间件
	r.Use(middleware.ErrorHandlerMiddleware())

	hub := gateway.Hub()

	friendHandler := NewFriendHandler(svcs.Friends, hub)
	chatHandler := NewChatHandler(svcs.Messages)
	aiHandler := NewAIHandler(svcs.AI)
	userHandler := NewUserHandler(svcs.Users, hub)
	authHandler := NewAuthHandler(svcs.Users, opts.TokenTTL)
	sysHandler := NewSystemSettingsHandler(svcs.Settings)

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		utils.SuccessResponse(c, gin.H{
			"status":       "ok",
			"online_users": hub.Presence().Count(),
		})
	})

	// WebSocket（token 在 query 中校验）
	r.GET("/ws", HandleWebSocket(gateway))

	// 注册无需登录
	r.POST("/api/v1/auth/register", authHandler.Register)

	api := r.Group("/api/v1")
	api.Use(middleware.AuthMiddleware())
	{
		api.GET("/auth/me", userHandler.GetMe)
		api.POST("/auth/logout", userHandler.Logout)
		api.GET("/users/search/:userTag", userHandler.SearchByTag)
		api.GET("/presence/online", userHandler.GetOnlineUsers)

		friends := api.Group("/friends")
		{
			friends.POST("/request", friendHandler.SendRequest)
			friends.POST("/accept", friendHandler.AcceptRequest)
			friends.POST("/reject", friendHandler.RejectRequest)
			friends.POST("/remove", friendHandler.RemoveFriend)
			friends.GET("/list", friendHandler.ListFriends)
			friends.GET("/requests", friendHandler.ListIncomingRequests)
		}

		api.GET("/chat/:friendId", chatHandler.GetHistory)

		ai := api.Group("/ai")
		{
			ai.POST("/chat", aiHandler.Chat)
			ai.GET("/history", aiHandler.GetHistory)
		}
	}

	admin := r.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware(), AdminAuthMiddleware(opts.AdminUserIDs))
	{
		admin.GET("/settings", sysHandler.GetSystemSettings)
		admin.POST("/settings/reload", sysHandler.ReloadSystemSettings)
		admin.POST("/settings/:key", sysHandler.UpdateSystemSetting)
	}

	return r
}
