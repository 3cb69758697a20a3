package main

import (
	"context"
	"log"
	"time"

	"friendchat/config"
	"friendchat/handler"
	"friendchat/middleware"
	"friendchat/service"
	"friendchat/store"
	"friendchat/utils"
)

func init() {
	// 设置时区为 UTC（推荐服务端统一使用 UTC）
	time.Local = time.UTC
}

func main() {
	// 加载配置
	cfg := config.Load()

	// 初始化数据库
	if err := utils.InitDB(cfg.DatabaseURL); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer utils.CloseDB()

	if err := store.AutoMigrate(utils.GetDB()); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// 初始化 Redis
	if err := utils.InitRedis(cfg.RedisURL, cfg.RedisPassword, cfg.RedisDB); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer utils.CloseRedis()

	// 初始化认证中间件
	middleware.InitAuth(cfg.JWTSecret)

	ctx := context.Background()
	st := store.New(utils.GetDB())
	locks := utils.NewPairLock()

	// 系统配置服务（全局单例）
	sysSvc := service.NewSystemSettingsService(st)
	if err := sysSvc.EnsureDefaults(ctx); err != nil {
		log.Printf("[ERROR] Failed to init default settings: %v", err)
	}
	if err := sysSvc.LoadSettings(ctx); err != nil {
		log.Printf("[ERROR] Failed to load settings: %v", err)
	}

	var completer service.Completer
	if cfg.OpenAI.APIKey != "" {
		completer = service.NewOpenAICompleter(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.Model)
	} else {
		log.Println("OPENAI_API_KEY not set, AI replies use the fallback message")
	}

	svcs := handler.Services{
		Friends:  service.NewFriendshipService(st, locks),
		Messages: service.NewMessageService(st),
		AI:       service.NewAIService(st, completer, cfg.OpenAI.ContextTurns, locks),
		Users:    service.NewUserService(st),
		Settings: sysSvc,
	}

	// 在线状态与会话路由
	presence := handler.NewPresenceRegistry(utils.GetRedis(), sysSvc)
	hub := handler.NewHub(presence)
	if cfg.MaxConnectionsPerUser > 0 {
		hub.MaxConnectionsPerUser = cfg.MaxConnectionsPerUser
	}
	gateway := handler.NewGateway(hub, svcs.Messages, sysSvc, locks)

	r := handler.NewRouter(svcs, gateway, handler.RouterOptions{
		AdminUserIDs: cfg.AdminUserIDs,
		TokenTTL:     cfg.TokenTTL,
	})

	// 启动服务
	log.Printf("friendchat service starting on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
