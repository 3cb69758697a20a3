package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	DatabaseURL   string
	RedisURL      string
	RedisPassword string
	RedisDB       int
	JWTSecret     string
	TokenTTL      time.Duration // 注册接口签发的 token 有效期

	MaxConnectionsPerUser int // 每个用户最多同时在线的会话数
	AdminUserIDs          map[string]bool

	OpenAI struct {
		APIKey       string
		BaseURL      string
		Model        string
		ContextTurns int // 每次补全携带的历史条数
	}
}

func Load() *Config {
	// 加载 .env 文件
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg := &Config{
		Port:                  getEnv("PORT", "8080"),
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		RedisURL:              getEnvOptional("REDIS_URL", "localhost:6379"),
		RedisPassword:         os.Getenv("REDIS_PASSWORD"),
		RedisDB:               getEnvInt("REDIS_DB", 0),
		JWTSecret:             os.Getenv("JWT_SECRET"),
		TokenTTL:              time.Duration(getEnvInt("JWT_TTL_HOURS", 720)) * time.Hour,
		MaxConnectionsPerUser: getEnvInt("MAX_CONNECTIONS_PER_USER", 18),
		AdminUserIDs:          parseList(os.Getenv("ADMIN_USER_IDS")),
	}

	cfg.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	cfg.OpenAI.BaseURL = os.Getenv("OPENAI_BASE_URL")
	cfg.OpenAI.Model = getEnv("OPENAI_MODEL", "gpt-3.5-turbo")
	cfg.OpenAI.ContextTurns = getEnvInt("AI_CONTEXT_TURNS", 10)

	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOptional 未设置时取默认值，显式设置为空时保留空值（如 REDIS_URL= 关闭 Redis）
func getEnvOptional(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

// parseList 逗号分隔的列表
func parseList(raw string) map[string]bool {
	result := make(map[string]bool)
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			result[item] = true
		}
	}
	return result
}
