// Package testutil 测试辅助：内存 SQLite 数据库与用户数据
package testutil

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"friendchat/model"
	"friendchat/store"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB 每个测试独立的内存数据库，已完成迁移
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	// 单连接：:memory: 数据库按连接隔离，多个连接会看到不同的库
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, store.AutoMigrate(db))

	t.Cleanup(func() {
		sqlDB.Close()
	})
	return db
}

// NewStore NewDB 的 store 包装
func NewStore(t testing.TB) *store.Store {
	t.Helper()
	return store.New(NewDB(t))
}

// CreateUser 创建测试用户
func CreateUser(t testing.TB, st *store.Store, name string) *model.User {
	t.Helper()

	id := uuid.New()
	user := &model.User{
		ID:      id,
		Name:    name,
		Email:   fmt.Sprintf("%s-%s@example.com", name, id.String()[:8]),
		UserTag: "#" + strings.ToUpper(id.String()[:4]),
	}
	require.NoError(t, st.CreateUser(context.Background(), user))
	return user
}
