package handler

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"friendchat/service"
	"friendchat/utils"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	onlineKeyPrefix = "online:"
	onlineTTL       = 30 * time.Second
)

// FeatureFlags 功能开关查询
type FeatureFlags interface {
	IsFeatureEnabled(key string) bool
}

// PresenceRegistry 在线用户集合
//
// 内存集合是唯一的权威来源，只由 Hub 在持有自身写锁时修改；
// Redis 中的 online:<id> 键只是带 TTL 的镜像，供其它进程只读查询。
// 同一用户的镜像写入按用户串行，并在锁内以内存状态为准。
type PresenceRegistry struct {
	mu          sync.RWMutex
	online      map[uuid.UUID]struct{}
	rdb         *redis.Client
	flags       FeatureFlags
	mirrorLocks *utils.PairLock
}

// NewPresenceRegistry rdb 为 nil 时不写镜像
func NewPresenceRegistry(rdb *redis.Client, flags FeatureFlags) *PresenceRegistry {
	return &PresenceRegistry{
		online:      make(map[uuid.UUID]struct{}),
		rdb:         rdb,
		flags:       flags,
		mirrorLocks: utils.NewPairLock(),
	}
}

func (p *PresenceRegistry) add(userID uuid.UUID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.online[userID]; ok {
		return false
	}
	p.online[userID] = struct{}{}
	return true
}

func (p *PresenceRegistry) remove(userID uuid.UUID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.online[userID]; !ok {
		return false
	}
	delete(p.online, userID)
	return true
}

// IsOnline 用户是否至少有一个会话
func (p *PresenceRegistry) IsOnline(userID uuid.UUID) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.online[userID]
	return ok
}

// Snapshot 当前在线用户（按 ID 排序）
func (p *PresenceRegistry) Snapshot() []uuid.UUID {
	p.mu.RLock()
	ids := make([]uuid.UUID, 0, len(p.online))
	for id := range p.online {
		ids = append(ids, id)
	}
	p.mu.RUnlock()

	sort.Slice(ids, func(i, j int) bool {
		return ids[i].String() < ids[j].String()
	})
	return ids
}

func (p *PresenceRegistry) Count() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.online)
}

func (p *PresenceRegistry) mirrorEnabled() bool {
	if p.rdb == nil {
		return false
	}
	return p.flags == nil || p.flags.IsFeatureEnabled(service.FeatureOnlineStatus)
}

// Refresh 写入或续期 Redis 在线键（心跳时调用），用户已离线时不写
func (p *PresenceRegistry) Refresh(ctx context.Context, userID uuid.UUID) {
	if !p.mirrorEnabled() {
		return
	}
	unlock := p.mirrorLocks.Lock(userID.String())
	defer unlock()
	if !p.IsOnline(userID) {
		return
	}
	if err := p.rdb.Set(ctx, onlineKeyPrefix+userID.String(), "1", onlineTTL).Err(); err != nil {
		log.Printf("[ERROR] Failed to refresh online status for user %s: %v", userID, err)
	}
}

// MirrorOffline 删除 Redis 在线键。用户在此期间重新上线时保留键
func (p *PresenceRegistry) MirrorOffline(ctx context.Context, userID uuid.UUID) {
	if !p.mirrorEnabled() {
		return
	}
	unlock := p.mirrorLocks.Lock(userID.String())
	defer unlock()
	if p.IsOnline(userID) {
		return
	}
	if err := p.rdb.Del(ctx, onlineKeyPrefix+userID.String()).Err(); err != nil {
		log.Printf("[ERROR] Failed to clear online status for user %s: %v", userID, err)
	}
}
