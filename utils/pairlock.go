package utils

import (
	"sync"

	"github.com/google/uuid"
)

// PairLock 按 key 加锁的互斥锁集合（进程内），用于串行化同一对用户之间的操作
// 没有持有者的 key 会被及时回收，map 不会无限增长
type PairLock struct {
	mu    sync.Mutex
	locks map[string]*pairEntry
}

type pairEntry struct {
	mu   sync.Mutex
	refs int
}

func NewPairLock() *PairLock {
	return &PairLock{locks: make(map[string]*pairEntry)}
}

// Lock 获取 key 对应的锁，返回解锁函数
func (l *PairLock) Lock(key string) (unlock func()) {
	l.mu.Lock()
	entry, ok := l.locks[key]
	if !ok {
		entry = &pairEntry{}
		l.locks[key] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			entry.mu.Unlock()

			l.mu.Lock()
			entry.refs--
			if entry.refs == 0 {
				delete(l.locks, key)
			}
			l.mu.Unlock()
		})
	}
}

// Len 当前仍被持有或等待的 key 数量
func (l *PairLock) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

// PairKey 无序用户对的 key：PairKey(a, b) == PairKey(b, a)
func PairKey(userA, userB uuid.UUID) string {
	a, b := userA.String(), userB.String()
	if a > b {
		a, b = b, a
	}
	return "pair:" + a + ":" + b
}

// DirectedKey 有序用户对的 key（from -> to）
func DirectedKey(from, to uuid.UUID) string {
	return "dir:" + from.String() + ":" + to.String()
}
