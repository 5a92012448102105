package cache

import (
	"context"
	"strings"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// DefaultMemoryCapacity сколько списков и документов держит Memory до вытеснения LRU
const DefaultMemoryCapacity = 10000

// Memory кэш внутри процесса, используется когда REDIS_ADDR не задан.
// Просроченные записи удаляются фоновой горутиной, документы ограничены по числу.
// Черный список токенов не ограничен по размеру, чтобы вытеснение не возвращало
// токен к жизни; записи в нём живут не дольше срока токена.
type Memory struct {
	docs      *ttlcache.Cache[string, []byte]
	blacklist *ttlcache.Cache[string, struct{}]
	ttlList   time.Duration
	ttlItem   time.Duration
}

func NewMemory(ttlList, ttlItem, capacity int) *Memory {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return newMemory(time.Duration(ttlList)*time.Second, time.Duration(ttlItem)*time.Second, uint64(capacity))
}

func newMemory(ttlList, ttlItem time.Duration, capacity uint64) *Memory {
	m := &Memory{
		docs: ttlcache.New[string, []byte](
			ttlcache.WithCapacity[string, []byte](capacity),
			ttlcache.WithDisableTouchOnHit[string, []byte](),
		),
		blacklist: ttlcache.New[string, struct{}](
			ttlcache.WithDisableTouchOnHit[string, struct{}](),
		),
		ttlList: ttlList,
		ttlItem: ttlItem,
	}
	go m.docs.Start()
	go m.blacklist.Start()
	return m
}

// Close останавливает фоновую очистку
func (m *Memory) Close() {
	m.docs.Stop()
	m.blacklist.Stop()
}

func ttlOf(d time.Duration) time.Duration {
	if d <= 0 {
		return ttlcache.NoTTL
	}
	return d
}

func (m *Memory) get(key string) ([]byte, error) {
	item := m.docs.Get(key)
	if item == nil {
		return nil, ErrMiss
	}
	return item.Value(), nil
}

func (m *Memory) set(key string, data []byte, ttl time.Duration) {
	m.docs.Set(key, append([]byte(nil), data...), ttlOf(ttl))
}

func (m *Memory) GetDocumentList(_ context.Context, key string) ([]byte, error) {
	return m.get(ListKey(key))
}

func (m *Memory) SetDocumentList(_ context.Context, key string, data []byte) error {
	m.set(ListKey(key), data, m.ttlList)
	return nil
}

func (m *Memory) GetDocumentItem(_ context.Context, key string) ([]byte, error) {
	return m.get(ItemKey(key))
}

func (m *Memory) SetDocumentItem(_ context.Context, key string, data []byte) error {
	m.set(ItemKey(key), data, m.ttlItem)
	return nil
}

func (m *Memory) InvalidateDocumentLists(_ context.Context, prefix string) error {
	for _, key := range m.docs.Keys() {
		if strings.HasPrefix(key, ListKey(prefix)) {
			m.docs.Delete(key)
		}
	}
	return nil
}

func (m *Memory) InvalidateDocumentItem(_ context.Context, key string) error {
	m.docs.Delete(ItemKey(key))
	return nil
}

func (m *Memory) IsTokenBlacklisted(_ context.Context, tokenHash string) (bool, error) {
	return m.blacklist.Get(tokenHash) != nil, nil
}

func (m *Memory) BlacklistToken(_ context.Context, tokenHash string, exp time.Duration) error {
	m.blacklist.Set(tokenHash, struct{}{}, ttlOf(exp))
	return nil
}

func (m *Memory) Ping(context.Context) error { return nil }
