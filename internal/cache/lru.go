package cache

import (
	"container/list"
	"context"
	"strings"
	"sync"
	"time"

	"ledger/internal/core"
)

// LRUCache keeps at most maxSize entries for ttl each, dropping the least
// recently read first.
//
// When slotOf is set, keys mapping to the same slot are mutually exclusive:
// storing one evicts the other. History keys all map to their user's slot,
// so a fresh generation replaces the stale one instead of waiting to age out.
type LRUCache[T any] struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	now     func() time.Time
	slotOf  func(key string) string

	byKey  map[string]*list.Element
	bySlot map[string]*list.Element
	recent *list.List // front is most recently used
}

type lruEntry[T any] struct {
	key     string
	slot    string
	value   T
	expires time.Time
}

func NewLRUCache[T any](maxSize int, ttl time.Duration) *LRUCache[T] {
	return newLRU[T](maxSize, ttl, nil)
}

// NewHistoryCache holds one cached history per user; see historyKey.
func NewHistoryCache(maxUsers int, ttl time.Duration) *LRUCache[[]core.Transaction] {
	return newLRU[[]core.Transaction](maxUsers, ttl, historySlot)
}

func newLRU[T any](maxSize int, ttl time.Duration, slotOf func(string) string) *LRUCache[T] {
	if maxSize < 1 {
		maxSize = 1
	}
	return &LRUCache[T]{
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
		slotOf:  slotOf,
		byKey:   make(map[string]*list.Element),
		bySlot:  make(map[string]*list.Element),
		recent:  list.New(),
	}
}

// historySlot strips the generation from "tx:<user>:<gen>".
func historySlot(key string) string {
	if i := strings.LastIndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return key
}

func (c *LRUCache[T]) Get(_ context.Context, key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	elem, ok := c.byKey[key]
	if !ok {
		return zero, false
	}
	e := elem.Value.(*lruEntry[T])
	if c.now().After(e.expires) {
		c.drop(elem)
		return zero, false
	}
	c.recent.MoveToFront(elem)
	return e.value, true
}

func (c *LRUCache[T]) Set(_ context.Context, key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.byKey[key]; ok {
		c.drop(elem)
	}
	slot := ""
	if c.slotOf != nil {
		slot = c.slotOf(key)
		if elem, ok := c.bySlot[slot]; ok {
			c.drop(elem)
		}
	}

	elem := c.recent.PushFront(&lruEntry[T]{
		key:     key,
		slot:    slot,
		value:   value,
		expires: c.now().Add(c.ttl),
	})
	c.byKey[key] = elem
	if c.slotOf != nil {
		c.bySlot[slot] = elem
	}

	for c.recent.Len() > c.maxSize {
		c.drop(c.recent.Back())
	}
}

func (c *LRUCache[T]) Delete(_ context.Context, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.byKey[key]; ok {
		c.drop(elem)
	}
}

// drop must be called with c.mu held.
func (c *LRUCache[T]) drop(elem *list.Element) {
	e := elem.Value.(*lruEntry[T])
	delete(c.byKey, e.key)
	if c.slotOf != nil && c.bySlot[e.slot] == elem {
		delete(c.bySlot, e.slot)
	}
	c.recent.Remove(elem)
}

// CleanExpired implements Cleaner.
func (c *LRUCache[T]) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for elem := c.recent.Back(); elem != nil; {
		prev := elem.Prev()
		if now.After(elem.Value.(*lruEntry[T]).expires) {
			c.drop(elem)
			removed++
		}
		elem = prev
	}
	return removed
}

func (c *LRUCache[T]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.byKey)
}
