package cache

import (
	"context"
	"time"

	"budgetbook/internal/core"
	"budgetbook/internal/sheets"
)

// SheetCache keeps recently loaded sheets keyed by title. It fronts
// remote stores where every Load costs an API call.
type SheetCache struct {
	lru *LRUCache[core.Sheet]
}

func NewSheetCache(maxSize int, ttl time.Duration) *SheetCache {
	return &SheetCache{lru: NewLRUCache[core.Sheet](maxSize, ttl)}
}

// Wrap returns a store that serves Load from the cache while the entry is
// fresh and writes through on Save.
func (c *SheetCache) Wrap(title string, store sheets.LedgerStore) sheets.LedgerStore {
	return &cachedStore{cache: c, title: title, next: store}
}

// Invalidate drops the cached copy of title.
func (c *SheetCache) Invalidate(title string) {
	c.lru.Delete(title)
}

func (c *SheetCache) Size() int { return c.lru.Size() }

type cachedStore struct {
	cache *SheetCache
	title string
	next  sheets.LedgerStore
}

func (s *cachedStore) Load(ctx context.Context) (core.Sheet, error) {
	if sh, ok := s.cache.lru.Get(s.title); ok {
		return copySheet(sh), nil
	}
	sh, err := s.next.Load(ctx)
	if err != nil {
		return core.Sheet{}, err
	}
	s.cache.lru.Set(s.title, copySheet(sh))
	return sh, nil
}

func (s *cachedStore) Save(ctx context.Context, sh core.Sheet) error {
	if err := s.next.Save(ctx, sh); err != nil {
		s.cache.Invalidate(s.title)
		return err
	}
	s.cache.lru.Set(s.title, copySheet(sh))
	return nil
}

func copySheet(sh core.Sheet) core.Sheet {
	sh.Records = append([]core.Record(nil), sh.Records...)
	return sh
}
