package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"shopcms/internal/catalog"
)

// Memory keeps items in process memory. It backs DB_DRIVER=memory and the
// tests.
type Memory struct {
	mu    sync.RWMutex
	seq   int64
	items map[catalog.Kind]map[string]memoryEntry
	now   func() time.Time
}

type memoryEntry struct {
	item *catalog.Item
	seq  int64
}

func NewMemory() *Memory {
	return &Memory{
		items: make(map[catalog.Kind]map[string]memoryEntry),
		now:   time.Now,
	}
}

// WithClock replaces the time source used for timestamps.
func (m *Memory) WithClock(now func() time.Time) *Memory {
	m.now = now
	return m
}

var _ catalog.Repository = (*Memory)(nil)

func (m *Memory) Insert(ctx context.Context, item *catalog.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now().UTC()
	item.ID = uuid.NewString()
	item.CreatedAt = now
	item.UpdatedAt = now
	if item.Media == nil {
		item.Media = map[string][]string{}
	}

	m.seq++
	bucket, ok := m.items[item.Kind]
	if !ok {
		bucket = make(map[string]memoryEntry)
		m.items[item.Kind] = bucket
	}
	bucket[item.ID] = memoryEntry{item: item.Clone(), seq: m.seq}
	return nil
}

func (m *Memory) FindByID(ctx context.Context, kind catalog.Kind, id string) (*catalog.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.items[kind][id]
	if !ok {
		return nil, &catalog.NotFoundError{Kind: kind, ID: id}
	}
	return e.item.Clone(), nil
}

func (m *Memory) FindAll(ctx context.Context, kind catalog.Kind, page catalog.Page) ([]*catalog.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return window(m.sorted(kind, nil), page), nil
}

func (m *Memory) FindRecent(ctx context.Context, kind catalog.Kind, limit int) ([]*catalog.Item, error) {
	if limit <= 0 {
		return []*catalog.Item{}, nil
	}
	return m.FindAll(ctx, kind, catalog.Page{Limit: limit})
}

func (m *Memory) Search(ctx context.Context, kind catalog.Kind, field, text string) ([]*catalog.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	needle := strings.ToLower(text)
	return m.sorted(kind, func(it *catalog.Item) bool {
		v, ok := it.Fields[field].(string)
		return ok && strings.Contains(strings.ToLower(v), needle)
	}), nil
}

func (m *Memory) Update(ctx context.Context, kind catalog.Kind, id string, mutate func(*catalog.Item) error) (*catalog.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.items[kind][id]
	if !ok {
		return nil, &catalog.NotFoundError{Kind: kind, ID: id}
	}

	next := e.item.Clone()
	if err := mutate(next); err != nil {
		return nil, err
	}
	next.ID = e.item.ID
	next.Kind = kind
	next.CreatedAt = e.item.CreatedAt
	next.UpdatedAt = m.now().UTC()

	m.items[kind][id] = memoryEntry{item: next, seq: e.seq}
	return next.Clone(), nil
}

func (m *Memory) Delete(ctx context.Context, kind catalog.Kind, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.items[kind][id]; !ok {
		return &catalog.NotFoundError{Kind: kind, ID: id}
	}
	delete(m.items[kind], id)
	return nil
}

func (m *Memory) Count(ctx context.Context, kind catalog.Kind) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items[kind]), nil
}

// sorted returns clones of the matching items, newest first. Callers hold the lock.
func (m *Memory) sorted(kind catalog.Kind, keep func(*catalog.Item) bool) []*catalog.Item {
	entries := make([]memoryEntry, 0, len(m.items[kind]))
	for _, e := range m.items[kind] {
		if keep == nil || keep(e.item) {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.item.CreatedAt.Equal(b.item.CreatedAt) {
			return a.item.CreatedAt.After(b.item.CreatedAt)
		}
		return a.seq > b.seq
	})

	out := make([]*catalog.Item, len(entries))
	for i, e := range entries {
		out[i] = e.item.Clone()
	}
	return out
}

func window(items []*catalog.Item, page catalog.Page) []*catalog.Item {
	if page.Offset > 0 {
		if page.Offset >= len(items) {
			return []*catalog.Item{}
		}
		items = items[page.Offset:]
	}
	if page.Limit > 0 && page.Limit < len(items) {
		items = items[:page.Limit]
	}
	return items
}
