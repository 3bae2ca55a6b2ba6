package inbox

import (
	"context"
	"slices"
	"sync"
	"time"
)

// Storage persists inbox items per recipient.
type Storage interface {
	Create(ctx context.Context, item Item) error
	Get(ctx context.Context, recipient, id string) (*Item, error)
	List(ctx context.Context, recipient string, opts ListOptions) ([]Item, error)
	MarkRead(ctx context.Context, recipient string, ids ...string) error
	Delete(ctx context.Context, recipient string, ids ...string) error
	CountUnread(ctx context.Context, recipient string) (int, error)
}

// ListOptions filters and pages List results. Items are returned newest
// first; expired items are never returned.
type ListOptions struct {
	Limit      int
	Offset     int
	OnlyUnread bool
	Types      []Type
	Since      *time.Time
}

func (o ListOptions) match(i Item, now time.Time) bool {
	switch {
	case i.IsExpired(now):
		return false
	case o.OnlyUnread && i.Read:
		return false
	case len(o.Types) > 0 && !slices.Contains(o.Types, i.Type):
		return false
	case o.Since != nil && !i.CreatedAt.After(*o.Since):
		return false
	}
	return true
}

// MemoryStorage keeps items in process memory.
type MemoryStorage struct {
	mu    sync.RWMutex
	items map[string][]Item
	now   func() time.Time
}

var _ Storage = (*MemoryStorage)(nil)

// NewMemoryStorage creates an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{items: make(map[string][]Item), now: time.Now}
}

func (s *MemoryStorage) Create(_ context.Context, item Item) error {
	if item.ID == "" {
		return ErrIDRequired
	}
	if item.Recipient == "" {
		return ErrRecipientRequired
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = s.now()
	}

	s.mu.Lock()
	s.items[item.Recipient] = append(s.items[item.Recipient], item)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStorage) Get(_ context.Context, recipient, id string) (*Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, i := range s.items[recipient] {
		if i.ID == id {
			return &i, nil
		}
	}
	return nil, ErrItemNotFound
}

func (s *MemoryStorage) List(_ context.Context, recipient string, opts ListOptions) ([]Item, error) {
	now := s.now()

	s.mu.RLock()
	var out []Item
	for _, i := range s.items[recipient] {
		if opts.match(i, now) {
			out = append(out, i)
		}
	}
	s.mu.RUnlock()

	slices.SortStableFunc(out, func(a, b Item) int { return b.CreatedAt.Compare(a.CreatedAt) })

	if opts.Offset > 0 {
		if opts.Offset >= len(out) {
			return []Item{}, nil
		}
		out = out[opts.Offset:]
	}
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	if out == nil {
		out = []Item{}
	}
	return out, nil
}

func (s *MemoryStorage) MarkRead(_ context.Context, recipient string, ids ...string) error {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.items[recipient]
	for idx := range items {
		if !items[idx].Read && slices.Contains(ids, items[idx].ID) {
			items[idx].MarkAsRead(now)
		}
	}
	return nil
}

func (s *MemoryStorage) Delete(_ context.Context, recipient string, ids ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.items[recipient][:0:0]
	for _, i := range s.items[recipient] {
		if !slices.Contains(ids, i.ID) {
			kept = append(kept, i)
		}
	}
	if len(kept) == 0 {
		delete(s.items, recipient)
		return nil
	}
	s.items[recipient] = kept
	return nil
}

func (s *MemoryStorage) CountUnread(_ context.Context, recipient string) (int, error) {
	now := s.now()

	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, i := range s.items[recipient] {
		if !i.Read && !i.IsExpired(now) {
			n++
		}
	}
	return n, nil
}
