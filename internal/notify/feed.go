package notify

import (
	"context"
	"sync"

	"github.com/ds124wfegd/lensmaster/internal/entity"
)

const defaultFeedSize = 50

// Feed keeps the most recent orders, newest first, for display.
type Feed struct {
	mu     sync.RWMutex
	orders []entity.Order
	size   int
}

func NewFeed(size int) *Feed {
	if size <= 0 {
		size = defaultFeedSize
	}
	return &Feed{size: size}
}

func (f *Feed) Accept(_ context.Context, order *entity.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.orders = append([]entity.Order{*order}, f.orders...)
	if len(f.orders) > f.size {
		f.orders = f.orders[:f.size]
	}
	return nil
}

// Recent returns copies of up to limit orders, newest first. limit <= 0 means all.
func (f *Feed) Recent(limit int) []entity.Order {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if limit <= 0 || limit > len(f.orders) {
		limit = len(f.orders)
	}
	out := make([]entity.Order, limit)
	copy(out, f.orders[:limit])
	return out
}

func (f *Feed) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.orders)
}
