// internal/transfer/guard.go
package transfer

import (
	"context"
	"sync"
)

// guard serializes operations per endpoint.
// Each endpoint owns a single-slot semaphore, created on first use.
type guard struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

func newGuard() *guard {
	return &guard{slots: make(map[string]chan struct{})}
}

func (g *guard) slot(key string) chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()

	ch, ok := g.slots[key]
	if !ok {
		ch = make(chan struct{}, 1)
		g.slots[key] = ch
	}
	return ch
}

// acquire blocks until key is free or ctx is done.
// The returned release must be called exactly once.
func (g *guard) acquire(ctx context.Context, key string) (func(), error) {
	ch := g.slot(key)

	select {
	case ch <- struct{}{}:
		return func() { <-ch }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
