package cache

import (
	"context"
	"sync"
	"time"

	"github.com/erp/wmsconnector/internal/domain/wms"
)

// lease is a held guard key with its expiration
type lease struct {
	expiresAt time.Time
}

// InMemoryPushGuard implements wms.PushGuard using an in-memory map.
// It only serializes pushes within one process.
type InMemoryPushGuard struct {
	mu        sync.Mutex
	leases    map[string]lease
	now       func() time.Time
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryPushGuard creates a new in-memory push guard.
// It starts a background goroutine to drop expired leases.
func NewInMemoryPushGuard() *InMemoryPushGuard {
	g := &InMemoryPushGuard{
		leases:   make(map[string]lease),
		now:      time.Now,
		stopChan: make(chan struct{}),
	}

	g.wg.Add(1)
	go g.cleanupLoop()

	return g
}

// Acquire takes the key for ttl. Returns false when it is held and not expired.
func (g *InMemoryPushGuard) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if l, held := g.leases[key]; held && now.Before(l.expiresAt) {
		return false, nil
	}

	g.leases[key] = lease{expiresAt: now.Add(ttl)}
	return true, nil
}

// Release drops the key
func (g *InMemoryPushGuard) Release(ctx context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.leases, key)
	return nil
}

// Close stops the cleanup goroutine. Safe to call multiple times.
func (g *InMemoryPushGuard) Close() error {
	g.closeOnce.Do(func() {
		close(g.stopChan)
		g.wg.Wait()
	})
	return nil
}

func (g *InMemoryPushGuard) cleanupLoop() {
	defer g.wg.Done()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-g.stopChan:
			return
		case <-ticker.C:
			g.cleanup()
		}
	}
}

func (g *InMemoryPushGuard) cleanup() {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	for key, l := range g.leases {
		if !now.Before(l.expiresAt) {
			delete(g.leases, key)
		}
	}
}

// Size returns the number of held leases (for testing/monitoring)
func (g *InMemoryPushGuard) Size() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.leases)
}

var _ wms.PushGuard = (*InMemoryPushGuard)(nil)
