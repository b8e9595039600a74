package cart

import (
	"context"
	"sync"
	"time"

	"aetheria-backend/internal/promo"
)

type managedCart struct {
	store    *Store
	lastSeen time.Time
}

// Manager hands out one Store per session, rehydrating from persisted state
// on first access and evicting stores that have sat idle past their TTL (the
// persisted items survive eviction; only the in-memory store goes away).
type Manager struct {
	mu    sync.Mutex
	carts map[string]*managedCart

	pricing   Pricing
	persist   *Persistence
	evaluator *promo.Evaluator

	sessionTTL    time.Duration
	cleanupPeriod time.Duration
	ctx           context.Context
	cancel        context.CancelFunc
}

// NewManager starts the manager's background eviction loop. Call Shutdown to
// stop it.
func NewManager(ctx context.Context, pricing Pricing, persist *Persistence, evaluator *promo.Evaluator, sessionTTL, cleanupPeriod time.Duration) *Manager {
	m := &Manager{
		carts:         make(map[string]*managedCart),
		pricing:       pricing,
		persist:       persist,
		evaluator:     evaluator,
		sessionTTL:    sessionTTL,
		cleanupPeriod: cleanupPeriod,
	}
	m.ctx, m.cancel = context.WithCancel(ctx)
	go m.cleanupLoop()
	return m
}

// Cart returns the session's store, creating and rehydrating it on first
// access. The same *Store is returned for the session until it is evicted.
//
// A store is only published into the map fully hydrated. Restoring after
// publication would let a concurrent request mutate the store and then have
// that write wiped by the stale persisted state.
func (m *Manager) Cart(ctx context.Context, sessionID string) *Store {
	m.mu.Lock()
	if mc, ok := m.carts[sessionID]; ok {
		mc.lastSeen = time.Now()
		store := mc.store
		m.mu.Unlock()
		return store
	}
	m.mu.Unlock()

	// Load outside the manager lock so a slow backend stalls only this
	// session, not every session.
	items := m.persist.Load(ctx, sessionID)

	m.mu.Lock()
	defer m.mu.Unlock()
	// Another request may have won the race while we were loading; its store
	// is the canonical one.
	if mc, ok := m.carts[sessionID]; ok {
		mc.lastSeen = time.Now()
		return mc.store
	}
	store := NewStore(sessionID, m.pricing, m.persist, m.evaluator)
	store.restore(items)
	m.carts[sessionID] = &managedCart{store: store, lastSeen: time.Now()}
	return store
}

func (m *Manager) cleanupLoop() {
	ticker := time.NewTicker(m.cleanupPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.cleanup()
		case <-m.ctx.Done():
			return
		}
	}
}

func (m *Manager) cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for sessionID, mc := range m.carts {
		if time.Since(mc.lastSeen) > m.sessionTTL {
			delete(m.carts, sessionID)
		}
	}
}

// Shutdown stops the eviction goroutine.
func (m *Manager) Shutdown() {
	m.cancel()
}
