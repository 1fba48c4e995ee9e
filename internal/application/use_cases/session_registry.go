package use_cases

import (
	"sync"
	"time"

	"github.com/google/uuid"

	domainErrors "github.com/bookvine/cart-service/internal/domain/errors"
	"github.com/bookvine/cart-service/internal/infrastructure/monitoring"
	"github.com/bookvine/cart-service/internal/pkg/clock"
	"github.com/bookvine/cart-service/internal/pkg/logger"
)

// SessionRegistry owns one synchronizer per browser session. Sessions
// are identified by an opaque UUID issued at creation and evicted
// after the idle TTL; guest carts die with their session by design.
type SessionRegistry struct {
	mu       sync.Mutex
	sessions map[string]*sessionEntry

	factory func() *CartSyncUseCase
	clock   clock.Clock
	ttl     time.Duration
	log     *logger.Logger
}

type sessionEntry struct {
	sync     *CartSyncUseCase
	lastSeen time.Time
}

func NewSessionRegistry(
	factory func() *CartSyncUseCase,
	clk clock.Clock,
	ttl time.Duration,
	log *logger.Logger,
) *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[string]*sessionEntry),
		factory:  factory,
		clock:    clk,
		ttl:      ttl,
		log:      log,
	}
}

// Create starts a fresh guest session and returns its ID.
func (r *SessionRegistry) Create() (string, *CartSyncUseCase) {
	id := uuid.NewString()
	entry := &sessionEntry{
		sync:     r.factory(),
		lastSeen: r.clock.Now(),
	}

	r.mu.Lock()
	r.sessions[id] = entry
	monitoring.SetActiveSessions(len(r.sessions))
	r.mu.Unlock()

	r.log.Info("Session created", "session_id", id)
	return id, entry.sync
}

// Get resolves a session ID and refreshes its idle timer. An expired
// session is evicted on access.
func (r *SessionRegistry) Get(id string) (*CartSyncUseCase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, found := r.sessions[id]
	if !found {
		return nil, domainErrors.ErrSessionNotFound
	}

	now := r.clock.Now()
	if now.Sub(entry.lastSeen) > r.ttl {
		delete(r.sessions, id)
		monitoring.SetActiveSessions(len(r.sessions))
		return nil, domainErrors.ErrSessionExpired
	}

	entry.lastSeen = now
	return entry.sync, nil
}

// Remove drops a session outright.
func (r *SessionRegistry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	monitoring.SetActiveSessions(len(r.sessions))
}

// EvictIdle removes sessions idle past the TTL and returns how many
// were dropped.
func (r *SessionRegistry) EvictIdle() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()
	evicted := 0
	for id, entry := range r.sessions {
		if now.Sub(entry.lastSeen) > r.ttl {
			delete(r.sessions, id)
			evicted++
		}
	}
	if evicted > 0 {
		monitoring.SetActiveSessions(len(r.sessions))
		r.log.Info("Evicted idle sessions", "count", evicted)
	}
	return evicted
}

// ForEach visits every live session. The callback runs outside the
// registry lock.
func (r *SessionRegistry) ForEach(fn func(id string, sync *CartSyncUseCase)) {
	r.mu.Lock()
	snapshot := make(map[string]*CartSyncUseCase, len(r.sessions))
	for id, entry := range r.sessions {
		snapshot[id] = entry.sync
	}
	r.mu.Unlock()

	for id, s := range snapshot {
		fn(id, s)
	}
}

func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
