package use_cases

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookvine/cart-service/internal/domain/cart"
	domainErrors "github.com/bookvine/cart-service/internal/domain/errors"
	"github.com/bookvine/cart-service/internal/pkg/clock"
	"github.com/bookvine/cart-service/internal/pkg/logger"
)

func newTestRegistry(clk clock.Clock, ttl time.Duration) *SessionRegistry {
	factory := func() *CartSyncUseCase {
		return NewCartSyncUseCase(
			cart.NewStore(false),
			&fakeGateway{},
			newTestCatalog(),
			logger.NewNopLogger(),
			time.Second,
		)
	}
	return NewSessionRegistry(factory, clk, ttl, logger.NewNopLogger())
}

func TestRegistryCreateAndGet(t *testing.T) {
	clk := clock.NewMockClock(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	registry := newTestRegistry(clk, 30*time.Minute)

	id, created := registry.Create()
	require.NotEmpty(t, id)
	assert.Equal(t, StateGuest, created.State())

	got, err := registry.Get(id)
	require.NoError(t, err)
	assert.Same(t, created, got)
	assert.Equal(t, 1, registry.Len())
}

func TestRegistryGetUnknownSession(t *testing.T) {
	clk := clock.NewMockClock(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	registry := newTestRegistry(clk, 30*time.Minute)

	_, err := registry.Get("missing")
	assert.ErrorIs(t, err, domainErrors.ErrSessionNotFound)
}

func TestRegistryExpiresIdleSessionOnAccess(t *testing.T) {
	clk := clock.NewMockClock(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	registry := newTestRegistry(clk, 30*time.Minute)

	id, _ := registry.Create()
	clk.Advance(31 * time.Minute)

	_, err := registry.Get(id)
	assert.ErrorIs(t, err, domainErrors.ErrSessionExpired)

	// Evicted for good: a second access reports not-found.
	_, err = registry.Get(id)
	assert.ErrorIs(t, err, domainErrors.ErrSessionNotFound)
}

func TestRegistryGetRefreshesIdleTimer(t *testing.T) {
	clk := clock.NewMockClock(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	registry := newTestRegistry(clk, 30*time.Minute)

	id, _ := registry.Create()

	// Touch the session every 20 minutes; it never goes idle.
	for i := 0; i < 3; i++ {
		clk.Advance(20 * time.Minute)
		_, err := registry.Get(id)
		require.NoError(t, err)
	}
}

func TestRegistryEvictIdle(t *testing.T) {
	clk := clock.NewMockClock(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	registry := newTestRegistry(clk, 30*time.Minute)

	stale, _ := registry.Create()
	clk.Advance(20 * time.Minute)
	fresh, _ := registry.Create()
	clk.Advance(15 * time.Minute)

	evicted := registry.EvictIdle()

	assert.Equal(t, 1, evicted)
	assert.Equal(t, 1, registry.Len())

	_, err := registry.Get(stale)
	assert.ErrorIs(t, err, domainErrors.ErrSessionNotFound)
	_, err = registry.Get(fresh)
	assert.NoError(t, err)
}

func TestRegistryRemove(t *testing.T) {
	clk := clock.NewMockClock(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	registry := newTestRegistry(clk, 30*time.Minute)

	id, _ := registry.Create()
	registry.Remove(id)

	assert.Equal(t, 0, registry.Len())
	_, err := registry.Get(id)
	assert.ErrorIs(t, err, domainErrors.ErrSessionNotFound)
}

func TestRegistryForEachVisitsEverySession(t *testing.T) {
	clk := clock.NewMockClock(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	registry := newTestRegistry(clk, 30*time.Minute)

	first, _ := registry.Create()
	second, _ := registry.Create()

	seen := map[string]bool{}
	registry.ForEach(func(id string, sync *CartSyncUseCase) {
		seen[id] = true
	})

	assert.True(t, seen[first])
	assert.True(t, seen[second])
	assert.Len(t, seen, 2)
}
