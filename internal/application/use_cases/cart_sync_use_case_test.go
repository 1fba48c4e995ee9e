package use_cases

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookvine/cart-service/internal/application/ports"
	"github.com/bookvine/cart-service/internal/domain/cart"
	domainErrors "github.com/bookvine/cart-service/internal/domain/errors"
	"github.com/bookvine/cart-service/internal/pkg/logger"
)

type fakeGateway struct {
	mu sync.Mutex

	bulkAppendCalls int
	appended        [][]ports.RemoteLine
	bulkAppendErr   error

	fetchCalls   int
	fetchLines   []ports.RemoteLine
	fetchErr     error
	fetchBarrier chan struct{}

	incrementResult int
	incrementErr    error
	decrementResult int
	decrementErr    error

	deleteCalls int
	deleteErr   error
}

func (g *fakeGateway) FetchCart(ctx context.Context, token string) ([]ports.RemoteLine, error) {
	g.mu.Lock()
	g.fetchCalls++
	barrier := g.fetchBarrier
	lines := g.fetchLines
	err := g.fetchErr
	g.mu.Unlock()

	if barrier != nil {
		<-barrier
	}
	if err != nil {
		return nil, err
	}
	return lines, nil
}

func (g *fakeGateway) BulkAppend(ctx context.Context, token string, lines []ports.RemoteLine) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.bulkAppendCalls++
	g.appended = append(g.appended, lines)
	return g.bulkAppendErr
}

func (g *fakeGateway) IncrementQuantity(ctx context.Context, token, productID, size string) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.incrementResult, g.incrementErr
}

func (g *fakeGateway) DecrementQuantity(ctx context.Context, token, productID, size string) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.decrementResult, g.decrementErr
}

func (g *fakeGateway) DeleteLine(ctx context.Context, token, productID, size string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.deleteCalls++
	return g.deleteErr
}

func (g *fakeGateway) stats() (bulkAppends, fetches, deletes int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.bulkAppendCalls, g.fetchCalls, g.deleteCalls
}

type fakeCatalog struct {
	products map[string]*ports.ProductSnapshot
}

func (c *fakeCatalog) GetProduct(ctx context.Context, productID string) (*ports.ProductSnapshot, error) {
	snapshot, found := c.products[productID]
	if !found {
		return nil, domainErrors.ErrProductNotFound
	}
	return snapshot, nil
}

func newTestCatalog() *fakeCatalog {
	return &fakeCatalog{products: map[string]*ports.ProductSnapshot{
		"book-1": {
			ProductID:         "book-1",
			UnitPrice:         decimal.RequireFromString("20"),
			AvailableQuantity: 10,
		},
		"book-2": {
			ProductID:         "book-2",
			UnitPrice:         decimal.RequireFromString("35"),
			AvailableQuantity: 4,
		},
		"book-gone": {
			ProductID:         "book-gone",
			UnitPrice:         decimal.RequireFromString("9"),
			AvailableQuantity: 0,
		},
	}}
}

func newTestSync(gateway *fakeGateway) *CartSyncUseCase {
	return NewCartSyncUseCase(
		cart.NewStore(false),
		gateway,
		newTestCatalog(),
		logger.NewNopLogger(),
		time.Second,
	)
}

func key(productID string) cart.LineKey {
	return cart.LineKey{ProductID: productID}
}

func TestGuestMutationsStayLocal(t *testing.T) {
	gateway := &fakeGateway{}
	uc := newTestSync(gateway)
	ctx := context.Background()

	require.NoError(t, uc.AddItem(ctx, "book-1", "", 2))
	require.NoError(t, uc.Increment(ctx, key("book-1")))
	require.NoError(t, uc.Decrement(ctx, key("book-1")))
	require.NoError(t, uc.RemoveLine(ctx, key("book-1")))
	uc.Wait()

	bulkAppends, fetches, deletes := gateway.stats()
	assert.Equal(t, 0, bulkAppends)
	assert.Equal(t, 0, fetches)
	assert.Equal(t, 0, deletes)
	assert.Equal(t, StateGuest, uc.State())
}

func TestAddItemRejectsUnknownAndOutOfStock(t *testing.T) {
	uc := newTestSync(&fakeGateway{})
	ctx := context.Background()

	err := uc.AddItem(ctx, "no-such-book", "", 1)
	assert.ErrorIs(t, err, domainErrors.ErrProductNotFound)

	err = uc.AddItem(ctx, "book-gone", "", 1)
	assert.ErrorIs(t, err, domainErrors.ErrOutOfStock)

	assert.Empty(t, uc.Lines())
}

func TestGuestAddClampsToStock(t *testing.T) {
	uc := newTestSync(&fakeGateway{})
	ctx := context.Background()

	require.NoError(t, uc.AddItem(ctx, "book-2", "", 99))

	lines := uc.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 4, lines[0].Quantity)

	notices := uc.DrainNotices()
	require.Len(t, notices, 1)
	assert.Equal(t, "info", notices[0].Level)
}

func TestLoginMergesGuestCartOnce(t *testing.T) {
	gateway := &fakeGateway{}
	uc := newTestSync(gateway)
	ctx := context.Background()

	require.NoError(t, uc.AddItem(ctx, "book-1", "", 2))
	require.NoError(t, uc.Login(ctx, "token-1"))
	uc.Wait()

	// A re-fired login event must not double-submit.
	err := uc.Login(ctx, "token-1")
	assert.ErrorIs(t, err, domainErrors.ErrAlreadyAuthenticated)
	uc.Wait()

	bulkAppends, _, _ := gateway.stats()
	assert.Equal(t, 1, bulkAppends)
	assert.Equal(t, StateAuthenticatedSynced, uc.State())

	require.Len(t, gateway.appended, 1)
	require.Len(t, gateway.appended[0], 1)
	assert.Equal(t, "book-1", gateway.appended[0][0].ProductID)
	assert.Equal(t, 2, gateway.appended[0][0].Quantity)
}

func TestLoginFetchIsAdditive(t *testing.T) {
	gateway := &fakeGateway{
		fetchLines: []ports.RemoteLine{
			{ProductID: "book-2", Size: "", Quantity: 1},
		},
	}
	uc := newTestSync(gateway)
	ctx := context.Background()

	require.NoError(t, uc.AddItem(ctx, "book-1", "", 2))
	require.NoError(t, uc.Login(ctx, "token-1"))
	uc.Wait()

	// The just-merged guest line survives next to the fetched one.
	lines := uc.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, "book-1", lines[0].ProductID)
	assert.Equal(t, "book-2", lines[1].ProductID)
}

func TestFailedFetchIsRetriedOnNextRead(t *testing.T) {
	gateway := &fakeGateway{
		fetchErr: errors.New("boom"),
		fetchLines: []ports.RemoteLine{
			{ProductID: "book-2", Quantity: 3},
		},
	}
	uc := newTestSync(gateway)
	ctx := context.Background()

	require.NoError(t, uc.Login(ctx, "token-1"))
	uc.Wait()
	assert.Equal(t, StateAuthenticatedUnsynced, uc.State())

	notices := uc.DrainNotices()
	require.Len(t, notices, 1)
	assert.Equal(t, "warning", notices[0].Level)

	// The gateway recovers; the next cart read completes the sync.
	gateway.mu.Lock()
	gateway.fetchErr = nil
	gateway.mu.Unlock()

	uc.EnsureSynced(ctx)
	assert.Equal(t, StateAuthenticatedSynced, uc.State())
	require.Len(t, uc.Lines(), 1)
	assert.Equal(t, 3, uc.Lines()[0].Quantity)

	// Synced is sticky: further reads do not refetch.
	uc.EnsureSynced(ctx)
	_, fetches, _ := gateway.stats()
	assert.Equal(t, 2, fetches)
}

func TestIncrementReconciliationOverwritesOptimisticValue(t *testing.T) {
	gateway := &fakeGateway{incrementResult: 7}
	uc := newTestSync(gateway)
	ctx := context.Background()

	require.NoError(t, uc.Login(ctx, "token-1"))
	uc.Wait()
	require.NoError(t, uc.AddItem(ctx, "book-1", "", 2))

	require.NoError(t, uc.Increment(ctx, key("book-1")))
	uc.Wait()

	// The server's authoritative quantity wins over the optimistic +1.
	line, found := uc.store.Get(key("book-1"))
	require.True(t, found)
	assert.Equal(t, 7, line.Quantity)
}

func TestIncrementFailureKeepsOptimisticValueAndMarksDrift(t *testing.T) {
	gateway := &fakeGateway{incrementErr: errors.New("network down")}
	uc := newTestSync(gateway)
	ctx := context.Background()

	require.NoError(t, uc.Login(ctx, "token-1"))
	uc.Wait()
	require.NoError(t, uc.AddItem(ctx, "book-1", "", 2))

	require.NoError(t, uc.Increment(ctx, key("book-1")))
	uc.Wait()

	line, _ := uc.store.Get(key("book-1"))
	assert.Equal(t, 3, line.Quantity)
	assert.True(t, uc.HasDrift())

	notices := uc.DrainNotices()
	require.NotEmpty(t, notices)
	assert.Equal(t, "warning", notices[len(notices)-1].Level)
}

func TestDecrementRefusesAtMinimum(t *testing.T) {
	gateway := &fakeGateway{}
	uc := newTestSync(gateway)
	ctx := context.Background()

	require.NoError(t, uc.AddItem(ctx, "book-1", "", 1))

	err := uc.Decrement(ctx, key("book-1"))
	assert.ErrorIs(t, err, domainErrors.ErrQuantityAtMinimum)

	line, _ := uc.store.Get(key("book-1"))
	assert.Equal(t, 1, line.Quantity)
}

func TestRemoveTreatsNotFoundAsSuccess(t *testing.T) {
	gateway := &fakeGateway{deleteErr: domainErrors.ErrLineNotFound}
	uc := newTestSync(gateway)
	ctx := context.Background()

	require.NoError(t, uc.Login(ctx, "token-1"))
	uc.Wait()
	require.NoError(t, uc.AddItem(ctx, "book-1", "", 1))

	require.NoError(t, uc.RemoveLine(ctx, key("book-1")))
	uc.Wait()

	assert.Empty(t, uc.Lines())
	assert.False(t, uc.HasDrift())
	assert.Empty(t, uc.DrainNotices())
}

func TestRemoveFailureKeepsLocalRemoval(t *testing.T) {
	gateway := &fakeGateway{deleteErr: errors.New("boom")}
	uc := newTestSync(gateway)
	ctx := context.Background()

	require.NoError(t, uc.Login(ctx, "token-1"))
	uc.Wait()
	require.NoError(t, uc.AddItem(ctx, "book-1", "", 1))

	require.NoError(t, uc.RemoveLine(ctx, key("book-1")))
	uc.Wait()

	// No rollback: the line stays gone locally until background
	// reconciliation surfaces server truth.
	assert.Empty(t, uc.Lines())
	assert.True(t, uc.HasDrift())
}

func TestRemoveMissingLine(t *testing.T) {
	uc := newTestSync(&fakeGateway{})

	err := uc.RemoveLine(context.Background(), key("ghost"))
	assert.ErrorIs(t, err, domainErrors.ErrLineNotFound)
}

func TestStaleReconciliationIsDiscarded(t *testing.T) {
	gateway := &fakeGateway{}
	uc := newTestSync(gateway)
	ctx := context.Background()

	require.NoError(t, uc.Login(ctx, "token-1"))
	uc.Wait()
	require.NoError(t, uc.AddItem(ctx, "book-1", "", 2))
	uc.Wait()

	k := key("book-1")
	uc.mu.Lock()
	first := uc.issueSeqLocked(k)
	second := uc.issueSeqLocked(k)
	uc.mu.Unlock()

	// The later mutation's response lands first; the slow earlier one
	// must not overwrite it.
	uc.applyReconciliation(k, second, 1)
	uc.applyReconciliation(k, first, 9)

	line, _ := uc.store.Get(k)
	assert.Equal(t, 1, line.Quantity)
}

func TestLogoutResetsSessionState(t *testing.T) {
	gateway := &fakeGateway{}
	uc := newTestSync(gateway)
	ctx := context.Background()

	require.NoError(t, uc.AddItem(ctx, "book-1", "", 2))
	require.NoError(t, uc.Login(ctx, "token-1"))
	uc.Wait()

	require.NoError(t, uc.Logout())

	assert.Equal(t, StateGuest, uc.State())
	assert.Empty(t, uc.Lines())
	assert.True(t, uc.Snapshot().Subtotal.IsZero())

	// A fresh login merges again: the guards were reset.
	require.NoError(t, uc.AddItem(ctx, "book-2", "", 1))
	require.NoError(t, uc.Login(ctx, "token-2"))
	uc.Wait()

	bulkAppends, _, _ := gateway.stats()
	assert.Equal(t, 2, bulkAppends)
}

func TestLogoutRequiresAuthentication(t *testing.T) {
	uc := newTestSync(&fakeGateway{})

	err := uc.Logout()
	assert.ErrorIs(t, err, domainErrors.ErrNotAuthenticated)
}

func TestConcurrentReadsFetchServerCartOnce(t *testing.T) {
	gateway := &fakeGateway{fetchErr: errors.New("boom")}
	uc := newTestSync(gateway)
	ctx := context.Background()

	require.NoError(t, uc.Login(ctx, "token-1"))
	uc.Wait()
	require.Equal(t, StateAuthenticatedUnsynced, uc.State())
	uc.DrainNotices()

	barrier := make(chan struct{})
	gateway.mu.Lock()
	gateway.fetchErr = nil
	gateway.fetchLines = []ports.RemoteLine{{ProductID: "book-1", Quantity: 3}}
	gateway.fetchBarrier = barrier
	gateway.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		uc.EnsureSynced(ctx)
	}()
	require.Eventually(t, func() bool {
		_, fetches, _ := gateway.stats()
		return fetches == 2
	}, time.Second, 5*time.Millisecond)

	// A second reader arrives while the fetch is in flight; it must
	// return without fetching, or the server lines get appended twice.
	uc.EnsureSynced(ctx)
	_, fetches, _ := gateway.stats()
	assert.Equal(t, 2, fetches)

	close(barrier)
	<-done

	assert.Equal(t, StateAuthenticatedSynced, uc.State())
	lines := uc.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 3, lines[0].Quantity)
}

func TestReconciliationRacesSettleOnNewestResponse(t *testing.T) {
	gateway := &fakeGateway{}
	uc := newTestSync(gateway)
	ctx := context.Background()

	require.NoError(t, uc.Login(ctx, "token-1"))
	uc.Wait()
	require.NoError(t, uc.AddItem(ctx, "book-1", "", 2))
	uc.Wait()
	k := key("book-1")

	// Whichever response lands first, the line must settle on the
	// newer mutation's quantity.
	for i := 0; i < 200; i++ {
		uc.mu.Lock()
		first := uc.issueSeqLocked(k)
		second := uc.issueSeqLocked(k)
		uc.mu.Unlock()

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			uc.applyReconciliation(k, first, 9)
		}()
		go func() {
			defer wg.Done()
			uc.applyReconciliation(k, second, 4)
		}()
		wg.Wait()

		line, _ := uc.store.Get(k)
		require.Equal(t, 4, line.Quantity)
	}
}

func TestAuthenticatedAddSendsClampedQuantity(t *testing.T) {
	gateway := &fakeGateway{}
	uc := newTestSync(gateway)
	ctx := context.Background()

	require.NoError(t, uc.Login(ctx, "token-1"))
	uc.Wait()
	require.NoError(t, uc.AddItem(ctx, "book-2", "", 99))
	uc.Wait()

	require.Len(t, gateway.appended, 1)
	assert.Equal(t, 4, gateway.appended[0][0].Quantity)

	// Adding to a line already at the ceiling changes nothing locally
	// and must not append anything remotely either.
	require.NoError(t, uc.AddItem(ctx, "book-2", "", 5))
	uc.Wait()
	bulkAppends, _, _ := gateway.stats()
	assert.Equal(t, 1, bulkAppends)
}

func TestReconcileDriftRepairsQuantities(t *testing.T) {
	gateway := &fakeGateway{incrementErr: errors.New("network down")}
	uc := newTestSync(gateway)
	ctx := context.Background()

	require.NoError(t, uc.Login(ctx, "token-1"))
	uc.Wait()
	require.NoError(t, uc.AddItem(ctx, "book-1", "", 2))
	require.NoError(t, uc.Increment(ctx, key("book-1")))
	uc.Wait()
	require.True(t, uc.HasDrift())

	gateway.mu.Lock()
	gateway.fetchLines = []ports.RemoteLine{{ProductID: "book-1", Quantity: 2}}
	gateway.mu.Unlock()

	uc.ReconcileDrift(ctx)

	line, _ := uc.store.Get(key("book-1"))
	assert.Equal(t, 2, line.Quantity)
	assert.False(t, uc.HasDrift())
}

func TestReconcileDriftRemovesLinesGoneFromServer(t *testing.T) {
	gateway := &fakeGateway{incrementErr: errors.New("network down")}
	uc := newTestSync(gateway)
	ctx := context.Background()

	require.NoError(t, uc.Login(ctx, "token-1"))
	uc.Wait()
	require.NoError(t, uc.AddItem(ctx, "book-1", "", 2))
	require.NoError(t, uc.Increment(ctx, key("book-1")))
	uc.Wait()
	require.True(t, uc.HasDrift())

	// Server no longer has the line at all.
	uc.ReconcileDrift(ctx)

	assert.Empty(t, uc.Lines())
	assert.False(t, uc.HasDrift())
}

func TestAuthenticatedAddAppendsRemotely(t *testing.T) {
	gateway := &fakeGateway{}
	uc := newTestSync(gateway)
	ctx := context.Background()

	require.NoError(t, uc.Login(ctx, "token-1"))
	uc.Wait()
	require.NoError(t, uc.AddItem(ctx, "book-1", "", 2))
	uc.Wait()

	// The empty-cart merge skips its call, so only the add's append fires.
	bulkAppends, _, _ := gateway.stats()
	assert.Equal(t, 1, bulkAppends)
	require.Len(t, gateway.appended, 1)
	assert.Equal(t, "book-1", gateway.appended[0][0].ProductID)
}
