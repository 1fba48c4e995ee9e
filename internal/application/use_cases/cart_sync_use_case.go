package use_cases

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bookvine/cart-service/internal/application/ports"
	"github.com/bookvine/cart-service/internal/domain/cart"
	domainErrors "github.com/bookvine/cart-service/internal/domain/errors"
	"github.com/bookvine/cart-service/internal/infrastructure/monitoring"
	"github.com/bookvine/cart-service/internal/pkg/logger"
)

// SessionState is the synchronizer's position in the guest/
// authenticated lifecycle.
type SessionState string

const (
	StateGuest                 SessionState = "guest"
	StateAuthenticating        SessionState = "authenticating"
	StateAuthenticatedUnsynced SessionState = "authenticated_unsynced"
	StateAuthenticatedSynced   SessionState = "authenticated_synced"
)

// SyncState carries the two idempotency guards for the login-time
// transition. MergedOnLogin is set immediately before the bulk-append
// fires so a duplicate login event cannot double-submit the guest
// cart; ServerCartFetched is only set after a successful fetch so a
// failed fetch is retried on the next cart read.
type SyncState struct {
	MergedOnLogin     bool
	ServerCartFetched bool
}

// Notice is a non-fatal, user-facing message (stock clamp hit, remote
// call failed). Notices queue up per session and are drained into the
// next cart read.
type Notice struct {
	Level   string    `json:"level"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// CartSyncUseCase keeps one session's cart consistent across guest
// use, login-time merge, and authenticated server-backed mutation.
//
// Mutations apply optimistically to the local store, then reconcile
// with the server's authoritative response. Each line carries a
// monotonically increasing mutation sequence; a reconciliation
// response older than the last applied one for that line is discarded,
// so a slow increment can never overwrite a later decrement that
// resolved first.
type CartSyncUseCase struct {
	mu sync.Mutex

	state         SessionState
	syncState     SyncState
	token         string
	fetchInFlight bool

	store   *cart.Store
	gateway ports.CartGateway
	catalog ports.CatalogGateway
	log     *logger.Logger

	nextSeq    map[cart.LineKey]uint64
	appliedSeq map[cart.LineKey]uint64
	drifted    map[cart.LineKey]struct{}
	notices    []Notice

	remoteTimeout time.Duration
	inFlight      sync.WaitGroup
}

func NewCartSyncUseCase(
	store *cart.Store,
	gateway ports.CartGateway,
	catalog ports.CatalogGateway,
	log *logger.Logger,
	remoteTimeout time.Duration,
) *CartSyncUseCase {
	return &CartSyncUseCase{
		state:         StateGuest,
		store:         store,
		gateway:       gateway,
		catalog:       catalog,
		log:           log,
		nextSeq:       make(map[cart.LineKey]uint64),
		appliedSeq:    make(map[cart.LineKey]uint64),
		drifted:       make(map[cart.LineKey]struct{}),
		remoteTimeout: remoteTimeout,
	}
}

func (uc *CartSyncUseCase) State() SessionState {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.state
}

func (uc *CartSyncUseCase) Lines() []*cart.Line {
	return uc.store.Lines()
}

func (uc *CartSyncUseCase) Snapshot() cart.Snapshot {
	return uc.store.Snapshot()
}

// DrainNotices returns queued notices and empties the queue.
func (uc *CartSyncUseCase) DrainNotices() []Notice {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	out := uc.notices
	uc.notices = nil
	return out
}

// Wait blocks until all in-flight remote calls have reconciled. Used
// by tests and by graceful shutdown.
func (uc *CartSyncUseCase) Wait() {
	uc.inFlight.Wait()
}

// AddItem looks up the product's catalog snapshot, adds (or merges)
// the line locally, and, when authenticated, appends it to the server
// cart. The append carries the quantity the clamp let through, never
// the requested one, so the server cart cannot outgrow the local view.
// The remote append is fire-and-forget: its failure leaves the
// optimistic line in place and queues a notice.
func (uc *CartSyncUseCase) AddItem(ctx context.Context, productID, size string, quantity int) error {
	if quantity < 1 {
		return domainErrors.ErrInvalidQuantity
	}

	snapshot, err := uc.catalog.GetProduct(ctx, productID)
	if err != nil {
		return err
	}
	if snapshot.AvailableQuantity < 1 {
		return domainErrors.ErrOutOfStock
	}

	line := cart.Line{
		ProductID:         productID,
		Size:              size,
		Quantity:          quantity,
		UnitPrice:         snapshot.UnitPrice,
		AvailableQuantity: snapshot.AvailableQuantity,
		Promotions:        snapshot.Promotions,
	}

	added, clamped := uc.store.Add(line)
	monitoring.RecordCartMutation("add")
	if clamped {
		uc.noteClamp(productID, size)
	}

	uc.mu.Lock()
	authenticated := uc.isAuthenticatedLocked()
	token := uc.token
	uc.mu.Unlock()
	if !authenticated || added < 1 {
		return nil
	}

	key := line.Key()
	uc.goRemote(func(rctx context.Context) {
		appendErr := uc.gateway.BulkAppend(rctx, token, []ports.RemoteLine{{
			ProductID: productID,
			Size:      size,
			Quantity:  added,
		}})
		if appendErr != nil {
			uc.remoteFailure(key, "add to cart did not reach the server", appendErr)
		}
	})

	return nil
}

// Increment applies an optimistic +1 and, when authenticated,
// overwrites the local quantity with the server's authoritative
// result. A network failure keeps the optimistic value and marks the
// line drifted for background repair.
func (uc *CartSyncUseCase) Increment(ctx context.Context, key cart.LineKey) error {
	line, found := uc.store.Get(key)
	if !found {
		return domainErrors.ErrLineNotFound
	}

	clamped, _ := uc.store.SetQuantity(key, line.Quantity+1)
	monitoring.RecordCartMutation("increment")
	if clamped {
		uc.noteClamp(key.ProductID, key.Size)
	}

	uc.mu.Lock()
	if !uc.isAuthenticatedLocked() {
		uc.mu.Unlock()
		return nil
	}
	token := uc.token
	seq := uc.issueSeqLocked(key)
	uc.mu.Unlock()

	uc.goRemote(func(rctx context.Context) {
		qty, incErr := uc.gateway.IncrementQuantity(rctx, token, key.ProductID, key.Size)
		if incErr != nil {
			uc.remoteFailure(key, "quantity change did not reach the server", incErr)
			return
		}
		uc.applyReconciliation(key, seq, qty)
	})

	return nil
}

// Decrement mirrors Increment but refuses at quantity 1: removal is an
// explicit action, never a side effect of decrementing.
func (uc *CartSyncUseCase) Decrement(ctx context.Context, key cart.LineKey) error {
	line, found := uc.store.Get(key)
	if !found {
		return domainErrors.ErrLineNotFound
	}
	if line.Quantity <= 1 {
		return domainErrors.ErrQuantityAtMinimum
	}

	uc.store.SetQuantity(key, line.Quantity-1)
	monitoring.RecordCartMutation("decrement")

	uc.mu.Lock()
	if !uc.isAuthenticatedLocked() {
		uc.mu.Unlock()
		return nil
	}
	token := uc.token
	seq := uc.issueSeqLocked(key)
	uc.mu.Unlock()

	uc.goRemote(func(rctx context.Context) {
		qty, decErr := uc.gateway.DecrementQuantity(rctx, token, key.ProductID, key.Size)
		if decErr != nil {
			uc.remoteFailure(key, "quantity change did not reach the server", decErr)
			return
		}
		uc.applyReconciliation(key, seq, qty)
	})

	return nil
}

// RemoveLine removes the line locally right away, then deletes it
// server-side. A not-found from the server means the line was already
// gone (another device won a race) and counts as success. Any other
// failure is surfaced but the local removal stands.
func (uc *CartSyncUseCase) RemoveLine(ctx context.Context, key cart.LineKey) error {
	if removed := uc.store.Remove(key); !removed {
		return domainErrors.ErrLineNotFound
	}
	monitoring.RecordCartMutation("remove")

	uc.mu.Lock()
	if !uc.isAuthenticatedLocked() {
		uc.mu.Unlock()
		return nil
	}
	token := uc.token
	uc.mu.Unlock()

	uc.goRemote(func(rctx context.Context) {
		delErr := uc.gateway.DeleteLine(rctx, token, key.ProductID, key.Size)
		if delErr == nil || errors.Is(delErr, domainErrors.ErrLineNotFound) {
			return
		}
		uc.remoteFailure(key, "removal did not reach the server", delErr)
	})

	return nil
}

// Login merges the guest cart into the server cart and pulls the
// server cart down. The merge is guarded by MergedOnLogin (set before
// the call fires) and is fire-and-forget; its failure never blocks
// login. The fetch step runs synchronously but is equally non-fatal.
func (uc *CartSyncUseCase) Login(ctx context.Context, token string) error {
	uc.mu.Lock()
	if uc.state != StateGuest {
		uc.mu.Unlock()
		return domainErrors.ErrAlreadyAuthenticated
	}
	uc.state = StateAuthenticating
	uc.token = token

	alreadyMerged := uc.syncState.MergedOnLogin
	uc.syncState.MergedOnLogin = true
	uc.mu.Unlock()

	if !alreadyMerged {
		guestLines := uc.store.Lines()
		if len(guestLines) > 0 {
			lines := make([]ports.RemoteLine, 0, len(guestLines))
			for _, l := range guestLines {
				lines = append(lines, ports.RemoteLine{
					ProductID: l.ProductID,
					Size:      l.Size,
					Quantity:  l.Quantity,
				})
			}
			uc.goRemote(func(rctx context.Context) {
				if mergeErr := uc.gateway.BulkAppend(rctx, token, lines); mergeErr != nil {
					monitoring.RecordCartMerge(false)
					uc.log.Error("Guest cart merge failed", "error", mergeErr, "lines", len(lines))
					uc.pushNotice("warning", "your guest cart could not be merged")
					return
				}
				monitoring.RecordCartMerge(true)
			})
		} else {
			monitoring.RecordCartMerge(true)
		}
	}

	uc.mu.Lock()
	uc.state = StateAuthenticatedUnsynced
	uc.mu.Unlock()

	// Non-fatal: a failed fetch leaves the guard unset and the next
	// cart read retries.
	uc.EnsureSynced(ctx)
	return nil
}

// EnsureSynced performs the one-time server cart fetch for an
// authenticated session. The fetched lines are appended additively so
// the just-merged guest lines survive. Idempotent under re-invocation
// via ServerCartFetched, and single-flight: a caller arriving while a
// fetch is already running returns instead of fetching again, so two
// concurrent cart reads cannot append the server lines twice.
func (uc *CartSyncUseCase) EnsureSynced(ctx context.Context) {
	uc.mu.Lock()
	if uc.state != StateAuthenticatedUnsynced || uc.fetchInFlight {
		uc.mu.Unlock()
		return
	}
	if uc.syncState.ServerCartFetched {
		uc.state = StateAuthenticatedSynced
		uc.mu.Unlock()
		return
	}
	uc.fetchInFlight = true
	token := uc.token
	uc.mu.Unlock()

	defer func() {
		uc.mu.Lock()
		uc.fetchInFlight = false
		uc.mu.Unlock()
	}()

	remote, err := uc.gateway.FetchCart(ctx, token)
	if err != nil {
		monitoring.RecordServerCartFetch(false)
		uc.log.Error("Server cart fetch failed", "error", err)
		uc.pushNotice("warning", "your saved cart could not be loaded")
		return
	}

	for _, rl := range remote {
		snapshot, lookupErr := uc.catalog.GetProduct(ctx, rl.ProductID)
		if lookupErr != nil {
			uc.log.Warn("Skipping server cart line without catalog data",
				"product_id", rl.ProductID, "error", lookupErr)
			continue
		}
		uc.store.Add(cart.Line{
			ProductID:         rl.ProductID,
			Size:              rl.Size,
			Quantity:          rl.Quantity,
			UnitPrice:         snapshot.UnitPrice,
			AvailableQuantity: snapshot.AvailableQuantity,
			Promotions:        snapshot.Promotions,
		})
	}

	monitoring.RecordServerCartFetch(true)
	uc.mu.Lock()
	if uc.state == StateAuthenticatedUnsynced {
		uc.syncState.ServerCartFetched = true
		uc.state = StateAuthenticatedSynced
	}
	uc.mu.Unlock()
}

// Logout clears the cart and resets the sync guards. Guest lines
// accrued before login are not restored: they were already merged
// server-side. A guest session has nothing to log out of.
func (uc *CartSyncUseCase) Logout() error {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	if uc.state == StateGuest {
		return domainErrors.ErrNotAuthenticated
	}

	uc.store.Clear()
	uc.state = StateGuest
	uc.token = ""
	uc.syncState = SyncState{}
	uc.nextSeq = make(map[cart.LineKey]uint64)
	uc.appliedSeq = make(map[cart.LineKey]uint64)
	uc.drifted = make(map[cart.LineKey]struct{})
	return nil
}

// ReconcileDrift re-fetches the authoritative cart and repairs the
// lines whose remote mutation failed: stale quantities are overwritten,
// lines the server no longer has are removed, and lines only the
// server has are restored. Invoked by the background reconciler.
func (uc *CartSyncUseCase) ReconcileDrift(ctx context.Context) {
	uc.mu.Lock()
	if uc.state != StateAuthenticatedSynced || len(uc.drifted) == 0 {
		uc.mu.Unlock()
		return
	}
	token := uc.token
	keys := make([]cart.LineKey, 0, len(uc.drifted))
	for key := range uc.drifted {
		keys = append(keys, key)
	}
	uc.mu.Unlock()

	remote, err := uc.gateway.FetchCart(ctx, token)
	if err != nil {
		uc.log.Warn("Drift reconciliation fetch failed", "error", err)
		return
	}

	authoritative := make(map[cart.LineKey]ports.RemoteLine, len(remote))
	for _, rl := range remote {
		authoritative[cart.LineKey{ProductID: rl.ProductID, Size: rl.Size}] = rl
	}

	repaired := 0
	for _, key := range keys {
		rl, onServer := authoritative[key]
		_, local := uc.store.Get(key)
		switch {
		case onServer && local:
			uc.store.Reconcile(key, rl.Quantity)
		case onServer && !local:
			snapshot, lookupErr := uc.catalog.GetProduct(ctx, key.ProductID)
			if lookupErr != nil {
				uc.log.Warn("Cannot restore drifted line without catalog data",
					"product_id", key.ProductID, "error", lookupErr)
				continue
			}
			uc.store.Add(cart.Line{
				ProductID:         key.ProductID,
				Size:              key.Size,
				Quantity:          rl.Quantity,
				UnitPrice:         snapshot.UnitPrice,
				AvailableQuantity: snapshot.AvailableQuantity,
				Promotions:        snapshot.Promotions,
			})
		case !onServer && local:
			uc.store.Remove(key)
		}
		repaired++
	}

	uc.mu.Lock()
	for _, key := range keys {
		delete(uc.drifted, key)
	}
	uc.mu.Unlock()

	if repaired > 0 {
		monitoring.RecordDriftRepair(repaired)
		uc.log.Info("Repaired drifted cart lines", "lines", repaired)
	}
}

// HasDrift reports whether any line is awaiting background repair.
func (uc *CartSyncUseCase) HasDrift() bool {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return len(uc.drifted) > 0
}

func (uc *CartSyncUseCase) isAuthenticatedLocked() bool {
	return uc.state == StateAuthenticatedUnsynced || uc.state == StateAuthenticatedSynced
}

func (uc *CartSyncUseCase) issueSeqLocked(key cart.LineKey) uint64 {
	uc.nextSeq[key]++
	return uc.nextSeq[key]
}

// applyReconciliation overwrites the local quantity with the server's
// authoritative value unless a later mutation's response was already
// applied for this line. The store write happens under the session
// lock: releasing it between the sequence check and the write would
// let a stale response overwrite a newer one.
func (uc *CartSyncUseCase) applyReconciliation(key cart.LineKey, seq uint64, quantity int) {
	uc.mu.Lock()
	if seq < uc.appliedSeq[key] {
		uc.mu.Unlock()
		monitoring.RecordStaleReconciliation()
		return
	}
	uc.appliedSeq[key] = seq
	uc.store.Reconcile(key, quantity)
	uc.mu.Unlock()

	monitoring.RecordReconciliation()
}

func (uc *CartSyncUseCase) remoteFailure(key cart.LineKey, message string, err error) {
	uc.log.Warn("Remote cart mutation failed",
		"product_id", key.ProductID, "size", key.Size, "error", err)
	uc.pushNotice("warning", message)

	uc.mu.Lock()
	uc.drifted[key] = struct{}{}
	uc.mu.Unlock()
	monitoring.RecordCartDrift()
}

func (uc *CartSyncUseCase) noteClamp(productID, size string) {
	monitoring.RecordClampHit()
	uc.pushNotice("info", "requested quantity exceeds available stock")
	uc.log.Info("Quantity clamped to available stock", "product_id", productID, "size", size)
}

func (uc *CartSyncUseCase) pushNotice(level, message string) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	uc.notices = append(uc.notices, Notice{
		Level:   level,
		Message: message,
		At:      time.Now().UTC(),
	})
}

// goRemote runs a remote call off the request goroutine with its own
// timeout: the originating HTTP request may finish (and cancel its
// context) before the call resolves.
func (uc *CartSyncUseCase) goRemote(fn func(ctx context.Context)) {
	uc.inFlight.Add(1)
	go func() {
		defer uc.inFlight.Done()
		rctx, cancel := context.WithTimeout(context.Background(), uc.remoteTimeout)
		defer cancel()
		fn(rctx)
	}()
}
