package cart

import (
	"sync"
)

// Store is the in-memory line collection for one session, guest or
// authenticated. Every mutation recomputes the Snapshot before the
// lock is released, so readers never observe a half-applied mutation
// or a stale total.
type Store struct {
	mu           sync.Mutex
	lines        map[LineKey]*Line
	order        []LineKey
	overOrdering bool
	snapshot     Snapshot
}

// NewStore creates an empty store. overOrdering waives the stock
// ceiling on quantity clamps (the "allow over-ordering" policy); the
// floor of 1 always applies.
func NewStore(overOrdering bool) *Store {
	return &Store{
		lines:        make(map[LineKey]*Line),
		overOrdering: overOrdering,
	}
}

// Add inserts a line or, when the (productID, size) pair already
// exists, merges into it by summing quantities. The existing line's
// catalog snapshot is refreshed from the incoming one. Returns the
// quantity actually added once the clamp applied (zero when the line
// was already at the ceiling) and whether the clamp kicked in.
func (s *Store) Add(line Line) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := line.Key()
	existing, ok := s.lines[key]
	if !ok {
		qty, clamped := line.clampQuantity(line.Quantity, s.overOrdering)
		line.Quantity = qty
		s.lines[key] = &line
		s.order = append(s.order, key)
		s.recompute()
		return qty, clamped
	}

	prev := existing.Quantity
	existing.UnitPrice = line.UnitPrice
	existing.AvailableQuantity = line.AvailableQuantity
	existing.Promotions = line.Promotions
	qty, clamped := existing.clampQuantity(prev+line.Quantity, s.overOrdering)
	existing.Quantity = qty
	s.recompute()
	return qty - prev, clamped
}

// SetQuantity sets the quantity of an existing line, clamped. A
// missing key is a no-op: a remove may have completed before a pending
// update arrived, and the update must not resurrect the line.
func (s *Store) SetQuantity(key LineKey, quantity int) (clamped, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	line, found := s.lines[key]
	if !found {
		return false, false
	}

	qty, clamped := line.clampQuantity(quantity, s.overOrdering)
	line.Quantity = qty
	s.recompute()
	return clamped, true
}

// Reconcile overwrites a line's quantity with the server's
// authoritative value, bypassing the local clamp — the server clamps
// against live stock, which the cached AvailableQuantity may trail. A
// non-positive value means the line is gone server-side and removes
// it. Missing keys are a no-op.
func (s *Store) Reconcile(key LineKey, quantity int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	line, found := s.lines[key]
	if !found {
		return false
	}

	if quantity < 1 {
		s.removeLocked(key)
	} else {
		line.Quantity = quantity
	}
	s.recompute()
	return true
}

// Remove deletes a line. Removing an absent key is a no-op.
func (s *Store) Remove(key LineKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, found := s.lines[key]; !found {
		return false
	}
	s.removeLocked(key)
	s.recompute()
	return true
}

func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lines = make(map[LineKey]*Line)
	s.order = nil
	s.recompute()
}

// Lines returns the cart lines in insertion order. The result is a
// copy; mutating it does not touch the store.
func (s *Store) Lines() []*Line {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*Line, 0, len(s.order))
	for _, key := range s.order {
		line := *s.lines[key]
		out = append(out, &line)
	}
	return out
}

func (s *Store) Get(key LineKey) (Line, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	line, found := s.lines[key]
	if !found {
		return Line{}, false
	}
	return *line, true
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lines)
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot
}

func (s *Store) removeLocked(key LineKey) {
	delete(s.lines, key)
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *Store) recompute() {
	lines := make([]*Line, 0, len(s.order))
	for _, key := range s.order {
		lines = append(lines, s.lines[key])
	}
	s.snapshot = ComputeSnapshot(lines)
}
