package usecase

import (
	"sync"
	"time"

	"github.com/vitos/trade_checklist/internal/domain"
)

// ActiveRange is the committed window a trader is currently looking at.
type ActiveRange struct {
	Trader  string                 `json:"trader"`
	Start   time.Time              `json:"start"`
	End     time.Time              `json:"end"`
	Days    []*domain.ChecklistDay `json:"days"`
	Summary RangeCompliance        `json:"summary"`
}

// RangeTracker keeps at most one active range per trader. Each load takes
// a token from Begin; only the newest token may commit.
type RangeTracker struct {
	mu     sync.Mutex
	gen    map[string]uint64
	active map[string]*ActiveRange
}

func NewRangeTracker() *RangeTracker {
	return &RangeTracker{
		gen:    make(map[string]uint64),
		active: make(map[string]*ActiveRange),
	}
}

// Begin supersedes any load in flight for trader.
func (t *RangeTracker) Begin(trader string) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.gen[trader]++
	return t.gen[trader]
}

// Invalidate makes every load in flight for trader stale without starting
// a new one. The committed window is kept so it can be reloaded.
func (t *RangeTracker) Invalidate(trader string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.gen[trader]++
}

// Commit stores r if token is still the newest; stale results are dropped.
func (t *RangeTracker) Commit(trader string, token uint64, r *ActiveRange) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.gen[trader] != token {
		return false
	}
	t.active[trader] = r
	return true
}

func (t *RangeTracker) Active(trader string) (*ActiveRange, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	r, ok := t.active[trader]
	return r, ok
}
