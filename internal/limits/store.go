package limits

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Window is one rolling usage counter. WindowStart is the boundary instant of
// the period the counter belongs to.
type Window struct {
	Used        decimal.Decimal `json:"used"`
	WindowStart time.Time       `json:"window_start"`
}

// Usage is the per-(user, kind) ledger record: one window per tracked period.
type Usage struct {
	Windows map[Period]*Window `json:"windows"`
}

func newUsage() *Usage {
	return &Usage{Windows: make(map[Period]*Window, len(Periods))}
}

func (u *Usage) clone() *Usage {
	out := newUsage()
	for period, w := range u.Windows {
		cp := *w
		out.Windows[period] = &cp
	}
	return out
}

// Store persists usage records. Update applies fn to the record for key under
// per-key mutual exclusion; when fn returns an error no mutation is
// persisted. Implementations must not serialize updates across distinct keys.
type Store interface {
	Update(ctx context.Context, key string, fn func(*Usage) error) error
}

func usageKey(userID uuid.UUID, kind Kind) string {
	return fmt.Sprintf("%s:%s", userID, kind)
}

// MemoryStore keeps usage records in process memory with a lock per key.
type MemoryStore struct {
	mu      sync.Mutex // guards the maps, never held across fn
	records map[string]*Usage
	locks   map[string]*sync.Mutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*Usage),
		locks:   make(map[string]*sync.Mutex),
	}
}

func (s *MemoryStore) keyLock(key string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[key] = lock
	}
	return lock
}

// Update runs fn on a copy of the record and writes the copy back only when
// fn succeeds, so a failed debit leaves the stored record untouched.
func (s *MemoryStore) Update(ctx context.Context, key string, fn func(*Usage) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	lock := s.keyLock(key)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	current, ok := s.records[key]
	s.mu.Unlock()

	working := newUsage()
	if ok {
		working = current.clone()
	}
	if err := fn(working); err != nil {
		return err
	}

	s.mu.Lock()
	s.records[key] = working
	s.mu.Unlock()
	return nil
}
