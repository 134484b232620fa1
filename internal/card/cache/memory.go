package cache

import (
	"context"
	"sync"
	"time"

	"github.com/fayad123/bcards-server/internal/card/domain"
	"github.com/fayad123/bcards-server/internal/common/clock"
	"github.com/fayad123/bcards-server/internal/common/constants"
	"github.com/fayad123/bcards-server/internal/observability/metrics"
)

type memoryEntry struct {
	version int64
	card    *domain.Card
	expires time.Time
}

// Memory is a process-local cache with the same versioning rules as Redis.
// It suits a single API instance.
type Memory struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	clock   clock.Clock
}

func NewMemory(ttl time.Duration, c clock.Clock) *Memory {
	if c == nil {
		c = clock.NewRealClock()
	}
	return &Memory{
		entries: make(map[string]memoryEntry),
		ttl:     ttlOrDefault(ttl, constants.DefaultCardCacheTTL),
		clock:   c,
	}
}

func (m *Memory) Get(_ context.Context, id string) (domain.Card, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.live(id)
	if !ok || e.card == nil {
		metrics.CardCacheLookups.WithLabelValues("miss").Inc()
		return domain.Card{}, false
	}
	metrics.CardCacheLookups.WithLabelValues("hit").Inc()
	return e.card.Clone(), true
}

func (m *Memory) Fill(_ context.Context, card domain.Card) {
	m.write(card.ID, version(card), &card, modeFill)
}

func (m *Memory) Put(_ context.Context, card domain.Card) {
	m.write(card.ID, version(card), &card, modePut)
}

func (m *Memory) Evict(_ context.Context, id string) {
	m.write(id, tombstoneVersion, nil, modePut)
}

func (m *Memory) write(id string, v int64, card *domain.Card, mode writeMode) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.live(id); ok && !accepts(mode, e.version, v) {
		return
	}
	var stored *domain.Card
	if card != nil {
		c := card.Clone()
		stored = &c
	}
	m.entries[id] = memoryEntry{version: v, card: stored, expires: m.clock.Now().Add(m.ttl)}
}

// live returns the unexpired entry for id. Callers hold mu.
func (m *Memory) live(id string) (memoryEntry, bool) {
	e, ok := m.entries[id]
	if !ok {
		return memoryEntry{}, false
	}
	if !m.clock.Now().Before(e.expires) {
		delete(m.entries, id)
		return memoryEntry{}, false
	}
	return e, true
}
