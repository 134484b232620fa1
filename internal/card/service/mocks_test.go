package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fayad123/bcards-server/internal/card/cache"
	"github.com/fayad123/bcards-server/internal/card/domain"
	"github.com/fayad123/bcards-server/internal/card/repository"
	"github.com/fayad123/bcards-server/internal/common/clock"
)

type mockIDGenerator struct {
	seq atomic.Int32
}

func (m *mockIDGenerator) NewID() (string, error) {
	return fmt.Sprintf("card-%d", m.seq.Add(1)), nil
}

// recordingCache is the in-process cache that also records evictions.
type recordingCache struct {
	*cache.Memory
	mu      sync.Mutex
	evicted []string
}

func newRecordingCache(c clock.Clock) *recordingCache {
	return &recordingCache{Memory: cache.NewMemory(time.Minute, c)}
}

func (c *recordingCache) Evict(ctx context.Context, id string) {
	c.mu.Lock()
	c.evicted = append(c.evicted, id)
	c.mu.Unlock()
	c.Memory.Evict(ctx, id)
}

type failingRepo struct {
	repository.Repository
	createFunc func(ctx context.Context, c domain.Card) error
	// afterFind runs once, between the stored read and its return.
	afterFind func()
	findCalls atomic.Int32
}

func (r *failingRepo) Create(ctx context.Context, c domain.Card) error {
	if r.createFunc != nil {
		return r.createFunc(ctx, c)
	}
	return r.Repository.Create(ctx, c)
}

func (r *failingRepo) FindByID(ctx context.Context, id string) (domain.Card, error) {
	r.findCalls.Add(1)
	card, err := r.Repository.FindByID(ctx, id)
	if hook := r.afterFind; hook != nil {
		r.afterFind = nil
		hook()
	}
	return card, err
}

func strPtr(s string) *string { return &s }

func validInput(email string) domain.Input {
	return domain.Input{
		Title:    "Bakery",
		Subtitle: "Fresh bread daily",
		Phone:    "0501234567",
		Email:    email,
		Image:    domain.Image{URL: "https://example.com/logo.png", Alt: "logo"},
		Address: domain.Address{
			Country:     "Israel",
			City:        "Haifa",
			Street:      "Herzl",
			HouseNumber: 12,
		},
		BizNumber: 1000001,
	}
}
