package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fayad123/bcards-server/internal/card/domain"
	"github.com/fayad123/bcards-server/internal/common/clock"
)

// MemoryRepository keeps cards in process memory. Mutations hold the lock
// across their read-modify-write.
type MemoryRepository struct {
	mu    sync.Mutex
	cards map[string]domain.Card
	clock clock.Clock
}

func NewMemoryRepository(c clock.Clock) *MemoryRepository {
	if c == nil {
		c = clock.NewRealClock()
	}
	return &MemoryRepository{
		cards: make(map[string]domain.Card),
		clock: c,
	}
}

func (r *MemoryRepository) Create(ctx context.Context, c domain.Card) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.cards {
		if strings.EqualFold(existing.Email, c.Email) {
			return domain.ErrCardEmailTaken
		}
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = c.CreatedAt
	}
	stored := c.Clone()
	stored.ApplyDefaults()
	r.cards[c.ID] = stored
	return nil
}

func (r *MemoryRepository) FindByID(ctx context.Context, id string) (domain.Card, error) {
	if err := ctx.Err(); err != nil {
		return domain.Card{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.cards[id]
	if !ok {
		return domain.Card{}, domain.ErrCardNotFound
	}
	return c.Clone(), nil
}

func (r *MemoryRepository) List(ctx context.Context) ([]domain.Card, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.Card, 0, len(r.cards))
	for _, c := range r.cards {
		out = append(out, c.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *MemoryRepository) Update(ctx context.Context, c domain.Card) (domain.Card, error) {
	return r.mutate(ctx, c.ID, func(stored *domain.Card) {
		likes, owner, created, updated := stored.Likes, stored.UserID, stored.CreatedAt, stored.UpdatedAt
		*stored = c.Clone()
		stored.Likes, stored.UserID, stored.CreatedAt, stored.UpdatedAt = likes, owner, created, updated
	})
}

func (r *MemoryRepository) ToggleLike(ctx context.Context, id, accountID string) (domain.Card, error) {
	return r.mutate(ctx, id, func(stored *domain.Card) {
		for i, liker := range stored.Likes {
			if liker == accountID {
				stored.Likes = append(stored.Likes[:i:i], stored.Likes[i+1:]...)
				return
			}
		}
		stored.Likes = append(stored.Likes, accountID)
	})
}

func (r *MemoryRepository) mutate(ctx context.Context, id string, fn func(*domain.Card)) (domain.Card, error) {
	if err := ctx.Err(); err != nil {
		return domain.Card{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.cards[id]
	if !ok {
		return domain.Card{}, domain.ErrCardNotFound
	}
	fn(&stored)
	stored.UpdatedAt = nextVersion(stored.UpdatedAt, r.clock.Now())
	r.cards[id] = stored
	return stored.Clone(), nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id string) (domain.Card, error) {
	if err := ctx.Err(); err != nil {
		return domain.Card{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.cards[id]
	if !ok {
		return domain.Card{}, domain.ErrCardNotFound
	}
	delete(r.cards, id)
	return stored, nil
}

// nextVersion keeps updated_at strictly increasing per card; the cache
// orders writes by it.
func nextVersion(prev, now time.Time) time.Time {
	if floor := prev.Add(time.Microsecond); now.Before(floor) {
		return floor
	}
	return now
}
