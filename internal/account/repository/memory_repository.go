package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fayad123/bcards-server/internal/account/domain"
	"github.com/fayad123/bcards-server/internal/common/clock"
)

// MemoryRepository keeps accounts in process memory. Every method holds the
// lock for its whole read-modify-write, which gives the same atomicity as
// the single-statement Postgres updates.
type MemoryRepository struct {
	mu       sync.Mutex
	accounts map[string]domain.Account
	clock    clock.Clock
}

func NewMemoryRepository(c clock.Clock) *MemoryRepository {
	if c == nil {
		c = clock.NewRealClock()
	}
	return &MemoryRepository{
		accounts: make(map[string]domain.Account),
		clock:    c,
	}
}

func (r *MemoryRepository) Create(ctx context.Context, a domain.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.accounts {
		if strings.EqualFold(existing.Email, a.Email) {
			return domain.ErrEmailTaken
		}
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = a.CreatedAt
	}
	r.accounts[a.ID] = a.Clone()
	return nil
}

func (r *MemoryRepository) FindByEmail(ctx context.Context, email string) (domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return domain.Account{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var (
		found domain.Account
		ok    bool
	)
	for _, a := range r.accounts {
		if strings.EqualFold(a.Email, email) && (!ok || a.CreatedAt.Before(found.CreatedAt)) {
			found, ok = a, true
		}
	}
	if !ok {
		return domain.Account{}, domain.ErrAccountNotFound
	}
	return found.Clone(), nil
}

func (r *MemoryRepository) FindByID(ctx context.Context, id string) (domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return domain.Account{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.accounts[id]
	if !ok {
		return domain.Account{}, domain.ErrAccountNotFound
	}
	return a.Clone(), nil
}

func (r *MemoryRepository) List(ctx context.Context) ([]domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.Account, 0, len(r.accounts))
	for _, a := range r.accounts {
		out = append(out, a.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *MemoryRepository) Update(ctx context.Context, a domain.Account) (domain.Account, error) {
	return r.mutate(ctx, a.ID, func(stored *domain.Account) error {
		for id, other := range r.accounts {
			if id != a.ID && strings.EqualFold(other.Email, a.Email) {
				return domain.ErrEmailTaken
			}
		}
		stored.Name = a.Name
		stored.Phone = a.Phone
		stored.Email = a.Email
		stored.PasswordHash = a.PasswordHash
		stored.Address = a.Address
		stored.Image = a.Image
		return nil
	})
}

func (r *MemoryRepository) SetBusiness(ctx context.Context, id string, value bool) (domain.Account, error) {
	return r.mutate(ctx, id, func(stored *domain.Account) error {
		stored.IsBusiness = value
		return nil
	})
}

func (r *MemoryRepository) FlipBusiness(ctx context.Context, id string) (domain.Account, error) {
	return r.mutate(ctx, id, func(stored *domain.Account) error {
		stored.IsBusiness = !stored.IsBusiness
		return nil
	})
}

func (r *MemoryRepository) mutate(ctx context.Context, id string, fn func(*domain.Account) error) (domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return domain.Account{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.accounts[id]
	if !ok {
		return domain.Account{}, domain.ErrAccountNotFound
	}
	if err := fn(&stored); err != nil {
		return domain.Account{}, err
	}
	stored.UpdatedAt = r.clock.Now()
	r.accounts[id] = stored
	return stored.Clone(), nil
}

func (r *MemoryRepository) AppendLoginStamp(ctx context.Context, id string, at time.Time, max int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	stamps := append(append([]time.Time(nil), stored.LoginStamps...), at)
	if max > 0 && len(stamps) > max {
		stamps = stamps[len(stamps)-max:]
	}
	stored.LoginStamps = stamps
	r.accounts[id] = stored
	return nil
}

func (r *MemoryRepository) TrimLoginStamps(ctx context.Context, cutoff time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed int64
	for id, stored := range r.accounts {
		kept := make([]time.Time, 0, len(stored.LoginStamps))
		for _, s := range stored.LoginStamps {
			if !s.Before(cutoff) {
				kept = append(kept, s)
			}
		}
		if diff := len(stored.LoginStamps) - len(kept); diff > 0 {
			removed += int64(diff)
			stored.LoginStamps = kept
			r.accounts[id] = stored
		}
	}
	return removed, nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id string) (domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return domain.Account{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.accounts[id]
	if !ok {
		return domain.Account{}, domain.ErrAccountNotFound
	}
	delete(r.accounts, id)
	return stored, nil
}
