package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fayad123/bcards-server/internal/account/domain"
	"github.com/fayad123/bcards-server/internal/common/clock"
)

func newRepo() *MemoryRepository {
	return NewMemoryRepository(clock.NewMockClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestMemoryRepository_CreateRejectsDuplicateEmail(t *testing.T) {
	repo := newRepo()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, domain.Account{ID: "a1", Email: "dana@example.com"}))
	err := repo.Create(ctx, domain.Account{ID: "a2", Email: "DANA@example.com"})

	assert.ErrorIs(t, err, domain.ErrEmailTaken)
}

func TestMemoryRepository_ConcurrentCreateSameEmail(t *testing.T) {
	repo := newRepo()
	ctx := context.Background()

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- repo.Create(ctx, domain.Account{ID: fmt.Sprintf("a%d", i), Email: "same@example.com"})
		}(i)
	}
	wg.Wait()
	close(errs)

	created := 0
	for err := range errs {
		if err == nil {
			created++
		} else {
			assert.ErrorIs(t, err, domain.ErrEmailTaken)
		}
	}
	assert.Equal(t, 1, created)
}

func TestMemoryRepository_AppendLoginStampIsCapped(t *testing.T) {
	repo := newRepo()
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, domain.Account{ID: "a1", Email: "a@example.com"}))

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, repo.AppendLoginStamp(ctx, "a1", base.Add(time.Duration(i)*time.Minute), 3))
	}

	a, err := repo.FindByID(ctx, "a1")
	require.NoError(t, err)
	require.Len(t, a.LoginStamps, 3)
	assert.True(t, a.LoginStamps[0].Equal(base.Add(2*time.Minute)))
	assert.True(t, a.LoginStamps[2].Equal(base.Add(4*time.Minute)))
}

func TestMemoryRepository_TrimLoginStamps(t *testing.T) {
	repo := newRepo()
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Create(ctx, domain.Account{
		ID:          "a1",
		Email:       "a@example.com",
		LoginStamps: []time.Time{base, base.Add(time.Hour), base.Add(2 * time.Hour)},
	}))

	removed, err := repo.TrimLoginStamps(ctx, base.Add(90*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	a, _ := repo.FindByID(ctx, "a1")
	assert.Len(t, a.LoginStamps, 1)
}

func TestMemoryRepository_FlipBusinessIsAtomic(t *testing.T) {
	repo := newRepo()
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, domain.Account{ID: "a1", Email: "a@example.com"}))

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = repo.FlipBusiness(ctx, "a1")
		}()
	}
	wg.Wait()

	a, _ := repo.FindByID(ctx, "a1")
	assert.False(t, a.IsBusiness, "an even number of flips must restore the flag")
}

func TestMemoryRepository_UpdateKeepsRoleFlags(t *testing.T) {
	repo := newRepo()
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, domain.Account{ID: "a1", Email: "a@example.com", IsAdmin: true}))

	updated, err := repo.Update(ctx, domain.Account{ID: "a1", Email: "b@example.com", IsAdmin: false})
	require.NoError(t, err)

	assert.Equal(t, "b@example.com", updated.Email)
	assert.True(t, updated.IsAdmin)
}

func TestMemoryRepository_DeleteMissing(t *testing.T) {
	_, err := newRepo().Delete(context.Background(), "nope")

	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestMemoryRepository_UpdateRejectsTakenEmail(t *testing.T) {
	repo := newRepo()
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, domain.Account{ID: "a1", Email: "a@example.com"}))
	require.NoError(t, repo.Create(ctx, domain.Account{ID: "a2", Email: "b@example.com"}))

	_, err := repo.Update(ctx, domain.Account{ID: "a2", Email: "A@example.com"})
	assert.ErrorIs(t, err, domain.ErrEmailTaken)

	_, err = repo.Update(ctx, domain.Account{ID: "a2", Email: "B@example.com"})
	assert.NoError(t, err)
}
