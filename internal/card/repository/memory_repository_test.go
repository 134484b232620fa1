package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fayad123/bcards-server/internal/card/domain"
	"github.com/fayad123/bcards-server/internal/common/clock"
	commonerrors "github.com/fayad123/bcards-server/internal/common/errors"
)

func newCard(id, email string) domain.Card {
	c := domain.Card{
		ID:       id,
		Title:    "Bakery",
		Subtitle: "Fresh bread",
		Phone:    "0501234567",
		Email:    email,
		Image:    domain.Image{URL: "https://example.com/a.png", Alt: "logo"},
		Address: domain.Address{
			Country: "Israel", City: "Haifa", Street: "Herzl", HouseNumber: 3,
		},
		UserID:    "owner-1",
		CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	c.ApplyDefaults()
	return c
}

func TestMemoryRepository_CreateRejectsDuplicateEmail(t *testing.T) {
	repo := NewMemoryRepository(nil)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newCard("c1", "shop@example.com")))
	err := repo.Create(ctx, newCard("c2", "SHOP@example.com"))

	assert.True(t, commonerrors.IsDomainError(err))
	assert.ErrorIs(t, err, domain.ErrCardEmailTaken)
}

func TestMemoryRepository_ToggleLikeIsInvolution(t *testing.T) {
	repo := NewMemoryRepository(nil)
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, newCard("c1", "shop@example.com")))

	liked, err := repo.ToggleLike(ctx, "c1", "acc-2")
	require.NoError(t, err)
	assert.Equal(t, []string{"acc-2"}, liked.Likes)

	unliked, err := repo.ToggleLike(ctx, "c1", "acc-2")
	require.NoError(t, err)
	assert.Empty(t, unliked.Likes)
	assert.NotNil(t, unliked.Likes)
}

func TestMemoryRepository_ToggleLikeRemovesOnlyRequester(t *testing.T) {
	repo := NewMemoryRepository(nil)
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, newCard("c1", "shop@example.com")))

	for _, id := range []string{"a", "b", "c"} {
		_, err := repo.ToggleLike(ctx, "c1", id)
		require.NoError(t, err)
	}
	card, err := repo.ToggleLike(ctx, "c1", "b")

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, card.Likes)
}

func TestMemoryRepository_ConcurrentTogglesAreNotLost(t *testing.T) {
	repo := NewMemoryRepository(nil)
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, newCard("c1", "shop@example.com")))

	const accounts = 50
	var wg sync.WaitGroup
	for i := 0; i < accounts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := repo.ToggleLike(ctx, "c1", fmt.Sprintf("acc-%d", i))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	card, err := repo.FindByID(ctx, "c1")
	require.NoError(t, err)
	assert.Len(t, card.Likes, accounts)
}

func TestMemoryRepository_ToggleLikeMissingCard(t *testing.T) {
	repo := NewMemoryRepository(nil)

	_, err := repo.ToggleLike(context.Background(), "missing", "acc-1")

	assert.ErrorIs(t, err, domain.ErrCardNotFound)
}

func TestMemoryRepository_UpdateKeepsOwnerAndLikes(t *testing.T) {
	now := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	repo := NewMemoryRepository(clock.NewMockClock(now))
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, newCard("c1", "shop@example.com")))
	_, err := repo.ToggleLike(ctx, "c1", "acc-2")
	require.NoError(t, err)

	changed := newCard("c1", "shop@example.com")
	changed.Title = "Patisserie"
	changed.UserID = "intruder"
	changed.Likes = nil

	updated, err := repo.Update(ctx, changed)

	require.NoError(t, err)
	assert.Equal(t, "Patisserie", updated.Title)
	assert.Equal(t, "owner-1", updated.UserID)
	assert.Equal(t, []string{"acc-2"}, updated.Likes)
	assert.Equal(t, now.Add(time.Microsecond), updated.UpdatedAt)
}

func TestMemoryRepository_DeleteReturnsRemovedCard(t *testing.T) {
	repo := NewMemoryRepository(nil)
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, newCard("c1", "shop@example.com")))

	deleted, err := repo.Delete(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "c1", deleted.ID)

	_, err = repo.FindByID(ctx, "c1")
	assert.ErrorIs(t, err, domain.ErrCardNotFound)
}

func TestMemoryRepository_MutationsAdvanceUpdatedAt(t *testing.T) {
	c := clock.NewMockClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	repo := NewMemoryRepository(c)
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, newCard("c1", "shop@example.com")))

	first, err := repo.ToggleLike(ctx, "c1", "acc-1")
	require.NoError(t, err)
	second, err := repo.ToggleLike(ctx, "c1", "acc-1")
	require.NoError(t, err)

	assert.True(t, second.UpdatedAt.After(first.UpdatedAt))
}
