package repository

import (
	"context"

	"github.com/fayad123/bcards-server/internal/card/domain"
)

// Repository stores cards. Lookups of a missing record return
// domain.ErrCardNotFound.
type Repository interface {
	// Create inserts c, failing with domain.ErrCardEmailTaken when another
	// card already uses the email.
	Create(ctx context.Context, c domain.Card) error
	FindByID(ctx context.Context, id string) (domain.Card, error)
	List(ctx context.Context) ([]domain.Card, error)
	// Update persists the mutable fields. Owner and likes are left as stored.
	Update(ctx context.Context, c domain.Card) (domain.Card, error)
	// ToggleLike removes accountID from the card's likes when present and
	// adds it otherwise, as one atomic step.
	ToggleLike(ctx context.Context, id, accountID string) (domain.Card, error)
	Delete(ctx context.Context, id string) (domain.Card, error)
}
