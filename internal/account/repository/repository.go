package repository

import (
	"context"
	"time"

	"github.com/fayad123/bcards-server/internal/account/domain"
)

// Repository stores accounts. Lookups of a missing record return
// domain.ErrAccountNotFound.
type Repository interface {
	// Create inserts a, failing with domain.ErrEmailTaken when the email is
	// already registered. The check and the insert are atomic.
	Create(ctx context.Context, a domain.Account) error
	FindByEmail(ctx context.Context, email string) (domain.Account, error)
	FindByID(ctx context.Context, id string) (domain.Account, error)
	List(ctx context.Context) ([]domain.Account, error)
	// Update persists profile fields and the password hash. Role flags and
	// login stamps are left as stored.
	Update(ctx context.Context, a domain.Account) (domain.Account, error)
	SetBusiness(ctx context.Context, id string, value bool) (domain.Account, error)
	// FlipBusiness negates the stored flag in a single atomic step.
	FlipBusiness(ctx context.Context, id string) (domain.Account, error)
	// AppendLoginStamp appends at and keeps only the newest max entries.
	AppendLoginStamp(ctx context.Context, id string, at time.Time, max int) error
	// TrimLoginStamps drops stamps older than cutoff and returns how many
	// were removed.
	TrimLoginStamps(ctx context.Context, cutoff time.Time) (int64, error)
	Delete(ctx context.Context, id string) (domain.Account, error)
}
