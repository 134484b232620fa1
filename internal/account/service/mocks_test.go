package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/fayad123/bcards-server/internal/account/domain"
	"github.com/fayad123/bcards-server/internal/account/repository"
)

type mockHasher struct {
	hashFunc    func(password string) (string, error)
	compareFunc func(hash, password string) error
	compares    atomic.Int32
}

func (m *mockHasher) Hash(password string) (string, error) {
	if m.hashFunc != nil {
		return m.hashFunc(password)
	}
	return "hashed:" + password, nil
}

func (m *mockHasher) Compare(hash, password string) error {
	m.compares.Add(1)
	if m.compareFunc != nil {
		return m.compareFunc(hash, password)
	}
	if hash != "hashed:"+password {
		return errors.New("mismatch")
	}
	return nil
}

type mockIDGenerator struct {
	seq       atomic.Int32
	newIDFunc func() (string, error)
}

func (m *mockIDGenerator) NewID() (string, error) {
	if m.newIDFunc != nil {
		return m.newIDFunc()
	}
	return fmt.Sprintf("acc-%d", m.seq.Add(1)), nil
}

// failingRepo wraps a real repository and lets a test override single calls.
type failingRepo struct {
	repository.Repository
	createFunc           func(ctx context.Context, a domain.Account) error
	appendLoginStampFunc func(ctx context.Context, id string, at time.Time, max int) error
}

func (r *failingRepo) Create(ctx context.Context, a domain.Account) error {
	if r.createFunc != nil {
		return r.createFunc(ctx, a)
	}
	return r.Repository.Create(ctx, a)
}

func (r *failingRepo) AppendLoginStamp(ctx context.Context, id string, at time.Time, max int) error {
	if r.appendLoginStampFunc != nil {
		return r.appendLoginStampFunc(ctx, id, at, max)
	}
	return r.Repository.AppendLoginStamp(ctx, id, at, max)
}

func boolPtr(b bool) *bool { return &b }

func strPtr(s string) *string { return &s }

func validRegisterInput(email string, business bool) RegisterInput {
	return RegisterInput{
		Name:       domain.Name{First: "Dana", Last: "Levi"},
		IsBusiness: boolPtr(business),
		Phone:      "0501234567",
		Email:      email,
		Password:   "Secret123!",
		Address: domain.Address{
			Country:     "Israel",
			City:        "Haifa",
			Street:      "Herzl",
			HouseNumber: 10,
			Zip:         3100000,
		},
	}
}
