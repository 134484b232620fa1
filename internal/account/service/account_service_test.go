package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fayad123/bcards-server/internal/account/domain"
	"github.com/fayad123/bcards-server/internal/account/repository"
	"github.com/fayad123/bcards-server/internal/auth/policy"
	"github.com/fayad123/bcards-server/internal/auth/token"
	"github.com/fayad123/bcards-server/internal/common/clock"
	commonerrors "github.com/fayad123/bcards-server/internal/common/errors"
	"github.com/fayad123/bcards-server/internal/common/logger"
)

const testSecret = "test-secret-key-must-be-at-least-32-bytes-long"

type fixture struct {
	svc    *AccountService
	repo   *failingRepo
	hasher *mockHasher
	tokens *token.Service
	clock  *clock.MockClock
}

func setup(t *testing.T) fixture {
	t.Helper()
	c := clock.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	repo := &failingRepo{Repository: repository.NewMemoryRepository(c)}
	hasher := &mockHasher{}
	tokens := token.NewService(testSecret, 0, c)

	svc := NewAccountService(Dependencies{
		Repo:        repo,
		Hasher:      hasher,
		IDGenerator: &mockIDGenerator{},
		Tokens:      tokens,
		Policy:      policy.New(policy.Options{CardDeleteRequiresOwner: true}),
		Clock:       c,
		Log:         logger.NewDiscard(),
	}, Options{MaxLoginStamps: 3})

	return fixture{svc: svc, repo: repo, hasher: hasher, tokens: tokens, clock: c}
}

func (f fixture) register(t *testing.T, input RegisterInput) token.Claims {
	t.Helper()
	raw, err := f.svc.Register(context.Background(), input)
	require.NoError(t, err)
	claims, err := f.tokens.Verify(raw)
	require.NoError(t, err)
	return claims
}

func TestRegister_ReturnsTokenForNewAccount(t *testing.T) {
	f := setup(t)

	claims := f.register(t, validRegisterInput("dana@example.com", true))

	assert.Equal(t, "acc-1", claims.ID)
	assert.Equal(t, "dana@example.com", claims.Email)
	assert.True(t, claims.IsBusiness)
	assert.False(t, claims.IsAdmin)

	stored, err := f.repo.FindByID(context.Background(), claims.ID)
	require.NoError(t, err)
	assert.Equal(t, "hashed:Secret123!", stored.PasswordHash)
	assert.NotEmpty(t, stored.Image.URL)
}

func TestRegister_DuplicateEmailConflict(t *testing.T) {
	f := setup(t)
	f.register(t, validRegisterInput("dana@example.com", false))

	_, err := f.svc.Register(context.Background(), validRegisterInput("dana@example.com", true))

	assert.ErrorIs(t, err, domain.ErrEmailTaken)
}

func TestRegister_ValidationFailure(t *testing.T) {
	f := setup(t)
	input := validRegisterInput("not-an-email", false)
	input.Phone = "123"
	input.IsBusiness = nil

	_, err := f.svc.Register(context.Background(), input)

	require.ErrorIs(t, err, commonerrors.ErrValidation)
	de, _ := commonerrors.AsDomainError(err)
	assert.Contains(t, de.Details(), "email")
	assert.Contains(t, de.Details(), "phone")
	assert.Contains(t, de.Details(), "isBusiness")
}

func TestRegister_OutOfRangeAddressNumbersAreValidationErrors(t *testing.T) {
	f := setup(t)
	input := validRegisterInput("dana@example.com", false)
	input.Address.HouseNumber = 3000000000
	input.Address.Zip = 3000000000

	_, err := f.svc.Register(context.Background(), input)

	require.ErrorIs(t, err, commonerrors.ErrValidation)
	de, _ := commonerrors.AsDomainError(err)
	assert.Contains(t, de.Details(), "address.houseNumber")
	assert.Contains(t, de.Details(), "address.zip")
}

func TestRegister_StorageFailureIsInternal(t *testing.T) {
	f := setup(t)
	f.repo.createFunc = func(context.Context, domain.Account) error {
		return errors.New("connection reset by peer")
	}

	_, err := f.svc.Register(context.Background(), validRegisterInput("dana@example.com", false))

	assert.ErrorIs(t, err, commonerrors.ErrInternalError)
}

func TestRegister_CircuitOpenPassesThrough(t *testing.T) {
	f := setup(t)
	f.repo.createFunc = func(context.Context, domain.Account) error {
		return commonerrors.ErrCircuitOpen
	}

	_, err := f.svc.Register(context.Background(), validRegisterInput("dana@example.com", false))

	assert.ErrorIs(t, err, commonerrors.ErrCircuitOpen)
}

func TestLogin_Success_StampsLogin(t *testing.T) {
	f := setup(t)
	claims := f.register(t, validRegisterInput("dana@example.com", false))

	raw, err := f.svc.Login(context.Background(), LoginInput{Email: "dana@example.com", Password: "Secret123!"})
	require.NoError(t, err)
	assert.NotEmpty(t, raw)

	stored, _ := f.repo.FindByID(context.Background(), claims.ID)
	require.Len(t, stored.LoginStamps, 1)
	assert.True(t, stored.LoginStamps[0].Equal(f.clock.Now()))
}

func TestLogin_StampsAreCapped(t *testing.T) {
	f := setup(t)
	claims := f.register(t, validRegisterInput("dana@example.com", false))

	for i := 0; i < 5; i++ {
		f.clock.Advance(time.Minute)
		_, err := f.svc.Login(context.Background(), LoginInput{Email: "dana@example.com", Password: "Secret123!"})
		require.NoError(t, err)
	}

	stored, _ := f.repo.FindByID(context.Background(), claims.ID)
	require.Len(t, stored.LoginStamps, 3)
	assert.True(t, stored.LoginStamps[2].Equal(f.clock.Now()))
}

func TestLogin_UnknownEmailAndWrongPasswordAreIndistinguishable(t *testing.T) {
	f := setup(t)
	f.register(t, validRegisterInput("dana@example.com", false))

	_, errUnknown := f.svc.Login(context.Background(), LoginInput{Email: "nobody@example.com", Password: "Secret123!"})
	_, errWrong := f.svc.Login(context.Background(), LoginInput{Email: "dana@example.com", Password: "Wrong123!"})

	require.ErrorIs(t, errUnknown, domain.ErrInvalidCredentials)
	require.ErrorIs(t, errWrong, domain.ErrInvalidCredentials)
	assert.Equal(t, errUnknown.Error(), errWrong.Error())
	assert.Equal(t, int32(2), f.hasher.compares.Load(), "unknown email still spends a hash comparison")
}

func TestLogin_StampFailureIsInternal(t *testing.T) {
	f := setup(t)
	f.register(t, validRegisterInput("dana@example.com", false))
	f.repo.appendLoginStampFunc = func(context.Context, string, time.Time, int) error {
		return errors.New("timeout")
	}

	_, err := f.svc.Login(context.Background(), LoginInput{Email: "dana@example.com", Password: "Secret123!"})

	assert.ErrorIs(t, err, commonerrors.ErrInternalError)
}

func TestList_AdminOnly(t *testing.T) {
	f := setup(t)
	client := f.register(t, validRegisterInput("client@example.com", false))
	adminInput := validRegisterInput("admin@example.com", false)
	adminInput.IsAdmin = true
	admin := f.register(t, adminInput)

	_, err := f.svc.List(context.Background(), &client)
	assert.ErrorIs(t, err, commonerrors.ErrForbiddenRole)

	_, err = f.svc.List(context.Background(), nil)
	assert.ErrorIs(t, err, commonerrors.ErrMissingToken)

	views, err := f.svc.List(context.Background(), &admin)
	require.NoError(t, err)
	assert.Len(t, views, 2)
}

func TestGet_RequiresAdminAndSelf(t *testing.T) {
	f := setup(t)
	client := f.register(t, validRegisterInput("client@example.com", false))
	adminInput := validRegisterInput("admin@example.com", false)
	adminInput.IsAdmin = true
	admin := f.register(t, adminInput)

	_, err := f.svc.Get(context.Background(), &client, client.ID)
	assert.ErrorIs(t, err, commonerrors.ErrForbiddenRole)

	_, err = f.svc.Get(context.Background(), &admin, client.ID)
	assert.ErrorIs(t, err, commonerrors.ErrForbiddenNotOwner)

	view, err := f.svc.Get(context.Background(), &admin, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, admin.ID, view.ID)
}

func TestUpdate_MergesAndRevalidates(t *testing.T) {
	f := setup(t)
	client := f.register(t, validRegisterInput("client@example.com", false))

	view, err := f.svc.Update(context.Background(), &client, client.ID, domain.Patch{
		Name: &domain.NamePatch{Last: strPtr("Cohen")},
	})
	require.NoError(t, err)
	assert.Equal(t, "Dana", view.Name.First)
	assert.Equal(t, "Cohen", view.Name.Last)

	_, err = f.svc.Update(context.Background(), &client, client.ID, domain.Patch{Phone: strPtr("123")})
	assert.ErrorIs(t, err, commonerrors.ErrValidation)
}

func TestUpdate_PasswordIsRehashed(t *testing.T) {
	f := setup(t)
	client := f.register(t, validRegisterInput("client@example.com", false))

	_, err := f.svc.Update(context.Background(), &client, client.ID, domain.Patch{Password: strPtr("NewSecret9")})
	require.NoError(t, err)

	_, err = f.svc.Login(context.Background(), LoginInput{Email: "client@example.com", Password: "NewSecret9"})
	assert.NoError(t, err)

	_, err = f.svc.Update(context.Background(), &client, client.ID, domain.Patch{Password: strPtr("short")})
	assert.ErrorIs(t, err, commonerrors.ErrValidation)
}

func TestUpdate_OtherAccountForbidden(t *testing.T) {
	f := setup(t)
	a := f.register(t, validRegisterInput("a@example.com", false))
	b := f.register(t, validRegisterInput("b@example.com", false))

	_, err := f.svc.Update(context.Background(), &a, b.ID, domain.Patch{Phone: strPtr("0507654321")})

	assert.ErrorIs(t, err, commonerrors.ErrForbiddenNotOwner)
}

func TestToggleBusiness_RequestedValueIsNegated(t *testing.T) {
	f := setup(t)
	client := f.register(t, validRegisterInput("client@example.com", false))

	view, err := f.svc.ToggleBusiness(context.Background(), &client, client.ID, boolPtr(false))
	require.NoError(t, err)
	assert.True(t, view.IsBusiness)

	view, err = f.svc.ToggleBusiness(context.Background(), &client, client.ID, boolPtr(false))
	require.NoError(t, err)
	assert.True(t, view.IsBusiness, "same request value yields the same stored state")

	view, err = f.svc.ToggleBusiness(context.Background(), &client, client.ID, boolPtr(true))
	require.NoError(t, err)
	assert.False(t, view.IsBusiness)
}

func TestToggleBusiness_WithoutValueFlipsStoredState(t *testing.T) {
	f := setup(t)
	client := f.register(t, validRegisterInput("client@example.com", false))

	view, err := f.svc.ToggleBusiness(context.Background(), &client, client.ID, nil)
	require.NoError(t, err)
	assert.True(t, view.IsBusiness)

	view, err = f.svc.ToggleBusiness(context.Background(), &client, client.ID, nil)
	require.NoError(t, err)
	assert.False(t, view.IsBusiness)
}

func TestToggleBusiness_ConcurrentFlipsDoNotLoseUpdates(t *testing.T) {
	f := setup(t)
	client := f.register(t, validRegisterInput("client@example.com", false))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = f.svc.ToggleBusiness(context.Background(), &client, client.ID, nil)
		}()
	}
	wg.Wait()

	view, err := f.svc.ToggleBusiness(context.Background(), &client, client.ID, nil)
	require.NoError(t, err)
	assert.True(t, view.IsBusiness, "eleven flips from false end at true")
}

func TestDelete_AdminSelfOnly(t *testing.T) {
	f := setup(t)
	client := f.register(t, validRegisterInput("client@example.com", false))
	adminInput := validRegisterInput("admin@example.com", false)
	adminInput.IsAdmin = true
	admin := f.register(t, adminInput)

	_, err := f.svc.Delete(context.Background(), &client, client.ID)
	assert.ErrorIs(t, err, commonerrors.ErrForbiddenRole)

	_, err = f.svc.Delete(context.Background(), &admin, client.ID)
	assert.ErrorIs(t, err, commonerrors.ErrForbiddenNotOwner)

	deleted, err := f.svc.Delete(context.Background(), &admin, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, admin.ID, deleted.ID)

	_, err = f.repo.FindByID(context.Background(), admin.ID)
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}
