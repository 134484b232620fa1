package token

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	accountdomain "github.com/fayad123/bcards-server/internal/account/domain"
	"github.com/fayad123/bcards-server/internal/common/clock"
	commonerrors "github.com/fayad123/bcards-server/internal/common/errors"
)

const testSecret = "test-secret-key-must-be-at-least-32-bytes-long"

func testAccount() accountdomain.Account {
	return accountdomain.Account{
		ID:         "6f1c2d7e-8a4b-4c3d-9e2f-1a2b3c4d5e6f",
		Name:       accountdomain.Name{First: "Dana", Middle: "M", Last: "Levi"},
		Email:      "dana@example.com",
		IsBusiness: true,
		IsAdmin:    false,
	}
}

func TestService_RoundTrip(t *testing.T) {
	svc := NewService(testSecret, 0, clock.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)))
	acc := testAccount()

	raw, err := svc.Issue(acc)
	require.NoError(t, err)

	claims, err := svc.Verify(raw)
	require.NoError(t, err)
	assert.Equal(t, ClaimsFor(acc), claims)
}

func TestService_NoExpiryByDefault(t *testing.T) {
	c := clock.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	svc := NewService(testSecret, 0, c)

	raw, err := svc.Issue(testAccount())
	require.NoError(t, err)

	c.Advance(10 * 365 * 24 * time.Hour)

	_, err = svc.Verify(raw)
	assert.NoError(t, err)
}

func TestService_Expired(t *testing.T) {
	c := clock.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	svc := NewService(testSecret, time.Hour, c)

	raw, err := svc.Issue(testAccount())
	require.NoError(t, err)

	c.Advance(2 * time.Hour)

	_, err = svc.Verify(raw)
	assert.ErrorIs(t, err, commonerrors.ErrTokenExpired)
}

func TestService_Missing(t *testing.T) {
	svc := NewService(testSecret, 0, nil)

	_, err := svc.Verify("  ")

	assert.ErrorIs(t, err, commonerrors.ErrMissingToken)
}

func TestService_WrongSecret(t *testing.T) {
	issuer := NewService(testSecret, 0, nil)
	verifier := NewService(strings.Repeat("x", 40), 0, nil)

	raw, err := issuer.Issue(testAccount())
	require.NoError(t, err)

	_, err = verifier.Verify(raw)
	assert.ErrorIs(t, err, commonerrors.ErrInvalidToken)
}

func TestService_Tampered(t *testing.T) {
	svc := NewService(testSecret, 0, nil)

	raw, err := svc.Issue(testAccount())
	require.NoError(t, err)

	parts := strings.Split(raw, ".")
	require.Len(t, parts, 3)
	forged, err := NewService(strings.Repeat("y", 40), 0, nil).Issue(accountdomain.Account{ID: "x", IsAdmin: true})
	require.NoError(t, err)
	parts[1] = strings.Split(forged, ".")[1]

	_, err = svc.Verify(strings.Join(parts, "."))
	assert.ErrorIs(t, err, commonerrors.ErrInvalidToken)
}

func TestService_RejectsOtherAlgorithms(t *testing.T) {
	svc := NewService(testSecret, 0, nil)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"_id": "x", "isAdmin": true}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = svc.Verify(unsigned)
	assert.ErrorIs(t, err, commonerrors.ErrInvalidToken)
}

func TestService_RejectsTokenWithoutID(t *testing.T) {
	svc := NewService(testSecret, 0, nil)

	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"email": "a@b.co"}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = svc.Verify(raw)
	assert.ErrorIs(t, err, commonerrors.ErrInvalidToken)
}
