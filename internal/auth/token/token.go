// Package token issues and verifies identity tokens carrying a fixed claim set.
package token

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	accountdomain "github.com/fayad123/bcards-server/internal/account/domain"
	"github.com/fayad123/bcards-server/internal/common/clock"
	commonerrors "github.com/fayad123/bcards-server/internal/common/errors"
	"github.com/fayad123/bcards-server/internal/observability/metrics"
)

type Name struct {
	First string `json:"first"`
	Last  string `json:"last"`
}

// Claims is the projection of an account taken when the token was issued.
// It is not refreshed when the account changes.
type Claims struct {
	ID         string `json:"_id"`
	Name       Name   `json:"name"`
	Email      string `json:"email"`
	IsAdmin    bool   `json:"isAdmin"`
	IsBusiness bool   `json:"isBusiness"`
}

func ClaimsFor(a accountdomain.Account) Claims {
	return Claims{
		ID:         a.ID,
		Name:       Name{First: a.Name.First, Last: a.Name.Last},
		Email:      a.Email,
		IsAdmin:    a.IsAdmin,
		IsBusiness: a.IsBusiness,
	}
}

type wireClaims struct {
	Claims
	jwt.RegisteredClaims
}

type Issuer interface {
	Issue(a accountdomain.Account) (string, error)
}

type Verifier interface {
	Verify(raw string) (Claims, error)
}

type Service struct {
	secret []byte
	ttl    time.Duration
	clock  clock.Clock
	parser *jwt.Parser
}

// NewService builds a token service. ttl <= 0 issues tokens without expiry.
func NewService(secret string, ttl time.Duration, c clock.Clock) *Service {
	if c == nil {
		c = clock.NewRealClock()
	}
	return &Service{
		secret: []byte(secret),
		ttl:    ttl,
		clock:  c,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithTimeFunc(c.Now),
		),
	}
}

func (s *Service) Issue(a accountdomain.Account) (string, error) {
	now := s.clock.Now()
	wc := wireClaims{
		Claims: ClaimsFor(a),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if s.ttl > 0 {
		wc.ExpiresAt = jwt.NewNumericDate(now.Add(s.ttl))
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, wc).SignedString(s.secret)
	if err != nil {
		return "", commonerrors.ErrInternalError.WithCause(err)
	}

	metrics.TokensIssued.Inc()
	return signed, nil
}

// Verify checks signature, algorithm and expiry. It never touches storage.
func (s *Service) Verify(raw string) (Claims, error) {
	metrics.TokenValidationsTotal.Inc()

	raw = strings.TrimSpace(raw)
	if raw == "" {
		metrics.TokenValidationsFailed.WithLabelValues("missing").Inc()
		return Claims{}, commonerrors.ErrMissingToken
	}

	var wc wireClaims
	parsed, err := s.parser.ParseWithClaims(raw, &wc, func(*jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			metrics.TokenValidationsFailed.WithLabelValues("expired").Inc()
			return Claims{}, commonerrors.ErrTokenExpired
		}
		metrics.TokenValidationsFailed.WithLabelValues("invalid").Inc()
		return Claims{}, commonerrors.ErrInvalidToken.WithCause(err)
	}
	if !parsed.Valid || wc.Claims.ID == "" {
		metrics.TokenValidationsFailed.WithLabelValues("invalid").Inc()
		return Claims{}, commonerrors.ErrInvalidToken
	}

	return wc.Claims, nil
}
