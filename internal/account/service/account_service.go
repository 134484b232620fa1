package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/fayad123/bcards-server/internal/account/domain"
	"github.com/fayad123/bcards-server/internal/account/repository"
	"github.com/fayad123/bcards-server/internal/auth/policy"
	"github.com/fayad123/bcards-server/internal/auth/token"
	"github.com/fayad123/bcards-server/internal/common/clock"
	"github.com/fayad123/bcards-server/internal/common/constants"
	commoncrypto "github.com/fayad123/bcards-server/internal/common/crypto"
	"github.com/fayad123/bcards-server/internal/common/logger"
	"github.com/fayad123/bcards-server/internal/common/validation"
	"github.com/fayad123/bcards-server/internal/observability/metrics"
)

type Validator interface {
	Struct(s any) error
	Var(field string, value any, tag string) error
}

type Dependencies struct {
	Repo        repository.Repository
	Hasher      commoncrypto.PasswordHasher
	IDGenerator commoncrypto.IDGenerator
	Tokens      token.Issuer
	Policy      *policy.Policy
	Validator   Validator
	Clock       clock.Clock
	Log         *logger.Logger
}

type Options struct {
	MaxLoginStamps int
}

type AccountService struct {
	repo           repository.Repository
	hasher         commoncrypto.PasswordHasher
	idGenerator    commoncrypto.IDGenerator
	tokens         token.Issuer
	policy         *policy.Policy
	validator      Validator
	clock          clock.Clock
	log            *logger.Logger
	maxLoginStamps int

	dummyOnce sync.Once
	dummyHash string
}

func NewAccountService(deps Dependencies, opts Options) *AccountService {
	if deps.Clock == nil {
		deps.Clock = clock.NewRealClock()
	}
	if deps.Validator == nil {
		deps.Validator = validation.New()
	}
	if deps.Log == nil {
		deps.Log = logger.NewDiscard()
	}
	if opts.MaxLoginStamps <= 0 {
		opts.MaxLoginStamps = constants.DefaultMaxLoginStamps
	}
	return &AccountService{
		repo:           deps.Repo,
		hasher:         deps.Hasher,
		idGenerator:    deps.IDGenerator,
		tokens:         deps.Tokens,
		policy:         deps.Policy,
		validator:      deps.Validator,
		clock:          deps.Clock,
		log:            deps.Log,
		maxLoginStamps: opts.MaxLoginStamps,
	}
}

func (s *AccountService) authorize(ctx context.Context, claims *token.Claims, op policy.Operation, id string) error {
	d := s.policy.Evaluate(claims, op, &policy.Resource{ID: id, OwnerID: id})
	if d.Allowed {
		return nil
	}
	fields := logger.Fields{
		"operation":  string(op),
		"reason":     string(d.Reason),
		"account_id": id,
		"action":     "account_access_denied",
	}
	if claims != nil {
		fields["caller_id"] = claims.ID
	}
	s.log.WithFields(ctx, fields).Warn("account access denied")
	return d.Err()
}

// Register creates an account and returns a token for it.
func (s *AccountService) Register(ctx context.Context, input RegisterInput) (string, error) {
	s.log.WithFields(ctx, logger.Fields{
		"email":  input.Email,
		"action": "register_attempt",
	}).Info("register attempt")

	if err := s.validator.Struct(input); err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"email":  input.Email,
			"action": "register_validation_failed",
		}).Warnf("register validation failed: %v", err)
		return "", err
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"email":  input.Email,
			"action": "register_hash_failed",
		}).Errorf("register failed: password hash error: %v", err)
		return "", asServiceError(err)
	}

	id, err := s.idGenerator.NewID()
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"email":  input.Email,
			"action": "register_id_generation_failed",
		}).Errorf("register failed: id generation error: %v", err)
		return "", asServiceError(err)
	}

	now := s.clock.Now()
	image := domain.Image{URL: constants.DefaultUserImageURL, Alt: constants.DefaultUserImageAlt}
	if input.Image != nil {
		if input.Image.URL != "" {
			image.URL = input.Image.URL
		}
		if input.Image.Alt != "" {
			image.Alt = input.Image.Alt
		}
	}

	account := domain.Account{
		ID:           id,
		Name:         input.Name,
		IsBusiness:   *input.IsBusiness,
		IsAdmin:      input.IsAdmin,
		Phone:        input.Phone,
		Email:        input.Email,
		PasswordHash: hash,
		Address:      input.Address,
		Image:        image,
		LoginStamps:  []time.Time{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, account); err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			s.log.WithFields(ctx, logger.Fields{
				"email":  input.Email,
				"action": "register_email_taken",
			}).Warn("register failed: email already registered")
			return "", domain.ErrEmailTaken
		}
		s.log.WithFields(ctx, logger.Fields{
			"email":  input.Email,
			"action": "register_create_failed",
		}).Errorf("register failed: %v", err)
		return "", asServiceError(err)
	}

	signed, err := s.tokens.Issue(account)
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"account_id": account.ID,
			"action":     "register_token_issue_failed",
		}).Errorf("register failed: token issue error: %v", err)
		return "", asServiceError(err)
	}

	metrics.AccountsRegistered.Inc()
	s.log.WithFields(ctx, logger.Fields{
		"account_id":  account.ID,
		"is_business": account.IsBusiness,
		"action":      "register_success",
	}).Info("register success")

	return signed, nil
}

// Login answers with the same error for an unknown email and a wrong
// password. A successful login is stamped before the token is issued.
func (s *AccountService) Login(ctx context.Context, input LoginInput) (string, error) {
	s.log.WithFields(ctx, logger.Fields{
		"email":  input.Email,
		"action": "login_attempt",
	}).Info("login attempt")

	if err := s.validator.Struct(input); err != nil {
		metrics.LoginAttempts.WithLabelValues("invalid_input").Inc()
		return "", err
	}

	account, err := s.repo.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			s.burnCompare(input.Password)
			metrics.LoginAttempts.WithLabelValues("invalid_credentials").Inc()
			s.log.WithFields(ctx, logger.Fields{
				"email":  input.Email,
				"action": "login_unknown_email",
			}).Warn("login failed: invalid credentials")
			return "", domain.ErrInvalidCredentials
		}
		s.log.WithFields(ctx, logger.Fields{
			"email":  input.Email,
			"action": "login_fetch_failed",
		}).Errorf("login failed: %v", err)
		return "", asServiceError(err)
	}

	if err := s.hasher.Compare(account.PasswordHash, input.Password); err != nil {
		metrics.LoginAttempts.WithLabelValues("invalid_credentials").Inc()
		s.log.WithFields(ctx, logger.Fields{
			"account_id": account.ID,
			"action":     "login_invalid_password",
		}).Warn("login failed: invalid credentials")
		return "", domain.ErrInvalidCredentials
	}

	if err := s.repo.AppendLoginStamp(ctx, account.ID, s.clock.Now(), s.maxLoginStamps); err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"account_id": account.ID,
			"action":     "login_stamp_failed",
		}).Errorf("login failed: could not record login: %v", err)
		return "", asServiceError(err)
	}

	signed, err := s.tokens.Issue(account)
	if err != nil {
		return "", asServiceError(err)
	}

	metrics.LoginAttempts.WithLabelValues("success").Inc()
	s.log.WithFields(ctx, logger.Fields{
		"account_id": account.ID,
		"action":     "login_success",
	}).Info("login success")

	return signed, nil
}

// burnCompare spends the same bcrypt work on unknown emails as on real ones.
func (s *AccountService) burnCompare(password string) {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.hasher.Hash("not-a-real-password")
	})
	if s.dummyHash != "" {
		_ = s.hasher.Compare(s.dummyHash, password)
	}
}

func (s *AccountService) List(ctx context.Context, claims *token.Claims) ([]domain.View, error) {
	if err := s.authorize(ctx, claims, policy.ListAccounts, ""); err != nil {
		return nil, err
	}

	accounts, err := s.repo.List(ctx)
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{"action": "list_accounts_failed"}).Errorf("list accounts failed: %v", err)
		return nil, asServiceError(err)
	}
	return domain.Views(accounts), nil
}

func (s *AccountService) Get(ctx context.Context, claims *token.Claims, id string) (domain.View, error) {
	if err := s.authorize(ctx, claims, policy.GetAccount, id); err != nil {
		return domain.View{}, err
	}

	account, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.View{}, asServiceError(err)
	}
	return account.View(), nil
}

// Update merges patch into the stored account, re-validates the merged
// record and persists it. Role flags are never changed here.
func (s *AccountService) Update(ctx context.Context, claims *token.Claims, id string, patch domain.Patch) (domain.View, error) {
	if err := s.authorize(ctx, claims, policy.UpdateAccount, id); err != nil {
		return domain.View{}, err
	}

	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.View{}, asServiceError(err)
	}

	merged := patch.Apply(current)
	if err := s.validator.Struct(merged); err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"account_id": id,
			"action":     "update_account_validation_failed",
		}).Warnf("update account validation failed: %v", err)
		return domain.View{}, err
	}

	if patch.Password != nil {
		if err := s.validator.Var("password", *patch.Password, "required,min=8,max=20"); err != nil {
			return domain.View{}, err
		}
		hash, err := s.hasher.Hash(*patch.Password)
		if err != nil {
			return domain.View{}, asServiceError(err)
		}
		merged.PasswordHash = hash
	}

	updated, err := s.repo.Update(ctx, merged)
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"account_id": id,
			"action":     "update_account_failed",
		}).Errorf("update account failed: %v", err)
		return domain.View{}, asServiceError(err)
	}

	s.log.WithFields(ctx, logger.Fields{
		"account_id": id,
		"caller_id":  claims.ID,
		"action":     "update_account_success",
	}).Info("account updated")

	return updated.View(), nil
}

// ToggleBusiness changes the business flag. With a requested value it stores
// NOT(requested), matching the established client contract. Without one it
// flips the stored value atomically.
func (s *AccountService) ToggleBusiness(ctx context.Context, claims *token.Claims, id string, requested *bool) (domain.View, error) {
	if err := s.authorize(ctx, claims, policy.ToggleBusiness, id); err != nil {
		return domain.View{}, err
	}

	var (
		updated domain.Account
		err     error
	)
	if requested != nil {
		updated, err = s.repo.SetBusiness(ctx, id, !*requested)
	} else {
		updated, err = s.repo.FlipBusiness(ctx, id)
	}
	if err != nil {
		return domain.View{}, asServiceError(err)
	}

	metrics.BusinessFlagToggles.Inc()
	s.log.WithFields(ctx, logger.Fields{
		"account_id":  id,
		"is_business": updated.IsBusiness,
		"action":      "toggle_business_success",
	}).Info("business flag toggled")

	return updated.View(), nil
}

func (s *AccountService) Delete(ctx context.Context, claims *token.Claims, id string) (domain.View, error) {
	if err := s.authorize(ctx, claims, policy.DeleteAccount, id); err != nil {
		return domain.View{}, err
	}

	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return domain.View{}, asServiceError(err)
	}

	s.log.WithFields(ctx, logger.Fields{
		"account_id": id,
		"action":     "delete_account_success",
	}).Info("account deleted")

	return deleted.View(), nil
}
