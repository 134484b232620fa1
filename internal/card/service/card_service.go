package service

import (
	"context"
	"errors"

	"github.com/fayad123/bcards-server/internal/auth/policy"
	"github.com/fayad123/bcards-server/internal/auth/token"
	"github.com/fayad123/bcards-server/internal/card/cache"
	"github.com/fayad123/bcards-server/internal/card/domain"
	"github.com/fayad123/bcards-server/internal/card/repository"
	"github.com/fayad123/bcards-server/internal/common/clock"
	commoncrypto "github.com/fayad123/bcards-server/internal/common/crypto"
	"github.com/fayad123/bcards-server/internal/common/logger"
	"github.com/fayad123/bcards-server/internal/common/validation"
	"github.com/fayad123/bcards-server/internal/observability/metrics"
)

type Validator interface {
	Struct(s any) error
}

type Dependencies struct {
	Repo        repository.Repository
	Cache       cache.Cache
	IDGenerator commoncrypto.IDGenerator
	Policy      *policy.Policy
	Validator   Validator
	Clock       clock.Clock
	Log         *logger.Logger
}

type CardService struct {
	repo        repository.Repository
	cache       cache.Cache
	idGenerator commoncrypto.IDGenerator
	policy      *policy.Policy
	validator   Validator
	clock       clock.Clock
	log         *logger.Logger
}

func NewCardService(deps Dependencies) *CardService {
	if deps.Cache == nil {
		deps.Cache = cache.Noop{}
	}
	if deps.Clock == nil {
		deps.Clock = clock.NewRealClock()
	}
	if deps.Validator == nil {
		deps.Validator = validation.New()
	}
	if deps.Log == nil {
		deps.Log = logger.NewDiscard()
	}
	return &CardService{
		repo:        deps.Repo,
		cache:       deps.Cache,
		idGenerator: deps.IDGenerator,
		policy:      deps.Policy,
		validator:   deps.Validator,
		clock:       deps.Clock,
		log:         deps.Log,
	}
}

func (s *CardService) authorize(ctx context.Context, claims *token.Claims, op policy.Operation, res *policy.Resource) error {
	d := s.policy.Evaluate(claims, op, res)
	if d.Allowed {
		return nil
	}
	fields := logger.Fields{
		"operation": string(op),
		"reason":    string(d.Reason),
		"action":    "card_access_denied",
	}
	if res != nil {
		fields["card_id"] = res.ID
	}
	if claims != nil {
		fields["caller_id"] = claims.ID
	}
	s.log.WithFields(ctx, fields).Warn("card access denied")
	return d.Err()
}

// Create stores a new card owned by the caller. Any owner or likes sent by
// the client are ignored.
func (s *CardService) Create(ctx context.Context, claims *token.Claims, input domain.Input) (domain.Card, error) {
	if err := s.authorize(ctx, claims, policy.CreateCard, nil); err != nil {
		return domain.Card{}, err
	}

	card := input.ToCard()
	card.ApplyDefaults()
	if err := s.validator.Struct(card); err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"caller_id": claims.ID,
			"action":    "create_card_validation_failed",
		}).Warnf("create card validation failed: %v", err)
		return domain.Card{}, err
	}

	id, err := s.idGenerator.NewID()
	if err != nil {
		return domain.Card{}, asServiceError(err)
	}

	now := s.clock.Now()
	card.ID = id
	card.UserID = claims.ID
	card.Likes = []string{}
	card.CreatedAt = now
	card.UpdatedAt = now

	if err := s.repo.Create(ctx, card); err != nil {
		if errors.Is(err, domain.ErrCardEmailTaken) {
			s.log.WithFields(ctx, logger.Fields{
				"email":  card.Email,
				"action": "create_card_email_taken",
			}).Warn("create card failed: email already used")
			return domain.Card{}, domain.ErrCardEmailTaken
		}
		s.log.WithFields(ctx, logger.Fields{
			"caller_id": claims.ID,
			"action":    "create_card_failed",
		}).Errorf("create card failed: %v", err)
		return domain.Card{}, asServiceError(err)
	}

	metrics.CardsCreated.Inc()
	s.log.WithFields(ctx, logger.Fields{
		"card_id": card.ID,
		"user_id": card.UserID,
		"action":  "create_card_success",
	}).Info("card created")

	return card, nil
}

func (s *CardService) List(ctx context.Context) ([]domain.Card, error) {
	cards, err := s.repo.List(ctx)
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{"action": "list_cards_failed"}).Errorf("list cards failed: %v", err)
		return nil, asServiceError(err)
	}
	return cards, nil
}

// Get reads through the cache. Mutations write their result back with Put,
// and a read that loses the race to one is dropped by Fill's version check.
func (s *CardService) Get(ctx context.Context, id string) (domain.Card, error) {
	if card, ok := s.cache.Get(ctx, id); ok {
		return card, nil
	}

	card, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Card{}, asServiceError(err)
	}
	s.cache.Fill(ctx, card)
	return card, nil
}

// Update merges patch into the stored card and re-validates the result.
// Ownership is checked against the stored user_id.
func (s *CardService) Update(ctx context.Context, claims *token.Claims, id string, patch domain.Patch) (domain.Card, error) {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Card{}, asServiceError(err)
	}

	if err := s.authorize(ctx, claims, policy.UpdateCard, &policy.Resource{ID: id, OwnerID: current.UserID}); err != nil {
		return domain.Card{}, err
	}

	merged := patch.Apply(current)
	if err := s.validator.Struct(merged); err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"card_id": id,
			"action":  "update_card_validation_failed",
		}).Warnf("update card validation failed: %v", err)
		return domain.Card{}, err
	}

	updated, err := s.repo.Update(ctx, merged)
	if err != nil {
		s.cache.Evict(ctx, id)
		s.log.WithFields(ctx, logger.Fields{
			"card_id": id,
			"action":  "update_card_failed",
		}).Errorf("update card failed: %v", err)
		return domain.Card{}, asServiceError(err)
	}

	s.log.WithFields(ctx, logger.Fields{
		"card_id":   id,
		"caller_id": claims.ID,
		"action":    "update_card_success",
	}).Info("card updated")

	s.cache.Put(ctx, updated)
	return updated, nil
}

// ToggleLike adds the caller to the card's likes, or removes them when
// already present. Two calls in a row leave the likes unchanged.
func (s *CardService) ToggleLike(ctx context.Context, claims *token.Claims, id string) (domain.Card, error) {
	if err := s.authorize(ctx, claims, policy.ToggleLike, &policy.Resource{ID: id}); err != nil {
		return domain.Card{}, err
	}

	card, err := s.repo.ToggleLike(ctx, id, claims.ID)
	if err != nil {
		s.cache.Evict(ctx, id)
		return domain.Card{}, asServiceError(err)
	}
	s.cache.Put(ctx, card)

	state := "unliked"
	if card.LikedBy(claims.ID) {
		state = "liked"
	}
	metrics.CardLikeToggles.WithLabelValues(state).Inc()
	s.log.WithFields(ctx, logger.Fields{
		"card_id":   id,
		"caller_id": claims.ID,
		"state":     state,
		"action":    "toggle_like_success",
	}).Info("card like toggled")

	return card, nil
}

func (s *CardService) Delete(ctx context.Context, claims *token.Claims, id string) (domain.Card, error) {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Card{}, asServiceError(err)
	}

	if err := s.authorize(ctx, claims, policy.DeleteCard, &policy.Resource{ID: id, OwnerID: current.UserID}); err != nil {
		return domain.Card{}, err
	}

	deleted, err := s.repo.Delete(ctx, id)
	s.cache.Evict(ctx, id)
	if err != nil {
		return domain.Card{}, asServiceError(err)
	}

	fields := logger.Fields{
		"card_id": id,
		"action":  "delete_card_success",
	}
	if claims != nil {
		fields["caller_id"] = claims.ID
	}
	s.log.WithFields(ctx, fields).Info("card deleted")

	return deleted, nil
}
