package pushsubs

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sheikhshariarnehal/nesttask-edge/pkg/db/models"
	pkgerrors "github.com/sheikhshariarnehal/nesttask-edge/pkg/errors"
	"github.com/sheikhshariarnehal/nesttask-edge/pkg/logger"
)

// Registrar is the push-service handshake: it mints the delivery endpoint
// for a user and revokes it again.
type Registrar interface {
	Register(ctx context.Context, userID uuid.UUID) (json.RawMessage, error)
	Unregister(ctx context.Context, userID uuid.UUID) error
}

// ServiceParams groups dependencies for the subscription service.
type ServiceParams struct {
	Repo      *Repository
	Registrar Registrar
	Logger    *logger.Logger
}

// Service exposes the subscribe and unsubscribe flows.
type Service interface {
	Subscribe(ctx context.Context, userID uuid.UUID, granted bool) (*models.PushSubscription, error)
	Unsubscribe(ctx context.Context, userID uuid.UUID) (bool, error)
	Get(ctx context.Context, userID uuid.UUID) (*models.PushSubscription, error)
}

type service struct {
	repo      *Repository
	registrar Registrar
	logg      *logger.Logger
}

// NewService builds a subscription service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "subscription repo is required")
	}
	if params.Registrar == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "registrar is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	return &service{
		repo:      params.Repo,
		registrar: params.Registrar,
		logg:      params.Logger,
	}, nil
}

// Subscribe registers the user for push delivery. An existing registration
// is reused; a fresh one that cannot be saved is revoked before the error
// surfaces, so no half-completed subscription lingers.
func (s *service) Subscribe(ctx context.Context, userID uuid.UUID, granted bool) (*models.PushSubscription, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if !granted {
		return nil, pkgerrors.New(pkgerrors.CodePermissionDenied, "notification permission not granted")
	}

	existing, err := s.repo.FindByUser(ctx, userID)
	if err == nil {
		if upsertErr := s.repo.Upsert(ctx, existing); upsertErr != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, upsertErr, "refresh subscription")
		}
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subscription")
	}

	endpoint, err := s.registrar.Register(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "register push endpoint")
	}

	subscription := &models.PushSubscription{
		UserID:       userID,
		Subscription: endpoint,
	}
	if err := s.repo.Upsert(ctx, subscription); err != nil {
		if revokeErr := s.registrar.Unregister(ctx, userID); revokeErr != nil {
			s.logg.Error(s.logg.WithUserID(ctx, userID.String()), "failed to revoke dangling registration", revokeErr)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInvalidState, err, "subscription could not be completed")
	}
	return subscription, nil
}

// Unsubscribe revokes the endpoint and removes the stored registration. It
// reports false when the user was not subscribed.
func (s *service) Unsubscribe(ctx context.Context, userID uuid.UUID) (bool, error) {
	if userID == uuid.Nil {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	if _, err := s.repo.FindByUser(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subscription")
	}

	if err := s.registrar.Unregister(ctx, userID); err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke push endpoint")
	}
	deleted, err := s.repo.DeleteByUser(ctx, userID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete subscription")
	}
	return deleted, nil
}

// Get returns the user's registration.
func (s *service) Get(ctx context.Context, userID uuid.UUID) (*models.PushSubscription, error) {
	subscription, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "subscription not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subscription")
	}
	return subscription, nil
}
