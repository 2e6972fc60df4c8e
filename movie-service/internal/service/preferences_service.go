package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/weiawesome/cinema-chronicles/movie-service/internal/audit"
	"github.com/weiawesome/cinema-chronicles/movie-service/internal/domain"
	"github.com/weiawesome/cinema-chronicles/movie-service/internal/metrics"
	"github.com/weiawesome/cinema-chronicles/movie-service/internal/repository"
	"github.com/weiawesome/cinema-chronicles/pkg/pubsub"
)

type preferencesServiceImpl struct {
	repo   repository.PreferencesRepository
	events activityPublisher
}

// NewPreferencesService creates a new preferences service. pub may be nil.
func NewPreferencesService(repo repository.PreferencesRepository, pub pubsub.Publisher, m *metrics.Collector) PreferencesService {
	return &preferencesServiceImpl{
		repo:   repo,
		events: newActivityPublisher(pub, m),
	}
}

// Get returns the saved preferences, or the defaults for a user who never
// saved any.
func (s *preferencesServiceImpl) Get(ctx context.Context, userID uint) (*domain.Preferences, error) {
	p, err := s.repo.Get(ctx, userID)
	if errors.Is(err, repository.ErrPreferencesNotFound) {
		return domain.DefaultPreferences(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load preferences: %w", err)
	}
	return p, nil
}

func (s *preferencesServiceImpl) Update(ctx context.Context, userID uint, req *domain.UpdatePreferencesRequest) (*domain.Preferences, error) {
	p, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	req.Apply(p)
	if err := p.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, userID, p); err != nil {
		return nil, fmt.Errorf("failed to save preferences: %w", err)
	}

	s.events.publish(ctx, userID, pubsub.KindPreferencesChanged, pubsub.PreferencesChangedPayload{})
	audit.Log(ctx, audit.ActionPreferencesUpdate, userIDString(userID), "preferences updated")
	return p, nil
}

// Reset restores the defaults.
func (s *preferencesServiceImpl) Reset(ctx context.Context, userID uint) (*domain.Preferences, error) {
	if err := s.repo.Delete(ctx, userID); err != nil {
		return nil, fmt.Errorf("failed to reset preferences: %w", err)
	}

	s.events.publish(ctx, userID, pubsub.KindPreferencesChanged, pubsub.PreferencesChangedPayload{Reset: true})
	audit.Log(ctx, audit.ActionPreferencesReset, userIDString(userID), "preferences reset")
	return domain.DefaultPreferences(), nil
}
