package notifications

import (
	"context"
	"errors"

	apperrors "github.com/jrsteele09/go-seller-dashboard/internal/errors"
	"github.com/rs/zerolog/log"
)

// Service reads and changes notification preferences.
type Service struct {
	repo Repo
}

func NewService(repo Repo) (*Service, error) {
	if repo == nil {
		return nil, errors.New("[NewService] preferences repo is required")
	}
	return &Service{repo: repo}, nil
}

// Get returns the seller's preferences, or the defaults when none are stored.
func (s *Service) Get(ctx context.Context, accessToken, userID string) (*Preferences, error) {
	p, err := s.repo.Get(ctx, accessToken, userID)
	switch {
	case err == nil:
		return p, nil
	case errors.Is(err, apperrors.ErrNotFound):
		return Defaults(), nil
	default:
		return nil, authRequired(err)
	}
}

// Toggle flips one channel of one item and stores the result.
func (s *Service) Toggle(ctx context.Context, accessToken, userID, itemID string, c Channel) (*Preferences, error) {
	p, err := s.Get(ctx, accessToken, userID)
	if err != nil {
		return nil, err
	}
	enabled, err := p.Toggle(itemID, c)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, accessToken, userID, p); err != nil {
		return nil, authRequired(err)
	}
	log.Debug().Str("user_id", userID).Str("item", itemID).Str("channel", string(c)).Bool("enabled", enabled).Msg("notification preference changed")
	return p, nil
}

// SetDailyDigest turns the daily digest on or off.
func (s *Service) SetDailyDigest(ctx context.Context, accessToken, userID string, enabled bool) (*Preferences, error) {
	p, err := s.Get(ctx, accessToken, userID)
	if err != nil {
		return nil, err
	}
	p.DailyDigest = enabled
	if err := s.repo.Save(ctx, accessToken, userID, p); err != nil {
		return nil, authRequired(err)
	}
	return p, nil
}

func authRequired(err error) error {
	if errors.Is(err, apperrors.ErrUnauthorized) {
		return apperrors.Wrapf(apperrors.ErrAuthRequired, "data api rejected credential")
	}
	return err
}
