package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"app/internal/model"
	"app/internal/repository"

	"github.com/rs/zerolog"
)

// EntitlementService derives a user's premium status from their grant history.
type EntitlementService struct {
	premiumRepo     repository.PremiumRepository
	inviteRepo      repository.InviteRepository
	rewardPerInvite int
	maxRewardDays   int
	logger          zerolog.Logger
}

// NewEntitlementService creates a new EntitlementService.
func NewEntitlementService(
	premiumRepo repository.PremiumRepository,
	inviteRepo repository.InviteRepository,
	rewardPerInvite, maxRewardDays int,
	logger zerolog.Logger,
) *EntitlementService {
	return &EntitlementService{
		premiumRepo:     premiumRepo,
		inviteRepo:      inviteRepo,
		rewardPerInvite: rewardPerInvite,
		maxRewardDays:   maxRewardDays,
		logger:          logger.With().Str("service", "EntitlementService").Logger(),
	}
}

// Status computes the premium view for a user. A user with no grants, or whose
// every grant has expired, is a regular user with zero remaining days.
func (s *EntitlementService) Status(ctx context.Context, userID string) (*model.PremiumStatus, error) {
	summary, err := s.premiumRepo.Summary(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading grant summary: %w", err)
	}
	invited, err := s.inviteRepo.CountRedemptions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("counting invites: %w", err)
	}

	status := &model.PremiumStatus{
		InvitedCount:    invited,
		TotalRewardDays: summary.TotalRewardDays,
		MaxRewardDays:   s.maxRewardDays,
		RewardPerInvite: s.rewardPerInvite,
	}
	if summary.EffectiveExpiry == nil {
		return status, nil
	}
	remaining := time.Until(*summary.EffectiveExpiry)
	if remaining <= 0 {
		return status, nil
	}
	status.IsPremium = true
	// Partial days round up: a grant expiring in one hour still reads as 1 day.
	status.RemainingDays = int(math.Ceil(remaining.Hours() / 24))
	status.ExpiresAt = summary.EffectiveExpiry
	return status, nil
}

// ErrGrantInvalid is returned for a manual grant with a non-positive duration.
var ErrGrantInvalid = errors.New("invalid grant duration")

// Grant issues a manual premium grant, extending the user's current expiry by
// the given number of days. Used by the admin surface; invite rewards go
// through the redemption transaction instead.
func (s *EntitlementService) Grant(ctx context.Context, userID string, days int) error {
	if days <= 0 {
		return ErrGrantInvalid
	}
	summary, err := s.premiumRepo.Summary(ctx, userID)
	if err != nil {
		return fmt.Errorf("loading grant summary: %w", err)
	}
	base := time.Now()
	if summary.EffectiveExpiry != nil && summary.EffectiveExpiry.After(base) {
		base = *summary.EffectiveExpiry
	}
	if err := s.premiumRepo.IssueGrant(ctx, userID, "admin", days, base.AddDate(0, 0, days)); err != nil {
		return fmt.Errorf("issuing admin grant: %w", err)
	}
	s.logger.Info().Str("user_id", userID).Int("days", days).Msg("Issued admin premium grant")
	return nil
}

// IsPremium is the boolean gate used by the content orchestrator.
func (s *EntitlementService) IsPremium(ctx context.Context, userID string) (bool, error) {
	summary, err := s.premiumRepo.Summary(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("loading grant summary: %w", err)
	}
	return summary.EffectiveExpiry != nil && summary.EffectiveExpiry.After(time.Now()), nil
}
