package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// GrantSummary is the aggregate entitlement view of one user.
type GrantSummary struct {
	// EffectiveExpiry is the maximum expiry across all grants; nil when the
	// user holds no grants.
	EffectiveExpiry *time.Time
	// TotalRewardDays is the sum of invite-sourced grant durations ever issued.
	TotalRewardDays int
}

// PremiumRepository reads and writes premium grants.
type PremiumRepository interface {
	// Summary aggregates a user's grants. A user with no grants yields a zero
	// summary, not an error.
	Summary(ctx context.Context, userID string) (GrantSummary, error)
	// IssueGrant inserts a grant with an explicit expiry, used by the admin
	// grant path. Invite rewards are written inside the redemption transaction.
	IssueGrant(ctx context.Context, userID, source string, rewardDays int, expiresAt time.Time) error
}

type premiumRepo struct {
	pool *pgxpool.Pool
}

// NewPremiumRepo creates a new PremiumRepository.
func NewPremiumRepo(pool *pgxpool.Pool) PremiumRepository {
	return &premiumRepo{pool: pool}
}

func (r *premiumRepo) Summary(ctx context.Context, userID string) (GrantSummary, error) {
	const q = `
		SELECT COALESCE(SUM(reward_days) FILTER (WHERE source = 'invite'), 0),
		       MAX(expires_at)
		FROM premium_grants
		WHERE user_id = $1
	`
	var s GrantSummary
	if err := r.pool.QueryRow(ctx, q, userID).Scan(&s.TotalRewardDays, &s.EffectiveExpiry); err != nil {
		return GrantSummary{}, fmt.Errorf("summarizing grants for user %s: %w", userID, err)
	}
	return s, nil
}

func (r *premiumRepo) IssueGrant(ctx context.Context, userID, source string, rewardDays int, expiresAt time.Time) error {
	const q = `
		INSERT INTO premium_grants (user_id, source, reward_days, expires_at)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := r.pool.Exec(ctx, q, userID, source, rewardDays, expiresAt); err != nil {
		return fmt.Errorf("issuing grant for user %s: %w", userID, err)
	}
	return nil
}
