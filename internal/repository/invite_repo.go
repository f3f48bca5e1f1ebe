package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"app/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrCodeNotFound is returned when an invite code does not exist.
	ErrCodeNotFound = errors.New("invite code not found")
	// ErrCodeTaken is returned when a freshly generated code collides.
	ErrCodeTaken = errors.New("invite code already taken")
	// ErrAlreadyInvited is returned when the invited user has redeemed a code before.
	ErrAlreadyInvited = errors.New("user already redeemed an invite code")
)

// RedemptionResult reports the outcome of an applied redemption.
type RedemptionResult struct {
	OwnerID       string
	RewardDays    int       // days actually granted, after the yearly cap
	OwnerExpires  time.Time // owner's new effective expiry
	TotalRewarded int       // owner's lifetime invite reward days after this redemption
}

// InviteRepository persists invite codes and their redemptions.
type InviteRepository interface {
	// GetCodeByUser returns the user's invite code, or nil when none exists.
	GetCodeByUser(ctx context.Context, userID string) (*model.InviteCode, error)
	// GetByCode returns the invite code row, or nil when the code is unknown.
	GetByCode(ctx context.Context, code string) (*model.InviteCode, error)
	// CreateCode inserts a new code for the user. Returns ErrCodeTaken on collision.
	CreateCode(ctx context.Context, userID, code string) (*model.InviteCode, error)
	// ApplyRedemption atomically records the redemption and extends the code
	// owner's premium horizon. rewardDays/maxRewardDays define the policy.
	ApplyRedemption(ctx context.Context, code, newUserID string, rewardDays, maxRewardDays int) (*RedemptionResult, error)
	// CountRedemptions returns how many users redeemed the given user's code.
	CountRedemptions(ctx context.Context, userID string) (int, error)
}

type inviteRepo struct {
	pool *pgxpool.Pool
}

// NewInviteRepo creates a new InviteRepository.
func NewInviteRepo(pool *pgxpool.Pool) InviteRepository {
	return &inviteRepo{pool: pool}
}

func (r *inviteRepo) GetCodeByUser(ctx context.Context, userID string) (*model.InviteCode, error) {
	const q = `
		SELECT c.code, c.user_id, c.created_at,
		       COALESCE(array_agg(red.invited_user_id) FILTER (WHERE red.invited_user_id IS NOT NULL), '{}')
		FROM invite_codes c
		LEFT JOIN invite_redemptions red ON red.code = c.code
		WHERE c.user_id = $1
		GROUP BY c.code, c.user_id, c.created_at
	`
	return r.scanCode(r.pool.QueryRow(ctx, q, userID))
}

func (r *inviteRepo) GetByCode(ctx context.Context, code string) (*model.InviteCode, error) {
	const q = `
		SELECT c.code, c.user_id, c.created_at,
		       COALESCE(array_agg(red.invited_user_id) FILTER (WHERE red.invited_user_id IS NOT NULL), '{}')
		FROM invite_codes c
		LEFT JOIN invite_redemptions red ON red.code = c.code
		WHERE c.code = $1
		GROUP BY c.code, c.user_id, c.created_at
	`
	return r.scanCode(r.pool.QueryRow(ctx, q, code))
}

func (r *inviteRepo) scanCode(row pgx.Row) (*model.InviteCode, error) {
	var ic model.InviteCode
	if err := row.Scan(&ic.Code, &ic.UserID, &ic.CreatedAt, &ic.UsedBy); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetching invite code: %w", err)
	}
	ic.UsedCount = len(ic.UsedBy)
	return &ic, nil
}

func (r *inviteRepo) CreateCode(ctx context.Context, userID, code string) (*model.InviteCode, error) {
	const q = `
		INSERT INTO invite_codes (code, user_id)
		VALUES ($1, $2)
		RETURNING code, user_id, created_at
	`
	var ic model.InviteCode
	err := r.pool.QueryRow(ctx, q, code, userID).Scan(&ic.Code, &ic.UserID, &ic.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrCodeTaken
		}
		return nil, fmt.Errorf("creating invite code: %w", err)
	}
	ic.UsedBy = []string{}
	return &ic, nil
}

// ApplyRedemption runs the whole redemption as one transaction. The invite
// code row is locked so concurrent redemptions of the same code serialize, and
// the primary key on invite_redemptions.invited_user_id makes a repeated
// redeemer exactly-once across all codes.
func (r *inviteRepo) ApplyRedemption(ctx context.Context, code, newUserID string, rewardDays, maxRewardDays int) (*RedemptionResult, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("starting redemption transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var ownerID string
	err = tx.QueryRow(ctx, `SELECT user_id FROM invite_codes WHERE code = $1 FOR UPDATE`, code).Scan(&ownerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCodeNotFound
		}
		return nil, fmt.Errorf("locking invite code: %w", err)
	}

	tag, err := tx.Exec(ctx, `
		INSERT INTO invite_redemptions (invited_user_id, code)
		VALUES ($1, $2)
		ON CONFLICT (invited_user_id) DO NOTHING
	`, newUserID, code)
	if err != nil {
		return nil, fmt.Errorf("recording redemption: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrAlreadyInvited
	}

	var totalRewarded int
	var currentExpiry *time.Time
	err = tx.QueryRow(ctx, `
		SELECT COALESCE(SUM(reward_days) FILTER (WHERE source = 'invite'), 0),
		       MAX(expires_at)
		FROM premium_grants
		WHERE user_id = $1
	`, ownerID).Scan(&totalRewarded, &currentExpiry)
	if err != nil {
		return nil, fmt.Errorf("reading owner grants: %w", err)
	}

	actual := rewardDays
	if remaining := maxRewardDays - totalRewarded; remaining < actual {
		actual = remaining
	}
	if actual < 0 {
		actual = 0
	}

	now := time.Now()
	base := now
	if currentExpiry != nil && currentExpiry.After(now) {
		base = *currentExpiry
	}
	newExpiry := base.AddDate(0, 0, actual)
	if cap := now.AddDate(0, 0, maxRewardDays); newExpiry.After(cap) {
		newExpiry = cap
	}

	if actual > 0 {
		_, err = tx.Exec(ctx, `
			INSERT INTO premium_grants (user_id, source, reward_days, expires_at)
			VALUES ($1, 'invite', $2, $3)
		`, ownerID, actual, newExpiry)
		if err != nil {
			return nil, fmt.Errorf("issuing premium grant: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing redemption: %w", err)
	}
	return &RedemptionResult{
		OwnerID:       ownerID,
		RewardDays:    actual,
		OwnerExpires:  newExpiry,
		TotalRewarded: totalRewarded + actual,
	}, nil
}

func (r *inviteRepo) CountRedemptions(ctx context.Context, userID string) (int, error) {
	const q = `
		SELECT COUNT(*)
		FROM invite_redemptions red
		JOIN invite_codes c ON c.code = red.code
		WHERE c.user_id = $1
	`
	var n int
	if err := r.pool.QueryRow(ctx, q, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting redemptions: %w", err)
	}
	return n, nil
}
