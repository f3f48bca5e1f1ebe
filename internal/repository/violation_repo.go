package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ViolationRepository records rejected inputs and manages the block list.
type ViolationRepository interface {
	// Record stores a violation and returns the user's total count.
	Record(ctx context.Context, userID, violationType, content string) (int, error)
	IsBlocked(ctx context.Context, userID string) (bool, error)
	Block(ctx context.Context, userID, reason string) error
	Unblock(ctx context.Context, userID string) error
}

type violationRepo struct {
	pool *pgxpool.Pool
}

func NewViolationRepo(pool *pgxpool.Pool) ViolationRepository {
	return &violationRepo{pool: pool}
}

func (r *violationRepo) Record(ctx context.Context, userID, violationType, content string) (int, error) {
	if len(content) > 500 {
		content = content[:500]
	}
	const q = `
		WITH ins AS (
			INSERT INTO violations (user_id, violation_type, content)
			VALUES ($1, $2, $3)
		)
		SELECT COUNT(*) + 1 FROM violations WHERE user_id = $1
	`
	var count int
	if err := r.pool.QueryRow(ctx, q, userID, violationType, content).Scan(&count); err != nil {
		return 0, fmt.Errorf("recording violation: %w", err)
	}
	return count, nil
}

func (r *violationRepo) IsBlocked(ctx context.Context, userID string) (bool, error) {
	var blocked bool
	const q = `SELECT EXISTS (SELECT 1 FROM blocked_users WHERE user_id = $1)`
	if err := r.pool.QueryRow(ctx, q, userID).Scan(&blocked); err != nil {
		return false, fmt.Errorf("checking block list: %w", err)
	}
	return blocked, nil
}

func (r *violationRepo) Block(ctx context.Context, userID, reason string) error {
	const q = `
		INSERT INTO blocked_users (user_id, reason)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET reason = EXCLUDED.reason
	`
	if _, err := r.pool.Exec(ctx, q, userID, reason); err != nil {
		return fmt.Errorf("blocking user %s: %w", userID, err)
	}
	return nil
}

func (r *violationRepo) Unblock(ctx context.Context, userID string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM blocked_users WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("unblocking user %s: %w", userID, err)
	}
	return nil
}
