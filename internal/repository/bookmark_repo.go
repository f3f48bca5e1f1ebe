package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"app/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
)

type BookmarkRepository interface {
	// Add upserts a bookmark; re-bookmarking the same item refreshes its payload.
	Add(ctx context.Context, userID, itemID, itemType string, itemData json.RawMessage) error
	Remove(ctx context.Context, userID, itemID string) error
	ListByUser(ctx context.Context, userID string) ([]model.Bookmark, error)
	// RecordInteraction appends to the interaction log (trash/rate actions).
	RecordInteraction(ctx context.Context, userID, itemID string, action model.InteractionType) error
}

type bookmarkRepo struct {
	pool *pgxpool.Pool
}

func NewBookmarkRepo(pool *pgxpool.Pool) BookmarkRepository {
	return &bookmarkRepo{pool: pool}
}

func (r *bookmarkRepo) Add(ctx context.Context, userID, itemID, itemType string, itemData json.RawMessage) error {
	const q = `
		INSERT INTO bookmarks (user_id, item_id, item_type, item_data)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, item_id) DO UPDATE SET item_data = EXCLUDED.item_data
	`
	if _, err := r.pool.Exec(ctx, q, userID, itemID, itemType, itemData); err != nil {
		return fmt.Errorf("adding bookmark: %w", err)
	}
	return nil
}

func (r *bookmarkRepo) Remove(ctx context.Context, userID, itemID string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM bookmarks WHERE user_id = $1 AND item_id = $2`, userID, itemID); err != nil {
		return fmt.Errorf("removing bookmark: %w", err)
	}
	return nil
}

func (r *bookmarkRepo) ListByUser(ctx context.Context, userID string) ([]model.Bookmark, error) {
	const q = `
		SELECT user_id, item_id, item_type, item_data, created_at
		FROM bookmarks
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("listing bookmarks: %w", err)
	}
	defer rows.Close()

	bookmarks := []model.Bookmark{}
	for rows.Next() {
		var b model.Bookmark
		if err := rows.Scan(&b.UserID, &b.ItemID, &b.ItemType, &b.ItemData, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning bookmark: %w", err)
		}
		bookmarks = append(bookmarks, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating bookmarks: %w", err)
	}
	return bookmarks, nil
}

func (r *bookmarkRepo) RecordInteraction(ctx context.Context, userID, itemID string, action model.InteractionType) error {
	const q = `
		INSERT INTO interactions (user_id, insight_id, action_type)
		VALUES ($1, $2, $3)
	`
	if _, err := r.pool.Exec(ctx, q, userID, itemID, string(action)); err != nil {
		return fmt.Errorf("recording interaction: %w", err)
	}
	return nil
}
