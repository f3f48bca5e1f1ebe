package repository

import (
	"context"
	"errors"
	"fmt"

	"app/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ContentRepository is the daily content cache: batches of generated cards
// keyed by (user, kind, date). Append is the only mutation; items deduplicate
// on card ID through the store's uniqueness constraint, so concurrent writers
// converge on the same batch instead of overwriting each other.
type ContentRepository interface {
	// Read returns the batch for the key, or nil when none exists.
	Read(ctx context.Context, key model.BatchKey) (*model.DailyBatch, error)
	// UpsertAppend creates the batch if needed and appends the novel items,
	// returning the full batch after the merge.
	UpsertAppend(ctx context.Context, key model.BatchKey, profession string, items []model.InsightCard) (*model.DailyBatch, error)
	// ReadRange returns all batches for the user and kind within [from, to],
	// newest first. Used by weekly history views.
	ReadRange(ctx context.Context, userID string, kind model.ContentKind, from, to string) ([]model.DailyBatch, error)
	// ReadDate returns every user's batches for one date and kind; the share
	// page uses it with kind=general_news.
	ReadDate(ctx context.Context, kind model.ContentKind, date string, limit int) ([]model.InsightCard, error)
}

type contentRepo struct {
	pool *pgxpool.Pool
}

// NewContentRepo creates a new ContentRepository.
func NewContentRepo(pool *pgxpool.Pool) ContentRepository {
	return &contentRepo{pool: pool}
}

func (r *contentRepo) Read(ctx context.Context, key model.BatchKey) (*model.DailyBatch, error) {
	const q = `
		SELECT id, user_id, kind, batch_date::text, profession, created_at
		FROM content_batches
		WHERE user_id = $1 AND kind = $2 AND batch_date = $3
	`
	var b model.DailyBatch
	err := r.pool.QueryRow(ctx, q, key.UserID, string(key.Kind), key.Date).Scan(
		&b.ID, &b.UserID, &b.Kind, &b.Date, &b.Profession, &b.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading batch: %w", err)
	}
	items, err := r.readItems(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	b.Items = items
	return &b, nil
}

func (r *contentRepo) UpsertAppend(ctx context.Context, key model.BatchKey, profession string, items []model.InsightCard) (*model.DailyBatch, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("starting append transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	// The unique key on (user_id, kind, batch_date) serializes concurrent
	// first writers: the loser of the insert race falls through to the
	// existing row and merges into it.
	var batchID int64
	err = tx.QueryRow(ctx, `
		INSERT INTO content_batches (user_id, kind, batch_date, profession)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, kind, batch_date) DO UPDATE SET profession = content_batches.profession
		RETURNING id
	`, key.UserID, string(key.Kind), key.Date, profession).Scan(&batchID)
	if err != nil {
		return nil, fmt.Errorf("upserting batch: %w", err)
	}

	for pos, item := range items {
		_, err = tx.Exec(ctx, `
			INSERT INTO content_items (batch_id, item_id, title, tags, summary, impact, prompt, url, ts, position)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9,
			        (SELECT COALESCE(MAX(position), -1) + 1 + $10 FROM content_items WHERE batch_id = $1))
			ON CONFLICT (batch_id, item_id) DO NOTHING
		`, batchID, item.ID, item.Title, item.Tags, item.Summary, item.Impact, item.Prompt, item.URL, item.Timestamp, pos)
		if err != nil {
			return nil, fmt.Errorf("appending item %s: %w", item.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing append: %w", err)
	}
	return r.Read(ctx, key)
}

func (r *contentRepo) ReadRange(ctx context.Context, userID string, kind model.ContentKind, from, to string) ([]model.DailyBatch, error) {
	const q = `
		SELECT id, user_id, kind, batch_date::text, profession, created_at
		FROM content_batches
		WHERE user_id = $1 AND kind = $2 AND batch_date BETWEEN $3 AND $4
		ORDER BY batch_date DESC
	`
	rows, err := r.pool.Query(ctx, q, userID, string(kind), from, to)
	if err != nil {
		return nil, fmt.Errorf("reading batch range: %w", err)
	}
	defer rows.Close()

	var batches []model.DailyBatch
	for rows.Next() {
		var b model.DailyBatch
		if err := rows.Scan(&b.ID, &b.UserID, &b.Kind, &b.Date, &b.Profession, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning batch: %w", err)
		}
		batches = append(batches, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating batches: %w", err)
	}
	for i := range batches {
		items, err := r.readItems(ctx, batches[i].ID)
		if err != nil {
			return nil, err
		}
		batches[i].Items = items
	}
	return batches, nil
}

func (r *contentRepo) ReadDate(ctx context.Context, kind model.ContentKind, date string, limit int) ([]model.InsightCard, error) {
	const q = `
		SELECT DISTINCT ON (i.item_id)
		       i.item_id, i.title, i.tags, i.summary, i.impact, i.prompt, i.url, i.ts, i.generated_at
		FROM content_items i
		JOIN content_batches b ON b.id = i.batch_id
		WHERE b.kind = $1 AND b.batch_date = $2
		ORDER BY i.item_id, i.generated_at
		LIMIT $3
	`
	rows, err := r.pool.Query(ctx, q, string(kind), date, limit)
	if err != nil {
		return nil, fmt.Errorf("reading items for date %s: %w", date, err)
	}
	defer rows.Close()
	return scanCards(rows)
}

func (r *contentRepo) readItems(ctx context.Context, batchID int64) ([]model.InsightCard, error) {
	const q = `
		SELECT item_id, title, tags, summary, impact, prompt, url, ts, generated_at
		FROM content_items
		WHERE batch_id = $1
		ORDER BY position
	`
	rows, err := r.pool.Query(ctx, q, batchID)
	if err != nil {
		return nil, fmt.Errorf("reading batch items: %w", err)
	}
	defer rows.Close()
	return scanCards(rows)
}

func scanCards(rows pgx.Rows) ([]model.InsightCard, error) {
	items := []model.InsightCard{}
	for rows.Next() {
		var it model.InsightCard
		if err := rows.Scan(&it.ID, &it.Title, &it.Tags, &it.Summary, &it.Impact, &it.Prompt, &it.URL, &it.Timestamp, &it.GeneratedAt); err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating items: %w", err)
	}
	return items, nil
}
