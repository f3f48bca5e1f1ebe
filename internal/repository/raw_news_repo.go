package repository

import (
	"context"
	"errors"
	"fmt"

	"app/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RawNewsRepository stores crawler output waiting for the insight pipeline.
type RawNewsRepository interface {
	// SaveBatch inserts crawled articles, skipping URLs seen before. Returns
	// the IDs of the articles that were actually new.
	SaveBatch(ctx context.Context, items []model.RawNews) ([]string, error)
	GetByID(ctx context.Context, id string) (*model.RawNews, error)
	MarkProcessed(ctx context.Context, id string) error
}

type rawNewsRepo struct {
	pool *pgxpool.Pool
}

func NewRawNewsRepo(pool *pgxpool.Pool) RawNewsRepository {
	return &rawNewsRepo{pool: pool}
}

func (r *rawNewsRepo) SaveBatch(ctx context.Context, items []model.RawNews) ([]string, error) {
	var inserted []string
	for _, n := range items {
		// id comes from the column default; callers never set it.
		var id string
		err := r.pool.QueryRow(ctx, `
			INSERT INTO raw_news (source_url, source_name, title, content, published_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (source_url) DO NOTHING
			RETURNING id
		`, n.SourceURL, n.SourceName, n.Title, n.Content, n.PublishedAt).Scan(&id)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				continue // already crawled
			}
			return nil, fmt.Errorf("saving raw news %s: %w", n.SourceURL, err)
		}
		inserted = append(inserted, id)
	}
	return inserted, nil
}

func (r *rawNewsRepo) GetByID(ctx context.Context, id string) (*model.RawNews, error) {
	const q = `
		SELECT id, source_url, source_name, title, content, published_at, processed, created_at
		FROM raw_news WHERE id = $1
	`
	var n model.RawNews
	err := r.pool.QueryRow(ctx, q, id).Scan(&n.ID, &n.SourceURL, &n.SourceName, &n.Title, &n.Content, &n.PublishedAt, &n.Processed, &n.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetching raw news %s: %w", id, err)
	}
	return &n, nil
}

func (r *rawNewsRepo) MarkProcessed(ctx context.Context, id string) error {
	if _, err := r.pool.Exec(ctx, `UPDATE raw_news SET processed = TRUE WHERE id = $1`, id); err != nil {
		return fmt.Errorf("marking raw news %s processed: %w", id, err)
	}
	return nil
}
