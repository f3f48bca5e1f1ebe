package repository

import (
	"context"
	"errors"
	"fmt"

	"app/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// InsightRepository is the global crawled feed, populated by the insight
// pipeline rather than by per-user generation.
type InsightRepository interface {
	List(ctx context.Context, limit, offset int) ([]model.InsightCard, error)
	Count(ctx context.Context) (int, error)
	GetByID(ctx context.Context, id string) (*model.InsightCard, error)
	// Save upserts processed cards coming out of the pipeline.
	Save(ctx context.Context, cards []model.InsightCard) error
}

type insightRepo struct {
	pool *pgxpool.Pool
}

func NewInsightRepo(pool *pgxpool.Pool) InsightRepository {
	return &insightRepo{pool: pool}
}

func (r *insightRepo) List(ctx context.Context, limit, offset int) ([]model.InsightCard, error) {
	const q = `
		SELECT id, title, tags, summary, impact, prompt, url, ts, created_at
		FROM insights
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.pool.Query(ctx, q, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing insights: %w", err)
	}
	defer rows.Close()
	return scanCards(rows)
}

func (r *insightRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM insights`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting insights: %w", err)
	}
	return n, nil
}

func (r *insightRepo) GetByID(ctx context.Context, id string) (*model.InsightCard, error) {
	const q = `
		SELECT id, title, tags, summary, impact, prompt, url, ts, created_at
		FROM insights WHERE id = $1
	`
	var it model.InsightCard
	err := r.pool.QueryRow(ctx, q, id).Scan(&it.ID, &it.Title, &it.Tags, &it.Summary, &it.Impact, &it.Prompt, &it.URL, &it.Timestamp, &it.GeneratedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetching insight %s: %w", id, err)
	}
	return &it, nil
}

func (r *insightRepo) Save(ctx context.Context, cards []model.InsightCard) error {
	for _, c := range cards {
		_, err := r.pool.Exec(ctx, `
			INSERT INTO insights (id, title, tags, summary, impact, prompt, url, ts)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (id) DO NOTHING
		`, c.ID, c.Title, c.Tags, c.Summary, c.Impact, c.Prompt, c.URL, c.Timestamp)
		if err != nil {
			return fmt.Errorf("saving insight %s: %w", c.ID, err)
		}
	}
	return nil
}
