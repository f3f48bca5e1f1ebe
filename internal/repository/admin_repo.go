package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"app/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AnnouncementRepository interface {
	List(ctx context.Context, activeOnly bool) ([]model.Announcement, error)
	Latest(ctx context.Context) (*model.Announcement, error)
	Create(ctx context.Context, a *model.Announcement) error
	Update(ctx context.Context, a *model.Announcement) error
	Delete(ctx context.Context, id int64) error
}

type announcementRepo struct {
	pool *pgxpool.Pool
}

func NewAnnouncementRepo(pool *pgxpool.Pool) AnnouncementRepository {
	return &announcementRepo{pool: pool}
}

func (r *announcementRepo) List(ctx context.Context, activeOnly bool) ([]model.Announcement, error) {
	q := `
		SELECT id, title, content, active, pinned, created_at
		FROM announcements
	`
	if activeOnly {
		q += ` WHERE active`
	}
	q += ` ORDER BY pinned DESC, created_at DESC`

	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("listing announcements: %w", err)
	}
	defer rows.Close()

	items := []model.Announcement{}
	for rows.Next() {
		var a model.Announcement
		if err := rows.Scan(&a.ID, &a.Title, &a.Content, &a.Active, &a.Pinned, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning announcement: %w", err)
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

func (r *announcementRepo) Latest(ctx context.Context) (*model.Announcement, error) {
	const q = `
		SELECT id, title, content, active, pinned, created_at
		FROM announcements
		WHERE active
		ORDER BY pinned DESC, created_at DESC
		LIMIT 1
	`
	var a model.Announcement
	err := r.pool.QueryRow(ctx, q).Scan(&a.ID, &a.Title, &a.Content, &a.Active, &a.Pinned, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetching latest announcement: %w", err)
	}
	return &a, nil
}

func (r *announcementRepo) Create(ctx context.Context, a *model.Announcement) error {
	const q = `
		INSERT INTO announcements (title, content, active, pinned)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	if err := r.pool.QueryRow(ctx, q, a.Title, a.Content, a.Active, a.Pinned).Scan(&a.ID, &a.CreatedAt); err != nil {
		return fmt.Errorf("creating announcement: %w", err)
	}
	return nil
}

func (r *announcementRepo) Update(ctx context.Context, a *model.Announcement) error {
	const q = `
		UPDATE announcements SET title = $2, content = $3, active = $4, pinned = $5
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, q, a.ID, a.Title, a.Content, a.Active, a.Pinned)
	if err != nil {
		return fmt.Errorf("updating announcement %d: %w", a.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *announcementRepo) Delete(ctx context.Context, id int64) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM announcements WHERE id = $1`, id); err != nil {
		return fmt.Errorf("deleting announcement %d: %w", id, err)
	}
	return nil
}

type ContactRepository interface {
	Save(ctx context.Context, m *model.ContactMessage) error
	List(ctx context.Context) ([]model.ContactMessage, error)
	MarkRead(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
}

type contactRepo struct {
	pool *pgxpool.Pool
}

func NewContactRepo(pool *pgxpool.Pool) ContactRepository {
	return &contactRepo{pool: pool}
}

func (r *contactRepo) Save(ctx context.Context, m *model.ContactMessage) error {
	const q = `
		INSERT INTO contact_messages (name, email, subject, message)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	if err := r.pool.QueryRow(ctx, q, m.Name, m.Email, m.Subject, m.Message).Scan(&m.ID, &m.CreatedAt); err != nil {
		return fmt.Errorf("saving contact message: %w", err)
	}
	return nil
}

func (r *contactRepo) List(ctx context.Context) ([]model.ContactMessage, error) {
	const q = `
		SELECT id, name, email, subject, message, is_read, created_at
		FROM contact_messages
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("listing contact messages: %w", err)
	}
	defer rows.Close()

	msgs := []model.ContactMessage{}
	for rows.Next() {
		var m model.ContactMessage
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Subject, &m.Message, &m.IsRead, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning contact message: %w", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

func (r *contactRepo) MarkRead(ctx context.Context, id int64) error {
	if _, err := r.pool.Exec(ctx, `UPDATE contact_messages SET is_read = TRUE WHERE id = $1`, id); err != nil {
		return fmt.Errorf("marking contact message %d read: %w", id, err)
	}
	return nil
}

func (r *contactRepo) Delete(ctx context.Context, id int64) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM contact_messages WHERE id = $1`, id); err != nil {
		return fmt.Errorf("deleting contact message %d: %w", id, err)
	}
	return nil
}

// AnalyticsStats is the aggregate served to the admin dashboard.
type AnalyticsStats struct {
	TotalEvents int `json:"total_events"`
	TodayEvents int `json:"today_events"`
}

type AnalyticsRepository interface {
	Track(ctx context.Context, e *model.AnalyticsEvent) error
	Stats(ctx context.Context) (AnalyticsStats, error)
}

type analyticsRepo struct {
	pool *pgxpool.Pool
}

func NewAnalyticsRepo(pool *pgxpool.Pool) AnalyticsRepository {
	return &analyticsRepo{pool: pool}
}

func (r *analyticsRepo) Track(ctx context.Context, e *model.AnalyticsEvent) error {
	extra := e.Extra
	if len(extra) == 0 {
		extra = json.RawMessage(`{}`)
	}
	const q = `
		INSERT INTO analytics_events (user_id, event_type, event_name, page, extra)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	if err := r.pool.QueryRow(ctx, q, e.UserID, e.EventType, e.EventName, e.Page, extra).Scan(&e.ID, &e.CreatedAt); err != nil {
		return fmt.Errorf("tracking event: %w", err)
	}
	return nil
}

func (r *analyticsRepo) Stats(ctx context.Context) (AnalyticsStats, error) {
	const q = `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE created_at >= CURRENT_DATE)
		FROM analytics_events
	`
	var s AnalyticsStats
	if err := r.pool.QueryRow(ctx, q).Scan(&s.TotalEvents, &s.TodayEvents); err != nil {
		return AnalyticsStats{}, fmt.Errorf("reading analytics stats: %w", err)
	}
	return s, nil
}
