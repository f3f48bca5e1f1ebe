package repository

import (
	"context"
	"fmt"

	"app/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
)

type ChatRepository interface {
	SaveMessage(ctx context.Context, userID, role, content string) (*model.ChatMessage, error)
	// History returns the most recent messages in chronological order.
	History(ctx context.Context, userID string, limit int) ([]model.ChatMessage, error)
	DeleteHistory(ctx context.Context, userID string) error
}

type chatRepo struct {
	pool *pgxpool.Pool
}

func NewChatRepo(pool *pgxpool.Pool) ChatRepository {
	return &chatRepo{pool: pool}
}

func (r *chatRepo) SaveMessage(ctx context.Context, userID, role, content string) (*model.ChatMessage, error) {
	const q = `
		INSERT INTO chat_messages (user_id, role, content)
		VALUES ($1, $2, $3)
		RETURNING id, user_id, role, content, created_at
	`
	var m model.ChatMessage
	err := r.pool.QueryRow(ctx, q, userID, role, content).Scan(&m.ID, &m.UserID, &m.Role, &m.Content, &m.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("saving chat message: %w", err)
	}
	return &m, nil
}

func (r *chatRepo) History(ctx context.Context, userID string, limit int) ([]model.ChatMessage, error) {
	const q = `
		SELECT id, user_id, role, content, created_at
		FROM (
			SELECT id, user_id, role, content, created_at
			FROM chat_messages
			WHERE user_id = $1
			ORDER BY created_at DESC
			LIMIT $2
		) recent
		ORDER BY created_at ASC
	`
	rows, err := r.pool.Query(ctx, q, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("loading chat history: %w", err)
	}
	defer rows.Close()

	msgs := []model.ChatMessage{}
	for rows.Next() {
		var m model.ChatMessage
		if err := rows.Scan(&m.ID, &m.UserID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning chat message: %w", err)
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chat history: %w", err)
	}
	return msgs, nil
}

func (r *chatRepo) DeleteHistory(ctx context.Context, userID string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM chat_messages WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("deleting chat history: %w", err)
	}
	return nil
}
