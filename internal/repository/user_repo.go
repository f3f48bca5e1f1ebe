package repository

import (
	"context"
	"errors"
	"fmt"

	"app/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository interface {
	// GetOrCreate returns the profile for the user, inserting a default one on
	// first sight.
	GetOrCreate(ctx context.Context, userID string) (*model.User, error)
	GetByID(ctx context.Context, userID string) (*model.User, error)
	UpdateProfession(ctx context.Context, userID, profession, display string) (*model.User, error)
}

type userRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) UserRepository {
	return &userRepo{pool: pool}
}

func (r *userRepo) GetOrCreate(ctx context.Context, userID string) (*model.User, error) {
	const q = `
		INSERT INTO user_profiles (user_id, profession, profession_display)
		VALUES ($1, 'other', '职场人士')
		ON CONFLICT (user_id) DO UPDATE SET updated_at = user_profiles.updated_at
		RETURNING user_id, profession, profession_display, created_at, updated_at
	`
	var u model.User
	err := r.pool.QueryRow(ctx, q, userID).Scan(&u.UserID, &u.Profession, &u.ProfessionDisplay, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get-or-create user %s: %w", userID, err)
	}
	return &u, nil
}

func (r *userRepo) GetByID(ctx context.Context, userID string) (*model.User, error) {
	const q = `
		SELECT user_id, profession, profession_display, created_at, updated_at
		FROM user_profiles WHERE user_id = $1
	`
	var u model.User
	err := r.pool.QueryRow(ctx, q, userID).Scan(&u.UserID, &u.Profession, &u.ProfessionDisplay, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetching user %s: %w", userID, err)
	}
	return &u, nil
}

func (r *userRepo) UpdateProfession(ctx context.Context, userID, profession, display string) (*model.User, error) {
	const q = `
		INSERT INTO user_profiles (user_id, profession, profession_display)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE
		SET profession = EXCLUDED.profession,
		    profession_display = EXCLUDED.profession_display,
		    updated_at = NOW()
		RETURNING user_id, profession, profession_display, created_at, updated_at
	`
	var u model.User
	err := r.pool.QueryRow(ctx, q, userID, profession, display).Scan(&u.UserID, &u.Profession, &u.ProfessionDisplay, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("updating profession for user %s: %w", userID, err)
	}
	return &u, nil
}
