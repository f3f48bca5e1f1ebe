package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"app/internal/model"
	"app/internal/repository"

	"github.com/rs/zerolog"
)

// ErrProfessionInvalid is returned for an empty or over-long profession.
var ErrProfessionInvalid = errors.New("invalid profession")

// UserService manages user profiles and the profession that drives
// personalization.
type UserService struct {
	userRepo repository.UserRepository
	safety   *SafetyService
	maxChars int
	logger   zerolog.Logger
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repository.UserRepository, safety *SafetyService, maxChars int, logger zerolog.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		safety:   safety,
		maxChars: maxChars,
		logger:   logger.With().Str("service", "UserService").Logger(),
	}
}

// Get returns the user's profile, creating an empty one on first sight.
func (s *UserService) Get(ctx context.Context, userID string) (*model.User, error) {
	return s.userRepo.GetOrCreate(ctx, userID)
}

// SetProfession validates and stores the user's profession. Free-text
// professions pass through the safety filter since they are interpolated into
// generation prompts.
func (s *UserService) SetProfession(ctx context.Context, userID, profession string) (*model.User, error) {
	profession = strings.TrimSpace(profession)
	if profession == "" || utf8.RuneCountInString(profession) > s.maxChars {
		return nil, ErrProfessionInvalid
	}
	if err := s.safety.CheckText(ctx, userID, profession, "profession"); err != nil {
		return nil, err
	}
	display := model.ProfessionDisplay(profession)
	return s.userRepo.UpdateProfession(ctx, userID, profession, display)
}
