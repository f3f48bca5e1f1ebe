package service

import (
	"context"
	"errors"
	"strings"

	"app/internal/model"
	"app/internal/repository"

	"github.com/rs/zerolog"
)

// ErrAnnouncementInvalid is returned when title or content is empty.
var ErrAnnouncementInvalid = errors.New("announcement needs a title and content")

// AnnouncementService manages site-wide notices.
type AnnouncementService struct {
	repo   repository.AnnouncementRepository
	logger zerolog.Logger
}

// NewAnnouncementService creates a new AnnouncementService.
func NewAnnouncementService(repo repository.AnnouncementRepository, logger zerolog.Logger) *AnnouncementService {
	return &AnnouncementService{
		repo:   repo,
		logger: logger.With().Str("service", "AnnouncementService").Logger(),
	}
}

// Active returns announcements currently shown to users, pinned first.
func (s *AnnouncementService) Active(ctx context.Context) ([]model.Announcement, error) {
	return s.repo.List(ctx, true)
}

// Latest returns the most recent active announcement, or nil.
func (s *AnnouncementService) Latest(ctx context.Context) (*model.Announcement, error) {
	return s.repo.Latest(ctx)
}

// ListAll returns every announcement for the admin dashboard.
func (s *AnnouncementService) ListAll(ctx context.Context) ([]model.Announcement, error) {
	return s.repo.List(ctx, false)
}

// Create validates and stores a new announcement.
func (s *AnnouncementService) Create(ctx context.Context, a *model.Announcement) error {
	if strings.TrimSpace(a.Title) == "" || strings.TrimSpace(a.Content) == "" {
		return ErrAnnouncementInvalid
	}
	return s.repo.Create(ctx, a)
}

// Update overwrites an existing announcement.
func (s *AnnouncementService) Update(ctx context.Context, a *model.Announcement) error {
	if strings.TrimSpace(a.Title) == "" || strings.TrimSpace(a.Content) == "" {
		return ErrAnnouncementInvalid
	}
	return s.repo.Update(ctx, a)
}

// Delete removes an announcement.
func (s *AnnouncementService) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
