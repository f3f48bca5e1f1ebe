package service

import (
	"context"
	"errors"
	"strings"

	"app/internal/model"
	"app/internal/repository"

	"github.com/rs/zerolog"
)

// ErrContactInvalid is returned when the contact form is missing fields.
var ErrContactInvalid = errors.New("contact message needs an email and a message")

// ContactService stores contact-form submissions for admin review.
type ContactService struct {
	repo   repository.ContactRepository
	logger zerolog.Logger
}

// NewContactService creates a new ContactService.
func NewContactService(repo repository.ContactRepository, logger zerolog.Logger) *ContactService {
	return &ContactService{
		repo:   repo,
		logger: logger.With().Str("service", "ContactService").Logger(),
	}
}

// Submit validates and stores one contact message.
func (s *ContactService) Submit(ctx context.Context, m *model.ContactMessage) error {
	if strings.TrimSpace(m.Email) == "" || strings.TrimSpace(m.Message) == "" {
		return ErrContactInvalid
	}
	return s.repo.Save(ctx, m)
}

// List returns all messages, newest first.
func (s *ContactService) List(ctx context.Context) ([]model.ContactMessage, error) {
	return s.repo.List(ctx)
}

// MarkRead flags a message as handled.
func (s *ContactService) MarkRead(ctx context.Context, id int64) error {
	return s.repo.MarkRead(ctx, id)
}

// Delete removes a message.
func (s *ContactService) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
