package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"app/internal/model"
	"app/internal/repository"

	"github.com/rs/zerolog"
)

// ErrUnknownInteraction is returned for an unrecognized interaction type.
var ErrUnknownInteraction = errors.New("unknown interaction type")

// BookmarkService records card interactions and keeps the user's bookmark
// collection. Bookmarked cards are stored as a snapshot so they survive the
// daily cache rolling over.
type BookmarkService struct {
	bookmarkRepo repository.BookmarkRepository
	logger       zerolog.Logger
}

// NewBookmarkService creates a new BookmarkService.
func NewBookmarkService(bookmarkRepo repository.BookmarkRepository, logger zerolog.Logger) *BookmarkService {
	return &BookmarkService{
		bookmarkRepo: bookmarkRepo,
		logger:       logger.With().Str("service", "BookmarkService").Logger(),
	}
}

// Interact applies one interaction. Bookmark and unbookmark mutate the
// collection; the rest are recorded for ranking signals only.
func (s *BookmarkService) Interact(ctx context.Context, userID, itemID string, action model.InteractionType, itemType string, itemData json.RawMessage) error {
	if !action.Valid() {
		return ErrUnknownInteraction
	}
	switch action {
	case model.InteractionBookmark:
		if err := s.bookmarkRepo.Add(ctx, userID, itemID, itemType, itemData); err != nil {
			return fmt.Errorf("adding bookmark: %w", err)
		}
	case model.InteractionUnbookmark:
		if err := s.bookmarkRepo.Remove(ctx, userID, itemID); err != nil {
			return fmt.Errorf("removing bookmark: %w", err)
		}
	}
	return s.bookmarkRepo.RecordInteraction(ctx, userID, itemID, action)
}

// List returns the user's bookmarks, newest first.
func (s *BookmarkService) List(ctx context.Context, userID string) ([]model.Bookmark, error) {
	return s.bookmarkRepo.ListByUser(ctx, userID)
}
