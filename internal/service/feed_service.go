package service

import (
	"context"
	"errors"

	"app/internal/model"
	"app/internal/repository"

	"github.com/rs/zerolog"
)

// ErrInsightNotFound is returned for an unknown feed item ID.
var ErrInsightNotFound = errors.New("insight not found")

// FeedPage is one page of the global crawled feed.
type FeedPage struct {
	Items []model.InsightCard `json:"items"`
	Total int                 `json:"total"`
}

// FeedService serves the global (non-personalized) insight feed produced by
// the crawl pipeline.
type FeedService struct {
	insightRepo repository.InsightRepository
	logger      zerolog.Logger
}

// NewFeedService creates a new FeedService.
func NewFeedService(insightRepo repository.InsightRepository, logger zerolog.Logger) *FeedService {
	return &FeedService{
		insightRepo: insightRepo,
		logger:      logger.With().Str("service", "FeedService").Logger(),
	}
}

// List returns a feed page, newest first.
func (s *FeedService) List(ctx context.Context, limit, offset int) (*FeedPage, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	items, err := s.insightRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	total, err := s.insightRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	return &FeedPage{Items: items, Total: total}, nil
}

// Get returns one feed item by ID.
func (s *FeedService) Get(ctx context.Context, id string) (*model.InsightCard, error) {
	card, err := s.insightRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if card == nil {
		return nil, ErrInsightNotFound
	}
	return card, nil
}
