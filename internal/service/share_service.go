package service

import (
	"context"
	"time"

	"app/internal/model"
	"app/internal/repository"

	"github.com/rs/zerolog"
)

// SharePage is the public daily digest served to unauthenticated visitors.
type SharePage struct {
	Date  string              `json:"date"`
	Items []model.InsightCard `json:"items"`
}

// ShareService builds the public share page: a capped slice of the day's
// general news pulled across all users' batches, falling back to the global
// crawled feed when no batch exists yet.
type ShareService struct {
	contentRepo repository.ContentRepository
	insightRepo repository.InsightRepository
	itemLimit   int
	loc         *time.Location
	logger      zerolog.Logger
}

// NewShareService creates a new ShareService.
func NewShareService(contentRepo repository.ContentRepository, insightRepo repository.InsightRepository, itemLimit int, tz string, logger zerolog.Logger) *ShareService {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc = time.UTC
	}
	return &ShareService{
		contentRepo: contentRepo,
		insightRepo: insightRepo,
		itemLimit:   itemLimit,
		loc:         loc,
		logger:      logger.With().Str("service", "ShareService").Logger(),
	}
}

// Daily returns the share page for a date. An empty date means today.
func (s *ShareService) Daily(ctx context.Context, date string) (*SharePage, error) {
	if date == "" {
		date = time.Now().In(s.loc).Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", date); err != nil {
		date = time.Now().In(s.loc).Format("2006-01-02")
	}

	items, err := s.contentRepo.ReadDate(ctx, model.KindGeneralNews, date, s.itemLimit)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		items, err = s.insightRepo.List(ctx, s.itemLimit, 0)
		if err != nil {
			return nil, err
		}
	}
	return &SharePage{Date: date, Items: items}, nil
}
