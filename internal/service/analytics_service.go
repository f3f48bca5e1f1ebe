package service

import (
	"context"
	"encoding/json"

	"app/internal/model"
	"app/internal/pubsub"
	"app/internal/repository"

	"github.com/rs/zerolog"
)

// AnalyticsService records frontend events. Every event lands in the
// database; when publishing is enabled, a copy fans out over Pub/Sub for the
// downstream warehouse. Publish failures never fail the request.
type AnalyticsService struct {
	analyticsRepo repository.AnalyticsRepository
	publisher     pubsub.Publisher
	topic         string
	logger        zerolog.Logger
}

// NewAnalyticsService creates a new AnalyticsService. publisher may be nil
// when publishing is disabled.
func NewAnalyticsService(analyticsRepo repository.AnalyticsRepository, publisher pubsub.Publisher, topic string, logger zerolog.Logger) *AnalyticsService {
	return &AnalyticsService{
		analyticsRepo: analyticsRepo,
		publisher:     publisher,
		topic:         topic,
		logger:        logger.With().Str("service", "AnalyticsService").Logger(),
	}
}

// Track stores the event and fans it out when a publisher is configured.
func (s *AnalyticsService) Track(ctx context.Context, event *model.AnalyticsEvent) error {
	if err := s.analyticsRepo.Track(ctx, event); err != nil {
		return err
	}
	if s.publisher == nil {
		return nil
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return nil
	}
	if _, err := s.publisher.Publish(ctx, s.topic, payload); err != nil {
		s.logger.Warn().Err(err).Str("topic", s.topic).Msg("Analytics fan-out failed")
	}
	return nil
}

// Stats returns the aggregate counters for the admin dashboard.
func (s *AnalyticsService) Stats(ctx context.Context) (repository.AnalyticsStats, error) {
	return s.analyticsRepo.Stats(ctx)
}
