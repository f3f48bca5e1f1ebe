package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"app/internal/cache"
	"app/internal/model"
	"app/internal/repository"

	"github.com/rs/zerolog"
)

// ErrPremiumRequired is returned when a non-premium user asks to refresh a
// content section that already holds today's batch.
var ErrPremiumRequired = errors.New("refresh requires premium")

// DailyResult is one section's content for today, with the diagnostics the
// frontend surfaces.
type DailyResult struct {
	Batch        *model.DailyBatch
	Cached       bool // true when served from the stored batch without generating
	TotalFetched int  // items produced by the generator on this call, 0 when cached
}

// InsightService orchestrates the per-user daily content cache. Each (user,
// kind, day) holds at most one batch; the first request of the day fills it,
// later requests read it back, and refresh appends new cards for premium
// users. Tools and cases over-fetch into a short-lived pool so refreshes can
// be served without another generator round trip.
type InsightService struct {
	contentRepo repository.ContentRepository
	userRepo    repository.UserRepository
	generator   Generator
	entitlement *EntitlementService
	pool        *cache.Cache
	displayN    int
	fetchN      int
	poolTTL     time.Duration
	loc         *time.Location
	logger      zerolog.Logger
}

// NewInsightService creates a new InsightService. tz names the day-rollover
// timezone; an unknown name falls back to UTC.
func NewInsightService(
	contentRepo repository.ContentRepository,
	userRepo repository.UserRepository,
	generator Generator,
	entitlement *EntitlementService,
	pool *cache.Cache,
	displayN, fetchN int,
	poolTTL time.Duration,
	tz string,
	logger zerolog.Logger,
) *InsightService {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		logger.Warn().Str("tz", tz).Msg("Unknown timezone, falling back to UTC")
		loc = time.UTC
	}
	return &InsightService{
		contentRepo: contentRepo,
		userRepo:    userRepo,
		generator:   generator,
		entitlement: entitlement,
		pool:        pool,
		displayN:    displayN,
		fetchN:      fetchN,
		poolTTL:     poolTTL,
		loc:         loc,
		logger:      logger.With().Str("service", "InsightService").Logger(),
	}
}

// Today returns the current batch date in the service timezone.
func (s *InsightService) Today() string {
	return time.Now().In(s.loc).Format("2006-01-02")
}

// DailyBatch reads today's batch for the section without generating. An
// unfilled section yields an empty item list, never a generator call.
func (s *InsightService) DailyBatch(ctx context.Context, userID string, kind model.ContentKind) (*DailyResult, error) {
	key := model.BatchKey{UserID: userID, Kind: kind, Date: s.Today()}
	existing, err := s.contentRepo.Read(ctx, key)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		existing = &model.DailyBatch{
			UserID: userID,
			Kind:   kind,
			Date:   key.Date,
			Items:  []model.InsightCard{},
		}
		return &DailyResult{Batch: existing}, nil
	}
	return &DailyResult{Batch: existing, Cached: true}, nil
}

// GetDaily returns today's batch for the section, generating it on first
// request. A generation failure leaves the batch absent, so the next request
// simply tries again.
func (s *InsightService) GetDaily(ctx context.Context, userID string, kind model.ContentKind) (*DailyResult, error) {
	key := model.BatchKey{UserID: userID, Kind: kind, Date: s.Today()}
	existing, err := s.contentRepo.Read(ctx, key)
	if err != nil {
		return nil, err
	}
	if existing != nil && len(existing.Items) > 0 {
		return &DailyResult{Batch: existing, Cached: true}, nil
	}
	return s.generateInto(ctx, key, 0)
}

// Refresh replaces nothing: it appends freshly generated cards to today's
// batch, deduplicating on card ID. Non-premium users may only trigger the
// first fill of the day; once the batch is populated, refresh is gated.
func (s *InsightService) Refresh(ctx context.Context, userID string, kind model.ContentKind) (*DailyResult, error) {
	key := model.BatchKey{UserID: userID, Kind: kind, Date: s.Today()}
	existing, err := s.contentRepo.Read(ctx, key)
	if err != nil {
		return nil, err
	}
	if existing == nil || len(existing.Items) == 0 {
		return s.generateInto(ctx, key, 0)
	}

	premium, err := s.entitlement.IsPremium(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !premium {
		return nil, ErrPremiumRequired
	}

	seed := len(existing.Items) / s.displayN
	res, err := s.generateInto(ctx, key, seed)
	if errors.Is(err, ErrGeneratorUnavailable) {
		// A populated section never loses content to a failed refresh.
		return &DailyResult{Batch: existing, Cached: true}, nil
	}
	return res, err
}

// History returns the user's stored batches for the section over the last
// `days` days, newest first. It never generates.
func (s *InsightService) History(ctx context.Context, userID string, kind model.ContentKind, days int) ([]model.DailyBatch, error) {
	now := time.Now().In(s.loc)
	from := now.AddDate(0, 0, -(days - 1)).Format("2006-01-02")
	return s.contentRepo.ReadRange(ctx, userID, kind, from, now.Format("2006-01-02"))
}

func (s *InsightService) generateInto(ctx context.Context, key model.BatchKey, seed int) (*DailyResult, error) {
	profession, err := s.professionFor(ctx, key.UserID)
	if err != nil {
		return nil, err
	}

	var cards []model.InsightCard
	fetched := 0
	if s.pooled(key.Kind) {
		cards, fetched, err = s.fromPool(ctx, key, profession, seed)
	} else {
		cards, err = s.generator.Generate(ctx, GenerateRequest{
			Kind:       key.Kind,
			Profession: profession,
			Count:      s.displayN,
			Seed:       seed,
		})
		fetched = len(cards)
	}
	if err != nil {
		return nil, err
	}

	// Persist past request cancellation: once cards exist they must land in
	// the batch, or the user saw content the next read cannot reproduce.
	batch, err := s.contentRepo.UpsertAppend(context.WithoutCancel(ctx), key, profession, cards)
	if err != nil {
		return nil, err
	}
	// A pool hit produced this page without touching the generator.
	return &DailyResult{Batch: batch, Cached: s.pooled(key.Kind) && fetched == 0, TotalFetched: fetched}, nil
}

func (s *InsightService) pooled(kind model.ContentKind) bool {
	return kind == model.KindTools || kind == model.KindCases
}

// fromPool serves a pooled section. The pool is drained first; only when it
// cannot cover a full display page does the generator run again, over-fetching
// so later refreshes stay cheap.
func (s *InsightService) fromPool(ctx context.Context, key model.BatchKey, profession string, seed int) ([]model.InsightCard, int, error) {
	poolKey := fmt.Sprintf("pool:%s:%s:%s", key.UserID, key.Kind, key.Date)

	var pool []model.InsightCard
	if raw, err := s.pool.Get(ctx, poolKey); err == nil {
		if err := json.Unmarshal(raw, &pool); err != nil {
			pool = nil
		}
	}

	if len(pool) >= s.displayN {
		page := pool[:s.displayN]
		s.storePool(ctx, poolKey, pool[s.displayN:])
		return page, 0, nil
	}

	cards, err := s.generator.Generate(ctx, GenerateRequest{
		Kind:       key.Kind,
		Profession: profession,
		Count:      s.fetchN,
		Seed:       seed,
	})
	if err != nil {
		return nil, 0, err
	}
	fetched := len(cards)

	// Leftover pool entries go first so nothing fetched is wasted.
	cards = append(pool, cards...)
	page := cards
	if len(cards) > s.displayN {
		page = cards[:s.displayN]
		s.storePool(ctx, poolKey, cards[s.displayN:])
	} else {
		_ = s.pool.Delete(ctx, poolKey)
	}
	return page, fetched, nil
}

func (s *InsightService) storePool(ctx context.Context, poolKey string, rest []model.InsightCard) {
	if len(rest) == 0 {
		_ = s.pool.Delete(ctx, poolKey)
		return
	}
	raw, err := json.Marshal(rest)
	if err != nil {
		return
	}
	if err := s.pool.Set(ctx, poolKey, raw, s.poolTTL); err != nil {
		s.logger.Warn().Err(err).Str("key", poolKey).Msg("Failed to store overflow pool")
	}
}

func (s *InsightService) professionFor(ctx context.Context, userID string) (string, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if user == nil {
		return model.ProfessionDisplay(""), nil
	}
	return model.ProfessionDisplay(user.Profession), nil
}
