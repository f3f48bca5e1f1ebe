package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"app/internal/cache"
	"app/internal/model"
	"app/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type stubContentRepo struct {
	batches map[model.BatchKey]*model.DailyBatch
}

func newStubContentRepo() *stubContentRepo {
	return &stubContentRepo{batches: make(map[model.BatchKey]*model.DailyBatch)}
}

func (s *stubContentRepo) Read(ctx context.Context, key model.BatchKey) (*model.DailyBatch, error) {
	b, ok := s.batches[key]
	if !ok {
		return nil, nil
	}
	cp := *b
	cp.Items = append([]model.InsightCard(nil), b.Items...)
	return &cp, nil
}

func (s *stubContentRepo) UpsertAppend(ctx context.Context, key model.BatchKey, profession string, items []model.InsightCard) (*model.DailyBatch, error) {
	b, ok := s.batches[key]
	if !ok {
		b = &model.DailyBatch{UserID: key.UserID, Kind: key.Kind, Date: key.Date, Profession: profession}
		s.batches[key] = b
	}
	seen := make(map[string]bool, len(b.Items))
	for _, it := range b.Items {
		seen[it.ID] = true
	}
	for _, it := range items {
		if !seen[it.ID] {
			b.Items = append(b.Items, it)
			seen[it.ID] = true
		}
	}
	return s.Read(ctx, key)
}

func (s *stubContentRepo) ReadRange(ctx context.Context, userID string, kind model.ContentKind, from, to string) ([]model.DailyBatch, error) {
	var out []model.DailyBatch
	for key, b := range s.batches {
		if key.UserID == userID && key.Kind == kind && key.Date >= from && key.Date <= to {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (s *stubContentRepo) ReadDate(ctx context.Context, kind model.ContentKind, date string, limit int) ([]model.InsightCard, error) {
	return nil, nil
}

type stubUserRepo struct {
	user *model.User
}

func (s *stubUserRepo) GetOrCreate(ctx context.Context, userID string) (*model.User, error) {
	if s.user != nil {
		return s.user, nil
	}
	return &model.User{UserID: userID}, nil
}

func (s *stubUserRepo) GetByID(ctx context.Context, userID string) (*model.User, error) {
	return s.user, nil
}

func (s *stubUserRepo) UpdateProfession(ctx context.Context, userID, profession, display string) (*model.User, error) {
	s.user = &model.User{UserID: userID, Profession: profession, ProfessionDisplay: display}
	return s.user, nil
}

type stubGenerator struct {
	calls int
	fail  bool
}

func (g *stubGenerator) Generate(ctx context.Context, req GenerateRequest) ([]model.InsightCard, error) {
	g.calls++
	if g.fail {
		return nil, fmt.Errorf("%w: stubbed outage", ErrGeneratorUnavailable)
	}
	cards := make([]model.InsightCard, req.Count)
	for i := range cards {
		cards[i] = model.InsightCard{
			ID:    fmt.Sprintf("card-%d-%d", g.calls, i),
			Title: fmt.Sprintf("card %d/%d for %s", g.calls, i, req.Profession),
		}
	}
	return cards, nil
}

func newTestInsightService(t *testing.T, gen Generator, premium bool) (*InsightService, *stubContentRepo) {
	t.Helper()
	mr := miniredis.RunT(t)
	pool := cache.New(redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	summary := repository.GrantSummary{}
	if premium {
		future := time.Now().Add(48 * time.Hour)
		summary.EffectiveExpiry = &future
	}
	entitlement := NewEntitlementService(&stubPremiumRepo{summary: summary}, &stubInviteRepo{}, 7, 365, zerolog.Nop())

	contentRepo := newStubContentRepo()
	userRepo := &stubUserRepo{user: &model.User{UserID: "u1", Profession: "product_manager"}}
	svc := NewInsightService(contentRepo, userRepo, gen, entitlement, pool, 6, 18, 30*time.Minute, "UTC", zerolog.Nop())
	return svc, contentRepo
}

func TestGetDailyGeneratesOnEmpty(t *testing.T) {
	gen := &stubGenerator{}
	svc, _ := newTestInsightService(t, gen, false)

	res, err := svc.GetDaily(context.Background(), "u1", model.KindPersonalNews)
	if err != nil {
		t.Fatalf("GetDaily returned error: %v", err)
	}
	if res.Cached {
		t.Fatal("first fill should not be reported as cached")
	}
	if len(res.Batch.Items) != 6 {
		t.Fatalf("expected 6 items, got %d", len(res.Batch.Items))
	}
	if gen.calls != 1 {
		t.Fatalf("expected 1 generator call, got %d", gen.calls)
	}
}

func TestGetDailyServesCachedBatch(t *testing.T) {
	gen := &stubGenerator{}
	svc, _ := newTestInsightService(t, gen, false)

	if _, err := svc.GetDaily(context.Background(), "u1", model.KindPersonalNews); err != nil {
		t.Fatalf("first GetDaily returned error: %v", err)
	}
	res, err := svc.GetDaily(context.Background(), "u1", model.KindPersonalNews)
	if err != nil {
		t.Fatalf("second GetDaily returned error: %v", err)
	}
	if !res.Cached {
		t.Fatal("second read of the day should be cached")
	}
	if gen.calls != 1 {
		t.Fatalf("generator should not run for a populated batch, calls=%d", gen.calls)
	}
}

func TestDailyBatchNeverGenerates(t *testing.T) {
	gen := &stubGenerator{}
	svc, _ := newTestInsightService(t, gen, false)

	res, err := svc.DailyBatch(context.Background(), "u1", model.KindPersonalNews)
	if err != nil {
		t.Fatalf("DailyBatch returned error: %v", err)
	}
	if res.Batch.Items == nil || len(res.Batch.Items) != 0 {
		t.Fatalf("expected an empty item list for an unfilled day, got %v", res.Batch.Items)
	}
	if gen.calls != 0 {
		t.Fatalf("read path must not call the generator, calls=%d", gen.calls)
	}

	if _, err := svc.GetDaily(context.Background(), "u1", model.KindPersonalNews); err != nil {
		t.Fatalf("GetDaily returned error: %v", err)
	}
	res, err = svc.DailyBatch(context.Background(), "u1", model.KindPersonalNews)
	if err != nil {
		t.Fatalf("DailyBatch returned error: %v", err)
	}
	if !res.Cached || len(res.Batch.Items) != 6 {
		t.Fatalf("expected the stored batch back, got cached=%v items=%d", res.Cached, len(res.Batch.Items))
	}
	if gen.calls != 1 {
		t.Fatalf("read path must not call the generator, calls=%d", gen.calls)
	}
}

func TestRefreshGatedForFreeUsers(t *testing.T) {
	gen := &stubGenerator{}
	svc, _ := newTestInsightService(t, gen, false)

	if _, err := svc.GetDaily(context.Background(), "u1", model.KindPersonalNews); err != nil {
		t.Fatalf("GetDaily returned error: %v", err)
	}
	_, err := svc.Refresh(context.Background(), "u1", model.KindPersonalNews)
	if !errors.Is(err, ErrPremiumRequired) {
		t.Fatalf("expected ErrPremiumRequired, got %v", err)
	}
	if gen.calls != 1 {
		t.Fatalf("gated refresh must not call the generator, calls=%d", gen.calls)
	}
}

func TestRefreshFillsEmptyForFreeUsers(t *testing.T) {
	gen := &stubGenerator{}
	svc, _ := newTestInsightService(t, gen, false)

	res, err := svc.Refresh(context.Background(), "u1", model.KindPersonalNews)
	if err != nil {
		t.Fatalf("Refresh of an empty section returned error: %v", err)
	}
	if len(res.Batch.Items) != 6 {
		t.Fatalf("expected first fill through refresh, got %d items", len(res.Batch.Items))
	}
}

func TestRefreshAppendsForPremium(t *testing.T) {
	gen := &stubGenerator{}
	svc, _ := newTestInsightService(t, gen, true)

	if _, err := svc.GetDaily(context.Background(), "u1", model.KindPersonalNews); err != nil {
		t.Fatalf("GetDaily returned error: %v", err)
	}
	res, err := svc.Refresh(context.Background(), "u1", model.KindPersonalNews)
	if err != nil {
		t.Fatalf("Refresh returned error: %v", err)
	}
	if len(res.Batch.Items) != 12 {
		t.Fatalf("expected 12 items after refresh, got %d", len(res.Batch.Items))
	}
}

func TestGeneratorFailureLeavesBatchEmpty(t *testing.T) {
	gen := &stubGenerator{fail: true}
	svc, contentRepo := newTestInsightService(t, gen, false)

	_, err := svc.GetDaily(context.Background(), "u1", model.KindPersonalNews)
	if !errors.Is(err, ErrGeneratorUnavailable) {
		t.Fatalf("expected ErrGeneratorUnavailable, got %v", err)
	}
	key := model.BatchKey{UserID: "u1", Kind: model.KindPersonalNews, Date: svc.Today()}
	if b, _ := contentRepo.Read(context.Background(), key); b != nil {
		t.Fatal("a failed generation must not persist a batch")
	}
}

func TestRefreshFailureKeepsLastKnownGood(t *testing.T) {
	gen := &stubGenerator{}
	svc, _ := newTestInsightService(t, gen, true)

	if _, err := svc.GetDaily(context.Background(), "u1", model.KindPersonalNews); err != nil {
		t.Fatalf("GetDaily returned error: %v", err)
	}
	gen.fail = true
	res, err := svc.Refresh(context.Background(), "u1", model.KindPersonalNews)
	if err != nil {
		t.Fatalf("failed refresh over a populated batch should degrade, got %v", err)
	}
	if !res.Cached || len(res.Batch.Items) != 6 {
		t.Fatalf("expected the last known-good batch, got cached=%v items=%d", res.Cached, len(res.Batch.Items))
	}
}

// overlapGenerator returns a fixed page per call; consecutive pages share IDs.
type overlapGenerator struct {
	calls int
}

func (g *overlapGenerator) Generate(ctx context.Context, req GenerateRequest) ([]model.InsightCard, error) {
	g.calls++
	cards := make([]model.InsightCard, req.Count)
	// Pages advance by half a page, so half of every refresh collides with
	// already-persisted cards.
	base := (g.calls - 1) * req.Count / 2
	for i := range cards {
		cards[i] = model.InsightCard{
			ID:    fmt.Sprintf("card-%d", base+i),
			Title: fmt.Sprintf("call %d item %d", g.calls, i),
		}
	}
	return cards, nil
}

func TestRefreshDropsDuplicateCardIDs(t *testing.T) {
	gen := &overlapGenerator{}
	svc, _ := newTestInsightService(t, gen, true)

	if _, err := svc.GetDaily(context.Background(), "u1", model.KindPersonalNews); err != nil {
		t.Fatalf("GetDaily returned error: %v", err)
	}
	res, err := svc.Refresh(context.Background(), "u1", model.KindPersonalNews)
	if err != nil {
		t.Fatalf("Refresh returned error: %v", err)
	}

	// 6 initial cards plus a refresh page of 6 where 3 IDs collide: each ID
	// lands exactly once, first write wins.
	if len(res.Batch.Items) != 9 {
		t.Fatalf("expected 9 items after an overlapping refresh, got %d", len(res.Batch.Items))
	}
	seen := make(map[string]int)
	for _, it := range res.Batch.Items {
		seen[it.ID]++
	}
	for id, n := range seen {
		if n != 1 {
			t.Fatalf("card %s appears %d times", id, n)
		}
	}
	if got := res.Batch.Items[3].Title; got != "call 1 item 3" {
		t.Fatalf("a colliding refresh card must not overwrite the original, got %q", got)
	}
}

func TestToolsOverflowPool(t *testing.T) {
	gen := &stubGenerator{}
	svc, _ := newTestInsightService(t, gen, true)

	res, err := svc.GetDaily(context.Background(), "u1", model.KindTools)
	if err != nil {
		t.Fatalf("GetDaily returned error: %v", err)
	}
	if len(res.Batch.Items) != 6 {
		t.Fatalf("expected 6 displayed items, got %d", len(res.Batch.Items))
	}
	if res.TotalFetched != 18 {
		t.Fatalf("expected over-fetch of 18, got %d", res.TotalFetched)
	}

	// The 12 pooled items cover the next two refreshes without the generator.
	for i := 0; i < 2; i++ {
		res, err = svc.Refresh(context.Background(), "u1", model.KindTools)
		if err != nil {
			t.Fatalf("pooled refresh %d returned error: %v", i+1, err)
		}
		if !res.Cached || res.TotalFetched != 0 {
			t.Fatalf("pooled refresh %d should skip the generator: cached=%v fetched=%d", i+1, res.Cached, res.TotalFetched)
		}
	}
	if gen.calls != 1 {
		t.Fatalf("expected exactly 1 generator call, got %d", gen.calls)
	}

	// Pool exhausted; the next refresh fetches again.
	res, err = svc.Refresh(context.Background(), "u1", model.KindTools)
	if err != nil {
		t.Fatalf("post-pool refresh returned error: %v", err)
	}
	if res.Cached || gen.calls != 2 {
		t.Fatalf("expected a fresh generator call after pool drain: cached=%v calls=%d", res.Cached, gen.calls)
	}
}
