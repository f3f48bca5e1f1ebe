package service

import (
	"context"
	"testing"
	"time"

	"app/internal/model"
	"app/internal/repository"

	"github.com/rs/zerolog"
)

type issuedGrant struct {
	userID    string
	source    string
	days      int
	expiresAt time.Time
}

type stubPremiumRepo struct {
	summary repository.GrantSummary
	err     error
	issued  []issuedGrant
}

func (s *stubPremiumRepo) Summary(ctx context.Context, userID string) (repository.GrantSummary, error) {
	return s.summary, s.err
}

func (s *stubPremiumRepo) IssueGrant(ctx context.Context, userID, source string, rewardDays int, expiresAt time.Time) error {
	s.issued = append(s.issued, issuedGrant{userID: userID, source: source, days: rewardDays, expiresAt: expiresAt})
	return nil
}

type stubInviteRepo struct {
	code        *model.InviteCode
	createErr   error
	created     []string
	redeemRes   *repository.RedemptionResult
	redeemErr   error
	redemptions int
}

func (s *stubInviteRepo) GetCodeByUser(ctx context.Context, userID string) (*model.InviteCode, error) {
	return s.code, nil
}

func (s *stubInviteRepo) GetByCode(ctx context.Context, code string) (*model.InviteCode, error) {
	if s.code != nil && s.code.Code == code {
		return s.code, nil
	}
	return nil, nil
}

func (s *stubInviteRepo) CreateCode(ctx context.Context, userID, code string) (*model.InviteCode, error) {
	if s.createErr != nil {
		err := s.createErr
		s.createErr = nil
		return nil, err
	}
	s.created = append(s.created, code)
	return &model.InviteCode{Code: code, UserID: userID, UsedBy: []string{}}, nil
}

func (s *stubInviteRepo) ApplyRedemption(ctx context.Context, code, newUserID string, rewardDays, maxRewardDays int) (*repository.RedemptionResult, error) {
	return s.redeemRes, s.redeemErr
}

func (s *stubInviteRepo) CountRedemptions(ctx context.Context, userID string) (int, error) {
	return s.redemptions, nil
}

func TestStatusNoGrants(t *testing.T) {
	svc := NewEntitlementService(&stubPremiumRepo{}, &stubInviteRepo{}, 7, 365, zerolog.Nop())

	status, err := svc.Status(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Status returned error: %v", err)
	}
	if status.IsPremium {
		t.Fatal("expected non-premium status for user with no grants")
	}
	if status.RemainingDays != 0 {
		t.Fatalf("expected 0 remaining days, got %d", status.RemainingDays)
	}
	if status.RewardPerInvite != 7 || status.MaxRewardDays != 365 {
		t.Fatalf("unexpected policy fields: %+v", status)
	}
}

func TestStatusExpiredGrant(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	svc := NewEntitlementService(&stubPremiumRepo{
		summary: repository.GrantSummary{EffectiveExpiry: &past, TotalRewardDays: 7},
	}, &stubInviteRepo{redemptions: 1}, 7, 365, zerolog.Nop())

	status, err := svc.Status(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Status returned error: %v", err)
	}
	if status.IsPremium {
		t.Fatal("expected expired grant to read as non-premium")
	}
	if status.TotalRewardDays != 7 || status.InvitedCount != 1 {
		t.Fatalf("history fields should survive expiry: %+v", status)
	}
}

func TestStatusPartialDayRoundsUp(t *testing.T) {
	expiry := time.Now().Add(time.Hour)
	svc := NewEntitlementService(&stubPremiumRepo{
		summary: repository.GrantSummary{EffectiveExpiry: &expiry},
	}, &stubInviteRepo{}, 7, 365, zerolog.Nop())

	status, err := svc.Status(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Status returned error: %v", err)
	}
	if !status.IsPremium {
		t.Fatal("expected premium with a future expiry")
	}
	if status.RemainingDays != 1 {
		t.Fatalf("expected 1 remaining day for a one-hour grant, got %d", status.RemainingDays)
	}
}

func TestStatusMultipleDays(t *testing.T) {
	expiry := time.Now().Add(6*24*time.Hour + time.Hour)
	svc := NewEntitlementService(&stubPremiumRepo{
		summary: repository.GrantSummary{EffectiveExpiry: &expiry},
	}, &stubInviteRepo{}, 7, 365, zerolog.Nop())

	status, err := svc.Status(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Status returned error: %v", err)
	}
	if status.RemainingDays != 7 {
		t.Fatalf("expected 7 remaining days, got %d", status.RemainingDays)
	}
}

func TestGrantExtendsCurrentExpiry(t *testing.T) {
	current := time.Now().Add(48 * time.Hour)
	repo := &stubPremiumRepo{summary: repository.GrantSummary{EffectiveExpiry: &current}}
	svc := NewEntitlementService(repo, &stubInviteRepo{}, 7, 365, zerolog.Nop())

	if err := svc.Grant(context.Background(), "u1", 30); err != nil {
		t.Fatalf("Grant returned error: %v", err)
	}
	if len(repo.issued) != 1 {
		t.Fatalf("expected 1 issued grant, got %d", len(repo.issued))
	}
	g := repo.issued[0]
	if g.userID != "u1" || g.source != "admin" || g.days != 30 {
		t.Fatalf("unexpected grant: %+v", g)
	}
	want := current.AddDate(0, 0, 30)
	if !g.expiresAt.Equal(want) {
		t.Fatalf("expected expiry %v extending the current grant, got %v", want, g.expiresAt)
	}
}

func TestGrantRejectsNonPositiveDays(t *testing.T) {
	repo := &stubPremiumRepo{}
	svc := NewEntitlementService(repo, &stubInviteRepo{}, 7, 365, zerolog.Nop())

	if err := svc.Grant(context.Background(), "u1", 0); err != ErrGrantInvalid {
		t.Fatalf("expected ErrGrantInvalid, got %v", err)
	}
	if len(repo.issued) != 0 {
		t.Fatal("an invalid grant must not reach the store")
	}
}

func TestIsPremium(t *testing.T) {
	future := time.Now().Add(24 * time.Hour)
	svc := NewEntitlementService(&stubPremiumRepo{
		summary: repository.GrantSummary{EffectiveExpiry: &future},
	}, &stubInviteRepo{}, 7, 365, zerolog.Nop())

	premium, err := svc.IsPremium(context.Background(), "u1")
	if err != nil {
		t.Fatalf("IsPremium returned error: %v", err)
	}
	if !premium {
		t.Fatal("expected premium for future expiry")
	}
}
