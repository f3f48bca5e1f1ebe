package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"app/internal/model"
	"app/internal/repository"
	"app/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

type fakeInviteRepo struct {
	code      *model.InviteCode
	redeemRes *repository.RedemptionResult
	redeemErr error
}

func (f *fakeInviteRepo) GetCodeByUser(ctx context.Context, userID string) (*model.InviteCode, error) {
	return f.code, nil
}

func (f *fakeInviteRepo) GetByCode(ctx context.Context, code string) (*model.InviteCode, error) {
	if f.code != nil && f.code.Code == code {
		return f.code, nil
	}
	return nil, nil
}

func (f *fakeInviteRepo) CreateCode(ctx context.Context, userID, code string) (*model.InviteCode, error) {
	f.code = &model.InviteCode{Code: code, UserID: userID, UsedBy: []string{}}
	return f.code, nil
}

func (f *fakeInviteRepo) ApplyRedemption(ctx context.Context, code, newUserID string, rewardDays, maxRewardDays int) (*repository.RedemptionResult, error) {
	return f.redeemRes, f.redeemErr
}

func (f *fakeInviteRepo) CountRedemptions(ctx context.Context, userID string) (int, error) {
	if f.code != nil {
		return len(f.code.UsedBy), nil
	}
	return 0, nil
}

type fakePremiumRepo struct {
	summary repository.GrantSummary
}

func (f *fakePremiumRepo) Summary(ctx context.Context, userID string) (repository.GrantSummary, error) {
	return f.summary, nil
}

func (f *fakePremiumRepo) IssueGrant(ctx context.Context, userID, source string, rewardDays int, expiresAt time.Time) error {
	return nil
}

func newInviteTestServer(inviteRepo *fakeInviteRepo, premiumRepo *fakePremiumRepo) *http.ServeMux {
	logger := zerolog.Nop()
	inviteSvc := service.NewInviteService(inviteRepo, 7, 365, logger)
	entitlementSvc := service.NewEntitlementService(premiumRepo, inviteRepo, 7, 365, logger)
	h := NewInviteHandler(inviteSvc, entitlementSvc, validator.New(validator.WithRequiredStructEnabled()), logger)

	mux := http.NewServeMux()
	passthrough := func(next http.Handler) http.Handler { return next }
	h.RegisterRoutes(mux, passthrough)
	return mux
}

func TestInviteCodeEndpoint(t *testing.T) {
	mux := newInviteTestServer(&fakeInviteRepo{}, &fakePremiumRepo{})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/invite/code/u1", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Code string `json:"invite_code"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if len(body.Code) != 6 {
		t.Fatalf("expected 6-character code, got %q", body.Code)
	}
}

func TestInviteUseEndpoint(t *testing.T) {
	repo := &fakeInviteRepo{
		code:      &model.InviteCode{Code: "ABC123", UserID: "owner"},
		redeemRes: &repository.RedemptionResult{OwnerID: "owner", RewardDays: 7},
	}
	mux := newInviteTestServer(repo, &fakePremiumRepo{})

	req := httptest.NewRequest(http.MethodPost, "/api/invite/use",
		strings.NewReader(`{"invite_code": "ABC123", "new_user_id": "newbie"}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Success    bool `json:"success"`
		RewardDays int  `json:"reward_days"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if !body.Success || body.RewardDays != 7 {
		t.Fatalf("unexpected response: %+v", body)
	}
}

func TestInviteUseAcceptsUserIDAlias(t *testing.T) {
	repo := &fakeInviteRepo{
		code:      &model.InviteCode{Code: "ABC123", UserID: "owner"},
		redeemRes: &repository.RedemptionResult{OwnerID: "owner", RewardDays: 7},
	}
	mux := newInviteTestServer(repo, &fakePremiumRepo{})

	req := httptest.NewRequest(http.MethodPost, "/api/invite/use",
		strings.NewReader(`{"invite_code": "ABC123", "user_id": "newbie"}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for the legacy field name, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestInviteUseSelfRejected(t *testing.T) {
	repo := &fakeInviteRepo{code: &model.InviteCode{Code: "ABC123", UserID: "owner"}}
	mux := newInviteTestServer(repo, &fakePremiumRepo{})

	req := httptest.NewRequest(http.MethodPost, "/api/invite/use",
		strings.NewReader(`{"invite_code": "ABC123", "new_user_id": "owner"}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for self-redemption, got %d", rec.Code)
	}
}

func TestInviteUseAlreadyRedeemed(t *testing.T) {
	repo := &fakeInviteRepo{
		code:      &model.InviteCode{Code: "ABC123", UserID: "owner"},
		redeemErr: repository.ErrAlreadyInvited,
	}
	mux := newInviteTestServer(repo, &fakePremiumRepo{})

	req := httptest.NewRequest(http.MethodPost, "/api/invite/use",
		strings.NewReader(`{"invite_code": "ABC123", "new_user_id": "repeat"}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for repeat redemption, got %d", rec.Code)
	}
}

func TestInviteValidateEndpoint(t *testing.T) {
	repo := &fakeInviteRepo{code: &model.InviteCode{Code: "ABC123", UserID: "owner"}}
	mux := newInviteTestServer(repo, &fakePremiumRepo{})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/invite/validate/abc123", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"valid":true`) {
		t.Fatalf("expected valid=true, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/invite/validate/ZZZZZZ", nil))
	if !strings.Contains(rec.Body.String(), `"valid":false`) {
		t.Fatalf("expected valid=false for unknown code: %s", rec.Body.String())
	}
}

func TestPremiumStatusEndpoint(t *testing.T) {
	expiry := time.Now().Add(5 * 24 * time.Hour)
	mux := newInviteTestServer(&fakeInviteRepo{}, &fakePremiumRepo{
		summary: repository.GrantSummary{EffectiveExpiry: &expiry, TotalRewardDays: 14},
	})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/invite/status/u1", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var status model.PremiumStatus
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if !status.IsPremium || status.RemainingDays != 5 || status.TotalRewardDays != 14 {
		t.Fatalf("unexpected status: %+v", status)
	}
}
