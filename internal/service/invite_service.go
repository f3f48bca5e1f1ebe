package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"

	"app/internal/model"
	"app/internal/repository"

	"github.com/rs/zerolog"
)

var (
	// ErrInviteNotFound is returned for an unknown invite code.
	ErrInviteNotFound = errors.New("invite code does not exist")
	// ErrSelfInvite is returned when a user redeems their own code.
	ErrSelfInvite = errors.New("cannot redeem your own invite code")
	// ErrAlreadyRedeemed is returned when the user has already redeemed a code.
	ErrAlreadyRedeemed = errors.New("invite code already redeemed by this user")
)

const (
	codeLength  = 6
	codeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// RedeemOutcome is the result of a successful redemption, reported to the
// redeeming user.
type RedeemOutcome struct {
	OwnerID    string
	RewardDays int
}

// InviteService manages referral codes and their redemption rewards.
type InviteService struct {
	inviteRepo      repository.InviteRepository
	rewardPerInvite int
	maxRewardDays   int
	logger          zerolog.Logger
}

// NewInviteService creates a new InviteService.
func NewInviteService(inviteRepo repository.InviteRepository, rewardPerInvite, maxRewardDays int, logger zerolog.Logger) *InviteService {
	return &InviteService{
		inviteRepo:      inviteRepo,
		rewardPerInvite: rewardPerInvite,
		maxRewardDays:   maxRewardDays,
		logger:          logger.With().Str("service", "InviteService").Logger(),
	}
}

// Code returns the user's invite code, creating one on first call. Creation
// retries on the rare collision with an existing code.
func (s *InviteService) Code(ctx context.Context, userID string) (*model.InviteCode, error) {
	existing, err := s.inviteRepo.GetCodeByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
	for attempt := 0; attempt < 5; attempt++ {
		code, err := generateCode()
		if err != nil {
			return nil, err
		}
		created, err := s.inviteRepo.CreateCode(ctx, userID, code)
		if err == nil {
			return created, nil
		}
		if !errors.Is(err, repository.ErrCodeTaken) {
			return nil, err
		}
		// Collision can also mean a concurrent request created this user's
		// code first; re-reading resolves both cases.
		if existing, rerr := s.inviteRepo.GetCodeByUser(ctx, userID); rerr == nil && existing != nil {
			return existing, nil
		}
	}
	return nil, fmt.Errorf("generating invite code for user %s: too many collisions", userID)
}

// Validate reports whether a code exists, without side effects.
func (s *InviteService) Validate(ctx context.Context, code string) (*model.InviteCode, error) {
	ic, err := s.inviteRepo.GetByCode(ctx, normalizeCode(code))
	if err != nil {
		return nil, err
	}
	if ic == nil {
		return nil, ErrInviteNotFound
	}
	return ic, nil
}

// Redeem records that userID signed up through the given code and rewards the
// code's owner. Self-redemption and repeat redemption are rejected before any
// write happens.
func (s *InviteService) Redeem(ctx context.Context, code, userID string) (*RedeemOutcome, error) {
	code = normalizeCode(code)
	ic, err := s.inviteRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if ic == nil {
		return nil, ErrInviteNotFound
	}
	if ic.UserID == userID {
		return nil, ErrSelfInvite
	}

	res, err := s.inviteRepo.ApplyRedemption(ctx, code, userID, s.rewardPerInvite, s.maxRewardDays)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrCodeNotFound):
			return nil, ErrInviteNotFound
		case errors.Is(err, repository.ErrAlreadyInvited):
			return nil, ErrAlreadyRedeemed
		}
		return nil, err
	}

	s.logger.Info().
		Str("code", code).
		Str("owner", res.OwnerID).
		Int("reward_days", res.RewardDays).
		Msg("Invite code redeemed")
	return &RedeemOutcome{OwnerID: res.OwnerID, RewardDays: res.RewardDays}, nil
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func generateCode() (string, error) {
	b := make([]byte, codeLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("reading randomness: %w", err)
	}
	for i := range b {
		b[i] = codeCharset[int(b[i])%len(codeCharset)]
	}
	return string(b), nil
}
