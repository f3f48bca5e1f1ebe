package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"app/internal/cache"
	"app/internal/repository"

	"github.com/rs/zerolog"
)

var (
	// ErrUserBlocked is returned for any guarded action by a blocked user.
	ErrUserBlocked = errors.New("user is blocked")
	// ErrRateLimited is returned when a user exceeds the request windows.
	ErrRateLimited = errors.New("rate limit exceeded")
	// ErrUnsafeContent is returned when submitted text trips the blacklist.
	ErrUnsafeContent = errors.New("content rejected by safety filter")
)

// Prompt-injection and abuse phrases rejected in any user-supplied text.
var contentBlacklist = []string{
	"忽略之前", "忽略上面", "忽略以上", "无视之前", "无视上面",
	"ignore previous", "ignore above", "ignore all previous",
	"disregard previous", "disregard above",
	"system prompt", "系统提示词", "你的提示词",
	"jailbreak", "越狱模式", "开发者模式", "developer mode",
	"DAN mode", "pretend you are", "假装你是",
	"扮演一个没有限制", "不受限制的", "没有道德限制",
}

// Extra phrases rejected only in the profession field, which is interpolated
// into generation prompts verbatim.
var professionBlacklist = []string{
	"<script", "javascript:", "{{", "}}", "${", "prompt:",
}

// SafetyService guards user-supplied input: per-user rate limits backed by
// redis fixed windows, a phrase blacklist against prompt injection, and a
// violation counter that blocks repeat offenders.
type SafetyService struct {
	violationRepo repository.ViolationRepository
	limiter       *cache.Cache
	perMinute     int
	perHour       int
	maxViolations int
	logger        zerolog.Logger
}

// NewSafetyService creates a new SafetyService.
func NewSafetyService(
	violationRepo repository.ViolationRepository,
	limiter *cache.Cache,
	perMinute, perHour, maxViolations int,
	logger zerolog.Logger,
) *SafetyService {
	return &SafetyService{
		violationRepo: violationRepo,
		limiter:       limiter,
		perMinute:     perMinute,
		perHour:       perHour,
		maxViolations: maxViolations,
		logger:        logger.With().Str("service", "SafetyService").Logger(),
	}
}

// Admit runs the pre-request checks for a guarded endpoint: block status
// first, then both rate windows. A limiter outage fails open; blocking state
// does not.
func (s *SafetyService) Admit(ctx context.Context, userID string) error {
	blocked, err := s.violationRepo.IsBlocked(ctx, userID)
	if err != nil {
		return fmt.Errorf("checking block status: %w", err)
	}
	if blocked {
		return ErrUserBlocked
	}

	minuteCount, err := s.limiter.Incr(ctx, "rate:m:"+userID, time.Minute)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Rate limiter unavailable, admitting request")
		return nil
	}
	if minuteCount > int64(s.perMinute) {
		return ErrRateLimited
	}
	hourCount, err := s.limiter.Incr(ctx, "rate:h:"+userID, time.Hour)
	if err != nil {
		return nil
	}
	if hourCount > int64(s.perHour) {
		return ErrRateLimited
	}
	return nil
}

// CheckText screens user-supplied text. A hit records a violation and, past
// the threshold, blocks the user.
func (s *SafetyService) CheckText(ctx context.Context, userID, text, field string) error {
	lower := strings.ToLower(text)
	hit := matchAny(lower, contentBlacklist)
	if hit == "" && field == "profession" {
		hit = matchAny(lower, professionBlacklist)
	}
	if hit == "" {
		return nil
	}

	total, err := s.violationRepo.Record(ctx, userID, field, text)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to record violation")
		return ErrUnsafeContent
	}
	s.logger.Warn().
		Str("user_id", userID).
		Str("field", field).
		Str("phrase", hit).
		Int("violations", total).
		Msg("Blacklisted phrase in user input")

	if total >= s.maxViolations {
		if err := s.violationRepo.Block(ctx, userID, "repeated unsafe input"); err != nil {
			s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to block user")
		}
		return ErrUserBlocked
	}
	return ErrUnsafeContent
}

// Block marks a user blocked; admin only.
func (s *SafetyService) Block(ctx context.Context, userID, reason string) error {
	if reason == "" {
		reason = "blocked by admin"
	}
	return s.violationRepo.Block(ctx, userID, reason)
}

// Unblock lifts a block; admin only.
func (s *SafetyService) Unblock(ctx context.Context, userID string) error {
	return s.violationRepo.Unblock(ctx, userID)
}

func matchAny(lower string, phrases []string) string {
	for _, p := range phrases {
		if strings.Contains(lower, strings.ToLower(p)) {
			return p
		}
	}
	return ""
}
