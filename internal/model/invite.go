package model

import "time"

// InviteCode is a user's six-character referral code. Codes are stored
// upper-case and compared case-insensitively.
type InviteCode struct {
	Code      string    `db:"code" json:"code"`
	UserID    string    `db:"user_id" json:"user_id"`
	UsedCount int       `db:"used_count" json:"used_count"`
	UsedBy    []string  `db:"used_by" json:"used_by"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// PremiumGrant is one premium entitlement issued to a user. A user may hold
// many grants; the effective expiry is the maximum across them.
type PremiumGrant struct {
	ID         int64     `db:"id" json:"id"`
	UserID     string    `db:"user_id" json:"user_id"`
	Source     string    `db:"source" json:"source"` // "invite" or "payment"
	RewardDays int       `db:"reward_days" json:"reward_days"`
	ExpiresAt  time.Time `db:"expires_at" json:"expires_at"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// PremiumStatus is the derived entitlement view served to the frontend.
type PremiumStatus struct {
	IsPremium       bool       `json:"is_premium"`
	RemainingDays   int        `json:"remaining_days"`
	ExpiresAt       *time.Time `json:"premium_expires,omitempty"`
	InvitedCount    int        `json:"invited_count"`
	TotalRewardDays int        `json:"total_reward_days"`
	MaxRewardDays   int        `json:"max_reward_days"`
	RewardPerInvite int        `json:"reward_per_invite"`
}
