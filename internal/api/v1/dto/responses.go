package dto

import (
	"app/internal/model"
)

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// DailyContentResponse is one content section's page with its diagnostics.
type DailyContentResponse struct {
	Items        []model.InsightCard `json:"items"`
	Date         string              `json:"date"`
	Profession   string              `json:"profession,omitempty"`
	Cached       bool                `json:"cached"`
	TotalFetched int                 `json:"total_fetched"`
	Error        string              `json:"error,omitempty"`
}

// InviteCodeResponse carries the user's own invite code.
type InviteCodeResponse struct {
	Code      string `json:"invite_code"`
	UsedCount int    `json:"used_count"`
}

// InviteUseResponse reports a successful redemption.
type InviteUseResponse struct {
	Success    bool   `json:"success"`
	RewardDays int    `json:"reward_days"`
	Message    string `json:"message"`
}

// ValidateResponse reports whether a code can be redeemed.
type ValidateResponse struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// ChatResponse is the assistant's reply.
type ChatResponse struct {
	Reply     string `json:"reply"`
	MessageID int64  `json:"message_id"`
}

// OKResponse acknowledges a write with no payload.
type OKResponse struct {
	Success bool `json:"success"`
}
