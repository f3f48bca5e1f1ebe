package dto

import "encoding/json"

// InviteUseRequest redeems an invite code for the calling user. new_user_id
// is the wire name; user_id is accepted as an alias for older clients.
type InviteUseRequest struct {
	Code      string `json:"invite_code" validate:"required,len=6"`
	NewUserID string `json:"new_user_id"`
	UserID    string `json:"user_id"`
}

// InvitedUser returns the redeeming user id from either wire field.
func (r InviteUseRequest) InvitedUser() string {
	if r.NewUserID != "" {
		return r.NewUserID
	}
	return r.UserID
}

// PersonalizeRequest sets the profession used for content generation.
type PersonalizeRequest struct {
	UserID     string `json:"user_id"`
	Profession string `json:"profession" validate:"required"`
}

// InteractionRequest records one card interaction.
type InteractionRequest struct {
	UserID   string          `json:"user_id"`
	ItemID   string          `json:"item_id" validate:"required"`
	Action   string          `json:"action" validate:"required"`
	ItemType string          `json:"item_type"`
	ItemData json.RawMessage `json:"item_data,omitempty"`
}

// ChatRequest is one user message to the assistant.
type ChatRequest struct {
	UserID  string `json:"user_id"`
	Message string `json:"message" validate:"required,max=4000"`
}

// ContactRequest is the contact form payload.
type ContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email" validate:"required,email"`
	Subject string `json:"subject"`
	Message string `json:"message" validate:"required,max=5000"`
}

// TrackRequest is one frontend analytics event.
type TrackRequest struct {
	UserID    string          `json:"user_id"`
	EventType string          `json:"event_type" validate:"required"`
	EventName string          `json:"event_name"`
	Page      string          `json:"page"`
	Extra     json.RawMessage `json:"extra,omitempty"`
}

// AnnouncementRequest creates or updates an announcement (admin).
type AnnouncementRequest struct {
	Title   string `json:"title" validate:"required"`
	Content string `json:"content" validate:"required"`
	Active  bool   `json:"active"`
	Pinned  bool   `json:"pinned"`
}

// ProfileUpdateRequest updates the caller's profile.
type ProfileUpdateRequest struct {
	Profession string `json:"profession" validate:"required"`
}

// GrantRequest issues a manual premium grant (admin).
type GrantRequest struct {
	UserID string `json:"user_id" validate:"required"`
	Days   int    `json:"days" validate:"required"`
}

// BlockRequest blocks or unblocks a user (admin).
type BlockRequest struct {
	UserID string `json:"user_id" validate:"required"`
	Reason string `json:"reason"`
}
