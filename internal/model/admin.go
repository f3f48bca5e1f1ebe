package model

import (
	"encoding/json"
	"time"
)

// Announcement is a site-wide notice managed by admins.
type Announcement struct {
	ID        int64     `db:"id" json:"id"`
	Title     string    `db:"title" json:"title"`
	Content   string    `db:"content" json:"content"`
	Active    bool      `db:"active" json:"active"`
	Pinned    bool      `db:"pinned" json:"pinned"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ContactMessage is a message left through the contact form.
type ContactMessage struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	Subject   string    `db:"subject" json:"subject"`
	Message   string    `db:"message" json:"message"`
	IsRead    bool      `db:"is_read" json:"is_read"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// AnalyticsEvent is one tracked frontend event.
type AnalyticsEvent struct {
	ID        int64           `db:"id" json:"id"`
	UserID    string          `db:"user_id" json:"user_id"`
	EventType string          `db:"event_type" json:"event_type"`
	EventName string          `db:"event_name" json:"event_name"`
	Page      string          `db:"page" json:"page"`
	Extra     json.RawMessage `db:"extra" json:"extra,omitempty"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

// Violation records a rejected input; repeat offenders are auto-blocked.
type Violation struct {
	ID        int64     `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Type      string    `db:"violation_type" json:"violation_type"`
	Content   string    `db:"content" json:"content"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
