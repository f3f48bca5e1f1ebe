package model

import "time"

// ContentKind identifies one of the independently cached and gated content
// feeds a user can generate per day.
type ContentKind string

const (
	KindPersonalNews ContentKind = "personal_news"
	KindGeneralNews  ContentKind = "general_news"
	KindTools        ContentKind = "tools"
	KindCases        ContentKind = "cases"
)

// Valid reports whether k is one of the known content kinds.
func (k ContentKind) Valid() bool {
	switch k {
	case KindPersonalNews, KindGeneralNews, KindTools, KindCases:
		return true
	}
	return false
}

// InsightCard is the core content unit: an AI-processed news/tool/case card.
type InsightCard struct {
	ID          string    `db:"item_id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Tags        []string  `db:"tags" json:"tags"`
	Summary     string    `db:"summary" json:"summary"`
	Impact      string    `db:"impact" json:"impact"`
	Prompt      string    `db:"prompt" json:"prompt,omitempty"`
	URL         string    `db:"url" json:"url"`
	Timestamp   string    `db:"ts" json:"timestamp"`
	GeneratedAt time.Time `db:"generated_at" json:"-"`
}

// DailyBatch is the set of cards generated for one user, one content kind, one
// calendar day. At most one batch exists per key; items within a batch are
// unique by card ID and append-only.
type DailyBatch struct {
	ID         int64         `db:"id" json:"-"`
	UserID     string        `db:"user_id" json:"user_id"`
	Kind       ContentKind   `db:"kind" json:"kind"`
	Date       string        `db:"batch_date" json:"date"` // YYYY-MM-DD in the content timezone
	Profession string        `db:"profession" json:"profession,omitempty"`
	Items      []InsightCard `db:"-" json:"items"`
	CreatedAt  time.Time     `db:"created_at" json:"created_at"`
}

// BatchKey addresses one DailyBatch.
type BatchKey struct {
	UserID string
	Kind   ContentKind
	Date   string
}

// RawNews is an unprocessed article stored by the crawler.
type RawNews struct {
	ID          string     `db:"id" json:"id"`
	SourceURL   string     `db:"source_url" json:"source_url"`
	SourceName  string     `db:"source_name" json:"source_name"`
	Title       string     `db:"title" json:"title"`
	Content     string     `db:"content" json:"content"`
	PublishedAt *time.Time `db:"published_at" json:"published_at,omitempty"`
	Processed   bool       `db:"processed" json:"processed"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}
