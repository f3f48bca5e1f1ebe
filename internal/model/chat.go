package model

import "time"

// ChatMessage is one turn in a user's assistant conversation.
type ChatMessage struct {
	ID        int64     `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Role      string    `db:"role" json:"role"` // "user" or "assistant"
	Content   string    `db:"content" json:"content"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ChatProfile is the lightweight user portrait distilled from conversations,
// used to sharpen personalization prompts.
type ChatProfile struct {
	Profession string   `json:"profession"`
	Interests  []string `json:"interests"`
	PainPoints []string `json:"pain_points"`
	SkillLevel string   `json:"skill_level"`
	Goals      []string `json:"goals"`
	UpdatedAt  string   `json:"updated_at"`
}
