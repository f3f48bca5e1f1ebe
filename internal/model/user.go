package model

import "time"

// User represents a user profile in the system. The UserID is either the
// Supabase auth subject or, for pre-signup visitors, a client-generated alias.
type User struct {
	UserID            string    `db:"user_id" json:"user_id"`
	Profession        string    `db:"profession" json:"profession"`
	ProfessionDisplay string    `db:"profession_display" json:"profession_display"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// Profession maps an API key to its Chinese display name.
type Profession struct {
	Key     string `json:"key"`
	Display string `json:"display"`
}

// Professions is the built-in catalogue shown by the onboarding flow. Free-text
// professions are also accepted on the generation endpoints after safety checks.
var Professions = []Profession{
	{Key: "product_manager", Display: "产品经理"},
	{Key: "frontend_engineer", Display: "前端工程师"},
	{Key: "backend_engineer", Display: "后端工程师"},
	{Key: "fullstack_engineer", Display: "全栈工程师"},
	{Key: "ui_ux_designer", Display: "UI/UX 设计师"},
	{Key: "graphic_designer", Display: "平面设计师"},
	{Key: "operations", Display: "运营"},
	{Key: "marketing", Display: "市场营销"},
	{Key: "data_analyst", Display: "数据分析师"},
	{Key: "online_teacher", Display: "线上老师"},
	{Key: "content_creator", Display: "内容创作者"},
	{Key: "student", Display: "学生"},
	{Key: "entrepreneur", Display: "创业者"},
	{Key: "other", Display: "职场人士"},
}

// ProfessionDisplay resolves a profession key to its display name. Free-text
// professions display as themselves; the empty profession falls back to the
// generic display.
func ProfessionDisplay(key string) string {
	for _, p := range Professions {
		if p.Key == key {
			return p.Display
		}
	}
	if key == "" {
		return "职场人士"
	}
	return key
}
