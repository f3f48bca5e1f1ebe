package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"app/internal/model"

	"github.com/rs/zerolog"
)

type stubChatRepo struct {
	messages []model.ChatMessage
	nextID   int64
}

func (s *stubChatRepo) SaveMessage(ctx context.Context, userID, role, content string) (*model.ChatMessage, error) {
	s.nextID++
	msg := model.ChatMessage{ID: s.nextID, UserID: userID, Role: role, Content: content}
	s.messages = append(s.messages, msg)
	return &msg, nil
}

func (s *stubChatRepo) History(ctx context.Context, userID string, limit int) ([]model.ChatMessage, error) {
	var out []model.ChatMessage
	for _, m := range s.messages {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (s *stubChatRepo) DeleteHistory(ctx context.Context, userID string) error {
	s.messages = nil
	return nil
}

func TestChatSendPersistsBothTurns(t *testing.T) {
	repo := &stubChatRepo{}
	llm := &stubLLMClient{reply: "建议从提示词工程入门。"}
	svc := NewChatService(repo, &stubUserRepo{user: &model.User{UserID: "u1", Profession: "product_manager"}}, llm, 50, zerolog.Nop())

	reply, err := svc.Send(context.Background(), "u1", "怎么学 AI？")
	if err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	if reply.Role != "assistant" || reply.Content != "建议从提示词工程入门。" {
		t.Fatalf("unexpected reply: %+v", reply)
	}
	if len(repo.messages) != 2 {
		t.Fatalf("expected user and assistant turns persisted, got %d", len(repo.messages))
	}
	if !strings.Contains(llm.prompt, "怎么学 AI？") {
		t.Fatal("history should reach the model")
	}
}

func TestChatSendLLMFailure(t *testing.T) {
	repo := &stubChatRepo{}
	llm := &stubLLMClient{err: errors.New("provider down")}
	svc := NewChatService(repo, &stubUserRepo{}, llm, 50, zerolog.Nop())

	if _, err := svc.Send(context.Background(), "u1", "hi"); err == nil {
		t.Fatal("expected error when the model is unavailable")
	}
	// The user's turn stays; only the reply is missing.
	if len(repo.messages) != 1 || repo.messages[0].Role != "user" {
		t.Fatalf("expected only the user turn persisted, got %+v", repo.messages)
	}
}

func TestDistillProfileNeedsSignal(t *testing.T) {
	repo := &stubChatRepo{}
	svc := NewChatService(repo, &stubUserRepo{}, &stubLLMClient{}, 50, zerolog.Nop())

	profile, err := svc.DistillProfile(context.Background(), "u1")
	if err != nil {
		t.Fatalf("DistillProfile returned error: %v", err)
	}
	if profile != nil {
		t.Fatal("expected nil profile for an empty conversation")
	}
}

func TestDistillProfile(t *testing.T) {
	repo := &stubChatRepo{}
	for i := 0; i < 3; i++ {
		_, _ = repo.SaveMessage(context.Background(), "u1", "user", "我是产品经理，想学 AI 数据分析")
		_, _ = repo.SaveMessage(context.Background(), "u1", "assistant", "好的")
	}
	llm := &stubLLMClient{reply: `{"profession": "产品经理", "interests": ["数据分析"], "skill_level": "beginner"}`}
	svc := NewChatService(repo, &stubUserRepo{}, llm, 50, zerolog.Nop())

	profile, err := svc.DistillProfile(context.Background(), "u1")
	if err != nil {
		t.Fatalf("DistillProfile returned error: %v", err)
	}
	if profile == nil || profile.Profession != "产品经理" || profile.SkillLevel != "beginner" {
		t.Fatalf("unexpected profile: %+v", profile)
	}
	if profile.UpdatedAt == "" {
		t.Fatal("profile timestamp not set")
	}
}
