package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"app/internal/model"
	"app/internal/repository"

	"github.com/rs/zerolog"
)

const chatSystemPrompt = `你是聚智 AI 的智能助手，帮助职场人理解和应用 AI。
回答要求：
1. 简洁实用，优先给出可操作的建议
2. 结合用户的职业背景回答
3. 不确定的内容明确说明，不要编造
4. 拒绝回答与 AI 学习和职场应用无关的敏感话题`

// ChatService runs the assistant conversation: history-backed LLM chat plus
// a periodically distilled user portrait that feeds personalization.
type ChatService struct {
	chatRepo     repository.ChatRepository
	userRepo     repository.UserRepository
	llm          LLMClient
	historyLimit int
	logger       zerolog.Logger
}

// NewChatService creates a new ChatService.
func NewChatService(
	chatRepo repository.ChatRepository,
	userRepo repository.UserRepository,
	llm LLMClient,
	historyLimit int,
	logger zerolog.Logger,
) *ChatService {
	return &ChatService{
		chatRepo:     chatRepo,
		userRepo:     userRepo,
		llm:          llm,
		historyLimit: historyLimit,
		logger:       logger.With().Str("service", "ChatService").Logger(),
	}
}

// Send appends the user's message, asks the model with recent history as
// context, and stores the reply. Both turns are persisted even if the caller
// disconnects waiting.
func (s *ChatService) Send(ctx context.Context, userID, content string) (*model.ChatMessage, error) {
	if _, err := s.chatRepo.SaveMessage(ctx, userID, "user", content); err != nil {
		return nil, err
	}

	history, err := s.chatRepo.History(ctx, userID, s.historyLimit)
	if err != nil {
		return nil, err
	}

	messages := make([]LLMMessage, 0, len(history)+1)
	messages = append(messages, LLMMessage{Role: "system", Content: s.systemPrompt(ctx, userID)})
	for _, m := range history {
		messages = append(messages, LLMMessage{Role: m.Role, Content: m.Content})
	}

	reply, err := s.llm.Complete(ctx, messages, 0.7, 2000)
	if err != nil {
		return nil, fmt.Errorf("assistant reply: %w", err)
	}

	saved, err := s.chatRepo.SaveMessage(context.WithoutCancel(ctx), userID, "assistant", reply)
	if err != nil {
		return nil, err
	}
	return saved, nil
}

// History returns the user's recent conversation, oldest first.
func (s *ChatService) History(ctx context.Context, userID string) ([]model.ChatMessage, error) {
	return s.chatRepo.History(ctx, userID, s.historyLimit)
}

// Clear deletes the user's conversation.
func (s *ChatService) Clear(ctx context.Context, userID string) error {
	return s.chatRepo.DeleteHistory(ctx, userID)
}

// DistillProfile asks the model to summarize the conversation into a compact
// portrait. Callers treat an empty portrait as "not enough signal yet".
func (s *ChatService) DistillProfile(ctx context.Context, userID string) (*model.ChatProfile, error) {
	history, err := s.chatRepo.History(ctx, userID, s.historyLimit)
	if err != nil {
		return nil, err
	}
	if len(history) < 4 {
		return nil, nil
	}

	var sb strings.Builder
	for _, m := range history {
		fmt.Fprintf(&sb, "%s: %s\n", m.Role, m.Content)
	}
	prompt := fmt.Sprintf(`根据以下对话记录，提炼用户画像。只返回 JSON：
{"profession": "职业", "interests": ["兴趣"], "pain_points": ["痛点"], "skill_level": "beginner/intermediate/advanced", "goals": ["目标"]}

对话记录：
%s`, sb.String())

	reply, err := s.llm.Complete(ctx, []LLMMessage{{Role: "user", Content: prompt}}, 0.2, 1000)
	if err != nil {
		return nil, fmt.Errorf("distilling profile: %w", err)
	}

	var profile model.ChatProfile
	if err := json.Unmarshal([]byte(ExtractJSONObject(reply)), &profile); err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("Profile distillation returned malformed JSON")
		return nil, nil
	}
	profile.UpdatedAt = time.Now().Format(time.RFC3339)
	return &profile, nil
}

func (s *ChatService) systemPrompt(ctx context.Context, userID string) string {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil || user == nil || user.Profession == "" {
		return chatSystemPrompt
	}
	return chatSystemPrompt + "\n用户职业：" + model.ProfessionDisplay(user.Profession)
}
