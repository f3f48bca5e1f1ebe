package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
)

// LLMClient calls an OpenAI-compatible chat-completions endpoint
// (SiliconFlow/DeepSeek in production).
type LLMClient interface {
	Complete(ctx context.Context, messages []LLMMessage, temperature float64, maxTokens int) (string, error)
}

// LLMMessage is one chat turn sent to the model.
type LLMMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type llmClient struct {
	client  *http.Client
	baseURL string
	apiKey  func(ctx context.Context) string
	model   string
	logger  zerolog.Logger
}

// NewLLMClient creates an LLMClient. apiKey is resolved per call so rotated
// provider keys take effect without a restart.
func NewLLMClient(baseURL, model string, timeout time.Duration, apiKey func(ctx context.Context) string, logger zerolog.Logger) LLMClient {
	return &llmClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		logger:  logger.With().Str("service", "LLMClient").Logger(),
	}
}

func (c *llmClient) Complete(ctx context.Context, messages []LLMMessage, temperature float64, maxTokens int) (string, error) {
	reqBody, err := json.Marshal(map[string]any{
		"model":       c.model,
		"messages":    messages,
		"temperature": temperature,
		"max_tokens":  maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("encoding completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("creating completion request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey(ctx))
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling completion endpoint: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading completion response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("completion endpoint returned status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decoding completion response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("completion response has no choices")
	}

	c.logger.Debug().Dur("duration", time.Since(start)).Msg("Completion finished")
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

// ExtractJSON strips markdown code fences and surrounding prose so a model
// reply can be unmarshalled as a JSON array.
func ExtractJSON(content string) string {
	if idx := strings.Index(content, "```json"); idx != -1 {
		content = content[idx+len("```json"):]
		if end := strings.Index(content, "```"); end != -1 {
			content = content[:end]
		}
	} else if idx := strings.Index(content, "```"); idx != -1 {
		content = content[idx+3:]
		if end := strings.Index(content, "```"); end != -1 {
			content = content[:end]
		}
	}
	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start != -1 && end != -1 && end > start {
		content = content[start : end+1]
	}
	return strings.TrimSpace(content)
}

// ExtractJSONObject is the object counterpart of ExtractJSON.
func ExtractJSONObject(content string) string {
	if idx := strings.Index(content, "```json"); idx != -1 {
		content = content[idx+len("```json"):]
		if end := strings.Index(content, "```"); end != -1 {
			content = content[:end]
		}
	}
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start != -1 && end != -1 && end > start {
		content = content[start : end+1]
	}
	return strings.TrimSpace(content)
}

// truncate cuts s to at most n bytes without splitting a UTF-8 rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
