package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"app/internal/model"

	"github.com/rs/zerolog"
)

type stubSearchClient struct {
	results []SearchResult
	err     error
	query   string
}

func (s *stubSearchClient) Search(ctx context.Context, query string, maxResults, days int, domains []string) ([]SearchResult, error) {
	s.query = query
	return s.results, s.err
}

type stubLLMClient struct {
	reply  string
	err    error
	prompt string
}

func (s *stubLLMClient) Complete(ctx context.Context, messages []LLMMessage, temperature float64, maxTokens int) (string, error) {
	if len(messages) > 0 {
		s.prompt = messages[len(messages)-1].Content
	}
	return s.reply, s.err
}

func searchResults(n int) []SearchResult {
	out := make([]SearchResult, n)
	for i := range out {
		out[i] = SearchResult{Title: fmt.Sprintf("t%d", i), URL: fmt.Sprintf("https://example.com/%d", i), Content: "body"}
	}
	return out
}

func TestGenerateParsesCards(t *testing.T) {
	search := &stubSearchClient{results: searchResults(3)}
	llm := &stubLLMClient{reply: "```json\n" + `[
		{"title": "新模型发布", "tags": ["#模型"], "summary": "s", "impact": "i", "prompt": "p", "url": "https://example.com/0"},
		{"title": "工具更新", "tags": ["#工具"], "summary": "s", "impact": "i", "prompt": "p", "url": "https://example.com/1"}
	]` + "\n```"}
	gen := NewGenerator(search, llm, zerolog.Nop())

	cards, err := gen.Generate(context.Background(), GenerateRequest{
		Kind: model.KindPersonalNews, Profession: "产品经理", Count: 6,
	})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if len(cards) != 2 {
		t.Fatalf("expected 2 cards, got %d", len(cards))
	}
	for _, c := range cards {
		if !strings.HasPrefix(c.ID, "news-") || len(c.ID) != len("news-")+8 {
			t.Fatalf("unexpected card id %q", c.ID)
		}
		if c.Timestamp == "" {
			t.Fatal("card timestamp not set")
		}
	}
	if cards[0].ID == cards[1].ID {
		t.Fatal("card ids must be unique")
	}
	if !strings.Contains(llm.prompt, "产品经理") {
		t.Fatal("prompt should carry the profession")
	}
}

func TestGenerateTruncatesToCount(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("[")
	for i := 0; i < 10; i++ {
		if i > 0 {
			sb.WriteString(",")
		}
		fmt.Fprintf(&sb, `{"title":"t%d","summary":"s","impact":"i","prompt":"p","url":"u"}`, i)
	}
	sb.WriteString("]")

	gen := NewGenerator(&stubSearchClient{results: searchResults(3)}, &stubLLMClient{reply: sb.String()}, zerolog.Nop())
	cards, err := gen.Generate(context.Background(), GenerateRequest{Kind: model.KindTools, Profession: "设计师", Count: 6})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if len(cards) != 6 {
		t.Fatalf("expected truncation to 6 cards, got %d", len(cards))
	}
	if !strings.HasPrefix(cards[0].ID, "tool-") {
		t.Fatalf("tools cards should carry the tool prefix, got %q", cards[0].ID)
	}
}

func TestGenerateSearchFailure(t *testing.T) {
	gen := NewGenerator(&stubSearchClient{err: errors.New("upstream down")}, &stubLLMClient{}, zerolog.Nop())
	_, err := gen.Generate(context.Background(), GenerateRequest{Kind: model.KindPersonalNews, Profession: "p", Count: 6})
	if !errors.Is(err, ErrGeneratorUnavailable) {
		t.Fatalf("expected ErrGeneratorUnavailable, got %v", err)
	}
}

func TestGenerateMalformedReply(t *testing.T) {
	gen := NewGenerator(&stubSearchClient{results: searchResults(2)}, &stubLLMClient{reply: "抱歉，我无法完成"}, zerolog.Nop())
	_, err := gen.Generate(context.Background(), GenerateRequest{Kind: model.KindCases, Profession: "p", Count: 6})
	if !errors.Is(err, ErrGeneratorUnavailable) {
		t.Fatalf("expected ErrGeneratorUnavailable for malformed reply, got %v", err)
	}
}

func TestGenerateSeedRotatesNewsQueries(t *testing.T) {
	reply := `[{"title":"t","summary":"s","impact":"i","prompt":"p","url":"u"}]`
	search := &stubSearchClient{results: searchResults(2)}
	gen := NewGenerator(search, &stubLLMClient{reply: reply}, zerolog.Nop())

	if _, err := gen.Generate(context.Background(), GenerateRequest{Kind: model.KindGeneralNews, Profession: "p", Count: 6, Seed: 0}); err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	first := search.query
	if _, err := gen.Generate(context.Background(), GenerateRequest{Kind: model.KindGeneralNews, Profession: "p", Count: 6, Seed: 1}); err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if search.query == first {
		t.Fatal("seed should rotate the search query")
	}
}
