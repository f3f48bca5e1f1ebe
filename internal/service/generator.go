package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"app/internal/model"

	"github.com/rs/zerolog"
)

// ErrGeneratorUnavailable wraps any failure of the external generation chain
// (search or LLM). Callers retry; the server never does.
var ErrGeneratorUnavailable = errors.New("content generator unavailable")

// GenerateRequest describes one generation call.
type GenerateRequest struct {
	Kind       model.ContentKind
	Profession string // display name used inside prompts
	Count      int
	Seed       int // rotates query templates so refreshes surface new material
}

// Generator produces insight cards. The production implementation chains a
// web search with an LLM pass; tests substitute stubs.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) ([]model.InsightCard, error)
}

var newsQueries = []string{
	"AI人工智能 最新动态",
	"AI大模型 最新发布",
	"人工智能 行业新闻 最新",
	"AI工具 新功能 发布",
	"ChatGPT Claude Gemini 最新消息",
	"AI Agent 智能体 最新进展",
}

var allowedDomains = []string{
	"zhihu.com", "36kr.com", "sspai.com", "juejin.cn",
	"mp.weixin.qq.com", "bilibili.com", "csdn.net",
	"jianshu.com", "woshipm.com", "jiqizhixin.com",
	"pingwest.com", "geekpark.net", "leiphone.com",
	"theverge.com", "techcrunch.com", "wired.com",
	"arstechnica.com", "venturebeat.com", "zdnet.com",
	"cnet.com", "engadget.com", "thenextweb.com",
	"reuters.com", "nature.com", "ieee.org",
	"mit.edu", "stanford.edu", "openai.com",
	"anthropic.com", "huggingface.co",
}

type llmGenerator struct {
	search SearchClient
	llm    LLMClient
	logger zerolog.Logger
}

// NewGenerator builds the production search+LLM generator.
func NewGenerator(search SearchClient, llm LLMClient, logger zerolog.Logger) Generator {
	return &llmGenerator{
		search: search,
		llm:    llm,
		logger: logger.With().Str("service", "Generator").Logger(),
	}
}

func (g *llmGenerator) Generate(ctx context.Context, req GenerateRequest) ([]model.InsightCard, error) {
	query := g.queryFor(req)
	results, err := g.search.Search(ctx, query, 15, 3, allowedDomains)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGeneratorUnavailable, err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("%w: search returned no results", ErrGeneratorUnavailable)
	}

	var sb strings.Builder
	for i, res := range results {
		fmt.Fprintf(&sb, "[%d] 标题: %s\n链接: %s\n摘要: %s\n\n", i+1, res.Title, res.URL, res.Content)
	}

	content, err := g.llm.Complete(ctx, []LLMMessage{
		{Role: "user", Content: g.promptFor(req, sb.String())},
	}, 0.3, 4000)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGeneratorUnavailable, err)
	}

	var cards []model.InsightCard
	if err := json.Unmarshal([]byte(ExtractJSON(content)), &cards); err != nil {
		g.logger.Error().Err(err).Msg("Model reply was not valid JSON")
		return nil, fmt.Errorf("%w: malformed model reply", ErrGeneratorUnavailable)
	}

	prefix := idPrefix(req.Kind)
	ts := time.Now().Format("2006-01-02")
	for i := range cards {
		cards[i].ID = prefix + "-" + randomHex(8)
		cards[i].Timestamp = ts
		if cards[i].Tags == nil {
			cards[i].Tags = []string{}
		}
	}
	if len(cards) > req.Count {
		cards = cards[:req.Count]
	}
	return cards, nil
}

func (g *llmGenerator) queryFor(req GenerateRequest) string {
	switch req.Kind {
	case model.KindTools:
		return fmt.Sprintf("适合%s的 AI 工具推荐 效率提升", req.Profession)
	case model.KindCases:
		return fmt.Sprintf("%s AI 应用案例 实战经验", req.Profession)
	default:
		return newsQueries[req.Seed%len(newsQueries)]
	}
}

func (g *llmGenerator) promptFor(req GenerateRequest, searchContext string) string {
	subject := map[model.ContentKind]string{
		model.KindPersonalNews: "AI 行业洞察卡片",
		model.KindGeneralNews:  "AI 行业新闻卡片",
		model.KindTools:        "AI 工具推荐卡片",
		model.KindCases:        "AI 实战案例卡片",
	}[req.Kind]

	return fmt.Sprintf(`你是一位专业的 AI 行业分析师。我为你搜集了一些最新的 AI 相关资料。
请仔细阅读以下搜索结果，并为"%s"生成 %d 条高质量的%s。

搜索结果：
%s

要求：
1. 每条内容都要基于真实的搜索结果，不要编造
2. 为每条生成：标题、标签、摘要、对该职业的具体影响、可直接使用的 Prompt
3. 摘要要简洁有信息量（50-100字）
4. 影响分析要针对 %s 这个职业具体化
5. Prompt 要实用，可以直接复制使用

请严格按照以下 JSON 格式返回：
[
  {
    "title": "标题",
    "tags": ["#标签1", "#标签2", "#标签3"],
    "summary": "摘要，简洁有信息量",
    "impact": "对%s的具体影响和建议",
    "prompt": "可直接使用的 Prompt 示例",
    "url": "原文链接"
  }
]

只返回 JSON 数组，不要其他内容。`, req.Profession, req.Count, subject, searchContext, req.Profession, req.Profession)
}

func idPrefix(kind model.ContentKind) string {
	switch kind {
	case model.KindTools:
		return "tool"
	case model.KindCases:
		return "case"
	default:
		return "news"
	}
}

func randomHex(n int) string {
	b := make([]byte, (n+1)/2)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)[:n]
}
