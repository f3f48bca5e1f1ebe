package insights

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
	"unicode/utf8"

	"app/internal/config"
	"app/internal/model"
	"app/internal/pgmq"
	"app/internal/repository"
	"app/internal/service"

	"github.com/rs/zerolog"
)

const distillPrompt = `你是一位 AI 行业分析师。请把下面这篇文章提炼成一张洞察卡片。

标题：%s
来源：%s
正文：
%s

请严格按照以下 JSON 格式返回，只返回 JSON：
{
  "title": "提炼后的标题",
  "tags": ["#标签1", "#标签2", "#标签3"],
  "summary": "50-100字的摘要",
  "impact": "这条新闻对职场人使用 AI 的影响",
  "prompt": "一个读者可以直接使用的相关 Prompt",
  "url": "%s"
}`

// Run starts the insights orchestrator: it drains the crawl queue, distilling
// each raw article into a card for the global feed. It blocks until ctx is
// cancelled.
func Run(
	ctx context.Context,
	logger zerolog.Logger,
	client *pgmq.Client,
	rawNewsRepo repository.RawNewsRepository,
	insightRepo repository.InsightRepository,
	llm service.LLMClient,
	cfg *config.Config,
) error {
	queue := cfg.InsightsQueueName
	logger.Info().Str("queue", queue).Msg("Starting insights orchestrator")
	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("Shutting down insights orchestrator")
			return nil
		default:
		}

		msgs, err := client.ReadWithPoll(ctx, queue, cfg.InsightsPollTimeoutSec, cfg.InsightsPollMaxMsg)
		if err != nil {
			logger.Error().Err(err).Msg("Error reading insights queue")
			time.Sleep(time.Second)
			continue
		}
		if len(msgs) == 0 {
			continue
		}

		msg := msgs[0]
		var payload struct {
			RawNewsID string `json:"raw_news_id"`
		}
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			logger.Error().Err(err).Msg("Failed to unmarshal insights payload; deleting message")
			_ = client.Delete(ctx, queue, []int64{msg.ID})
			continue
		}
		logger.Info().Int64("msg_id", msg.ID).Str("raw_news_id", payload.RawNewsID).Msg("Received distillation job")

		raw, err := rawNewsRepo.GetByID(ctx, payload.RawNewsID)
		if err != nil {
			logger.Error().Err(err).Str("raw_news_id", payload.RawNewsID).Msg("Failed to load raw news; will retry")
			time.Sleep(time.Second)
			continue
		}
		if raw == nil || raw.Processed {
			_ = client.Delete(ctx, queue, []int64{msg.ID})
			continue
		}

		// Distill with retry and exponential backoff against the LLM provider.
		backoff := time.Duration(cfg.InsightsBackoffInitialSec) * time.Second
		var card *model.InsightCard
		var distillErr error
		for attempt := 1; attempt <= cfg.InsightsMaxRetries; attempt++ {
			card, distillErr = distill(ctx, llm, raw)
			if distillErr == nil {
				break
			}
			logger.Error().Err(distillErr).Int("attempt", attempt).Msg("Distillation failed, retrying")
			time.Sleep(backoff)
			backoff *= 2
			if max := time.Duration(cfg.InsightsBackoffMaxSec) * time.Second; backoff > max {
				backoff = max
			}
		}
		if distillErr != nil {
			// Move the job to the DLQ and acknowledge, so one poisoned
			// article cannot wedge the queue.
			if body, err := json.Marshal(payload); err == nil {
				if err := client.Send(ctx, cfg.InsightsDeadLetterQueueName, body); err != nil {
					logger.Error().Err(err).Str("dlq", cfg.InsightsDeadLetterQueueName).Msg("Failed to send message to dead-letter queue")
				}
			}
			if err := client.Delete(ctx, queue, []int64{msg.ID}); err != nil {
				logger.Error().Err(err).Msg("Error deleting insights message after failure")
			}
			logger.Warn().
				Int("attempts", cfg.InsightsMaxRetries).
				Str("raw_news_id", payload.RawNewsID).
				Err(distillErr).
				Msg("Exhausted all distillation retries; moving job to DLQ")
			continue
		}

		if err := insightRepo.Save(ctx, []model.InsightCard{*card}); err != nil {
			logger.Error().Err(err).Str("raw_news_id", payload.RawNewsID).Msg("Failed to save insight; will retry")
			time.Sleep(time.Second)
			continue
		}
		if err := rawNewsRepo.MarkProcessed(ctx, payload.RawNewsID); err != nil {
			logger.Error().Err(err).Str("raw_news_id", payload.RawNewsID).Msg("Failed to mark raw news processed")
		}
		if err := client.Delete(ctx, queue, []int64{msg.ID}); err != nil {
			logger.Error().Err(err).Msg("Error deleting insights message")
		}
	}
}

func distill(ctx context.Context, llm service.LLMClient, raw *model.RawNews) (*model.InsightCard, error) {
	content := raw.Content
	if len(content) > 6000 {
		// Cut on a rune boundary; article bodies are mostly Chinese.
		cut := 6000
		for cut > 0 && !utf8.RuneStart(content[cut]) {
			cut--
		}
		content = content[:cut]
	}
	prompt := fmt.Sprintf(distillPrompt, raw.Title, raw.SourceName, content, raw.SourceURL)

	reply, err := llm.Complete(ctx, []service.LLMMessage{{Role: "user", Content: prompt}}, 0.3, 1500)
	if err != nil {
		return nil, err
	}
	var card model.InsightCard
	if err := json.Unmarshal([]byte(service.ExtractJSONObject(reply)), &card); err != nil {
		return nil, fmt.Errorf("malformed distillation reply: %w", err)
	}
	card.ID = "feed-" + raw.ID
	card.Timestamp = time.Now().Format("2006-01-02")
	if card.URL == "" {
		card.URL = raw.SourceURL
	}
	if card.Tags == nil {
		card.Tags = []string{}
	}
	return &card, nil
}
