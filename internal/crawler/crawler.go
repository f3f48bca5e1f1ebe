package crawler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"app/internal/model"
	"app/internal/repository"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"
)

// Archiver stores raw crawl snapshots; satisfied by the S3 client.
type Archiver interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Queue enqueues distillation work; satisfied by the pgmq client.
type Queue interface {
	Send(ctx context.Context, queue string, payload []byte) error
}

// Crawler pulls AI news from RSS feeds into the raw_news table, archives each
// run to object storage, and enqueues the new rows for insight distillation.
type Crawler struct {
	parser      *gofeed.Parser
	rawNewsRepo repository.RawNewsRepository
	archiver    Archiver
	bucket      string
	queueClient Queue
	queue       string
	maxPerRun   int
	logger      zerolog.Logger
}

// New creates a Crawler. archiver may be nil when no object storage is
// configured; archival is then skipped.
func New(
	rawNewsRepo repository.RawNewsRepository,
	archiver Archiver,
	bucket string,
	queueClient Queue,
	queue string,
	maxPerRun int,
	logger zerolog.Logger,
) *Crawler {
	return &Crawler{
		parser:      gofeed.NewParser(),
		rawNewsRepo: rawNewsRepo,
		archiver:    archiver,
		bucket:      bucket,
		queueClient: queueClient,
		queue:       queue,
		maxPerRun:   maxPerRun,
		logger:      logger.With().Str("service", "Crawler").Logger(),
	}
}

// Run crawls every source once. Per-source failures are logged and skipped;
// the run fails only when no source could be fetched at all.
func (c *Crawler) Run(ctx context.Context, sources []string) error {
	var collected []model.RawNews
	failures := 0
	for _, src := range sources {
		items, err := c.fetchSource(ctx, src)
		if err != nil {
			c.logger.Error().Err(err).Str("source", src).Msg("Source fetch failed")
			failures++
			continue
		}
		collected = append(collected, items...)
	}
	if failures == len(sources) {
		return fmt.Errorf("all %d sources failed", len(sources))
	}
	if len(collected) > c.maxPerRun {
		collected = collected[:c.maxPerRun]
	}

	if c.archiver != nil {
		if err := c.archive(ctx, collected); err != nil {
			// Archival is best-effort; the pipeline runs on the DB rows.
			c.logger.Warn().Err(err).Msg("Failed to archive crawl run")
		}
	}

	newIDs, err := c.rawNewsRepo.SaveBatch(ctx, collected)
	if err != nil {
		return fmt.Errorf("saving crawled items: %w", err)
	}
	c.logger.Info().
		Int("fetched", len(collected)).
		Int("new", len(newIDs)).
		Msg("Crawl run stored")

	for _, id := range newIDs {
		payload, _ := json.Marshal(map[string]string{"raw_news_id": id})
		if err := c.queueClient.Send(ctx, c.queue, payload); err != nil {
			return fmt.Errorf("enqueueing raw news %s: %w", id, err)
		}
	}
	return nil
}

func (c *Crawler) fetchSource(ctx context.Context, src string) ([]model.RawNews, error) {
	feed, err := c.parser.ParseURLWithContext(src, ctx)
	if err != nil {
		return nil, fmt.Errorf("parsing feed %s: %w", src, err)
	}
	var items []model.RawNews
	for _, item := range feed.Items {
		if item.Link == "" || item.Title == "" {
			continue
		}
		content := item.Content
		if content == "" {
			content = item.Description
		}
		items = append(items, model.RawNews{
			SourceURL:   item.Link,
			SourceName:  feed.Title,
			Title:       item.Title,
			Content:     content,
			PublishedAt: item.PublishedParsed,
		})
	}
	c.logger.Info().Str("source", src).Int("items", len(items)).Msg("Source fetched")
	return items, nil
}

func (c *Crawler) archive(ctx context.Context, items []model.RawNews) error {
	body, err := json.Marshal(items)
	if err != nil {
		return err
	}
	key := fmt.Sprintf("crawls/%s.json", time.Now().UTC().Format("2006-01-02T15-04-05"))
	_, err = c.archiver.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	return err
}
