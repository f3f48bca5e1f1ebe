package config

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	Environment string `envconfig:"ENV" default:"development"`
	FrontendURL string `envconfig:"FRONTEND_URL" default:"http://localhost:3000"`

	DBConnectionString string `envconfig:"SUPABASE_DB_URL" required:"true"`
	JWTSecret          string `envconfig:"SUPABASE_JWT_SECRET" required:"true"`

	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`

	// Supabase Storage (S3-compatible) for raw crawl archives
	S3URL       string `envconfig:"SUPABASE_S3_URL" default:""`
	S3Bucket    string `envconfig:"SUPABASE_S3_BUCKET" default:"crawl-archives"`
	S3Region    string `envconfig:"SUPABASE_S3_REGION" default:"us-east-1"`
	S3AccessKey string `envconfig:"SUPABASE_S3_ACCESS_KEY" default:""`
	S3SecretKey string `envconfig:"SUPABASE_S3_SECRET_KEY" default:""`

	// LLM provider (OpenAI-compatible endpoint, e.g. SiliconFlow/DeepSeek)
	LLMBaseURL       string `envconfig:"LLM_BASE_URL" default:"https://api.siliconflow.cn/v1"`
	LLMAPIKey        string `envconfig:"LLM_API_KEY" default:""`
	LLMModel         string `envconfig:"LLM_MODEL" default:"deepseek-ai/DeepSeek-V3"`
	LLMTimeoutSec    int    `envconfig:"LLM_TIMEOUT_SEC" default:"60"`
	SearchAPIBaseURL string `envconfig:"SEARCH_API_BASE_URL" default:"https://api.tavily.com"`
	SearchAPIKey     string `envconfig:"SEARCH_API_KEY" default:""`

	// GCP: Secret Manager holds provider keys in production, Pub/Sub carries
	// analytics events. Both optional in development.
	GCPProjectID        string `envconfig:"GCP_PROJECT_ID" default:""`
	AnalyticsTopic      string `envconfig:"ANALYTICS_TOPIC" default:"focusai-analytics"`
	AnalyticsPublishing bool   `envconfig:"ANALYTICS_PUBLISHING" default:"false"`

	// Invite reward policy
	InviteRewardDays int `envconfig:"INVITE_REWARD_DAYS" default:"7"`
	MaxRewardDays    int `envconfig:"MAX_REWARD_DAYS" default:"365"`

	// Content generation
	ContentTimezone    string `envconfig:"CONTENT_TIMEZONE" default:"Asia/Shanghai"`
	DisplayCount       int    `envconfig:"CONTENT_DISPLAY_COUNT" default:"6"`
	FetchCount         int    `envconfig:"CONTENT_FETCH_COUNT" default:"18"`
	PoolCacheTTLSec    int    `envconfig:"CONTENT_POOL_TTL_SEC" default:"1800"`
	RatePerMinute      int    `envconfig:"RATE_LIMIT_PER_MINUTE" default:"10"`
	RatePerHour        int    `envconfig:"RATE_LIMIT_PER_HOUR" default:"60"`
	MaxViolations      int    `envconfig:"MAX_VIOLATIONS" default:"5"`
	ChatHistoryLimit   int    `envconfig:"CHAT_HISTORY_LIMIT" default:"50"`
	AdminToken         string `envconfig:"ADMIN_TOKEN" default:""`
	ShareItemLimit     int    `envconfig:"SHARE_ITEM_LIMIT" default:"10"`
	ProfessionMaxChars int    `envconfig:"PROFESSION_MAX_CHARS" default:"50"`

	// Insight pipeline (crawler -> orchestrator)
	InsightsQueueName           string `envconfig:"INSIGHTS_QUEUE_NAME" default:"insights_queue"`
	InsightsPollTimeoutSec      int    `envconfig:"INSIGHTS_POLL_TIMEOUT_SEC" default:"30"`
	InsightsPollMaxMsg          int    `envconfig:"INSIGHTS_POLL_MAX_MSG" default:"1"`
	InsightsMaxRetries          int    `envconfig:"INSIGHTS_MAX_RETRIES" default:"5"`
	InsightsBackoffInitialSec   int    `envconfig:"INSIGHTS_BACKOFF_INITIAL_SEC" default:"1"`
	InsightsBackoffMaxSec       int    `envconfig:"INSIGHTS_BACKOFF_MAX_SEC" default:"60"`
	InsightsDeadLetterQueueName string `envconfig:"INSIGHTS_DEAD_LETTER_QUEUE_NAME" default:"insights_queue_dlq"`

	// Crawler
	CrawlerSources   []string `envconfig:"CRAWLER_SOURCES" default:"https://www.jiqizhixin.com/rss,https://techcrunch.com/category/artificial-intelligence/feed/"`
	CrawlerMaxPerRun int      `envconfig:"CRAWLER_MAX_PER_RUN" default:"30"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
