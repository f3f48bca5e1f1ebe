package router

import (
	"context"
	"net/http"
	"strings"
	"time"

	"app/internal/api/v1/handler"
	"app/internal/cache"
	"app/internal/config"
	"app/internal/middleware"
	"app/internal/pubsub"
	"app/internal/repository"
	"app/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

// New wires the whole API server and returns the root handler together with
// the connection pool for the caller to close on shutdown.
func New(cfg *config.Config, logger zerolog.Logger) (http.Handler, *pgxpool.Pool, error) {
	ctx := context.Background()

	// In development, local Postgres usually runs without SSL. Production
	// connection strings carry their own sslmode.
	dsn := cfg.DBConnectionString
	if cfg.Environment == "development" && !strings.Contains(dsn, "sslmode") {
		separator := "?"
		if strings.Contains(dsn, "?") {
			separator = "&"
		}
		dsn += separator + "sslmode=disable"
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, nil, err
	}
	logger.Info().Msg("Database connection successful")

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn().Err(err).Msg("Redis unreachable at startup, pools and rate limits degrade")
	}
	redisCache := cache.New(redisClient)

	validate := validator.New(validator.WithRequiredStructEnabled())

	// Pub/Sub fan-out is optional: without a GCP project, analytics events
	// only land in the database.
	var publisher pubsub.Publisher
	if cfg.AnalyticsPublishing && cfg.GCPProjectID != "" {
		p, err := pubsub.NewPublisher(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		publisher = p
	}

	secrets, err := service.NewSecretManagerService(ctx, cfg.GCPProjectID, map[string]string{
		"llm":    cfg.LLMAPIKey,
		"search": cfg.SearchAPIKey,
	}, logger)
	if err != nil {
		return nil, nil, err
	}

	llmTimeout := time.Duration(cfg.LLMTimeoutSec) * time.Second
	llmClient := service.NewLLMClient(cfg.LLMBaseURL, cfg.LLMModel, llmTimeout, secrets.KeyFunc("llm"), logger)
	searchClient := service.NewSearchClient(cfg.SearchAPIBaseURL, llmTimeout, secrets.KeyFunc("search"), logger)

	userRepo := repository.NewUserRepo(pool)
	inviteRepo := repository.NewInviteRepo(pool)
	premiumRepo := repository.NewPremiumRepo(pool)
	contentRepo := repository.NewContentRepo(pool)
	insightRepo := repository.NewInsightRepo(pool)
	bookmarkRepo := repository.NewBookmarkRepo(pool)
	chatRepo := repository.NewChatRepo(pool)
	announcementRepo := repository.NewAnnouncementRepo(pool)
	contactRepo := repository.NewContactRepo(pool)
	analyticsRepo := repository.NewAnalyticsRepo(pool)
	violationRepo := repository.NewViolationRepo(pool)

	safetySvc := service.NewSafetyService(violationRepo, redisCache, cfg.RatePerMinute, cfg.RatePerHour, cfg.MaxViolations, logger)
	entitlementSvc := service.NewEntitlementService(premiumRepo, inviteRepo, cfg.InviteRewardDays, cfg.MaxRewardDays, logger)
	inviteSvc := service.NewInviteService(inviteRepo, cfg.InviteRewardDays, cfg.MaxRewardDays, logger)
	generator := service.NewGenerator(searchClient, llmClient, logger)
	insightSvc := service.NewInsightService(
		contentRepo, userRepo, generator, entitlementSvc, redisCache,
		cfg.DisplayCount, cfg.FetchCount,
		time.Duration(cfg.PoolCacheTTLSec)*time.Second,
		cfg.ContentTimezone, logger,
	)
	feedSvc := service.NewFeedService(insightRepo, logger)
	userSvc := service.NewUserService(userRepo, safetySvc, cfg.ProfessionMaxChars, logger)
	bookmarkSvc := service.NewBookmarkService(bookmarkRepo, logger)
	chatSvc := service.NewChatService(chatRepo, userRepo, llmClient, cfg.ChatHistoryLimit, logger)
	shareSvc := service.NewShareService(contentRepo, insightRepo, cfg.ShareItemLimit, cfg.ContentTimezone, logger)
	announcementSvc := service.NewAnnouncementService(announcementRepo, logger)
	contactSvc := service.NewContactService(contactRepo, logger)
	analyticsSvc := service.NewAnalyticsService(analyticsRepo, publisher, cfg.AnalyticsTopic, logger)

	insightHandler := handler.NewInsightHandler(insightSvc, feedSvc, userSvc, safetySvc, validate, logger)
	inviteHandler := handler.NewInviteHandler(inviteSvc, entitlementSvc, validate, logger)
	shareHandler := handler.NewShareHandler(shareSvc, inviteSvc, entitlementSvc, cfg.FrontendURL, logger)
	userHandler := handler.NewUserHandler(userSvc, validate, logger)
	interactionHandler := handler.NewInteractionHandler(bookmarkSvc, validate, logger)
	chatHandler := handler.NewChatHandler(chatSvc, safetySvc, validate, logger)
	siteHandler := handler.NewSiteHandler(announcementSvc, contactSvc, analyticsSvc, validate, logger)
	adminHandler := handler.NewAdminHandler(announcementSvc, contactSvc, analyticsSvc, safetySvc, entitlementSvc, validate, logger)

	identity := middleware.IdentityMiddleware(cfg.JWTSecret, logger)
	admin := middleware.AdminMiddleware(cfg.AdminToken)

	mux := http.NewServeMux()
	insightHandler.RegisterRoutes(mux, identity)
	inviteHandler.RegisterRoutes(mux, identity)
	shareHandler.RegisterRoutes(mux, identity)
	userHandler.RegisterRoutes(mux, identity)
	interactionHandler.RegisterRoutes(mux, identity)
	chatHandler.RegisterRoutes(mux, identity)
	siteHandler.RegisterRoutes(mux, identity)
	adminHandler.RegisterRoutes(mux, admin)

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	return middleware.LoggerMiddleware(logger)(c.Handler(mux)), pool, nil
}
