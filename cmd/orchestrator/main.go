package main

import (
	"context"
	"database/sql"
	"flag"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"app/internal/config"
	"app/internal/logger"
	"app/internal/orchestrator/insights"
	"app/internal/pgmq"
	"app/internal/repository"
	"app/internal/service"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
)

func main() {
	mode := flag.String("mode", "insights", "Orchestrator mode: insights")
	flag.Parse()

	logger := logger.New()

	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("Warning: no .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Msgf("Error loading config: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	dsn := cfg.DBConnectionString
	if cfg.Environment == "development" && !strings.Contains(dsn, "sslmode") {
		separator := "?"
		if strings.Contains(dsn, "?") {
			separator = "&"
		}
		dsn += separator + "sslmode=disable"
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		logger.Fatal().Msgf("Failed to open DB connection: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatal().Msgf("Failed to ping DB: %v", err)
	}
	logger.Info().Msg("Database connection established")

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		logger.Fatal().Msgf("Failed to open DB pool: %v", err)
	}
	defer pool.Close()

	pgmqClient := pgmq.New(db)
	logger.Info().Msg("PGMQ client initialized")

	secrets, err := service.NewSecretManagerService(ctx, cfg.GCPProjectID, map[string]string{
		"llm": cfg.LLMAPIKey,
	}, logger)
	if err != nil {
		logger.Fatal().Msgf("Failed to create secret resolver: %v", err)
	}
	llm := service.NewLLMClient(cfg.LLMBaseURL, cfg.LLMModel, time.Duration(cfg.LLMTimeoutSec)*time.Second, secrets.KeyFunc("llm"), logger)

	var runErr error
	switch *mode {
	case "insights":
		runErr = insights.Run(ctx, logger, pgmqClient,
			repository.NewRawNewsRepo(pool),
			repository.NewInsightRepo(pool),
			llm, cfg)
	default:
		logger.Fatal().Msgf("Invalid mode: %s", *mode)
	}

	if runErr != nil {
		logger.Fatal().Msgf("%s orchestrator failed: %v", *mode, runErr)
	}
	logger.Info().Msgf("%s orchestrator stopped gracefully", *mode)
}
