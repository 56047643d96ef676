package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/venturedraft/memopilot/internal/common"
	"github.com/venturedraft/memopilot/internal/llm/openai"
	"github.com/venturedraft/memopilot/internal/pipeline"
	repo "github.com/venturedraft/memopilot/internal/repository"
)

// memogen runs a single memo generation synchronously for one company.
// Useful for prompt iteration without the HTTP surface in the way.
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	_ = godotenv.Load()

	if len(os.Args) < 2 {
		logger.Error("usage: memogen <company_id>")
		os.Exit(2)
	}
	companyID, err := uuid.Parse(os.Args[1])
	if err != nil {
		logger.Error("invalid company_id", "arg", os.Args[1], "error", err)
		os.Exit(2)
	}

	cfg := common.LoadConfig()
	if cfg.Database.DSN == "" {
		logger.Error("DB_URL env var is required")
		os.Exit(2)
	}
	if cfg.LLM.APIKey == "" {
		logger.Error("OPENAI_API_KEY env var is required")
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := repo.Open(ctx, repo.Config{
		DSN:             cfg.Database.DSN,
		MaxConns:        5,
		MinConns:        1,
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
		MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
		DialTimeout:     cfg.Database.DialTimeout,
	}, logger)
	if err != nil {
		logger.Error("open db", "error", err)
		os.Exit(1)
	}
	defer repo.Close(pool, logger)

	companiesRepo := repo.NewCompanyRepository(pool, logger)
	answersRepo := repo.NewAnswerRepository(pool, logger)
	jobsRepo := repo.NewGenerationJobRepository(pool, logger)
	memosRepo := repo.NewMemoRepository(pool, logger)

	openaiClient := openai.NewClient(openai.Config{
		Model:       cfg.LLM.Model,
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	}, logger)

	generator := pipeline.NewGenerator(logger, jobsRepo, memosRepo, companiesRepo, answersRepo, openaiClient, cfg.LLM.Model)

	job, err := jobsRepo.Create(ctx, companyID)
	if err != nil {
		logger.Error("create job", "company_id", companyID, "error", err)
		os.Exit(1)
	}

	start := time.Now()
	if err := generator.Run(ctx, job.ID, companyID); err != nil {
		logger.Error("generation failed", "job_id", job.ID, "error", err)
		os.Exit(1)
	}
	logger.Info("generation complete",
		"job_id", job.ID.String(),
		"company_id", companyID.String(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
}
