package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/venturedraft/memopilot/internal/async"
	"github.com/venturedraft/memopilot/internal/common"
	"github.com/venturedraft/memopilot/internal/export"
	"github.com/venturedraft/memopilot/internal/llm/openai"
	"github.com/venturedraft/memopilot/internal/pipeline"
	repo "github.com/venturedraft/memopilot/internal/repository"
	svc "github.com/venturedraft/memopilot/internal/server"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// .env is optional; real deployments set env vars directly
	_ = godotenv.Load()

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := repo.Open(ctx, repo.Config{
		DSN:              cfg.Database.DSN,
		MaxConns:         cfg.Database.MaxConns,
		MinConns:         cfg.Database.MinConns,
		MaxConnLifetime:  cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:  cfg.Database.MaxConnIdleTime,
		DialTimeout:      cfg.Database.DialTimeout,
		StatementTimeout: cfg.Database.StatementTimeout,
	}, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer repo.Close(pool, logger)

	if err := repo.HealthCheck(ctx, pool, 5*time.Second, logger); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}

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

	queue := async.NewGeneratorQueue(generator, logger,
		async.WithWorkers(cfg.Worker.Workers),
		async.WithQueueSize(cfg.Worker.QueueSize),
		async.WithRunTimeout(cfg.Worker.RunTimeout),
	)

	exporter := export.NewService(memosRepo, logger)

	healthProbe := func(ctx context.Context) error {
		return repo.HealthCheck(ctx, pool, 3*time.Second, logger)
	}
	server := svc.New(logger, cfg, companiesRepo, answersRepo, jobsRepo, memosRepo, queue, exporter, healthProbe)

	httpServer := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("memopilotd listening", "addr", cfg.Server.HTTPAddr)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	queue.Shutdown(shutdownCtx)
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown error", "error", err)
	}
}
