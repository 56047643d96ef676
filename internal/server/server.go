package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/venturedraft/memopilot/internal/async"
	"github.com/venturedraft/memopilot/internal/common"
	"github.com/venturedraft/memopilot/internal/export"
	"github.com/venturedraft/memopilot/internal/repository"
)

// Server wires the HTTP surface: job trigger, status poller, memo reads,
// quality checks. All state lives behind the repository interfaces.
type Server struct {
	logger    *slog.Logger
	cfg       *common.Config
	companies repository.CompanyRepository
	answers   repository.AnswerRepository
	jobs      repository.GenerationJobRepository
	memos     repository.MemoRepository
	queue     async.Queue
	exporter  *export.Service
	health    func(ctx context.Context) error

	// now is swappable so poller tests can pin the clock
	now func() time.Time
}

func New(
	logger *slog.Logger,
	cfg *common.Config,
	companies repository.CompanyRepository,
	answers repository.AnswerRepository,
	jobs repository.GenerationJobRepository,
	memos repository.MemoRepository,
	queue async.Queue,
	exporter *export.Service,
	health func(ctx context.Context) error,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		logger:    logger,
		cfg:       cfg,
		companies: companies,
		answers:   answers,
		jobs:      jobs,
		memos:     memos,
		queue:     queue,
		exporter:  exporter,
		health:    health,
		now:       time.Now,
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/healthz", s.handleHealth)

	v1 := r.Group("/v1", s.authRequired())
	{
		v1.POST("/companies/:id/memo-jobs", s.handleTriggerJob)
		v1.GET("/memo-jobs/:id", s.handleJobStatus)
		v1.GET("/companies/:id/memo", s.handleLatestMemo)
		v1.GET("/companies/:id/memo/export", s.handleExportMemo)
		v1.GET("/companies/:id/quality/consistency", s.handleConsistency)
		v1.GET("/companies/:id/quality/completeness", s.handleCompleteness)
	}
	return r
}

func (s *Server) handleHealth(c *gin.Context) {
	if s.health != nil {
		if err := s.health(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func jsonError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{"code": code, "error": message})
}
