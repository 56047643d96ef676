package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/venturedraft/memopilot/constants"
	"github.com/venturedraft/memopilot/internal/async"
	"github.com/venturedraft/memopilot/internal/common"
	"github.com/venturedraft/memopilot/internal/entity"
)

// handleTriggerJob creates a PENDING job row and hands it to the worker
// queue without awaiting the run. The response carries only the job id;
// the client polls handleJobStatus until a terminal state shows up.
func (s *Server) handleTriggerJob(c *gin.Context) {
	ctx := c.Request.Context()

	company, ok := s.ownedCompany(c)
	if !ok {
		return
	}

	// a missing completion-service key is a server fault, not a client one
	if s.cfg.LLM.APIKey == "" {
		s.logger.Error("job trigger with no completion service configured", "company_id", company.ID)
		jsonError(c, http.StatusInternalServerError, "backend_misconfigured", "completion service is not configured")
		return
	}

	// one non-terminal job per company: concurrent regenerations would
	// race on the single memo row, so reject instead
	active, err := s.jobs.ActiveForCompany(ctx, company.ID)
	if err != nil {
		jsonError(c, http.StatusInternalServerError, "internal", "could not check for active jobs")
		return
	}
	if active != nil {
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{
			"code":   "job_already_running",
			"error":  "a memo generation is already in progress for this company",
			"job_id": active.ID,
		})
		return
	}

	job, err := s.jobs.Create(ctx, company.ID)
	if err != nil {
		// a concurrent trigger can slip past the active check; the unique
		// index on non-terminal jobs makes the loser land here
		if errors.Is(err, common.ErrConflict) {
			resp := gin.H{
				"code":  "job_already_running",
				"error": "a memo generation is already in progress for this company",
			}
			if racing, aerr := s.jobs.ActiveForCompany(ctx, company.ID); aerr == nil && racing != nil {
				resp["job_id"] = racing.ID
			}
			c.AbortWithStatusJSON(http.StatusConflict, resp)
			return
		}
		jsonError(c, http.StatusInternalServerError, "internal", "could not create generation job")
		return
	}

	if err := s.queue.Enqueue(ctx, async.Job{
		JobID:       job.ID,
		CompanyID:   company.ID,
		SubmittedAt: s.now(),
	}); err != nil {
		// never leave a PENDING row behind when dispatch itself failed
		s.logger.Error("job dispatch failed", "job_id", job.ID, "error", err)
		if ferr := s.jobs.FinishFailure(ctx, job.ID, "dispatch failed: "+err.Error()); ferr != nil {
			s.logger.Error("failed to fail undispatched job", "job_id", job.ID, "error", ferr)
		}
		jsonError(c, http.StatusInternalServerError, "dispatch_failed", "could not start memo generation")
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"job_id": job.ID})
}

// handleJobStatus is the polling endpoint. It reports the durable job
// state; while the run is still in flight it adds a wall-clock-derived
// progress message (see progress.go for what that is and is not).
func (s *Server) handleJobStatus(c *gin.Context) {
	ctx := c.Request.Context()

	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		jsonError(c, http.StatusBadRequest, "invalid_id", "job id must be a UUID")
		return
	}

	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			jsonError(c, http.StatusNotFound, "not_found", "generation job not found")
			return
		}
		jsonError(c, http.StatusInternalServerError, "internal", "could not load job")
		return
	}

	company, err := s.companies.GetByID(ctx, job.CompanyID)
	if err != nil {
		jsonError(c, http.StatusInternalServerError, "internal", "could not load company")
		return
	}
	if company.OwnerID.String() != callerID(c) {
		jsonError(c, http.StatusForbidden, "forbidden", "not your job")
		return
	}

	switch job.Status {
	case constants.JobStatusCompleted:
		s.respondCompleted(c, job, company)
	case constants.JobStatusFailed:
		msg := "generation failed"
		if job.ErrorMessage != nil {
			msg = *job.ErrorMessage
		}
		c.JSON(http.StatusOK, gin.H{"status": "failed", "error": msg})
	default:
		elapsed := int64(s.now().Sub(job.StartedAt).Seconds())
		if elapsed < 0 {
			elapsed = 0
		}
		c.JSON(http.StatusOK, gin.H{
			"status":          strings.ToLower(string(job.Status)),
			"elapsed_seconds": elapsed,
			"message":         ProgressMessage(elapsed),
		})
	}
}

func (s *Server) respondCompleted(c *gin.Context, job *entity.GenerationJob, company *entity.Company) {
	m, err := s.memos.LatestForCompany(c.Request.Context(), company.ID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			// job says done but the memo is gone: report failure, never a
			// silent success with empty content
			s.logger.Error("completed job with no memo", "job_id", job.ID, "company_id", company.ID)
			c.JSON(http.StatusOK, gin.H{
				"status": "failed",
				"error":  "memo not found after generation completed",
			})
			return
		}
		jsonError(c, http.StatusInternalServerError, "internal", "could not load memo")
		return
	}

	var generationSeconds int64
	if job.FinishedAt != nil {
		generationSeconds = int64(job.FinishedAt.Sub(job.StartedAt) / time.Second)
	}

	summary := gin.H{"id": company.ID, "name": company.Name}
	if company.Stage != nil {
		summary["stage"] = *company.Stage
	}

	c.JSON(http.StatusOK, gin.H{
		"status":                  "completed",
		"structured_content":      m.StructuredContent,
		"company_summary":         summary,
		"memo_id":                 m.ID,
		"generation_time_seconds": generationSeconds,
	})
}

// ownedCompany resolves the :id company param and enforces ownership
// against the authenticated caller. On failure it writes the error
// response and returns ok=false.
func (s *Server) ownedCompany(c *gin.Context) (*entity.Company, bool) {
	companyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		jsonError(c, http.StatusBadRequest, "invalid_id", "company id must be a UUID")
		return nil, false
	}

	company, err := s.companies.GetByID(c.Request.Context(), companyID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			jsonError(c, http.StatusNotFound, "not_found", "company not found")
			return nil, false
		}
		jsonError(c, http.StatusInternalServerError, "internal", "could not load company")
		return nil, false
	}

	if company.OwnerID.String() != callerID(c) {
		jsonError(c, http.StatusForbidden, "forbidden", "not your company")
		return nil, false
	}
	return company, true
}
