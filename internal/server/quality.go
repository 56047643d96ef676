package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/venturedraft/memopilot/constants"
	"github.com/venturedraft/memopilot/internal/common"
	"github.com/venturedraft/memopilot/internal/quality"
)

// The quality endpoints are read-only analyses over the answers; they sit
// outside the job state machine and never gate generation.

func (s *Server) handleConsistency(c *gin.Context) {
	company, ok := s.ownedCompany(c)
	if !ok {
		return
	}

	answers, err := s.answers.ListByCompany(c.Request.Context(), company.ID)
	if err != nil {
		jsonError(c, http.StatusInternalServerError, "internal", "could not load answers")
		return
	}

	c.JSON(http.StatusOK, gin.H{"findings": quality.CheckConsistency(answers)})
}

func (s *Server) handleCompleteness(c *gin.Context) {
	company, ok := s.ownedCompany(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	if q := c.Query("question"); q != "" {
		// answers are stored under canonical keys, so synonyms must be
		// resolved before the lookup, not just before scoring
		if canonical, ok := constants.CanonicalizeQuestion(q); ok {
			q = string(canonical)
		}
		answer, err := s.answers.GetByQuestion(ctx, company.ID, q)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				// unanswered questions are still scoreable: everything is missing
				c.JSON(http.StatusOK, gin.H{"report": quality.ScoreCompleteness(q, "")})
				return
			}
			jsonError(c, http.StatusInternalServerError, "internal", "could not load answer")
			return
		}
		c.JSON(http.StatusOK, gin.H{"report": quality.ScoreCompleteness(answer.QuestionKey, answer.Content)})
		return
	}

	answers, err := s.answers.ListByCompany(ctx, company.ID)
	if err != nil {
		jsonError(c, http.StatusInternalServerError, "internal", "could not load answers")
		return
	}
	reports := make([]quality.Report, 0, len(answers))
	for _, a := range answers {
		reports = append(reports, quality.ScoreCompleteness(a.QuestionKey, a.Content))
	}
	c.JSON(http.StatusOK, gin.H{"reports": reports})
}
