package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/venturedraft/memopilot/internal/common"
)

func (s *Server) handleLatestMemo(c *gin.Context) {
	company, ok := s.ownedCompany(c)
	if !ok {
		return
	}

	m, err := s.memos.LatestForCompany(c.Request.Context(), company.ID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			jsonError(c, http.StatusNotFound, "not_found", "no memo for this company yet")
			return
		}
		jsonError(c, http.StatusInternalServerError, "internal", "could not load memo")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"memo_id":            m.ID,
		"company_id":         m.CompanyID,
		"structured_content": m.StructuredContent,
		"updated_at":         m.UpdatedAt,
	})
}

func (s *Server) handleExportMemo(c *gin.Context) {
	company, ok := s.ownedCompany(c)
	if !ok {
		return
	}

	data, err := s.exporter.ExportMemoXLSX(c.Request.Context(), company.ID, company.Name)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			jsonError(c, http.StatusNotFound, "not_found", "no memo for this company yet")
			return
		}
		jsonError(c, http.StatusInternalServerError, "internal", "could not export memo")
		return
	}

	filename := fmt.Sprintf("memo-%s.xlsx", company.ID)
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
