package export

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/venturedraft/memopilot/internal/memo"
	"github.com/venturedraft/memopilot/internal/repository"
)

// Service is a tiny façade over the memo store that produces XLSX bytes
// for downloads.
type Service struct {
	memos  repository.MemoRepository
	logger *slog.Logger
}

func NewService(memos repository.MemoRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{memos: memos, logger: logger}
}

// ExportMemoXLSX returns an XLSX workbook (as bytes) with the latest memo
// for the company: one row per paragraph, highlight, and key point, plus a
// quick-take sheet when present.
func (s *Service) ExportMemoXLSX(ctx context.Context, companyID uuid.UUID, companyName string) ([]byte, error) {
	start := time.Now()

	m, err := s.memos.LatestForCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	var doc memo.Document
	if err := json.Unmarshal(m.StructuredContent, &doc); err != nil {
		return nil, fmt.Errorf("decode memo content: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Memo"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{"Section", "Kind", "Content", "Note"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	write := func(section, kind, content, note string) {
		values := []string{section, kind, content, note}
		for i, v := range values {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		row++
	}

	writeBlock := func(title string, paragraphs []memo.Paragraph, highlights []memo.Highlight, keyPoints []string) {
		for _, p := range paragraphs {
			write(title, "paragraph", p.Text, p.Emphasis)
		}
		for _, h := range highlights {
			write(title, "highlight", h.Metric, h.Label)
		}
		for _, kp := range keyPoints {
			write(title, "key point", kp, "")
		}
	}

	for _, sec := range doc.Sections {
		writeBlock(sec.Title, sec.Paragraphs, sec.Highlights, sec.KeyPoints)
		if sec.Narrative != nil {
			writeBlock(sec.Title+" / "+sec.Narrative.Title, sec.Narrative.Paragraphs, sec.Narrative.Highlights, sec.Narrative.KeyPoints)
		}
		if sec.VCReflection != nil {
			writeBlock(sec.Title+" / "+sec.VCReflection.Title, sec.VCReflection.Paragraphs, sec.VCReflection.Highlights, sec.VCReflection.KeyPoints)
		}
	}

	if qt := doc.QuickTake; qt != nil {
		const qtSheet = "Quick Take"
		if _, err := f.NewSheet(qtSheet); err != nil {
			return nil, err
		}
		qtRow := 1
		qtWrite := func(label, value string) {
			cell, _ := excelize.CoordinatesToCellName(1, qtRow)
			_ = f.SetCellValue(qtSheet, cell, label)
			cell, _ = excelize.CoordinatesToCellName(2, qtRow)
			_ = f.SetCellValue(qtSheet, cell, value)
			qtRow++
		}
		qtWrite("Company", companyName)
		qtWrite("Verdict", qt.Verdict)
		qtWrite("Readiness", qt.ReadinessLevel)
		qtWrite("Rationale", qt.ReadinessRationale)
		for _, c := range qt.Strengths {
			qtWrite("Strength", c)
		}
		for _, c := range qt.Concerns {
			qtWrite("Concern", c)
		}
		_ = f.SetColWidth(qtSheet, "A", "A", 14)
		_ = f.SetColWidth(qtSheet, "B", "B", 80)
	}

	_ = f.SetColWidth(sheet, "A", "A", 32) // section
	_ = f.SetColWidth(sheet, "B", "B", 12) // kind
	_ = f.SetColWidth(sheet, "C", "C", 90) // content
	_ = f.SetColWidth(sheet, "D", "D", 16) // note

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"company_id", companyID.String(),
		"sections", len(doc.Sections),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}
