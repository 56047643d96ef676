package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/venturedraft/memopilot/internal/llm"
	"github.com/venturedraft/memopilot/internal/memo"
	"github.com/venturedraft/memopilot/internal/repository"
)

// Generator runs one memo generation job from PROCESSING to a terminal
// state: the fixed ordered series of completion calls, assembly,
// sanitization, and the memo write. It owns the job's state transitions
// while the run is in flight.
type Generator struct {
	Logger    *slog.Logger
	Jobs      repository.GenerationJobRepository
	Memos     repository.MemoRepository
	Companies repository.CompanyRepository
	Answers   repository.AnswerRepository
	Content   llm.ContentGenerator
	ModelName string
}

func NewGenerator(
	logger *slog.Logger,
	jobs repository.GenerationJobRepository,
	memos repository.MemoRepository,
	companies repository.CompanyRepository,
	answers repository.AnswerRepository,
	content llm.ContentGenerator,
	modelName string,
) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		Logger:    logger,
		Jobs:      jobs,
		Memos:     memos,
		Companies: companies,
		Answers:   answers,
		Content:   content,
		ModelName: modelName,
	}
}

// Run executes the job and converts any failure, wherever it happened,
// into a terminal FAILED row exactly once. No memo row is touched on a
// failed run. The returned error is for synchronous callers (the CLI);
// the worker queue only logs it.
func (g *Generator) Run(ctx context.Context, jobID, companyID uuid.UUID) error {
	start := time.Now()
	err := g.run(ctx, jobID, companyID)
	if err != nil {
		g.Logger.Error("pipeline.run.failed",
			"job_id", jobID, "company_id", companyID,
			"error", err, "elapsed_ms", time.Since(start).Milliseconds(),
		)
		// the failure write must survive a canceled or timed-out run context
		if ferr := g.Jobs.FinishFailure(context.WithoutCancel(ctx), jobID, err.Error()); ferr != nil {
			g.Logger.Error("pipeline.run.finish_failure_write_failed", "job_id", jobID, "error", ferr)
		}
		return err
	}
	g.Logger.Info("pipeline.run.ok",
		"job_id", jobID, "company_id", companyID,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

func (g *Generator) run(ctx context.Context, jobID, companyID uuid.UUID) error {
	if err := g.Jobs.MarkProcessing(ctx, jobID); err != nil {
		return fmt.Errorf("mark processing: %w", err)
	}

	company, err := g.Companies.GetByID(ctx, companyID)
	if err != nil {
		return fmt.Errorf("load company: %w", err)
	}
	rows, err := g.Answers.ListByCompany(ctx, companyID)
	if err != nil {
		return fmt.Errorf("load answers: %w", err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("no questionnaire answers for company %s", companyID)
	}
	answers := make(map[string]string, len(rows))
	for _, a := range rows {
		if strings.TrimSpace(a.Content) != "" {
			answers[a.QuestionKey] = a.Content
		}
	}

	companyCtx := llm.CompanyContext{CompanyName: company.Name}
	if company.Stage != nil {
		companyCtx.Stage = *company.Stage
	}
	if company.Website != nil {
		companyCtx.Website = *company.Website
	}

	// Sequential on purpose: each call waits for the previous one, and a
	// failure at step k aborts the remaining steps.
	sections := make([]any, 0, len(sectionPlan))
	for _, step := range sectionPlan {
		raw, err := g.Content.GenerateSection(ctx, step.request(answers, companyCtx))
		if err != nil {
			return fmt.Errorf("generate section %q: %w", step.Key, err)
		}
		sections = append(sections, raw)
	}

	quickTake, err := g.Content.GenerateQuickTake(ctx, llm.QuickTakeRequest{
		Answers: answers,
		Company: companyCtx,
	})
	if err != nil {
		return fmt.Errorf("generate quick take: %w", err)
	}

	rawDoc := map[string]any{
		"sections":   sections,
		"quick_take": quickTake,
	}
	doc := memo.Sanitize(rawDoc, g.Logger)
	if doc == nil {
		return fmt.Errorf("model output produced no usable document")
	}

	structured, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode sanitized document: %w", err)
	}
	if _, err := g.Memos.Upsert(ctx, companyID, structured); err != nil {
		return fmt.Errorf("persist memo: %w", err)
	}
	if err := g.Jobs.FinishSuccess(ctx, jobID, g.ModelName); err != nil {
		return fmt.Errorf("finish job: %w", err)
	}
	return nil
}
