package repository

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/venturedraft/memopilot/constants"
	"github.com/venturedraft/memopilot/internal/common"
	"github.com/venturedraft/memopilot/internal/entity"
)

// GenerationJobRepository owns the generation_job lifecycle rows.
// Transitions are guarded in SQL so a terminal row is never regressed,
// whatever order concurrent writers land in.
type GenerationJobRepository interface {
	Create(ctx context.Context, companyID uuid.UUID) (*entity.GenerationJob, error)
	GetByID(ctx context.Context, jobID uuid.UUID) (*entity.GenerationJob, error)
	ActiveForCompany(ctx context.Context, companyID uuid.UUID) (*entity.GenerationJob, error)
	MarkProcessing(ctx context.Context, jobID uuid.UUID) error
	FinishSuccess(ctx context.Context, jobID uuid.UUID, modelName string) error
	FinishFailure(ctx context.Context, jobID uuid.UUID, message string) error
}

type generationJobRepo struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewGenerationJobRepository(pool *pgxpool.Pool, log *slog.Logger) GenerationJobRepository {
	return &generationJobRepo{pool: pool, log: log}
}

const jobColumns = `id, company_id, status, started_at, finished_at, error_message, model_name`

// Postgres error code for unique_violation.
const pgUniqueViolation = "23505"

func scanJob(row pgx.Row) (*entity.GenerationJob, error) {
	var j entity.GenerationJob
	var status string
	err := row.Scan(&j.ID, &j.CompanyID, &status, &j.StartedAt, &j.FinishedAt, &j.ErrorMessage, &j.ModelName)
	if err != nil {
		return nil, err
	}
	j.Status = constants.JobStatus(status)
	return &j, nil
}

func (r *generationJobRepo) Create(ctx context.Context, companyID uuid.UUID) (*entity.GenerationJob, error) {
	id := uuid.New()
	row := r.pool.QueryRow(ctx, `
		INSERT INTO generation_job (id, company_id, status, started_at)
		VALUES ($1, $2, $3, now())
		RETURNING `+jobColumns, id, companyID, string(constants.JobStatusPending))
	job, err := scanJob(row)
	if err != nil {
		// the partial unique index on (company_id) over non-terminal rows
		// makes check-then-create races lose here instead of double-running
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, common.NewAppError("JOB_ALREADY_RUNNING",
				"a non-terminal job already exists for this company", common.ErrConflict)
		}
		r.log.Error("generation_job create failed", "company_id", companyID, "err", err)
		return nil, err
	}
	r.log.Info("generation_job created",
		"job_id", job.ID, "company_id", companyID,
		"req_id", common.RequestIDFromContext(ctx), "user_id", common.UserIDFromContext(ctx))
	return job, nil
}

func (r *generationJobRepo) GetByID(ctx context.Context, jobID uuid.UUID) (*entity.GenerationJob, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+jobColumns+` FROM generation_job WHERE id = $1`, jobID)
	job, err := scanJob(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.NewAppError("JOB_NOT_FOUND", "generation job not found", common.ErrNotFound)
	}
	if err != nil {
		r.log.Error("generation_job get failed", "job_id", jobID, "err", err)
		return nil, err
	}
	return job, nil
}

// ActiveForCompany returns the newest non-terminal job for a company, or
// nil when none is in flight.
func (r *generationJobRepo) ActiveForCompany(ctx context.Context, companyID uuid.UUID) (*entity.GenerationJob, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+jobColumns+` FROM generation_job
		WHERE company_id = $1 AND status IN ($2, $3)
		ORDER BY started_at DESC
		LIMIT 1`,
		companyID, string(constants.JobStatusPending), string(constants.JobStatusProcessing))
	job, err := scanJob(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("generation_job active lookup failed", "company_id", companyID, "err", err)
		return nil, err
	}
	return job, nil
}

func (r *generationJobRepo) MarkProcessing(ctx context.Context, jobID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE generation_job SET status = $2
		WHERE id = $1 AND status = $3`,
		jobID, string(constants.JobStatusProcessing), string(constants.JobStatusPending))
	if err != nil {
		r.log.Error("generation_job mark processing failed", "job_id", jobID, "err", err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return common.NewAppError("JOB_NOT_PENDING", "job is not in PENDING state", common.ErrInvalidInput)
	}
	r.log.Info("generation_job processing", "job_id", jobID)
	return nil
}

func (r *generationJobRepo) FinishSuccess(ctx context.Context, jobID uuid.UUID, modelName string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE generation_job
		SET status = $2, finished_at = now(), model_name = $3, error_message = NULL
		WHERE id = $1 AND status IN ($4, $5)`,
		jobID, string(constants.JobStatusCompleted), modelName,
		string(constants.JobStatusPending), string(constants.JobStatusProcessing))
	if err != nil {
		r.log.Error("generation_job finish(COMPLETED) failed", "job_id", jobID, "err", err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return common.NewAppError("JOB_ALREADY_TERMINAL", "job already in a terminal state", common.ErrInvalidInput)
	}
	r.log.Info("generation_job finished (COMPLETED)", "job_id", jobID, "model", modelName)
	return nil
}

func (r *generationJobRepo) FinishFailure(ctx context.Context, jobID uuid.UUID, message string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE generation_job
		SET status = $2, finished_at = now(), error_message = $3
		WHERE id = $1 AND status IN ($4, $5)`,
		jobID, string(constants.JobStatusFailed), message,
		string(constants.JobStatusPending), string(constants.JobStatusProcessing))
	if err != nil {
		r.log.Error("generation_job finish(FAILED) failed", "job_id", jobID, "err", err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return common.NewAppError("JOB_ALREADY_TERMINAL", "job already in a terminal state", common.ErrInvalidInput)
	}
	r.log.Warn("generation_job finished (FAILED)", "job_id", jobID, "error", message)
	return nil
}
