package repository

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/venturedraft/memopilot/internal/common"
	"github.com/venturedraft/memopilot/internal/entity"
)

type CompanyRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Company, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

type companyRepo struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewCompanyRepository(pool *pgxpool.Pool, log *slog.Logger) CompanyRepository {
	return &companyRepo{pool: pool, log: log}
}

func (r *companyRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Company, error) {
	var c entity.Company
	err := r.pool.QueryRow(ctx, `
		SELECT id, owner_id, name, stage, website, created_at, updated_at
		FROM company WHERE id = $1`, id).
		Scan(&c.ID, &c.OwnerID, &c.Name, &c.Stage, &c.Website, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.NewAppError("COMPANY_NOT_FOUND", "company not found", common.ErrNotFound)
	}
	if err != nil {
		r.log.Error("company lookup failed", "company_id", id, "err", err)
		return nil, err
	}
	return &c, nil
}

func (r *companyRepo) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM company WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		r.log.Error("company exists check failed", "company_id", id, "err", err)
		return false, err
	}
	return exists, nil
}
