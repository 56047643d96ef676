package repository

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/venturedraft/memopilot/internal/common"
	"github.com/venturedraft/memopilot/internal/entity"
)

type MemoRepository interface {
	// Upsert writes the sanitized document for a company, replacing any
	// previous memo. Only the generation pipeline calls this, and only
	// after sanitization succeeded.
	Upsert(ctx context.Context, companyID uuid.UUID, structured json.RawMessage) (*entity.Memo, error)
	// LatestForCompany returns the most recently updated memo.
	LatestForCompany(ctx context.Context, companyID uuid.UUID) (*entity.Memo, error)
}

type memoRepo struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewMemoRepository(pool *pgxpool.Pool, log *slog.Logger) MemoRepository {
	return &memoRepo{pool: pool, log: log}
}

func (r *memoRepo) Upsert(ctx context.Context, companyID uuid.UUID, structured json.RawMessage) (*entity.Memo, error) {
	var m entity.Memo
	m.CompanyID = companyID
	m.StructuredContent = structured
	err := r.pool.QueryRow(ctx, `
		INSERT INTO memo (id, company_id, structured_content, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (company_id)
		DO UPDATE SET structured_content = EXCLUDED.structured_content, updated_at = now()
		RETURNING id, updated_at`,
		uuid.New(), companyID, structured).Scan(&m.ID, &m.UpdatedAt)
	if err != nil {
		r.log.Error("memo upsert failed", "company_id", companyID, "err", err)
		return nil, err
	}
	r.log.Info("memo upserted", "memo_id", m.ID, "company_id", companyID, "bytes", len(structured))
	return &m, nil
}

func (r *memoRepo) LatestForCompany(ctx context.Context, companyID uuid.UUID) (*entity.Memo, error) {
	var m entity.Memo
	err := r.pool.QueryRow(ctx, `
		SELECT id, company_id, structured_content, updated_at
		FROM memo
		WHERE company_id = $1
		ORDER BY updated_at DESC
		LIMIT 1`, companyID).
		Scan(&m.ID, &m.CompanyID, &m.StructuredContent, &m.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.NewAppError("MEMO_NOT_FOUND", "no memo for company", common.ErrNotFound)
	}
	if err != nil {
		r.log.Error("memo lookup failed", "company_id", companyID, "err", err)
		return nil, err
	}
	return &m, nil
}
