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

type AnswerRepository interface {
	ListByCompany(ctx context.Context, companyID uuid.UUID) ([]*entity.Answer, error)
	GetByQuestion(ctx context.Context, companyID uuid.UUID, questionKey string) (*entity.Answer, error)
}

type answerRepo struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewAnswerRepository(pool *pgxpool.Pool, log *slog.Logger) AnswerRepository {
	return &answerRepo{pool: pool, log: log}
}

func (r *answerRepo) ListByCompany(ctx context.Context, companyID uuid.UUID) ([]*entity.Answer, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, company_id, question_key, content, updated_at
		FROM answer
		WHERE company_id = $1
		ORDER BY question_key`, companyID)
	if err != nil {
		r.log.Error("answer list failed", "company_id", companyID, "err", err)
		return nil, err
	}
	defer rows.Close()

	var out []*entity.Answer
	for rows.Next() {
		var a entity.Answer
		if err := rows.Scan(&a.ID, &a.CompanyID, &a.QuestionKey, &a.Content, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}

func (r *answerRepo) GetByQuestion(ctx context.Context, companyID uuid.UUID, questionKey string) (*entity.Answer, error) {
	var a entity.Answer
	err := r.pool.QueryRow(ctx, `
		SELECT id, company_id, question_key, content, updated_at
		FROM answer
		WHERE company_id = $1 AND question_key = $2`, companyID, questionKey).
		Scan(&a.ID, &a.CompanyID, &a.QuestionKey, &a.Content, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.NewAppError("ANSWER_NOT_FOUND", "answer not found", common.ErrNotFound)
	}
	if err != nil {
		r.log.Error("answer lookup failed", "company_id", companyID, "question", questionKey, "err", err)
		return nil, err
	}
	return &a, nil
}
