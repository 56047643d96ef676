package entity

import (
	"time"

	"github.com/google/uuid"
)

// Answer is one questionnaire answer for data transfer between layers.
// QuestionKey is one of the canonical keys in constants.QuestionKeys.
type Answer struct {
	ID          uuid.UUID `json:"id"`
	CompanyID   uuid.UUID `json:"company_id"`
	QuestionKey string    `json:"question_key"`
	Content     string    `json:"content"`
	UpdatedAt   time.Time `json:"updated_at"`
}
