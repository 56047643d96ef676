package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/venturedraft/memopilot/constants"
)

// GenerationJob represents one memo generation run for data transfer
// between layers. Status only moves forward:
// PENDING -> PROCESSING -> COMPLETED or FAILED.
type GenerationJob struct {
	ID           uuid.UUID           `json:"id"`
	CompanyID    uuid.UUID           `json:"company_id"`
	Status       constants.JobStatus `json:"status"`
	StartedAt    time.Time           `json:"started_at"`
	FinishedAt   *time.Time          `json:"finished_at,omitempty"`
	ErrorMessage *string             `json:"error_message,omitempty"`
	ModelName    *string             `json:"model_name,omitempty"`
}
