package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Memo is the persisted generation result. StructuredContent holds the
// sanitized document as JSON; only the pipeline writes it, and only after
// sanitization, so its leaves are always plain strings or string arrays.
type Memo struct {
	ID                uuid.UUID       `json:"id"`
	CompanyID         uuid.UUID       `json:"company_id"`
	StructuredContent json.RawMessage `json:"structured_content"`
	UpdatedAt         time.Time       `json:"updated_at"`
}
