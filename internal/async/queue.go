package async

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Job is one queued generation run.
type Job struct {
	JobID       uuid.UUID
	CompanyID   uuid.UUID
	SubmittedAt time.Time
}

// Queue decouples the triggering request from the generation run: Enqueue
// returns as soon as the job is handed off, and the run writes its
// terminal state to the job store, not back to the caller.
type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
