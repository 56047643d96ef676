package llm

import "context"

// CompanyContext is the business context threaded into every prompt.
type CompanyContext struct {
	CompanyName string `json:"company_name,omitempty"`
	Stage       string `json:"stage,omitempty"`
	Website     string `json:"website,omitempty"`
}

// SectionRequest describes one memo-section completion call.
// Answers is keyed by canonical question key; AnswerKeys lists the
// questions this section should lean on, in priority order.
type SectionRequest struct {
	SectionKey   string
	SectionTitle string
	Instructions string
	AnswerKeys   []string
	Answers      map[string]string
	Company      CompanyContext
}

// QuickTakeRequest describes the final verdict completion call.
type QuickTakeRequest struct {
	Answers map[string]string
	Company CompanyContext
}

// ContentGenerator is the interface the generation pipeline depends on.
// Both methods return the decoded JSON value of the completion content;
// shape beyond "valid JSON" is not guaranteed here; the memo sanitizer
// owns that.
type ContentGenerator interface {
	GenerateSection(ctx context.Context, req SectionRequest) (any, error)
	GenerateQuickTake(ctx context.Context, req QuickTakeRequest) (any, error)
}
