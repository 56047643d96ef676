package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/venturedraft/memopilot/constants"
	"github.com/venturedraft/memopilot/internal/async"
	"github.com/venturedraft/memopilot/internal/common"
	"github.com/venturedraft/memopilot/internal/entity"
	"github.com/venturedraft/memopilot/internal/export"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeCompanies struct {
	companies map[uuid.UUID]*entity.Company
}

func (f *fakeCompanies) GetByID(ctx context.Context, id uuid.UUID) (*entity.Company, error) {
	if c, ok := f.companies[id]; ok {
		return c, nil
	}
	return nil, common.NewAppError("COMPANY_NOT_FOUND", "company not found", common.ErrNotFound)
}

func (f *fakeCompanies) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	_, ok := f.companies[id]
	return ok, nil
}

type fakeAnswers struct {
	answers []*entity.Answer
}

func (f *fakeAnswers) ListByCompany(ctx context.Context, companyID uuid.UUID) ([]*entity.Answer, error) {
	return f.answers, nil
}

func (f *fakeAnswers) GetByQuestion(ctx context.Context, companyID uuid.UUID, questionKey string) (*entity.Answer, error) {
	for _, a := range f.answers {
		if a.QuestionKey == questionKey {
			return a, nil
		}
	}
	return nil, common.NewAppError("ANSWER_NOT_FOUND", "answer not found", common.ErrNotFound)
}

type fakeJobs struct {
	jobs           map[uuid.UUID]*entity.GenerationJob
	active         *entity.GenerationJob
	failedFinishes []string

	// createConflict simulates losing a create race on the unique index
	// over non-terminal jobs: Create fails with a conflict and the racing
	// job becomes visible to ActiveForCompany.
	createConflict bool
}

func (f *fakeJobs) Create(ctx context.Context, companyID uuid.UUID) (*entity.GenerationJob, error) {
	if f.createConflict {
		f.active = &entity.GenerationJob{ID: uuid.New(), CompanyID: companyID, Status: constants.JobStatusPending, StartedAt: time.Now()}
		return nil, common.NewAppError("JOB_ALREADY_RUNNING",
			"a non-terminal job already exists for this company", common.ErrConflict)
	}
	j := &entity.GenerationJob{ID: uuid.New(), CompanyID: companyID, Status: constants.JobStatusPending, StartedAt: time.Now()}
	if f.jobs == nil {
		f.jobs = map[uuid.UUID]*entity.GenerationJob{}
	}
	f.jobs[j.ID] = j
	return j, nil
}

func (f *fakeJobs) GetByID(ctx context.Context, jobID uuid.UUID) (*entity.GenerationJob, error) {
	if j, ok := f.jobs[jobID]; ok {
		return j, nil
	}
	return nil, common.NewAppError("JOB_NOT_FOUND", "generation job not found", common.ErrNotFound)
}

func (f *fakeJobs) ActiveForCompany(ctx context.Context, companyID uuid.UUID) (*entity.GenerationJob, error) {
	return f.active, nil
}

func (f *fakeJobs) MarkProcessing(ctx context.Context, jobID uuid.UUID) error { return nil }

func (f *fakeJobs) FinishSuccess(ctx context.Context, jobID uuid.UUID, modelName string) error {
	return nil
}

func (f *fakeJobs) FinishFailure(ctx context.Context, jobID uuid.UUID, message string) error {
	f.failedFinishes = append(f.failedFinishes, message)
	if j, ok := f.jobs[jobID]; ok {
		j.Status = constants.JobStatusFailed
		j.ErrorMessage = &message
	}
	return nil
}

type fakeMemos struct {
	memos map[uuid.UUID]*entity.Memo // keyed by company id
}

func (f *fakeMemos) Upsert(ctx context.Context, companyID uuid.UUID, structured json.RawMessage) (*entity.Memo, error) {
	m := &entity.Memo{ID: uuid.New(), CompanyID: companyID, StructuredContent: structured, UpdatedAt: time.Now()}
	if f.memos == nil {
		f.memos = map[uuid.UUID]*entity.Memo{}
	}
	f.memos[companyID] = m
	return m, nil
}

func (f *fakeMemos) LatestForCompany(ctx context.Context, companyID uuid.UUID) (*entity.Memo, error) {
	if m, ok := f.memos[companyID]; ok {
		return m, nil
	}
	return nil, common.NewAppError("MEMO_NOT_FOUND", "no memo for company", common.ErrNotFound)
}

type fakeQueue struct {
	enqueued []async.Job
	err      error
}

func (f *fakeQueue) Enqueue(ctx context.Context, job async.Job) error {
	if f.err != nil {
		return f.err
	}
	f.enqueued = append(f.enqueued, job)
	return nil
}

func (f *fakeQueue) Shutdown(ctx context.Context) {}

type fixture struct {
	server    *Server
	router    *gin.Engine
	companies *fakeCompanies
	answers   *fakeAnswers
	jobs      *fakeJobs
	memos     *fakeMemos
	queue     *fakeQueue

	ownerID   uuid.UUID
	companyID uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	ownerID := uuid.New()
	companyID := uuid.New()
	stage := "seed"
	companies := &fakeCompanies{companies: map[uuid.UUID]*entity.Company{
		companyID: {ID: companyID, OwnerID: ownerID, Name: "Acme Robotics", Stage: &stage},
	}}
	answers := &fakeAnswers{}
	jobs := &fakeJobs{jobs: map[uuid.UUID]*entity.GenerationJob{}}
	memos := &fakeMemos{memos: map[uuid.UUID]*entity.Memo{}}
	queue := &fakeQueue{}

	cfg := &common.Config{
		Auth: common.AuthConfig{JWTSecret: testSecret},
		LLM:  common.LLMConfig{Model: "gpt-4o-mini", APIKey: "sk-test"},
	}

	srv := New(logger, cfg, companies, answers, jobs, memos, queue,
		export.NewService(memos, logger), nil)
	return &fixture{
		server: srv, router: srv.Router(),
		companies: companies, answers: answers, jobs: jobs, memos: memos, queue: queue,
		ownerID: ownerID, companyID: companyID,
	}
}

func bearerToken(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID.String(),
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return "Bearer " + signed
}

func (f *fixture) do(t *testing.T, method, path, auth string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %v; body=%s", err, w.Body.String())
	}
	return body
}

func TestAuthMissingToken(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodGet, "/v1/companies/"+f.companyID.String()+"/memo", "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want 401", w.Code)
	}
}

func TestAuthWrongSecret(t *testing.T) {
	f := newFixture(t)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": f.ownerID.String()})
	signed, _ := token.SignedString([]byte("some-other-secret"))
	w := f.do(t, http.MethodGet, "/v1/companies/"+f.companyID.String()+"/memo", "Bearer "+signed)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want 401", w.Code)
	}
}

func TestCompanyOwnershipEnforced(t *testing.T) {
	f := newFixture(t)
	stranger := uuid.New()
	w := f.do(t, http.MethodPost, "/v1/companies/"+f.companyID.String()+"/memo-jobs", bearerToken(t, stranger))
	if w.Code != http.StatusForbidden {
		t.Fatalf("status: got %d, want 403", w.Code)
	}
	if len(f.queue.enqueued) != 0 {
		t.Errorf("stranger's trigger enqueued a job")
	}
}

func TestTriggerJobAccepted(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodPost, "/v1/companies/"+f.companyID.String()+"/memo-jobs", bearerToken(t, f.ownerID))
	if w.Code != http.StatusAccepted {
		t.Fatalf("status: got %d, want 202; body=%s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	jobID, ok := body["job_id"].(string)
	if !ok || jobID == "" {
		t.Fatalf("missing job_id in response: %v", body)
	}
	if len(f.queue.enqueued) != 1 {
		t.Fatalf("enqueued jobs: got %d, want 1", len(f.queue.enqueued))
	}
	if f.queue.enqueued[0].JobID.String() != jobID {
		t.Errorf("enqueued job id %s does not match response %s", f.queue.enqueued[0].JobID, jobID)
	}
}

func TestTriggerJobConflictWhileActive(t *testing.T) {
	f := newFixture(t)
	f.jobs.active = &entity.GenerationJob{ID: uuid.New(), CompanyID: f.companyID, Status: constants.JobStatusProcessing}

	w := f.do(t, http.MethodPost, "/v1/companies/"+f.companyID.String()+"/memo-jobs", bearerToken(t, f.ownerID))
	if w.Code != http.StatusConflict {
		t.Fatalf("status: got %d, want 409", w.Code)
	}
	body := decodeBody(t, w)
	if body["job_id"] != f.jobs.active.ID.String() {
		t.Errorf("conflict response should name the running job: %v", body)
	}
	if len(f.queue.enqueued) != 0 {
		t.Errorf("conflicting trigger enqueued a job")
	}
}

func TestTriggerJobCreateRaceLoserGetsConflict(t *testing.T) {
	f := newFixture(t)
	// active check passes (nil), but the insert loses to a concurrent
	// trigger and hits the unique index on non-terminal jobs
	f.jobs.createConflict = true

	w := f.do(t, http.MethodPost, "/v1/companies/"+f.companyID.String()+"/memo-jobs", bearerToken(t, f.ownerID))
	if w.Code != http.StatusConflict {
		t.Fatalf("status: got %d, want 409", w.Code)
	}
	body := decodeBody(t, w)
	if body["code"] != "job_already_running" {
		t.Errorf("code: got %v, want job_already_running", body["code"])
	}
	if body["job_id"] != f.jobs.active.ID.String() {
		t.Errorf("conflict response should name the racing job: %v", body)
	}
	if len(f.queue.enqueued) != 0 {
		t.Errorf("losing trigger enqueued a job")
	}
}

func TestTriggerJobMissingAPIKey(t *testing.T) {
	f := newFixture(t)
	f.server.cfg.LLM.APIKey = ""

	w := f.do(t, http.MethodPost, "/v1/companies/"+f.companyID.String()+"/memo-jobs", bearerToken(t, f.ownerID))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status: got %d, want 500", w.Code)
	}
	if body := decodeBody(t, w); body["code"] != "backend_misconfigured" {
		t.Errorf("code: got %v, want backend_misconfigured", body["code"])
	}
}

func TestTriggerJobDispatchFailureFailsJob(t *testing.T) {
	f := newFixture(t)
	f.queue.err = errors.New("queue is shutting down")

	w := f.do(t, http.MethodPost, "/v1/companies/"+f.companyID.String()+"/memo-jobs", bearerToken(t, f.ownerID))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status: got %d, want 500", w.Code)
	}
	if len(f.jobs.failedFinishes) != 1 {
		t.Fatalf("job should be failed after dispatch error, got %d failure writes", len(f.jobs.failedFinishes))
	}
}

func TestJobStatusNotFound(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodGet, "/v1/memo-jobs/"+uuid.New().String(), bearerToken(t, f.ownerID))
	if w.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want 404", w.Code)
	}
}

func TestJobStatusForeignJobForbidden(t *testing.T) {
	f := newFixture(t)
	job, _ := f.jobs.Create(context.Background(), f.companyID)

	w := f.do(t, http.MethodGet, "/v1/memo-jobs/"+job.ID.String(), bearerToken(t, uuid.New()))
	if w.Code != http.StatusForbidden {
		t.Fatalf("status: got %d, want 403", w.Code)
	}
}

func TestJobStatusInFlightProgress(t *testing.T) {
	f := newFixture(t)
	started := time.Now()
	job := &entity.GenerationJob{ID: uuid.New(), CompanyID: f.companyID, Status: constants.JobStatusProcessing, StartedAt: started}
	f.jobs.jobs[job.ID] = job

	cases := []struct {
		elapsed time.Duration
		message string
	}{
		{5 * time.Second, "Warming up the analysis engine"},
		{15 * time.Second, "Reading your questionnaire answers"},
		{30 * time.Second, "Drafting the memo sections"},
		{60 * time.Second, "Writing the investment narrative"},
		{100 * time.Second, "Reviewing numbers and claims"},
		{200 * time.Second, "Finalizing your memo"},
	}
	for _, tc := range cases {
		f.server.now = func() time.Time { return started.Add(tc.elapsed) }
		w := f.do(t, http.MethodGet, "/v1/memo-jobs/"+job.ID.String(), bearerToken(t, f.ownerID))
		if w.Code != http.StatusOK {
			t.Fatalf("status at %v: got %d, want 200", tc.elapsed, w.Code)
		}
		body := decodeBody(t, w)
		if body["status"] != "processing" {
			t.Errorf("at %v status: got %v, want processing", tc.elapsed, body["status"])
		}
		if body["message"] != tc.message {
			t.Errorf("at %v message: got %q, want %q", tc.elapsed, body["message"], tc.message)
		}
		if int64(body["elapsed_seconds"].(float64)) != int64(tc.elapsed.Seconds()) {
			t.Errorf("at %v elapsed_seconds: got %v", tc.elapsed, body["elapsed_seconds"])
		}
	}
}

func TestJobStatusFailedVerbatimError(t *testing.T) {
	f := newFixture(t)
	msg := `generate section "market": ai service status 429: rate limit exceeded`
	job := &entity.GenerationJob{ID: uuid.New(), CompanyID: f.companyID, Status: constants.JobStatusFailed, ErrorMessage: &msg}
	f.jobs.jobs[job.ID] = job

	w := f.do(t, http.MethodGet, "/v1/memo-jobs/"+job.ID.String(), bearerToken(t, f.ownerID))
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", w.Code)
	}
	body := decodeBody(t, w)
	if body["status"] != "failed" {
		t.Errorf("status field: got %v, want failed", body["status"])
	}
	if body["error"] != msg {
		t.Errorf("error field: got %q, want the stored message verbatim", body["error"])
	}
}

func TestJobStatusCompleted(t *testing.T) {
	f := newFixture(t)
	started := time.Now().Add(-80 * time.Second)
	finished := started.Add(75 * time.Second)
	job := &entity.GenerationJob{ID: uuid.New(), CompanyID: f.companyID, Status: constants.JobStatusCompleted, StartedAt: started, FinishedAt: &finished}
	f.jobs.jobs[job.ID] = job
	if _, err := f.memos.Upsert(context.Background(), f.companyID, json.RawMessage(`{"sections":[]}`)); err != nil {
		t.Fatal(err)
	}

	w := f.do(t, http.MethodGet, "/v1/memo-jobs/"+job.ID.String(), bearerToken(t, f.ownerID))
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", w.Code)
	}
	body := decodeBody(t, w)
	if body["status"] != "completed" {
		t.Fatalf("status field: got %v", body["status"])
	}
	if body["structured_content"] == nil {
		t.Error("missing structured_content")
	}
	if int64(body["generation_time_seconds"].(float64)) != 75 {
		t.Errorf("generation_time_seconds: got %v, want 75", body["generation_time_seconds"])
	}
	summary, ok := body["company_summary"].(map[string]any)
	if !ok || summary["name"] != "Acme Robotics" || summary["stage"] != "seed" {
		t.Errorf("company_summary: got %v", body["company_summary"])
	}
}

func TestJobStatusCompletedButMemoMissing(t *testing.T) {
	f := newFixture(t)
	job := &entity.GenerationJob{ID: uuid.New(), CompanyID: f.companyID, Status: constants.JobStatusCompleted, StartedAt: time.Now()}
	f.jobs.jobs[job.ID] = job

	w := f.do(t, http.MethodGet, "/v1/memo-jobs/"+job.ID.String(), bearerToken(t, f.ownerID))
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", w.Code)
	}
	body := decodeBody(t, w)
	if body["status"] != "failed" {
		t.Errorf("status field: got %v, want failed", body["status"])
	}
	if body["error"] != "memo not found after generation completed" {
		t.Errorf("error field: got %q", body["error"])
	}
}

func TestLatestMemoNotFound(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodGet, "/v1/companies/"+f.companyID.String()+"/memo", bearerToken(t, f.ownerID))
	if w.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want 404", w.Code)
	}
}

func TestExportMemoXLSX(t *testing.T) {
	f := newFixture(t)
	content := json.RawMessage(`{"sections":[{"title":"Team","paragraphs":[{"text":"Two founders."}],"highlights":[],"key_points":[]}]}`)
	if _, err := f.memos.Upsert(context.Background(), f.companyID, content); err != nil {
		t.Fatal(err)
	}

	w := f.do(t, http.MethodGet, "/v1/companies/"+f.companyID.String()+"/memo/export", bearerToken(t, f.ownerID))
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200; body=%s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" {
		t.Errorf("content type: got %q", ct)
	}
	if w.Body.Len() == 0 {
		t.Error("empty export body")
	}
}

func TestCompletenessQuestionSynonymFindsStoredAnswer(t *testing.T) {
	f := newFixture(t)
	f.answers.answers = []*entity.Answer{{
		ID: uuid.New(), CompanyID: f.companyID, QuestionKey: "team",
		Content: "Our two co-founders previously built and led the payments team at a public company for six years.",
	}}

	w := f.do(t, http.MethodGet,
		"/v1/companies/"+f.companyID.String()+"/quality/completeness?question=founders",
		bearerToken(t, f.ownerID))
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200; body=%s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	report, ok := body["report"].(map[string]any)
	if !ok {
		t.Fatalf("missing report: %v", body)
	}
	if report["question_key"] != "team" {
		t.Errorf("question_key: got %v, want team", report["question_key"])
	}
	// the stored answer must actually be scored, not treated as unanswered
	if score := report["score"].(float64); score == 0 {
		t.Errorf("score: got 0, want the stored answer scored against the checklist")
	}
}

func TestHealthzNoAuth(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodGet, "/healthz", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", w.Code)
	}
}
