package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/careerflow/careerflow/workflow"
)

// newRunsMux wires a runs handler over a three-node graph: one drafting
// step, one review checkpoint, one finishing step.
func newRunsMux(t *testing.T, maxFeedbackRounds int) *http.ServeMux {
	t.Helper()

	draft := workflow.NewFuncStep("draft", func(ctx context.Context, s *workflow.State) (*workflow.Update, error) {
		return &workflow.Update{CoverLetterDraft: workflow.StrPtr("Hi there,")}, nil
	})
	finalize := workflow.NewFuncStep("finalize", func(ctx context.Context, s *workflow.State) (*workflow.Update, error) {
		return &workflow.Update{
			CoverLetterFinal: workflow.StrPtr(s.CoverLetterDraft),
			FinalOutput:      &workflow.FinalOutput{CoverLetter: workflow.FinalCoverLetter{Content: s.CoverLetterDraft}},
		}, nil
	})
	route := func(s *workflow.State) string {
		switch strings.ToLower(strings.TrimSpace(s.HITL1Feedback)) {
		case "", "approve":
			return "finalize"
		}
		return "draft"
	}

	g, err := workflow.NewBuilder().
		SetEntry("draft").
		AddStep(draft, "review").
		AddCheckpoint("review", "hitl_1_feedback",
			func(s *workflow.State, text string) { s.HITL1Feedback = text },
			route, []string{"finalize", "draft"},
			func(s *workflow.State) any { return s.CoverLetterDraft },
		).
		AddStep(finalize, workflow.End).
		Build()
	require.NoError(t, err)

	engine := workflow.NewEngine(g, workflow.NewMemoryStore(), zap.NewNop(), nil)
	mux := http.NewServeMux()
	NewRunsHandler(engine, maxFeedbackRounds, zap.NewNop()).RegisterRoutes(mux)
	return mux
}

func doJSON(t *testing.T, mux *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, r)
	return rec
}

func dataField(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	resp := decodeEnvelope(t, rec)
	require.True(t, resp.Success, "expected success envelope, got %s", rec.Body.String())
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	return data
}

func TestHandleStart(t *testing.T) {
	mux := newRunsMux(t, 0)

	rec := doJSON(t, mux, http.MethodPost, "/v1/runs",
		`{"run_id": "run-1", "job_description": "Backend Engineer", "cv_text": "six years of Go"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	data := dataField(t, rec)
	assert.Equal(t, "run-1", data["run_id"])
	assert.Equal(t, string(workflow.StatusSuspended), data["status"])
	assert.Equal(t, "review", data["position"])
	assert.Equal(t, "Hi there,", data["payload"])
}

func TestHandleStartGeneratesRunID(t *testing.T) {
	mux := newRunsMux(t, 0)

	rec := doJSON(t, mux, http.MethodPost, "/v1/runs", `{"job_description": "jd"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	data := dataField(t, rec)
	assert.NotEmpty(t, data["run_id"])
}

func TestHandleStartMissingJobDescription(t *testing.T) {
	mux := newRunsMux(t, 0)

	rec := doJSON(t, mux, http.MethodPost, "/v1/runs", `{"cv_text": "cv only"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeEnvelope(t, rec)
	require.NotNil(t, resp.Error)
	assert.Contains(t, resp.Error.Message, "job_description is required")
}

func TestHandleFeedbackApprove(t *testing.T) {
	mux := newRunsMux(t, 0)
	doJSON(t, mux, http.MethodPost, "/v1/runs", `{"run_id": "run-1", "job_description": "jd"}`)

	rec := doJSON(t, mux, http.MethodPost, "/v1/runs/run-1/feedback", `{"text": "approve"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	data := dataField(t, rec)
	assert.Equal(t, string(workflow.StatusCompleted), data["status"])
	assert.Equal(t, workflow.End, data["position"])
}

func TestHandleFeedbackUnknownRun(t *testing.T) {
	mux := newRunsMux(t, 0)
	rec := doJSON(t, mux, http.MethodPost, "/v1/runs/ghost/feedback", `{"text": ""}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleFeedbackWrongField(t *testing.T) {
	mux := newRunsMux(t, 0)
	doJSON(t, mux, http.MethodPost, "/v1/runs", `{"run_id": "run-1", "job_description": "jd"}`)

	rec := doJSON(t, mux, http.MethodPost, "/v1/runs/run-1/feedback",
		`{"field": "hitl_2_feedback", "text": "approve"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleFeedbackRoundLimit(t *testing.T) {
	mux := newRunsMux(t, 1)
	doJSON(t, mux, http.MethodPost, "/v1/runs", `{"run_id": "run-1", "job_description": "jd"}`)

	// First revision round is within the budget.
	rec := doJSON(t, mux, http.MethodPost, "/v1/runs/run-1/feedback", `{"text": "tweak it"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// Second revision trips the limit.
	rec = doJSON(t, mux, http.MethodPost, "/v1/runs/run-1/feedback", `{"text": "again"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	resp := decodeEnvelope(t, rec)
	require.NotNil(t, resp.Error)
	assert.Contains(t, resp.Error.Message, "feedback round limit")

	// Approval is never budgeted.
	rec = doJSON(t, mux, http.MethodPost, "/v1/runs/run-1/feedback", `{"text": "approve"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	data := dataField(t, rec)
	assert.Equal(t, string(workflow.StatusCompleted), data["status"])

	// Decorated tokens pass the budget gate too.
	doJSON(t, mux, http.MethodPost, "/v1/runs", `{"run_id": "run-2", "job_description": "jd"}`)
	rec = doJSON(t, mux, http.MethodPost, "/v1/runs/run-2/feedback", `{"text": "tweak it"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = doJSON(t, mux, http.MethodPost, "/v1/runs/run-2/feedback", `{"text": "  APPROVE  "}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	data = dataField(t, rec)
	assert.Equal(t, string(workflow.StatusCompleted), data["status"])
}

func TestHandleGet(t *testing.T) {
	mux := newRunsMux(t, 0)
	doJSON(t, mux, http.MethodPost, "/v1/runs", `{"run_id": "run-1", "job_description": "jd"}`)

	rec := doJSON(t, mux, http.MethodGet, "/v1/runs/run-1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	data := dataField(t, rec)
	assert.Equal(t, "run-1", data["run_id"])
	state, ok := data["state"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Hi there,", state["cover_letter_draft"])
	assert.Nil(t, data["versions"])
}

func TestHandleGetWithVersions(t *testing.T) {
	mux := newRunsMux(t, 0)
	doJSON(t, mux, http.MethodPost, "/v1/runs", `{"run_id": "run-1", "job_description": "jd"}`)

	rec := doJSON(t, mux, http.MethodGet, "/v1/runs/run-1?versions=1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	data := dataField(t, rec)
	versions, ok := data["versions"].([]any)
	require.True(t, ok)
	require.NotEmpty(t, versions)

	first, ok := versions[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(1), first["version"])
	assert.NotEmpty(t, first["created_at"])

	last, ok := versions[len(versions)-1].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, string(workflow.StatusSuspended), last["status"])
}

func TestHandleGetUnknownRun(t *testing.T) {
	mux := newRunsMux(t, 0)
	rec := doJSON(t, mux, http.MethodGet, "/v1/runs/ghost", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleStartInvalidBody(t *testing.T) {
	mux := newRunsMux(t, 0)
	rec := doJSON(t, mux, http.MethodPost, "/v1/runs", `{"job_description": 42}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleStartRejectsUnknownFields(t *testing.T) {
	mux := newRunsMux(t, 0)
	rec := doJSON(t, mux, http.MethodPost, "/v1/runs",
		fmt.Sprintf(`{"job_description": %q, "surprise": true}`, "jd"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
