package handlers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/careerflow/careerflow/api"
	"github.com/careerflow/careerflow/types"
	"github.com/careerflow/careerflow/workflow"
)

// RunsHandler exposes the run lifecycle over HTTP.
type RunsHandler struct {
	engine            *workflow.Engine
	maxFeedbackRounds int
	logger            *zap.Logger
}

// NewRunsHandler creates a runs handler. maxFeedbackRounds caps how many
// revision rounds a single checkpoint accepts; zero means unlimited.
func NewRunsHandler(engine *workflow.Engine, maxFeedbackRounds int, logger *zap.Logger) *RunsHandler {
	return &RunsHandler{
		engine:            engine,
		maxFeedbackRounds: maxFeedbackRounds,
		logger:            logger.With(zap.String("component", "runs_handler")),
	}
}

// RegisterRoutes registers the run endpoints on the mux.
func (h *RunsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/runs", h.HandleStart)
	mux.HandleFunc("POST /v1/runs/{id}/feedback", h.HandleFeedback)
	mux.HandleFunc("GET /v1/runs/{id}", h.HandleGet)
}

// HandleStart creates a new run, or retries a failed one when run_id names
// an existing run.
func (h *RunsHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	var req api.StartRunRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}

	if strings.TrimSpace(req.JobDescription) == "" {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest,
			"job_description is required", h.logger)
		return
	}

	runID := req.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	initial := &workflow.State{
		JobDescription: req.JobDescription,
		CVFilePath:     req.CVFilePath,
		CVRawText:      req.CVText,
	}

	snap, err := h.engine.Start(r.Context(), runID, initial)
	if err != nil {
		WriteEngineError(w, err, h.logger)
		return
	}

	h.logger.Info("run started",
		zap.String("run_id", runID),
		zap.String("status", string(snap.Status)),
		zap.String("position", snap.Position),
	)
	WriteSuccess(w, toRunResponse(snap))
}

// HandleFeedback resumes a suspended run with operator feedback. Empty
// feedback text approves the pending draft.
func (h *RunsHandler) HandleFeedback(w http.ResponseWriter, r *http.Request) {
	runID := r.PathValue("id")

	var req api.FeedbackRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}

	fb := workflow.Feedback{
		Field: req.Field,
		Text:  req.Text,
	}

	// The budget caps revision rounds only; feedback that routes the run
	// forward is always let through.
	if h.maxFeedbackRounds > 0 && strings.TrimSpace(req.Text) != "" {
		approves, err := h.engine.Approves(r.Context(), runID, fb)
		if err != nil {
			WriteEngineError(w, err, h.logger)
			return
		}
		if !approves {
			if err := h.checkFeedbackBudget(r, runID); err != nil {
				WriteEngineError(w, err, h.logger)
				return
			}
		}
	}

	snap, err := h.engine.Resume(r.Context(), runID, fb)
	if err != nil {
		WriteEngineError(w, err, h.logger)
		return
	}

	h.logger.Info("run resumed",
		zap.String("run_id", runID),
		zap.String("status", string(snap.Status)),
		zap.String("position", snap.Position),
	)
	WriteSuccess(w, toRunResponse(snap))
}

// HandleGet returns the current snapshot of a run. With ?versions=1 the
// response also lists every persisted checkpoint version.
func (h *RunsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	runID := r.PathValue("id")

	snap, err := h.engine.Inspect(r.Context(), runID)
	if err != nil {
		WriteEngineError(w, err, h.logger)
		return
	}

	resp := api.RunDetailResponse{
		RunResponse: toRunResponse(snap),
		State:       snap.State,
	}

	if r.URL.Query().Get("versions") == "1" {
		history, err := h.engine.History(r.Context(), runID)
		if err != nil {
			WriteEngineError(w, err, h.logger)
			return
		}
		for _, cp := range history {
			resp.Versions = append(resp.Versions, api.VersionSummary{
				Version:   cp.Version,
				Position:  cp.Position,
				Status:    cp.Status,
				CreatedAt: cp.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
			})
		}
	}

	WriteSuccess(w, resp)
}

// checkFeedbackBudget rejects a revision request once the run has already
// been suspended at its current position maxFeedbackRounds times. Approvals
// are never counted against the budget.
func (h *RunsHandler) checkFeedbackBudget(r *http.Request, runID string) error {
	snap, err := h.engine.Inspect(r.Context(), runID)
	if err != nil {
		return err
	}
	if snap.Status != workflow.StatusSuspended {
		return nil
	}

	history, err := h.engine.History(r.Context(), runID)
	if err != nil {
		return err
	}

	rounds := 0
	for _, cp := range history {
		if cp.Position == snap.Position && cp.Status == workflow.StatusSuspended {
			rounds++
		}
	}
	if rounds > h.maxFeedbackRounds {
		return types.NewError(types.ErrInvalidRequest, "feedback round limit reached for this checkpoint").
			WithHTTPStatus(http.StatusTooManyRequests)
	}
	return nil
}

func toRunResponse(snap *workflow.Snapshot) api.RunResponse {
	return api.RunResponse{
		RunID:    snap.RunID,
		Status:   snap.Status,
		Position: snap.Position,
		Version:  snap.Version,
		Payload:  snap.Payload,
		Error:    snap.Error,
	}
}
