package api

import "github.com/careerflow/careerflow/workflow"

// StartRunRequest creates or retries a run. RunID is optional; when empty
// the server generates one. Exactly one of CVFilePath or CVText should be
// set: CVText bypasses file extraction.
type StartRunRequest struct {
	RunID          string `json:"run_id,omitempty"`
	CVFilePath     string `json:"cv_file_path,omitempty"`
	CVText         string `json:"cv_text,omitempty"`
	JobDescription string `json:"job_description"`
}

// FeedbackRequest resumes a suspended run. Field may name the checkpoint
// feedback field being answered; when empty it addresses whichever
// checkpoint the run is suspended at. An empty Text approves the pending
// draft.
type FeedbackRequest struct {
	Field string `json:"field,omitempty"`
	Text  string `json:"text"`
}

// RunResponse describes a run after an engine call.
type RunResponse struct {
	RunID    string             `json:"run_id"`
	Status   workflow.RunStatus `json:"status"`
	Position string             `json:"position"`
	Version  int                `json:"version"`
	Payload  any                `json:"payload,omitempty"`
	Error    string             `json:"error,omitempty"`
}

// RunDetailResponse is RunResponse plus the full accumulated state, returned
// by GET /v1/runs/{id}.
type RunDetailResponse struct {
	RunResponse
	State    *workflow.State  `json:"state,omitempty"`
	Versions []VersionSummary `json:"versions,omitempty"`
}

// VersionSummary is one checkpoint in a run's history.
type VersionSummary struct {
	Version   int                `json:"version"`
	Position  string             `json:"position"`
	Status    workflow.RunStatus `json:"status"`
	CreatedAt string             `json:"created_at"`
}
