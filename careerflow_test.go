package careerflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careerflow/careerflow/testutil/fixtures"
	"github.com/careerflow/careerflow/testutil/mocks"
	"github.com/careerflow/careerflow/workflow"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	provider := mocks.NewMockProvider().
		WithRule("Analyze the following job description", fixtures.JDAnalysisJSON).
		WithRule("Write a personalized cover letter", fixtures.CoverLetterText).
		WithRule("interview questions with personalized suggested answers", fixtures.QAListJSON(12)).
		WithRule("Compare this applicant's CV against the job requirements", fixtures.GapReportJSON)

	app, err := New(WithProvider(provider))
	require.NoError(t, err)
	return app
}

func TestNewRequiresProvider(t *testing.T) {
	_, err := New()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no provider configured")
}

func TestNewWithAPIKey(t *testing.T) {
	app, err := New(WithOpenAI("gpt-4o"), WithAPIKey("sk-test"))
	require.NoError(t, err)
	assert.NotNil(t, app.Engine())
}

func TestAppFullRun(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()

	snap, err := app.Start(ctx, "run-1", "", "Backend Engineer position, Go required.")
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusSuspended, snap.Status)
	assert.Equal(t, fixtures.CoverLetterText, snap.Payload)

	snap, err = app.Approve(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusSuspended, snap.Status)
	assert.Len(t, snap.State.InterviewQA, 12)

	snap, err = app.Approve(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusCompleted, snap.Status)
	require.NotNil(t, snap.State.FinalOutput)
	assert.Equal(t, 7, snap.State.FinalOutput.GapReport.MatchScore)

	inspected, err := app.Inspect(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusCompleted, inspected.Status)
}

func TestAppFeedbackLoops(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()

	_, err := app.Start(ctx, "run-1", "", "Backend Engineer position.")
	require.NoError(t, err)

	snap, err := app.Feedback(ctx, "run-1", "mention Kubernetes more")
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusSuspended, snap.Status)
	assert.Empty(t, snap.State.CoverLetterFinal)
}

func TestWithQuestionQuota(t *testing.T) {
	provider := mocks.NewMockProvider().
		WithRule("Analyze the following job description", fixtures.JDAnalysisJSON).
		WithRule("Write a personalized cover letter", fixtures.CoverLetterText).
		WithRule("Generate exactly 6 interview questions", fixtures.QAListJSON(6)).
		WithRule("Compare this applicant's CV against the job requirements", fixtures.GapReportJSON)

	app, err := New(WithProvider(provider), WithQuestionQuota(6))
	require.NoError(t, err)
	ctx := context.Background()

	_, err = app.Start(ctx, "run-1", "", "Backend Engineer position.")
	require.NoError(t, err)
	snap, err := app.Approve(ctx, "run-1")
	require.NoError(t, err)
	assert.Len(t, snap.State.InterviewQA, 6)
}
