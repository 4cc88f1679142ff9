package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/careerflow/careerflow/testutil/fixtures"
	"github.com/careerflow/careerflow/testutil/mocks"
	"github.com/careerflow/careerflow/workflow"
)

// scriptedProvider answers each pipeline prompt with its canned fixture.
func scriptedProvider() *mocks.MockProvider {
	return mocks.NewMockProvider().
		WithRule("Analyze the following job description", fixtures.JDAnalysisJSON).
		WithRule("Rewrite the cover letter incorporating the feedback", "Hi there,\n\nA shorter letter.\n\nBest regards,\nAlex").
		WithRule("Write a personalized cover letter", fixtures.CoverLetterText).
		WithRule("Generate ADDITIONAL questions", fixtures.FollowupQAListJSON(3, "role-specific")).
		WithRule("interview questions with personalized suggested answers", fixtures.QAListJSON(12)).
		WithRule("Compare this applicant's CV against the job requirements", fixtures.GapReportJSON)
}

func newTestPipeline(t *testing.T, provider *mocks.MockProvider) *workflow.Engine {
	t.Helper()
	p, err := New(DefaultConfig("gpt-4o"), provider, nil, nil, zap.NewNop())
	require.NoError(t, err)
	g, err := p.Graph()
	require.NoError(t, err)
	return workflow.NewEngine(g, workflow.NewMemoryStore(), zap.NewNop(), nil)
}

func startRun(t *testing.T, e *workflow.Engine, runID string) *workflow.Snapshot {
	t.Helper()
	snap, err := e.Start(context.Background(), runID, &workflow.State{
		JobDescription: "We need a Backend Engineer who knows Go and Kubernetes.",
		CVRawText:      "Alex. Six years of Go. Runs services on Kubernetes.",
	})
	require.NoError(t, err)
	return snap
}

func TestPipelineNewRequiresProvider(t *testing.T) {
	_, err := New(DefaultConfig("gpt-4o"), nil, nil, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires a provider")
}

func TestPipelineGraphBuilds(t *testing.T) {
	p, err := New(DefaultConfig("gpt-4o"), mocks.NewMockProvider(), nil, nil, nil)
	require.NoError(t, err)
	g, err := p.Graph()
	require.NoError(t, err)
	assert.Equal(t, NodeParseCV, g.Entry())
	assert.Equal(t, workflow.NodeCheckpoint, g.Node(NodeHITL1).Kind)
	assert.Equal(t, workflow.NodeCheckpoint, g.Node(NodeHITL2).Kind)
}

func TestPipelineSuspendsAtFirstReview(t *testing.T) {
	e := newTestPipeline(t, scriptedProvider())
	snap := startRun(t, e, "run-1")

	assert.Equal(t, workflow.StatusSuspended, snap.Status)
	assert.Equal(t, NodeHITL1, snap.Position)
	assert.Equal(t, fixtures.CoverLetterText, snap.Payload)
	assert.Equal(t, "Backend Engineer", snap.State.JDAnalysis.Role)
	assert.Empty(t, snap.State.CoverLetterFinal)
	assert.Empty(t, snap.State.InterviewQA)
}

func TestPipelineApprovalFlow(t *testing.T) {
	e := newTestPipeline(t, scriptedProvider())
	startRun(t, e, "run-1")
	ctx := context.Background()

	snap, err := e.Resume(ctx, "run-1", workflow.Feedback{Text: "approve"})
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusSuspended, snap.Status)
	assert.Equal(t, NodeHITL2, snap.Position)
	assert.Equal(t, fixtures.CoverLetterText, snap.State.CoverLetterFinal)
	require.Len(t, snap.State.InterviewQA, 12)

	counts := map[string]int{}
	for _, qa := range snap.State.InterviewQA {
		counts[qa.Category]++
	}
	assert.Equal(t, 4, counts["role-specific"])
	assert.Equal(t, 3, counts["behavioral"])
	assert.Equal(t, 3, counts["situational"])
	assert.Equal(t, 2, counts["gap-related"])

	snap, err = e.Resume(ctx, "run-1", workflow.Feedback{Text: "accept"})
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusCompleted, snap.Status)

	out, ok := snap.Payload.(*workflow.FinalOutput)
	require.True(t, ok)
	assert.Equal(t, fixtures.CoverLetterText, out.CoverLetter.Content)
	assert.Equal(t, "Backend Engineer", out.CoverLetter.Role)
	assert.Equal(t, 12, out.InterviewQA.TotalQuestions)
	assert.Equal(t, 7, out.GapReport.MatchScore)
	assert.GreaterOrEqual(t, out.GapReport.MatchScore, 1)
	assert.LessOrEqual(t, out.GapReport.MatchScore, 10)
	assert.Equal(t, "Backend Engineer", out.Meta.Role)
	assert.Equal(t, 3, out.Meta.TotalGaps)

	icons := map[string]string{}
	for _, g := range out.GapReport.Gaps {
		icons[g.Severity] = g.SeverityIcon
	}
	assert.Equal(t, "🔴", icons["critical"])
	assert.Equal(t, "🟡", icons["moderate"])
	assert.Equal(t, "🟢", icons["minor"])
}

func TestPipelineCoverLetterRegeneration(t *testing.T) {
	e := newTestPipeline(t, scriptedProvider())
	startRun(t, e, "run-1")
	ctx := context.Background()

	snap, err := e.Resume(ctx, "run-1", workflow.Feedback{Text: "make it shorter"})
	require.NoError(t, err)

	assert.Equal(t, workflow.StatusSuspended, snap.Status)
	assert.Equal(t, NodeHITL1, snap.Position)
	assert.Contains(t, snap.State.CoverLetterDraft, "A shorter letter.")
	assert.Empty(t, snap.State.CoverLetterFinal)

	snap, err = e.Resume(ctx, "run-1", workflow.Feedback{Text: "approve"})
	require.NoError(t, err)
	assert.Contains(t, snap.State.CoverLetterFinal, "A shorter letter.")
}

func TestPipelineFollowupAppendsQuestions(t *testing.T) {
	e := newTestPipeline(t, scriptedProvider())
	startRun(t, e, "run-1")
	ctx := context.Background()

	_, err := e.Resume(ctx, "run-1", workflow.Feedback{Text: "approve"})
	require.NoError(t, err)

	snap, err := e.Resume(ctx, "run-1", workflow.Feedback{Text: "more role-specific depth"})
	require.NoError(t, err)

	assert.Equal(t, workflow.StatusSuspended, snap.Status)
	assert.Equal(t, NodeHITL2, snap.Position)
	require.Len(t, snap.State.InterviewQA, 15)
	assert.Equal(t, "Question 1?", snap.State.InterviewQA[0].Question)
	assert.Equal(t, "Follow-up 1?", snap.State.InterviewQA[12].Question)
}

func TestPipelineCVDiagnosticFlowsThrough(t *testing.T) {
	provider := scriptedProvider()
	e := newTestPipeline(t, provider)

	snap, err := e.Start(context.Background(), "run-1", &workflow.State{
		JobDescription: "Backend Engineer role.",
		CVFilePath:     "/tmp/photo.png",
	})
	require.NoError(t, err)
	assert.Equal(t, "Unsupported file type: .png. Please upload PDF or DOCX.", snap.State.CVRawText)
}

func TestPipelineProviderFailureFailsRun(t *testing.T) {
	provider := mocks.NewMockProvider().WithError(assert.AnError)
	e := newTestPipeline(t, provider)

	_, err := e.Start(context.Background(), "run-1", &workflow.State{
		JobDescription: "jd",
		CVRawText:      "cv",
	})
	require.Error(t, err)

	snap, err := e.Inspect(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusFailed, snap.Status)
	assert.Equal(t, NodeAnalyzeJD, snap.Position)
}

func TestSeverityIcon(t *testing.T) {
	assert.Equal(t, "🔴", SeverityIcon("critical"))
	assert.Equal(t, "🟡", SeverityIcon("moderate"))
	assert.Equal(t, "🟢", SeverityIcon("minor"))
	assert.Equal(t, "🟢", SeverityIcon("unknown"))
}
