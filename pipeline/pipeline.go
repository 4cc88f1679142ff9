// Package pipeline defines the job-application workflow: the domain steps,
// the two human-review checkpoints, and the routing between them.
package pipeline

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/careerflow/careerflow/extract"
	"github.com/careerflow/careerflow/llm"
	"github.com/careerflow/careerflow/structured"
	"github.com/careerflow/careerflow/workflow"
)

// Node names. They double as run positions in persisted checkpoints, so
// renaming one breaks resumability of in-flight runs.
const (
	NodeParseCV          = "parse_cv"
	NodeAnalyzeJD        = "analyze_jd"
	NodeWriteCoverLetter = "write_cover_letter"
	NodeHITL1            = "hitl_1"
	NodeSetFinal         = "set_cover_letter_final"
	NodePrepareInterview = "prepare_interview"
	NodeHITL2            = "hitl_2"
	NodeRunQACheck       = "run_qa_check"
	NodeAssembleOutput   = "assemble_output"
)

// Feedback field names exposed to external actors at the checkpoints.
const (
	FieldHITL1 = "hitl_1_feedback"
	FieldHITL2 = "hitl_2_feedback"
)

// Config carries the pipeline's tunables.
type Config struct {
	Model         string
	QuestionQuota int    // first-generation question count
	CategorySplit [4]int // role-specific, behavioral, situational, gap-related
	CVTokenBudget int    // max CV tokens per prompt, 0 disables truncation
}

// DefaultConfig mirrors the stock question distribution.
func DefaultConfig(model string) Config {
	return Config{
		Model:         model,
		QuestionQuota: 12,
		CategorySplit: [4]int{4, 3, 3, 2},
		CVTokenBudget: 8000,
	}
}

// Pipeline binds the generation provider, the extraction service, and the
// prompt budget into the workflow steps.
type Pipeline struct {
	cfg       Config
	provider  llm.Provider
	extractor *extract.Service
	tokenizer *llm.Tokenizer
	logger    *zap.Logger

	jdOut  *structured.Output[workflow.JDAnalysis]
	qaOut  *structured.Output[qaList]
	gapOut *structured.Output[workflow.GapReport]
}

// New wires a Pipeline. The extractor may be nil when CV parsing is handled
// upstream; a nil tokenizer disables prompt budgeting.
func New(cfg Config, provider llm.Provider, extractor *extract.Service, tokenizer *llm.Tokenizer, logger *zap.Logger) (*Pipeline, error) {
	if provider == nil {
		return nil, fmt.Errorf("pipeline requires a provider")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.QuestionQuota <= 0 {
		cfg.QuestionQuota = 12
		cfg.CategorySplit = [4]int{4, 3, 3, 2}
	}
	if extractor == nil {
		extractor = extract.NewService(logger)
	}

	jdOut, err := structured.NewOutput[workflow.JDAnalysis](provider, cfg.Model, jdAnalysisSchema())
	if err != nil {
		return nil, err
	}
	qaOut, err := structured.NewOutput[qaList](provider, cfg.Model, qaListSchema())
	if err != nil {
		return nil, err
	}
	gapOut, err := structured.NewOutput[workflow.GapReport](provider, cfg.Model, gapReportSchema())
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		cfg:       cfg,
		provider:  provider,
		extractor: extractor,
		tokenizer: tokenizer,
		logger:    logger.With(zap.String("component", "pipeline")),
		jdOut:     jdOut,
		qaOut:     qaOut,
		gapOut:    gapOut,
	}, nil
}

// Graph builds the immutable workflow graph. Call once at startup and share
// the result across all runs.
func (p *Pipeline) Graph() (*workflow.Graph, error) {
	return workflow.NewBuilder().
		SetEntry(NodeParseCV).
		AddStep(p.parseCVStep(), NodeAnalyzeJD).
		AddStep(p.analyzeJDStep(), NodeWriteCoverLetter).
		AddStep(p.coverLetterStep(), NodeHITL1).
		AddCheckpoint(
			NodeHITL1,
			FieldHITL1,
			func(s *workflow.State, text string) { s.HITL1Feedback = text },
			routeAfterCoverLetter,
			[]string{NodeSetFinal, NodeWriteCoverLetter},
			func(s *workflow.State) any { return s.CoverLetterDraft },
		).
		AddStep(p.setFinalStep(), NodePrepareInterview).
		AddStep(p.interviewStep(), NodeHITL2).
		AddCheckpoint(
			NodeHITL2,
			FieldHITL2,
			func(s *workflow.State, text string) { s.HITL2Feedback = text },
			routeAfterInterview,
			[]string{NodeRunQACheck, NodePrepareInterview},
			func(s *workflow.State) any { return s.InterviewQA },
		).
		AddStep(p.gapCheckStep(), NodeAssembleOutput).
		AddStep(p.assembleStep(), workflow.End).
		Build()
}

// budgetCV truncates the CV text to the configured token budget before it
// enters a prompt.
func (p *Pipeline) budgetCV(text string) string {
	if p.tokenizer == nil || p.cfg.CVTokenBudget <= 0 {
		return text
	}
	return p.tokenizer.Truncate(text, p.cfg.CVTokenBudget)
}
