package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/careerflow/careerflow/llm"
	"github.com/careerflow/careerflow/types"
	"github.com/careerflow/careerflow/workflow"
)

// parseCVStep extracts plain text from the uploaded CV. Extraction never
// fails the run: missing or unsupported files degrade to diagnostic text in
// cv_raw_text so the failure surfaces in the generated artifacts. A state
// seeded with cv_raw_text skips extraction entirely.
func (p *Pipeline) parseCVStep() workflow.Step {
	return workflow.NewFuncStep(NodeParseCV, func(ctx context.Context, s *workflow.State) (*workflow.Update, error) {
		text := s.CVRawText
		if text == "" {
			text = p.extractor.Extract(s.CVFilePath)
		}
		return &workflow.Update{CVRawText: workflow.StrPtr(text)}, nil
	})
}

// analyzeJDStep extracts a structured analysis from the raw job
// description. Always a full recompute; deterministic temperature.
func (p *Pipeline) analyzeJDStep() workflow.Step {
	return workflow.NewFuncStep(NodeAnalyzeJD, func(ctx context.Context, s *workflow.State) (*workflow.Update, error) {
		analysis, err := p.jdOut.Generate(ctx, jdSystemPrompt, jdUserPrompt(s.JobDescription), tempExtraction)
		if err != nil {
			return nil, err
		}
		p.logger.Debug("jd analyzed",
			zap.String("role", analysis.Role),
			zap.Int("skills", len(analysis.RequiredSkills)),
		)
		return &workflow.Update{JDAnalysis: analysis}, nil
	})
}

// coverLetterStep writes the cover letter draft. When hitl_1_feedback holds
// anything other than a bare approval the step switches to regeneration
// mode, passing the previous draft and the feedback to the generation
// service.
func (p *Pipeline) coverLetterStep() workflow.Step {
	return workflow.NewFuncStep(NodeWriteCoverLetter, func(ctx context.Context, s *workflow.State) (*workflow.Update, error) {
		cvText := p.budgetCV(s.CVRawText)

		var user string
		regenerating := !approves(s.HITL1Feedback, "approve")
		if regenerating {
			user = coverLetterRegenPrompt(s.JDAnalysis, cvText, s.CoverLetterDraft, s.HITL1Feedback)
		} else {
			user = coverLetterFreshPrompt(s.JDAnalysis, cvText)
		}

		req := &llm.ChatRequest{
			Model: p.cfg.Model,
			Messages: []llm.Message{
				{Role: llm.RoleSystem, Content: coverLetterSystemPrompt(keywordsOf(s.JDAnalysis))},
				{Role: llm.RoleUser, Content: user},
			},
			Temperature: tempWriting,
		}
		resp, err := p.provider.Completion(ctx, req)
		if err != nil {
			return nil, err
		}
		draft := llm.FirstContent(resp)
		if draft == "" {
			return nil, types.NewError(types.ErrOutputParse, "empty cover letter response").
				WithProvider(p.provider.Name()).WithRetryable(true)
		}

		p.logger.Debug("cover letter drafted", zap.Bool("regenerated", regenerating))
		return &workflow.Update{CoverLetterDraft: workflow.StrPtr(draft)}, nil
	})
}

// setFinalStep copies the approved draft into cover_letter_final. Pure
// assignment; downstream steps read only the final field from here on.
func (p *Pipeline) setFinalStep() workflow.Step {
	return workflow.NewFuncStep(NodeSetFinal, func(ctx context.Context, s *workflow.State) (*workflow.Update, error) {
		return &workflow.Update{CoverLetterFinal: workflow.StrPtr(s.CoverLetterDraft)}, nil
	})
}

// interviewStep generates the interview Q&A. First generation produces the
// configured quota with a fixed category distribution; a follow-up round
// generates only additional questions and appends them to the accepted
// list, never replacing it.
func (p *Pipeline) interviewStep() workflow.Step {
	return workflow.NewFuncStep(NodePrepareInterview, func(ctx context.Context, s *workflow.State) (*workflow.Update, error) {
		cvText := p.budgetCV(s.CVRawText)

		followup := !approves(s.HITL2Feedback, "accept") && len(s.InterviewQA) > 0
		var user string
		if followup {
			user = interviewFollowupPrompt(s.JDAnalysis, cvText, s.CoverLetterFinal, s.HITL2Feedback, s.InterviewQA)
		} else {
			user = interviewFirstPrompt(s.JDAnalysis, cvText, s.CoverLetterFinal, p.cfg.QuestionQuota, p.cfg.CategorySplit)
		}

		result, err := p.qaOut.Generate(ctx, interviewSystemPrompt(roleOf(s.JDAnalysis)), user, tempWriting)
		if err != nil {
			return nil, err
		}

		qa := result.QAPairs
		if followup {
			qa = append(append([]workflow.QAPair(nil), s.InterviewQA...), qa...)
		}
		p.logger.Debug("interview qa generated",
			zap.Int("new", len(result.QAPairs)),
			zap.Int("total", len(qa)),
			zap.Bool("followup", followup),
		)
		return &workflow.Update{InterviewQA: qa}, nil
	})
}

// gapCheckStep compares the CV against the job requirements and produces
// the gap report. Always a full recompute; deterministic temperature.
func (p *Pipeline) gapCheckStep() workflow.Step {
	return workflow.NewFuncStep(NodeRunQACheck, func(ctx context.Context, s *workflow.State) (*workflow.Update, error) {
		report, err := p.gapOut.Generate(ctx, gapSystemPrompt, gapUserPrompt(s.JDAnalysis, p.budgetCV(s.CVRawText)), tempExtraction)
		if err != nil {
			return nil, err
		}
		p.logger.Debug("gap analysis complete",
			zap.Int("gaps", len(report.Gaps)),
			zap.Int("match_score", report.MatchScore),
		)
		return &workflow.Update{QAFlags: report}, nil
	})
}
