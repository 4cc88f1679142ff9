package pipeline

import (
	"context"

	"github.com/careerflow/careerflow/workflow"
)

// severityIcons maps gap severity to its fixed display token. Unknown
// severities fall back to the minor token.
var severityIcons = map[string]string{
	"critical": "🔴",
	"moderate": "🟡",
	"minor":    "🟢",
}

const defaultSeverityIcon = "🟢"

// SeverityIcon returns the display token for a severity level.
func SeverityIcon(severity string) string {
	if icon, ok := severityIcons[severity]; ok {
		return icon
	}
	return defaultSeverityIcon
}

// assembleStep aggregates all artifacts into final_output. Pure data
// assembly: no generation calls, no failure modes beyond missing-field
// defaults.
func (p *Pipeline) assembleStep() workflow.Step {
	return workflow.NewFuncStep(NodeAssembleOutput, func(ctx context.Context, s *workflow.State) (*workflow.Update, error) {
		coverLetter := s.CoverLetterFinal
		if coverLetter == "" {
			coverLetter = s.CoverLetterDraft
		}
		if coverLetter == "" {
			coverLetter = "No cover letter generated."
		}

		var gaps []workflow.GapItem
		matchScore := 0
		assessment := ""
		if s.QAFlags != nil {
			gaps = s.QAFlags.Gaps
			matchScore = s.QAFlags.MatchScore
			assessment = s.QAFlags.OverallAssessment
		}

		formattedGaps := make([]workflow.FinalGapItem, 0, len(gaps))
		for _, g := range gaps {
			severity := g.Severity
			if severity == "" {
				severity = "minor"
			}
			formattedGaps = append(formattedGaps, workflow.FinalGapItem{
				Gap:          g.Gap,
				Severity:     severity,
				SeverityIcon: SeverityIcon(severity),
				Advice:       g.Advice,
			})
		}

		out := &workflow.FinalOutput{
			CoverLetter: workflow.FinalCoverLetter{
				Title:   "Cover Letter",
				Role:    roleOf(s.JDAnalysis),
				Content: coverLetter,
			},
			InterviewQA: workflow.FinalInterviewQA{
				Title:          "Interview Preparation",
				TotalQuestions: len(s.InterviewQA),
				QAPairs:        s.InterviewQA,
			},
			GapReport: workflow.FinalGapReport{
				Title:             "Gap Report",
				MatchScore:        matchScore,
				OverallAssessment: assessment,
				Gaps:              formattedGaps,
			},
			Meta: workflow.FinalMeta{
				Role:            roleOf(s.JDAnalysis),
				ExperienceLevel: experienceOf(s.JDAnalysis),
				TotalQuestions:  len(s.InterviewQA),
				TotalGaps:       len(gaps),
				MatchScore:      matchScore,
			},
		}
		return &workflow.Update{FinalOutput: out}, nil
	})
}
