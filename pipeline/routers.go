package pipeline

import (
	"strings"

	"github.com/careerflow/careerflow/workflow"
)

// approves reports whether feedback is a bare approval: empty or equal to
// token after trimming and case-folding. Absent feedback is deliberate
// approval, not an error.
func approves(feedback, token string) bool {
	t := strings.ToLower(strings.TrimSpace(feedback))
	return t == "" || t == token
}

// routeAfterCoverLetter decides the edge out of the first checkpoint:
// approval finalizes the draft, anything else loops back for regeneration.
func routeAfterCoverLetter(s *workflow.State) string {
	if approves(s.HITL1Feedback, "approve") {
		return NodeSetFinal
	}
	return NodeWriteCoverLetter
}

// routeAfterInterview decides the edge out of the second checkpoint:
// acceptance proceeds to gap analysis, anything else loops back for more
// questions.
func routeAfterInterview(s *workflow.State) string {
	if approves(s.HITL2Feedback, "accept") {
		return NodeRunQACheck
	}
	return NodePrepareInterview
}
