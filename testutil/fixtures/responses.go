// Package fixtures provides canned LLM response bodies for tests: a job
// analysis, interview question lists, and a gap report, all in the JSON
// shapes the pipeline's structured outputs expect.
package fixtures

import (
	"fmt"
	"strings"
)

// JDAnalysisJSON is a well-formed job analysis response.
const JDAnalysisJSON = `{
  "role": "Backend Engineer",
  "required_skills": ["Go", "PostgreSQL", "Kubernetes"],
  "responsibilities": ["Design APIs", "Operate services in production"],
  "tone": "professional",
  "experience_level": "Senior",
  "keywords": ["Go", "microservices", "reliability"]
}`

// CoverLetterText is a plausible cover letter draft.
const CoverLetterText = `Hi there,

I was excited to see the Backend Engineer opening. My six years building Go services map directly onto your stack, and I have shipped and operated microservices on Kubernetes at scale.

At my current role I own the reliability of a payments API, which taught me to design for failure and to keep latency budgets honest. I would bring that same discipline to your platform team.

I would welcome the chance to talk about how I can contribute.

Best regards,
Alex`

// GapReportJSON is a well-formed gap report with one gap per severity.
const GapReportJSON = `{
  "gaps": [
    {"gap": "No Kubernetes certification", "severity": "minor", "advice": "Mention hands-on cluster operations instead."},
    {"gap": "Limited PostgreSQL tuning experience", "severity": "moderate", "advice": "Prepare a story about query optimization."},
    {"gap": "No production Go experience listed", "severity": "critical", "advice": "Surface the Go services you maintained."}
  ],
  "match_score": 7,
  "overall_assessment": "Strong overall fit with a few preparation areas."
}`

// QAListJSON builds a question list response with n questions spread over
// the four interview categories in the standard 4/3/3/2 proportions.
func QAListJSON(n int) string {
	categories := []string{"role-specific", "behavioral", "situational", "gap-related"}
	split := questionSplit(n)

	var pairs []string
	idx := 0
	for c, count := range split {
		for i := 0; i < count; i++ {
			idx++
			pairs = append(pairs, fmt.Sprintf(
				`{"question": "Question %d?", "category": %q, "suggested_answer": "Answer %d."}`,
				idx, categories[c], idx))
		}
	}
	return `{"qa_pairs": [` + strings.Join(pairs, ",") + `]}`
}

// FollowupQAListJSON builds a short follow-up question list in a single
// category.
func FollowupQAListJSON(n int, category string) string {
	var pairs []string
	for i := 1; i <= n; i++ {
		pairs = append(pairs, fmt.Sprintf(
			`{"question": "Follow-up %d?", "category": %q, "suggested_answer": "Follow-up answer %d."}`,
			i, category, i))
	}
	return `{"qa_pairs": [` + strings.Join(pairs, ",") + `]}`
}

func questionSplit(n int) [4]int {
	if n == 12 {
		return [4]int{4, 3, 3, 2}
	}
	var split [4]int
	for i := 0; i < n; i++ {
		split[i%4]++
	}
	return split
}
