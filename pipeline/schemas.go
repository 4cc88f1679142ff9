package pipeline

import (
	"github.com/careerflow/careerflow/structured"
	"github.com/careerflow/careerflow/workflow"
)

// qaList wraps the generated Q&A pairs so the generation service returns a
// single JSON object.
type qaList struct {
	QAPairs []workflow.QAPair `json:"qa_pairs"`
}

func jdAnalysisSchema() *structured.Schema {
	return structured.Object(
		"Structured analysis of a job description",
		map[string]*structured.Schema{
			"role":             structured.String("The job title or role being applied for"),
			"required_skills":  structured.Array("List of required skills mentioned in the job description", structured.String("")),
			"responsibilities": structured.Array("Key responsibilities listed in the job description", structured.String("")),
			"tone":             structured.String("Overall tone of the job description: formal, casual, technical, startup-like etc."),
			"experience_level": structured.String("Expected experience level: junior, mid, senior, lead etc."),
			"keywords":         structured.Array("Important keywords to use in the cover letter and answers", structured.String("")),
		},
	)
}

func qaListSchema() *structured.Schema {
	pair := structured.Object(
		"A single interview question with a personalized suggested answer",
		map[string]*structured.Schema{
			"question": structured.String("The interview question"),
			"category": {
				Type:        structured.TypeString,
				Description: "Category of the question",
				Enum:        []any{"role-specific", "behavioral", "situational", "gap-related"},
			},
			"suggested_answer": structured.String("Personalized suggested answer based on the applicant's CV"),
		},
	)
	return structured.Object(
		"Full list of interview Q&A pairs",
		map[string]*structured.Schema{
			"qa_pairs": structured.Array("List of interview questions with suggested answers", pair),
		},
	)
}

func gapReportSchema() *structured.Schema {
	gap := structured.Object(
		"A single identified gap between CV and job requirements",
		map[string]*structured.Schema{
			"gap": structured.String("The specific skill or experience gap identified"),
			"severity": {
				Type:        structured.TypeString,
				Description: "Severity level of the gap",
				Enum:        []any{"critical", "moderate", "minor"},
			},
			"advice": structured.String("Specific advice on how to address or handle this gap"),
		},
	)
	return structured.Object(
		"Full gap report comparing CV against job requirements",
		map[string]*structured.Schema{
			"gaps": structured.Array("List of identified gaps", gap),
			"match_score": {
				Type:        structured.TypeInteger,
				Description: "Overall match score between CV and job requirements out of 10",
				Minimum:     structured.Float(1),
				Maximum:     structured.Float(10),
			},
			"overall_assessment": structured.String("One sentence overall assessment of the application strength"),
		},
	)
}
