package pipeline

import (
	"fmt"
	"strings"

	"github.com/careerflow/careerflow/workflow"
)

// Generation temperatures: extraction and gap analysis are deterministic,
// writing tasks get slight variety.
const (
	tempExtraction float32 = 0
	tempWriting    float32 = 0.4
)

const jdSystemPrompt = `You are an expert job description analyzer.
Your job is to extract structured information from job descriptions accurately.
Be precise, concise, and extract only what is explicitly stated or strongly implied.
Do not hallucinate skills or responsibilities not present in the job description.`

func jdUserPrompt(jobDescription string) string {
	return fmt.Sprintf("Analyze the following job description and extract structured information:\n\n%s", jobDescription)
}

func coverLetterSystemPrompt(keywords []string) string {
	return fmt.Sprintf(`You are an expert cover letter writer with 10+ years of hiring experience.
You write compelling, personalized cover letters that get interviews.

Rules:
- Always open with exactly "Hi there,"
- Always maintain professional tone throughout
- Be specific and concise. Maximum 250 words total
- Always close with "Best regards," or "Sincerely,"
- Do NOT use generic phrases like "I am writing to apply for..."
- Do NOT fabricate experience not present in the CV
- Naturally weave in these keywords: %s
- Keep it to exactly 3 paragraphs, concise and impactful
- End with a confident, specific call to action`, strings.Join(keywords, ", "))
}

func coverLetterFreshPrompt(jd *workflow.JDAnalysis, cvText string) string {
	return fmt.Sprintf(`Write a personalized cover letter for the following:

JOB ROLE: %s
REQUIRED SKILLS: %s
KEY RESPONSIBILITIES:
%s
EXPERIENCE LEVEL: %s

APPLICANT CV:
%s

Write a compelling cover letter that highlights relevant experience
and directly addresses the role requirements.`,
		roleOf(jd),
		strings.Join(skillsOf(jd), ", "),
		strings.Join(responsibilitiesOf(jd), "\n"),
		experienceOf(jd),
		cvText,
	)
}

func coverLetterRegenPrompt(jd *workflow.JDAnalysis, cvText, previousDraft, feedback string) string {
	return fmt.Sprintf(`Here is the previously generated cover letter and the user's feedback.
Rewrite the cover letter incorporating the feedback precisely.

PREVIOUS COVER LETTER:
%s

USER FEEDBACK:
%s

JOB ROLE: %s
REQUIRED SKILLS: %s
EXPERIENCE LEVEL: %s

APPLICANT CV:
%s

Write an improved cover letter based on the feedback above.`,
		previousDraft,
		feedback,
		roleOf(jd),
		strings.Join(skillsOf(jd), ", "),
		experienceOf(jd),
		cvText,
	)
}

func interviewSystemPrompt(role string) string {
	return fmt.Sprintf(`You are an expert interview coach with deep knowledge of hiring processes.
You generate realistic, role-specific interview questions and personalized answers.

Rules:
- Questions must be realistic and actually asked in interviews for: %s
- Suggested answers must be grounded in the applicant's actual CV, with no fabrication
- Cover all categories: role-specific, behavioral, situational, gap-related
- Behavioral questions should follow STAR format hints in suggested answers
- Suggested answers should be 3-5 sentences, specific and confident`, role)
}

func interviewFirstPrompt(jd *workflow.JDAnalysis, cvText, coverLetterFinal string, quota int, split [4]int) string {
	return fmt.Sprintf(`Generate exactly %d interview questions with personalized suggested answers.

Distribution:
- %d role-specific questions (based on required skills and responsibilities)
- %d behavioral questions (based on CV experience, STAR format hints)
- %d situational questions (hypothetical scenarios for this role)
- %d gap-related questions (areas where CV may not fully match the job description)

JOB ROLE: %s
REQUIRED SKILLS: %s
KEY RESPONSIBILITIES:
%s
EXPERIENCE LEVEL: %s

APPLICANT CV:
%s

APPROVED COVER LETTER:
%s

Ground every suggested answer in the applicant's actual CV content.`,
		quota, split[0], split[1], split[2], split[3],
		roleOf(jd),
		strings.Join(skillsOf(jd), ", "),
		strings.Join(responsibilitiesOf(jd), "\n"),
		experienceOf(jd),
		cvText,
		coverLetterFinal,
	)
}

func interviewFollowupPrompt(jd *workflow.JDAnalysis, cvText, coverLetterFinal, feedback string, existing []workflow.QAPair) string {
	var sb strings.Builder
	for _, qa := range existing {
		fmt.Fprintf(&sb, "- [%s] %s\n", qa.Category, qa.Question)
	}
	return fmt.Sprintf(`The applicant already has these interview questions generated:
%s
USER REQUEST FOR MORE:
%s

Generate ADDITIONAL questions based on the user's request.
Do not repeat questions already generated.

JOB ROLE: %s
REQUIRED SKILLS: %s
EXPERIENCE LEVEL: %s

APPLICANT CV:
%s

APPROVED COVER LETTER:
%s`,
		sb.String(),
		feedback,
		roleOf(jd),
		strings.Join(skillsOf(jd), ", "),
		experienceOf(jd),
		cvText,
		coverLetterFinal,
	)
}

const gapSystemPrompt = `You are a brutally honest but constructive career advisor.
Your job is to compare a CV against job requirements and identify gaps.

Rules:
- Only flag gaps that are genuinely missing or weak in the CV
- Do NOT fabricate gaps that don't exist
- Be specific: name the exact skill or experience missing
- Severity: critical = dealbreaker, moderate = noticeable, minor = nice to have
- Advice must be actionable and interview-focused
- Match score: 10 = perfect match, 1 = very poor match
- Be honest but constructive, this helps the applicant prepare`

func gapUserPrompt(jd *workflow.JDAnalysis, cvText string) string {
	return fmt.Sprintf(`Compare this applicant's CV against the job requirements and identify gaps.

JOB ROLE: %s
EXPERIENCE LEVEL REQUIRED: %s
REQUIRED SKILLS: %s
KEY RESPONSIBILITIES: %s
IMPORTANT KEYWORDS: %s

APPLICANT CV:
%s

Identify all gaps, assign severity, provide actionable advice for each.
Give an honest match score and overall assessment.`,
		roleOf(jd),
		experienceOf(jd),
		strings.Join(skillsOf(jd), ", "),
		strings.Join(responsibilitiesOf(jd), "\n"),
		strings.Join(keywordsOf(jd), ", "),
		cvText,
	)
}

// Default-on-read accessors: steps never require jd_analysis to pre-exist.

func roleOf(jd *workflow.JDAnalysis) string {
	if jd == nil || jd.Role == "" {
		return "the role"
	}
	return jd.Role
}

func experienceOf(jd *workflow.JDAnalysis) string {
	if jd == nil {
		return ""
	}
	return jd.ExperienceLevel
}

func skillsOf(jd *workflow.JDAnalysis) []string {
	if jd == nil {
		return nil
	}
	return jd.RequiredSkills
}

func responsibilitiesOf(jd *workflow.JDAnalysis) []string {
	if jd == nil {
		return nil
	}
	return jd.Responsibilities
}

func keywordsOf(jd *workflow.JDAnalysis) []string {
	if jd == nil {
		return nil
	}
	return jd.Keywords
}
