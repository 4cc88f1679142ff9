package workflow

// JDAnalysis is the structured result of job-description extraction.
type JDAnalysis struct {
	Role             string   `json:"role"`
	RequiredSkills   []string `json:"required_skills"`
	Responsibilities []string `json:"responsibilities"`
	Tone             string   `json:"tone"`
	ExperienceLevel  string   `json:"experience_level"`
	Keywords         []string `json:"keywords"`
}

// QAPair is one interview question with a suggested answer.
type QAPair struct {
	Question        string `json:"question"`
	Category        string `json:"category"`
	SuggestedAnswer string `json:"suggested_answer"`
}

// GapItem is one identified shortfall between the CV and the job
// requirements.
type GapItem struct {
	Gap      string `json:"gap"`
	Severity string `json:"severity"` // critical, moderate, minor
	Advice   string `json:"advice"`
}

// GapReport is the structured result of gap analysis.
type GapReport struct {
	Gaps              []GapItem `json:"gaps"`
	MatchScore        int       `json:"match_score"` // 1-10
	OverallAssessment string    `json:"overall_assessment"`
}

// FinalOutput is the assembled deliverable of a completed run.
type FinalOutput struct {
	CoverLetter FinalCoverLetter `json:"cover_letter"`
	InterviewQA FinalInterviewQA `json:"interview_qa"`
	GapReport   FinalGapReport   `json:"gap_report"`
	Meta        FinalMeta        `json:"meta"`
}

type FinalCoverLetter struct {
	Title   string `json:"title"`
	Role    string `json:"role"`
	Content string `json:"content"`
}

type FinalInterviewQA struct {
	Title          string   `json:"title"`
	TotalQuestions int      `json:"total_questions"`
	QAPairs        []QAPair `json:"qa_pairs"`
}

type FinalGapItem struct {
	Gap          string `json:"gap"`
	Severity     string `json:"severity"`
	SeverityIcon string `json:"severity_icon"`
	Advice       string `json:"advice"`
}

type FinalGapReport struct {
	Title             string         `json:"title"`
	MatchScore        int            `json:"match_score"`
	OverallAssessment string         `json:"overall_assessment"`
	Gaps              []FinalGapItem `json:"gaps"`
}

type FinalMeta struct {
	Role            string `json:"role"`
	ExperienceLevel string `json:"experience_level"`
	TotalQuestions  int    `json:"total_questions"`
	TotalGaps       int    `json:"total_gaps"`
	MatchScore      int    `json:"match_score"`
}

// State is the shared record threaded through every step of a run. Fields
// accumulate monotonically: steps add or overwrite, never delete. Absent
// fields read as zero values.
type State struct {
	JobDescription   string       `json:"job_description,omitempty"`
	CVFilePath       string       `json:"cv_file_path,omitempty"`
	CVRawText        string       `json:"cv_raw_text,omitempty"`
	JDAnalysis       *JDAnalysis  `json:"jd_analysis,omitempty"`
	CoverLetterDraft string       `json:"cover_letter_draft,omitempty"`
	HITL1Feedback    string       `json:"hitl_1_feedback,omitempty"`
	CoverLetterFinal string       `json:"cover_letter_final,omitempty"`
	InterviewQA      []QAPair     `json:"interview_qa,omitempty"`
	HITL2Feedback    string       `json:"hitl_2_feedback,omitempty"`
	QAFlags          *GapReport   `json:"qa_flags,omitempty"`
	FinalOutput      *FinalOutput `json:"final_output,omitempty"`
}

// Update is a partial State: only non-nil fields are merged. Each step
// returns an Update containing exactly the fields it owns.
type Update struct {
	CVRawText        *string      `json:"cv_raw_text,omitempty"`
	JDAnalysis       *JDAnalysis  `json:"jd_analysis,omitempty"`
	CoverLetterDraft *string      `json:"cover_letter_draft,omitempty"`
	HITL1Feedback    *string      `json:"hitl_1_feedback,omitempty"`
	CoverLetterFinal *string      `json:"cover_letter_final,omitempty"`
	InterviewQA      []QAPair     `json:"interview_qa,omitempty"`
	HITL2Feedback    *string      `json:"hitl_2_feedback,omitempty"`
	QAFlags          *GapReport   `json:"qa_flags,omitempty"`
	FinalOutput      *FinalOutput `json:"final_output,omitempty"`
}

// Merge applies an update to the state. Later writes to the same field win;
// nothing is ever removed. InterviewQA is replaced wholesale: append
// semantics on follow-up rounds are the producing step's responsibility, so
// the merged list is always the full intended value.
func (s *State) Merge(u *Update) {
	if u == nil {
		return
	}
	if u.CVRawText != nil {
		s.CVRawText = *u.CVRawText
	}
	if u.JDAnalysis != nil {
		s.JDAnalysis = u.JDAnalysis
	}
	if u.CoverLetterDraft != nil {
		s.CoverLetterDraft = *u.CoverLetterDraft
	}
	if u.HITL1Feedback != nil {
		s.HITL1Feedback = *u.HITL1Feedback
	}
	if u.CoverLetterFinal != nil {
		s.CoverLetterFinal = *u.CoverLetterFinal
	}
	if u.InterviewQA != nil {
		s.InterviewQA = u.InterviewQA
	}
	if u.HITL2Feedback != nil {
		s.HITL2Feedback = *u.HITL2Feedback
	}
	if u.QAFlags != nil {
		s.QAFlags = u.QAFlags
	}
	if u.FinalOutput != nil {
		s.FinalOutput = u.FinalOutput
	}
}

// Clone returns a deep copy so a failed step cannot leave a partially
// mutated state behind.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	out := *s
	if s.JDAnalysis != nil {
		jd := *s.JDAnalysis
		jd.RequiredSkills = append([]string(nil), s.JDAnalysis.RequiredSkills...)
		jd.Responsibilities = append([]string(nil), s.JDAnalysis.Responsibilities...)
		jd.Keywords = append([]string(nil), s.JDAnalysis.Keywords...)
		out.JDAnalysis = &jd
	}
	if s.InterviewQA != nil {
		out.InterviewQA = append([]QAPair(nil), s.InterviewQA...)
	}
	if s.QAFlags != nil {
		qa := *s.QAFlags
		qa.Gaps = append([]GapItem(nil), s.QAFlags.Gaps...)
		out.QAFlags = &qa
	}
	if s.FinalOutput != nil {
		fo := *s.FinalOutput
		fo.InterviewQA.QAPairs = append([]QAPair(nil), s.FinalOutput.InterviewQA.QAPairs...)
		fo.GapReport.Gaps = append([]FinalGapItem(nil), s.FinalOutput.GapReport.Gaps...)
		out.FinalOutput = &fo
	}
	return &out
}

// StrPtr is a convenience for building Updates.
func StrPtr(s string) *string { return &s }
