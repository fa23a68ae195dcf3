package model

import "fmt"

// SubmissionType tags the submission union.
type SubmissionType string

const (
	SubmissionTypeMCQ  SubmissionType = "mcq"
	SubmissionTypeCode SubmissionType = "code"
)

// Submission is a tagged union of the two answer variants. Exactly one
// of Mcq/Code is set, matching Type. The flat wire shape the backend
// expects is produced only by the backend client.
type Submission struct {
	QuestionID  string          `json:"question_id"`
	StudentName string          `json:"student_name"`
	Type        SubmissionType  `json:"type"`
	Mcq         *McqSubmission  `json:"mcq,omitempty"`
	Code        *CodeSubmission `json:"code,omitempty"`
}

// McqSubmission carries a letter-encoded option answer.
type McqSubmission struct {
	Answer     string `json:"answer"` // "A", "B", ...
	Confidence int    `json:"confidence"`
	Reasoning  string `json:"reasoning"`
}

// CodeSubmission carries the outcome of the latest executor run.
// Students may submit failing solutions; AllPassed only selects the
// "passed" vs "partial" wire encoding.
type CodeSubmission struct {
	AllPassed   bool `json:"all_passed"`
	PassedCount int  `json:"passed_count"`
	TotalCount  int  `json:"total_count"`
}

// ScorePercent is the 0-100 share of passing tests, rounded down.
func (c *CodeSubmission) ScorePercent() int {
	if c.TotalCount == 0 {
		return 0
	}
	return c.PassedCount * 100 / c.TotalCount
}

// Validate checks union consistency before the submission leaves the
// gateway.
func (s *Submission) Validate() error {
	if s.QuestionID == "" {
		return fmt.Errorf("submission missing question id")
	}
	switch s.Type {
	case SubmissionTypeMCQ:
		if s.Mcq == nil || s.Code != nil {
			return fmt.Errorf("mcq submission must carry exactly the mcq variant")
		}
		if s.Mcq.Answer == "" {
			return fmt.Errorf("mcq submission missing answer")
		}
		if s.Mcq.Confidence < 0 || s.Mcq.Confidence > 100 {
			return fmt.Errorf("confidence %d out of range", s.Mcq.Confidence)
		}
	case SubmissionTypeCode:
		if s.Code == nil || s.Mcq != nil {
			return fmt.Errorf("code submission must carry exactly the code variant")
		}
		if s.Code.PassedCount < 0 || s.Code.TotalCount < s.Code.PassedCount {
			return fmt.Errorf("inconsistent pass counts %d/%d", s.Code.PassedCount, s.Code.TotalCount)
		}
	default:
		return fmt.Errorf("unknown submission type %q", s.Type)
	}
	return nil
}
