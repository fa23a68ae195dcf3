package model

// DefaultConfidence is the confidence a fresh draft starts with.
const DefaultConfidence = 50

// ResponseDraft is the in-progress answer for exactly one question
// occurrence. A draft is discarded, never reused, the moment the active
// question index changes.
type ResponseDraft struct {
	QuestionID     string               `json:"question_id"`
	SelectedOption int                  `json:"selected_option"` // -1 = none
	Code           string               `json:"code,omitempty"`
	Confidence     int                  `json:"confidence"`
	Reasoning      string               `json:"reasoning"`
	Submitted      bool                 `json:"submitted"`
	RunResult      *CodeExecutionResult `json:"run_result,omitempty"`
}

// NewResponseDraft creates a fresh draft for a question. Coding
// questions start from the starter code buffer.
func NewResponseDraft(q *Question) *ResponseDraft {
	d := &ResponseDraft{
		QuestionID:     q.ID,
		SelectedOption: -1,
		Confidence:     DefaultConfidence,
	}
	if q.IsCode() {
		d.Code = q.StarterCode
	}
	return d
}

// CanSubmit reports whether the draft satisfies the submission gate:
// a selection for MCQ, an execution result (pass or fail) for code.
func (d *ResponseDraft) CanSubmit(q *Question) bool {
	if d.Submitted {
		return false
	}
	if q.IsCode() {
		return d.RunResult != nil
	}
	return d.SelectedOption >= 0 && d.SelectedOption < len(q.Options)
}
