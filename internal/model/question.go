package model

// QuestionType distinguishes multiple-choice from coding questions.
type QuestionType string

const (
	QuestionTypeMCQ  QuestionType = "mcq"
	QuestionTypeCode QuestionType = "code"
)

// Question is one quiz question. Immutable once fetched; owned by the
// question cache, keyed by index, never mutated after insertion.
type Question struct {
	ID            string       `json:"id"`
	Prompt        string       `json:"prompt"`
	QuestionType  QuestionType `json:"question_type"`
	Options       []string     `json:"options,omitempty"`
	CorrectAnswer string       `json:"correct_answer,omitempty"`
	Explanation   string       `json:"explanation,omitempty"`

	// Coding questions only.
	StarterCode string     `json:"starter_code,omitempty"`
	TestCases   []TestCase `json:"test_cases,omitempty"`
	Language    string     `json:"language,omitempty"`
}

// TestCase is one executor test for a coding question.
type TestCase struct {
	Input          string `json:"input"`
	ExpectedOutput string `json:"expected_output"`
	IsHidden       bool   `json:"is_hidden,omitempty"`
}

// IsCode reports whether the question takes the coding path.
// The explicit tag is authoritative; the starter-code fallback covers
// legacy payloads that arrive untagged.
func (q *Question) IsCode() bool {
	if q.QuestionType != "" {
		return q.QuestionType == QuestionTypeCode
	}
	return q.StarterCode != ""
}

// OptionLetter encodes a zero-based option index as the wire answer
// ("A", "B", "C", ...). Returns "" for a negative index.
func OptionLetter(index int) string {
	if index < 0 {
		return ""
	}
	return string(rune('A' + index))
}
