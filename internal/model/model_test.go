package model

import "testing"

func TestOptionLetter(t *testing.T) {
	cases := []struct {
		index int
		want  string
	}{
		{0, "A"},
		{1, "B"},
		{2, "C"},
		{3, "D"},
		{25, "Z"},
		{-1, ""},
	}
	for _, tc := range cases {
		if got := OptionLetter(tc.index); got != tc.want {
			t.Errorf("OptionLetter(%d) = %q, want %q", tc.index, got, tc.want)
		}
	}
}

func TestQuestionIsCode(t *testing.T) {
	cases := []struct {
		name string
		q    Question
		want bool
	}{
		{"tagged code", Question{QuestionType: QuestionTypeCode}, true},
		{"tagged mcq", Question{QuestionType: QuestionTypeMCQ}, false},
		// The tag wins even when the payload carries starter code.
		{"tagged mcq with starter code", Question{QuestionType: QuestionTypeMCQ, StarterCode: "x"}, false},
		{"untagged with starter code", Question{StarterCode: "x"}, true},
		{"untagged without starter code", Question{}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.q.IsCode(); got != tc.want {
				t.Errorf("IsCode() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestNewResponseDraft(t *testing.T) {
	mcq := &Question{ID: "q1", QuestionType: QuestionTypeMCQ, Options: []string{"a", "b"}}
	d := NewResponseDraft(mcq)
	if d.SelectedOption != -1 {
		t.Errorf("fresh draft selection = %d, want -1", d.SelectedOption)
	}
	if d.Confidence != DefaultConfidence {
		t.Errorf("fresh draft confidence = %d, want %d", d.Confidence, DefaultConfidence)
	}

	code := &Question{ID: "q2", QuestionType: QuestionTypeCode, StarterCode: "def solve():\n"}
	d = NewResponseDraft(code)
	if d.Code != code.StarterCode {
		t.Errorf("code draft must start from the starter buffer, got %q", d.Code)
	}
}

func TestCanSubmit(t *testing.T) {
	mcq := &Question{QuestionType: QuestionTypeMCQ, Options: []string{"a", "b", "c"}}
	code := &Question{QuestionType: QuestionTypeCode}

	cases := []struct {
		name  string
		q     *Question
		draft ResponseDraft
		want  bool
	}{
		{"mcq no selection", mcq, ResponseDraft{SelectedOption: -1}, false},
		{"mcq valid selection", mcq, ResponseDraft{SelectedOption: 1}, true},
		{"mcq selection out of range", mcq, ResponseDraft{SelectedOption: 5}, false},
		{"mcq already submitted", mcq, ResponseDraft{SelectedOption: 1, Submitted: true}, false},
		{"code without run", code, ResponseDraft{}, false},
		{"code with passing run", code, ResponseDraft{RunResult: &CodeExecutionResult{AllPassed: true}}, true},
		// Submitting a failing solution is allowed; the gate only
		// requires that a run happened.
		{"code with failing run", code, ResponseDraft{RunResult: &CodeExecutionResult{PassedCount: 1, TotalCount: 3}}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.draft.CanSubmit(tc.q); got != tc.want {
				t.Errorf("CanSubmit() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestSubmissionValidate(t *testing.T) {
	cases := []struct {
		name    string
		sub     Submission
		wantErr bool
	}{
		{
			"valid mcq",
			Submission{QuestionID: "q1", Type: SubmissionTypeMCQ, Mcq: &McqSubmission{Answer: "B", Confidence: 70}},
			false,
		},
		{
			"valid code",
			Submission{QuestionID: "q1", Type: SubmissionTypeCode, Code: &CodeSubmission{PassedCount: 2, TotalCount: 5}},
			false,
		},
		{
			"missing question id",
			Submission{Type: SubmissionTypeMCQ, Mcq: &McqSubmission{Answer: "A"}},
			true,
		},
		{
			"mcq missing variant",
			Submission{QuestionID: "q1", Type: SubmissionTypeMCQ},
			true,
		},
		{
			"mcq with both variants",
			Submission{QuestionID: "q1", Type: SubmissionTypeMCQ, Mcq: &McqSubmission{Answer: "A"}, Code: &CodeSubmission{}},
			true,
		},
		{
			"mcq confidence out of range",
			Submission{QuestionID: "q1", Type: SubmissionTypeMCQ, Mcq: &McqSubmission{Answer: "A", Confidence: 130}},
			true,
		},
		{
			"code inconsistent counts",
			Submission{QuestionID: "q1", Type: SubmissionTypeCode, Code: &CodeSubmission{PassedCount: 7, TotalCount: 5}},
			true,
		},
		{
			"unknown type",
			Submission{QuestionID: "q1", Type: "essay"},
			true,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.sub.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestCodeSubmissionScorePercent(t *testing.T) {
	cases := []struct {
		passed, total, want int
	}{
		{5, 5, 100},
		{3, 5, 60},
		{0, 5, 0},
		{0, 0, 0},
		{1, 3, 33},
	}
	for _, tc := range cases {
		c := CodeSubmission{PassedCount: tc.passed, TotalCount: tc.total}
		if got := c.ScorePercent(); got != tc.want {
			t.Errorf("ScorePercent(%d/%d) = %d, want %d", tc.passed, tc.total, got, tc.want)
		}
	}
}

func TestQuestionProgressGet(t *testing.T) {
	p := QuestionProgress{0: ProgressPassed, 2: ProgressAttempted}
	if got := p.Get(0); got != ProgressPassed {
		t.Errorf("Get(0) = %s, want passed", got)
	}
	if got := p.Get(1); got != ProgressPending {
		t.Errorf("Get(1) = %s, want pending default", got)
	}
}

func TestPhasePredicates(t *testing.T) {
	editable := map[Phase]bool{
		PhaseLoading:    false,
		PhaseWaiting:    false,
		PhaseVoting:     true,
		PhaseDiscussion: false,
		PhaseRevote:     true,
		PhaseResult:     false,
		PhaseCompleted:  false,
	}
	for phase, want := range editable {
		if got := phase.Editable(); got != want {
			t.Errorf("%s.Editable() = %v, want %v", phase, got, want)
		}
	}
	if !PhaseCompleted.Terminal() {
		t.Error("completed must be terminal")
	}
	if PhaseResult.Terminal() {
		t.Error("result is not terminal; the next question may still arrive")
	}
}
