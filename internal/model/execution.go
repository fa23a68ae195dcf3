package model

// TestStatus enumerates per-test executor outcomes.
type TestStatus string

const (
	TestStatusPassed TestStatus = "passed"
	TestStatusFailed TestStatus = "failed"
	TestStatusError  TestStatus = "error"
)

// TestResult is the executor's verdict on a single test case.
type TestResult struct {
	Status         TestStatus `json:"status"`
	Input          string     `json:"input"`
	ExpectedOutput string     `json:"expected_output"`
	ActualOutput   string     `json:"actual_output"`
	ErrorMessage   string     `json:"error_message,omitempty"`
	IsHidden       bool       `json:"is_hidden,omitempty"`
}

// CodeExecutionResult is produced by the external executor and consumed
// read-only. Compile/runtime errors arrive inside ErrorMessage fields;
// they never block retrying the run.
type CodeExecutionResult struct {
	AllPassed   bool         `json:"all_passed"`
	PassedCount int          `json:"passed_count"`
	TotalCount  int          `json:"total_count"`
	Results     []TestResult `json:"results"`
}

// CodeAnalysis is the advisory AI review of a failing solution.
type CodeAnalysis struct {
	Summary         string   `json:"summary"`
	Issues          []string `json:"issues"`
	Suggestions     []string `json:"suggestions"`
	Hints           []string `json:"hints"`
	CorrectApproach string   `json:"correct_approach,omitempty"`
}
