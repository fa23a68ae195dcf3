package model

// ProgressState is the navigator status of one question index.
type ProgressState string

const (
	ProgressPending   ProgressState = "pending"
	ProgressAttempted ProgressState = "attempted"
	ProgressPassed    ProgressState = "passed"
)

// QuestionProgress maps question index to navigator status. Local-only,
// used by the free-navigation UI; reset only when the session identity
// changes, never on navigation.
type QuestionProgress map[int]ProgressState

// Get returns the state for an index, defaulting to pending.
func (p QuestionProgress) Get(index int) ProgressState {
	if s, ok := p[index]; ok {
		return s
	}
	return ProgressPending
}
