package model

// SessionState enumerates server-reported quiz session states.
type SessionState string

const (
	SessionStateNone      SessionState = "no_session"
	SessionStateWaiting   SessionState = "waiting"
	SessionStateActive    SessionState = "active"
	SessionStateCompleted SessionState = "completed"
)

// SessionStatus is the polled, server-owned view of the shared session.
// CurrentQuestionIndex is monotonically non-decreasing for the lifetime
// of one session as observed by this client; it restarts only when
// SessionID changes.
type SessionStatus struct {
	SessionID            string       `json:"session_id"`
	Status               SessionState `json:"status"`
	CurrentQuestionIndex int          `json:"current_question_index"`
	TotalQuestions       int          `json:"total_questions"`
}

// PacingMode selects how question advancement is driven.
type PacingMode string

const (
	// PacingServer: the poller is authoritative; a new server index
	// forces fetch + draft reset even mid-discussion.
	PacingServer PacingMode = "server"
	// PacingStudent: after the first question loads, poll-driven index
	// changes are ignored and the student navigates explicitly.
	PacingStudent PacingMode = "student"
)
