package session

import "errors"

// Errors the handlers translate into API error codes. Poll failures
// never appear here: transient ones are absorbed at the poller
// boundary, terminal ones drive the completed phase instead.
var (
	ErrRuntimeClosed    = errors.New("session runtime closed")
	ErrSessionCompleted = errors.New("session already completed")
	ErrPhaseMismatch    = errors.New("action not available in current phase")
	ErrQuestionNotReady = errors.New("question not loaded yet")
	ErrAlreadySubmitted = errors.New("draft already submitted")
	ErrSubmissionGated  = errors.New("submission gate not satisfied")
	ErrNavigationDenied = errors.New("navigation not allowed")
	ErrActionInFlight   = errors.New("previous action still in flight")
	ErrNotCodeQuestion  = errors.New("not a code question")
	ErrAnalysisDenied   = errors.New("analysis only available after a failed run")
	ErrInvalidOption    = errors.New("selected option out of range")
)
