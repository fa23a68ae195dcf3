package model

// Phase is the participant-local sub-state within one question occurrence.
// The server only knows about session-level status; voting, discussion,
// revote and result exist purely on this side.
type Phase string

const (
	PhaseLoading    Phase = "loading"
	PhaseWaiting    Phase = "waiting"
	PhaseVoting     Phase = "voting"
	PhaseDiscussion Phase = "discussion"
	PhaseRevote     Phase = "revote"
	PhaseResult     Phase = "result"
	PhaseCompleted  Phase = "completed"
)

// Editable reports whether a draft may still be modified in this phase.
// Revote is editable but distinct from voting: the UI offers
// "submit final answer" semantics there.
func (p Phase) Editable() bool {
	return p == PhaseVoting || p == PhaseRevote
}

// Terminal reports whether the phase permits no further transitions.
func (p Phase) Terminal() bool {
	return p == PhaseCompleted
}
