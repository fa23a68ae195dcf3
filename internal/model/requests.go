package model

// JoinRequest is the payload for a participant entering the gateway.
// Identity is an externally persisted display name; the gateway fails
// closed without it.
type JoinRequest struct {
	DisplayName string `json:"display_name" binding:"required,min=1,max=100"`
	Pacing      string `json:"pacing" binding:"omitempty,oneof=server student"`
}

// SelectOptionRequest picks one MCQ option for the current draft.
type SelectOptionRequest struct {
	OptionIndex *int `json:"option_index" binding:"required,min=0,max=25"`
}

// ConfidenceRequest sets the draft's stated confidence.
type ConfidenceRequest struct {
	Confidence *int `json:"confidence" binding:"required,min=0,max=100"`
}

// ReasoningRequest sets the draft's free-text reasoning.
type ReasoningRequest struct {
	Reasoning string `json:"reasoning" binding:"max=4000"`
}

// CodeBufferRequest replaces the draft's code buffer.
type CodeBufferRequest struct {
	Code string `json:"code" binding:"required,max=65536"`
}

// DiscussionMessageRequest appends a student message to the thread.
type DiscussionMessageRequest struct {
	Content string `json:"content" binding:"required,min=1,max=2000"`
}

// NavigateRequest jumps to a question index (student-paced mode only).
type NavigateRequest struct {
	Index *int `json:"index" binding:"required,min=0"`
}
