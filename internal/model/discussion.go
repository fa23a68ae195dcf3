package model

// DiscussionRole labels who wrote a discussion message.
type DiscussionRole string

const (
	RoleStudent DiscussionRole = "student"
	RolePeer    DiscussionRole = "peer"
)

// DiscussionMessage is one entry in the simulated peer exchange.
type DiscussionMessage struct {
	Role    DiscussionRole `json:"role"`
	Content string         `json:"content"`
}

// DiscussionThread is the append-only simulated peer discussion for one
// question occurrence. Created after correctness is known, discarded on
// question change; messages are never edited or retracted.
type DiscussionThread struct {
	QuestionID string              `json:"question_id"`
	PeerName   string              `json:"peer_name"`
	Insight    string              `json:"insight,omitempty"`
	Messages   []DiscussionMessage `json:"messages"`
}

// Append adds a message to the thread.
func (t *DiscussionThread) Append(role DiscussionRole, content string) {
	t.Messages = append(t.Messages, DiscussionMessage{Role: role, Content: content})
}
