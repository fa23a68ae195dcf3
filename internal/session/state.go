package session

import (
	"github.com/stemsi/kuisku-participant/internal/model"
)

// sessionState is all mutable per-participant session state. Owned
// exclusively by the runtime loop goroutine; nothing outside the loop
// may touch it.
type sessionState struct {
	phase  model.Phase
	pacing model.PacingMode

	// Last applied server status. pollIndex is the last index applied
	// from the poller, monotonic within one session identity; it is the
	// stale-response guard.
	status    *model.SessionStatus
	sessionID string
	pollIndex int

	// Currently displayed question occurrence.
	currentIndex int
	current      *model.Question
	draft        *model.ResponseDraft
	wasCorrect   *bool

	thread     *model.DiscussionThread
	peerTyping bool
	analysis   *model.CodeAnalysis
	progress   model.QuestionProgress

	lastSubmitError string
	lastRunError    string

	// In-flight guards: the UI control that triggered a call is
	// disabled until that call resolves.
	fetchingIndex     int // -1 when no fetch in flight
	submitInFlight    bool
	runInFlight       bool
	analysisInFlight  bool
	discussionOpening bool

	firstQuestionLoaded bool
	preloadStarted      bool
}

func newSessionState(pacing model.PacingMode) *sessionState {
	return &sessionState{
		phase:         model.PhaseLoading,
		pacing:        pacing,
		pollIndex:     -1,
		currentIndex:  -1,
		fetchingIndex: -1,
		progress:      make(model.QuestionProgress),
	}
}

// QuestionView is the sanitized question exposed to the UI.
// CorrectAnswer and Explanation are withheld until the result phase.
type QuestionView struct {
	ID            string             `json:"id"`
	Prompt        string             `json:"prompt"`
	QuestionType  model.QuestionType `json:"question_type"`
	Options       []string           `json:"options,omitempty"`
	StarterCode   string             `json:"starter_code,omitempty"`
	TestCases     []model.TestCase   `json:"test_cases,omitempty"`
	Language      string             `json:"language,omitempty"`
	CorrectAnswer string             `json:"correct_answer,omitempty"`
	Explanation   string             `json:"explanation,omitempty"`
}

// Snapshot is the single source of UI truth, published on every state
// change and returned by the state endpoint.
type Snapshot struct {
	Phase         model.Phase                     `json:"phase"`
	Pacing        model.PacingMode                `json:"pacing"`
	Session       *model.SessionStatus            `json:"session,omitempty"`
	QuestionIndex int                             `json:"question_index"`
	Question      *QuestionView                   `json:"question,omitempty"`
	Draft         *model.ResponseDraft            `json:"draft,omitempty"`
	WasCorrect    *bool                           `json:"was_correct,omitempty"`
	Thread        *model.DiscussionThread         `json:"thread,omitempty"`
	PeerTyping    bool                            `json:"peer_typing,omitempty"`
	Analysis      *model.CodeAnalysis             `json:"analysis,omitempty"`
	Progress      map[int]model.ProgressState     `json:"progress"`
	InFlight      map[string]bool                 `json:"in_flight,omitempty"`
	LastError     string                          `json:"last_error,omitempty"`
	LastRunError  string                          `json:"last_run_error,omitempty"`
}

// snapshot builds an immutable view of the state for publication.
func (s *sessionState) snapshot() *Snapshot {
	snap := &Snapshot{
		Phase:         s.phase,
		Pacing:        s.pacing,
		Session:       s.status,
		QuestionIndex: s.currentIndex,
		WasCorrect:    s.wasCorrect,
		PeerTyping:    s.peerTyping,
		Analysis:      s.analysis,
		LastError:     s.lastSubmitError,
		LastRunError:  s.lastRunError,
	}

	if s.current != nil {
		snap.Question = s.questionView()
	}
	if s.draft != nil {
		draft := *s.draft
		snap.Draft = &draft
	}
	if s.thread != nil {
		thread := *s.thread
		thread.Messages = append([]model.DiscussionMessage(nil), s.thread.Messages...)
		snap.Thread = &thread
	}

	snap.Progress = make(map[int]model.ProgressState, len(s.progress))
	for k, v := range s.progress {
		snap.Progress[k] = v
	}

	inFlight := map[string]bool{}
	if s.submitInFlight {
		inFlight["submit"] = true
	}
	if s.runInFlight {
		inFlight["run"] = true
	}
	if s.analysisInFlight {
		inFlight["analysis"] = true
	}
	if s.discussionOpening {
		inFlight["discussion"] = true
	}
	if s.fetchingIndex >= 0 {
		inFlight["question"] = true
	}
	if len(inFlight) > 0 {
		snap.InFlight = inFlight
	}

	return snap
}

func (s *sessionState) questionView() *QuestionView {
	view := &QuestionView{
		ID:           s.current.ID,
		Prompt:       s.current.Prompt,
		QuestionType: s.current.QuestionType,
		Options:      s.current.Options,
		StarterCode:  s.current.StarterCode,
		TestCases:    visibleTests(s.current.TestCases),
		Language:     s.current.Language,
	}

	// The authoritative grade lives server-side; locally the answer key
	// is revealed only once the occurrence has reached its result.
	if s.phase == model.PhaseResult || s.phase == model.PhaseCompleted {
		view.CorrectAnswer = s.current.CorrectAnswer
		view.Explanation = s.current.Explanation
	}
	return view
}

// visibleTests strips hidden test expectations from the UI payload.
func visibleTests(tests []model.TestCase) []model.TestCase {
	if len(tests) == 0 {
		return nil
	}
	out := make([]model.TestCase, 0, len(tests))
	for _, tc := range tests {
		if tc.IsHidden {
			out = append(out, model.TestCase{IsHidden: true})
			continue
		}
		out = append(out, tc)
	}
	return out
}
