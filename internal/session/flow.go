package session

import (
	"errors"
	"fmt"
	"strings"

	"github.com/stemsi/kuisku-participant/internal/ai"
	"github.com/stemsi/kuisku-participant/internal/backend"
	"github.com/stemsi/kuisku-participant/internal/model"
)

// ─── Poller-driven flow ─────────────────────────────────────────────

func (r *Runtime) handlePoll(ev pollEvent, s *sessionState) {
	// No transition ever regresses from completed.
	if s.phase.Terminal() {
		return
	}

	if ev.err != nil {
		if errors.Is(ev.err, backend.ErrNoActiveSession) {
			r.complete(s)
			return
		}
		// Transient failure: preserve last known good state, retry on
		// the next tick. Never surfaced to the participant.
		r.log.Debug().Err(ev.err).Msg("Poll failed, keeping last known state")
		return
	}

	st := ev.status

	switch {
	case s.sessionID == "":
		s.sessionID = st.SessionID
		r.loadProgress(st.SessionID)
	case st.SessionID != s.sessionID:
		// Session identity changed: everything restarts, including the
		// progress map.
		r.log.Info().Str("session_id", st.SessionID).Msg("New session identity observed")
		r.resetForNewSession(s, st.SessionID)
	}

	// Poll responses are not guaranteed FIFO. The response's own
	// reported index is the only source of truth: one reporting an
	// older index than already applied is stale and must never
	// downgrade the phase.
	if st.CurrentQuestionIndex < s.pollIndex {
		r.log.Debug().Int("index", st.CurrentQuestionIndex).Int("applied", s.pollIndex).Msg("Stale poll response discarded")
		return
	}

	s.status = st

	switch st.Status {
	case model.SessionStateWaiting:
		if s.phase == model.PhaseLoading {
			s.phase = model.PhaseWaiting
		}

	case model.SessionStateCompleted:
		r.complete(s)

	case model.SessionStateActive:
		if r.cfg.Preload && !s.preloadStarted && st.TotalQuestions > 0 {
			s.preloadStarted = true
			go r.cache.Preload(r.ctx, st.TotalQuestions)
		}

		// Student-paced: after the first question, the poller only
		// tracks session-level transitions; the participant navigates.
		if s.pacing == model.PacingStudent && s.firstQuestionLoaded {
			return
		}

		index := st.CurrentQuestionIndex
		if index == s.pollIndex {
			// Idle tick: same index, no re-fetch, no draft reset.
			// Recover only if a previous load failed outright.
			if s.current == nil && s.fetchingIndex < 0 {
				r.beginLoad(s, index)
			}
			return
		}

		// The server may have advanced several questions between two
		// polls; fetch whatever index is now current.
		s.pollIndex = index
		r.beginLoad(s, index)
	}
}

// beginLoad discards the question occurrence state and fetches the
// question at index. The draft invariant: discarded, never reused, the
// moment the active index changes — even mid-discussion.
func (r *Runtime) beginLoad(s *sessionState, index int) {
	s.current = nil
	s.currentIndex = -1
	s.draft = nil
	s.wasCorrect = nil
	s.thread = nil
	s.peerTyping = false
	s.analysis = nil
	s.lastSubmitError = ""
	s.lastRunError = ""
	s.submitInFlight = false
	s.runInFlight = false
	s.analysisInFlight = false
	s.discussionOpening = false

	if s.firstQuestionLoaded {
		s.phase = model.PhaseLoading
	}
	s.fetchingIndex = index

	go func() {
		q, err := r.cache.Get(r.ctx, index)
		r.post(questionLoadedEvent{index: index, q: q, err: err})
	}()
}

func (r *Runtime) handleQuestionLoaded(ev questionLoadedEvent, s *sessionState) {
	if s.phase.Terminal() || ev.index != s.fetchingIndex {
		return
	}
	s.fetchingIndex = -1

	if ev.err != nil {
		// Transient: the next poll tick (or the participant navigating
		// again) re-triggers the load.
		r.log.Warn().Err(ev.err).Int("index", ev.index).Msg("Question load failed")
		return
	}

	s.currentIndex = ev.index
	s.current = ev.q
	s.draft = model.NewResponseDraft(ev.q)
	s.firstQuestionLoaded = true
	s.phase = model.PhaseVoting

	r.log.Debug().Int("index", ev.index).Str("question_id", ev.q.ID).Msg("Question active")
}

// complete drives the terminal phase: thread discarded, draft dropped,
// polling stopped for good.
func (r *Runtime) complete(s *sessionState) {
	if s.phase.Terminal() {
		return
	}
	s.phase = model.PhaseCompleted
	s.draft = nil
	s.thread = nil
	s.peerTyping = false
	s.fetchingIndex = -1
	r.pollCancel()
	r.log.Info().Msg("Session completed")
}

func (r *Runtime) resetForNewSession(s *sessionState, sessionID string) {
	s.sessionID = sessionID
	s.pollIndex = -1
	s.firstQuestionLoaded = false
	s.preloadStarted = false
	s.progress = make(model.QuestionProgress)
	s.phase = model.PhaseLoading
	s.current = nil
	s.currentIndex = -1
	s.draft = nil
	s.wasCorrect = nil
	s.thread = nil
	s.analysis = nil
	r.cache = NewQuestionCache(r.cfg.Backend, r.cfg.Log)
	r.loadProgress(sessionID)
}

func (r *Runtime) loadProgress(sessionID string) {
	if r.cfg.Progress == nil {
		return
	}
	go func() {
		progress, err := r.cfg.Progress.Load(r.ctx, r.cfg.ParticipantID, sessionID)
		if err != nil {
			r.log.Warn().Err(err).Msg("Progress load failed")
			return
		}
		if len(progress) > 0 {
			r.post(progressLoadedEvent{sessionID: sessionID, progress: progress})
		}
	}()
}

func (r *Runtime) handleProgressLoaded(ev progressLoadedEvent, s *sessionState) {
	if s.phase.Terminal() || ev.sessionID != s.sessionID {
		return
	}
	// Stored states win only where nothing happened locally yet.
	for index, state := range ev.progress {
		if _, ok := s.progress[index]; !ok {
			s.progress[index] = state
		}
	}
}

// ─── Draft composer ─────────────────────────────────────────────────

func (r *Runtime) selectOption(s *sessionState, index int) error {
	if err := r.editableDraft(s); err != nil {
		return err
	}
	if s.current.IsCode() {
		return ErrPhaseMismatch
	}
	if index < 0 || index >= len(s.current.Options) {
		return ErrInvalidOption
	}
	s.draft.SelectedOption = index
	s.lastSubmitError = ""
	return nil
}

func (r *Runtime) editDraft(s *sessionState, apply func(*model.ResponseDraft)) error {
	if err := r.editableDraft(s); err != nil {
		return err
	}
	apply(s.draft)
	return nil
}

func (r *Runtime) setCode(s *sessionState, code string) error {
	if err := r.editableDraft(s); err != nil {
		return err
	}
	if !s.current.IsCode() {
		return ErrNotCodeQuestion
	}
	s.draft.Code = code
	return nil
}

func (r *Runtime) editableDraft(s *sessionState) error {
	if s.current == nil || s.draft == nil {
		return ErrQuestionNotReady
	}
	if !s.phase.Editable() {
		return ErrPhaseMismatch
	}
	if s.draft.Submitted {
		return ErrAlreadySubmitted
	}
	if s.submitInFlight {
		return ErrActionInFlight
	}
	return nil
}

// ─── Submission gateway ─────────────────────────────────────────────

func (r *Runtime) submit(s *sessionState) error {
	if s.current == nil || s.draft == nil {
		return ErrQuestionNotReady
	}
	if !s.phase.Editable() {
		return ErrPhaseMismatch
	}
	// Precondition check, not a server-side dedupe assumption: once
	// submitted, a second trigger for the same occurrence is refused.
	if s.draft.Submitted {
		return ErrAlreadySubmitted
	}
	if s.submitInFlight {
		return ErrActionInFlight
	}
	if !s.draft.CanSubmit(s.current) {
		return ErrSubmissionGated
	}

	sub := &model.Submission{
		QuestionID:  s.current.ID,
		StudentName: r.cfg.DisplayName,
	}
	if s.current.IsCode() {
		run := s.draft.RunResult
		sub.Type = model.SubmissionTypeCode
		sub.Code = &model.CodeSubmission{
			AllPassed:   run.AllPassed,
			PassedCount: run.PassedCount,
			TotalCount:  run.TotalCount,
		}
	} else {
		sub.Type = model.SubmissionTypeMCQ
		sub.Mcq = &model.McqSubmission{
			Answer:     model.OptionLetter(s.draft.SelectedOption),
			Confidence: s.draft.Confidence,
			Reasoning:  s.draft.Reasoning,
		}
	}

	s.submitInFlight = true
	s.lastSubmitError = ""

	go func() {
		err := r.cfg.Backend.SubmitResponse(r.ctx, sub)
		r.post(submitDoneEvent{questionID: sub.QuestionID, sub: sub, err: err})
	}()
	return nil
}

func (r *Runtime) handleSubmitDone(ev submitDoneEvent, s *sessionState) {
	if s.phase.Terminal() {
		return
	}
	// A poll-driven advance may have replaced the question while the
	// submission was in flight. Its late success must not reopen or
	// transition an occurrence that no longer exists.
	if s.current == nil || s.current.ID != ev.questionID {
		r.log.Debug().Str("question_id", ev.questionID).Msg("Late submission result discarded")
		return
	}

	s.submitInFlight = false

	if ev.err != nil {
		if errors.Is(ev.err, backend.ErrNoActiveSession) {
			r.complete(s)
			return
		}
		// Retryable: draft stays editable, no phase transition.
		s.lastSubmitError = ev.err.Error()
		r.log.Warn().Err(ev.err).Str("question_id", ev.questionID).Msg("Submission failed")
		return
	}

	s.draft.Submitted = true

	switch ev.sub.Type {
	case model.SubmissionTypeMCQ:
		correct := answersMatch(ev.sub.Mcq.Answer, s.current.CorrectAnswer)
		s.wasCorrect = &correct
		r.recordProgress(s, correct)

		if s.phase == model.PhaseRevote {
			// Resubmission after discussion goes straight to result.
			s.phase = model.PhaseResult
			return
		}
		s.phase = model.PhaseDiscussion
		r.openDiscussion(s, ev.sub)

	case model.SubmissionTypeCode:
		passed := ev.sub.Code.AllPassed
		s.wasCorrect = &passed
		r.recordProgress(s, passed)
		s.phase = model.PhaseResult
	}
}

// answersMatch compares the derived letter answer with the known key.
// A client-side approximation; the authoritative grade is server-side.
func answersMatch(answer, key string) bool {
	return strings.EqualFold(strings.TrimSpace(answer), strings.TrimSpace(key))
}

func (r *Runtime) recordProgress(s *sessionState, passed bool) {
	state := model.ProgressAttempted
	if passed {
		state = model.ProgressPassed
	}
	s.progress[s.currentIndex] = state

	if r.cfg.Progress == nil {
		return
	}
	participantID, sessionID, index := r.cfg.ParticipantID, s.sessionID, s.currentIndex
	go func() {
		if err := r.cfg.Progress.Set(r.ctx, participantID, sessionID, index, state); err != nil {
			r.log.Warn().Err(err).Int("index", index).Msg("Progress persist failed")
		}
	}()
}

// ─── Discussion sub-flow ────────────────────────────────────────────

func (r *Runtime) openDiscussion(s *sessionState, sub *model.Submission) {
	q := s.current
	seed := &ai.PeerSeed{
		Question:         q,
		StudentAnswer:    describeAnswer(q, sub),
		StudentReasoning: sub.Mcq.Reasoning,
	}

	s.discussionOpening = true
	go func() {
		opening, err := r.cfg.Peers.Open(r.ctx, seed)
		if err != nil {
			// The discussant already falls back internally; an error
			// here means the context died. Nothing to deliver.
			return
		}
		r.post(discussionOpenedEvent{questionID: q.ID, opening: opening})
	}()
}

// describeAnswer renders the submitted MCQ answer for the AI seed,
// letter plus option text when available.
func describeAnswer(q *model.Question, sub *model.Submission) string {
	letter := sub.Mcq.Answer
	index := int(letter[0] - 'A')
	if index >= 0 && index < len(q.Options) {
		return fmt.Sprintf("%s. %s", letter, q.Options[index])
	}
	return letter
}

func (r *Runtime) handleDiscussionOpened(ev discussionOpenedEvent, s *sessionState) {
	if s.phase != model.PhaseDiscussion || s.current == nil || s.current.ID != ev.questionID {
		return
	}
	s.discussionOpening = false

	thread := &model.DiscussionThread{
		QuestionID: ev.questionID,
		PeerName:   ev.opening.PeerName,
		Insight:    ev.opening.Insight,
	}
	thread.Append(model.RolePeer, ev.opening.PeerReasoning)
	if ev.opening.DiscussionPrompt != "" {
		thread.Append(model.RolePeer, ev.opening.DiscussionPrompt)
	}
	s.thread = thread
}

func (r *Runtime) sendMessage(s *sessionState, content string) error {
	if s.phase != model.PhaseDiscussion {
		return ErrPhaseMismatch
	}
	if s.thread == nil {
		return ErrQuestionNotReady
	}
	if s.peerTyping {
		return ErrActionInFlight
	}

	s.thread.Append(model.RoleStudent, content)
	s.peerTyping = true

	questionID, thread := s.current.ID, s.thread
	go func() {
		reply, err := r.cfg.Peers.Reply(r.ctx, thread, content)
		r.post(peerReplyEvent{questionID: questionID, content: reply, err: err})
	}()
	return nil
}

func (r *Runtime) handlePeerReply(ev peerReplyEvent, s *sessionState) {
	if s.phase != model.PhaseDiscussion || s.thread == nil || s.current == nil || s.current.ID != ev.questionID {
		return
	}
	s.peerTyping = false
	if ev.err != nil {
		r.log.Debug().Err(ev.err).Msg("Peer reply failed")
		return
	}
	s.thread.Append(model.RolePeer, ev.content)
}

func (r *Runtime) keepAnswer(s *sessionState) error {
	if s.phase != model.PhaseDiscussion {
		return ErrPhaseMismatch
	}
	s.phase = model.PhaseResult
	return nil
}

func (r *Runtime) revote(s *sessionState) error {
	if s.phase != model.PhaseDiscussion {
		return ErrPhaseMismatch
	}
	if s.current == nil {
		return ErrQuestionNotReady
	}
	// Fresh editable draft; the previous outcome is discarded. The
	// thread stays visible so the exchange can inform the change.
	s.draft = model.NewResponseDraft(s.current)
	s.wasCorrect = nil
	s.lastSubmitError = ""
	s.phase = model.PhaseRevote
	return nil
}

// ─── Code execution bridge ──────────────────────────────────────────

func (r *Runtime) runCode(s *sessionState) error {
	if err := r.editableDraft(s); err != nil {
		return err
	}
	if !s.current.IsCode() {
		return ErrNotCodeQuestion
	}
	if s.runInFlight {
		return ErrActionInFlight
	}

	s.runInFlight = true
	s.lastRunError = ""

	questionID, code := s.current.ID, s.draft.Code
	language, tests := s.current.Language, s.current.TestCases
	go func() {
		result, err := r.cfg.Runner.Run(r.ctx, code, language, tests)
		r.post(runDoneEvent{questionID: questionID, result: result, err: err})
	}()
	return nil
}

func (r *Runtime) handleRunDone(ev runDoneEvent, s *sessionState) {
	if s.phase.Terminal() || s.current == nil || s.current.ID != ev.questionID {
		return
	}
	s.runInFlight = false

	if ev.err != nil {
		// Transport failure, distinct from a compile/runtime error
		// (those arrive inside the result). Retrying the run stays open.
		s.lastRunError = ev.err.Error()
		r.log.Warn().Err(ev.err).Msg("Code run failed")
		return
	}
	if s.draft != nil {
		s.draft.RunResult = ev.result
	}
}

func (r *Runtime) analyze(s *sessionState) error {
	if s.current == nil || s.draft == nil {
		return ErrQuestionNotReady
	}
	if !s.current.IsCode() {
		return ErrNotCodeQuestion
	}
	// Advisory and phase-independent, but only offered while the latest
	// run is not all-passed.
	if s.draft.RunResult == nil || s.draft.RunResult.AllPassed {
		return ErrAnalysisDenied
	}
	if s.analysisInFlight {
		return ErrActionInFlight
	}

	s.analysisInFlight = true
	questionID, q := s.current.ID, s.current
	code, result := s.draft.Code, s.draft.RunResult
	go func() {
		analysis, err := r.cfg.Analyzer.AnalyzeCode(r.ctx, q, code, result)
		r.post(analysisDoneEvent{questionID: questionID, analysis: analysis, err: err})
	}()
	return nil
}

func (r *Runtime) handleAnalysisDone(ev analysisDoneEvent, s *sessionState) {
	if s.phase.Terminal() || s.current == nil || s.current.ID != ev.questionID {
		return
	}
	s.analysisInFlight = false
	if ev.err != nil {
		r.log.Warn().Err(ev.err).Msg("Code analysis failed")
		return
	}
	s.analysis = ev.analysis
}

// ─── Student-paced navigation ───────────────────────────────────────

func (r *Runtime) navigate(s *sessionState, index int) error {
	if s.pacing != model.PacingStudent {
		return ErrNavigationDenied
	}
	if s.status == nil || s.status.Status != model.SessionStateActive {
		return ErrQuestionNotReady
	}
	if index < 0 || index >= s.status.TotalQuestions {
		return ErrInvalidOption
	}
	if index == s.currentIndex {
		return nil
	}
	r.beginLoad(s, index)
	return nil
}
