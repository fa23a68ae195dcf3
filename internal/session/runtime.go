package session

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/kuisku-participant/internal/ai"
	"github.com/stemsi/kuisku-participant/internal/model"
)

// Backend is the slice of the quiz backend API the runtime consumes.
type Backend interface {
	GetSessionStatus(ctx context.Context) (*model.SessionStatus, error)
	GetQuestion(ctx context.Context, index int) (*model.Question, error)
	SubmitResponse(ctx context.Context, sub *model.Submission) error
}

// CodeRunner relays code to the execution sandbox.
type CodeRunner interface {
	Run(ctx context.Context, code, language string, tests []model.TestCase) (*model.CodeExecutionResult, error)
}

// Analyzer produces the advisory AI code review.
type Analyzer interface {
	AnalyzeCode(ctx context.Context, q *model.Question, code string, result *model.CodeExecutionResult) (*model.CodeAnalysis, error)
}

// ProgressSink persists the navigator progress map across reloads.
type ProgressSink interface {
	Load(ctx context.Context, participantID, sessionID string) (model.QuestionProgress, error)
	Set(ctx context.Context, participantID, sessionID string, index int, state model.ProgressState) error
}

// Config wires one participant runtime.
type Config struct {
	ParticipantID string
	DisplayName   string
	Pacing        model.PacingMode
	PollInterval  time.Duration
	Preload       bool

	Backend  Backend
	Runner   CodeRunner
	Analyzer Analyzer
	Peers    PeerDiscussant
	Progress ProgressSink // optional

	Log zerolog.Logger
}

// Runtime is the per-participant session actor. One goroutine owns all
// mutable state and consumes a single stream of commands and async
// completions; network calls run in spawned goroutines and report back
// into the stream tagged with the question they were issued for, so
// late completions for an advanced question are discarded.
type Runtime struct {
	cfg   Config
	cache *QuestionCache
	log   zerolog.Logger

	ctx        context.Context
	cancel     context.CancelFunc
	pollCancel context.CancelFunc

	cmds   chan *command
	events chan event
	done   chan struct{}

	lastActive atomic.Int64 // unix seconds, for the idle reaper
}

// New creates a runtime. Start must be called before use.
func New(cfg Config) *Runtime {
	if cfg.Pacing == "" {
		cfg.Pacing = model.PacingServer
	}
	r := &Runtime{
		cfg:    cfg,
		log:    cfg.Log.With().Str("component", "runtime").Str("participant_id", cfg.ParticipantID).Logger(),
		cmds:   make(chan *command),
		events: make(chan event, 16),
		done:   make(chan struct{}),
	}
	r.cache = NewQuestionCache(cfg.Backend, cfg.Log)
	r.lastActive.Store(time.Now().Unix())
	return r
}

// Start launches the actor loop and the poller. The runtime stops when
// parent is canceled or Close is called; no poll applies after that.
func (r *Runtime) Start(parent context.Context) {
	r.ctx, r.cancel = context.WithCancel(parent)

	pollCtx, pollCancel := context.WithCancel(r.ctx)
	r.pollCancel = pollCancel

	poller := &Poller{
		Source:   r.cfg.Backend,
		Interval: r.cfg.PollInterval,
		Log:      r.cfg.Log,
	}
	go poller.Run(pollCtx, func(ev pollEvent) { r.post(ev) })

	go r.loop()
}

// Close tears the runtime down and waits for the loop to exit.
func (r *Runtime) Close() {
	r.cancel()
	<-r.done
}

// ParticipantID returns the owning participant's id.
func (r *Runtime) ParticipantID() string { return r.cfg.ParticipantID }

// IdleSince reports the time of the last participant command.
func (r *Runtime) IdleSince() time.Time { return time.Unix(r.lastActive.Load(), 0) }

// ─── Public command API ─────────────────────────────────────────────

// Snapshot returns the current UI state.
func (r *Runtime) Snapshot(ctx context.Context) (*Snapshot, error) {
	return r.do(ctx, &command{kind: cmdSnapshot})
}

// SelectOption picks one MCQ option for the current draft.
func (r *Runtime) SelectOption(ctx context.Context, index int) (*Snapshot, error) {
	return r.do(ctx, &command{kind: cmdSelect, index: index})
}

// SetConfidence sets the draft's stated confidence (0–100).
func (r *Runtime) SetConfidence(ctx context.Context, confidence int) (*Snapshot, error) {
	return r.do(ctx, &command{kind: cmdConfidence, index: confidence})
}

// SetReasoning sets the draft's free-text reasoning.
func (r *Runtime) SetReasoning(ctx context.Context, reasoning string) (*Snapshot, error) {
	return r.do(ctx, &command{kind: cmdReasoning, text: reasoning})
}

// Submit fires the at-most-once answer submission for the current draft.
func (r *Runtime) Submit(ctx context.Context) (*Snapshot, error) {
	return r.do(ctx, &command{kind: cmdSubmit})
}

// KeepAnswer closes the discussion keeping the submitted answer.
func (r *Runtime) KeepAnswer(ctx context.Context) (*Snapshot, error) {
	return r.do(ctx, &command{kind: cmdKeep})
}

// Revote reopens the draft after discussion ("change answer").
func (r *Runtime) Revote(ctx context.Context) (*Snapshot, error) {
	return r.do(ctx, &command{kind: cmdRevote})
}

// SendMessage appends a student message to the discussion thread.
func (r *Runtime) SendMessage(ctx context.Context, content string) (*Snapshot, error) {
	return r.do(ctx, &command{kind: cmdMessage, text: content})
}

// SetCode replaces the draft's code buffer. No phase impact.
func (r *Runtime) SetCode(ctx context.Context, code string) (*Snapshot, error) {
	return r.do(ctx, &command{kind: cmdSetCode, text: code})
}

// RunCode sends the buffer to the executor.
func (r *Runtime) RunCode(ctx context.Context) (*Snapshot, error) {
	return r.do(ctx, &command{kind: cmdRun})
}

// Analyze requests the advisory AI review of a failing solution.
func (r *Runtime) Analyze(ctx context.Context) (*Snapshot, error) {
	return r.do(ctx, &command{kind: cmdAnalyze})
}

// Navigate jumps to a question index (student-paced mode only).
func (r *Runtime) Navigate(ctx context.Context, index int) (*Snapshot, error) {
	return r.do(ctx, &command{kind: cmdNavigate, index: index})
}

// Subscribe registers a snapshot channel. Sends are non-blocking; slow
// consumers miss intermediate snapshots, never whole states.
func (r *Runtime) Subscribe(ctx context.Context, ch chan *Snapshot) error {
	_, err := r.do(ctx, &command{kind: cmdSubscribe, sub: ch})
	return err
}

// Unsubscribe removes a snapshot channel.
func (r *Runtime) Unsubscribe(ctx context.Context, ch chan *Snapshot) error {
	_, err := r.do(ctx, &command{kind: cmdUnsubscribe, sub: ch})
	return err
}

// ─── Command plumbing ───────────────────────────────────────────────

type cmdKind int

const (
	cmdSnapshot cmdKind = iota
	cmdSelect
	cmdConfidence
	cmdReasoning
	cmdSubmit
	cmdKeep
	cmdRevote
	cmdMessage
	cmdSetCode
	cmdRun
	cmdAnalyze
	cmdNavigate
	cmdSubscribe
	cmdUnsubscribe
)

type command struct {
	kind  cmdKind
	index int
	text  string
	sub   chan *Snapshot
	reply chan cmdResult
}

type cmdResult struct {
	snap *Snapshot
	err  error
}

func (r *Runtime) do(ctx context.Context, c *command) (*Snapshot, error) {
	r.lastActive.Store(time.Now().Unix())
	c.reply = make(chan cmdResult, 1)

	select {
	case r.cmds <- c:
	case <-r.ctx.Done():
		return nil, ErrRuntimeClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case res := <-c.reply:
		return res.snap, res.err
	case <-r.ctx.Done():
		return nil, ErrRuntimeClosed
	}
}

// post delivers an async event into the loop, dropping it if the
// runtime is already closed.
func (r *Runtime) post(ev event) {
	select {
	case r.events <- ev:
	case <-r.ctx.Done():
	}
}

// ─── Actor loop ─────────────────────────────────────────────────────

func (r *Runtime) loop() {
	defer close(r.done)

	s := newSessionState(r.cfg.Pacing)
	subs := make(map[chan *Snapshot]struct{})

	r.log.Info().Str("pacing", string(s.pacing)).Msg("Runtime started")

	for {
		select {
		case <-r.ctx.Done():
			r.log.Info().Msg("Runtime stopped")
			return

		case c := <-r.cmds:
			err := r.handleCommand(c, s, subs)
			c.reply <- cmdResult{snap: s.snapshot(), err: err}
			if err == nil {
				r.publish(s, subs)
			}

		case ev := <-r.events:
			r.handleEvent(ev, s)
			r.publish(s, subs)
		}
	}
}

func (r *Runtime) publish(s *sessionState, subs map[chan *Snapshot]struct{}) {
	if len(subs) == 0 {
		return
	}
	snap := s.snapshot()
	for ch := range subs {
		select {
		case ch <- snap:
		default: // Slow consumer — skip this snapshot
		}
	}
}

func (r *Runtime) handleCommand(c *command, s *sessionState, subs map[chan *Snapshot]struct{}) error {
	switch c.kind {
	case cmdSnapshot:
		return nil
	case cmdSubscribe:
		subs[c.sub] = struct{}{}
		return nil
	case cmdUnsubscribe:
		delete(subs, c.sub)
		return nil
	}

	if s.phase.Terminal() {
		return ErrSessionCompleted
	}

	switch c.kind {
	case cmdSelect:
		return r.selectOption(s, c.index)
	case cmdConfidence:
		return r.editDraft(s, func(d *model.ResponseDraft) { d.Confidence = c.index })
	case cmdReasoning:
		return r.editDraft(s, func(d *model.ResponseDraft) { d.Reasoning = c.text })
	case cmdSubmit:
		return r.submit(s)
	case cmdKeep:
		return r.keepAnswer(s)
	case cmdRevote:
		return r.revote(s)
	case cmdMessage:
		return r.sendMessage(s, c.text)
	case cmdSetCode:
		return r.setCode(s, c.text)
	case cmdRun:
		return r.runCode(s)
	case cmdAnalyze:
		return r.analyze(s)
	case cmdNavigate:
		return r.navigate(s, c.index)
	}
	return nil
}

func (r *Runtime) handleEvent(ev event, s *sessionState) {
	switch e := ev.(type) {
	case pollEvent:
		r.handlePoll(e, s)
	case questionLoadedEvent:
		r.handleQuestionLoaded(e, s)
	case submitDoneEvent:
		r.handleSubmitDone(e, s)
	case runDoneEvent:
		r.handleRunDone(e, s)
	case discussionOpenedEvent:
		r.handleDiscussionOpened(e, s)
	case peerReplyEvent:
		r.handlePeerReply(e, s)
	case analysisDoneEvent:
		r.handleAnalysisDone(e, s)
	case progressLoadedEvent:
		r.handleProgressLoaded(e, s)
	}
}

// ─── Async events ───────────────────────────────────────────────────

type event interface{ isEvent() }

type pollEvent struct {
	status *model.SessionStatus
	err    error
}

type questionLoadedEvent struct {
	index int
	q     *model.Question
	err   error
}

type submitDoneEvent struct {
	questionID string
	sub        *model.Submission
	err        error
}

type runDoneEvent struct {
	questionID string
	result     *model.CodeExecutionResult
	err        error
}

type discussionOpenedEvent struct {
	questionID string
	opening    *ai.PeerOpening
}

type peerReplyEvent struct {
	questionID string
	content    string
	err        error
}

type analysisDoneEvent struct {
	questionID string
	analysis   *model.CodeAnalysis
	err        error
}

type progressLoadedEvent struct {
	sessionID string
	progress  model.QuestionProgress
}

func (pollEvent) isEvent()             {}
func (questionLoadedEvent) isEvent()   {}
func (submitDoneEvent) isEvent()       {}
func (runDoneEvent) isEvent()          {}
func (discussionOpenedEvent) isEvent() {}
func (peerReplyEvent) isEvent()        {}
func (analysisDoneEvent) isEvent()     {}
func (progressLoadedEvent) isEvent()   {}
