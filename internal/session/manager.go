package session

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/kuisku-participant/internal/model"
)

// Manager owns the participant runtimes: one per joined participant,
// created on session entry and torn down on leave, idle expiry or
// shutdown. This is the explicit lifecycle home for state that must
// survive phase resets.
type Manager struct {
	ctx     context.Context
	idleTTL time.Duration
	log     zerolog.Logger

	mu       sync.Mutex
	runtimes map[string]*Runtime
}

// NewManager creates a Manager. ctx is the process lifetime: all
// runtimes stop when it is canceled.
func NewManager(ctx context.Context, idleTTL time.Duration, log zerolog.Logger) *Manager {
	m := &Manager{
		ctx:      ctx,
		idleTTL:  idleTTL,
		log:      log.With().Str("component", "runtime_manager").Logger(),
		runtimes: make(map[string]*Runtime),
	}
	go m.reap()
	return m
}

// Create builds and starts a runtime for a participant, replacing (and
// closing) any previous one — re-joining restarts the session view.
func (m *Manager) Create(cfg Config) *Runtime {
	rt := New(cfg)

	m.mu.Lock()
	old := m.runtimes[cfg.ParticipantID]
	m.runtimes[cfg.ParticipantID] = rt
	m.mu.Unlock()

	if old != nil {
		old.Close()
	}
	rt.Start(m.ctx)

	m.log.Info().
		Str("participant_id", cfg.ParticipantID).
		Str("pacing", string(cfg.Pacing)).
		Msg("Runtime created")
	return rt
}

// Get returns the runtime for a participant, or nil.
func (m *Manager) Get(participantID string) *Runtime {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.runtimes[participantID]
}

// Teardown stops and removes a participant's runtime. Safe to call for
// unknown participants.
func (m *Manager) Teardown(participantID string) {
	m.mu.Lock()
	rt := m.runtimes[participantID]
	delete(m.runtimes, participantID)
	m.mu.Unlock()

	if rt != nil {
		rt.Close()
		m.log.Info().Str("participant_id", participantID).Msg("Runtime torn down")
	}
}

// Shutdown closes every runtime. Called on graceful process exit.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	runtimes := make([]*Runtime, 0, len(m.runtimes))
	for _, rt := range m.runtimes {
		runtimes = append(runtimes, rt)
	}
	m.runtimes = make(map[string]*Runtime)
	m.mu.Unlock()

	for _, rt := range runtimes {
		rt.Close()
	}
	m.log.Info().Int("count", len(runtimes)).Msg("All runtimes closed")
}

// Count reports how many runtimes are live.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.runtimes)
}

// reap tears down runtimes whose participant went silent. A completed
// session the UI never leaves would otherwise live forever.
func (m *Manager) reap() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-m.idleTTL)

			m.mu.Lock()
			var stale []string
			for id, rt := range m.runtimes {
				if rt.IdleSince().Before(cutoff) {
					stale = append(stale, id)
				}
			}
			m.mu.Unlock()

			for _, id := range stale {
				m.log.Info().Str("participant_id", id).Msg("Reaping idle runtime")
				m.Teardown(id)
			}
		}
	}
}

// PacingFromString maps the join-request pacing field, defaulting to
// server-paced.
func PacingFromString(s string) model.PacingMode {
	if s == string(model.PacingStudent) {
		return model.PacingStudent
	}
	return model.PacingServer
}
