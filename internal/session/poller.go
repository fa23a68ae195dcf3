package session

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/kuisku-participant/internal/model"
)

// StatusSource issues one session-status request.
type StatusSource interface {
	GetSessionStatus(ctx context.Context) (*model.SessionStatus, error)
}

// Poller queries session status on a fixed interval and delivers every
// outcome — success or failure — to the runtime, which decides what to
// apply. Fixed cadence, no backoff: responsiveness is favored over
// server load here.
//
// TODO: add jitter once several gateway instances poll one backend.
type Poller struct {
	Source   StatusSource
	Interval time.Duration
	Log      zerolog.Logger
}

// Run polls until ctx is canceled. The first poll fires immediately so
// a joining participant is not stuck in loading for a full interval.
// Polls are sequential: a slow response delays the next tick rather
// than piling up concurrent requests.
func (p *Poller) Run(ctx context.Context, deliver func(pollEvent)) {
	log := p.Log.With().Str("component", "poller").Logger()
	log.Debug().Dur("interval", p.Interval).Msg("Poller started")

	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()

	p.poll(ctx, deliver)
	for {
		select {
		case <-ctx.Done():
			log.Debug().Msg("Poller stopped")
			return
		case <-ticker.C:
			p.poll(ctx, deliver)
		}
	}
}

func (p *Poller) poll(ctx context.Context, deliver func(pollEvent)) {
	status, err := p.Source.GetSessionStatus(ctx)
	if ctx.Err() != nil {
		// Torn down mid-request: nothing may be applied after teardown.
		return
	}
	deliver(pollEvent{status: status, err: err})
}
