package sync

import (
	"context"
	"errors"
	"time"

	"github.com/MKhiriev/notero-sync/internal/logger"
)

// SyncWorker drives poll cycles on a ticker. It implements workers.Worker;
// manual triggers through the HTTP surface share the poller's single-flight
// path, so a tick that lands mid-cycle is simply dropped.
type SyncWorker struct {
	ctx      context.Context
	poller   *Poller
	interval time.Duration
	logger   *logger.Logger
}

// NewSyncWorker creates a worker bound to ctx; the background loop exits
// when ctx is cancelled. A non-positive interval defaults to 5 minutes.
func NewSyncWorker(ctx context.Context, poller *Poller, interval time.Duration, log *logger.Logger) *SyncWorker {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &SyncWorker{
		ctx:      ctx,
		poller:   poller,
		interval: interval,
		logger:   log,
	}
}

// Run starts the background polling loop. The first cycle runs immediately;
// subsequent cycles follow the ticker.
func (w *SyncWorker) Run() {
	go func() {
		w.cycle()

		t := time.NewTicker(w.interval)
		defer t.Stop()

		for {
			select {
			case <-w.ctx.Done():
				return
			case <-t.C:
				w.cycle()
			}
		}
	}()
}

func (w *SyncWorker) cycle() {
	_, err := w.poller.RunCycle(w.ctx)
	switch {
	case errors.Is(err, ErrCycleInFlight):
		w.logger.Debug().Str("func", "SyncWorker.cycle").Msg("cycle already in flight, tick dropped")
	case errors.Is(err, context.Canceled):
	case err != nil:
		w.logger.Err(err).Str("func", "SyncWorker.cycle").Msg("cycle failed")
	}
}
