package sync

import (
	"context"
	"errors"
	stdsync "sync"
	"sync/atomic"
	"time"

	"github.com/MKhiriev/notero-sync/internal/adapter"
	"github.com/MKhiriev/notero-sync/internal/logger"
	"github.com/MKhiriev/notero-sync/internal/store"
	"github.com/MKhiriev/notero-sync/internal/utils"
	"github.com/MKhiriev/notero-sync/models"
)

// ErrCycleInFlight is returned when a cycle trigger arrives while another
// cycle is still running. The trigger is dropped, never queued.
var ErrCycleInFlight = errors.New("sync cycle already in flight")

// CursorLayout is the timestamp form Notion accepts in last_edited_time
// filters; the poll cursor is stored in this form.
const CursorLayout = "2006-01-02T15:04:05.000Z"

// Poller drives reconciliation cycles. A cycle queries the pages changed
// since the cursor (or all pages on the first run), reconciles properties
// and notes per page with per-record failure isolation, then advances the
// cursor and persists the store.
type Poller struct {
	notion adapter.NotionAdapter
	engine *Engine
	notes  *NoteEngine
	store  *store.Store
	ids    *utils.UUIDGenerator
	logger *logger.Logger

	databaseID string

	mu      stdsync.Mutex
	running atomic.Bool
}

func NewPoller(n adapter.NotionAdapter, engine *Engine, notes *NoteEngine, st *store.Store, databaseID string, log *logger.Logger) *Poller {
	return &Poller{
		notion:     n,
		engine:     engine,
		notes:      notes,
		store:      st,
		ids:        utils.NewUUIDGenerator(),
		logger:     log,
		databaseID: databaseID,
	}
}

// Running reports whether a cycle is currently in flight.
func (p *Poller) Running() bool {
	return p.running.Load()
}

// RunExclusive runs fn while holding the cycle lock, so it can never
// interleave with a reconciliation cycle. Returns [ErrCycleInFlight] without
// calling fn when a cycle is already running; a ticker cycle arriving while
// fn runs is dropped the same way.
func (p *Poller) RunExclusive(ctx context.Context, fn func(context.Context) error) error {
	if !p.mu.TryLock() {
		return ErrCycleInFlight
	}
	defer p.mu.Unlock()

	p.running.Store(true)
	defer p.running.Store(false)

	return fn(ctx)
}

// RunCycle executes one reconciliation cycle. Returns [ErrCycleInFlight]
// without doing anything when a cycle is already running. A failure to
// persist the store is returned as-is: it is the one fatal condition.
func (p *Poller) RunCycle(ctx context.Context) (models.CycleSummary, error) {
	if !p.mu.TryLock() {
		return models.CycleSummary{}, ErrCycleInFlight
	}
	defer p.mu.Unlock()

	p.running.Store(true)
	defer p.running.Store(false)

	start := time.Now().UTC()
	summary := models.CycleSummary{StartedAt: start}

	log := &logger.Logger{Logger: p.logger.With().Str("cycle_id", p.ids.Generate()).Logger()}

	since := p.store.PollCursor()
	var (
		pages []models.Page
		err   error
	)
	if since == "" {
		summary.FullScan = true
		pages, err = p.notion.QueryAllPages(ctx, p.databaseID)
	} else {
		pages, err = p.notion.QueryPagesChangedSince(ctx, p.databaseID, since)
	}
	if err != nil {
		log.Err(err).Str("func", "Poller.RunCycle").Msg("page query failed, cycle aborted")
		return summary, err
	}
	summary.PagesSeen = len(pages)

	for _, page := range pages {
		// A cancelled cycle stops between records; completed records are
		// already consistent on their own.
		if ctx.Err() != nil {
			log.Warn().Str("func", "Poller.RunCycle").Msg("cycle interrupted")
			return summary, ctx.Err()
		}

		p.syncOne(ctx, log, page, &summary)
	}

	summary.Duration = time.Since(start).String()

	p.store.SetPollCursor(start.Format(CursorLayout))
	if err = p.store.Save(ctx); err != nil {
		return summary, err
	}

	log.Info().
		Str("func", "Poller.RunCycle").
		Int("pages_seen", summary.PagesSeen).
		Int("synced", summary.Synced).
		Int("skipped", summary.Skipped).
		Int("errors", summary.Errors).
		Bool("full_scan", summary.FullScan).
		Msg("cycle finished")

	return summary, nil
}

// syncOne reconciles a single page, folding the outcome into the summary.
// Errors are isolated: one record's failure never aborts its siblings.
func (p *Poller) syncOne(ctx context.Context, log *logger.Logger, page models.Page, summary *models.CycleSummary) {
	out, err := p.engine.SyncPage(ctx, page)
	if err != nil {
		log.Err(err).
			Str("func", "Poller.syncOne").
			Str("page_id", page.ID).
			Msg("property reconciliation failed")
		summary.Errors++
		return
	}

	summary.FieldConflicts += len(out.Conflicts)

	if out.VersionConflict {
		summary.VersionRetries++
		return
	}
	if out.Skipped {
		summary.Skipped++
		return
	}

	if err = p.notes.SyncNotes(ctx, page.ID, out.Ref); err != nil {
		log.Err(err).
			Str("func", "Poller.syncOne").
			Str("page_id", page.ID).
			Msg("note reconciliation failed")
		summary.Errors++
		return
	}

	summary.Synced++
}
