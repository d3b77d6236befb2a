// Package dispatch owns the single-flight guarantee: for each search key at
// most one background execution is in flight, and callers never wait for it.
// The cache store's admission decides everything; completion is observed by
// polling, not by return channels.
package dispatch

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/jobradar/search-service/internal/cache"
	"github.com/jobradar/search-service/internal/domain"
	"github.com/jobradar/search-service/internal/history"
	pkglog "github.com/jobradar/search-service/pkg/log"
)

// Searcher runs one search execution end to end (provider call + ingestion).
type Searcher interface {
	SearchJobs(ctx context.Context, req domain.SearchRequest) ([]domain.Job, int, error)
}

// RunRecorder persists completed runs. May be nil.
type RunRecorder interface {
	RecordRun(ctx context.Context, rec history.Record) error
}

// Dispatcher schedules background search executions against the cache store.
type Dispatcher struct {
	store    *cache.Store
	searcher Searcher
	recorder RunRecorder
	timeout  time.Duration
	logger   zerolog.Logger
}

// New creates a Dispatcher. timeout bounds each background execution; without
// it a stuck provider call would pin the entry in Running forever. recorder
// may be nil.
func New(store *cache.Store, searcher Searcher, recorder RunRecorder, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Dispatcher{
		store:    store,
		searcher: searcher,
		recorder: recorder,
		timeout:  timeout,
		logger:   pkglog.L(),
	}
}

// RequestSearch asks for results under key. It never blocks and never
// returns a provider error:
//
//   - admitted: a Running entry is returned and exactly one goroutine is
//     started to execute the search and complete the entry;
//   - already running: the current Running entry is returned, nothing is
//     scheduled;
//   - fresh terminal entry: it is returned as-is.
//
// force re-admits a run even when a fresh terminal entry (typically Failed)
// exists.
func (d *Dispatcher) RequestSearch(key, title string, req domain.SearchRequest, force bool) cache.Entry {
	adm, entry := d.store.TryBeginRun(key, title, force)
	if adm != cache.Admitted {
		return entry
	}

	d.logger.Info().
		Str(pkglog.FieldSearchKey, key).
		Str(pkglog.FieldQuery, req.Query).
		Bool("force", force).
		Msg("search admitted, scheduling background run")

	go d.run(key, req)

	return entry
}

// PollStatus is a non-blocking read of the current entry for key.
func (d *Dispatcher) PollStatus(key string) (cache.Entry, bool) {
	return d.store.Get(key)
}

// CacheStats exposes store statistics for the admin surface.
func (d *Dispatcher) CacheStats() cache.Stats {
	return d.store.Stats()
}

// run executes one admitted search and writes exactly one terminal state.
// It runs on a fresh context: callers have already returned and nothing may
// cancel an admitted run except the execution timeout.
func (d *Dispatcher) run(key string, req domain.SearchRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	l := d.logger.With().Str(pkglog.FieldSearchKey, key).Logger()
	ctx = pkglog.WithLogger(ctx, l)

	start := time.Now()
	jobs, rejected, err := d.searcher.SearchJobs(ctx, req)
	elapsed := time.Since(start)

	rec := history.Record{
		SearchKey:     key,
		Query:         req.Query,
		Country:       req.Country,
		DurationMS:    elapsed.Milliseconds(),
		ResultCount:   len(jobs),
		RejectedCount: rejected,
	}

	if err != nil {
		// Every provider failure class lands here uniformly; the caller only
		// ever sees the Failed entry.
		d.store.Complete(key, cache.Failed(err.Error()))
		rec.Status = string(cache.StateFailed)
		rec.Error = err.Error()
		rec.ResultCount = 0
		rec.RejectedCount = 0
		l.Error().Err(err).Dur("elapsed", elapsed).Msg("search run failed")
	} else {
		d.store.Complete(key, cache.Succeeded(jobs, rejected))
		rec.Status = string(cache.StateSucceeded)
		l.Info().
			Int("results", len(jobs)).
			Int("rejected", rejected).
			Dur("elapsed", elapsed).
			Msg("search run complete")
	}

	d.recordRun(rec)
}

func (d *Dispatcher) recordRun(rec history.Record) {
	if d.recorder == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := d.recorder.RecordRun(ctx, rec); err != nil {
		d.logger.Warn().Err(err).Str(pkglog.FieldSearchKey, rec.SearchKey).Msg("failed to record run history")
	}
}
