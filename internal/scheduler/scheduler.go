// Package scheduler keeps the predefined search cache warm by re-dispatching
// the catalogue on a cron interval. Single-flight admission makes the refresh
// a no-op for keys with a run already in flight or a fresh result.
package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/jobradar/search-service/internal/cache"
	"github.com/jobradar/search-service/internal/dispatch"
	"github.com/jobradar/search-service/internal/searches"
	pkglog "github.com/jobradar/search-service/pkg/log"
)

// Scheduler wraps robfig/cron around the dispatcher.
type Scheduler struct {
	cron       *cron.Cron
	dispatcher *dispatch.Dispatcher
	spec       string
	logger     zerolog.Logger
}

// New creates a Scheduler that refreshes every intervalHours hours.
func New(dispatcher *dispatch.Dispatcher, intervalHours int) *Scheduler {
	if intervalHours < 1 {
		intervalHours = 6
	}
	return &Scheduler{
		cron:       cron.New(),
		dispatcher: dispatcher,
		spec:       fmt.Sprintf("@every %dh", intervalHours),
		logger:     pkglog.L(),
	}
}

// Start registers the refresh job and starts the cron. One refresh runs
// immediately so the cache is populated without waiting for the first tick.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.refresh); err != nil {
		return fmt.Errorf("failed to register refresh job: %w", err)
	}

	s.cron.Start()
	s.logger.Info().Str("spec", s.spec).Msg("scheduler started")

	go s.refresh()
	return nil
}

// Stop stops the cron scheduler. In-flight dispatches run to completion.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.logger.Info().Msg("scheduler stopped")
}

// Status describes the scheduler for the admin surface.
type Status struct {
	Enabled bool      `json:"enabled"`
	Spec    string    `json:"spec,omitempty"`
	NextRun time.Time `json:"next_run,omitzero"`
}

// Status reports the refresh spec and the next scheduled run.
func (s *Scheduler) Status() Status {
	st := Status{Enabled: true, Spec: s.spec}
	for _, e := range s.cron.Entries() {
		if st.NextRun.IsZero() || e.Next.Before(st.NextRun) {
			st.NextRun = e.Next
		}
	}
	return st
}

// refresh dispatches every predefined search. Fresh entries come back Cached
// and cost nothing; only stale or absent ones trigger upstream calls.
func (s *Scheduler) refresh() {
	dispatched := 0
	for _, p := range searches.All() {
		entry := s.dispatcher.RequestSearch(p.ID, p.Title, p.Request, false)
		if entry.State == cache.StateRunning {
			dispatched++
		}
	}
	s.logger.Info().Int("dispatched", dispatched).Msg("predefined search refresh cycle complete")
}
