// Package cache implements the keyed, TTL-aware store of search outcomes.
// It is the only shared mutable state in the service: the dispatcher requests
// state transitions through TryBeginRun and Complete, readers poll with Get.
package cache

import (
	"sync"
	"time"

	"github.com/jobradar/search-service/internal/domain"
)

// State of a search entry. Absence of an entry means the search was never
// started; there is no stored "not started" value.
type State string

const (
	StateRunning   State = "running"
	StateSucceeded State = "done"
	StateFailed    State = "failed"
)

// Terminal reports whether the state is Succeeded or Failed.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// Entry is the full cached outcome for one search key. Jobs and ResultCount
// are meaningful only in StateSucceeded, Err only in StateFailed.
type Entry struct {
	State         State
	Title         string
	Jobs          []domain.Job
	ResultCount   int
	RejectedCount int
	Err           string
	CreatedAt     time.Time
	CompletedAt   time.Time
}

// Admission is the outcome of TryBeginRun.
type Admission int

const (
	// Admitted: a new Running entry was installed; the caller must start
	// exactly one background execution for the key.
	Admitted Admission = iota
	// AlreadyRunning: an execution is in flight; no new work may start.
	AlreadyRunning
	// Cached: a fresh terminal entry exists and was returned.
	Cached
)

// Outcome is a terminal result written through Complete.
type Outcome struct {
	Jobs     []domain.Job
	Rejected int
	Err      string
}

// Succeeded builds a successful outcome.
func Succeeded(jobs []domain.Job, rejected int) Outcome {
	return Outcome{Jobs: jobs, Rejected: rejected}
}

// Failed builds a failed outcome.
func Failed(errMsg string) Outcome {
	return Outcome{Err: errMsg}
}

// Stats is a point-in-time snapshot of entry states.
type Stats struct {
	Keys      int `json:"keys"`
	Running   int `json:"running"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// Store owns all entries. A single mutex guards the map; every critical
// section is O(1), so different keys never contend for long.
type Store struct {
	mu      sync.Mutex
	entries map[string]*Entry
	ttl     time.Duration

	now func() time.Time
}

// NewStore creates a Store whose terminal entries stay fresh for ttl.
func NewStore(ttl time.Duration) *Store {
	return &Store{
		entries: make(map[string]*Entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// TryBeginRun atomically inspects the entry for key and decides admission:
//
//   - no entry, or a terminal entry past its TTL: a Running entry replaces it
//     and the caller is Admitted (it must schedule the one background run);
//   - a Running entry: AlreadyRunning, nothing is scheduled;
//   - a fresh terminal entry: Cached, with the entry returned as-is.
//
// force admits a new run for any non-Running entry regardless of age. The
// check-then-set is a single critical section; two concurrent calls for an
// absent key admit exactly one caller.
func (s *Store) TryBeginRun(key, title string, force bool) (Admission, Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if ok {
		switch {
		case e.State == StateRunning:
			return AlreadyRunning, *e
		case !force && !s.expired(e):
			return Cached, *e
		}
	}

	running := &Entry{
		State:     StateRunning,
		Title:     title,
		CreatedAt: s.now(),
	}
	s.entries[key] = running
	return Admitted, *running
}

// Complete moves the entry for key to its terminal state. If no entry exists
// (which correct dispatch never produces) the terminal entry is created
// rather than erroring.
func (s *Store) Complete(key string, o Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		e = &Entry{CreatedAt: s.now()}
		s.entries[key] = e
	}

	e.CompletedAt = s.now()
	if o.Err != "" {
		e.State = StateFailed
		e.Err = o.Err
		e.Jobs = nil
		e.ResultCount = 0
		e.RejectedCount = 0
		return
	}

	e.State = StateSucceeded
	e.Err = ""
	e.Jobs = o.Jobs
	e.ResultCount = len(o.Jobs)
	e.RejectedCount = o.Rejected
}

// Get returns the current entry for key without blocking on in-flight runs.
// Expiry is advisory: a terminal entry past its TTL is still returned here
// until a TryBeginRun replaces it.
func (s *Store) Get(key string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// Stats counts entries per state.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Stats{Keys: len(s.entries)}
	for _, e := range s.entries {
		switch e.State {
		case StateRunning:
			st.Running++
		case StateSucceeded:
			st.Succeeded++
		case StateFailed:
			st.Failed++
		}
	}
	return st
}

// expired reports whether a terminal entry is past the freshness window.
// Freshness is measured from completion. Callers hold s.mu.
func (s *Store) expired(e *Entry) bool {
	if !e.State.Terminal() {
		return false
	}
	return s.now().Sub(e.CompletedAt) >= s.ttl
}
