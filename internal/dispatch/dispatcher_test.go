package dispatch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobradar/search-service/internal/cache"
	"github.com/jobradar/search-service/internal/domain"
	"github.com/jobradar/search-service/internal/history"
)

// stubSearcher controls when a background run finishes and counts executions.
type stubSearcher struct {
	calls    atomic.Int64
	jobs     []domain.Job
	rejected int
	err      error

	// when set, SearchJobs blocks until released
	gate chan struct{}
}

func (s *stubSearcher) SearchJobs(ctx context.Context, req domain.SearchRequest) ([]domain.Job, int, error) {
	s.calls.Add(1)
	if s.gate != nil {
		select {
		case <-s.gate:
		case <-ctx.Done():
			return nil, 0, ctx.Err()
		}
	}
	return s.jobs, s.rejected, s.err
}

type memRecorder struct {
	mu   sync.Mutex
	recs []history.Record
}

func (m *memRecorder) RecordRun(ctx context.Context, rec history.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs = append(m.recs, rec)
	return nil
}

func (m *memRecorder) all() []history.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]history.Record(nil), m.recs...)
}

func waitTerminal(t *testing.T, d *Dispatcher, key string) cache.Entry {
	t.Helper()
	var entry cache.Entry
	require.Eventually(t, func() bool {
		e, ok := d.PollStatus(key)
		if ok && e.State.Terminal() {
			entry = e
			return true
		}
		return false
	}, 2*time.Second, 5*time.Millisecond)
	return entry
}

func TestRequestSearchReturnsRunningImmediately(t *testing.T) {
	searcher := &stubSearcher{gate: make(chan struct{})}
	d := New(cache.NewStore(time.Minute), searcher, nil, time.Minute)

	start := time.Now()
	entry := d.RequestSearch("k", "Title", domain.SearchRequest{Query: "go"}, false)
	assert.Less(t, time.Since(start), 100*time.Millisecond)
	assert.Equal(t, cache.StateRunning, entry.State)

	close(searcher.gate)
	waitTerminal(t, d, "k")
}

func TestSingleFlightUnderConcurrency(t *testing.T) {
	searcher := &stubSearcher{gate: make(chan struct{}), jobs: []domain.Job{{ID: "a"}}}
	d := New(cache.NewStore(time.Minute), searcher, nil, time.Minute)

	const callers = 32
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			entry := d.RequestSearch("k", "Title", domain.SearchRequest{Query: "go"}, false)
			assert.Equal(t, cache.StateRunning, entry.State)
		}()
	}
	wg.Wait()

	close(searcher.gate)
	entry := waitTerminal(t, d, "k")

	assert.Equal(t, cache.StateSucceeded, entry.State)
	assert.Equal(t, int64(1), searcher.calls.Load(), "one execution for all concurrent callers")
}

func TestSuccessfulRunPayload(t *testing.T) {
	searcher := &stubSearcher{jobs: []domain.Job{{ID: "a"}, {ID: "b"}}, rejected: 1}
	rec := &memRecorder{}
	d := New(cache.NewStore(time.Minute), searcher, rec, time.Minute)

	d.RequestSearch("k", "Title", domain.SearchRequest{Query: "go"}, false)
	entry := waitTerminal(t, d, "k")

	assert.Equal(t, cache.StateSucceeded, entry.State)
	assert.Equal(t, 2, entry.ResultCount)
	assert.Equal(t, 1, entry.RejectedCount)
	assert.Equal(t, "Title", entry.Title)

	require.Eventually(t, func() bool { return len(rec.all()) == 1 }, time.Second, 5*time.Millisecond)
	r := rec.all()[0]
	assert.Equal(t, "done", r.Status)
	assert.Equal(t, 2, r.ResultCount)
	assert.Equal(t, "go", r.Query)
}

func TestFailedRunIsCachedNotPropagated(t *testing.T) {
	searcher := &stubSearcher{err: errors.New("upstream down")}
	rec := &memRecorder{}
	d := New(cache.NewStore(time.Minute), searcher, rec, time.Minute)

	entry := d.RequestSearch("k", "Title", domain.SearchRequest{Query: "go"}, false)
	assert.Equal(t, cache.StateRunning, entry.State)

	entry = waitTerminal(t, d, "k")
	assert.Equal(t, cache.StateFailed, entry.State)
	assert.Equal(t, "upstream down", entry.Err)

	// Without force, the failed entry keeps serving until the TTL passes.
	entry = d.RequestSearch("k", "Title", domain.SearchRequest{Query: "go"}, false)
	assert.Equal(t, cache.StateFailed, entry.State)
	assert.Equal(t, int64(1), searcher.calls.Load())

	require.Eventually(t, func() bool { return len(rec.all()) == 1 }, time.Second, 5*time.Millisecond)
	r := rec.all()[0]
	assert.Equal(t, "failed", r.Status)
	assert.Equal(t, "upstream down", r.Error)
	assert.Zero(t, r.ResultCount)
}

func TestForceRetriesFailedEntry(t *testing.T) {
	searcher := &stubSearcher{err: errors.New("flaky")}
	d := New(cache.NewStore(time.Minute), searcher, nil, time.Minute)

	d.RequestSearch("k", "Title", domain.SearchRequest{Query: "go"}, false)
	waitTerminal(t, d, "k")

	searcher.err = nil
	searcher.jobs = []domain.Job{{ID: "a"}}

	entry := d.RequestSearch("k", "Title", domain.SearchRequest{Query: "go"}, true)
	assert.Equal(t, cache.StateRunning, entry.State)

	entry = waitTerminal(t, d, "k")
	assert.Equal(t, cache.StateSucceeded, entry.State)
	assert.Equal(t, int64(2), searcher.calls.Load())
}

func TestExpiredEntryTriggersNewRun(t *testing.T) {
	searcher := &stubSearcher{jobs: []domain.Job{{ID: "a"}}}
	d := New(cache.NewStore(10*time.Millisecond), searcher, nil, time.Minute)

	d.RequestSearch("k", "Title", domain.SearchRequest{Query: "go"}, false)
	waitTerminal(t, d, "k")

	time.Sleep(20 * time.Millisecond)

	entry := d.RequestSearch("k", "Title", domain.SearchRequest{Query: "go"}, false)
	assert.Equal(t, cache.StateRunning, entry.State)
	waitTerminal(t, d, "k")
	assert.Equal(t, int64(2), searcher.calls.Load())
}

func TestPollStatusUnknownKey(t *testing.T) {
	d := New(cache.NewStore(time.Minute), &stubSearcher{}, nil, time.Minute)

	_, ok := d.PollStatus("never-dispatched")
	assert.False(t, ok)
}

func TestExecutionTimeoutFailsEntry(t *testing.T) {
	searcher := &stubSearcher{gate: make(chan struct{})} // never released
	d := New(cache.NewStore(time.Minute), searcher, nil, 30*time.Millisecond)

	d.RequestSearch("k", "Title", domain.SearchRequest{Query: "go"}, false)

	entry := waitTerminal(t, d, "k")
	assert.Equal(t, cache.StateFailed, entry.State)
	assert.Contains(t, entry.Err, "context deadline exceeded")
}
