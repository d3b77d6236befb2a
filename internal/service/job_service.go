package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jobradar/search-service/internal/domain"
	"github.com/jobradar/search-service/internal/ingest"
	"github.com/jobradar/search-service/internal/provider"
	"github.com/jobradar/search-service/internal/usage"
	pkglog "github.com/jobradar/search-service/pkg/log"
)

// ErrNoResults is returned by JobDetails when the posting does not exist.
var ErrNoResults = errors.New("no matching record")

type jobServiceImpl struct {
	provider provider.SearchProvider
	usage    usage.Tracker
}

// NewJobService creates a JobService guarded by the usage tracker.
func NewJobService(p provider.SearchProvider, tracker usage.Tracker) JobService {
	if tracker == nil {
		tracker = usage.Disabled{}
	}
	return &jobServiceImpl{provider: p, usage: tracker}
}

func (s *jobServiceImpl) SearchJobs(ctx context.Context, req domain.SearchRequest) ([]domain.Job, int, error) {
	l := pkglog.Ctx(ctx)

	if err := s.allow(ctx); err != nil {
		return nil, 0, err
	}

	raw, err := s.provider.SearchJobs(ctx, req)
	if err != nil {
		return nil, 0, err
	}
	s.record(ctx, req.Query)

	jobs, rejected := ingest.ParseJobs(ctx, raw)
	l.Info().
		Str(pkglog.FieldQuery, req.Query).
		Int("valid", len(jobs)).
		Int("rejected", rejected).
		Msg("search batch ingested")

	return jobs, rejected, nil
}

func (s *jobServiceImpl) JobDetails(ctx context.Context, jobID, country string) (domain.Job, error) {
	if err := s.allow(ctx); err != nil {
		return domain.Job{}, err
	}

	raw, err := s.provider.JobDetails(ctx, jobID, country)
	if err != nil {
		return domain.Job{}, err
	}
	s.record(ctx, "")

	if len(raw) == 0 {
		return domain.Job{}, ErrNoResults
	}

	job, err := ingest.ParseJob(raw[0])
	if err != nil {
		return domain.Job{}, fmt.Errorf("invalid job record: %w", err)
	}
	return job, nil
}

// allow consults the quota tracker; an exhausted budget fails the call the
// same way a provider error would.
func (s *jobServiceImpl) allow(ctx context.Context) error {
	decision, err := s.usage.Allow(ctx)
	if err != nil {
		// Counter unavailability must not take the service down.
		pkglog.Ctx(ctx).Warn().Err(err).Msg("usage check unavailable, allowing call")
		return nil
	}
	if !decision.Allowed {
		return &provider.Error{Kind: provider.KindQuota, Message: decision.Reason}
	}
	return nil
}

func (s *jobServiceImpl) record(ctx context.Context, keyword string) {
	if err := s.usage.Record(ctx, keyword); err != nil {
		pkglog.Ctx(ctx).Warn().Err(err).Msg("failed to record API usage")
	}
}
