package service

import (
	"context"

	"github.com/jobradar/search-service/internal/domain"
	"github.com/jobradar/search-service/internal/ingest"
	"github.com/jobradar/search-service/internal/provider"
	"github.com/jobradar/search-service/internal/query"
	"github.com/jobradar/search-service/internal/usage"
	pkglog "github.com/jobradar/search-service/pkg/log"
)

type salaryServiceImpl struct {
	provider provider.SearchProvider
	usage    usage.Tracker
}

// NewSalaryService creates a SalaryService guarded by the usage tracker.
func NewSalaryService(p provider.SearchProvider, tracker usage.Tracker) SalaryService {
	if tracker == nil {
		tracker = usage.Disabled{}
	}
	return &salaryServiceImpl{provider: p, usage: tracker}
}

func (s *salaryServiceImpl) EstimatedSalary(ctx context.Context, jobTitle, location, experience string) ([]domain.SalaryEstimate, error) {
	decision, err := s.usage.Allow(ctx)
	if err != nil {
		pkglog.Ctx(ctx).Warn().Err(err).Msg("usage check unavailable, allowing call")
	} else if !decision.Allowed {
		return nil, &provider.Error{Kind: provider.KindQuota, Message: decision.Reason}
	}

	raw, err := s.provider.EstimatedSalary(ctx, jobTitle, location, experience)
	if err != nil {
		return nil, err
	}
	if err := s.usage.Record(ctx, jobTitle); err != nil {
		pkglog.Ctx(ctx).Warn().Err(err).Msg("failed to record API usage")
	}

	estimates, rejected := ingest.ParseSalaries(ctx, raw)
	if rejected > 0 {
		pkglog.Ctx(ctx).Debug().Int("rejected", rejected).Msg("dropped salary records without data")
	}

	return estimates, nil
}

func (s *salaryServiceImpl) CompareLocations(ctx context.Context, jobTitle string, locations []string, experience string) map[string]query.LocationStats {
	return query.CompareLocations(locations, func(location string) ([]domain.SalaryEstimate, error) {
		return s.EstimatedSalary(ctx, jobTitle, location, experience)
	})
}
