package provider

import (
	"context"
	"encoding/json"

	"github.com/jobradar/search-service/internal/domain"
)

// SearchProvider is the boundary to the upstream job search API. It returns
// raw, untyped records; validation happens in the ingestion pipeline.
type SearchProvider interface {
	SearchJobs(ctx context.Context, req domain.SearchRequest) ([]json.RawMessage, error)
	JobDetails(ctx context.Context, jobID, country string) ([]json.RawMessage, error)
	EstimatedSalary(ctx context.Context, jobTitle, location, experience string) ([]json.RawMessage, error)
}
