package service

import (
	"context"

	"github.com/jobradar/search-service/internal/domain"
	"github.com/jobradar/search-service/internal/query"
)

// JobService defines the business logic over job searches.
type JobService interface {
	// SearchJobs runs one upstream search and returns the validated jobs
	// together with the number of rejected records.
	SearchJobs(ctx context.Context, req domain.SearchRequest) ([]domain.Job, int, error)
	// JobDetails fetches and validates a single posting.
	JobDetails(ctx context.Context, jobID, country string) (domain.Job, error)
}

// SalaryService defines the business logic over salary estimates.
type SalaryService interface {
	// EstimatedSalary returns validated salary observations for a job title.
	EstimatedSalary(ctx context.Context, jobTitle, location, experience string) ([]domain.SalaryEstimate, error)
	// CompareLocations averages median salaries per location; locations that
	// fail or have no medians are omitted.
	CompareLocations(ctx context.Context, jobTitle string, locations []string, experience string) map[string]query.LocationStats
}
