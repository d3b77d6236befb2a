// Package ingest converts raw provider records into validated domain entities.
// Validation is per record: a bad record is counted and skipped, it never
// aborts the batch.
package ingest

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jobradar/search-service/internal/domain"
	pkglog "github.com/jobradar/search-service/pkg/log"
)

var errMissingID = errors.New("missing job_id")

// ParseJobs validates a raw batch and returns the valid jobs together with
// the number of rejected records.
func ParseJobs(ctx context.Context, raw []json.RawMessage) ([]domain.Job, int) {
	l := pkglog.Ctx(ctx)

	jobs := make([]domain.Job, 0, len(raw))
	rejected := 0
	for i, r := range raw {
		job, err := ParseJob(r)
		if err != nil {
			l.Warn().Err(err).Int("record", i+1).Msg("rejected job record")
			rejected++
			continue
		}
		jobs = append(jobs, job)
	}

	return jobs, rejected
}

// ParseJob validates a single raw record. The only hard requirement is a
// non-empty job_id; every other field is coerced individually and left at its
// zero value when absent or malformed.
func ParseJob(raw json.RawMessage) (domain.Job, error) {
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return domain.Job{}, err
	}

	id := asString(fields["job_id"])
	if id == "" {
		return domain.Job{}, errMissingID
	}

	return domain.Job{
		ID:                 id,
		Title:              asString(fields["job_title"]),
		EmployerName:       asString(fields["employer_name"]),
		Publisher:          asString(fields["job_publisher"]),
		City:               asString(fields["job_city"]),
		State:              asString(fields["job_state"]),
		Country:            asString(fields["job_country"]),
		IsRemote:           asBool(fields["job_is_remote"]),
		EmploymentType:     asString(fields["job_employment_type"]),
		MinSalary:          asFloat(fields["job_min_salary"]),
		MaxSalary:          asFloat(fields["job_max_salary"]),
		SalaryCurrency:     asString(fields["job_salary_currency"]),
		SalaryPeriod:       asString(fields["job_salary_period"]),
		Description:        asString(fields["job_description"]),
		ApplyLink:          asString(fields["job_apply_link"]),
		PostedAt:           asString(fields["job_posted_at_datetime_utc"]),
		RequiredExperience: asString(fields["job_required_experience"]),
		RequiredSkills:     asStringSlice(fields["job_required_skills"]),
		RequiredEducation:  asString(fields["job_required_education"]),
		Benefits:           asStringSlice(fields["job_benefits"]),
		GoogleLink:         asString(fields["job_google_link"]),
		ExpiresAt:          asString(fields["job_offer_expiration_datetime_utc"]),
	}, nil
}

// ParseSalaries validates raw salary observations. Records without any salary
// figure are rejected alongside structurally broken ones.
func ParseSalaries(ctx context.Context, raw []json.RawMessage) ([]domain.SalaryEstimate, int) {
	l := pkglog.Ctx(ctx)

	estimates := make([]domain.SalaryEstimate, 0, len(raw))
	rejected := 0
	for i, r := range raw {
		var fields map[string]any
		if err := json.Unmarshal(r, &fields); err != nil {
			l.Warn().Err(err).Int("record", i+1).Msg("rejected salary record")
			rejected++
			continue
		}

		est := domain.SalaryEstimate{
			JobTitle:      asString(fields["job_title"]),
			Location:      asString(fields["location"]),
			Publisher:     asString(fields["publisher_name"]),
			MinSalary:     asFloat(fields["min_salary"]),
			MaxSalary:     asFloat(fields["max_salary"]),
			MedianSalary:  asFloat(fields["median_salary"]),
			Currency:      asString(fields["salary_currency"]),
			Period:        asString(fields["salary_period"]),
			AdditionalPay: asFloat(fields["additional_pay"]),
		}
		if !est.HasSalaryData() {
			rejected++
			continue
		}
		estimates = append(estimates, est)
	}

	return estimates, rejected
}
