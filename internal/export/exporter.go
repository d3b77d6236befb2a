// Package export serializes cached result sets to CSV or JSON and writes
// them through the storage backend.
package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jobradar/search-service/internal/domain"
	"github.com/jobradar/search-service/pkg/storage"
)

const exportPrefix = "exports"

// csvColumns fixes the CSV layout. Order is part of the file contract.
var csvColumns = []string{
	"job_id", "title", "employer_name", "city", "state", "country",
	"is_remote", "employment_type", "min_salary", "max_salary",
	"salary_currency", "salary_period", "description", "apply_link",
	"posted_at", "publisher", "required_experience", "required_skills",
	"required_education", "benefits", "google_link", "expires_at",
}

// Exporter writes export artifacts.
type Exporter struct {
	store storage.Storage

	now func() time.Time
}

// New creates an Exporter on top of the given storage backend.
func New(store storage.Storage) *Exporter {
	return &Exporter{store: store, now: time.Now}
}

// JobsCSV writes the jobs as CSV and returns the artifact key.
func (e *Exporter) JobsCSV(ctx context.Context, jobs []domain.Job, baseName string) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvColumns); err != nil {
		return "", fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, j := range jobs {
		if err := w.Write(csvRow(j)); err != nil {
			return "", fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to flush csv: %w", err)
	}

	key := e.fileKey(baseName, "csv")
	if err := e.store.Write(ctx, key, &buf, int64(buf.Len()), "text/csv"); err != nil {
		return "", err
	}
	return key, nil
}

// JobsJSON writes the jobs as indented JSON and returns the artifact key.
func (e *Exporter) JobsJSON(ctx context.Context, jobs []domain.Job, baseName string) (string, error) {
	data, err := json.MarshalIndent(jobs, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal jobs: %w", err)
	}

	key := e.fileKey(baseName, "json")
	if err := e.store.Write(ctx, key, bytes.NewReader(data), int64(len(data)), "application/json"); err != nil {
		return "", err
	}
	return key, nil
}

// URL resolves an artifact key to a download URL.
func (e *Exporter) URL(ctx context.Context, key string) (string, error) {
	return e.store.GetURL(ctx, key, 1*time.Hour)
}

// fileKey builds "exports/<base>_<timestamp>.<ext>" with a sanitized base.
func (e *Exporter) fileKey(baseName, ext string) string {
	base := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, baseName)
	return fmt.Sprintf("%s/%s_%s.%s", exportPrefix, base, e.now().Format("20060102_150405"), ext)
}

func csvRow(j domain.Job) []string {
	return []string{
		j.ID,
		j.Title,
		j.EmployerName,
		j.City,
		j.State,
		j.Country,
		strconv.FormatBool(j.IsRemote),
		j.EmploymentType,
		floatField(j.MinSalary),
		floatField(j.MaxSalary),
		j.SalaryCurrency,
		j.SalaryPeriod,
		j.ShortDescription(500),
		j.ApplyLink,
		j.PostedAt,
		j.Publisher,
		j.RequiredExperience,
		strings.Join(j.RequiredSkills, ", "),
		j.RequiredEducation,
		strings.Join(j.Benefits, ", "),
		j.GoogleLink,
		j.ExpiresAt,
	}
}

func floatField(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
