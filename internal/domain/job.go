package domain

import (
	"strconv"
	"strings"
)

// Display fallbacks used by the dashboard when a field is absent.
const (
	FallbackNA           = "N/A"
	FallbackNotSpecified = "Not specified"
	FallbackApplyLink    = "#"
)

// Job is a validated job posting. Every field except ID may be absent:
// strings are empty when missing, numeric salary fields are nil.
type Job struct {
	ID                 string   `json:"job_id"`
	Title              string   `json:"job_title,omitempty"`
	EmployerName       string   `json:"employer_name,omitempty"`
	Publisher          string   `json:"job_publisher,omitempty"`
	City               string   `json:"job_city,omitempty"`
	State              string   `json:"job_state,omitempty"`
	Country            string   `json:"job_country,omitempty"`
	IsRemote           bool     `json:"job_is_remote"`
	EmploymentType     string   `json:"job_employment_type,omitempty"`
	MinSalary          *float64 `json:"job_min_salary,omitempty"`
	MaxSalary          *float64 `json:"job_max_salary,omitempty"`
	SalaryCurrency     string   `json:"job_salary_currency,omitempty"`
	SalaryPeriod       string   `json:"job_salary_period,omitempty"`
	Description        string   `json:"job_description,omitempty"`
	ApplyLink          string   `json:"job_apply_link,omitempty"`
	PostedAt           string   `json:"job_posted_at_datetime_utc,omitempty"`
	RequiredExperience string   `json:"job_required_experience,omitempty"`
	RequiredSkills     []string `json:"job_required_skills,omitempty"`
	RequiredEducation  string   `json:"job_required_education,omitempty"`
	Benefits           []string `json:"job_benefits,omitempty"`
	GoogleLink         string   `json:"job_google_link,omitempty"`
	ExpiresAt          string   `json:"job_offer_expiration_datetime_utc,omitempty"`
}

// Location joins city, state and country into a display string.
func (j Job) Location() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{j.City, j.State, j.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return FallbackNA
	}
	return strings.Join(parts, ", ")
}

// SalaryRange formats the salary bounds, or a fallback when no data exists.
func (j Job) SalaryRange() string {
	if j.MinSalary == nil && j.MaxSalary == nil {
		return FallbackNotSpecified
	}

	currency := j.SalaryCurrency
	if currency == "" {
		currency = "USD"
	}

	var b strings.Builder
	b.WriteString(currency)
	b.WriteString(" ")
	switch {
	case j.MinSalary != nil && j.MaxSalary != nil:
		b.WriteString(formatAmount(*j.MinSalary))
		b.WriteString(" - ")
		b.WriteString(formatAmount(*j.MaxSalary))
	case j.MinSalary != nil:
		b.WriteString("from ")
		b.WriteString(formatAmount(*j.MinSalary))
	default:
		b.WriteString("up to ")
		b.WriteString(formatAmount(*j.MaxSalary))
	}
	if j.SalaryPeriod != "" {
		b.WriteString(" / ")
		b.WriteString(strings.ToLower(j.SalaryPeriod))
	}
	return b.String()
}

// ShortDescription truncates the description to at most n runes.
func (j Job) ShortDescription(n int) string {
	if j.Description == "" {
		return ""
	}
	runes := []rune(j.Description)
	if len(runes) <= n {
		return j.Description
	}
	return strings.TrimSpace(string(runes[:n])) + "..."
}

// JobView is the dashboard-facing projection of a Job, with every optional
// field replaced by its display fallback.
type JobView struct {
	ID                 string `json:"id"`
	Title              string `json:"title"`
	Company            string `json:"company"`
	Location           string `json:"location"`
	Salary             string `json:"salary"`
	EmploymentType     string `json:"employment_type"`
	IsRemote           bool   `json:"is_remote"`
	PostedAt           string `json:"posted_at"`
	Description        string `json:"description"`
	RequiredExperience string `json:"required_experience"`
	RequiredEducation  string `json:"required_education"`
	ApplyLink          string `json:"apply_link"`
}

// View builds the display projection for one job.
func (j Job) View() JobView {
	return JobView{
		ID:                 j.ID,
		Title:              orFallback(j.Title, FallbackNA),
		Company:            orFallback(j.EmployerName, FallbackNA),
		Location:           j.Location(),
		Salary:             j.SalaryRange(),
		EmploymentType:     orFallback(j.EmploymentType, FallbackNA),
		IsRemote:           j.IsRemote,
		PostedAt:           orFallback(j.PostedAt, FallbackNA),
		Description:        j.ShortDescription(500),
		RequiredExperience: orFallback(j.RequiredExperience, FallbackNotSpecified),
		RequiredEducation:  orFallback(j.RequiredEducation, FallbackNotSpecified),
		ApplyLink:          orFallback(j.ApplyLink, FallbackApplyLink),
	}
}

// Views maps a payload to its display projections, preserving order.
func Views(jobs []Job) []JobView {
	views := make([]JobView, 0, len(jobs))
	for _, j := range jobs {
		views = append(views, j.View())
	}
	return views
}

func orFallback(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
