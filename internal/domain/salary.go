package domain

// SalaryEstimate is one validated salary observation for a job title at a
// location, as reported by a single publisher.
type SalaryEstimate struct {
	JobTitle      string   `json:"job_title"`
	Location      string   `json:"location,omitempty"`
	Publisher     string   `json:"publisher_name,omitempty"`
	MinSalary     *float64 `json:"min_salary,omitempty"`
	MaxSalary     *float64 `json:"max_salary,omitempty"`
	MedianSalary  *float64 `json:"median_salary,omitempty"`
	Currency      string   `json:"salary_currency,omitempty"`
	Period        string   `json:"salary_period,omitempty"`
	AdditionalPay *float64 `json:"additional_pay,omitempty"`
}

// HasSalaryData reports whether the observation carries at least one salary
// figure. Observations without any are dropped during ingestion.
func (s SalaryEstimate) HasSalaryData() bool {
	return s.MinSalary != nil || s.MaxSalary != nil || s.MedianSalary != nil
}
