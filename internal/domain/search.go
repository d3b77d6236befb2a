package domain

import (
	"fmt"
	"strings"
)

const (
	defaultCountry    = "in"
	defaultDatePosted = "week"
	maxPages          = 10
)

// SearchRequest is the query specification sent to the upstream job API.
type SearchRequest struct {
	Query           string `json:"query" binding:"required"`
	Country         string `json:"country"`
	DatePosted      string `json:"date_posted"`
	RemoteOnly      bool   `json:"work_from_home"`
	EmploymentTypes string `json:"employment_types"`
	NumPages        int    `json:"num_pages"`
}

// Normalize fills defaults and clamps the page count to [1, 10].
func (r *SearchRequest) Normalize() {
	r.Query = strings.TrimSpace(r.Query)
	if r.Country == "" {
		r.Country = defaultCountry
	}
	if r.DatePosted == "" {
		r.DatePosted = defaultDatePosted
	}
	if r.NumPages < 1 {
		r.NumPages = 1
	}
	if r.NumPages > maxPages {
		r.NumPages = maxPages
	}
}

// CacheKey derives a deterministic cache key from the normalized request, so
// identical custom searches share a single cache entry.
func (r SearchRequest) CacheKey() string {
	return fmt.Sprintf("custom:%s:%s:%s:%t:%s:%d",
		strings.ToLower(strings.TrimSpace(r.Query)),
		r.Country, r.DatePosted, r.RemoteOnly, r.EmploymentTypes, r.NumPages)
}
