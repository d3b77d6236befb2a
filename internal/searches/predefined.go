// Package searches holds the predefined search catalogue shown on the
// dashboard. Keys double as cache keys.
package searches

import (
	"sort"
	"strconv"

	"github.com/jobradar/search-service/internal/domain"
)

// Predefined is one catalogue entry.
type Predefined struct {
	ID      string               `json:"id"`
	Title   string               `json:"title"`
	Request domain.SearchRequest `json:"-"`
}

// India-focused tech role searches. IDs are kept stable because clients and
// bookmarks reference them directly.
var catalogue = map[string]Predefined{
	"2": {
		ID:    "2",
		Title: "Software Engineer - India (Bangalore)",
		Request: domain.SearchRequest{
			Query: "software engineer india bangalore", Country: "in",
			EmploymentTypes: "FULLTIME", DatePosted: "week",
		},
	},
	"3": {
		ID:    "3",
		Title: "Data Scientist - India (Machine Learning)",
		Request: domain.SearchRequest{
			Query: "data scientist machine learning india", Country: "in",
			EmploymentTypes: "FULLTIME", DatePosted: "week",
		},
	},
	"4": {
		ID:    "4",
		Title: "Frontend Developer - India (React/Angular)",
		Request: domain.SearchRequest{
			Query: "frontend developer react angular india", Country: "in",
			EmploymentTypes: "FULLTIME", DatePosted: "week",
		},
	},
	"5": {
		ID:    "5",
		Title: "Backend Developer - India (Python/Java)",
		Request: domain.SearchRequest{
			Query: "backend developer python java india", Country: "in",
			EmploymentTypes: "FULLTIME", DatePosted: "week",
		},
	},
	"6": {
		ID:    "6",
		Title: "DevOps Engineer - India (Kubernetes)",
		Request: domain.SearchRequest{
			Query: "devops engineer kubernetes docker india", Country: "in",
			EmploymentTypes: "FULLTIME", DatePosted: "week",
		},
	},
	"7": {
		ID:    "7",
		Title: "Full Stack Developer - India (Node.js)",
		Request: domain.SearchRequest{
			Query: "full stack developer nodejs react india", Country: "in",
			EmploymentTypes: "FULLTIME", DatePosted: "week",
		},
	},
	"8": {
		ID:    "8",
		Title: "Machine Learning Engineer - India",
		Request: domain.SearchRequest{
			Query: "machine learning engineer tensorflow india", Country: "in",
			EmploymentTypes: "FULLTIME", DatePosted: "3days",
		},
	},
	"9": {
		ID:    "9",
		Title: "Project Manager - India (Scrum/Agile)",
		Request: domain.SearchRequest{
			Query: "project manager scrum agile india", Country: "in",
			EmploymentTypes: "FULLTIME", DatePosted: "week",
		},
	},
	"10": {
		ID:    "10",
		Title: "Cloud Engineer - India (AWS/GCP/Azure)",
		Request: domain.SearchRequest{
			Query: "cloud engineer aws gcp azure india", Country: "in",
			EmploymentTypes: "FULLTIME", DatePosted: "week",
		},
	},
}

// Lookup returns the predefined search for id. The returned request is
// normalized and safe to dispatch.
func Lookup(id string) (Predefined, bool) {
	p, ok := catalogue[id]
	if !ok {
		return Predefined{}, false
	}
	p.Request.Normalize()
	return p, true
}

// All returns the catalogue ordered by numeric id.
func All() []Predefined {
	out := make([]Predefined, 0, len(catalogue))
	for _, p := range catalogue {
		p.Request.Normalize()
		out = append(out, p)
	}
	sort.Slice(out, func(i, k int) bool {
		a, _ := strconv.Atoi(out[i].ID)
		b, _ := strconv.Atoi(out[k].ID)
		return a < b
	})
	return out
}
