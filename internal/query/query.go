// Package query holds pure, stateless operations over validated result sets.
package query

import (
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/jobradar/search-service/internal/domain"
)

// FilterByMinSalary keeps jobs whose minimum salary is present, whose currency
// matches exactly (no cross-currency conversion), and whose value is at least
// minSalary.
func FilterByMinSalary(jobs []domain.Job, minSalary float64, currency string) []domain.Job {
	filtered := make([]domain.Job, 0, len(jobs))
	for _, j := range jobs {
		if j.MinSalary != nil && j.SalaryCurrency == currency && *j.MinSalary >= minSalary {
			filtered = append(filtered, j)
		}
	}
	return filtered
}

// salaryKey is the ranking value for one job: max salary if present, else min
// salary, else 0. Jobs with no salary data therefore sort to the bottom of a
// descending ranking and the top of an ascending one.
func salaryKey(j domain.Job) float64 {
	if j.MaxSalary != nil {
		return *j.MaxSalary
	}
	if j.MinSalary != nil {
		return *j.MinSalary
	}
	return 0
}

// SortBySalary returns the jobs ordered by salary key. The sort is stable:
// ties keep their input order, which fixes the displayed ranking.
func SortBySalary(jobs []domain.Job, descending bool) []domain.Job {
	sorted := make([]domain.Job, len(jobs))
	copy(sorted, jobs)

	sort.SliceStable(sorted, func(i, k int) bool {
		if descending {
			return salaryKey(sorted[i]) > salaryKey(sorted[k])
		}
		return salaryKey(sorted[i]) < salaryKey(sorted[k])
	})

	return sorted
}

// SalaryFetchFunc fetches the salary observations for one location.
type SalaryFetchFunc func(location string) ([]domain.SalaryEstimate, error)

// LocationStats summarises one location in a comparison.
type LocationStats struct {
	Count         int                     `json:"count"`
	AverageMedian float64                 `json:"average_median"`
	Salaries      []domain.SalaryEstimate `json:"salaries"`
}

// CompareLocations fetches observations per location concurrently and
// averages the median salaries. A location whose fetch fails, or that has no
// observation with a median, is left out of the result entirely.
func CompareLocations(locations []string, fetch SalaryFetchFunc) map[string]LocationStats {
	var (
		mu     sync.Mutex
		result = make(map[string]LocationStats, len(locations))
	)

	var g errgroup.Group
	for _, location := range locations {
		location := location
		g.Go(func() error {
			salaries, err := fetch(location)
			if err != nil {
				// Per-group failures skip the group, never the comparison.
				return nil
			}

			var sum float64
			var n int
			for _, s := range salaries {
				if s.MedianSalary != nil {
					sum += *s.MedianSalary
					n++
				}
			}
			if n == 0 {
				return nil
			}

			mu.Lock()
			result[location] = LocationStats{
				Count:         len(salaries),
				AverageMedian: sum / float64(n),
				Salaries:      salaries,
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // closures never return an error

	return result
}
