package query

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobradar/search-service/internal/domain"
)

func fp(v float64) *float64 { return &v }

func TestFilterByMinSalary(t *testing.T) {
	jobs := []domain.Job{
		{ID: "high-usd", MinSalary: fp(120000), SalaryCurrency: "USD"},
		{ID: "low-usd", MinSalary: fp(40000), SalaryCurrency: "USD"},
		{ID: "high-eur", MinSalary: fp(120000), SalaryCurrency: "EUR"},
		{ID: "no-salary"},
		{ID: "exact", MinSalary: fp(100000), SalaryCurrency: "USD"},
	}

	filtered := FilterByMinSalary(jobs, 100000, "USD")

	ids := make([]string, 0, len(filtered))
	for _, j := range filtered {
		ids = append(ids, j.ID)
	}
	// currency must match exactly; the threshold is inclusive
	assert.Equal(t, []string{"high-usd", "exact"}, ids)
}

func TestFilterByMinSalaryEmptyResult(t *testing.T) {
	jobs := []domain.Job{{ID: "a", MinSalary: fp(10), SalaryCurrency: "USD"}}

	filtered := FilterByMinSalary(jobs, 100, "USD")

	assert.NotNil(t, filtered)
	assert.Empty(t, filtered)
}

func TestSortBySalaryKeyFallback(t *testing.T) {
	jobs := []domain.Job{
		{ID: "none"},
		{ID: "max50", MaxSalary: fp(50), MinSalary: fp(1)},
		{ID: "min30", MinSalary: fp(30)},
	}

	desc := SortBySalary(jobs, true)
	require.Len(t, desc, 3)
	assert.Equal(t, "max50", desc[0].ID) // max wins over min
	assert.Equal(t, "min30", desc[1].ID) // min is the fallback key
	assert.Equal(t, "none", desc[2].ID)  // no data ranks as 0

	asc := SortBySalary(jobs, false)
	assert.Equal(t, "none", asc[0].ID)
	assert.Equal(t, "min30", asc[1].ID)
	assert.Equal(t, "max50", asc[2].ID)
}

func TestSortBySalaryStableAndNonMutating(t *testing.T) {
	jobs := []domain.Job{
		{ID: "first", MaxSalary: fp(100)},
		{ID: "second", MaxSalary: fp(100)},
		{ID: "third", MaxSalary: fp(200)},
	}

	sorted := SortBySalary(jobs, true)

	assert.Equal(t, "third", sorted[0].ID)
	// ties keep input order
	assert.Equal(t, "first", sorted[1].ID)
	assert.Equal(t, "second", sorted[2].ID)
	// input order untouched
	assert.Equal(t, "first", jobs[0].ID)
}

func TestCompareLocations(t *testing.T) {
	fetch := func(location string) ([]domain.SalaryEstimate, error) {
		switch location {
		case "bangalore":
			return []domain.SalaryEstimate{
				{MedianSalary: fp(100)},
				{MedianSalary: fp(300)},
				{MinSalary: fp(50)}, // no median, excluded from the average
			}, nil
		case "pune":
			return nil, errors.New("provider unavailable")
		case "chennai":
			return []domain.SalaryEstimate{{MinSalary: fp(80)}}, nil // no medians
		default:
			return nil, nil
		}
	}

	result := CompareLocations([]string{"bangalore", "pune", "chennai", "empty"}, fetch)

	// failed and median-less locations are omitted, not zeroed
	require.Len(t, result, 1)
	stats, ok := result["bangalore"]
	require.True(t, ok)
	assert.Equal(t, 3, stats.Count)
	assert.Equal(t, 200.0, stats.AverageMedian)
}

func TestCompareLocationsNoLocations(t *testing.T) {
	result := CompareLocations(nil, func(string) ([]domain.SalaryEstimate, error) {
		t.Fatal("fetch must not be called")
		return nil, nil
	})

	assert.Empty(t, result)
}
