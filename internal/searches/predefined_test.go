package searches

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupKnownID(t *testing.T) {
	p, ok := Lookup("2")

	require.True(t, ok)
	assert.Equal(t, "2", p.ID)
	assert.Equal(t, "Software Engineer - India (Bangalore)", p.Title)
	// returned requests are already normalized
	assert.Equal(t, "in", p.Request.Country)
	assert.Equal(t, 1, p.Request.NumPages)
}

func TestLookupUnknownID(t *testing.T) {
	for _, id := range []string{"1", "11", "0", "", "abc"} {
		_, ok := Lookup(id)
		assert.False(t, ok, "id %q must not resolve", id)
	}
}

func TestAllOrderedNumerically(t *testing.T) {
	all := All()

	require.Len(t, all, 9)
	assert.Equal(t, "2", all[0].ID)
	assert.Equal(t, "9", all[7].ID)
	assert.Equal(t, "10", all[8].ID) // numeric, not lexicographic, order

	for _, p := range all {
		assert.NotEmpty(t, p.Title)
		assert.NotEmpty(t, p.Request.Query)
	}
}
