package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(n int, title string) Entry {
	return Entry{Number: n, Title: title}
}

func TestCatalog_New_SortsByNumber(t *testing.T) {
	// Given: entries out of order
	c := New([]Entry{entry(791, "IP"), entry(1, "Host Software"), entry(793, "TCP")})

	// Then: numbers are ascending
	assert.Equal(t, []int{1, 791, 793}, c.Numbers())
	assert.Equal(t, 3, c.Len())
	assert.Equal(t, 793, c.Latest())
}

func TestCatalog_Apply_CountsAddedUpdatedUnchanged(t *testing.T) {
	// Given: a catalog with two entries
	c := New([]Entry{entry(1, "Host Software"), entry(2, "Old Title")})

	// When: merging a refreshed index
	stats := c.Apply([]Entry{entry(1, "Host Software"), entry(2, "New Title"), entry(3, "Documentation Conventions")})

	// Then: each case is counted once
	assert.Equal(t, MergeStats{Added: 1, Updated: 1, Unchanged: 1}, stats)

	got, ok := c.Get(2)
	require.True(t, ok)
	assert.Equal(t, "New Title", got.Title)
}

func TestCatalog_Apply_NeverRemoves(t *testing.T) {
	// Given: a catalog with RFC 1
	c := New([]Entry{entry(1, "Host Software")})

	// When: merging an index that lacks RFC 1
	c.Apply([]Entry{entry(2, "Host Software")})

	// Then: RFC 1 is still known
	_, ok := c.Get(1)
	assert.True(t, ok)
	assert.Equal(t, 2, c.Len())
}

func TestCatalog_Get_Unknown(t *testing.T) {
	c := New(nil)

	_, ok := c.Get(9999)
	assert.False(t, ok)
	assert.Equal(t, 0, c.Latest())
}

func TestCatalog_All_RestartsAndStopsEarly(t *testing.T) {
	// Given: three entries
	c := New([]Entry{entry(3, "c"), entry(1, "a"), entry(2, "b")})

	// When: iterating twice
	var first, second []int
	for e := range c.All() {
		first = append(first, e.Number)
	}
	for e := range c.All() {
		second = append(second, e.Number)
		if e.Number == 2 {
			break
		}
	}

	// Then: each pass starts from the beginning
	assert.Equal(t, []int{1, 2, 3}, first)
	assert.Equal(t, []int{1, 2}, second)
}

func TestEntry_SameAs_ComparesMetadata(t *testing.T) {
	date := time.Date(1981, time.September, 1, 0, 0, 0, 0, time.UTC)
	a := Entry{Number: 793, Title: "TCP", Date: date, Flags: map[string]string{"Status": "STANDARD"}}
	b := a
	b.Flags = map[string]string{"Status": "STANDARD"}

	assert.True(t, a.sameAs(b))

	b.Flags = map[string]string{"Status": "HISTORIC"}
	assert.False(t, a.sameAs(b))
	assert.Equal(t, "STANDARD", a.Status())
}
