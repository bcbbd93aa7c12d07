package suggest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCompleter(words map[string]int) *Completer {
	c := NewCompleter()
	c.SetThresholds(0, 0)
	for w, f := range words {
		c.AddWord(w, f)
	}
	return c
}

func words(suggestions []Suggestion) []string {
	out := make([]string, len(suggestions))
	for i, s := range suggestions {
		out[i] = s.Word
	}
	return out
}

func TestCompleteRanksByFrequency(t *testing.T) {
	c := testCompleter(map[string]int{
		"the":     5000,
		"them":    1200,
		"theme":   300,
		"theater": 800,
		"apple":   900,
	})

	suggestions := c.Complete("the", 10)

	assert.Equal(t, []string{"them", "theater", "theme"}, words(suggestions),
		"frequency descending, exact prefix excluded")
}

func TestCompleteRespectsLimit(t *testing.T) {
	c := testCompleter(map[string]int{"aa": 1, "ab": 2, "ac": 3, "ad": 4})

	suggestions := c.Complete("a", 2)

	require.Len(t, suggestions, 2)
	assert.Equal(t, "ad", suggestions[0].Word)
}

func TestCompleteShortPrefixThreshold(t *testing.T) {
	c := testCompleter(map[string]int{"and": 100, "ant": 30})
	c.SetThresholds(20, 50)

	short := c.Complete("an", 10)
	assert.Equal(t, []string{"and"}, words(short), "short prefixes need the higher cutoff")

	long := c.Complete("ant", 10)
	assert.Empty(t, long, "only exact match exists below the subtree")
}

func TestCompletePreservesCapitalPattern(t *testing.T) {
	c := testCompleter(map[string]int{"america": 500})

	suggestions := c.Complete("Ame", 10)

	require.Len(t, suggestions, 1)
	assert.Equal(t, "America", suggestions[0].Word)
}

func TestCompleteWithCorrection(t *testing.T) {
	c := testCompleter(map[string]int{"their": 900, "theirs": 400})

	// "thier" is a transposition of "their"; no word starts with it.
	suggestions := c.CompleteWithCorrection("thier", 10)

	require.NotEmpty(t, suggestions)
	assert.Equal(t, "theirs", suggestions[0].Word)
	assert.Equal(t, "their", suggestions[0].CorrectedPrefix)
}

func TestCompleteWithCorrectionLeavesShortAlone(t *testing.T) {
	c := testCompleter(map[string]int{"the": 100})

	assert.Empty(t, c.CompleteWithCorrection("xq", 10),
		"no correction attempts for very short prefixes")
}

func TestHotCacheLRU(t *testing.T) {
	hc := NewHotCache(2)
	trie := testCompleter(map[string]int{"aa": 10, "ab": 20, "ac": 30}).trie
	hc.Populate(trie)

	stats := hc.Stats()
	assert.Equal(t, 1, stats["hotCacheWords"], "populate fills half the capacity")

	results := hc.Search("a", 0)
	assert.NotEmpty(t, results)
}
