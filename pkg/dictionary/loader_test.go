package dictionary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tchap/go-patricia/v2/patricia"
)

func writeTestChunks(t *testing.T, dir string, chunks ...[]WordEntry) {
	t.Helper()
	for i, entries := range chunks {
		require.NoError(t, WriteChunk(ChunkFilename(dir, i+1), entries))
	}
}

func TestChunkRoundTrip(t *testing.T) {
	dir := t.TempDir()
	writeTestChunks(t, dir, []WordEntry{
		{Word: "the", Frequency: 5000},
		{Word: "them", Frequency: 1200},
		{Word: "theme", Frequency: 300},
	})

	cl := NewChunkLoader(dir, 10, 0)
	require.NoError(t, cl.LoadChunk(1))

	freqs := cl.GetWordFreqs()
	assert.Equal(t, 5000, freqs["the"])
	assert.Equal(t, 300, freqs["theme"])

	var visited []string
	err := cl.GetTrie().VisitSubtree(patricia.Prefix("them"), func(p patricia.Prefix, item patricia.Item) error {
		visited = append(visited, string(p))
		return nil
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"them", "theme"}, visited)

	stats := cl.GetStats()
	assert.Equal(t, 3, stats.TotalWords)
	assert.Equal(t, 1, stats.LoadedChunks)
	assert.Equal(t, 5000, stats.MaxFrequency)
}

func TestGetAvailableChunksSorted(t *testing.T) {
	dir := t.TempDir()
	writeTestChunks(t, dir,
		[]WordEntry{{Word: "alpha", Frequency: 10}},
		[]WordEntry{{Word: "beta", Frequency: 20}},
		[]WordEntry{{Word: "gamma", Frequency: 30}},
	)

	cl := NewChunkLoader(dir, 10, 0)
	chunks, err := cl.GetAvailableChunks()
	require.NoError(t, err)

	require.Len(t, chunks, 3)
	for i, chunk := range chunks {
		assert.Equal(t, i+1, chunk.ChunkID)
		assert.Equal(t, 1, chunk.WordCount)
	}
}

func TestSetChunkCountLoadsAndUnloads(t *testing.T) {
	dir := t.TempDir()
	writeTestChunks(t, dir,
		[]WordEntry{{Word: "aa", Frequency: 10}},
		[]WordEntry{{Word: "bb", Frequency: 20}},
		[]WordEntry{{Word: "cc", Frequency: 30}},
	)

	cl := NewChunkLoader(dir, 10, 0)

	require.NoError(t, cl.SetChunkCount(3))
	assert.Equal(t, []int{1, 2, 3}, cl.GetLoadedChunkIDs())
	assert.Contains(t, cl.GetWordFreqs(), "cc")

	require.NoError(t, cl.SetChunkCount(1))
	assert.Equal(t, []int{1}, cl.GetLoadedChunkIDs())
	freqs := cl.GetWordFreqs()
	assert.Contains(t, freqs, "aa")
	assert.NotContains(t, freqs, "bb")

	assert.Error(t, cl.SetChunkCount(0))
	assert.Error(t, cl.SetChunkCount(9))
}

func TestValidateChunkFile(t *testing.T) {
	dir := t.TempDir()
	writeTestChunks(t, dir, []WordEntry{{Word: "ok", Frequency: 1}})

	assert.NoError(t, ValidateChunkFile(ChunkFilename(dir, 1)))
	assert.Error(t, ValidateChunkFile(ChunkFilename(dir, 2)), "missing file")
}
