// Package suggest provides the dictionary-backed completion source: patricia
// trie traversals over frequency-ranked word lists, filtered and shaped into
// candidates the engine can rank.
package suggest

import (
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/tchap/go-patricia/v2/patricia"

	"github.com/bastiangx/typeahead/internal/utils"
	"github.com/bastiangx/typeahead/pkg/dictionary"
)

var stringPool = sync.Map{}

func internString(s string) string {
	if cached, exists := stringPool.Load(s); exists {
		return cached.(string)
	}
	stringPool.Store(s, s)
	return s
}

// Suggestion is one dictionary hit for a prefix.
type Suggestion struct {
	Word            string
	Frequency       int
	CorrectedPrefix string
}

// Completer serves prefix lookups from a patricia trie, either statically
// populated via AddWord or lazily fed by a chunk loader.
type Completer struct {
	trie          *patricia.Trie
	hotCache      *HotCache
	totalWords    int
	maxFrequency  int
	wordFreqs     map[string]int
	chunkLoader   *dictionary.ChunkLoader
	minFreq       int
	minFreqShort  int
	maxCandidates int
}

const defaultMaxHotWords = 20000

// NewCompleter builds an empty, statically populated completer.
func NewCompleter() *Completer {
	return &Completer{
		trie:         patricia.NewTrie(),
		wordFreqs:    make(map[string]int),
		minFreq:      20,
		minFreqShort: 24,
	}
}

// NewLazyCompleter builds a completer fed by chunk files in dirPath.
func NewLazyCompleter(dirPath string, chunkSize, maxWords int) *Completer {
	return &Completer{
		trie:         patricia.NewTrie(),
		hotCache:     NewHotCache(defaultMaxHotWords),
		wordFreqs:    make(map[string]int),
		chunkLoader:  dictionary.NewChunkLoader(dirPath, chunkSize, maxWords),
		minFreq:      20,
		minFreqShort: 24,
	}
}

// SetThresholds adjusts the frequency cutoffs. short applies to prefixes of
// one or two characters and repetitive input, where the subtree is huge.
func (c *Completer) SetThresholds(min, short int) {
	c.minFreq = min
	c.minFreqShort = short
}

// AddWord inserts a word with its frequency.
func (c *Completer) AddWord(word string, frequency int) {
	c.trie.Insert(patricia.Prefix(word), frequency)
	c.wordFreqs[word] = frequency
	c.totalWords++
	if frequency > c.maxFrequency {
		c.maxFrequency = frequency
	}
}

// MaxFrequency returns the highest frequency seen, for boost scaling.
func (c *Completer) MaxFrequency() int {
	if c.chunkLoader != nil {
		return c.chunkLoader.GetStats().MaxFrequency
	}
	return c.maxFrequency
}

// activeTrie picks the trie to search: the loader's when lazy, ours otherwise.
func (c *Completer) activeTrie() *patricia.Trie {
	if c.chunkLoader != nil {
		if trie := c.chunkLoader.GetTrie(); trie != nil {
			return trie
		}
	}
	return c.trie
}

// Complete returns up to limit suggestions extending prefix, ranked by
// frequency descending. The exact prefix itself is never suggested back.
func (c *Completer) Complete(prefix string, limit int) []Suggestion {
	lowerPrefix := strings.ToLower(prefix)

	threshold := c.minFreq
	if len(lowerPrefix) <= 2 || utils.IsRepetitive(lowerPrefix) {
		threshold = c.minFreqShort
	}

	var suggestions []Suggestion
	err := c.activeTrie().VisitSubtree(patricia.Prefix(lowerPrefix), func(p patricia.Prefix, item patricia.Item) error {
		word := internString(string(p))
		if word == lowerPrefix {
			return nil
		}

		freq := itemFrequency(item, word)
		if freq < threshold {
			return nil
		}

		suggestions = append(suggestions, Suggestion{
			Word:      utils.ApplyCapitalPattern(prefix, word),
			Frequency: freq,
		})
		return nil
	})
	if err != nil {
		log.Errorf("Error visiting trie subtree: %v", err)
		return nil
	}

	if c.hotCache != nil && len(suggestions) < limit {
		hot := c.hotCache.Search(lowerPrefix, threshold)
		for _, s := range hot {
			s.Word = utils.ApplyCapitalPattern(prefix, s.Word)
			suggestions = append(suggestions, s)
		}
	}

	filter := utils.NewSuggestionFilter(lowerPrefix)
	unique := suggestions[:0]
	for _, s := range suggestions {
		if filter.ShouldInclude(s.Word) {
			unique = append(unique, s)
		}
	}

	sort.SliceStable(unique, func(i, j int) bool {
		return unique[i].Frequency > unique[j].Frequency
	})

	if limit > 0 && len(unique) > limit {
		unique = unique[:limit]
	}
	return unique
}

// CompleteWithCorrection is Complete plus a typo fallback: when the exact
// prefix has no hits, the closest known word start within edit distance two
// is tried instead, and suggestions carry the corrected prefix.
func (c *Completer) CompleteWithCorrection(prefix string, limit int) []Suggestion {
	suggestions := c.Complete(prefix, limit)
	if len(suggestions) > 0 || len(prefix) < 3 {
		return suggestions
	}

	corrected, ok := c.correctPrefix(prefix)
	if !ok {
		return suggestions
	}

	log.Debugf("Corrected prefix %q to %q", prefix, corrected)
	suggestions = c.Complete(corrected, limit)
	for i := range suggestions {
		suggestions[i].CorrectedPrefix = corrected
	}
	return suggestions
}

// correctPrefix finds the nearest word start for a prefix with a likely typo.
func (c *Completer) correctPrefix(prefix string) (string, bool) {
	lower := strings.ToLower(prefix)

	seen := make(map[string]bool)
	best := ""
	bestDist := 3
	for word := range c.freqs() {
		if len(word) < len(lower) {
			continue
		}
		start := word[:len(lower)]
		if start == lower || seen[start] {
			continue
		}
		seen[start] = true
		dist := fuzzy.LevenshteinDistance(lower, start)
		if dist < bestDist || (dist == bestDist && best != "" && start < best) {
			best = start
			bestDist = dist
		}
	}
	return best, best != ""
}

func (c *Completer) freqs() map[string]int {
	if c.chunkLoader != nil {
		return c.chunkLoader.GetWordFreqs()
	}
	return c.wordFreqs
}

func itemFrequency(item patricia.Item, word string) int {
	switch v := item.(type) {
	case int:
		return v
	case int32:
		return int(v)
	case uint32:
		return int(v)
	default:
		log.Errorf("Unknown item type: %T for word %s", item, word)
		return 1
	}
}

// Initialize starts lazy loading when a chunk loader is configured.
func (c *Completer) Initialize() error {
	if c.chunkLoader == nil {
		return nil
	}
	if err := c.chunkLoader.StartLazyLoading(); err != nil {
		return err
	}
	if c.hotCache != nil {
		c.hotCache.Populate(c.chunkLoader.GetTrie())
	}
	return nil
}

// ChunkLoader exposes the loader for the IPC dictionary ops. Nil for static
// completers.
func (c *Completer) ChunkLoader() *dictionary.ChunkLoader {
	return c.chunkLoader
}

// RequestMoreWords queues additional chunks for loading.
func (c *Completer) RequestMoreWords(additionalWords int) error {
	if c.chunkLoader != nil {
		return c.chunkLoader.RequestMoreChunks(additionalWords)
	}
	return nil
}

// Stop terminates background loading.
func (c *Completer) Stop() {
	if c.chunkLoader != nil {
		c.chunkLoader.Stop()
	}
}

// Stats returns counters about the dictionary and caches.
func (c *Completer) Stats() map[string]int {
	stats := map[string]int{
		"totalWords":   c.totalWords,
		"maxFrequency": c.maxFrequency,
	}
	if c.hotCache != nil {
		for k, v := range c.hotCache.Stats() {
			stats[k] = v
		}
	}
	if c.chunkLoader != nil {
		loaderStats := c.chunkLoader.GetStats()
		stats["totalWords"] = loaderStats.TotalWords
		stats["maxFrequency"] = loaderStats.MaxFrequency
		stats["loadedChunks"] = loaderStats.LoadedChunks
		stats["availableChunks"] = loaderStats.AvailableChunks
	}
	return stats
}
