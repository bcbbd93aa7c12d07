package suggest

import (
	"math"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/tchap/go-patricia/v2/patricia"
)

// HotCache keeps the most frequent words in a small dedicated trie so short
// prefixes do not pay for a full subtree walk on the main dictionary. Entries
// are evicted least-recently-used.
type HotCache struct {
	hotWords    map[string]int
	hotTrie     *patricia.Trie
	accessTime  map[string]int64
	accessCount int64
	maxWords    int
	mu          sync.RWMutex
}

// NewHotCache builds an empty cache bounded to maxWords entries.
func NewHotCache(maxWords int) *HotCache {
	return &HotCache{
		hotWords:   make(map[string]int, maxWords),
		hotTrie:    patricia.NewTrie(),
		accessTime: make(map[string]int64, maxWords),
		maxWords:   maxWords,
	}
}

// Search returns the cached words extending lowerPrefix that clear the
// frequency threshold. Hits refresh recency.
func (hc *HotCache) Search(lowerPrefix string, minThreshold int) []Suggestion {
	hc.mu.Lock()
	defer hc.mu.Unlock()

	var results []Suggestion
	err := hc.hotTrie.VisitSubtree(patricia.Prefix(lowerPrefix), func(p patricia.Prefix, item patricia.Item) error {
		word := string(p)
		if word == lowerPrefix {
			return nil
		}
		freq := itemFrequency(item, word)
		if freq < minThreshold {
			return nil
		}
		hc.markAccessed(word)
		results = append(results, Suggestion{Word: word, Frequency: freq})
		return nil
	})
	if err != nil {
		log.Errorf("Error searching hot cache: %v", err)
	}
	return results
}

// Populate seeds the cache from a dictionary trie, taking up to half the
// capacity so runtime hits keep room to promote.
func (hc *HotCache) Populate(trie *patricia.Trie) {
	if trie == nil {
		return
	}
	hc.mu.Lock()
	defer hc.mu.Unlock()

	count := 0
	maxInitial := hc.maxWords / 2

	trie.Visit(func(prefix patricia.Prefix, item patricia.Item) error {
		if count >= maxInitial {
			return nil
		}
		word := internString(string(prefix))
		freq := itemFrequency(item, word)

		if len(hc.hotWords) >= hc.maxWords {
			hc.evictLRU()
		}
		hc.hotWords[word] = freq
		hc.hotTrie.Insert(prefix, freq)
		hc.accessTime[word] = hc.nextAccessTime()
		count++
		return nil
	})

	log.Debugf("Populated hot cache with %d words", count)
}

// Stats returns cache counters.
func (hc *HotCache) Stats() map[string]int {
	hc.mu.RLock()
	defer hc.mu.RUnlock()
	return map[string]int{
		"hotCacheWords": len(hc.hotWords),
		"maxHotWords":   hc.maxWords,
		"hotCacheHits":  int(hc.accessCount),
	}
}

func (hc *HotCache) markAccessed(word string) {
	hc.accessTime[word] = hc.nextAccessTime()
}

func (hc *HotCache) nextAccessTime() int64 {
	hc.accessCount++
	return hc.accessCount
}

func (hc *HotCache) evictLRU() {
	var oldestWord string
	var oldestTime int64 = math.MaxInt64

	for word, accessTime := range hc.accessTime {
		if accessTime < oldestTime {
			oldestTime = accessTime
			oldestWord = word
		}
	}
	if oldestWord != "" {
		delete(hc.hotWords, oldestWord)
		delete(hc.accessTime, oldestWord)
		hc.hotTrie.Delete(patricia.Prefix(oldestWord))
	}
}
