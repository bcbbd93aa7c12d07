// Package dictionary loads chunked binary word lists into a patricia trie.
//
// A chunk file (dict_0001.bin, dict_0002.bin, ...) starts with a uint32 entry
// count, followed by one record per word: uint16 length, the word bytes, and
// a uint32 frequency. Chunks are sorted by descending frequency at build time
// so loading the first N chunks yields the N most useful words.
package dictionary

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/tchap/go-patricia/v2/patricia"
)

// ChunkLoader manages lazy loading of dictionary chunks
type ChunkLoader struct {
	dirPath      string
	chunkSize    int
	maxWords     int
	loadedChunks map[int]bool
	chunkWords   map[int]map[string]int
	trie         *patricia.Trie
	wordFreqs    map[string]int
	totalWords   int
	maxFrequency int
	mu           sync.RWMutex
	loadingCh    chan int
	done         chan struct{}
	errorCount   map[int]int
	maxRetries   int
}

// ChunkInfo contains metadata about a chunk file
type ChunkInfo struct {
	ChunkID   int
	Filename  string
	WordCount int
}

// LoaderStats provides statistics about the loading process
type LoaderStats struct {
	TotalWords      int
	LoadedChunks    int
	AvailableChunks int
	MaxFrequency    int
	IsLoading       bool
}

// NewChunkLoader creates a new lazy chunk loader
func NewChunkLoader(dirPath string, chunkSize, maxWords int) *ChunkLoader {
	return &ChunkLoader{
		dirPath:      dirPath,
		chunkSize:    chunkSize,
		maxWords:     maxWords,
		loadedChunks: make(map[int]bool),
		chunkWords:   make(map[int]map[string]int),
		trie:         patricia.NewTrie(),
		wordFreqs:    make(map[string]int),
		loadingCh:    make(chan int, 10),
		done:         make(chan struct{}),
		errorCount:   make(map[int]int),
		maxRetries:   3,
	}
}

// GetAvailableChunks scans the directory for chunk files, sorted by ID.
func (cl *ChunkLoader) GetAvailableChunks() ([]ChunkInfo, error) {
	pattern := filepath.Join(cl.dirPath, "dict_*.bin")
	files, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to scan for chunk files: %w", err)
	}

	var chunks []ChunkInfo
	for _, file := range files {
		basename := filepath.Base(file)
		idStr := strings.TrimSuffix(strings.TrimPrefix(basename, "dict_"), ".bin")
		chunkID, err := strconv.Atoi(idStr)
		if err != nil {
			continue
		}
		wordCount, err := readChunkHeader(file)
		if err != nil {
			log.Warnf("Failed to read header of chunk %s: %v", file, err)
			continue
		}
		chunks = append(chunks, ChunkInfo{ChunkID: chunkID, Filename: file, WordCount: wordCount})
	}

	sort.Slice(chunks, func(i, j int) bool {
		return chunks[i].ChunkID < chunks[j].ChunkID
	})
	return chunks, nil
}

func readChunkHeader(filename string) (int, error) {
	file, err := os.Open(filename)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	var count uint32
	if err := binary.Read(file, binary.LittleEndian, &count); err != nil {
		return 0, err
	}
	return int(count), nil
}

// StartLazyLoading queues the initial chunks and spawns the background loader.
func (cl *ChunkLoader) StartLazyLoading() error {
	chunks, err := cl.GetAvailableChunks()
	if err != nil {
		return fmt.Errorf("failed to get available chunks: %w", err)
	}
	if len(chunks) == 0 {
		return fmt.Errorf("no chunk files found in %s", cl.dirPath)
	}

	log.Debugf("Found %d chunk files", len(chunks))
	go cl.backgroundLoader()

	wordsToLoad := cl.maxWords
	if wordsToLoad == 0 {
		for _, chunk := range chunks {
			wordsToLoad += chunk.WordCount
		}
	}

	queuedWords := 0
	for _, chunk := range chunks {
		if queuedWords >= wordsToLoad {
			break
		}
		select {
		case cl.loadingCh <- chunk.ChunkID:
			log.Debugf("Queued chunk %d for loading", chunk.ChunkID)
		case <-time.After(100 * time.Millisecond):
			log.Warnf("Loading queue full, chunk %d will be loaded later", chunk.ChunkID)
		}
		queuedWords += chunk.WordCount
	}
	return nil
}

// backgroundLoader drains the queue, retrying failed chunks with backoff.
func (cl *ChunkLoader) backgroundLoader() {
	for {
		select {
		case chunkID := <-cl.loadingCh:
			if err := cl.LoadChunk(chunkID); err != nil {
				log.Errorf("Failed to load chunk %d: %v", chunkID, err)

				cl.mu.Lock()
				cl.errorCount[chunkID]++
				errorCount := cl.errorCount[chunkID]
				cl.mu.Unlock()

				if errorCount < cl.maxRetries {
					log.Debugf("Retrying chunk %d (attempt %d/%d)", chunkID, errorCount+1, cl.maxRetries)
					go func(id int) {
						time.Sleep(time.Duration(errorCount) * time.Second)
						select {
						case cl.loadingCh <- id:
						case <-cl.done:
						}
					}(chunkID)
				} else {
					log.Errorf("Chunk %d failed %d times, giving up", chunkID, cl.maxRetries)
				}
			}
		case <-cl.done:
			return
		}
	}
}

// LoadChunk loads a specific chunk into memory. Already loaded chunks are a
// no-op.
func (cl *ChunkLoader) LoadChunk(chunkID int) error {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	if cl.loadedChunks[chunkID] {
		return nil
	}

	filename := filepath.Join(cl.dirPath, fmt.Sprintf("dict_%04d.bin", chunkID))
	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("failed to open chunk file %s: %w", filename, err)
	}
	defer file.Close()

	reader := bufio.NewReader(file)

	var totalEntries uint32
	if err := binary.Read(reader, binary.LittleEndian, &totalEntries); err != nil {
		return fmt.Errorf("failed to read chunk header: %w", err)
	}

	log.Debugf("Loading chunk %d with %d words", chunkID, totalEntries)

	words := make(map[string]int, totalEntries)
	for count := 0; count < int(totalEntries); count++ {
		var wordLen uint16
		if err := binary.Read(reader, binary.LittleEndian, &wordLen); err != nil {
			if err == io.EOF {
				break
			}
			return fmt.Errorf("failed to read word length: %w", err)
		}

		wordBytes := make([]byte, wordLen)
		if _, err := io.ReadFull(reader, wordBytes); err != nil {
			return fmt.Errorf("failed to read word: %w", err)
		}

		var freq uint32
		if err := binary.Read(reader, binary.LittleEndian, &freq); err != nil {
			return fmt.Errorf("failed to read frequency: %w", err)
		}

		word := string(wordBytes)
		score := int(freq)

		cl.trie.Insert(patricia.Prefix(word), score)
		cl.wordFreqs[word] = score
		words[word] = score

		cl.totalWords++
		if score > cl.maxFrequency {
			cl.maxFrequency = score
		}
	}

	cl.chunkWords[chunkID] = words
	cl.loadedChunks[chunkID] = true
	log.Debugf("Chunk %d loaded: %d words", chunkID, len(words))
	return nil
}

// UnloadChunk removes a specific chunk from memory and rebuilds the trie.
func (cl *ChunkLoader) UnloadChunk(chunkID int) error {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	if !cl.loadedChunks[chunkID] {
		return fmt.Errorf("chunk %d is not loaded", chunkID)
	}

	log.Debugf("Unloading chunk %d", chunkID)
	delete(cl.loadedChunks, chunkID)

	words, exists := cl.chunkWords[chunkID]
	if !exists {
		return fmt.Errorf("chunk %d word data not found", chunkID)
	}
	for word := range words {
		delete(cl.wordFreqs, word)
		cl.totalWords--
	}
	delete(cl.chunkWords, chunkID)

	cl.rebuildTrie()
	return nil
}

// SetChunkCount loads or unloads chunks until exactly the first targetChunks
// chunk files are resident. Used by the IPC dictionary ops.
func (cl *ChunkLoader) SetChunkCount(targetChunks int) error {
	if targetChunks < 1 {
		return fmt.Errorf("minimum dictionary size is 1 chunk")
	}
	chunks, err := cl.GetAvailableChunks()
	if err != nil {
		return err
	}
	if targetChunks > len(chunks) {
		return fmt.Errorf("only %d chunks available, requested %d", len(chunks), targetChunks)
	}

	for _, chunk := range chunks {
		cl.mu.RLock()
		loaded := cl.loadedChunks[chunk.ChunkID]
		cl.mu.RUnlock()

		if chunk.ChunkID <= targetChunks && !loaded {
			if err := cl.LoadChunk(chunk.ChunkID); err != nil {
				return err
			}
		}
		if chunk.ChunkID > targetChunks && loaded {
			if err := cl.UnloadChunk(chunk.ChunkID); err != nil {
				return err
			}
		}
	}
	return nil
}

// rebuildTrie reconstructs the trie from currently loaded chunks
func (cl *ChunkLoader) rebuildTrie() {
	cl.trie = patricia.NewTrie()
	cl.maxFrequency = 0

	for chunkID, loaded := range cl.loadedChunks {
		if !loaded {
			continue
		}
		for word, freq := range cl.chunkWords[chunkID] {
			cl.trie.Insert(patricia.Prefix(word), freq)
			if freq > cl.maxFrequency {
				cl.maxFrequency = freq
			}
		}
	}
	log.Debugf("Trie rebuilt with %d loaded chunks", len(cl.loadedChunks))
}

// GetTrie returns the loaded trie (thread-safe)
func (cl *ChunkLoader) GetTrie() *patricia.Trie {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return cl.trie
}

// GetWordFreqs returns a copy of the word frequency map (thread-safe)
func (cl *ChunkLoader) GetWordFreqs() map[string]int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	freqs := make(map[string]int, len(cl.wordFreqs))
	for k, v := range cl.wordFreqs {
		freqs[k] = v
	}
	return freqs
}

// GetStats returns current loading statistics
func (cl *ChunkLoader) GetStats() LoaderStats {
	chunks, _ := cl.GetAvailableChunks()

	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return LoaderStats{
		TotalWords:      cl.totalWords,
		LoadedChunks:    len(cl.loadedChunks),
		AvailableChunks: len(chunks),
		MaxFrequency:    cl.maxFrequency,
		IsLoading:       len(cl.loadingCh) > 0,
	}
}

// GetLoadedChunkIDs returns the currently loaded chunk IDs in order.
func (cl *ChunkLoader) GetLoadedChunkIDs() []int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()

	var ids []int
	for chunkID, loaded := range cl.loadedChunks {
		if loaded {
			ids = append(ids, chunkID)
		}
	}
	sort.Ints(ids)
	return ids
}

// RequestMoreChunks queues enough unloaded chunks to cover additionalWords.
func (cl *ChunkLoader) RequestMoreChunks(additionalWords int) error {
	chunks, err := cl.GetAvailableChunks()
	if err != nil {
		return err
	}

	queuedWords := 0
	for _, chunk := range chunks {
		if queuedWords >= additionalWords {
			break
		}
		cl.mu.RLock()
		loaded := cl.loadedChunks[chunk.ChunkID]
		cl.mu.RUnlock()
		if loaded {
			continue
		}
		select {
		case cl.loadingCh <- chunk.ChunkID:
			log.Debugf("Queued additional chunk %d for loading", chunk.ChunkID)
			queuedWords += chunk.WordCount
		default:
			log.Warnf("Loading queue full, cannot queue chunk %d", chunk.ChunkID)
		}
	}
	return nil
}

// Stop stops the background loading process
func (cl *ChunkLoader) Stop() {
	close(cl.done)
}
