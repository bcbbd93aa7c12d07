package dictionary

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
)

// maxChunkWords is a sanity bound on the header count of a single chunk.
const maxChunkWords = 1000000

// WordEntry is one record of a chunk file.
type WordEntry struct {
	Word      string
	Frequency int
}

// ChunkFilename returns the canonical name for a chunk ID (dict_0001.bin).
func ChunkFilename(dirPath string, chunkID int) string {
	return filepath.Join(dirPath, fmt.Sprintf("dict_%04d.bin", chunkID))
}

// WriteChunk writes entries as one chunk file in the binary chunk format.
func WriteChunk(filename string, entries []WordEntry) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create chunk file %s: %w", filename, err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	if err := binary.Write(w, binary.LittleEndian, uint32(len(entries))); err != nil {
		return fmt.Errorf("failed to write chunk header: %w", err)
	}
	for _, e := range entries {
		if len(e.Word) > int(^uint16(0)) {
			return fmt.Errorf("word too long for chunk format: %d bytes", len(e.Word))
		}
		if err := binary.Write(w, binary.LittleEndian, uint16(len(e.Word))); err != nil {
			return err
		}
		if _, err := w.WriteString(e.Word); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, uint32(e.Frequency)); err != nil {
			return err
		}
	}
	return w.Flush()
}

// ValidateChunkFile checks that a file looks like a readable chunk: correct
// naming, a present header, and a sane word count.
func ValidateChunkFile(filename string) error {
	basename := strings.ToLower(filepath.Base(filename))
	if !strings.HasPrefix(basename, "dict_") || !strings.HasSuffix(basename, ".bin") {
		return fmt.Errorf("file %s does not match the chunk naming pattern dict_NNNN.bin", filename)
	}

	fileInfo, err := os.Stat(filename)
	if err != nil {
		return fmt.Errorf("failed to stat file %s: %w", filename, err)
	}
	if fileInfo.Size() < 4 {
		return fmt.Errorf("file %s is too small (%d bytes) to hold a chunk header", filename, fileInfo.Size())
	}

	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("failed to open file %s: %w", filename, err)
	}
	defer file.Close()

	var wordCount uint32
	if err := binary.Read(file, binary.LittleEndian, &wordCount); err != nil {
		return fmt.Errorf("failed to read header from %s: %w", filename, err)
	}
	if wordCount > maxChunkWords {
		return fmt.Errorf("suspicious word count in %s: %d (too large)", filename, wordCount)
	}

	log.Debugf("Chunk file %s validated: %d words", filename, wordCount)
	return nil
}
