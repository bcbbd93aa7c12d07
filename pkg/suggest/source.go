package suggest

import (
	"context"
	"unicode"
	"unicode/utf8"

	"github.com/bastiangx/typeahead/internal/utils"
	"github.com/bastiangx/typeahead/pkg/complete"
)

// DictionarySource adapts a Completer to the engine's Source contract: it
// finds the word fragment ending at the cursor, asks the dictionary for
// completions, and shapes them into boosted candidates.
type DictionarySource struct {
	completer *Completer
	limit     int
	filter    bool
}

// NewDictionarySource wraps a completer. limit caps the raw candidates handed
// to the rank engine per query; filter rejects junk fragments (numbers,
// symbols, repeated characters).
func NewDictionarySource(completer *Completer, limit int, filter bool) *DictionarySource {
	if limit <= 0 {
		limit = 64
	}
	return &DictionarySource{completer: completer, limit: limit, filter: filter}
}

// Fetch implements complete.Source.
func (s *DictionarySource) Fetch(ctx context.Context, cx complete.Context) (*complete.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	from := wordStart(string(cx.Doc), cx.Pos)
	fragment := cx.Doc.Slice(from, cx.Pos)
	if fragment == "" {
		return nil, nil
	}
	if s.filter && !utils.IsValidInput(fragment) && !cx.Explicit {
		return nil, nil
	}

	suggestions := s.completer.CompleteWithCorrection(fragment, s.limit)
	if len(suggestions) == 0 {
		return nil, nil
	}

	maxFreq := s.completer.MaxFrequency()
	options := make([]complete.Candidate, 0, len(suggestions))
	for _, sg := range suggestions {
		options = append(options, complete.Candidate{
			Label:  sg.Word,
			Detail: utils.FormatWithCommas(sg.Frequency),
			Type:   "word",
			Boost:  frequencyBoost(sg.Frequency, maxFreq),
		})
	}

	return &complete.Result{
		From:    from,
		Options: options,
		Filter:  true,
		// Keep the result alive while the cursor stays inside one word.
		ValidFor: func(text string, from, to int) bool {
			return isWordFragment(text)
		},
	}, nil
}

// wordStart walks back from pos to the start of the word the cursor sits in.
func wordStart(text string, pos int) int {
	if pos > len(text) {
		pos = len(text)
	}
	start := pos
	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(text[:start])
		if !isWordRune(r) {
			break
		}
		start -= size
	}
	return start
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\''
}

func isWordFragment(text string) bool {
	if text == "" {
		return false
	}
	for _, r := range text {
		if !isWordRune(r) {
			return false
		}
	}
	return true
}

// frequencyBoost maps a frequency onto the engine's boost scale. The most
// frequent word gets 99, everything else proportionally less.
func frequencyBoost(freq, maxFreq int) int {
	if maxFreq <= 0 || freq <= 0 {
		return 0
	}
	boost := freq * 99 / maxFreq
	if boost > 99 {
		boost = 99
	}
	return boost
}
