package utils

import "strings"

// SuggestionFilter drops case-insensitive duplicates from a suggestion
// stream, including the word the user already typed.
type SuggestionFilter struct {
	seen map[string]bool
}

// NewSuggestionFilter returns a filter that excludes the input word itself.
func NewSuggestionFilter(input string) *SuggestionFilter {
	seen := make(map[string]bool)
	seen[strings.ToLower(input)] = true
	return &SuggestionFilter{seen: seen}
}

// ShouldInclude reports whether the word is new to this result set, and
// marks it seen.
func (f *SuggestionFilter) ShouldInclude(word string) bool {
	lower := strings.ToLower(word)
	if f.seen[lower] {
		return false
	}
	f.seen[lower] = true
	return true
}
