package complete

import "strings"

// Matcher scores how well a candidate label matches a typed fragment and
// reports the matched character positions for highlighting. Implementations
// are built per-fragment; see pkg/fuzzy for the default.
type Matcher interface {
	Match(label string) (score int, matched []int, ok bool)
}

// Config carries the engine options. The zero value is not useful; start from
// DefaultConfig.
type Config struct {
	// ActivateOnTyping starts queries on plain typing, not just on an
	// explicit trigger.
	ActivateOnTyping bool
	// SelectOnOpen pre-selects the first option when the panel opens.
	SelectOnOpen bool
	// AboveCursor prefers placing the panel above the anchor line.
	AboveCursor bool
	// MaxOptions caps the ranked list handed to the host. 0 means no cap.
	MaxOptions int

	// Override, when non-nil, is the fixed source list to run. Otherwise
	// Resolve is consulted per query; a nil Resolve means no sources.
	Override []Source
	Resolve  func(cx Context) []Source

	// Compare tie-breaks candidates with equal scores. Negative means a
	// sorts before b. Nil falls back to (label, detail) ordering.
	Compare func(a, b Candidate) int

	// NewMatcher builds the fuzzy matcher for a typed fragment. Nil uses
	// the built-in matcher.
	NewMatcher func(pattern string) Matcher
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() *Config {
	return &Config{
		ActivateOnTyping: true,
		SelectOnOpen:     true,
		MaxOptions:       64,
	}
}

// CompareCandidates applies the configured comparator, falling back to a
// deterministic (label, detail) ordering.
func (c *Config) CompareCandidates(a, b Candidate) int {
	if c != nil && c.Compare != nil {
		return c.Compare(a, b)
	}
	if d := strings.Compare(a.Label, b.Label); d != 0 {
		return d
	}
	return strings.Compare(a.Detail, b.Detail)
}
