// Package fuzzy implements the default label matcher: given a typed fragment
// it scores candidate labels and reports which label characters matched, for
// highlighting in the panel.
package fuzzy

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Scoring constants
const (
	firstCharMatchBonus            = 15
	adjacentMatchBonus             = 10
	separatorMatchBonus            = 12
	camelCaseMatchBonus            = 12
	unmatchedLeadingCharPenalty    = -3
	maxUnmatchedLeadingCharPenalty = -9
)

// Matcher matches labels against one typed fragment. Build a fresh one per
// fragment; it carries no per-label state.
type Matcher struct {
	pattern []rune
}

// NewMatcher creates a matcher for the given typed fragment.
func NewMatcher(pattern string) *Matcher {
	return &Matcher{pattern: []rune(pattern)}
}

// Match tests whether the fragment is a subsequence of the label and scores
// the hit. An empty fragment matches everything with score 0 and no
// highlighted positions. Matched positions are rune indexes into the label.
func (m *Matcher) Match(label string) (int, []int, bool) {
	if len(m.pattern) == 0 {
		return 0, nil, true
	}
	if label == "" {
		return 0, nil, false
	}

	candidate := []rune(label)
	score := 0
	matched := make([]int, 0, len(m.pattern))

	var last rune
	patternIndex := 0
	currAdjacentBonus := 0

	for i, curr := range candidate {
		if patternIndex < len(m.pattern) && equalFold(curr, m.pattern[patternIndex]) {
			charScore := 0

			if i == 0 {
				charScore += firstCharMatchBonus
			}
			if i > 0 && unicode.IsLower(last) && unicode.IsUpper(curr) {
				charScore += camelCaseMatchBonus
			}
			if i > 0 && isSeparator(last) {
				charScore += separatorMatchBonus
			}
			if len(matched) > 0 && matched[len(matched)-1] == i-1 {
				currAdjacentBonus = currAdjacentBonus*2 + adjacentMatchBonus
				charScore += currAdjacentBonus
			} else {
				currAdjacentBonus = 0
			}
			if len(matched) == 0 {
				penalty := i * unmatchedLeadingCharPenalty
				charScore += max(penalty, maxUnmatchedLeadingCharPenalty)
			}

			score += charScore
			matched = append(matched, i)
			patternIndex++
		}
		last = curr
	}

	if patternIndex < len(m.pattern) {
		return 0, nil, false
	}

	// Unmatched characters drag the score down slightly so shorter labels
	// win ties against longer ones.
	score += len(matched) - len(candidate)
	return score, matched, true
}

func isSeparator(r rune) bool {
	return r == ' ' || r == '_' || r == '-' || r == '.' || r == '/'
}

func equalFold(a, b rune) bool {
	if a == b {
		return true
	}
	if a < utf8.RuneSelf && b < utf8.RuneSelf {
		if 'A' <= a && a <= 'Z' {
			a += 'a' - 'A'
		}
		if 'A' <= b && b <= 'Z' {
			b += 'a' - 'A'
		}
		return a == b
	}
	return strings.EqualFold(string(a), string(b))
}
