// Package rank merges the results of every source currently holding one into
// a single ordered option list: fuzzy-filtering against the typed fragment,
// section grouping, score sorting and duplicate collapsing.
package rank

import (
	"sort"

	"github.com/bastiangx/typeahead/pkg/complete"
	"github.com/bastiangx/typeahead/pkg/doc"
	"github.com/bastiangx/typeahead/pkg/fuzzy"
)

// Option is one ranked, displayable candidate. Match holds the label rune
// indexes to highlight; Score is the final sort key, sections included.
type Option struct {
	Candidate complete.Candidate
	Source    complete.Source
	Match     []int
	Score     int
}

// Input is one result-holding source, with its range mapped to the current
// document.
type Input struct {
	Source complete.Source
	Result *complete.Result
	From   int
	To     int
}

// Sections strictly dominate per-option scores: one section step is far above
// anything a fuzzy score plus boost can reach.
const sectionStep = 1 << 20

// Options with no fuzzy filtering rank below every filtered match but keep
// their source's declared order among themselves.
const unfilteredBase = -(1 << 30)

// SortOptions produces the combined ordered option list and the discovered
// sections, ordered the way they will appear. Deterministic for equal inputs.
func SortOptions(inputs []Input, text doc.Text, pos int, conf *complete.Config) ([]Option, []complete.Section) {
	var options []Option

	for _, in := range inputs {
		if in.Result == nil {
			continue
		}
		if !in.Result.Filter {
			// Synthetic descending scores keep the source's own order.
			for i, cand := range in.Result.Options {
				opt := Option{
					Candidate: cand,
					Source:    in.Source,
					Score:     unfilteredBase + len(in.Result.Options) - i,
				}
				if in.Result.GetMatch != nil {
					opt.Match = in.Result.GetMatch(cand, nil)
				}
				options = append(options, opt)
			}
			continue
		}

		matcher := newMatcher(conf, text.Slice(in.From, pos))
		for _, cand := range in.Result.Options {
			score, matched, ok := matcher.Match(cand.Label)
			if !ok {
				continue
			}
			if in.Result.GetMatch != nil {
				matched = in.Result.GetMatch(cand, matched)
			}
			options = append(options, Option{
				Candidate: cand,
				Source:    in.Source,
				Match:     matched,
				Score:     score + clampBoost(cand.Boost),
			})
		}
	}

	sections := collectSections(options)
	applySectionOffsets(options, sections)

	sort.SliceStable(options, func(i, j int) bool {
		if options[i].Score != options[j].Score {
			return options[i].Score > options[j].Score
		}
		return conf.CompareCandidates(options[i].Candidate, options[j].Candidate) < 0
	})

	return dedupe(options), sections
}

func newMatcher(conf *complete.Config, pattern string) complete.Matcher {
	if conf != nil && conf.NewMatcher != nil {
		return conf.NewMatcher(pattern)
	}
	return fuzzy.NewMatcher(pattern)
}

func clampBoost(boost int) int {
	if boost > 99 {
		return 99
	}
	if boost < -99 {
		return -99
	}
	return boost
}

// collectSections gathers every distinct section declared by any candidate,
// ordered by (explicit rank ascending, unranked after ranked, name ascending).
// A ranked declaration wins over an unranked one for the same name.
func collectSections(options []Option) []complete.Section {
	byName := make(map[string]complete.Section)
	for _, o := range options {
		s := o.Candidate.Section
		if s.None() {
			continue
		}
		if prev, seen := byName[s.Name]; !seen || (s.Ranked && !prev.Ranked) {
			byName[s.Name] = s
		}
	}
	sections := make([]complete.Section, 0, len(byName))
	for _, s := range byName {
		sections = append(sections, s)
	}
	sort.Slice(sections, func(i, j int) bool {
		a, b := sections[i], sections[j]
		if a.Ranked != b.Ranked {
			return a.Ranked
		}
		if a.Ranked && a.Rank != b.Rank {
			return a.Rank < b.Rank
		}
		return a.Name < b.Name
	})
	return sections
}

// applySectionOffsets adds a large descending offset per section so section
// membership outranks any fuzzy score. Options without a section keep their
// raw score and therefore sort after every section.
func applySectionOffsets(options []Option, sections []complete.Section) {
	if len(sections) == 0 {
		return
	}
	index := make(map[string]int, len(sections))
	for i, s := range sections {
		index[s.Name] = len(sections) - i
	}
	for i := range options {
		if s := options[i].Candidate.Section; !s.None() {
			options[i].Score += index[s.Name] * sectionStep
		}
	}
}

// dedupe collapses adjacent options that describe the same candidate, keeping
// the most complete one. Candidates count as the same when label, detail,
// boost and apply behavior agree and their types do not contradict each other.
func dedupe(options []Option) []Option {
	if len(options) < 2 {
		return options
	}
	out := options[:0]
	for _, opt := range options {
		if len(out) > 0 && sameOption(out[len(out)-1].Candidate, opt.Candidate) {
			if completeness(opt.Candidate) > completeness(out[len(out)-1].Candidate) {
				out[len(out)-1] = opt
			}
			continue
		}
		out = append(out, opt)
	}
	return out
}

func sameOption(a, b complete.Candidate) bool {
	return a.Label == b.Label &&
		a.Detail == b.Detail &&
		(a.Type == "" || b.Type == "" || a.Type == b.Type) &&
		a.Boost == b.Boost &&
		complete.SameApply(a.Apply, b.Apply)
}

// completeness rewards richer duplicates: boost over apply over info over type.
func completeness(c complete.Candidate) int {
	score := 0
	if c.Boost != 0 {
		score += 8
	}
	if c.Apply != nil {
		score += 4
	}
	if c.Info != "" {
		score += 2
	}
	if c.Type != "" {
		score += 1
	}
	return score
}
