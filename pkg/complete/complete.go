// Package complete defines the contract between the engine and its
// completion sources: the candidate and result shapes, the query context a
// source receives, and the configuration the engine runs under.
package complete

import (
	"context"

	"github.com/bastiangx/typeahead/pkg/doc"
)

// Context describes one completion query. Pos is the cursor offset the query
// anchors to; Explicit is set when the user invoked completion manually
// instead of triggering it by typing.
type Context struct {
	Doc      doc.Text
	Pos      int
	Explicit bool
}

// Source produces candidates for a query context. Fetch may block; the engine
// always calls it outside the synchronous update path and delivers the result
// back as an ordinary transaction. Returning (nil, nil) means "nothing to
// offer here". Errors are treated the same as no result.
//
// Source values double as identities: the engine matches asynchronous results
// back to their source by comparing Source values, so implementations should
// be pointer-shaped (a *T or a value from Func).
type Source interface {
	Fetch(ctx context.Context, cx Context) (*Result, error)
}

type funcSource struct {
	fn func(ctx context.Context, cx Context) (*Result, error)
}

func (s *funcSource) Fetch(ctx context.Context, cx Context) (*Result, error) {
	return s.fn(ctx, cx)
}

// Func wraps a plain function as a Source with a stable identity.
func Func(fn func(ctx context.Context, cx Context) (*Result, error)) Source {
	return &funcSource{fn: fn}
}

// Result is what a source hands back for a query.
type Result struct {
	// From and To delimit the document range the candidates complete.
	// To defaults to the query cursor when left unset (zero or negative).
	From int
	To   int

	// Options in the source's own preferred order.
	Options []Candidate

	// Filter controls whether the engine fuzzy-filters Options against the
	// currently typed fragment. When false the source's order is kept as-is
	// and candidates rank below filtered matches.
	Filter bool

	// ValidFor, when set, lets a result survive edits: it is asked whether
	// the (re-mapped) range text still matches this result. A nil ValidFor
	// means any edit inside the range invalidates the result.
	ValidFor func(text string, from, to int) bool

	// Update, when set, is tried before a full re-query after ValidFor
	// rejects: it may produce a replacement result for the new range.
	// Returning ok == false falls back to a fresh query.
	Update func(prev Result, from, to int, cx Context) (Result, bool)

	// GetMatch overrides the matched-character positions reported for a
	// candidate, taking priority over the generic label matcher.
	GetMatch func(cand Candidate, matched []int) []int
}

// Candidate is a single completion option as declared by a source.
type Candidate struct {
	// Label is the primary display and match key.
	Label string
	// DisplayLabel, when non-empty, is shown instead of Label.
	DisplayLabel string
	// Detail is short trailing text (a type signature, a frequency, ...).
	Detail string
	// Info is longer documentation shown on demand.
	Info string
	// Type names an icon/category for the candidate ("keyword", "variable").
	Type string
	// Boost nudges the fuzzy score, clamped to [-99, 99] by convention.
	Boost int
	// Apply decides what committing the candidate does. Nil inserts Label.
	Apply Apply
	// Section assigns the candidate to a named ordering bucket.
	Section Section
}

// Apply is the tagged commit behavior of a candidate: either a literal
// insertion or a host-side action.
type Apply interface{ isApply() }

// InsertText replaces the completion range with a literal string.
type InsertText string

func (InsertText) isApply() {}

// ApplyFunc delegates the commit to the candidate itself. The function owns
// all document mutation; it receives the picked candidate and the range that
// would have been replaced.
type ApplyFunc func(cand Candidate, from, to int) error

func (ApplyFunc) isApply() {}

// SameApply reports whether two Apply values are interchangeable for
// deduplication. Actions are never considered equal.
func SameApply(a, b Apply) bool {
	if a == nil && b == nil {
		return true
	}
	at, aok := a.(InsertText)
	bt, bok := b.(InsertText)
	return aok && bok && at == bt
}

// Section is a named, rankable grouping bucket. Sections order ahead of any
// per-candidate score: all candidates of a lower-ranked section come first.
// The zero value means "no section".
type Section struct {
	Name string
	// Rank orders sections ascending. Only meaningful when Ranked is set;
	// unranked sections sort after all ranked ones, by name.
	Rank   int
	Ranked bool
}

// None reports whether the candidate declared no section.
func (s Section) None() bool { return s.Name == "" }
