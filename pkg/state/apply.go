package state

import (
	"github.com/charmbracelet/log"

	"github.com/bastiangx/typeahead/pkg/complete"
	"github.com/bastiangx/typeahead/pkg/rank"
)

// AppliedEdit is the document edit produced by committing a candidate,
// together with the candidate it came from so hosts can log or announce it.
type AppliedEdit struct {
	From   int
	To     int
	Insert string
	Picked complete.Candidate
}

// Apply commits one ranked option. The bool result reports whether anything
// happened: committing against a source that no longer holds a result is a
// no-op. A nil *AppliedEdit with applied == true means the candidate handled
// the commit itself through its ApplyFunc.
func Apply(s *CompletionState, opt rank.Option) (*AppliedEdit, bool) {
	var entry *ActiveSource
	for _, a := range s.Active {
		if a.Source == opt.Source && a.HasResult() {
			entry = a
			break
		}
	}
	if entry == nil {
		return nil, false
	}

	switch apply := opt.Candidate.Apply.(type) {
	case complete.ApplyFunc:
		if err := apply(opt.Candidate, entry.From, entry.To); err != nil {
			log.Errorf("apply action for %q failed: %v", opt.Candidate.Label, err)
		}
		return nil, true
	case complete.InsertText:
		return &AppliedEdit{From: entry.From, To: entry.To, Insert: string(apply), Picked: opt.Candidate}, true
	default:
		return &AppliedEdit{From: entry.From, To: entry.To, Insert: opt.Candidate.Label, Picked: opt.Candidate}, true
	}
}
