// Package state holds the engine core: the per-source lifecycle machine, the
// dialog controller and the transaction-driven top level state. Everything in
// this package is pure with respect to the host document; the only inputs are
// transactions and the only outputs are replacement state values.
package state

import (
	"fmt"
	"math/rand"

	"github.com/bastiangx/typeahead/pkg/complete"
)

// CompletionState is the whole engine state for one editor. Values are
// immutable; Update returns the same value by identity when nothing changed.
type CompletionState struct {
	// Active holds one entry per configured source, in configuration order.
	Active []*ActiveSource
	// ID is a stable identifier for the dialog's listbox element, used in the
	// accessibility attributes.
	ID string
	// Open is the visible dialog, nil when no panel is showing.
	Open *Dialog
}

// NewCompletionState builds the initial, fully inactive state.
func NewCompletionState() *CompletionState {
	return &CompletionState{ID: fmt.Sprintf("ta-%06x", rand.Intn(1<<24))}
}

// Update advances the state by one transaction. It never blocks: pending
// queries are resolved elsewhere and delivered back through SetActiveEffect.
func (s *CompletionState) Update(tr *Transaction, conf *complete.Config) *CompletionState {
	sources := conf.Override
	if sources == nil && conf.Resolve != nil {
		sources = conf.Resolve(complete.Context{Doc: tr.Doc, Pos: tr.Pos})
	}

	active := make([]*ActiveSource, 0, len(sources))
	for _, source := range sources {
		entry := s.find(source)
		if entry == nil {
			// A source added mid-session joins a running session as Pending
			// so it gets queried too.
			if someActive(s.Active) {
				entry = pendingSource(source, -1)
			} else {
				entry = inactiveSource(source)
			}
		}
		active = append(active, entry.update(tr, conf))
	}
	if sameSlice(active, s.Active) {
		active = s.Active
	}

	didSet := false
	for _, ef := range tr.Effects {
		if _, ok := ef.(SetActiveEffect); ok {
			didSet = true
		}
	}

	open := s.Open
	if open != nil && tr.DocChanged() {
		open = open.mapAnchor(tr.Changes)
	}

	switch {
	case tr.SelChanged || touchesResult(active, tr) || !sameResults(active, s.Active) || didSet:
		open = buildDialog(active, tr.Doc, tr.Pos, s.ID, open, conf)
	case open != nil && open.Disabled && !somePending(active):
		// The query the stale list was waiting on died without results.
		open = nil
	}

	// Nothing visible and nothing running: release held results so they do
	// not resurface on an unrelated later trigger.
	if open == nil && !somePending(active) && someResult(active) {
		released := make([]*ActiveSource, len(active))
		for i, a := range active {
			if a.HasResult() {
				released[i] = inactiveSource(a.Source)
			} else {
				released[i] = a
			}
		}
		active = released
	}

	for _, ef := range tr.Effects {
		if e, ok := ef.(SetSelectedEffect); ok && open != nil {
			open = open.SetSelected(e.Index, s.ID)
		}
	}

	if sameSlice(active, s.Active) && open == s.Open {
		return s
	}
	return &CompletionState{Active: active, ID: s.ID, Open: open}
}

// Pending returns the entries whose queries should be running, for the async
// pump to resolve.
func (s *CompletionState) Pending() []*ActiveSource {
	var pending []*ActiveSource
	for _, a := range s.Active {
		if a.Status == Pending {
			pending = append(pending, a)
		}
	}
	return pending
}

func (s *CompletionState) find(source complete.Source) *ActiveSource {
	for _, a := range s.Active {
		if a.Source == source {
			return a
		}
	}
	return nil
}

func sameSlice(a, b []*ActiveSource) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// sameResults reports whether the two states hold exactly the same result
// values, in order. A changed result set forces a dialog rebuild.
func sameResults(a, b []*ActiveSource) bool {
	i, j := 0, 0
	for {
		for i < len(a) && !a[i].HasResult() {
			i++
		}
		for j < len(b) && !b[j].HasResult() {
			j++
		}
		if i == len(a) || j == len(b) {
			return i == len(a) && j == len(b)
		}
		if a[i].Result != b[j].Result {
			return false
		}
		i++
		j++
	}
}

func touchesResult(active []*ActiveSource, tr *Transaction) bool {
	if !tr.DocChanged() {
		return false
	}
	for _, a := range active {
		if a.HasResult() && tr.Changes.Touches(a.From, a.To) {
			return true
		}
	}
	return false
}

func someActive(active []*ActiveSource) bool {
	for _, a := range active {
		if a.Status != Inactive {
			return true
		}
	}
	return false
}

func someResult(active []*ActiveSource) bool {
	for _, a := range active {
		if a.HasResult() {
			return true
		}
	}
	return false
}
