package state

import (
	"context"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"github.com/bastiangx/typeahead/pkg/complete"
	"github.com/bastiangx/typeahead/pkg/doc"
)

// Status is the lifecycle state of one source.
type Status int

const (
	// Inactive: no query outstanding, nothing shown for this source.
	Inactive Status = iota
	// Pending: a query should run or is running.
	Pending
	// HasResult: the source holds a validated result.
	HasResult
)

// genCounter tags every Pending transition so a late async reply can be
// matched to the exact query it answers.
var genCounter atomic.Uint64

// ActiveSource tracks one configured source through its lifecycle. Values are
// immutable: every update produces a new value, or the same value by identity
// when nothing changed.
type ActiveSource struct {
	Source complete.Source
	Status Status
	// Explicit is the anchor position of a manual trigger, -1 when the
	// query was started by typing.
	Explicit int

	// Result payload, only meaningful when Status == HasResult. From and To
	// are kept mapped to current document coordinates.
	Result *complete.Result
	From   int
	To     int

	gen uint64
}

func inactiveSource(source complete.Source) *ActiveSource {
	return &ActiveSource{Source: source, Status: Inactive, Explicit: -1}
}

func pendingSource(source complete.Source, explicit int) *ActiveSource {
	return &ActiveSource{Source: source, Status: Pending, Explicit: explicit, gen: genCounter.Add(1)}
}

// HasResult reports whether the source currently holds a result.
func (a *ActiveSource) HasResult() bool { return a.Status == HasResult }

// update runs one transaction through the per-source state machine.
func (a *ActiveSource) update(tr *Transaction, conf *complete.Config) *ActiveSource {
	value := a
	if tr.Event != EventNone {
		value = value.handleUserEvent(tr, conf)
	} else if tr.DocChanged() {
		value = value.handleChange(tr)
	} else if tr.SelChanged && value.Status != Inactive {
		value = inactiveSource(value.Source)
	}

	for _, ef := range tr.Effects {
		switch e := ef.(type) {
		case StartEffect:
			explicit := -1
			if e.Explicit {
				explicit = tr.Pos
			}
			value = pendingSource(value.Source, explicit)
		case CloseEffect:
			if value.Status != Inactive {
				value = inactiveSource(value.Source)
			}
		case SetActiveEffect:
			for _, delivered := range e.Sources {
				if delivered.Source == value.Source && value.Status == Pending && delivered.gen == value.gen {
					value = delivered
				}
			}
		}
	}
	return value
}

// handleUserEvent reacts to typing and deletion.
func (a *ActiveSource) handleUserEvent(tr *Transaction, conf *complete.Config) *ActiveSource {
	if a.HasResult() {
		return a.handleResultEvent(tr, conf)
	}
	if tr.Event == EventDelete || !conf.ActivateOnTyping {
		return a.mapThrough(tr.Changes)
	}
	return pendingSource(a.Source, -1)
}

// handleChange reacts to programmatic edits: an edit at the cursor kills the
// source, anything else just re-maps stored positions.
func (a *ActiveSource) handleChange(tr *Transaction) *ActiveSource {
	if a.HasResult() {
		if tr.Changes.Touches(a.From, a.To) {
			return inactiveSource(a.Source)
		}
		return a.mapThrough(tr.Changes)
	}
	if tr.Changes.TouchesPos(tr.OldPos) {
		return inactiveSource(a.Source)
	}
	return a.mapThrough(tr.Changes)
}

// handleResultEvent re-validates a held result against an edit or typing.
func (a *ActiveSource) handleResultEvent(tr *Transaction, conf *complete.Config) *ActiveSource {
	from := tr.Changes.MapPos(a.From, 0)
	to := tr.Changes.MapPos(a.To, 1)
	pos := tr.Pos

	// The cursor left the permissible window, the range collapsed, or a
	// deletion removed the anchor start: drop the result. Typing re-queries
	// when activation-on-typing is on, anything else goes quiet.
	lowBound := from
	if a.Explicit >= 0 {
		lowBound = a.From - 1
	}
	if from > to || pos < lowBound || pos > to ||
		(tr.Event == EventDelete && tr.Changes.DeletedAt(a.From)) {
		if tr.Event == EventInput && conf.ActivateOnTyping {
			return pendingSource(a.Source, -1)
		}
		return inactiveSource(a.Source)
	}

	explicit := a.Explicit
	if explicit >= 0 {
		explicit = tr.Changes.MapPos(explicit, 0)
	}

	if checkValid(a.Result.ValidFor, tr.Doc, from, to) {
		next := *a
		next.Explicit = explicit
		next.From = from
		next.To = to
		return &next
	}

	if a.Result.Update != nil {
		cx := complete.Context{Doc: tr.Doc, Pos: pos, Explicit: explicit >= 0}
		if updated, ok := a.Result.Update(*a.Result, from, to, cx); ok {
			newTo := updated.To
			if newTo <= 0 {
				newTo = pos
			}
			return &ActiveSource{
				Source:   a.Source,
				Status:   HasResult,
				Explicit: explicit,
				Result:   &updated,
				From:     updated.From,
				To:       newTo,
				gen:      a.gen,
			}
		}
	}

	// Result no longer valid and not incrementally updatable: re-query.
	return pendingSource(a.Source, explicit)
}

// mapThrough re-maps stored positions through an edit without changing state.
func (a *ActiveSource) mapThrough(cs doc.ChangeSet) *ActiveSource {
	if cs.Empty() {
		return a
	}
	if a.Explicit < 0 && !a.HasResult() {
		return a
	}
	next := *a
	if next.Explicit >= 0 {
		next.Explicit = cs.MapPos(next.Explicit, 0)
	}
	if next.HasResult() {
		next.From = cs.MapPos(next.From, 0)
		next.To = cs.MapPos(next.To, 1)
	}
	return &next
}

func checkValid(validFor func(string, int, int) bool, text doc.Text, from, to int) bool {
	if validFor == nil || from > to {
		return false
	}
	return validFor(text.Slice(from, to), from, to)
}

// Resolve runs the source's query for a Pending entry and builds the
// replacement value to deliver via SetActiveEffect. A failing or empty query
// resolves to Inactive; no source error ever propagates.
func (a *ActiveSource) Resolve(ctx context.Context, cx complete.Context) (resolved *ActiveSource) {
	if a.Status != Pending {
		return a
	}
	resolved = &ActiveSource{Source: a.Source, Status: Inactive, Explicit: -1, gen: a.gen}

	defer func() {
		if r := recover(); r != nil {
			log.Errorf("completion source panicked: %v", r)
			resolved = &ActiveSource{Source: a.Source, Status: Inactive, Explicit: -1, gen: a.gen}
		}
	}()

	res, err := a.Source.Fetch(ctx, cx)
	if err != nil {
		log.Debugf("completion source failed: %v", err)
		return resolved
	}
	if res == nil || len(res.Options) == 0 {
		return resolved
	}

	to := res.To
	if to <= 0 {
		to = cx.Pos
	}
	if res.From > cx.Pos || cx.Pos > to {
		log.Warnf("completion source returned range [%d, %d) not containing cursor %d", res.From, to, cx.Pos)
		return resolved
	}

	return &ActiveSource{
		Source:   a.Source,
		Status:   HasResult,
		Explicit: a.Explicit,
		Result:   res,
		From:     res.From,
		To:       to,
		gen:      a.gen,
	}
}
