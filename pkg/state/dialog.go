package state

import (
	"fmt"
	"time"

	"github.com/bastiangx/typeahead/pkg/complete"
	"github.com/bastiangx/typeahead/pkg/doc"
	"github.com/bastiangx/typeahead/pkg/rank"
)

// Anchor describes where the host should place the floating panel: the
// document position it attaches to and whether it prefers to open above it.
type Anchor struct {
	Pos   int
	Above bool
}

// Dialog is the visible panel's state: the ranked options, the selection
// cursor, the screen anchor and the accessibility attributes. Dialogs are
// replaced whole, never mutated.
type Dialog struct {
	Options  []rank.Option
	Sections []complete.Section
	Attrs    map[string]string
	Anchor   Anchor
	// Timestamp is when this dialog first opened; rebuilds preserve it so
	// hosts can debounce animations.
	Timestamp int64
	// Selected indexes Options, -1 when nothing is selected.
	Selected int
	// Disabled marks the list as stale but kept visible while some source
	// is still pending.
	Disabled bool
}

// buildDialog runs the merge/rank engine over the result-holding sources and
// decides whether the panel is rebuilt, kept disabled, or dismissed.
func buildDialog(active []*ActiveSource, text doc.Text, pos int, id string, prev *Dialog, conf *complete.Config) *Dialog {
	var inputs []rank.Input
	anchorPos := -1
	for _, a := range active {
		if !a.HasResult() {
			continue
		}
		inputs = append(inputs, rank.Input{Source: a.Source, Result: a.Result, From: a.From, To: a.To})
		if anchorPos < 0 || a.From < anchorPos {
			anchorPos = a.From
		}
	}

	options, sections := rank.SortOptions(inputs, text, pos, conf)
	if len(options) == 0 {
		// Keep showing the stale list while a source is still working.
		if prev != nil && somePending(active) {
			disabled := *prev
			disabled.Disabled = true
			return &disabled
		}
		return nil
	}
	if conf.MaxOptions > 0 && len(options) > conf.MaxOptions {
		options = options[:conf.MaxOptions]
	}

	selected := -1
	if conf.SelectOnOpen {
		selected = 0
	}
	if prev != nil && prev.Selected >= 0 && prev.Selected < len(prev.Options) {
		if i := findOption(options, prev.Options[prev.Selected]); i >= 0 {
			selected = i
		}
	}

	timestamp := time.Now().UnixMilli()
	if prev != nil {
		timestamp = prev.Timestamp
	}

	return &Dialog{
		Options:   options,
		Sections:  sections,
		Attrs:     listAttrs(id, selected),
		Anchor:    Anchor{Pos: anchorPos, Above: conf.AboveCursor},
		Timestamp: timestamp,
		Selected:  selected,
	}
}

// SetSelected moves the selection cursor. Out-of-bounds indexes and
// reselecting the current index return the same dialog.
func (d *Dialog) SetSelected(index int, id string) *Dialog {
	if d == nil || index == d.Selected || index >= len(d.Options) || index < -1 {
		return d
	}
	next := *d
	next.Selected = index
	next.Attrs = listAttrs(id, index)
	return &next
}

// mapAnchor re-maps the anchor through an edit without rebuilding the list.
func (d *Dialog) mapAnchor(cs doc.ChangeSet) *Dialog {
	if d == nil || cs.Empty() {
		return d
	}
	next := *d
	next.Anchor.Pos = cs.MapPos(d.Anchor.Pos, 0)
	return &next
}

// findOption locates the previously selected candidate in a rebuilt list so
// the selection survives rebuilds.
func findOption(options []rank.Option, prev rank.Option) int {
	for i, o := range options {
		if o.Source == prev.Source && o.Candidate.Label == prev.Candidate.Label &&
			o.Candidate.Detail == prev.Candidate.Detail {
			return i
		}
	}
	return -1
}

func somePending(active []*ActiveSource) bool {
	for _, a := range active {
		if a.Status == Pending {
			return true
		}
	}
	return false
}

// listAttrs builds the accessibility attributes the host should put on the
// completing editor element.
func listAttrs(id string, selected int) map[string]string {
	attrs := map[string]string{
		"aria-autocomplete": "list",
		"aria-haspopup":     "listbox",
		"aria-controls":     id,
	}
	if selected >= 0 {
		attrs["aria-activedescendant"] = fmt.Sprintf("%s-%d", id, selected)
	}
	return attrs
}
