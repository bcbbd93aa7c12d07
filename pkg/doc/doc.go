// Package doc holds the minimal document and change-set model the engine
// operates on. Hosts embedding the engine usually have their own buffer; this
// package gives the IPC server, the CLI and the tests a concrete one, and
// defines the position-mapping contract everything else relies on.
package doc

import "fmt"

// Text is an immutable document snapshot. Offsets are byte offsets.
type Text string

// Len returns the document length in bytes.
func (t Text) Len() int { return len(t) }

// Slice returns the text in [from, to), clamped to the document bounds.
func (t Text) Slice(from, to int) string {
	if from < 0 {
		from = 0
	}
	if to > len(t) {
		to = len(t)
	}
	if from >= to {
		return ""
	}
	return string(t[from:to])
}

// Change replaces the range [From, To) with Insert. From == To is a pure
// insertion, Insert == "" a pure deletion. Coordinates are pre-change.
type Change struct {
	From   int
	To     int
	Insert string
}

// ChangeSet is an ordered, non-overlapping set of changes, all expressed in
// the coordinates of the document before any of them applied. The zero value
// is the empty change set.
type ChangeSet struct {
	changes []Change
}

// NewChangeSet builds a change set from the given changes. Changes must be
// sorted by From and must not overlap.
func NewChangeSet(changes ...Change) (ChangeSet, error) {
	last := -1
	for _, c := range changes {
		if c.From > c.To {
			return ChangeSet{}, fmt.Errorf("change has negative length: [%d, %d)", c.From, c.To)
		}
		if c.From < last {
			return ChangeSet{}, fmt.Errorf("changes overlap or are unsorted at offset %d", c.From)
		}
		last = c.To
	}
	return ChangeSet{changes: changes}, nil
}

// Single is a convenience for the common one-edit transaction.
func Single(from, to int, insert string) ChangeSet {
	cs, _ := NewChangeSet(Change{From: from, To: to, Insert: insert})
	return cs
}

// Empty reports whether the set carries no changes.
func (cs ChangeSet) Empty() bool { return len(cs.changes) == 0 }

// Changes returns the underlying changes. Callers must not mutate the slice.
func (cs ChangeSet) Changes() []Change { return cs.changes }

// MapPos maps a pre-change offset to the corresponding post-change offset.
// Offsets inside a deleted range map to the deletion boundary. assoc breaks
// the tie for an offset sitting exactly on an insertion point: assoc <= 0
// keeps the position before the inserted text, assoc > 0 moves it after.
func (cs ChangeSet) MapPos(pos, assoc int) int {
	diff := 0
	for _, c := range cs.changes {
		if pos < c.From || (pos == c.From && (assoc <= 0 || c.To > c.From)) {
			break
		}
		if pos < c.To {
			return c.From + diff
		}
		diff += len(c.Insert) - (c.To - c.From)
	}
	return pos + diff
}

// Touches reports whether any change overlaps the range [from, to],
// boundaries included. Used to decide when a completion range was edited.
func (cs ChangeSet) Touches(from, to int) bool {
	for _, c := range cs.changes {
		if c.From > to {
			return false
		}
		if c.To >= from {
			return true
		}
	}
	return false
}

// TouchesPos reports whether any change overlaps the single offset pos.
func (cs ChangeSet) TouchesPos(pos int) bool { return cs.Touches(pos, pos) }

// DeletedAt reports whether any change deletes text starting exactly at pos.
func (cs ChangeSet) DeletedAt(pos int) bool {
	for _, c := range cs.changes {
		if c.From == pos && c.To > c.From {
			return true
		}
		if c.From > pos {
			return false
		}
	}
	return false
}

// Apply produces the document that results from applying the change set.
func (cs ChangeSet) Apply(t Text) Text {
	if cs.Empty() {
		return t
	}
	out := make([]byte, 0, len(t))
	last := 0
	for _, c := range cs.changes {
		to := c.To
		if to > len(t) {
			to = len(t)
		}
		if c.From > last {
			out = append(out, t[last:min(c.From, len(t))]...)
		}
		out = append(out, c.Insert...)
		last = to
	}
	if last < len(t) {
		out = append(out, t[last:]...)
	}
	return Text(out)
}
