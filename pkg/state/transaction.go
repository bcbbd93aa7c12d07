package state

import "github.com/bastiangx/typeahead/pkg/doc"

// UserEvent classifies what caused a transaction, as reported by the host.
type UserEvent int

const (
	// EventNone covers selection-only transactions and programmatic edits.
	EventNone UserEvent = iota
	// EventInput is plain typing at the cursor.
	EventInput
	// EventDelete is backward deletion at the cursor.
	EventDelete
)

// Transaction is one host update: the document edit (possibly empty), the
// cursor motion, the user-event classification and any trigger signals. The
// engine consumes exactly one Transaction per host dispatch.
type Transaction struct {
	// Doc is the document snapshot after the transaction.
	Doc doc.Text
	// Changes maps pre-transaction offsets to post-transaction offsets.
	// The zero value means no edit.
	Changes doc.ChangeSet
	// OldPos and Pos are the cursor before and after the transaction.
	OldPos int
	Pos    int
	// SelChanged is set when the selection moved, with or without an edit.
	SelChanged bool
	// Event classifies the transaction cause.
	Event UserEvent
	// Effects carries trigger signals from the key-binding layer and the
	// async delivery pump.
	Effects []Effect
}

// DocChanged reports whether the transaction edited the document.
func (tr *Transaction) DocChanged() bool { return !tr.Changes.Empty() }

// Effect is a trigger signal carried by a transaction.
type Effect interface{ isEffect() }

// StartEffect requests completion to start. Explicit marks a manual trigger,
// which anchors the query at the current cursor and loosens revalidation.
type StartEffect struct {
	Explicit bool
}

func (StartEffect) isEffect() {}

// CloseEffect dismisses completion entirely.
type CloseEffect struct{}

func (CloseEffect) isEffect() {}

// SetSelectedEffect moves the dialog selection cursor.
type SetSelectedEffect struct {
	Index int
}

func (SetSelectedEffect) isEffect() {}

// SetActiveEffect delivers asynchronously fetched results back into the
// state. It carries full replacement ActiveSource values; each one is matched
// against the current entry for the same source and discarded when the
// pending query it answers was superseded.
type SetActiveEffect struct {
	Sources []*ActiveSource
}

func (SetActiveEffect) isEffect() {}
