package state

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bastiangx/typeahead/pkg/complete"
	"github.com/bastiangx/typeahead/pkg/doc"
)

// pump resolves every pending query synchronously and delivers the answers
// the way the async pump would, as one SetActiveEffect transaction.
func pump(st *CompletionState, text doc.Text, pos int, conf *complete.Config) *CompletionState {
	pending := st.Pending()
	if len(pending) == 0 {
		return st
	}
	resolved := make([]*ActiveSource, 0, len(pending))
	for _, a := range pending {
		cx := complete.Context{Doc: text, Pos: pos, Explicit: a.Explicit >= 0}
		resolved = append(resolved, a.Resolve(context.Background(), cx))
	}
	tr := &Transaction{Doc: text, Pos: pos, OldPos: pos, Effects: []Effect{SetActiveEffect{Sources: resolved}}}
	return st.Update(tr, conf)
}

func openState(t *testing.T, conf *complete.Config, text doc.Text, pos int) *CompletionState {
	t.Helper()
	st := NewCompletionState()
	tr := &Transaction{Doc: text, Pos: pos, OldPos: pos, Effects: []Effect{StartEffect{Explicit: true}}}
	st = st.Update(tr, conf)
	st = pump(st, text, pos, conf)
	require.NotNil(t, st.Open, "dialog should be open after delivery")
	return st
}

func wordsConf(words ...string) *complete.Config {
	cands := make([]complete.Candidate, len(words))
	for i, w := range words {
		cands[i] = complete.Candidate{Label: w}
	}
	res := &complete.Result{From: 0, Options: cands, Filter: true}
	conf := complete.DefaultConfig()
	conf.Override = []complete.Source{fixedSource(res)}
	return conf
}

func TestLifecycleTriggerDeliverOpen(t *testing.T) {
	conf := wordsConf("foo", "foobar")
	st := openState(t, conf, "fo", 2)

	require.Len(t, st.Open.Options, 2)
	assert.Equal(t, "foo", st.Open.Options[0].Candidate.Label)
	assert.Equal(t, "foobar", st.Open.Options[1].Candidate.Label)
	assert.Equal(t, 0, st.Open.Selected, "first option pre-selected")
	assert.Equal(t, 0, st.Open.Anchor.Pos, "anchored at the completed range start")
	assert.Equal(t, "listbox", st.Open.Attrs["aria-haspopup"])
}

func TestSelectionMoveDismissesDialog(t *testing.T) {
	conf := wordsConf("foo")
	st := openState(t, conf, "fo", 2)

	next := st.Update(&Transaction{Doc: "fo", Pos: 0, OldPos: 2, SelChanged: true}, conf)

	assert.Nil(t, next.Open)
	assert.Equal(t, Inactive, next.Active[0].Status)
}

func TestNoopTransactionReturnsSameState(t *testing.T) {
	conf := wordsConf("foo")
	st := openState(t, conf, "fo", 2)

	next := st.Update(&Transaction{Doc: "fo", Pos: 2, OldPos: 2}, conf)

	assert.Same(t, st, next)
}

func TestSetSelectedEffect(t *testing.T) {
	conf := wordsConf("foo", "foobar")
	st := openState(t, conf, "fo", 2)

	next := st.Update(&Transaction{Doc: "fo", Pos: 2, OldPos: 2, Effects: []Effect{SetSelectedEffect{Index: 1}}}, conf)
	require.NotNil(t, next.Open)
	assert.Equal(t, 1, next.Open.Selected)
	assert.Equal(t, next.ID+"-1", next.Open.Attrs["aria-activedescendant"])

	again := next.Update(&Transaction{Doc: "fo", Pos: 2, OldPos: 2, Effects: []Effect{SetSelectedEffect{Index: 1}}}, conf)
	assert.Same(t, next, again, "reselecting the same index changes nothing")
}

func TestTypingKeepsDisabledDialogWhilePending(t *testing.T) {
	// Result with no ValidFor and no Update: any typing forces a re-query.
	conf := wordsConf("foo", "foobar")
	st := openState(t, conf, "fo", 2)

	next := st.Update(typing("fo", 2, "o"), conf)

	require.Equal(t, Pending, next.Active[0].Status)
	require.NotNil(t, next.Open, "stale list stays visible while re-querying")
	assert.True(t, next.Open.Disabled)
	assert.Equal(t, st.Open.Timestamp, next.Open.Timestamp)

	// The re-query lands and the list is rebuilt against the new fragment.
	next = pump(next, "foo", 3, conf)
	require.NotNil(t, next.Open)
	assert.False(t, next.Open.Disabled)
	require.Len(t, next.Open.Options, 2)
	assert.Equal(t, "foo", next.Open.Options[0].Candidate.Label)
}

func TestValidResultSurvivesTypingWithoutRefetch(t *testing.T) {
	fetches := 0
	res := &complete.Result{
		From:     0,
		Options:  []complete.Candidate{{Label: "foo"}, {Label: "foobar"}},
		Filter:   true,
		ValidFor: func(text string, from, to int) bool { return text != "" },
	}
	src := complete.Func(func(ctx context.Context, cx complete.Context) (*complete.Result, error) {
		fetches++
		return res, nil
	})
	conf := complete.DefaultConfig()
	conf.Override = []complete.Source{src}

	st := openState(t, conf, "f", 1)
	require.Equal(t, 1, fetches)
	require.Len(t, st.Open.Options, 2)

	next := st.Update(typing("f", 1, "o"), conf)

	require.NotNil(t, next.Open)
	assert.False(t, next.Open.Disabled)
	require.Len(t, next.Open.Options, 2, "both options still match \"fo\"")
	assert.Equal(t, 1, fetches, "no re-fetch for a still-valid result")
	assert.Equal(t, st.Open.Timestamp, next.Open.Timestamp, "rebuilds keep the open timestamp")
}

func TestSelectionCarriesOverRebuild(t *testing.T) {
	res := &complete.Result{
		From:     0,
		Options:  []complete.Candidate{{Label: "item"}, {Label: "iter"}},
		Filter:   true,
		ValidFor: func(text string, from, to int) bool { return text != "" },
	}
	conf := complete.DefaultConfig()
	conf.Override = []complete.Source{fixedSource(res)}

	st := openState(t, conf, "i", 1)
	st = st.Update(&Transaction{Doc: "i", Pos: 1, OldPos: 1, Effects: []Effect{SetSelectedEffect{Index: 1}}}, conf)
	require.Equal(t, "iter", st.Open.Options[st.Open.Selected].Candidate.Label)

	// Typing "t" reorders nothing here but forces a rebuild; the selected
	// candidate must stay selected wherever it lands.
	next := st.Update(typing("i", 1, "t"), conf)
	require.NotNil(t, next.Open)
	assert.Equal(t, "iter", next.Open.Options[next.Open.Selected].Candidate.Label)
}

func TestCloseEffectDismisses(t *testing.T) {
	conf := wordsConf("foo")
	st := openState(t, conf, "fo", 2)

	next := st.Update(&Transaction{Doc: "fo", Pos: 2, OldPos: 2, Effects: []Effect{CloseEffect{}}}, conf)

	assert.Nil(t, next.Open)
	assert.Equal(t, Inactive, next.Active[0].Status)
}

func TestStaleDeliveryLeavesDialogClosed(t *testing.T) {
	conf := wordsConf("foo")
	st := NewCompletionState()
	st = st.Update(&Transaction{Doc: "fo", Pos: 2, OldPos: 2, Effects: []Effect{StartEffect{Explicit: true}}}, conf)
	stale := st.Pending()
	require.Len(t, stale, 1)
	resolved := stale[0].Resolve(context.Background(), complete.Context{Doc: "fo", Pos: 2, Explicit: true})

	// A second trigger supersedes the first query before delivery.
	st = st.Update(&Transaction{Doc: "fo", Pos: 2, OldPos: 2, Effects: []Effect{StartEffect{Explicit: true}}}, conf)

	next := st.Update(&Transaction{Doc: "fo", Pos: 2, OldPos: 2, Effects: []Effect{SetActiveEffect{Sources: []*ActiveSource{resolved}}}}, conf)

	assert.Nil(t, next.Open, "superseded answer must not open the dialog")
	assert.Equal(t, Pending, next.Active[0].Status)
}

func TestNewSourceJoinsRunningSessionAsPending(t *testing.T) {
	resA := &complete.Result{From: 0, Options: []complete.Candidate{{Label: "alpha"}}, Filter: true}
	srcA := fixedSource(resA)
	srcB := fixedSource(&complete.Result{From: 0, Options: []complete.Candidate{{Label: "aboard"}}, Filter: true})
	conf := complete.DefaultConfig()
	conf.Override = []complete.Source{srcA}

	st := openState(t, conf, "a", 1)

	conf.Override = []complete.Source{srcA, srcB}
	next := st.Update(&Transaction{Doc: "a", Pos: 1, OldPos: 1}, conf)

	require.Len(t, next.Active, 2)
	assert.Equal(t, Pending, next.Active[1].Status, "late source starts querying immediately")
}

func TestResultsReleasedWhenNothingShows(t *testing.T) {
	conf := wordsConf("foo")
	st := openState(t, conf, "fo", 2)

	// An edit away from the completion range kills the dialog; with nothing
	// pending the held result must be dropped too.
	cs := doc.Single(2, 2, " ")
	next := st.Update(&Transaction{Doc: "fo ", Changes: cs, OldPos: 2, Pos: 3, SelChanged: true, Event: EventNone}, conf)

	assert.Nil(t, next.Open)
	assert.Equal(t, Inactive, next.Active[0].Status)
}
