package state

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bastiangx/typeahead/pkg/complete"
	"github.com/bastiangx/typeahead/pkg/doc"
)

func fixedSource(res *complete.Result) complete.Source {
	return complete.Func(func(ctx context.Context, cx complete.Context) (*complete.Result, error) {
		return res, nil
	})
}

// typing builds the transaction for inserting text at the cursor.
func typing(before doc.Text, pos int, insert string) *Transaction {
	cs := doc.Single(pos, pos, insert)
	return &Transaction{
		Doc:        cs.Apply(before),
		Changes:    cs,
		OldPos:     pos,
		Pos:        pos + len(insert),
		SelChanged: true,
		Event:      EventInput,
	}
}

// backspace builds the transaction for deleting n bytes before the cursor.
func backspace(before doc.Text, pos, n int) *Transaction {
	cs := doc.Single(pos-n, pos, "")
	return &Transaction{
		Doc:        cs.Apply(before),
		Changes:    cs,
		OldPos:     pos,
		Pos:        pos - n,
		SelChanged: true,
		Event:      EventDelete,
	}
}

func TestStartEffectMakesPending(t *testing.T) {
	a := inactiveSource(fixedSource(nil))
	tr := &Transaction{Doc: "fo", Pos: 2, OldPos: 2, Effects: []Effect{StartEffect{Explicit: true}}}

	next := a.update(tr, complete.DefaultConfig())

	assert.Equal(t, Pending, next.Status)
	assert.Equal(t, 2, next.Explicit, "explicit trigger anchors at the cursor")
}

func TestTypingActivates(t *testing.T) {
	src := fixedSource(nil)
	a := inactiveSource(src)

	next := a.update(typing("f", 1, "o"), complete.DefaultConfig())

	assert.Equal(t, Pending, next.Status)
	assert.Equal(t, -1, next.Explicit)
}

func TestTypingIgnoredWhenActivationOff(t *testing.T) {
	conf := complete.DefaultConfig()
	conf.ActivateOnTyping = false
	a := inactiveSource(fixedSource(nil))

	next := a.update(typing("f", 1, "o"), conf)

	assert.Same(t, a, next, "nothing to track, same value by identity")
}

func TestSelectionMoveDeactivates(t *testing.T) {
	a := pendingSource(fixedSource(nil), -1)
	tr := &Transaction{Doc: "foo", Pos: 0, OldPos: 3, SelChanged: true}

	next := a.update(tr, complete.DefaultConfig())

	assert.Equal(t, Inactive, next.Status)
}

func TestResolveDeliversResult(t *testing.T) {
	res := &complete.Result{From: 0, Options: []complete.Candidate{{Label: "foo"}}}
	a := pendingSource(fixedSource(res), -1)

	resolved := a.Resolve(context.Background(), complete.Context{Doc: "fo", Pos: 2})

	require.Equal(t, HasResult, resolved.Status)
	assert.Equal(t, 0, resolved.From)
	assert.Equal(t, 2, resolved.To, "unset To defaults to the cursor")

	tr := &Transaction{Doc: "fo", Pos: 2, OldPos: 2, Effects: []Effect{SetActiveEffect{Sources: []*ActiveSource{resolved}}}}
	next := a.update(tr, complete.DefaultConfig())
	assert.Same(t, resolved, next)
}

func TestResolveErrorsAndEmptyResolveInactive(t *testing.T) {
	failing := complete.Func(func(ctx context.Context, cx complete.Context) (*complete.Result, error) {
		return nil, errors.New("backend down")
	})
	empty := fixedSource(&complete.Result{From: 0})
	panicking := complete.Func(func(ctx context.Context, cx complete.Context) (*complete.Result, error) {
		panic("boom")
	})

	for _, src := range []complete.Source{failing, empty, panicking} {
		a := pendingSource(src, -1)
		resolved := a.Resolve(context.Background(), complete.Context{Doc: "fo", Pos: 2})
		assert.Equal(t, Inactive, resolved.Status)
	}
}

func TestResolveRejectsRangeMissingCursor(t *testing.T) {
	res := &complete.Result{From: 5, To: 7, Options: []complete.Candidate{{Label: "x"}}}
	a := pendingSource(fixedSource(res), -1)

	resolved := a.Resolve(context.Background(), complete.Context{Doc: "fo", Pos: 2})

	assert.Equal(t, Inactive, resolved.Status)
}

func TestStaleDeliveryDiscarded(t *testing.T) {
	res := &complete.Result{From: 0, Options: []complete.Candidate{{Label: "foo"}}}
	src := fixedSource(res)
	first := pendingSource(src, -1)
	resolved := first.Resolve(context.Background(), complete.Context{Doc: "fo", Pos: 2})

	// A second trigger supersedes the first query before its answer lands.
	second := first.update(&Transaction{Doc: "fo", Pos: 2, OldPos: 2, Effects: []Effect{StartEffect{}}}, complete.DefaultConfig())
	require.Equal(t, Pending, second.Status)

	tr := &Transaction{Doc: "fo", Pos: 2, OldPos: 2, Effects: []Effect{SetActiveEffect{Sources: []*ActiveSource{resolved}}}}
	next := second.update(tr, complete.DefaultConfig())

	assert.Equal(t, Pending, next.Status, "answer to a superseded query is dropped")
}

func TestResultSurvivesTypingWhenValid(t *testing.T) {
	res := &complete.Result{
		From:     0,
		Options:  []complete.Candidate{{Label: "foobar"}},
		ValidFor: func(text string, from, to int) bool { return true },
	}
	a := &ActiveSource{Source: fixedSource(res), Status: HasResult, Explicit: -1, Result: res, From: 0, To: 2}

	next := a.update(typing("fo", 2, "o"), complete.DefaultConfig())

	require.Equal(t, HasResult, next.Status)
	assert.Equal(t, 0, next.From)
	assert.Equal(t, 3, next.To, "range grows with the typed character")
	assert.Same(t, res, next.Result, "result reused, not re-fetched")
}

func TestResultRequeriesWhenInvalid(t *testing.T) {
	res := &complete.Result{From: 0, Options: []complete.Candidate{{Label: "foo"}}}
	a := &ActiveSource{Source: fixedSource(res), Status: HasResult, Explicit: -1, Result: res, From: 0, To: 2}

	next := a.update(typing("fo", 2, "o"), complete.DefaultConfig())

	assert.Equal(t, Pending, next.Status, "nil ValidFor and no Update means re-query")
}

func TestResultUpdateHookReuses(t *testing.T) {
	updatedOptions := []complete.Candidate{{Label: "foobar"}}
	res := &complete.Result{From: 0, Options: []complete.Candidate{{Label: "foo"}, {Label: "foobar"}}}
	res.Update = func(prev complete.Result, from, to int, cx complete.Context) (complete.Result, bool) {
		return complete.Result{From: from, Options: updatedOptions}, true
	}
	a := &ActiveSource{Source: fixedSource(res), Status: HasResult, Explicit: -1, Result: res, From: 0, To: 2}

	next := a.update(typing("fo", 2, "o"), complete.DefaultConfig())

	require.Equal(t, HasResult, next.Status)
	assert.Equal(t, updatedOptions, next.Result.Options)
	assert.Equal(t, 3, next.To)
}

func TestDeleteAtAnchorDeactivates(t *testing.T) {
	res := &complete.Result{
		From:     2,
		Options:  []complete.Candidate{{Label: "oo"}},
		ValidFor: func(text string, from, to int) bool { return true },
	}
	a := &ActiveSource{Source: fixedSource(res), Status: HasResult, Explicit: -1, Result: res, From: 2, To: 3}

	next := a.update(backspace("f oo", 3, 1), complete.DefaultConfig())

	assert.Equal(t, Inactive, next.Status, "deleting the anchor character closes completion")
}

func TestProgrammaticEditAwayRemaps(t *testing.T) {
	res := &complete.Result{From: 5, Options: []complete.Candidate{{Label: "bar"}}}
	a := &ActiveSource{Source: fixedSource(res), Status: HasResult, Explicit: -1, Result: res, From: 5, To: 7}
	cs := doc.Single(0, 0, "xx")
	tr := &Transaction{Doc: cs.Apply("hop barn"), Changes: cs, OldPos: 7, Pos: 9}

	next := a.update(tr, complete.DefaultConfig())

	require.Equal(t, HasResult, next.Status)
	assert.Equal(t, 7, next.From)
	assert.Equal(t, 9, next.To)
}

func TestProgrammaticEditInsideDeactivates(t *testing.T) {
	res := &complete.Result{From: 5, Options: []complete.Candidate{{Label: "bar"}}}
	a := &ActiveSource{Source: fixedSource(res), Status: HasResult, Explicit: -1, Result: res, From: 5, To: 7}
	cs := doc.Single(6, 6, "x")
	tr := &Transaction{Doc: cs.Apply("hop barn"), Changes: cs, OldPos: 7, Pos: 8}

	next := a.update(tr, complete.DefaultConfig())

	assert.Equal(t, Inactive, next.Status)
}

func TestExplicitAnchorAllowsOneStepBack(t *testing.T) {
	res := &complete.Result{
		From:     2,
		Options:  []complete.Candidate{{Label: "bar"}},
		ValidFor: func(text string, from, to int) bool { return true },
	}
	a := &ActiveSource{Source: fixedSource(res), Status: HasResult, Explicit: 3, Result: res, From: 2, To: 4}

	// Deleting the character after the anchor keeps the cursor inside the
	// loosened explicit window.
	next := a.update(backspace("f barx", 4, 1), complete.DefaultConfig())

	require.Equal(t, HasResult, next.Status)
	assert.Equal(t, 2, next.From)
	assert.Equal(t, 3, next.To)
}
