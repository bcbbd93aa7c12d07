package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bastiangx/typeahead/pkg/complete"
	"github.com/bastiangx/typeahead/pkg/doc"
)

func resultHolder(src complete.Source, res *complete.Result, from, to int) *ActiveSource {
	return &ActiveSource{Source: src, Status: HasResult, Explicit: -1, Result: res, From: from, To: to}
}

func TestBuildDialogAnchorsAtLowestFrom(t *testing.T) {
	resA := &complete.Result{From: 3, Options: []complete.Candidate{{Label: "abc"}}, Filter: true}
	resB := &complete.Result{From: 1, Options: []complete.Candidate{{Label: "a"}}, Filter: true}
	active := []*ActiveSource{
		resultHolder(fixedSource(resA), resA, 3, 4),
		resultHolder(fixedSource(resB), resB, 1, 4),
	}

	d := buildDialog(active, "x  a", 4, "ta-test", nil, complete.DefaultConfig())

	require.NotNil(t, d)
	assert.Equal(t, 1, d.Anchor.Pos)
}

func TestBuildDialogRespectsMaxOptions(t *testing.T) {
	res := &complete.Result{From: 0, Options: []complete.Candidate{
		{Label: "aa"}, {Label: "ab"}, {Label: "ac"}, {Label: "ad"},
	}, Filter: true}
	active := []*ActiveSource{resultHolder(fixedSource(res), res, 0, 1)}
	conf := complete.DefaultConfig()
	conf.MaxOptions = 2

	d := buildDialog(active, "a", 1, "ta-test", nil, conf)

	require.NotNil(t, d)
	assert.Len(t, d.Options, 2)
}

func TestBuildDialogSelectOnOpenOff(t *testing.T) {
	res := &complete.Result{From: 0, Options: []complete.Candidate{{Label: "aa"}}, Filter: true}
	active := []*ActiveSource{resultHolder(fixedSource(res), res, 0, 1)}
	conf := complete.DefaultConfig()
	conf.SelectOnOpen = false

	d := buildDialog(active, "a", 1, "ta-test", nil, conf)

	require.NotNil(t, d)
	assert.Equal(t, -1, d.Selected)
	_, has := d.Attrs["aria-activedescendant"]
	assert.False(t, has, "no active descendant without a selection")
}

func TestBuildDialogNothingPendingDismisses(t *testing.T) {
	prev := &Dialog{Timestamp: 42}
	d := buildDialog(nil, "a", 1, "ta-test", prev, complete.DefaultConfig())
	assert.Nil(t, d)
}

func TestSetSelectedBounds(t *testing.T) {
	res := &complete.Result{From: 0, Options: []complete.Candidate{{Label: "aa"}, {Label: "ab"}}, Filter: true}
	active := []*ActiveSource{resultHolder(fixedSource(res), res, 0, 1)}
	d := buildDialog(active, "a", 1, "ta-test", nil, complete.DefaultConfig())
	require.NotNil(t, d)

	assert.Same(t, d, d.SetSelected(0, "ta-test"), "same index, same dialog")
	assert.Same(t, d, d.SetSelected(2, "ta-test"), "out of bounds, same dialog")
	assert.Same(t, d, d.SetSelected(-2, "ta-test"))

	moved := d.SetSelected(1, "ta-test")
	require.NotSame(t, d, moved)
	assert.Equal(t, 1, moved.Selected)
	assert.Equal(t, "ta-test-1", moved.Attrs["aria-activedescendant"])
	assert.Equal(t, 0, d.Selected, "original dialog untouched")

	cleared := moved.SetSelected(-1, "ta-test")
	assert.Equal(t, -1, cleared.Selected)
	_, has := cleared.Attrs["aria-activedescendant"]
	assert.False(t, has)
}

func TestMapAnchor(t *testing.T) {
	d := &Dialog{Anchor: Anchor{Pos: 5}}

	same := d.mapAnchor(doc.ChangeSet{})
	assert.Same(t, d, same)

	moved := d.mapAnchor(doc.Single(0, 0, "xx"))
	assert.Equal(t, 7, moved.Anchor.Pos)
	assert.Equal(t, 5, d.Anchor.Pos)
}
