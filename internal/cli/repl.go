// Package cli is an interactive harness for the completion engine, used for
// DBG and testing new features before they reach server mode.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	charmlog "github.com/charmbracelet/log"

	"github.com/bastiangx/typeahead/internal/logger"
	"github.com/bastiangx/typeahead/pkg/complete"
	"github.com/bastiangx/typeahead/pkg/doc"
	"github.com/bastiangx/typeahead/pkg/state"
)

// REPL feeds typed lines through the engine one character at a time, the way
// an editor host would, and renders the resulting dialog after each line.
type REPL struct {
	engine *complete.Config
	st     *state.CompletionState
	text   doc.Text
	pos    int
	log    *charmlog.Logger
}

// NewREPL builds a session around a ready engine config (sources wired).
func NewREPL(engine *complete.Config) *REPL {
	return &REPL{
		engine: engine,
		st:     state.NewCompletionState(),
		log:    logger.Default("cli"),
	}
}

// Start begins the interface loop. Plain input is typed into the session
// character by character; "!N" commits option N of the open dialog; a blank
// line resets the session. The loop ends on stdin EOF.
func (r *REPL) Start() error {
	r.log.Print("typeahead CLI")
	r.log.Print("type to complete, !N to apply option N, blank line to reset (Ctrl+C to exit):")

	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Fprint(os.Stderr, "> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return nil
		}
		line = strings.TrimRight(line, "\r\n")

		switch {
		case line == "":
			r.reset()
			r.log.Print("session reset")
		case strings.HasPrefix(line, "!"):
			r.apply(strings.TrimPrefix(line, "!"))
		default:
			r.typeString(line)
			r.render()
		}
	}
}

func (r *REPL) reset() {
	r.st = state.NewCompletionState()
	r.text = ""
	r.pos = 0
}

// typeString plays the string into the engine as individual input events.
func (r *REPL) typeString(s string) {
	start := time.Now()
	for _, ch := range s {
		r.update(&state.Transaction{
			Changes:    doc.Single(r.pos, r.pos, string(ch)),
			OldPos:     r.pos,
			Pos:        r.pos + len(string(ch)),
			SelChanged: true,
			Event:      state.EventInput,
		})
	}
	r.log.Debugf("Took [ %v ] for %q", time.Since(start), s)
}

// update advances the state by one transaction and resolves pending queries
// inline, standing in for the host's async pump.
func (r *REPL) update(tr *state.Transaction) {
	if !tr.Changes.Empty() {
		r.text = tr.Changes.Apply(r.text)
	}
	tr.Doc = r.text
	r.pos = tr.Pos
	r.st = r.st.Update(tr, r.engine)

	pending := r.st.Pending()
	if len(pending) == 0 {
		return
	}
	resolved := make([]*state.ActiveSource, 0, len(pending))
	for _, a := range pending {
		cx := complete.Context{Doc: r.text, Pos: r.pos, Explicit: a.Explicit >= 0}
		resolved = append(resolved, a.Resolve(context.Background(), cx))
	}
	r.st = r.st.Update(&state.Transaction{
		Doc:     r.text,
		Pos:     r.pos,
		OldPos:  r.pos,
		Effects: []state.Effect{state.SetActiveEffect{Sources: resolved}},
	}, r.engine)
}

// apply commits the numbered option and shows the document after the edit.
func (r *REPL) apply(arg string) {
	open := r.st.Open
	if open == nil {
		r.log.Warn("no open dialog")
		return
	}
	index, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil || index < 1 || index > len(open.Options) {
		r.log.Errorf("no option %q, dialog has %d options", arg, len(open.Options))
		return
	}

	edit, applied := state.Apply(r.st, open.Options[index-1])
	if !applied {
		r.log.Warn("option is no longer valid")
		return
	}
	if edit != nil {
		cs := doc.Single(edit.From, edit.To, edit.Insert)
		r.update(&state.Transaction{
			Changes: cs,
			OldPos:  r.pos,
			Pos:     edit.From + len(edit.Insert),
		})
		r.log.Printf("applied %q -> %q", edit.Picked.Label, string(r.text))
	} else {
		r.log.Printf("option handled its own commit")
	}
	r.update(&state.Transaction{
		Doc: r.text, Pos: r.pos, OldPos: r.pos,
		Effects: []state.Effect{state.CloseEffect{}},
	})
}

// render prints the open dialog with matched characters highlighted.
func (r *REPL) render() {
	open := r.st.Open
	if open == nil {
		r.log.Warnf("no suggestions for %q", string(r.text))
		return
	}

	r.log.Printf("%d options for %q (anchor %d):", len(open.Options), string(r.text), open.Anchor.Pos)
	for i, opt := range open.Options {
		marker := "  "
		if i == open.Selected {
			marker = "> "
		}
		label := highlight(opt.Candidate.Label, opt.Match)
		if opt.Candidate.Detail != "" {
			r.log.Printf("%s%2d. %-40s (%s)", marker, i+1, label, opt.Candidate.Detail)
		} else {
			r.log.Printf("%s%2d. %s", marker, i+1, label)
		}
	}
}

// highlight wraps matched rune positions in a terminal color.
func highlight(label string, match []int) string {
	if len(match) == 0 {
		return label
	}
	matched := make(map[int]bool, len(match))
	for _, i := range match {
		matched[i] = true
	}
	var b strings.Builder
	for i, r := range []rune(label) {
		if matched[i] {
			fmt.Fprintf(&b, "\033[38;5;75m%c\033[0m", r)
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
