package server

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/bastiangx/typeahead/internal/logger"
	"github.com/bastiangx/typeahead/internal/utils"
	"github.com/bastiangx/typeahead/pkg/complete"
	"github.com/bastiangx/typeahead/pkg/config"
	"github.com/bastiangx/typeahead/pkg/doc"
	"github.com/bastiangx/typeahead/pkg/state"
	"github.com/bastiangx/typeahead/pkg/suggest"
)

// Server owns one completion session over msgpack IPC. Requests are handled
// sequentially; the engine state advances one transaction per update op.
type Server struct {
	completer  *suggest.Completer
	config     *config.Config
	configPath string

	engine *complete.Config
	st     *state.CompletionState

	// Last document snapshot seen from the client, for ops that carry no
	// document of their own (select, apply).
	lastDoc doc.Text
	lastPos int

	dec *msgpack.Decoder
	enc *msgpack.Encoder
	log *charmlog.Logger
}

// NewServer creates a completion server using stdin/stdout for IPC.
func NewServer(completer *suggest.Completer, cfg *config.Config, configPath string) *Server {
	return newServerWithIO(completer, cfg, configPath, os.Stdin, os.Stdout)
}

func newServerWithIO(completer *suggest.Completer, cfg *config.Config, configPath string, r io.Reader, w io.Writer) *Server {
	engine := cfg.Engine()
	engine.Override = []complete.Source{
		suggest.NewDictionarySource(completer, cfg.Server.MaxLimit, cfg.Server.EnableFilter),
	}
	return &Server{
		completer:  completer,
		config:     cfg,
		configPath: configPath,
		engine:     engine,
		st:         state.NewCompletionState(),
		dec:        msgpack.NewDecoder(r),
		enc:        msgpack.NewEncoder(w),
		log:        logger.New("ipc"),
	}
}

// Start begins the request loop. It returns nil on clean EOF.
func (s *Server) Start() error {
	s.log.Debug("Starting IPC server")
	s.send(map[string]string{"status": "ready"})

	for {
		var req Request
		if err := s.dec.Decode(&req); err != nil {
			if err == io.EOF {
				return nil
			}
			s.log.Errorf("Decoding request: %v", err)
			return err
		}
		s.handle(req)
	}
}

func (s *Server) handle(req Request) {
	switch req.Op {
	case "update":
		s.handleUpdate(req)
	case "select":
		s.handleSelect(req)
	case "apply":
		s.handleApply(req)
	case "complete":
		s.handleComplete(req)
	case "dict":
		s.handleDict(req)
	case "config":
		s.handleConfig(req)
	case "":
		// Bare requests route by shape for older clients.
		switch {
		case req.Action != "":
			s.handleDict(req)
		case req.Prefix != "":
			s.handleComplete(req)
		default:
			s.sendError(req.ID, "missing op", 400)
		}
	default:
		s.sendError(req.ID, fmt.Sprintf("unknown op: %s", req.Op), 400)
	}
}

// handleUpdate advances the engine by one transaction and answers with the
// resulting dialog. Pending queries are resolved before responding, so the
// answer reflects the delivered results.
func (s *Server) handleUpdate(req Request) {
	start := time.Now()

	changes, err := buildChangeSet(req.Changes)
	if err != nil {
		s.sendError(req.ID, err.Error(), 400)
		return
	}

	var effects []state.Effect
	if req.Explicit {
		effects = append(effects, state.StartEffect{Explicit: true})
	}
	if req.Close {
		effects = append(effects, state.CloseEffect{})
	}

	tr := &state.Transaction{
		Doc:        doc.Text(req.Doc),
		Changes:    changes,
		OldPos:     req.OldPos,
		Pos:        req.Pos,
		SelChanged: req.SelChanged || req.Pos != req.OldPos,
		Event:      parseEvent(req.Event),
		Effects:    effects,
	}

	s.st = s.st.Update(tr, s.engine)
	s.resolvePending(doc.Text(req.Doc), req.Pos)

	s.lastDoc = doc.Text(req.Doc)
	s.lastPos = req.Pos

	s.sendDialog(req.ID, start)
}

// resolvePending runs outstanding queries and delivers the answers through
// the effect path, same as an asynchronous host would.
func (s *Server) resolvePending(text doc.Text, pos int) {
	pending := s.st.Pending()
	if len(pending) == 0 {
		return
	}
	resolved := make([]*state.ActiveSource, 0, len(pending))
	for _, a := range pending {
		cx := complete.Context{Doc: text, Pos: pos, Explicit: a.Explicit >= 0}
		resolved = append(resolved, a.Resolve(context.Background(), cx))
	}
	tr := &state.Transaction{
		Doc:     text,
		Pos:     pos,
		OldPos:  pos,
		Effects: []state.Effect{state.SetActiveEffect{Sources: resolved}},
	}
	s.st = s.st.Update(tr, s.engine)
}

func (s *Server) handleSelect(req Request) {
	start := time.Now()
	tr := &state.Transaction{
		Doc:     s.lastDoc,
		Pos:     s.lastPos,
		OldPos:  s.lastPos,
		Effects: []state.Effect{state.SetSelectedEffect{Index: req.Index}},
	}
	s.st = s.st.Update(tr, s.engine)
	s.sendDialog(req.ID, start)
}

func (s *Server) handleApply(req Request) {
	open := s.st.Open
	if open == nil || req.Index < 0 || req.Index >= len(open.Options) {
		s.send(EditResponse{ID: req.ID, Applied: false})
		return
	}

	opt := open.Options[req.Index]
	edit, applied := state.Apply(s.st, opt)

	resp := EditResponse{ID: req.ID, Applied: applied}
	if edit != nil {
		resp.From = edit.From
		resp.To = edit.To
		resp.Insert = edit.Insert
		resp.Label = edit.Picked.Label
	} else if applied {
		resp.Handled = true
		resp.Label = opt.Candidate.Label
	}
	s.send(resp)

	// Committing dismisses the session; the host reports the resulting
	// document with its next update.
	tr := &state.Transaction{
		Doc:     s.lastDoc,
		Pos:     s.lastPos,
		OldPos:  s.lastPos,
		Effects: []state.Effect{state.CloseEffect{}},
	}
	s.st = s.st.Update(tr, s.engine)
}

// handleComplete is the stateless prefix lookup, bounds-checked against the
// [server] config section.
func (s *Server) handleComplete(req Request) {
	prefix := req.Prefix
	if len(prefix) < s.config.Server.MinPrefix {
		s.sendError(req.ID, fmt.Sprintf("prefix shorter than %d", s.config.Server.MinPrefix), 400)
		return
	}
	if len(prefix) > s.config.Server.MaxPrefix {
		s.sendError(req.ID, fmt.Sprintf("prefix exceeds maximum length of %d", s.config.Server.MaxPrefix), 400)
		return
	}
	if s.config.Server.EnableFilter && !utils.IsValidInput(prefix) {
		s.send(CompletionResponse{ID: req.ID, Suggestions: []CompletionSuggestion{}})
		return
	}

	limit := req.Limit
	if limit < 1 || limit > s.config.Server.MaxLimit {
		limit = s.config.Server.MaxLimit
	}

	start := time.Now()
	suggestions := s.completer.CompleteWithCorrection(prefix, limit)
	elapsed := time.Since(start)

	ranks := utils.CreateRankList(len(suggestions))
	payload := make([]CompletionSuggestion, len(suggestions))
	for i, sg := range suggestions {
		payload[i] = CompletionSuggestion{Word: sg.Word, Rank: ranks[i]}
	}

	s.send(CompletionResponse{
		ID:          req.ID,
		Suggestions: payload,
		Count:       len(payload),
		TimeTaken:   elapsed.Microseconds(),
	})
}

func (s *Server) handleDict(req Request) {
	loader := s.completer.ChunkLoader()
	if loader == nil {
		s.send(DictionaryResponse{ID: req.ID, Status: "error", Error: "static dictionary, no chunk loader"})
		return
	}

	switch req.Action {
	case "get_info":
		stats := loader.GetStats()
		s.send(DictionaryResponse{
			ID:              req.ID,
			Status:          "ok",
			CurrentChunks:   stats.LoadedChunks,
			AvailableChunks: stats.AvailableChunks,
			TotalWords:      stats.TotalWords,
		})
	case "set_size":
		if req.ChunkCount == nil {
			s.send(DictionaryResponse{ID: req.ID, Status: "error", Error: "set_size requires chunk_count"})
			return
		}
		if err := loader.SetChunkCount(*req.ChunkCount); err != nil {
			s.send(DictionaryResponse{ID: req.ID, Status: "error", Error: err.Error()})
			return
		}
		stats := loader.GetStats()
		s.send(DictionaryResponse{
			ID:            req.ID,
			Status:        "ok",
			CurrentChunks: stats.LoadedChunks,
			TotalWords:    stats.TotalWords,
		})
	case "get_options":
		chunks, err := loader.GetAvailableChunks()
		if err != nil {
			s.send(DictionaryResponse{ID: req.ID, Status: "error", Error: err.Error()})
			return
		}
		options := make([]DictionarySizeOption, 0, len(chunks))
		total := 0
		for i, chunk := range chunks {
			total += chunk.WordCount
			options = append(options, DictionarySizeOption{
				ChunkCount: i + 1,
				WordCount:  total,
				SizeLabel:  fmt.Sprintf("%sk words", utils.FormatWithCommas(total/1000)),
			})
		}
		s.send(DictionaryResponse{ID: req.ID, Status: "ok", Options: options, AvailableChunks: len(chunks)})
	default:
		s.send(DictionaryResponse{ID: req.ID, Status: "error", Error: fmt.Sprintf("unknown action: %s", req.Action)})
	}
}

func (s *Server) handleConfig(req Request) {
	if req.MaxOptions != nil {
		s.engine.MaxOptions = *req.MaxOptions
	}
	if req.ActivateOnTyping != nil {
		s.engine.ActivateOnTyping = *req.ActivateOnTyping
	}
	if req.SelectOnOpen != nil {
		s.engine.SelectOnOpen = *req.SelectOnOpen
	}

	if s.configPath != "" {
		if err := s.config.Update(s.configPath, req.MaxOptions, req.ActivateOnTyping, req.SelectOnOpen); err != nil {
			s.log.Warnf("Failed to persist config: %v", err)
			s.send(ConfigResponse{ID: req.ID, Status: "error", Error: err.Error()})
			return
		}
	}
	s.send(ConfigResponse{ID: req.ID, Status: "ok"})
}

func (s *Server) sendDialog(id string, start time.Time) {
	resp := DialogResponse{ID: id, Selected: -1, TimeTaken: time.Since(start).Microseconds()}

	if open := s.st.Open; open != nil {
		resp.Open = true
		resp.Selected = open.Selected
		resp.Disabled = open.Disabled
		resp.Anchor = AnchorPayload{Pos: open.Anchor.Pos, Above: open.Anchor.Above}
		resp.Attrs = open.Attrs
		resp.Count = len(open.Options)
		resp.Options = make([]OptionPayload, len(open.Options))
		for i, opt := range open.Options {
			resp.Options[i] = OptionPayload{
				Label:  opt.Candidate.Label,
				Detail: opt.Candidate.Detail,
				Type:   opt.Candidate.Type,
				Match:  opt.Match,
				Score:  opt.Score,
			}
		}
	}
	s.send(resp)
}

func (s *Server) send(response any) {
	if err := s.enc.Encode(response); err != nil {
		s.log.Errorf("Encoding response: %v", err)
	}
}

func (s *Server) sendError(id, message string, code int) {
	s.send(ErrorResponse{ID: id, Error: message, Code: code})
}

func buildChangeSet(specs []ChangeSpec) (doc.ChangeSet, error) {
	if len(specs) == 0 {
		return doc.ChangeSet{}, nil
	}
	changes := make([]doc.Change, len(specs))
	for i, c := range specs {
		changes[i] = doc.Change{From: c.From, To: c.To, Insert: c.Insert}
	}
	cs, err := doc.NewChangeSet(changes...)
	if err != nil {
		return doc.ChangeSet{}, fmt.Errorf("invalid changes: %w", err)
	}
	return cs, nil
}

func parseEvent(ev string) state.UserEvent {
	switch ev {
	case "input":
		return state.EventInput
	case "delete":
		return state.EventDelete
	default:
		return state.EventNone
	}
}
