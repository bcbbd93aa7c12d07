/*
Package server implements msgpack IPC for the completion engine.

The protocol is binary msgpack over stdin/stdout, one message per request.
Each request carries an ID echoed back in the response and an op selecting
the handler.

Session ops drive the transaction engine:

	{"id": "u1", "op": "update", "doc": "say hel", "pos": 7, "opos": 6, "ev": "input",
	 "ch": [{"from": 6, "to": 6, "ins": "l"}]}

The server answers with the dialog state: ranked options, the selection, the
anchor, and the accessibility attributes.

	{"id": "u1", "options": [{"label": "hello", ...}], "selected": 0, ...}

"select" moves the dialog selection, "apply" commits an option and returns
the document edit to perform:

	{"id": "s1", "op": "select", "i": 2}
	{"id": "a1", "op": "apply", "i": 2}

"complete" is the stateless prefix lookup, useful for dumb clients that keep
their own editor state:

	{"id": "c1", "op": "complete", "p": "ame", "l": 24}

"dict" manages the loaded dictionary chunks at runtime and "config" adjusts
engine options without restart.
*/
package server

// ChangeSpec is one document edit in pre-change coordinates.
type ChangeSpec struct {
	From   int    `msgpack:"from"`
	To     int    `msgpack:"to"`
	Insert string `msgpack:"ins,omitempty"`
}

// Request is the envelope for every incoming message. Fields beyond ID and
// Op are op-specific.
type Request struct {
	ID string `msgpack:"id"`
	Op string `msgpack:"op"`

	// update
	Doc        string       `msgpack:"doc,omitempty"`
	Pos        int          `msgpack:"pos,omitempty"`
	OldPos     int          `msgpack:"opos,omitempty"`
	Event      string       `msgpack:"ev,omitempty"` // "input", "delete" or empty
	SelChanged bool         `msgpack:"sel,omitempty"`
	Changes    []ChangeSpec `msgpack:"ch,omitempty"`
	Explicit   bool         `msgpack:"explicit,omitempty"`
	Close      bool         `msgpack:"close,omitempty"`

	// select, apply
	Index int `msgpack:"i,omitempty"`

	// complete
	Prefix string `msgpack:"p,omitempty"`
	Limit  int    `msgpack:"l,omitempty"`

	// dict: "get_info", "set_size", "get_options"
	Action     string `msgpack:"action,omitempty"`
	ChunkCount *int   `msgpack:"chunk_count,omitempty"`

	// config
	MaxOptions       *int  `msgpack:"max_options,omitempty"`
	ActivateOnTyping *bool `msgpack:"activate_on_typing,omitempty"`
	SelectOnOpen     *bool `msgpack:"select_on_open,omitempty"`
}

// OptionPayload is one ranked option in a dialog response.
type OptionPayload struct {
	Label  string `msgpack:"label"`
	Detail string `msgpack:"detail,omitempty"`
	Type   string `msgpack:"type,omitempty"`
	Match  []int  `msgpack:"match,omitempty"`
	Score  int    `msgpack:"score"`
}

// AnchorPayload mirrors the dialog anchor.
type AnchorPayload struct {
	Pos   int  `msgpack:"pos"`
	Above bool `msgpack:"above"`
}

// DialogResponse is the engine state after an update or select op. Open is
// false when no panel should show; the other fields are then zero.
type DialogResponse struct {
	ID        string            `msgpack:"id"`
	Open      bool              `msgpack:"open"`
	Options   []OptionPayload   `msgpack:"options,omitempty"`
	Count     int               `msgpack:"c"`
	Selected  int               `msgpack:"selected"`
	Disabled  bool              `msgpack:"disabled,omitempty"`
	Anchor    AnchorPayload     `msgpack:"anchor"`
	Attrs     map[string]string `msgpack:"attrs,omitempty"`
	TimeTaken int64             `msgpack:"t"`
}

// EditResponse is the result of an apply op: the edit the host should make.
// Applied is false when the option no longer exists; Handled marks action
// candidates that performed their own commit.
type EditResponse struct {
	ID      string `msgpack:"id"`
	Applied bool   `msgpack:"applied"`
	Handled bool   `msgpack:"handled,omitempty"`
	From    int    `msgpack:"from"`
	To      int    `msgpack:"to"`
	Insert  string `msgpack:"ins"`
	Label   string `msgpack:"label,omitempty"`
}

// CompletionSuggestion is one hit of the stateless prefix op.
type CompletionSuggestion struct {
	Word string `msgpack:"w"`
	Rank uint16 `msgpack:"r"`
}

// CompletionResponse answers the stateless prefix op. TimeTaken is in
// microseconds.
type CompletionResponse struct {
	ID          string                 `msgpack:"id"`
	Suggestions []CompletionSuggestion `msgpack:"s"`
	Count       int                    `msgpack:"c"`
	TimeTaken   int64                  `msgpack:"t"`
}

// DictionarySizeOption describes one loadable dictionary size.
type DictionarySizeOption struct {
	ChunkCount int    `msgpack:"chunk_count"`
	WordCount  int    `msgpack:"word_count"`
	SizeLabel  string `msgpack:"size_label"`
}

// DictionaryResponse answers dict ops.
type DictionaryResponse struct {
	ID              string                 `msgpack:"id"`
	Status          string                 `msgpack:"status"`
	Error           string                 `msgpack:"error,omitempty"`
	CurrentChunks   int                    `msgpack:"current_chunks,omitempty"`
	AvailableChunks int                    `msgpack:"available_chunks,omitempty"`
	TotalWords      int                    `msgpack:"total_words,omitempty"`
	Options         []DictionarySizeOption `msgpack:"options,omitempty"`
}

// ConfigResponse answers config ops.
type ConfigResponse struct {
	ID     string `msgpack:"id"`
	Status string `msgpack:"status"`
	Error  string `msgpack:"error,omitempty"`
}

// ErrorResponse reports a malformed or failed request.
type ErrorResponse struct {
	ID    string `msgpack:"id"`
	Error string `msgpack:"e"`
	Code  int    `msgpack:"c"`
}
