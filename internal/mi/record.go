package mi

// Type identifies which of the four MI record shapes a Record is.
type Type int

const (
	TypeAsync Type = iota
	TypeStream
	TypeResult
	TypePrompt
)

// AsyncClass is the MI async-record subtype, carried by the three async
// prefix characters ('*' exec, '+' status, '=' notify).
type AsyncClass int

const (
	AsyncExec AsyncClass = iota
	AsyncStatus
	AsyncNotify
)

// Channel is the MI stream-record subtype ('~' console, '@' target,
// '&' log).
type Channel int

const (
	ChannelConsole Channel = iota
	ChannelTarget
	ChannelLog
)

// ResultClass is the MI result-record subtype following "^".
type ResultClass int

const (
	ResultDone ResultClass = iota
	ResultRunning
	ResultConnected
	ResultError
	ResultExit
)

var resultClassNames = map[string]ResultClass{
	"done":      ResultDone,
	"running":   ResultRunning,
	"connected": ResultConnected,
	"error":     ResultError,
	"exit":      ResultExit,
}

// Record is one parsed line of MI output: an async notification, a stream
// of human-readable text, a command result, or the "(gdb)" prompt.
type Record interface {
	Type() Type
}

// AsyncRecord is an async notification ("*stopped,reason=...",
// "=thread-group-added,...").
type AsyncRecord struct {
	Class   AsyncClass
	Kind    string // e.g. "stopped", "thread-group-added"
	Results []KV
	Tok     string
	HasTok  bool
}

func (AsyncRecord) Type() Type { return TypeAsync }

// Token returns the numeric token prefixing this async record, if GDB
// echoed one (GDB does not document this as stable; callers should not
// rely on it for correlation — see the codec's Open Question note).
func (a AsyncRecord) Token() (string, bool) { return a.Tok, a.HasTok }

// Native renders the async record's result fields as a plain map.
func (a AsyncRecord) Native(includeHeaders bool) map[string]any {
	return kvNative(a.Results, includeHeaders)
}

// StreamRecord is console/target/log text GDB prints verbatim.
type StreamRecord struct {
	Channel Channel
	Text    string
}

func (StreamRecord) Type() Type { return TypeStream }

// ResultRecord is a command's result ("<token>^done,...",
// "<token>^error,msg=...").
type ResultRecord struct {
	Tok     string
	HasTok  bool
	Class   ResultClass
	Results []KV
}

func (ResultRecord) Type() Type { return TypeResult }

func (r ResultRecord) Token() (string, bool) { return r.Tok, r.HasTok }

// Native renders the result record's fields as a plain map.
func (r ResultRecord) Native(includeHeaders bool) map[string]any {
	return kvNative(r.Results, includeHeaders)
}

// ErrorMessage returns the "msg" field of an error result, the detail
// GDB attaches to "^error".
func (r ResultRecord) ErrorMessage() string {
	for _, kv := range r.Results {
		if kv.Key == "msg" && kv.Value.Kind == KindString {
			return kv.Value.Str
		}
	}
	return ""
}

// PromptRecord is the "(gdb) " line GDB prints when ready for a new
// command.
type PromptRecord struct{}

func (PromptRecord) Type() Type { return TypePrompt }

func kvNative(kvs []KV, includeHeaders bool) map[string]any {
	m := make(map[string]any, len(kvs))
	for _, kv := range kvs {
		m[kv.Key] = kv.Value.Native(includeHeaders)
	}
	return m
}

// IsAsync reports whether r is an AsyncRecord, optionally restricted to
// one of the given classes.
func IsAsync(r Record, classes ...AsyncClass) bool {
	a, ok := r.(AsyncRecord)
	if !ok {
		return false
	}
	if len(classes) == 0 {
		return true
	}
	for _, c := range classes {
		if a.Class == c {
			return true
		}
	}
	return false
}

// IsStream reports whether r is a StreamRecord, optionally restricted to
// one of the given channels.
func IsStream(r Record, channels ...Channel) bool {
	s, ok := r.(StreamRecord)
	if !ok {
		return false
	}
	if len(channels) == 0 {
		return true
	}
	for _, c := range channels {
		if s.Channel == c {
			return true
		}
	}
	return false
}

// IsResult reports whether r is a ResultRecord, optionally restricted to
// one of the given classes.
func IsResult(r Record, classes ...ResultClass) bool {
	res, ok := r.(ResultRecord)
	if !ok {
		return false
	}
	if len(classes) == 0 {
		return true
	}
	for _, c := range classes {
		if res.Class == c {
			return true
		}
	}
	return false
}
