package mi

import (
	"fmt"
	"regexp"
	"strings"
)

// line classifiers: a leading decimal token is optional on every record
// kind except stream records, which never carry one.
var (
	resultLine = regexp.MustCompile(`^(\d*)\^([a-z]+)(.*)$`)
	execLine   = regexp.MustCompile(`^(\d*)\*([a-zA-Z0-9_-]+)(.*)$`)
	statusLine = regexp.MustCompile(`^(\d*)\+([a-zA-Z0-9_-]+)(.*)$`)
	notifyLine = regexp.MustCompile(`^(\d*)=([a-zA-Z0-9_-]+)(.*)$`)
	consoleLine = regexp.MustCompile(`^~(.*)$`)
	targetLine  = regexp.MustCompile(`^@(.*)$`)
	logLine     = regexp.MustCompile(`^&(.*)$`)
)

// Parser turns raw MI output lines into Records. It is stateless aside
// from the newline convention the caller passes in (gdbasync always
// passes "\r\n"); the codec itself never reads from a stream.
type Parser struct {
	// Newline is the line terminator the caller already stripped before
	// calling ParseLine; kept only so String()-producing callers can
	// reconstruct wire text if needed.
	Newline string
}

// NewParser builds a Parser for the given newline convention ("\n" or
// "\r\n").
func NewParser(newline string) *Parser {
	if newline == "" {
		newline = "\n"
	}
	return &Parser{Newline: newline}
}

// ParseLine classifies and parses one line of MI output (with its
// terminator already stripped). It returns an error only when the line
// looks like a tagged record but its result-data grammar is malformed;
// unrecognized lines are returned as a console StreamRecord, matching
// GDB's own leniency about stray text on stdout.
func (p *Parser) ParseLine(line string) (Record, error) {
	if line == "" {
		return StreamRecord{Channel: ChannelConsole, Text: ""}, nil
	}

	if strings.TrimRight(line, " \t") == "(gdb)" {
		return PromptRecord{}, nil
	}

	if m := resultLine.FindStringSubmatch(line); m != nil {
		class, ok := resultClassNames[m[2]]
		if !ok {
			return nil, fmt.Errorf("mi: unknown result class %q", m[2])
		}
		kvs, err := parseResultsTail(m[3])
		if err != nil {
			return nil, fmt.Errorf("mi: parsing result record: %w", err)
		}
		return ResultRecord{Tok: m[1], HasTok: m[1] != "", Class: class, Results: kvs}, nil
	}
	if m := execLine.FindStringSubmatch(line); m != nil {
		return parseAsync(m, AsyncExec)
	}
	if m := statusLine.FindStringSubmatch(line); m != nil {
		return parseAsync(m, AsyncStatus)
	}
	if m := notifyLine.FindStringSubmatch(line); m != nil {
		return parseAsync(m, AsyncNotify)
	}
	if m := consoleLine.FindStringSubmatch(line); m != nil {
		text, err := unquote(m[1])
		if err != nil {
			return nil, fmt.Errorf("mi: parsing console stream: %w", err)
		}
		return StreamRecord{Channel: ChannelConsole, Text: text}, nil
	}
	if m := targetLine.FindStringSubmatch(line); m != nil {
		text, err := unquote(m[1])
		if err != nil {
			return nil, fmt.Errorf("mi: parsing target stream: %w", err)
		}
		return StreamRecord{Channel: ChannelTarget, Text: text}, nil
	}
	if m := logLine.FindStringSubmatch(line); m != nil {
		text, err := unquote(m[1])
		if err != nil {
			return nil, fmt.Errorf("mi: parsing log stream: %w", err)
		}
		return StreamRecord{Channel: ChannelLog, Text: text}, nil
	}

	// Unrecognized text shows up on the PTY constantly (GDB startup
	// banner, inferior program output sharing the same terminal); treat
	// it as console text rather than erroring.
	return StreamRecord{Channel: ChannelConsole, Text: line}, nil
}

func parseAsync(m []string, class AsyncClass) (Record, error) {
	kvs, err := parseResultsTail(m[3])
	if err != nil {
		return nil, fmt.Errorf("mi: parsing async record: %w", err)
	}
	return AsyncRecord{Class: class, Kind: m[2], Results: kvs, Tok: m[1], HasTok: m[1] != ""}, nil
}

// parseResultsTail parses the ",key=value,key=value..." tail shared by
// result and async records.
func parseResultsTail(tail string) ([]KV, error) {
	if tail == "" {
		return nil, nil
	}
	if !strings.HasPrefix(tail, ",") {
		return nil, fmt.Errorf("expected ',' before result list, got %q", tail)
	}
	dec := &decoder{s: tail[1:]}
	kvs, err := dec.parseKVList('\x00')
	if err != nil {
		return nil, err
	}
	return kvs, nil
}

// decoder is a minimal recursive-descent parser over the MI value
// grammar: value := c-string | tuple | list ; tuple := '{' kvlist? '}' ;
// list := '[' (value-list | kvlist)? ']'. Tuples/lists nest arbitrarily,
// unlike a flat split-on-comma reading of the grammar.
type decoder struct {
	s   string
	pos int
}

func (d *decoder) rest() string { return d.s[d.pos:] }

func (d *decoder) peek() (byte, bool) {
	if d.pos >= len(d.s) {
		return 0, false
	}
	return d.s[d.pos], true
}

// parseKVList parses a comma-separated list of key=value pairs up to
// (but not consuming) the given terminator byte, or to end of input when
// terminator is the sentinel \x00.
func (d *decoder) parseKVList(terminator byte) ([]KV, error) {
	var out []KV
	for {
		b, ok := d.peek()
		if !ok || (terminator != 0 && b == terminator) {
			return out, nil
		}
		key, err := d.parseKey()
		if err != nil {
			return nil, err
		}
		if b2, ok := d.peek(); !ok || b2 != '=' {
			return nil, fmt.Errorf("expected '=' after key %q at %q", key, d.rest())
		}
		d.pos++ // consume '='
		val, err := d.parseValue()
		if err != nil {
			return nil, err
		}
		out = append(out, KV{Key: key, Value: val})
		b3, ok := d.peek()
		if !ok {
			return out, nil
		}
		if terminator != 0 && b3 == terminator {
			return out, nil
		}
		if b3 != ',' {
			return nil, fmt.Errorf("expected ',' or terminator, got %q", d.rest())
		}
		d.pos++ // consume ','
	}
}

func (d *decoder) parseKey() (string, error) {
	start := d.pos
	for d.pos < len(d.s) {
		c := d.s[d.pos]
		if c == '=' {
			break
		}
		d.pos++
	}
	if d.pos == start {
		return "", fmt.Errorf("empty key at %q", d.s[start:])
	}
	return d.s[start:d.pos], nil
}

func (d *decoder) parseValue() (Value, error) {
	b, ok := d.peek()
	if !ok {
		return Value{}, fmt.Errorf("unexpected end of input, expected value")
	}
	switch b {
	case '"':
		s, err := d.parseCString()
		if err != nil {
			return Value{}, err
		}
		return StringValue(s), nil
	case '{':
		return d.parseTuple()
	case '[':
		return d.parseList()
	default:
		return Value{}, fmt.Errorf("unexpected byte %q at start of value, rest=%q", b, d.rest())
	}
}

func (d *decoder) parseCString() (string, error) {
	raw, n, err := scanQuoted(d.s[d.pos:])
	if err != nil {
		return "", err
	}
	d.pos += n
	return raw, nil
}

func (d *decoder) parseTuple() (Value, error) {
	d.pos++ // consume '{'
	kvs, err := d.parseKVList('}')
	if err != nil {
		return Value{}, err
	}
	b, ok := d.peek()
	if !ok || b != '}' {
		return Value{}, fmt.Errorf("unterminated tuple at %q", d.rest())
	}
	d.pos++ // consume '}'
	return Value{Kind: KindTuple, Tuple: kvs}, nil
}

func (d *decoder) parseList() (Value, error) {
	d.pos++ // consume '['
	if b, ok := d.peek(); ok && b == ']' {
		d.pos++
		return Value{Kind: KindList}, nil
	}

	// A list can hold bare values (results=[val,val,...]) or name=value
	// pairs (results=[frame={...},frame={...}]); disambiguate by
	// attempting a bare value parse first, since a '=' appearing as a
	// value's first byte is never legal MI.
	save := d.pos
	if v, err := d.parseValue(); err == nil {
		values := []Value{v}
		for {
			b, ok := d.peek()
			if !ok {
				return Value{}, fmt.Errorf("unterminated list at %q", d.rest())
			}
			if b == ']' {
				d.pos++
				return Value{Kind: KindList, List: values}, nil
			}
			if b != ',' {
				return Value{}, fmt.Errorf("expected ',' or ']' in list, got %q", d.rest())
			}
			d.pos++
			v, err := d.parseValue()
			if err != nil {
				return Value{}, err
			}
			values = append(values, v)
		}
	}

	d.pos = save
	kvs, err := d.parseKVList(']')
	if err != nil {
		return Value{}, err
	}
	b, ok := d.peek()
	if !ok || b != ']' {
		return Value{}, fmt.Errorf("unterminated list at %q", d.rest())
	}
	d.pos++
	wrapped := make([]Value, len(kvs))
	for i, kv := range kvs {
		wrapped[i] = Value{Kind: KindTuple, Tuple: []KV{kv}}
	}
	return Value{Kind: KindList, List: wrapped}, nil
}

// scanQuoted reads a double-quoted, backslash-escaped C string starting
// at s[0] == '"', returning the unescaped text and the number of bytes
// consumed from s (including both quotes).
func scanQuoted(s string) (string, int, error) {
	if len(s) == 0 || s[0] != '"' {
		return "", 0, fmt.Errorf("expected '\"' at %q", s)
	}
	var b strings.Builder
	i := 1
	for i < len(s) {
		c := s[i]
		if c == '"' {
			return b.String(), i + 1, nil
		}
		if c == '\\' && i+1 < len(s) {
			i++
			switch s[i] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case '"', '\\':
				b.WriteByte(s[i])
			default:
				b.WriteByte(s[i])
			}
			i++
			continue
		}
		b.WriteByte(c)
		i++
	}
	return "", 0, fmt.Errorf("unterminated string literal: %q", s)
}

func unquote(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	text, n, err := scanQuoted(s)
	if err != nil {
		return "", err
	}
	if n != len(s) {
		return "", fmt.Errorf("trailing data after quoted string: %q", s[n:])
	}
	return text, nil
}
