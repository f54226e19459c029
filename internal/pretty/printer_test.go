package pretty

import (
	"bytes"
	"strings"
	"testing"

	"github.com/nick/gdbmictl/internal/mi"
)

func forceOff() *bool { f := false; return &f }
func forceOn() *bool  { t := true; return &t }

func TestRenderConsoleStreamTrimsTrailingWhitespace(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf, forceOff())
	p.Render(mi.StreamRecord{Channel: mi.ChannelConsole, Text: "hello world  \t"})
	if buf.String() != "hello world\n" {
		t.Fatalf("unexpected output: %q", buf.String())
	}
}

func TestRenderLogStreamSuppressed(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf, forceOff())
	p.Render(mi.StreamRecord{Channel: mi.ChannelLog, Text: "internal log line"})
	if buf.Len() != 0 {
		t.Fatalf("expected no output for log stream, got %q", buf.String())
	}
}

func TestRenderErrorResultIsolatesMessage(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf, forceOff())
	p.Render(mi.ResultRecord{
		Class: mi.ResultError,
		Results: []mi.KV{
			{Key: "msg", Value: mi.StringValue("No symbol \"foo\" in current context.")},
			{Key: "code", Value: mi.StringValue("undefined-command")},
		},
	})
	out := buf.String()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if lines[0] != "Error:" {
		t.Fatalf("expected first line 'Error:', got %q", lines[0])
	}
	if lines[1] != `No symbol "foo" in current context.` {
		t.Fatalf("expected isolated msg line, got %q", lines[1])
	}
}

func TestRenderDoneResultWithoutPayload(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf, forceOff())
	p.Render(mi.ResultRecord{Class: mi.ResultDone})
	if buf.String() != "Done\n" {
		t.Fatalf("unexpected output: %q", buf.String())
	}
}

func TestRenderAsyncInlinesShortPayload(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf, forceOff())
	p.Render(mi.AsyncRecord{
		Class: mi.AsyncExec,
		Kind:  "stopped",
		Results: []mi.KV{
			{Key: "reason", Value: mi.StringValue("exited-normally")},
		},
	})
	if !strings.HasPrefix(buf.String(), "stopped: reason=") {
		t.Fatalf("unexpected async rendering: %q", buf.String())
	}
}

func TestForceStylingOnProducesANSICodes(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf, forceOn())
	p.Render(mi.ResultRecord{Class: mi.ResultError, Results: []mi.KV{
		{Key: "msg", Value: mi.StringValue("boom")},
	}})
	if !strings.Contains(buf.String(), "\x1b[") {
		t.Fatalf("expected ANSI escape codes when styling forced on, got %q", buf.String())
	}
}
