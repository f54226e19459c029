package gdbsession

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/nick/gdbmictl/internal/gdbconfig"
	"github.com/nick/gdbmictl/internal/mi"
	"github.com/nick/gdbmictl/internal/pretty"
)

func fixtureConfig() gdbconfig.Config {
	cfg := gdbconfig.Defaults()
	cfg.GDBPath = filepath.Join("testdata", "fakegdb.sh")
	cfg.DefaultTimeout = 5 * time.Second
	return cfg
}

func TestExecuteReturnsBatchWhenRequested(t *testing.T) {
	c := New(fixtureConfig(), nil, nil)
	if err := c.Spawn(context.Background()); err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	defer c.Shutdown()

	batch, err := c.Execute("-gdb-version", 2*time.Second, false, true)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(batch) == 0 {
		t.Fatalf("expected non-empty batch")
	}
	last := batch[len(batch)-1]
	rr, ok := last.(mi.ResultRecord)
	if !ok || rr.Class != mi.ResultDone {
		t.Fatalf("expected trailing ResultDone, got %#v", last)
	}
	if got := c.LastBatch(); len(got) != len(batch) {
		t.Fatalf("LastBatch not stored: %v vs %v", got, batch)
	}
}

func TestExecuteWithoutReturnRecordsStillPopulatesLastBatch(t *testing.T) {
	c := New(fixtureConfig(), nil, nil)
	if err := c.Spawn(context.Background()); err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	defer c.Shutdown()

	batch, err := c.Execute("-gdb-version", 2*time.Second, false, false)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if batch != nil {
		t.Fatalf("expected nil return when returnRecords=false, got %v", batch)
	}
	if len(c.LastBatch()) == 0 {
		t.Fatalf("expected LastBatch to be populated regardless of return value")
	}
}

func TestBindAndCall(t *testing.T) {
	c := New(fixtureConfig(), nil, nil)
	if err := c.Spawn(context.Background()); err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	defer c.Shutdown()

	c.Bind("zprint", BoundCommand{MICommand: "print", Doc: "Command: print\n\nPrint value."})
	if doc, ok := c.Doc("zprint"); !ok || doc == "" {
		t.Fatalf("expected doc for zprint")
	}

	batch, err := c.Call("zprint", []string{"1+1"}, 2*time.Second, false)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if len(batch) == 0 {
		t.Fatalf("expected a batch from Call")
	}
}

func TestCallPrettyPrintsWhenRequested(t *testing.T) {
	var buf bytes.Buffer
	c := New(fixtureConfig(), nil, nil)
	c.printer = pretty.New(&buf, boolPtr(false))
	if err := c.Spawn(context.Background()); err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	defer c.Shutdown()

	c.Bind("zprint", BoundCommand{MICommand: "print", Doc: "Command: print\n\nPrint value."})
	if _, err := c.Call("zprint", []string{"1+1"}, 2*time.Second, true); err != nil {
		t.Fatalf("Call: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatalf("expected Call(prettyPrint=true) to render output, got none")
	}
}

func boolPtr(b bool) *bool { return &b }

func TestAvailableCommandsListsBoundIdentifiers(t *testing.T) {
	c := New(fixtureConfig(), nil, nil)
	c.Bind("zsend", BoundCommand{MICommand: "send", Doc: "Command: send"})
	names := c.AvailableCommands()
	if len(names) != 1 || names[0] != "zsend" {
		t.Fatalf("unexpected available commands: %v", names)
	}
}
