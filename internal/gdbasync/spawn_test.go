package gdbasync

import (
	"context"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/nick/gdbmictl/internal/gdbconfig"
	"github.com/nick/gdbmictl/internal/mi"
)

func fixtureGDB(t *testing.T) gdbconfig.Config {
	t.Helper()
	cfg := gdbconfig.Defaults()
	cfg.GDBPath = filepath.Join("testdata", "fakegdb.sh")
	cfg.DefaultTimeout = 5 * time.Second
	return cfg
}

func TestSpawnSendRecvShutdown(t *testing.T) {
	c := New(fixtureGDB(t), nil)
	if err := c.Spawn(context.Background()); err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	defer c.Shutdown()

	if !c.Running() {
		t.Fatalf("expected Running() true after Spawn")
	}

	tok, err := c.Send("-gdb-version", "")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if tok == "" {
		t.Fatalf("expected non-empty auto-assigned token")
	}

	var result mi.Record
	for i := 0; i < 5 && result == nil; i++ {
		rec, err := c.Recv(2 * time.Second)
		if err != nil {
			t.Fatalf("Recv: %v", err)
		}
		if rec != nil && rec.Type() == mi.TypeResult {
			result = rec
		}
	}
	if result == nil {
		t.Fatalf("expected a result record before giving up")
	}
	rr := result.(mi.ResultRecord)
	if rr.Class != mi.ResultDone {
		t.Fatalf("expected ResultDone, got %v", rr.Class)
	}
	if got, _ := rr.Token(); got != tok {
		t.Fatalf("result token %q does not match send token %q", got, tok)
	}
}

func TestTokenCounterMonotonic(t *testing.T) {
	c := New(fixtureGDB(t), nil)
	if err := c.Spawn(context.Background()); err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	defer c.Shutdown()

	tok1, err := c.Send("-gdb-version", "")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	tok2, err := c.Send("-gdb-version", "")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	n1, _ := strconv.ParseUint(tok1, 10, 64)
	n2, _ := strconv.ParseUint(tok2, 10, 64)
	if n2 <= n1 {
		t.Fatalf("expected increasing tokens, got %q then %q", tok1, tok2)
	}
}
