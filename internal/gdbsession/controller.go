// Package gdbsession is the Sync Controller: it drives the Async
// Controller to completion on the calling goroutine and adds
// execute/recv_all batch semantics plus the bound-command registry the
// Dynamic Command Binder populates. There is no separate event loop:
// Go's blocking I/O already drives each call to completion on its own
// goroutine.
package gdbsession

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/nick/gdbmictl/internal/gdbasync"
	"github.com/nick/gdbmictl/internal/gdbconfig"
	"github.com/nick/gdbmictl/internal/mi"
	"github.com/nick/gdbmictl/internal/pretty"
)

// BoundCommand is a dynamically discovered debugger command attached as
// a callable, the entry type of the bound-command registry named in the
// data model.
type BoundCommand struct {
	// MICommand is the literal MI/CLI command name to send, e.g. "print".
	MICommand string
	// Doc is the "help <command>" text, prefixed by the Binder with a
	// "Command: <name>" header.
	Doc string
}

// Controller is the Sync Controller: an Async Controller plus batch
// aggregation, a printer, and the bound-command registry.
type Controller struct {
	*gdbasync.Controller

	mu        sync.Mutex
	lastBatch []mi.Record
	printer   *pretty.Printer
	bound     map[string]BoundCommand
}

// New builds a Controller. out is where pretty-printed output goes
// (typically os.Stdout); cfg.ForceStyling overrides color autodetection
// when non-nil, per the "force_styling (Sync Controller only)"
// configuration knob.
func New(cfg gdbconfig.Config, logger *slog.Logger, out *os.File) *Controller {
	if out == nil {
		out = os.Stdout
	}
	return &Controller{
		Controller: gdbasync.New(cfg, logger),
		printer:    pretty.New(out, cfg.ForceStyling),
		bound:      make(map[string]BoundCommand),
	}
}

// LastBatch returns the record batch collected by the most recent
// Execute call.
func (c *Controller) LastBatch() []mi.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastBatch
}

// RecvAll repeatedly calls Recv until a Prompt or "none" (timeout/EOF)
// is observed; neither is included in the returned batch. When
// prettyPrint is true, each record is rendered through the Printer in
// arrival order as it is collected.
func (c *Controller) RecvAll(timeout time.Duration, prettyPrint bool) []mi.Record {
	var batch []mi.Record
	for {
		rec, err := c.Recv(timeout)
		if err != nil || rec == nil {
			return batch
		}
		if rec.Type() == mi.TypePrompt {
			return batch
		}
		if prettyPrint {
			c.printer.Render(rec)
		}
		batch = append(batch, rec)
	}
}

// Execute sends command and drains the response batch via RecvAll,
// storing it as LastBatch; it returns the batch only when returnRecords
// is true, matching the "_execute" internal variant's always-return
// behavior being reserved for ExecuteQuiet.
func (c *Controller) Execute(command string, timeout time.Duration, prettyPrint, returnRecords bool) ([]mi.Record, error) {
	if _, err := c.Send(command, ""); err != nil {
		return nil, err
	}
	batch := c.RecvAll(timeout, prettyPrint)

	c.mu.Lock()
	c.lastBatch = batch
	c.mu.Unlock()

	if returnRecords {
		return batch, nil
	}
	return nil, nil
}

// Call invokes a previously bound command with positional arguments,
// executing "<mi-command> arg1 arg2 ..." through Execute — the uniform
// call(identifier, args) -> batch surface the design notes ask for.
// prettyPrint matches Execute's parameter: callers driving an
// interactive session (the REPL) should pass true so bound-command
// output actually reaches the terminal, the way invoking the command
// directly does.
func (c *Controller) Call(identifier string, args []string, timeout time.Duration, prettyPrint bool) ([]mi.Record, error) {
	c.mu.Lock()
	cmd, ok := c.bound[identifier]
	c.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("gdbsession: no command bound to %q", identifier)
	}
	text := cmd.MICommand
	for _, a := range args {
		text += " " + a
	}
	return c.Execute(text, timeout, prettyPrint, true)
}

// Bind attaches a discovered command under identifier. Used only by the
// Binder; exported so the Binder package (which must not import
// gdbsession's internals beyond this surface) can populate the
// registry.
func (c *Controller) Bind(identifier string, cmd BoundCommand) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bound[identifier] = cmd
}

// AvailableCommands lists every bound identifier, for tab-completion or
// introspection.
func (c *Controller) AvailableCommands() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, 0, len(c.bound))
	for name := range c.bound {
		names = append(names, name)
	}
	return names
}

// Doc returns the stored documentation string for a bound command.
func (c *Controller) Doc(identifier string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cmd, ok := c.bound[identifier]
	return cmd.Doc, ok
}

// Spawn starts the debugger; it is a thin passthrough to the embedded
// Async Controller kept here so callers depend on one package for the
// whole session lifecycle.
func (c *Controller) Spawn(ctx context.Context) error {
	return c.Controller.Spawn(ctx)
}

// Shutdown tears the session down; passthrough, same rationale as
// Spawn.
func (c *Controller) Shutdown() error {
	return c.Controller.Shutdown()
}
