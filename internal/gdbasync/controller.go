// Package gdbasync is the low-level Async Controller: it spawns GDB
// under a PTY, sends tokenized MI commands, and receives one record per
// call. It owns the token counter and the MI line-boundary convention,
// the argv/handshake assembly, and the escalating shutdown sequence.
package gdbasync

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/nick/gdbmictl/internal/gdbconfig"
	"github.com/nick/gdbmictl/internal/mi"
	"github.com/nick/gdbmictl/internal/ptyhost"
	"github.com/nick/gdbmictl/internal/redact"
)

// Controller is the Async Controller: at most one live child at a time.
type Controller struct {
	mu sync.Mutex

	cfg    gdbconfig.Config
	child  *ptyhost.Host
	codec  *mi.Parser
	logger *slog.Logger

	tokenCounter   *uint64 // nil when token generation is disabled
	defaultTimeout time.Duration
}

// New constructs an unspawned Controller from cfg. Passing a nil logger
// uses slog.Default().
func New(cfg gdbconfig.Config, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Controller{cfg: cfg, logger: logger, defaultTimeout: cfg.DefaultTimeout}
	if !cfg.TokensDisabled {
		start := cfg.TokenStart
		if start == 0 {
			start = 87362
		}
		c.tokenCounter = &start
	}
	return c
}

// Running reports whether a child is currently attached.
func (c *Controller) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.child != nil
}

// Spawn starts the debugger under a PTY and performs the initial
// handshake (banner drain, "set confirm off").
func (c *Controller) Spawn(ctx context.Context) error {
	c.mu.Lock()
	if c.child != nil {
		c.mu.Unlock()
		return ErrAlreadyRunning
	}
	c.mu.Unlock()

	argv := buildArgv(c.cfg)
	env := buildEnv(c.cfg)

	c.logger.Info("spawning debugger", "argv", redact.Argv(argv), "env", redact.Env(env))

	child, err := ptyhost.Spawn(ctx, argv, ptyhost.Options{
		Rows: c.cfg.Rows, Cols: c.cfg.Cols, Env: env,
	})
	if err != nil {
		return fmt.Errorf("gdbasync: spawn: %w", err)
	}

	newline, err := detectNewlineAndDrainBanner(child)
	if err != nil {
		_ = child.Close(true)
		return err
	}

	c.mu.Lock()
	c.child = child
	c.codec = mi.NewParser(newline)
	c.mu.Unlock()

	if _, err := c.executeQuiet("set confirm off", 0); err != nil {
		c.mu.Lock()
		c.child = nil
		c.mu.Unlock()
		_ = child.Close(true)
		return fmt.Errorf("gdbasync: disarming confirmations: %w", err)
	}

	return nil
}

// buildArgv assembles the debugger's argv per the fixed/conditional
// flags: default binary "gdb", --data-directory when configured,
// --quiet, -interpreter=mi, and --nh/--nx under NoInit.
func buildArgv(cfg gdbconfig.Config) []string {
	bin := cfg.GDBPath
	if bin == "" {
		bin = "gdb"
	}
	argv := []string{bin}
	for _, a := range cfg.Args {
		if strings.HasPrefix(a, "--data-directory=") {
			argv = append(argv, a)
		}
	}
	argv = append(argv, "--quiet", "-interpreter=mi")
	if cfg.NoInit {
		argv = append(argv, "--nh", "--nx")
	}
	for _, a := range cfg.Args {
		if !strings.HasPrefix(a, "--data-directory=") {
			argv = append(argv, a)
		}
	}
	return argv
}

// buildEnv returns the LINES/COLUMNS entries for the configured
// geometry; ptyhost.Spawn appends these to the current process's own
// environment rather than replacing it.
func buildEnv(cfg gdbconfig.Config) []string {
	rows, cols := cfg.Rows, cfg.Cols
	if rows == 0 {
		rows = ptyhost.RowsDefault
	}
	if cols == 0 {
		cols = ptyhost.ColsDefault
	}
	return []string{
		fmt.Sprintf("LINES=%d", rows),
		fmt.Sprintf("COLUMNS=%d", cols),
	}
}

// detectNewlineAndDrainBanner reads lines until the initial
// prompt-followed-by-newline pattern appears, consuming any banner text.
// ptyhost's line reader strips both "\r\n" and "\n" endings before a
// line ever reaches this package, so the codec itself never needs to
// branch on the convention (resolving the newline-convention Open
// Question: normalize at the PTY boundary, not in the codec). No
// detection takes place: the returned convention is always "\r\n", and
// the codec only stores it for callers reconstructing wire text.
func detectNewlineAndDrainBanner(child *ptyhost.Host) (string, error) {
	const newline = "\r\n"
	for {
		line, err := child.ReadLine(context.Background())
		if err != nil {
			return "", ErrUnexpectedEOF
		}
		if strings.TrimRight(line, " \t") == "(gdb)" {
			return newline, nil
		}
	}
}

// Send writes "<token><command>\n" to the child and returns the token
// used. token, when non-empty, is used verbatim; otherwise one is
// assigned from the counter (or left empty when token generation is
// disabled).
func (c *Controller) Send(command string, token string) (string, error) {
	if strings.HasSuffix(command, "\n") {
		return "", ErrInvalidCommand
	}

	c.mu.Lock()
	child := c.child
	if child == nil {
		c.mu.Unlock()
		return "", ErrNotRunning
	}
	if token == "" && c.tokenCounter != nil {
		token = strconv.FormatUint(*c.tokenCounter, 10)
		*c.tokenCounter++
	}
	c.mu.Unlock()

	if err := child.SendBytes([]byte(token + command + "\n")); err != nil {
		return "", fmt.Errorf("gdbasync: send: %w", err)
	}
	return token, nil
}

// Recv reads the next MI record, blocking up to timeout (zero means use
// the constructor default; a negative value blocks indefinitely). It
// returns (nil, nil) on timeout or EOF — both collapse to "none", leaving
// the caller to retry or treat the episode as closed — and a non-nil
// error only for a codec failure or a not-running controller.
func (c *Controller) Recv(timeout time.Duration) (mi.Record, error) {
	c.mu.Lock()
	child, codec := c.child, c.codec
	if timeout == 0 {
		timeout = c.defaultTimeout
	}
	c.mu.Unlock()
	if child == nil {
		return nil, ErrNotRunning
	}

	ctx := context.Background()
	var cancel context.CancelFunc
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	line, err := child.ReadLine(ctx)
	if err != nil {
		// Timeout and EOF both collapse to "none": the caller retries
		// or treats the episode as closed.
		return nil, nil
	}

	rec, err := codec.ParseLine(line)
	if err != nil {
		return nil, fmt.Errorf("gdbasync: %w", err)
	}
	return rec, nil
}

// executeQuiet sends command and drains records until the prompt
// sentinel, without pretty-printing — the primitive the handshake and
// the Binder both need without pulling in the Sync Controller.
func (c *Controller) executeQuiet(command string, timeout time.Duration) ([]mi.Record, error) {
	if _, err := c.Send(command, ""); err != nil {
		return nil, err
	}
	var batch []mi.Record
	for {
		rec, err := c.Recv(timeout)
		if err != nil {
			return batch, err
		}
		if rec == nil {
			return batch, ErrMissingPrompt
		}
		if rec.Type() == mi.TypePrompt {
			return batch, nil
		}
		batch = append(batch, rec)
	}
}

// ExecuteQuiet exposes executeQuiet to other packages in this module
// (the Binder) without widening the Controller's public API with a
// pretty-printing variant it doesn't need.
func (c *Controller) ExecuteQuiet(command string, timeout time.Duration) ([]mi.Record, error) {
	return c.executeQuiet(command, timeout)
}

// Shutdown performs the escalating graceful-teardown sequence. It is
// idempotent: a second call on an already-terminated controller is a
// no-op.
func (c *Controller) Shutdown() error {
	c.mu.Lock()
	child := c.child
	c.mu.Unlock()
	if child == nil {
		return nil
	}

	wakeDelay := c.cfg.WakeDelay
	if wakeDelay == 0 {
		wakeDelay = 500 * time.Millisecond
	}
	drainTimeout := c.cfg.DrainTimeout
	if drainTimeout == 0 {
		drainTimeout = 5 * time.Second
	}

	// Step 1: interrupt.
	if err := child.SendSignal(syscall.SIGINT); err != nil {
		c.logger.Warn("shutdown: sending SIGINT failed", "err", err)
	}

	// Step 2: give the child time to wake.
	time.Sleep(wakeDelay)

	// Step 3: write the MI exit command.
	if err := child.SendBytes([]byte("-gdb-exit\n")); err != nil {
		c.logger.Warn("shutdown: writing -gdb-exit failed", "err", err)
	}

	// Step 4: close stdin.
	if err := child.SendEOF(); err != nil {
		c.logger.Warn("shutdown: sending EOF failed", "err", err)
	}

	// Step 5: drain until EOF, timeout, or error — all swallowed, the
	// child is being terminated regardless.
	for {
		ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
		_, err := child.ReadLine(ctx)
		cancel()
		if err != nil {
			break
		}
	}

	// Step 6: force-kill regardless of whether the master was already
	// closed by SendEOF in step 4 — Kill signals the process directly and
	// does not consult Close's closed flag, so a stuck child that ignored
	// every prior step is still reliably terminated here.
	_ = child.Kill()
	_ = child.Close(true)

	c.mu.Lock()
	c.child = nil
	c.mu.Unlock()
	return nil
}
