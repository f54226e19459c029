// Package ptyhost spawns a child process on a pseudo-terminal and gives
// callers line-oriented read/write access to it: the PTY Process Host
// underneath the GDB/MI controllers. It spawns via creack/pty, configures
// raw mode, and follows an escalating stop sequence, with a read-loop and
// wait-for-match idiom borrowed from process-harness style tests.
package ptyhost

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/creack/pty"
)

// RowsDefault and ColsDefault are the PTY window size used when the
// caller does not specify one explicitly.
const (
	RowsDefault = 24
	ColsDefault = 80
)

// Host is one spawned child process attached to a PTY master.
type Host struct {
	cmd    *exec.Cmd
	master *os.File

	mu      sync.Mutex
	lines   chan string
	readErr error
	closed  bool

	exitCh chan error

	Logger *slog.Logger
}

// Options configures Spawn.
type Options struct {
	Rows, Cols uint16
	Env        []string // additional environment entries, appended to os.Environ()
	Dir        string
}

// Spawn starts argv[0] with argv[1:] attached to a new PTY, in raw
// (non-canonical, echo-off) mode, and begins reading its output in the
// background. The caller drains output via Expect/ReadLine/ReadNonblocking.
func Spawn(ctx context.Context, argv []string, opts Options) (*Host, error) {
	if len(argv) == 0 {
		return nil, errors.New("ptyhost: empty argv")
	}
	rows, cols := opts.Rows, opts.Cols
	if rows == 0 {
		rows = RowsDefault
	}
	if cols == 0 {
		cols = ColsDefault
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Env = append(append([]string{}, os.Environ()...), opts.Env...)
	if opts.Dir != "" {
		cmd.Dir = opts.Dir
	}

	master, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: rows, Cols: cols})
	if err != nil {
		return nil, fmt.Errorf("ptyhost: starting %s: %w", argv[0], err)
	}

	if err := setRawMode(master); err != nil {
		_ = master.Close()
		_ = cmd.Process.Kill()
		_, _ = cmd.Process.Wait()
		return nil, fmt.Errorf("ptyhost: configuring raw mode: %w", err)
	}

	h := &Host{
		cmd:    cmd,
		master: master,
		lines:  make(chan string, 256),
		exitCh: make(chan error, 1),
		Logger: slog.Default(),
	}

	go h.readLoop()
	go func() {
		h.exitCh <- cmd.Wait()
	}()

	return h, nil
}

// readLoop splits the PTY master's byte stream into lines and pushes
// them onto h.lines; it is the background half of the cooperative-
// suspension model described for Expect (see internal/gdbasync).
func (h *Host) readLoop() {
	r := bufio.NewReader(h.master)
	for {
		line, err := r.ReadString('\n')
		if len(line) > 0 {
			h.lines <- trimNewline(line)
		}
		if err != nil {
			h.mu.Lock()
			h.readErr = err
			h.mu.Unlock()
			close(h.lines)
			return
		}
	}
}

func trimNewline(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}

// SendBytes writes raw bytes to the PTY master (i.e. to the child's
// stdin).
func (h *Host) SendBytes(b []byte) error {
	_, err := h.master.Write(b)
	if err != nil {
		return fmt.Errorf("ptyhost: write: %w", err)
	}
	return nil
}

// SendLine writes s followed by the given newline convention.
func (h *Host) SendLine(s, newline string) error {
	return h.SendBytes([]byte(s + newline))
}

// ReadLine returns the next complete line the child has produced,
// blocking until one arrives, ctx is done, or the stream ends.
func (h *Host) ReadLine(ctx context.Context) (string, error) {
	select {
	case line, ok := <-h.lines:
		if !ok {
			h.mu.Lock()
			err := h.readErr
			h.mu.Unlock()
			if err == nil || errors.Is(err, io.EOF) {
				return "", io.EOF
			}
			return "", err
		}
		return line, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Expect blocks until a line matching one of the given predicates
// arrives, timeout elapses, or the stream ends. It returns the matching
// line and the index of the predicate that matched. Like ReadLine (which
// the Async Controller's Recv calls directly), it blocks cooperatively at
// the I/O boundary.
func (h *Host) Expect(timeout time.Duration, match ...func(line string) bool) (line string, idx int, err error) {
	ctx := context.Background()
	var cancel context.CancelFunc
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	for {
		l, err := h.ReadLine(ctx)
		if err != nil {
			return "", -1, err
		}
		for i, m := range match {
			if m(l) {
				return l, i, nil
			}
		}
	}
}

// ReadNonblocking returns the next buffered line if one is already
// available, without waiting.
func (h *Host) ReadNonblocking() (line string, ok bool) {
	select {
	case l, open := <-h.lines:
		if !open {
			return "", false
		}
		return l, true
	default:
		return "", false
	}
}

// SendSignal delivers sig to the child process.
func (h *Host) SendSignal(sig syscall.Signal) error {
	if h.cmd.Process == nil {
		return errors.New("ptyhost: process not started")
	}
	return h.cmd.Process.Signal(sig)
}

// SendEOF closes the PTY master, the write side the child reads stdin
// from. Unlike a pipe, a PTY master/slave pair has no independent
// half-close: closing the master is what makes the slave's next read
// return EOF, and it also ends the child's output (the read loop will
// observe io.EOF and close h.lines). Callers in the shutdown escalation
// call this only after the child has had a chance to react to signals
// and an explicit exit command.
func (h *Host) SendEOF() error {
	return h.Close(false)
}

// Wait blocks until the child exits and returns its exit error (nil on
// success), or ctx's error if ctx is done first.
func (h *Host) Wait(ctx context.Context) error {
	select {
	case err := <-h.exitCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close releases the PTY master. If force is true the child is sent
// SIGKILL first; otherwise Close assumes the caller has already driven
// the child to exit (e.g. via the Async Controller's shutdown
// escalation) and only releases OS resources.
func (h *Host) Close(force bool) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	h.mu.Unlock()

	if force && h.cmd.Process != nil {
		_ = h.cmd.Process.Kill()
	}
	return h.master.Close()
}

// Kill sends SIGKILL directly to the child process, independent of
// whether the PTY master has already been closed. This is the final step
// of the shutdown escalation, after SendEOF.
func (h *Host) Kill() error {
	if h.cmd.Process == nil {
		return errors.New("ptyhost: process not started")
	}
	return h.cmd.Process.Kill()
}

// PID returns the child's process id.
func (h *Host) PID() int {
	if h.cmd.Process == nil {
		return -1
	}
	return h.cmd.Process.Pid
}
