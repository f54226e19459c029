package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/nick/gdbmictl/internal/binder"
	"github.com/nick/gdbmictl/internal/gdbsession"
)

// runREPL reads one command per line from stdin and executes it through
// the Sync Controller, resolving bound dynamic commands by name first
// and falling back to sending the line verbatim to the debugger. This
// is the thin command-line front end; everything it calls lives in the
// session and binder packages, not reimplemented here.
func runREPL(ctx context.Context, session *gdbsession.Controller, b *binder.Binder, logger *slog.Logger) {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Fprint(os.Stdout, "(gdbmictl) ")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			fmt.Fprint(os.Stdout, "(gdbmictl) ")
			continue
		}
		if line == "quit" || line == "exit" {
			return
		}

		name, args, _ := strings.Cut(line, " ")
		if _, ok := session.Doc(name); ok {
			if _, err := session.Call(name, splitArgs(args), 10*time.Second, true); err != nil {
				logger.Error("call failed", "command", name, "err", err)
			}
		} else {
			if _, err := session.Execute(line, 10*time.Second, true, false); err != nil {
				logger.Error("execute failed", "command", line, "err", err)
			}
		}

		fmt.Fprint(os.Stdout, "(gdbmictl) ")
	}
}

func splitArgs(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return strings.Fields(s)
}
