package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nick/gdbmictl/internal/binder"
	"github.com/nick/gdbmictl/internal/gdbconfig"
	"github.com/nick/gdbmictl/internal/gdbsession"
)

// setupLogger configures slog to write structured logs to path, or to
// stderr when path is empty.
func setupLogger(path string) (*slog.Logger, *os.File, error) {
	if path == "" {
		return slog.New(slog.NewTextHandler(os.Stderr, nil)), nil, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
	if err != nil {
		return nil, nil, err
	}
	return slog.New(slog.NewTextHandler(f, nil)), f, nil
}

func main() {
	cli := parseCLI()

	logger, logFile, err := setupLogger(cli.LogFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "gdbmictl: failed to set up logger:", err)
		os.Exit(1)
	}
	if logFile != nil {
		defer logFile.Close()
	}

	cfg, err := gdbconfig.Load(cli.ConfigFile)
	if err != nil {
		logger.Warn("config load warning", "err", err)
		def := gdbconfig.Defaults()
		cfg = &def
	}
	if cli.GDBPath != "" {
		cfg.GDBPath = cli.GDBPath
	}
	if cli.Rows > 0 {
		cfg.Rows = uint16(cli.Rows)
	}
	if cli.Cols > 0 {
		cfg.Cols = uint16(cli.Cols)
	}
	cfg.NoInit = cli.NoInit
	if extra := flag.Args(); len(extra) > 0 {
		cfg.Args = append(cfg.Args, extra...)
	}

	logger.Info("starting gdbmictl", "gdb_path", cfg.GDBPath)

	session := gdbsession.New(*cfg, logger, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	if err := session.Spawn(ctx); err != nil {
		logger.Error("spawn failed", "err", err)
		os.Exit(1)
	}
	defer session.Shutdown()

	b := binder.New(session, logger)
	if err := b.Discover(); err != nil {
		logger.Warn("command discovery failed", "err", err)
	} else {
		logger.Info("discovered commands", "count", len(session.AvailableCommands()))
	}

	runREPL(ctx, session, b, logger)
}
