package main

import (
	"flag"
	"fmt"
	"os"
)

// CLIConfig holds the parsed command-line flags, using a flat
// flag-struct-plus-stdlib-flag convention rather than a third-party
// CLI framework.
type CLIConfig struct {
	ConfigFile string
	GDBPath    string
	LogFile    string
	NoInit     bool
	Rows, Cols int
}

func parseCLI() *CLIConfig {
	cfg := &CLIConfig{}
	flag.StringVar(&cfg.ConfigFile, "config", "", "path to gdbmictl.yaml (default: search cwd)")
	flag.StringVar(&cfg.GDBPath, "gdb", "", "path to the gdb binary (overrides config)")
	flag.StringVar(&cfg.LogFile, "log", "", "log file path (default: stderr)")
	flag.BoolVar(&cfg.NoInit, "noinit", true, "pass --nh --nx to gdb")
	flag.IntVar(&cfg.Rows, "rows", 0, "PTY rows (overrides config)")
	flag.IntVar(&cfg.Cols, "cols", 0, "PTY cols (overrides config)")
	flag.Usage = printUsage
	flag.Parse()
	return cfg
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "gdbmictl: drive a GDB/MI session from the command line\n\n")
	fmt.Fprintf(os.Stderr, "Usage: %s [flags] [-- extra gdb args]\n\n", os.Args[0])
	flag.PrintDefaults()
}
