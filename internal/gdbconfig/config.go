// Package gdbconfig holds the controller's configuration surface: the
// spawn/timeout/geometry/encoding knobs named in the external interface,
// loadable from YAML or built with defaults. It is a plain struct, a
// Defaults() filler, and a default-path-searching Load.
package gdbconfig

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds every constructor option the controller accepts.
type Config struct {
	// GDBPath is the debugger executable to spawn. Defaults to "gdb".
	GDBPath string `yaml:"gdb_path"`

	// Args are extra arguments appended after the MI-mode flags; an entry
	// of the form "--data-directory=<path>" is placed before them instead.
	Args []string `yaml:"args"`

	// Rows/Cols size the PTY window presented to the child.
	Rows uint16 `yaml:"rows"`
	Cols uint16 `yaml:"cols"`

	// TokenStart is the first token value the Async Controller's counter
	// emits; zero means the default start of 87362. Set TokensDisabled to
	// stop tokens from being generated entirely.
	TokenStart     uint64 `yaml:"token_start"`
	TokensDisabled bool   `yaml:"tokens_disabled"`

	// DefaultTimeout bounds Recv when the caller passes none; zero means
	// block indefinitely.
	DefaultTimeout time.Duration `yaml:"default_timeout"`

	// Encoding is the text encoding used to decode child output; only
	// "utf-8" is currently implemented, matching the one format the MI
	// codec expects.
	Encoding string `yaml:"encoding"`

	// NoInit, when true, adds --nx/--nh to gdb's argv so it skips reading
	// .gdbinit / home-directory init files, giving the spawned session a
	// deterministic initial command set.
	NoInit bool `yaml:"noinit"`

	// ForceStyling overrides the Pretty Printer's TTY/color-capability
	// autodetection: nil means autodetect, non-nil forces styling on/off.
	ForceStyling *bool `yaml:"force_styling"`

	// WakeDelay is the pause between sending SIGINT and writing
	// "-gdb-exit" during shutdown, exposed as configuration rather than
	// hard-coded.
	WakeDelay time.Duration `yaml:"wake_delay"`

	// DrainTimeout bounds each read during the post-EOF drain phase of
	// shutdown.
	DrainTimeout time.Duration `yaml:"drain_timeout"`
}

// Option mutates a Config; functional options are the primary
// construction path, matching Go idiom over the YAML file (which exists
// for the CLI front-end).
type Option func(*Config)

func WithGDBPath(path string) Option        { return func(c *Config) { c.GDBPath = path } }
func WithArgs(args ...string) Option        { return func(c *Config) { c.Args = args } }
func WithGeometry(rows, cols uint16) Option { return func(c *Config) { c.Rows, c.Cols = rows, cols } }
func WithTokenStart(n uint64) Option        { return func(c *Config) { c.TokenStart = n } }
func WithTokensDisabled() Option            { return func(c *Config) { c.TokensDisabled = true } }
func WithDefaultTimeout(d time.Duration) Option {
	return func(c *Config) { c.DefaultTimeout = d }
}
func WithNoInit() Option { return func(c *Config) { c.NoInit = true } }
func WithForceStyling(on bool) Option {
	return func(c *Config) { c.ForceStyling = &on }
}
func WithWakeDelay(d time.Duration) Option    { return func(c *Config) { c.WakeDelay = d } }
func WithDrainTimeout(d time.Duration) Option { return func(c *Config) { c.DrainTimeout = d } }

// New builds a Config starting from Defaults() and applying opts in
// order.
func New(opts ...Option) *Config {
	cfg := Defaults()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// Defaults returns a Config with every field set to its documented
// default.
func Defaults() Config {
	return Config{
		GDBPath:        "gdb",
		Rows:           24,
		Cols:           80,
		TokenStart:     87362,
		DefaultTimeout: 0,
		Encoding:       "utf-8",
		WakeDelay:      500 * time.Millisecond,
		DrainTimeout:   5 * time.Second,
	}
}

// Load reads YAML configuration from path, or from the first of
// "gdbmictl.yaml"/"gdbmictl.yml" that exists when path is empty, and
// applies it on top of Defaults().
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path == "" {
		for _, candidate := range []string{"gdbmictl.yaml", "gdbmictl.yml"} {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
		if path == "" {
			return &cfg, nil
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("gdbconfig: opening %s: %w", path, err)
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("gdbconfig: decoding %s: %w", path, err)
	}
	return &cfg, nil
}
