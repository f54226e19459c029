// Package pretty renders MI records for a human reading an interactive
// session: colorized, trimmed, and payload-indented, using
// github.com/charmbracelet/lipgloss for styling and a
// terminal/TERM/color-profile check to decide whether to style output
// at all.
package pretty

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/nick/gdbmictl/internal/mi"
)

// Printer renders Records to an io.Writer, colorizing when the terminal
// supports it.
type Printer struct {
	w      io.Writer
	color  bool
	indent int

	green, cyan, yellow, red lipgloss.Style
}

// New builds a Printer writing to w. forceStyling, when non-nil,
// overrides autodetection; when nil, styling is enabled only if w is a
// TTY, TERM has no hyphen-split component containing "m" (ruling out
// "dumb" and monochrome terminal types), and the terminal profile
// reports at least 8 colors.
func New(w io.Writer, forceStyling *bool) *Printer {
	color := detectColorSupport(w)
	if forceStyling != nil {
		color = *forceStyling
	}
	p := &Printer{w: w, color: color, indent: 1}
	if color {
		r := lipgloss.NewRenderer(w)
		r.SetColorProfile(termenv.ANSI)
		p.green = r.NewStyle().Foreground(lipgloss.Color("2"))
		p.cyan = r.NewStyle().Foreground(lipgloss.Color("6"))
		p.yellow = r.NewStyle().Foreground(lipgloss.Color("3"))
		p.red = r.NewStyle().Foreground(lipgloss.Color("1"))
	}
	return p
}

func detectColorSupport(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	if !term.IsTerminal(int(f.Fd())) {
		return false
	}
	termEnv := os.Getenv("TERM")
	for _, part := range strings.Split(termEnv, "-") {
		if strings.Contains(part, "m") {
			return false
		}
	}
	profile := termenv.NewOutput(f).ColorProfile()
	return profile != termenv.Ascii
}

// Render prints rec per the per-record-type rules: console/target stream
// text trimmed; log stream suppressed; async records colored green with
// their payload inlined or indented depending on length; result records
// colored by class with error messages isolated on their own line.
func (p *Printer) Render(rec mi.Record) {
	switch r := rec.(type) {
	case mi.StreamRecord:
		p.renderStream(r)
	case mi.AsyncRecord:
		p.renderAsync(r)
	case mi.ResultRecord:
		p.renderResult(r)
	case mi.PromptRecord:
		// The prompt sentinel is consumed by recv_all and never reaches
		// the printer in normal operation.
	}
}

func (p *Printer) renderStream(r mi.StreamRecord) {
	if r.Channel == mi.ChannelLog {
		return
	}
	fmt.Fprintln(p.w, strings.TrimRight(r.Text, " \t\r\n"))
}

func (p *Printer) renderAsync(r mi.AsyncRecord) {
	label := p.style(p.green, r.Kind+":")
	payload := dumpKV(r.Results)
	if payload == "" {
		fmt.Fprintln(p.w, label)
		return
	}
	if !strings.Contains(payload, "\n") && len(label)+len(payload)+1 < 120 {
		fmt.Fprintln(p.w, label+" "+payload)
		return
	}
	fmt.Fprintln(p.w, label)
	fmt.Fprintln(p.w, indent(wordwrap.String(payload, 100), p.indent))
}

func (p *Printer) renderResult(r mi.ResultRecord) {
	name, style := resultLabel(r.Class, p)
	label := name
	if len(r.Results) > 0 {
		label += ":"
	}
	fmt.Fprintln(p.w, p.style(style, label))

	if r.Class == mi.ResultError {
		if msg := r.ErrorMessage(); msg != "" {
			fmt.Fprintln(p.w, strings.TrimSpace(msg))
		}
		for _, kv := range r.Results {
			if kv.Key != "msg" {
				fmt.Fprintln(p.w, indent(kv.Key+"="+kv.Value.String(), p.indent))
			}
		}
		return
	}

	if payload := dumpKV(r.Results); payload != "" {
		fmt.Fprintln(p.w, indent(payload, p.indent))
	}
}

func resultLabel(class mi.ResultClass, p *Printer) (string, lipgloss.Style) {
	switch class {
	case mi.ResultDone:
		return "Done", p.cyan
	case mi.ResultRunning:
		return "Running", p.yellow
	case mi.ResultConnected:
		return "Connected", p.yellow
	case mi.ResultError:
		return "Error", p.red
	case mi.ResultExit:
		return "Exit", p.yellow
	default:
		return "Result", lipgloss.NewStyle()
	}
}

func (p *Printer) style(s lipgloss.Style, text string) string {
	if !p.color {
		return text
	}
	return s.Render(text)
}

func dumpKV(kvs []mi.KV) string {
	parts := make([]string, len(kvs))
	for i, kv := range kvs {
		parts[i] = kv.Key + "=" + kv.Value.String()
	}
	return strings.Join(parts, " ")
}

func indent(text string, n int) string {
	prefix := strings.Repeat(" ", n)
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}
