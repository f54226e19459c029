// Package binder implements the Dynamic Command Binder: it enumerates
// the running debugger's command vocabulary via apropos/alias/help
// probes, normalizes names into valid Go identifiers, resolves
// collisions, and attaches each surviving candidate to a Sync
// Controller as a callable. Discovery is best-effort and silently skips
// candidates that fail to bind. Reserved names are re-derived via
// reflection over the Sync Controller's method set rather than a
// hard-coded list, so a renamed or added method never needs a second
// edit here.
package binder

import (
	"go/token"
	"log/slog"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sahilm/fuzzy"

	"github.com/nick/gdbmictl/internal/gdbsession"
	"github.com/nick/gdbmictl/internal/mi"
)

var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Binder drives the discovery protocol against a Sync Controller and
// owns the resulting lookup index.
type Binder struct {
	session *gdbsession.Controller
	logger  *slog.Logger
	names   []string // bound identifiers, in discovery order, for fuzzy lookup
}

// New builds a Binder over session. Passing a nil logger uses
// slog.Default().
func New(session *gdbsession.Controller, logger *slog.Logger) *Binder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Binder{session: session, logger: logger}
}

// Discover runs the full seven-step protocol against the live debugger,
// binding every surviving candidate onto the Sync Controller.
func (b *Binder) Discover() error {
	reserved := reservedNames(b.session)

	// Step 1: apropos -* with no timeout cap (block indefinitely: this
	// probe can legitimately take longer than any other command).
	batch, err := b.session.ExecuteQuiet("apropos -*", -1)
	if err != nil {
		return err
	}

	for idx, candidate := range extractCandidates(batch) {
		// Step 4: validate via a disposable alias probe.
		aliasName := "intwkqjwq" + strconv.Itoa(idx)
		aliasBatch, err := b.session.ExecuteQuiet("alias -a "+aliasName+" = "+candidate, 0)
		if err != nil || !aliasDone(aliasBatch) {
			b.logger.Debug("binder: dropping unaliasable candidate", "candidate", candidate)
			continue
		}

		// Step 5: normalize to an identifier.
		normalized := normalize(candidate)
		if !identifierRe.MatchString(normalized) {
			b.logger.Debug("binder: dropping non-identifier candidate", "candidate", candidate)
			continue
		}

		// Step 6: collision resolution.
		bound := normalized
		if token.IsKeyword(normalized) || reserved[normalized] {
			bound = "z" + normalized
		}

		// Step 7: fetch documentation and attach.
		doc := b.fetchDoc(candidate)
		b.session.Bind(bound, gdbsession.BoundCommand{MICommand: candidate, Doc: doc})
		b.names = append(b.names, bound)
	}

	return nil
}

// reservedNames derives the reserved-identifier set from the Sync
// Controller's own exported method set, per the design notes' explicit
// preference for deriving the set over hard-coding
// {"shutdown", "send"}: it stays correct as the controller surface
// evolves.
func reservedNames(session *gdbsession.Controller) map[string]bool {
	reserved := make(map[string]bool)
	t := reflect.TypeOf(session)
	for i := 0; i < t.NumMethod(); i++ {
		reserved[lowerFirst(t.Method(i).Name)] = true
	}
	return reserved
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// extractCandidates implements steps 1-3: collect Console stream lines,
// split each containing "--" once and take the trimmed left side,
// dropping any candidate that is a "set " verb.
func extractCandidates(batch []mi.Record) []string {
	var candidates []string
	for _, rec := range batch {
		s, ok := rec.(mi.StreamRecord)
		if !ok || s.Channel != mi.ChannelConsole {
			continue
		}
		line := strings.TrimRight(s.Text, "\r\n")
		left, _, found := strings.Cut(line, "--")
		if !found {
			continue
		}
		candidate := strings.TrimSpace(left)
		if candidate == "" || strings.HasPrefix(candidate, "set ") {
			continue
		}
		candidates = append(candidates, candidate)
	}
	return candidates
}

func aliasDone(batch []mi.Record) bool {
	for _, rec := range batch {
		if r, ok := rec.(mi.ResultRecord); ok {
			return r.Class == mi.ResultDone
		}
	}
	return false
}

// normalize replaces spaces and hyphens with underscores, the
// identifier transform step 5 specifies.
func normalize(candidate string) string {
	r := strings.NewReplacer(" ", "_", "-", "_")
	return r.Replace(candidate)
}

func (b *Binder) fetchDoc(candidate string) string {
	batch, err := b.session.ExecuteQuiet("help "+candidate, 2*time.Second)
	if err != nil {
		return "Command: " + candidate + "\n\n"
	}
	var text strings.Builder
	for _, rec := range batch {
		if s, ok := rec.(mi.StreamRecord); ok && s.Channel == mi.ChannelConsole {
			text.WriteString(s.Text)
		}
	}
	return "Command: " + candidate + "\n\n" + text.String()
}

// commandSource adapts the bound-identifier slice to fuzzy.Source.
type commandSource []string

func (s commandSource) String(i int) string { return s[i] }
func (s commandSource) Len() int            { return len(s) }

// Lookup returns bound identifiers fuzzy-matching query, best match
// first — the tab-completion hook the design notes call for.
func (b *Binder) Lookup(query string) []string {
	matches := fuzzy.FindFrom(query, commandSource(b.names))
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = b.names[m.Index]
	}
	return out
}
