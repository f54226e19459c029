package binder

import (
	"testing"

	"github.com/nick/gdbmictl/internal/gdbconfig"
	"github.com/nick/gdbmictl/internal/gdbsession"
	"github.com/nick/gdbmictl/internal/mi"
)

func TestExtractCandidatesFiltersSetVerbsAndBareLines(t *testing.T) {
	batch := []mi.Record{
		mi.StreamRecord{Channel: mi.ChannelConsole, Text: "print -- Print value of expression EXP.\n"},
		mi.StreamRecord{Channel: mi.ChannelConsole, Text: "set confirm -- Set whether to confirm potentially dangerous operations.\n"},
		mi.StreamRecord{Channel: mi.ChannelConsole, Text: "no double dash here\n"},
		mi.StreamRecord{Channel: mi.ChannelLog, Text: "break -- Set breakpoint.\n"},
	}
	got := extractCandidates(batch)
	want := []string{"print"}
	if len(got) != len(want) || got[0] != want[0] {
		t.Fatalf("extractCandidates() = %v, want %v", got, want)
	}
}

func TestNormalizeReplacesSpacesAndHyphens(t *testing.T) {
	if got := normalize("info break-points"); got != "info_break_points" {
		t.Fatalf("normalize() = %q", got)
	}
}

func TestReservedNamesIncludesShutdownAndSend(t *testing.T) {
	session := gdbsession.New(gdbconfig.Defaults(), nil, nil)
	reserved := reservedNames(session)
	if !reserved["shutdown"] || !reserved["send"] {
		t.Fatalf("expected shutdown and send to be reserved, got %v", reserved)
	}
}

func TestLookupFuzzyMatchesBoundNames(t *testing.T) {
	b := &Binder{names: []string{"print", "zprint", "continue", "step"}}
	got := b.Lookup("prnt")
	if len(got) == 0 || got[0] != "print" && got[0] != "zprint" {
		t.Fatalf("expected a print-like match first, got %v", got)
	}
}

func TestAliasDoneRequiresResultDone(t *testing.T) {
	okBatch := []mi.Record{mi.ResultRecord{Class: mi.ResultDone}}
	if !aliasDone(okBatch) {
		t.Fatalf("expected aliasDone true for ResultDone")
	}
	errBatch := []mi.Record{mi.ResultRecord{Class: mi.ResultError}}
	if aliasDone(errBatch) {
		t.Fatalf("expected aliasDone false for ResultError")
	}
}
