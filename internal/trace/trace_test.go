package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLevelFiltersScopes(t *testing.T) {
	tests := []struct {
		level Level
		scope Scope
		want  bool
	}{
		{LevelOff, ScopeDriver, false},
		{LevelError, ScopeDriver, false},
		{LevelPhase, ScopePass, true},
		{LevelPhase, ScopeModule, false},
		{LevelDetail, ScopeModule, true},
		{LevelDetail, ScopeNode, false},
		{LevelDebug, ScopeNode, true},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, tt.level.ShouldEmit(tt.scope), "%s/%s", tt.level, tt.scope)
	}
}

func TestParseLevelAndMode(t *testing.T) {
	lvl, err := ParseLevel("DETAIL")
	require.NoError(t, err)
	require.Equal(t, LevelDetail, lvl)
	_, err = ParseLevel("loud")
	require.ErrorContains(t, err, "invalid trace level")

	mode, err := ParseMode("ring")
	require.NoError(t, err)
	require.Equal(t, ModeRing, mode)
}

func TestDisabledSpansAreInert(t *testing.T) {
	span := Begin(Nop, ScopePass, "resolve", 0)
	require.Zero(t, span.ID())
	require.Zero(t, span.End("done"))

	ctx := WithSpan(context.Background(), span)
	require.Zero(t, CurrentSpan(ctx))

	tr, err := New(Config{Level: LevelOff})
	require.NoError(t, err)
	require.False(t, tr.Enabled())
}

func TestRingKeepsNewestEvents(t *testing.T) {
	ring := NewRingTracer(2, LevelDebug)
	ctx := WithTracer(context.Background(), ring)
	tr := FromContext(ctx)

	outer := Begin(tr, ScopePass, "infer", 0)
	inner := Begin(tr, ScopeNode, "f", outer.ID())
	inner.WithExtra("gens", "2").End("")
	outer.End("ok")

	events := ring.Snapshot()
	require.Len(t, events, 2)
	require.Equal(t, "f", events[0].Name)
	require.Equal(t, KindSpanEnd, events[0].Kind)
	require.Equal(t, outer.ID(), events[0].ParentID)
	require.Equal(t, "infer", events[1].Name)

	var buf bytes.Buffer
	require.NoError(t, ring.Dump(&buf, FormatText))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	require.Contains(t, lines[0], "← f {gens=2}")
	require.Contains(t, lines[1], "← infer (ok)")
}

func TestStreamWritesNDJSON(t *testing.T) {
	var buf bytes.Buffer
	tr, err := New(Config{Level: LevelPhase, Mode: ModeStream, Format: FormatNDJSON, Output: &buf})
	require.NoError(t, err)

	Begin(tr, ScopeDriver, "analyze", 0).End("")
	Begin(tr, ScopeModule, "file:m.ast.json", 0).End("")
	require.NoError(t, tr.Flush())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	var ev map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &ev))
	require.Equal(t, "analyze", ev["name"])
}

func TestSettingsConfig(t *testing.T) {
	cfg, err := Settings{Level: "phase", Output: "run.jsonl"}.Config()
	require.NoError(t, err)
	require.Equal(t, Config{Level: LevelPhase, Mode: ModeStream, Path: "run.jsonl"}, cfg)
	require.Equal(t, FormatNDJSON, cfg.format())
	require.Equal(t, FormatText, Config{Path: "-"}.format())
	require.Equal(t, FormatText, Config{Path: "x.ndjson", Format: FormatText}.format())

	_, err = Settings{Level: "phase", Mode: "tape"}.Config()
	require.ErrorContains(t, err, "invalid storage mode")
	_, err = Settings{Level: "loud"}.Config()
	require.ErrorContains(t, err, "invalid trace level")

	require.Equal(t, "both", ModeBoth.String())
	require.Equal(t, "unknown", StorageMode(9).String())
}

func TestBothModeWritesFileAndKeepsRing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.ndjson")
	tr, err := New(Config{Level: LevelPhase, Mode: ModeBoth, Path: path, RingSize: 8})
	require.NoError(t, err)
	Begin(tr, ScopePass, "resolve", 0).End("")

	var dump bytes.Buffer
	require.NoError(t, Shutdown(tr, &dump))
	require.Zero(t, dump.Len(), "only ring-only tracers are dumped")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	require.True(t, json.Valid([]byte(lines[1])))
}

func TestShutdownDumpsRing(t *testing.T) {
	tr, err := New(Config{Level: LevelPhase, Mode: ModeRing})
	require.NoError(t, err)
	Begin(tr, ScopePass, "infer", 0).End("ok")

	var dump bytes.Buffer
	require.NoError(t, Shutdown(tr, &dump))
	require.Contains(t, dump.String(), "← infer (ok)")

	_, err = New(Config{Level: LevelPhase, Mode: ModeStream, Path: filepath.Join(t.TempDir(), "missing", "t.log")})
	require.ErrorContains(t, err, "failed to open trace output")
}
