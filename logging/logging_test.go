package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"testing/slogtest"
	"time"
)

func TestPrettyJSONHandler_NestsGroups(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, Options{Format: FormatPretty, Level: slog.LevelDebug})

	log.With("worker", 3).WithGroup("game").Debug("move",
		"score", 128,
		"took", 2*time.Second,
		slog.Group("board", "w", 4, "h", 4),
	)

	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not one JSON object: %v\n%s", err, buf.String())
	}
	if got["msg"] != "move" || got["level"] != "DEBUG" {
		t.Fatalf("msg/level wrong: %v", got)
	}
	g, ok := got["game"].(map[string]any)
	if !ok {
		t.Fatalf("missing game group: %v", got)
	}
	if g["score"] != float64(128) || g["took"] != "2s" {
		t.Fatalf("group attrs wrong: %v", g)
	}
	if got["worker"] != float64(3) || g["worker"] != nil {
		t.Fatalf("worker was added before the group opened and belongs at the top: %v", got)
	}
	if board, ok := g["board"].(map[string]any); !ok || board["w"] != float64(4) {
		t.Fatalf("nested group wrong: %v", g["board"])
	}
	if !strings.Contains(buf.String(), "\n  ") {
		t.Fatalf("output not indented:\n%s", buf.String())
	}
}

func TestPrettyJSONHandler_Conformance(t *testing.T) {
	var buf bytes.Buffer
	h := NewPrettyJSONHandler(&buf, nil)
	results := func() []map[string]any {
		var out []map[string]any
		dec := json.NewDecoder(bytes.NewReader(buf.Bytes()))
		for dec.More() {
			var m map[string]any
			if err := dec.Decode(&m); err != nil {
				t.Fatalf("decode: %v\n%s", err, buf.String())
			}
			out = append(out, m)
		}
		return out
	}
	if err := slogtest.TestHandler(h, results); err != nil {
		t.Fatal(err)
	}
}

func TestPrettyJSONHandler_SkipsEmptyGroupsAndZeroTime(t *testing.T) {
	var buf bytes.Buffer
	h := NewPrettyJSONHandler(&buf, nil).WithGroup("idle")
	if err := h.Handle(context.Background(), slog.NewRecord(time.Time{}, slog.LevelInfo, "tick", 0)); err != nil {
		t.Fatal(err)
	}
	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := got["idle"]; ok {
		t.Fatalf("empty group written: %v", got)
	}
	if _, ok := got["time"]; ok {
		t.Fatalf("zero time written: %v", got)
	}
}

func TestPrettyJSONHandler_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, Options{Format: FormatPretty, Level: slog.LevelWarn})
	log.Info("quiet")
	if buf.Len() != 0 {
		t.Fatalf("info logged at warn level: %s", buf.String())
	}
	log.Warn("loud")
	if !strings.Contains(buf.String(), "loud") {
		t.Fatalf("warn not logged: %s", buf.String())
	}
}

func TestPrettyJSONHandler_StringerValues(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, Options{Format: FormatPretty}).Info("x", "dir", stringer("west"))
	if !strings.Contains(buf.String(), `"dir": "west"`) {
		t.Fatalf("stringer not rendered: %s", buf.String())
	}
}

type stringer string

func (s stringer) String() string { return string(s) }

func TestNew_Formats(t *testing.T) {
	var text, js bytes.Buffer
	New(&text, Options{Format: "TEXT"}).Info("hello", "k", "v")
	New(&js, Options{Format: FormatJSON}).Info("hello", "k", "v")

	if !strings.Contains(text.String(), "msg=hello") || !strings.Contains(text.String(), "k=v") {
		t.Fatalf("text output: %s", text.String())
	}
	var m map[string]any
	if err := json.Unmarshal(js.Bytes(), &m); err != nil || m["k"] != "v" {
		t.Fatalf("json output %s (%v)", js.String(), err)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{"debug": slog.LevelDebug, "": slog.LevelInfo, "WARNING": slog.LevelWarn, "error": slog.LevelError}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Fatalf("ParseLevel(%q)=%v,%v want %v", in, got, err, want)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}
