package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{"debug": Debug, "": Info, " INFO ": Info, "warning": Warn, "error": Error}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil {
			t.Fatalf("ParseLevel(%q) failed: %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
	if _, err := ParseLevel("verbose"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat("JSON"); err != nil || f != JSON {
		t.Fatalf("expected json format, got %v (%v)", f, err)
	}
	if f, err := ParseFormat(""); err != nil || f != Text {
		t.Fatalf("expected text format, got %v (%v)", f, err)
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}

func TestTextLoggerFiltersAndFormats(t *testing.T) {
	var buf bytes.Buffer
	l := New(Info, Text, &buf).With(F("subsystem", "schedule"))
	l.Debug("hidden")
	l.Info("planned", F("idle_samples", 8))

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug entry should be filtered: %q", out)
	}
	if !strings.Contains(out, "[INFO] planned subsystem=schedule idle_samples=8") {
		t.Fatalf("unexpected text output %q", out)
	}
}

func TestJSONLoggerRendersErrors(t *testing.T) {
	var buf bytes.Buffer
	l := New(Debug, JSON, &buf)
	l.Warn("download failed", F("error", errors.New("boom")), F("", "skipped"))

	var payload map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &payload); err != nil {
		t.Fatalf("decode json entry: %v (%q)", err, buf.String())
	}
	if payload["level"] != "WARN" || payload["msg"] != "download failed" {
		t.Fatalf("unexpected payload %v", payload)
	}
	if payload["error"] != "boom" {
		t.Fatalf("expected error string, got %v", payload["error"])
	}
	if _, ok := payload[""]; ok {
		t.Fatalf("empty keys must be dropped")
	}
}

func TestDefaultIsNopUntilSet(t *testing.T) {
	if Default() == nil {
		t.Fatalf("default logger must never be nil")
	}
	var buf bytes.Buffer
	SetDefault(New(Debug, Text, &buf))
	SetDefault(nil)
	Default().Info("hello")
	if !strings.Contains(buf.String(), "hello") {
		t.Fatalf("expected default logger to be replaced, got %q", buf.String())
	}
}
