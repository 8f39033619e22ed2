package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestConfig_ApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.ApplyDefaults()
	if cfg.Level != "info" {
		t.Errorf("level: got %q", cfg.Level)
	}
	if cfg.Format != "console" {
		t.Errorf("format: got %q", cfg.Format)
	}
	if cfg.Output != "stderr" {
		t.Errorf("output: got %q", cfg.Output)
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := &Config{Level: "info", Format: "json"}
	if err := cfg.Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}

	cfg = &Config{Level: "verbose", Format: "json"}
	if err := cfg.Validate(); err == nil {
		t.Error("invalid level accepted")
	}

	cfg = &Config{Level: "info", Format: "xml"}
	if err := cfg.Validate(); err == nil {
		t.Error("invalid format accepted")
	}
}

func TestLogger_StructuredOutput(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter(&buf, "pipekit").WithComponent("pipeline")

	log.Info("step timing", Fields(FieldStep, "ComputeBoundingBox", FieldDuration, int64(12)))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if entry["service"] != "pipekit" {
		t.Errorf("service: got %v", entry["service"])
	}
	if entry[FieldComponent] != "pipeline" {
		t.Errorf("component: got %v", entry[FieldComponent])
	}
	if entry[FieldStep] != "ComputeBoundingBox" {
		t.Errorf("step: got %v", entry[FieldStep])
	}
	if entry["message"] != "step timing" {
		t.Errorf("message: got %v", entry["message"])
	}
}

func TestLogger_WithFieldsAndError(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter(&buf, "pipekit").
		WithFields(map[string]interface{}{"run": "abc"}).
		WithError(errTest{})

	log.Error("failed")

	out := buf.String()
	if !strings.Contains(out, `"run":"abc"`) {
		t.Errorf("missing field: %s", out)
	}
	if !strings.Contains(out, "synthetic failure") {
		t.Errorf("missing error: %s", out)
	}
}

type errTest struct{}

func (errTest) Error() string { return "synthetic failure" }

func TestFields_IgnoresDanglingKey(t *testing.T) {
	m := Fields(FieldStep, "x", "dangling")
	if len(m) != 1 || m[FieldStep] != "x" {
		t.Errorf("got %v", m)
	}
}

func TestGlobal_DefaultsWhenUnset(t *testing.T) {
	old := globalLogger
	defer func() { globalLogger = old }()
	globalLogger = nil

	if Global() == nil {
		t.Fatal("expected default global logger")
	}

	var buf bytes.Buffer
	SetGlobal(NewWriter(&buf, "pipekit"))
	Info("hello")
	if !strings.Contains(buf.String(), "hello") {
		t.Errorf("global logger not used: %s", buf.String())
	}
}
