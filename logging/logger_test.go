package logging

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"
)

// Interface compliance (compile-time assertions)
var (
	_ Logger = (*SlogAdapter)(nil)
	_ Logger = (*StoreLogger)(nil)
	_ Logger = NoOpLogger{}
)

func newBufferLogger(level LogLevel) (*StoreLogger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	cfg := &LoggerConfig{Level: level, Format: "json", Output: buf}
	return NewLogger(cfg), buf
}

// decodeLines parses each JSON log line written to buf.
func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()

	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		entry := map[string]any{}
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("decode log line %q: %v", line, err)
		}
		out = append(out, entry)
	}

	return out
}

func TestStoreLogger_ContextualAttrs(t *testing.T) {
	logger, buf := newBufferLogger(LogLevelDebug)

	logger.
		WithComponent("state").
		WithInvocation("session-1", "inv-1").
		WithContext("extra", "v").
		Info("hello")

	lines := decodeLines(t, buf)
	if len(lines) != 1 {
		t.Fatalf("expected 1 log line, got %d", len(lines))
	}

	entry := lines[0]
	if entry["msg"] != "hello" {
		t.Fatalf("msg %v", entry["msg"])
	}
	if entry["component"] != "state" {
		t.Fatalf("component %v", entry["component"])
	}
	if entry["namespace"] != "session-1" {
		t.Fatalf("namespace %v", entry["namespace"])
	}
	if entry["invocation_id"] != "inv-1" {
		t.Fatalf("invocation_id %v", entry["invocation_id"])
	}
	if entry["extra"] != "v" {
		t.Fatalf("extra %v", entry["extra"])
	}
}

func TestStoreLogger_LevelGating(t *testing.T) {
	logger, buf := newBufferLogger(LogLevelWarn)

	logger.Debug("dropped")
	logger.Info("dropped")
	if buf.Len() != 0 {
		t.Fatalf("sub-warn records were emitted: %s", buf.String())
	}

	logger.Warn("kept")
	logger.Error("kept too")

	lines := decodeLines(t, buf)
	if len(lines) != 2 {
		t.Fatalf("expected 2 log lines, got %d", len(lines))
	}
	if lines[0]["level"] != "WARN" || lines[1]["level"] != "ERROR" {
		t.Fatalf("levels %v, %v", lines[0]["level"], lines[1]["level"])
	}
}

func TestStoreLogger_CloneIsolation(t *testing.T) {
	base, buf := newBufferLogger(LogLevelInfo)
	derived := base.WithContext("request_id", "r-1")

	base.Info("from base")
	derived.Info("from derived")

	lines := decodeLines(t, buf)
	if len(lines) != 2 {
		t.Fatalf("expected 2 log lines, got %d", len(lines))
	}
	if _, ok := lines[0]["request_id"]; ok {
		t.Fatal("derived context leaked into the base logger")
	}
	if lines[1]["request_id"] != "r-1" {
		t.Fatalf("derived context missing: %v", lines[1])
	}
}

func TestStoreLogger_FormatArgs(t *testing.T) {
	logger, buf := newBufferLogger(LogLevelInfo)

	logger.Info("applied %d entries", 3)

	lines := decodeLines(t, buf)
	if lines[0]["msg"] != "applied 3 entries" {
		t.Fatalf("msg %v", lines[0]["msg"])
	}
}

func TestStoreLogger_TextFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewLogger(&LoggerConfig{Level: LogLevelInfo, Format: "text", Output: buf})

	logger.WithComponent("artifact").Info("hello")

	out := buf.String()
	if !strings.Contains(out, "msg=hello") || !strings.Contains(out, "component=artifact") {
		t.Fatalf("unexpected text output: %s", out)
	}
}

func TestStoreLogger_LogCommit(t *testing.T) {
	logger, buf := newBufferLogger(LogLevelInfo)

	logger.LogCommit(4, 12*time.Millisecond, nil)
	logger.LogCommit(2, 5*time.Millisecond, fmt.Errorf("disk full"))

	lines := decodeLines(t, buf)
	if len(lines) != 2 {
		t.Fatalf("expected 2 log lines, got %d", len(lines))
	}

	success := lines[0]
	if success["msg"] != "State delta committed" || success["success"] != true {
		t.Fatalf("success record %v", success)
	}
	if success["entry_count"] != float64(4) {
		t.Fatalf("entry_count %v", success["entry_count"])
	}

	failure := lines[1]
	if failure["msg"] != "State delta commit failed" || failure["level"] != "ERROR" {
		t.Fatalf("failure record %v", failure)
	}
	if failure["error"] != "disk full" {
		t.Fatalf("error attr %v", failure["error"])
	}
}

func TestStoreLogger_LogArtifactSave(t *testing.T) {
	logger, buf := newBufferLogger(LogLevelInfo)

	logger.LogArtifactSave("report.pdf", 3, 2048, 8*time.Millisecond, nil)
	logger.LogArtifactSave("report.pdf", 4, 0, time.Millisecond, fmt.Errorf("no space"))

	lines := decodeLines(t, buf)

	success := lines[0]
	if success["msg"] != "Artifact version saved" {
		t.Fatalf("success msg %v", success["msg"])
	}
	if success["artifact_name"] != "report.pdf" || success["version"] != float64(3) || success["size_bytes"] != float64(2048) {
		t.Fatalf("success attrs %v", success)
	}

	failure := lines[1]
	if failure["msg"] != "Artifact save failed" || failure["success"] != false {
		t.Fatalf("failure record %v", failure)
	}
}

func TestStoreLogger_ErrorWithStack(t *testing.T) {
	logger, buf := newBufferLogger(LogLevelInfo)

	logger.ErrorWithStack(fmt.Errorf("boom"), "operation failed")

	lines := decodeLines(t, buf)
	entry := lines[0]
	if entry["error"] != "boom" {
		t.Fatalf("error %v", entry["error"])
	}
	if et, _ := entry["error_type"].(string); et == "" {
		t.Fatal("error_type missing")
	}
	stack, _ := entry["stack_trace"].(string)
	if !strings.Contains(stack, "goroutine") {
		t.Fatalf("stack_trace missing or malformed: %q", stack)
	}
}

func TestStoreLogger_StartTimer(t *testing.T) {
	logger, buf := newBufferLogger(LogLevelInfo)

	done := logger.StartTimer("commit")
	done()

	lines := decodeLines(t, buf)
	if lines[0]["msg"] != "Operation completed" {
		t.Fatalf("msg %v", lines[0]["msg"])
	}
	if lines[0]["operation"] != "commit" {
		t.Fatalf("operation %v", lines[0]["operation"])
	}
}

func TestSlogAdapter(t *testing.T) {
	buf := &bytes.Buffer{}
	adapter := NewSlogAdapter(slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	adapter.Debug("debug msg", "key", "value")
	adapter.Info("info msg")
	adapter.Warn("warn msg")
	adapter.Error("error msg")

	lines := decodeLines(t, buf)
	if len(lines) != 4 {
		t.Fatalf("expected 4 log lines, got %d", len(lines))
	}
	if lines[0]["key"] != "value" {
		t.Fatalf("key-value args not recorded: %v", lines[0])
	}
}

func TestNoOpLogger(t *testing.T) {
	var logger Logger = NoOpLogger{}

	// Must be callable without side effects or panics.
	logger.Debug("a")
	logger.Info("b", "k", 1)
	logger.Warn("c")
	logger.Error("d")
}

func TestLogLevel_String(t *testing.T) {
	cases := map[LogLevel]string{
		LogLevelDebug: "DEBUG",
		LogLevelInfo:  "INFO",
		LogLevelWarn:  "WARN",
		LogLevelError: "ERROR",
		LogLevel(42):  "UNKNOWN",
	}
	for level, want := range cases {
		if got := level.String(); got != want {
			t.Fatalf("level %d: got %q, want %q", level, got, want)
		}
	}
}
