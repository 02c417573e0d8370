package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestTextOutput(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "INFO", "text", false)

	Info("server listening", "port", 1337)

	out := buf.String()
	if !strings.Contains(out, "[INFO] server listening") {
		t.Errorf("missing level/message in output: %q", out)
	}
	if !strings.Contains(out, "port=1337") {
		t.Errorf("missing attribute in output: %q", out)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "WARN", "text", false)

	Debug("should not appear")
	Info("should not appear either")
	Warn("warned")

	out := buf.String()
	if strings.Contains(out, "should not appear") {
		t.Errorf("filtered message was logged: %q", out)
	}
	if !strings.Contains(out, "warned") {
		t.Errorf("warn message missing: %q", out)
	}
}

func TestJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "INFO", "json", false)

	Info("connection accepted", "client", "127.0.0.1:5000")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not valid JSON: %v (%q)", err, buf.String())
	}
	if record["msg"] != "connection accepted" {
		t.Errorf("unexpected msg: %v", record["msg"])
	}
	if record["client"] != "127.0.0.1:5000" {
		t.Errorf("unexpected client: %v", record["client"])
	}
}

func TestContextFields(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "INFO", "text", false)

	lc := NewLogContext(7, "10.0.0.1:4242").WithUsername("alice").WithPhase("authenticated")
	ctx := WithContext(context.Background(), lc)

	InfoCtx(ctx, "command handled", "command", "lcm")

	out := buf.String()
	for _, want := range []string{"conn_id=7", "client=10.0.0.1:4242", "username=alice", "phase=authenticated", "command=lcm"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in output: %q", want, out)
		}
	}
}

func TestContextClone(t *testing.T) {
	lc := NewLogContext(1, "addr")
	withUser := lc.WithUsername("bob")

	if lc.Username != "" {
		t.Error("WithUsername mutated the original LogContext")
	}
	if withUser.Username != "bob" {
		t.Error("WithUsername did not set the username on the clone")
	}
}
