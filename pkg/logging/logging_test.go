package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestConsoleLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := ConsoleLogger(&buf, logrus.InfoLevel, "json")
	if err != nil {
		t.Fatalf("ConsoleLogger: %v", err)
	}
	logger.WithField("line", 4).Info("registration skipped")
	logger.Debug("hidden")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d: %q", len(lines), buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if entry["msg"] != "registration skipped" || entry["line"] != float64(4) {
		t.Fatalf("unexpected entry: %v", entry)
	}
}

func TestConsoleLogger_InvalidFormat(t *testing.T) {
	if _, err := ConsoleLogger(&bytes.Buffer{}, logrus.InfoLevel, "xml"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestNop(t *testing.T) {
	Nop().Error("dropped")
}
