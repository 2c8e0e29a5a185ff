package dailylog

import (
	"bytes"
	"log"
	"strings"
	"testing"
)

func TestSuppressingLoggerReportsOnlyOnce(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf, "", 0)
	s := NewSuppressingLogger(logger)

	s.ReportOnce("failure one")
	s.ReportOnce("failure two")

	output := buf.String()
	if strings.Count(output, "failure") != 1 {
		t.Errorf("expected exactly one report, got: %q", output)
	}
}

func TestSuppressingLoggerReArmsAfterClear(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf, "", 0)
	s := NewSuppressingLogger(logger)

	s.ReportOnce("first")
	s.Clear()
	s.ReportOnce("second")

	output := buf.String()
	if !strings.Contains(output, "first") || !strings.Contains(output, "second") {
		t.Errorf("expected both reports after Clear, got: %q", output)
	}
}

func TestNewCreatesDailyLogInDirectory(t *testing.T) {
	dir := t.TempDir()
	logger := New(dir)
	if logger == nil {
		t.Fatal("expected a non-nil logger")
	}
	logger.Println("test entry")
}
