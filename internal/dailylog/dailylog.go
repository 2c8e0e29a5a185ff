// Package dailylog wires the receiver's event log to a daily-rotating file,
// the way rtcmlogger wires its own event log: a dailylogger.Writer wrapped
// by the standard library's log.Logger. SuppressingLogger adds a
// per-instance suppression flag, so a repeating failure produces one log
// line until it is cleared.
package dailylog

import (
	"log"

	"github.com/goblimey/go-tools/dailylogger"
)

// New creates an event logger that rotates to a new file each day in
// logDirectory, named "receiver.<date>.log".
func New(logDirectory string) *log.Logger {
	writer := dailylogger.New(logDirectory, "receiver.", ".log")
	return log.New(writer, "gpsreceiver ", log.LstdFlags|log.Lshortfile)
}

// SuppressingLogger wraps a *log.Logger so that repeated failures (a
// satellite dropping lock over and over, a read stalling) are
// only reported once until the condition clears - the same pattern
// rtcmlogger applies to write failures via its reportingWriteErrors flag.
type SuppressingLogger struct {
	logger    *log.Logger
	reporting bool
}

// NewSuppressingLogger wraps logger, starting in the "reporting" state.
func NewSuppressingLogger(logger *log.Logger) *SuppressingLogger {
	return &SuppressingLogger{logger: logger, reporting: true}
}

// ReportOnce logs msg only if the previous call to ReportOnce or Clear left
// the logger in the reporting state, then suppresses every further report,
// whatever its text, until Clear is called.
func (s *SuppressingLogger) ReportOnce(msg string) {
	if s.reporting {
		s.logger.Println(msg)
		s.reporting = false
	}
}

// Clear re-arms reporting, called once the condition that triggered
// ReportOnce has been resolved.
func (s *SuppressingLogger) Clear() {
	s.reporting = true
}
