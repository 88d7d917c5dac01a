package report

import (
	"log"
)

// Sink consumes the event stream produced by the walker. The default
// implementation logs one line per event with the stdlib logger (see
// DESIGN.md for why no structured logging library is pulled in).
type Sink interface {
	Accept(e Event)
}

// LogSink writes each event as one log line via the supplied *log.Logger.
type LogSink struct {
	Logger *log.Logger
}

// NewLogSink returns a LogSink writing through logger, or the standard
// library's default logger if logger is nil.
func NewLogSink(logger *log.Logger) *LogSink {
	if logger == nil {
		logger = log.Default()
	}
	return &LogSink{Logger: logger}
}

func (s *LogSink) Accept(e Event) {
	s.Logger.Print(e.String())
}

// SliceSink records every event it sees, in order, for use by tests that
// want to assert on the exact sequence of events emitted by the walker
// (testable property 2: traversal cover).
type SliceSink struct {
	Events []Event
}

func (s *SliceSink) Accept(e Event) {
	s.Events = append(s.Events, e)
}
