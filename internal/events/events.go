// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package events carries per-attempt request diagnostics from the news client
// to whatever sink the caller injects. Events never contain credentials: the
// client records the URL path only, never the query string.
package events

import (
	"context"
	"log/slog"
	"sync"
)

// Outcome classifies a single request attempt.
type Outcome string

const (
	OutcomeOK             Outcome = "ok"
	OutcomePartial        Outcome = "partial"
	OutcomeRejected       Outcome = "rejected"
	OutcomeServerError    Outcome = "server_error"
	OutcomeTransportError Outcome = "transport_error"
	OutcomeTimeout        Outcome = "timeout"
	OutcomeMalformed      Outcome = "malformed"
	OutcomeCancelled      Outcome = "cancelled"
)

// Event describes one request attempt.
type Event struct {
	// RequestID is shared by every attempt of one client call.
	RequestID string `json:"request_id" yaml:"request_id"`

	Method  string  `json:"method" yaml:"method"`
	Path    string  `json:"path" yaml:"path"`
	Outcome Outcome `json:"outcome" yaml:"outcome"`

	// LatencyMs is the wall time of the attempt in milliseconds.
	LatencyMs int64 `json:"latency_ms" yaml:"latency_ms"`

	// Attempt is 1-based.
	Attempt int `json:"attempt" yaml:"attempt"`

	// StatusCode is 0 when no HTTP response was received.
	StatusCode int `json:"status_code,omitempty" yaml:"status_code,omitempty"`
}

// Sink receives events. Implementations must be safe for concurrent use.
type Sink interface {
	Log(Event)
}

// Discard drops every event.
var Discard Sink = discard{}

type discard struct{}

func (discard) Log(Event) {}

// SlogSink writes each event as one structured log record.
type SlogSink struct {
	logger *slog.Logger
	level  slog.Level
}

// NewSlogSink returns a sink logging to logger. A nil logger means slog.Default().
// Successful attempts log at debug; everything else at warn.
func NewSlogSink(logger *slog.Logger) *SlogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogSink{logger: logger, level: slog.LevelWarn}
}

// Log implements Sink.
func (s *SlogSink) Log(e Event) {
	level := s.level
	if e.Outcome == OutcomeOK || e.Outcome == OutcomePartial {
		level = slog.LevelDebug
	}
	s.logger.LogAttrs(context.Background(), level, "news_request",
		slog.String("request_id", e.RequestID),
		slog.String("method", e.Method),
		slog.String("path", e.Path),
		slog.String("outcome", string(e.Outcome)),
		slog.Int64("latency_ms", e.LatencyMs),
		slog.Int("attempt", e.Attempt),
		slog.Int("status", e.StatusCode),
	)
}

// Recorder keeps every event in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Log implements Sink.
func (r *Recorder) Log(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of the recorded events in arrival order.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Len returns the number of recorded events.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

type multi []Sink

func (m multi) Log(e Event) {
	for _, s := range m {
		s.Log(e)
	}
}

// Multi fans each event out to every non-nil sink in order.
func Multi(sinks ...Sink) Sink {
	var m multi
	for _, s := range sinks {
		if s != nil {
			m = append(m, s)
		}
	}
	switch len(m) {
	case 0:
		return Discard
	case 1:
		return m[0]
	}
	return m
}
