package telemetry

import (
	"log/slog"
	"sync"
	"time"
)

type APICallMetrics struct {
	Count         int
	Failures      int
	TotalDuration time.Duration
	LastDuration  time.Duration
}

type StreamMetrics struct {
	Count         int
	Interruptions int
	TotalEvents   int
}

type Metrics struct {
	APICalls APICallMetrics
	Streams  StreamMetrics
}

// FailureRate is the share of failed API calls, 0 when nothing was recorded
func (m Metrics) FailureRate() float64 {
	if m.APICalls.Count == 0 {
		return 0
	}
	return float64(m.APICalls.Failures) / float64(m.APICalls.Count)
}

// InterruptionRate is the share of streams that ended with zero events
func (m Metrics) InterruptionRate() float64 {
	if m.Streams.Count == 0 {
		return 0
	}
	return float64(m.Streams.Interruptions) / float64(m.Streams.Count)
}

// Service collects per-process client metrics. One instance is created by
// the application and handed to every component that records.
type Service struct {
	mu      sync.Mutex
	metrics Metrics
	logger  *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

func (s *Service) RecordAPICall(d time.Duration, success bool) {
	s.mu.Lock()
	s.metrics.APICalls.Count++
	s.metrics.APICalls.TotalDuration += d
	s.metrics.APICalls.LastDuration = d
	if !success {
		s.metrics.APICalls.Failures++
	}
	snapshot := s.metrics
	s.mu.Unlock()

	s.logger.Debug("API call completed",
		"duration", d,
		"success", success,
		"total_calls", snapshot.APICalls.Count,
		"failure_rate", snapshot.FailureRate(),
	)
}

func (s *Service) RecordSSEConnection(events int, interrupted bool) {
	s.mu.Lock()
	s.metrics.Streams.Count++
	s.metrics.Streams.TotalEvents += events
	if interrupted {
		s.metrics.Streams.Interruptions++
	}
	snapshot := s.metrics
	s.mu.Unlock()

	s.logger.Debug("SSE connection completed",
		"events", events,
		"interrupted", interrupted,
		"total_connections", snapshot.Streams.Count,
		"interruption_rate", snapshot.InterruptionRate(),
	)
}

func (s *Service) Metrics() Metrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.metrics
}

func (s *Service) Reset() {
	s.mu.Lock()
	s.metrics = Metrics{}
	s.mu.Unlock()
}
