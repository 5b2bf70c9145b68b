package telemetry

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Rorical/smartagent/internal/observability"
)

func TestRecordAPICall(t *testing.T) {
	s := NewService(observability.Discard())

	s.RecordAPICall(100*time.Millisecond, true)
	s.RecordAPICall(300*time.Millisecond, false)

	m := s.Metrics()
	require.Equal(t, 2, m.APICalls.Count)
	require.Equal(t, 1, m.APICalls.Failures)
	require.Equal(t, 400*time.Millisecond, m.APICalls.TotalDuration)
	require.Equal(t, 300*time.Millisecond, m.APICalls.LastDuration)
	require.InDelta(t, 0.5, m.FailureRate(), 1e-9)
}

func TestRecordSSEConnection(t *testing.T) {
	s := NewService(nil)

	s.RecordSSEConnection(12, false)
	s.RecordSSEConnection(0, true)
	s.RecordSSEConnection(3, false)

	m := s.Metrics()
	require.Equal(t, 3, m.Streams.Count)
	require.Equal(t, 1, m.Streams.Interruptions)
	require.Equal(t, 15, m.Streams.TotalEvents)
	require.InDelta(t, 1.0/3.0, m.InterruptionRate(), 1e-9)
}

func TestRatesWithoutData(t *testing.T) {
	var m Metrics
	require.Zero(t, m.FailureRate())
	require.Zero(t, m.InterruptionRate())
}

func TestResetAndConcurrentUse(t *testing.T) {
	s := NewService(observability.Discard())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.RecordAPICall(time.Millisecond, true)
			s.RecordSSEConnection(1, false)
		}()
	}
	wg.Wait()
	require.Equal(t, 20, s.Metrics().APICalls.Count)

	s.Reset()
	require.Equal(t, Metrics{}, s.Metrics())
}
