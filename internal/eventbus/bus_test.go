package eventbus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Rorical/smartagent/internal/models"
)

func TestEventBusRoutesBothDirections(t *testing.T) {
	eb := NewEventBus()
	defer eb.Close()

	require.NoError(t, eb.SendToCore(SendMessageEvent{Message: "播放音乐"}))
	require.NoError(t, eb.SendToUI(StateUpdateEvent{Snapshot: models.Snapshot{Loading: true}}))

	select {
	case ev := <-eb.UIToCore():
		require.Equal(t, SendMessageEvent{Message: "播放音乐"}, ev)
	case <-time.After(time.Second):
		t.Fatal("no UI event")
	}

	select {
	case update := <-eb.StateUpdates():
		require.True(t, update.Snapshot.Loading)
	case <-time.After(time.Second):
		t.Fatal("no state update")
	}
}

func TestStateUpdatesKeepOnlyLatest(t *testing.T) {
	eb := NewEventBus()
	defer eb.Close()

	for i := range 150 {
		snap := models.Snapshot{Loading: true, Messages: make([]models.Message, i)}
		require.NoError(t, eb.SendToUI(StateUpdateEvent{Snapshot: snap}))
	}
	require.NoError(t, eb.SendToUI(StateUpdateEvent{Snapshot: models.Snapshot{Loading: false}}))

	require.Len(t, eb.StateUpdates(), 1)
	final := <-eb.StateUpdates()
	require.False(t, final.Snapshot.Loading)
	require.Empty(t, eb.StateUpdates())
	require.Empty(t, eb.CoreToUI())

	require.Equal(t, CircuitClosed, eb.GetCircuitBreakerState())
	require.NoError(t, eb.SendToCore(RetryLastEvent{}))
	require.NoError(t, eb.SendToUI(ConfirmationPromptEvent{Request: ToolConfirmationRequest{CorrelationID: "c-1"}}))
	require.IsType(t, ConfirmationPromptEvent{}, <-eb.CoreToUI())
}

func TestEventBusSendAfterClose(t *testing.T) {
	eb := NewEventBus()
	eb.Close()
	eb.Close()

	require.ErrorIs(t, eb.SendToCore(RetryLastEvent{}), ErrBusClosed)
	require.ErrorIs(t, eb.SendToUI(StateUpdateEvent{}), ErrBusClosed)
}

func TestEventBusFullChannelReportsError(t *testing.T) {
	eb := NewEventBus()
	defer eb.Close()

	reported := make(chan EventBusError, 1)
	eb.SetErrorCallback(func(err EventBusError) {
		select {
		case reported <- err:
		default:
		}
	})

	for range cap(eb.uiToCore) {
		require.NoError(t, eb.SendToCore(ClearMessagesEvent{}))
	}
	require.Error(t, eb.SendToCore(ClearMessagesEvent{}))

	select {
	case err := <-reported:
		require.Equal(t, "SendToCore", err.Operation)
	case <-time.After(time.Second):
		t.Fatal("error callback not invoked")
	}
}

func TestCircuitBreakerOpensAndResets(t *testing.T) {
	now := time.Unix(0, 0)
	cb := NewCircuitBreaker(2, time.Minute)
	cb.now = func() time.Time { return now }

	cb.RecordFailure()
	require.False(t, cb.IsOpen())
	cb.RecordFailure()
	require.True(t, cb.IsOpen())

	now = now.Add(2 * time.Minute)
	require.False(t, cb.IsOpen())
	require.Equal(t, CircuitHalfOpen, cb.State())

	cb.RecordSuccess()
	require.Equal(t, CircuitClosed, cb.State())
}
