package core

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Rorical/smartagent/internal/models"
	"github.com/Rorical/smartagent/internal/observability"
	"github.com/Rorical/smartagent/internal/stream"
)

type streamerFunc func(ctx context.Context, body any) (*stream.Events, error)

func (f streamerFunc) Open(ctx context.Context, body any) (*stream.Events, error) {
	return f(ctx, body)
}

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// newReducer returns a service whose turn was already admitted, so events
// can be fed straight into reduce
func newReducer(t *testing.T) (*AgentService, *manualClock) {
	t.Helper()
	svc, err := NewAgentService(Options{
		Stream: streamerFunc(func(context.Context, any) (*stream.Events, error) {
			t.Fatal("unexpected stream open")
			return nil, nil
		}),
		Logger: observability.Discard(),
	})
	require.NoError(t, err)
	t.Cleanup(svc.Stop)

	clock := &manualClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	svc.now = clock.Now

	_, err = svc.state.Admit(turnStart{Text: "go", ConversationID: "default"}, clock.Now())
	require.NoError(t, err)
	return svc, clock
}

func toolRequest(name string, args map[string]any) stream.ToolCallRequestEvent {
	return stream.ToolCallRequestEvent{ToolName: name, ToolCall: stream.FunctionCall{Name: name, Args: args}}
}

func toolResponse(name, result string) stream.ToolCallResponseEvent {
	return stream.ToolCallResponseEvent{ToolCall: stream.FunctionCall{Name: name}, Result: json.RawMessage(result)}
}

func TestExecutionDurationIsResponseMinusCreation(t *testing.T) {
	svc, clock := newReducer(t)

	require.NoError(t, svc.reduce(toolRequest("camera", map[string]any{"action": "take_photo"})))
	clock.Advance(1500 * time.Millisecond)
	require.NoError(t, svc.reduce(toolResponse("camera", `{"success":true,"photoUrl":"p.jpg"}`)))

	snap := svc.Snapshot()
	exec := snap.Executions[0]
	require.Equal(t, models.ExecutionSuccess, exec.Status)
	require.Equal(t, 1500*time.Millisecond, exec.Duration)

	for _, step := range snap.Reasoning {
		if step.ID == models.PhaseExecute {
			require.Equal(t, models.PhaseCompleted, step.Status)
			require.Equal(t, 1500*time.Millisecond, step.Duration)
		}
	}
	require.Equal(t, models.PhaseActive, snap.Reasoning[phaseIndex(models.PhaseResult)].Status)
	require.False(t, snap.Loading)
}

func TestExactlyOneExecutionResolvesPerResponse(t *testing.T) {
	svc, _ := newReducer(t)

	require.NoError(t, svc.reduce(toolRequest("camera", nil)))
	require.NoError(t, svc.reduce(toolRequest("music_player", nil)))
	require.NoError(t, svc.reduce(toolResponse("camera", `{"success":true}`)))

	execs := svc.Snapshot().Executions
	require.Equal(t, models.ExecutionSuccess, execs[0].Status)
	require.Equal(t, models.ExecutionExecuting, execs[1].Status)
	require.Equal(t, map[string]any{}, execs[1].Args)

	require.NoError(t, svc.reduce(toolResponse("music_player", `{"success":true}`)))
	require.NoError(t, svc.reduce(toolResponse("music_player", `{"success":true}`)))

	execs = svc.Snapshot().Executions
	require.Len(t, execs, 2)
	require.Equal(t, models.ExecutionSuccess, execs[1].Status)
}

func TestResponseWithoutNameResolvesCurrent(t *testing.T) {
	svc, _ := newReducer(t)

	require.NoError(t, svc.reduce(toolRequest("flashlight", map[string]any{"state": true})))
	require.NoError(t, svc.reduce(toolResponse("", `{"success":true}`)))

	require.Equal(t, models.ExecutionSuccess, svc.Snapshot().Executions[0].Status)
}

func TestStructuredResultAndErrors(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		structured any
		failed     bool
		errText    string
	}{
		{"plain", `{"success":true}`, map[string]any{"success": true}, false, ""},
		{"nested", `{"result":{"todos":[]}}`, map[string]any{"todos": []any{}}, false, ""},
		{"outer error", `{"error":"denied","result":{"ok":1}}`, map[string]any{"ok": float64(1)}, true, "denied"},
		{"nested error", `{"result":{"error":{"message":"no signal"}}}`, map[string]any{"error": map[string]any{"message": "no signal"}}, true, "no signal"},
		{"null result", `{"result":null,"value":2}`, map[string]any{"result": nil, "value": float64(2)}, false, ""},
		{"empty", ``, nil, false, ""},
		{"scalar", `"done"`, "done", false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := decodeToolResult(json.RawMessage(tt.raw))
			require.Equal(t, tt.structured, out.Structured)
			require.Equal(t, tt.failed, out.Failed)
			require.Equal(t, tt.errText, out.Error)
		})
	}
}

func TestContentAfterToolCallKeepsOneAssistantMessage(t *testing.T) {
	svc, _ := newReducer(t)

	require.NoError(t, svc.reduce(stream.ContentEvent{Text: "好的，"}))
	require.NoError(t, svc.reduce(toolRequest("flashlight", nil)))
	require.NoError(t, svc.reduce(toolResponse("flashlight", `{"success":true}`)))
	require.NoError(t, svc.reduce(stream.ContentEvent{Text: "已打开"}))

	snap := svc.Snapshot()
	var assistant []string
	for _, m := range snap.Messages {
		if m.Role == models.RoleAssistant {
			assistant = append(assistant, m.Content)
		}
	}
	require.Equal(t, []string{"好的，已打开"}, assistant)
	// tool_select is active again once the agent answers after the tool
	require.Equal(t, models.PhaseActive, snap.Reasoning[phaseIndex(models.PhaseToolSelect)].Status)
}

func TestFinishedCompletesActivePhases(t *testing.T) {
	svc, clock := newReducer(t)

	require.NoError(t, svc.reduce(toolRequest("navigation", nil)))
	clock.Advance(time.Second)
	require.NoError(t, svc.reduce(stream.FinishedEvent{Reason: "STOP"}))

	snap := svc.Snapshot()
	require.Empty(t, snap.ExecutionContext.CurrentExecutionID)
	for _, step := range snap.Reasoning {
		require.NotEqual(t, models.PhaseActive, step.Status, step.ID)
	}
	require.Equal(t, time.Second, snap.Reasoning[phaseIndex(models.PhaseSafety)].Duration)
	// the execution itself stays executing until a response arrives
	require.Equal(t, models.ExecutionExecuting, snap.Executions[0].Status)
}

func TestErrorEventUsesLatchedTrace(t *testing.T) {
	svc, _ := newReducer(t)

	require.NoError(t, svc.reduce(stream.ContentEvent{Envelope: stream.Envelope{TraceID: "tr-5"}, Text: "x"}))
	err := svc.reduce(stream.ErrorEvent{})
	require.Error(t, err)
	require.Equal(t, "错误: Unknown error（traceId=tr-5）", err.Error())

	err = (&AgentService{state: NewAgentState(), logger: observability.Discard(), now: time.Now}).failTurn(stream.ErrorEvent{Message: "bad"})
	require.True(t, strings.Contains(err.Error(), "unknown-trace"))
}
