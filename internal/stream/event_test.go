package stream

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeKnownKinds(t *testing.T) {
	tests := []struct {
		name  string
		input string
		check func(t *testing.T, evt Event)
	}{
		{
			name:  "content",
			input: `{"type":"content","value":{"text":"hi","isComplete":false},"traceId":"t1","promptId":"p1"}`,
			check: func(t *testing.T, evt Event) {
				content := evt.(ContentEvent)
				require.Equal(t, "hi", content.Text)
				require.Equal(t, Envelope{TraceID: "t1", PromptID: "p1"}, content.Meta())
			},
		},
		{
			name:  "tool call request falls back to call name",
			input: `{"type":"tool_call_request","value":{"toolCall":{"name":"camera","args":{"action":"take_photo"}}}}`,
			check: func(t *testing.T, evt Event) {
				req := evt.(ToolCallRequestEvent)
				require.Equal(t, "camera", req.ToolName)
				require.Equal(t, "take_photo", req.ToolCall.Args["action"])
			},
		},
		{
			name:  "tool call response keeps raw result",
			input: `{"type":"tool_call_response","value":{"toolCall":{"name":"write_todos"},"result":{"todos":[]}}}`,
			check: func(t *testing.T, evt Event) {
				resp := evt.(ToolCallResponseEvent)
				require.Equal(t, "write_todos", resp.ToolCall.Name)
				require.JSONEq(t, `{"todos":[]}`, string(resp.Result))
			},
		},
		{
			name:  "error",
			input: `{"type":"error","value":{"error":{"message":"quota","status":429}}}`,
			check: func(t *testing.T, evt Event) {
				errEvt := evt.(ErrorEvent)
				require.Equal(t, "quota", errEvt.Message)
				require.Equal(t, 429, errEvt.Status)
			},
		},
		{
			name:  "subagent",
			input: `{"type":"subagent_started","subAgentId":"s1","agentPrefix":"[子智能体-音乐助手]","data":{"step":1}}`,
			check: func(t *testing.T, evt Event) {
				sub := evt.(SubAgentEvent)
				require.Equal(t, KindSubAgentStarted, sub.Kind())
				require.Equal(t, "[子智能体-音乐助手]", sub.AgentPrefix)
				require.JSONEq(t, `{"step":1}`, string(sub.Data))
			},
		},
		{
			name:  "notice without value",
			input: `{"type":"loop_detected"}`,
			check: func(t *testing.T, evt Event) {
				require.Equal(t, KindLoopDetected, evt.Kind())
				_, ok := evt.(NoticeEvent)
				require.True(t, ok)
			},
		},
		{
			name:  "unknown kind",
			input: `{"type":"subagent_context_switched","value":{}}`,
			check: func(t *testing.T, evt Event) {
				unhandled := evt.(UnhandledEvent)
				require.Equal(t, "subagent_context_switched", unhandled.Type)
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			evt, err := Decode([]byte(tc.input))
			require.NoError(t, err)
			tc.check(t, evt)
		})
	}
}

func TestDecodeRejectsInvalidPayloads(t *testing.T) {
	for _, input := range []string{
		`{not-json}`,
		`{"value":{}}`,
		`{"type":"content","value":{"text":42}}`,
	} {
		_, err := Decode([]byte(input))
		require.Error(t, err, input)
	}
}
