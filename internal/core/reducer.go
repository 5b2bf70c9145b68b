package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Rorical/smartagent/internal/eventbus"
	"github.com/Rorical/smartagent/internal/models"
	"github.com/Rorical/smartagent/internal/stream"
)

const subAgentTag = "[子智能体]"

const apiKeyHint = "🔑 配置错误: 请在项目根目录创建 .env.local 文件，并设置 GEMINI_API_KEY=你的API密钥\n\n详细配置说明请参考 .env.local.example 文件。"

// AgentError is an error reported by the agent through an error event.
// Text is the message already shown to the user.
type AgentError struct {
	Message string
	Status  int
	TraceID string
	Text    string
}

func (e *AgentError) Error() string {
	return e.Text
}

// reduce applies one event to the state. A non-nil error ends the turn.
func (s *AgentService) reduce(event stream.Event) error {
	meta := event.Meta()
	s.state.LatchIDs(meta.TraceID, meta.PromptID)
	now := s.now()

	switch e := event.(type) {
	case stream.ContentEvent:
		s.logger.Debug(DefaultAgentTag+" content", "length", len(e.Text), "isComplete", e.IsComplete)
		s.state.AppendContent(e.Text, now)

	case stream.ToolCallRequestEvent:
		tag := s.tags.Tag(e.ToolName)
		s.logger.Info(tag+" Tool Call Request", "tool", e.ToolName, "args", e.ToolCall.Args)
		s.state.StartToolCall(e.ToolName, e.ToolCall.Args, tag+" "+toolCallJSON(e.ToolName, e.ToolCall.Args), e.ToolCall, now)

	case stream.ToolCallResponseEvent:
		s.completeToolCall(e)

	case stream.ToolCallConfirmationEvent:
		s.handleConfirmation(e)

	case stream.FinishedEvent:
		reason := e.Reason
		if reason == "" {
			reason = "UNKNOWN"
		}
		s.logger.Info(DefaultAgentTag+" stream finished", "reason", reason, "traceId", s.state.TraceID())
		s.state.Finish(now)

	case stream.ErrorEvent:
		return s.failTurn(e)

	case stream.ThoughtEvent:
		var metadata any
		if e.Confidence != nil || e.Reasoning != "" {
			metadata = map[string]any{"confidence": e.Confidence, "reasoning": e.Reasoning}
		}
		s.state.AddStep(models.StepThought, e.Thought, metadata, now)

	case stream.SubAgentEvent:
		prefix := e.AgentPrefix
		if prefix == "" {
			prefix = subAgentTag
		}
		s.logger.Info(prefix+" "+string(e.Kind()), "subAgentId", e.SubAgentID, "data", string(e.Data))

	case stream.NoticeEvent:
		s.logger.Info("Agent notice", "type", e.Kind(), "value", string(e.Value))

	case stream.UnhandledEvent:
		s.logUnhandledOnce(e)
	}
	return nil
}

func (s *AgentService) completeToolCall(e stream.ToolCallResponseEvent) {
	out := decodeToolResult(e.Result)
	out.ToolName = e.ToolCall.Name

	tag := s.tags.Tag(out.ToolName)
	out.StepText = tag + " " + compactJSON(e.Result)

	exec, ok := s.state.CompleteToolCall(out, s.now())
	if !ok {
		s.logger.Warn(tag+" Tool response without executing call", "tool", out.ToolName)
		return
	}
	s.logger.Info(tag+" Tool Call Completed",
		"tool", exec.ToolName,
		"status", exec.Status,
		"duration", exec.Duration,
	)

	call := eventbus.ToolCall{Name: exec.ToolName, Args: exec.Args}
	var msg eventbus.Message = eventbus.ToolExecutionSuccess{ToolCall: call, Result: exec.Result}
	if exec.Status == models.ExecutionError {
		msg = eventbus.ToolExecutionFailure{ToolCall: call, Err: errors.New(exec.Error)}
	}
	if err := s.bus.Publish(msg); err != nil {
		s.logger.Warn("Publish tool outcome failed", "error", err)
	}
}

func (s *AgentService) failTurn(e stream.ErrorEvent) error {
	message := e.Message
	if message == "" {
		message = "Unknown error"
	}
	trace := e.TraceID
	if trace == "" {
		trace = s.state.TraceID()
	}
	if trace == "" {
		trace = "unknown-trace"
	}

	text := fmt.Sprintf("错误: %s（traceId=%s）", message, trace)
	if strings.Contains(message, "API Key") {
		text = apiKeyHint
	}

	err := &AgentError{Message: message, Status: e.Status, TraceID: trace, Text: text}
	s.state.FailTurn(text, err, s.now())
	s.logger.Error(DefaultAgentTag+" error event", "error", message, "traceId", trace, "status", e.Status)
	return err
}

func (s *AgentService) logUnhandledOnce(e stream.UnhandledEvent) {
	s.unhandledMu.Lock()
	seen := s.unhandled[e.Kind()]
	s.unhandled[e.Kind()] = true
	s.unhandledMu.Unlock()

	if !seen {
		s.logger.Warn("Unhandled event type", "type", e.Type)
	}
}

// decodeToolResult reads the structured result and error flag. A nested
// "result" field is the structured result when present; an "error" on
// either level marks the call failed.
func decodeToolResult(raw json.RawMessage) toolOutcome {
	var value any
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &value); err != nil {
			value = string(raw)
		}
	}

	structured := value
	outer, _ := value.(map[string]any)
	if nested, ok := outer["result"]; ok && truthy(nested) {
		structured = nested
	}
	inner, _ := structured.(map[string]any)

	out := toolOutcome{Structured: structured}
	for _, obj := range []map[string]any{outer, inner} {
		if obj == nil || !truthy(obj["error"]) {
			continue
		}
		out.Failed = true
		if out.Error == "" {
			out.Error = errorText(obj["error"])
		}
	}
	return out
}

func errorText(v any) string {
	switch e := v.(type) {
	case string:
		return e
	case map[string]any:
		if msg, ok := e["message"].(string); ok {
			return msg
		}
	}
	b, _ := json.Marshal(v)
	return string(b)
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case float64:
		return x != 0
	default:
		return true
	}
}

func toolCallJSON(name string, args map[string]any) string {
	b, err := json.Marshal(struct {
		Name string         `json:"name"`
		Args map[string]any `json:"args,omitempty"`
	}{name, args})
	if err != nil {
		return fmt.Sprintf(`{"name":%q}`, name)
	}
	return string(b)
}

func compactJSON(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "null"
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return string(raw)
	}
	return string(b)
}
