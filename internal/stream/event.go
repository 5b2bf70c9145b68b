package stream

import (
	"encoding/json"
	"errors"
	"fmt"
)

type Kind string

const (
	KindContent                   Kind = "content"
	KindToolCallRequest           Kind = "tool_call_request"
	KindToolCallResponse          Kind = "tool_call_response"
	KindToolCallConfirmation      Kind = "tool_call_confirmation"
	KindFinished                  Kind = "finished"
	KindError                     Kind = "error"
	KindThought                   Kind = "thought"
	KindLoopDetected              Kind = "loop_detected"
	KindMaxSessionTurns           Kind = "max_session_turns"
	KindUserCancelled             Kind = "user_cancelled"
	KindChatCompressed            Kind = "chat_compressed"
	KindCitation                  Kind = "citation"
	KindModelInfo                 Kind = "model_info"
	KindRetry                     Kind = "retry"
	KindInvalidStream             Kind = "invalid_stream"
	KindContextWindowWillOverflow Kind = "context_window_will_overflow"

	KindSubAgentStarted             Kind = "subagent_started"
	KindSubAgentCompleted           Kind = "subagent_completed"
	KindSubAgentError               Kind = "subagent_error"
	KindSubAgentClarificationNeeded Kind = "subagent_clarification_needed"
)

// Envelope carries the correlation ids every event may hold
type Envelope struct {
	TraceID  string `json:"traceId,omitempty"`
	PromptID string `json:"promptId,omitempty"`
}

func (e Envelope) Meta() Envelope { return e }

// Event is the closed set of stream events. Each kind decodes into
// exactly one concrete type; unknown kinds become UnhandledEvent.
type Event interface {
	Kind() Kind
	Meta() Envelope
}

type FunctionCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

type ContentEvent struct {
	Envelope
	Text       string
	IsComplete bool
}

func (ContentEvent) Kind() Kind { return KindContent }

type ToolCallRequestEvent struct {
	Envelope
	ToolName string
	ToolCall FunctionCall
}

func (ToolCallRequestEvent) Kind() Kind { return KindToolCallRequest }

type ToolCallResponseEvent struct {
	Envelope
	ToolCall FunctionCall
	Result   json.RawMessage
}

func (ToolCallResponseEvent) Kind() Kind { return KindToolCallResponse }

type ToolCallConfirmationEvent struct {
	Envelope
	Request FunctionCall
	Details json.RawMessage
}

func (ToolCallConfirmationEvent) Kind() Kind { return KindToolCallConfirmation }

type UsageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount,omitempty"`
	CandidatesTokenCount int `json:"candidatesTokenCount,omitempty"`
	TotalTokenCount      int `json:"totalTokenCount,omitempty"`
}

type FinishedEvent struct {
	Envelope
	Reason string
	Usage  *UsageMetadata
}

func (FinishedEvent) Kind() Kind { return KindFinished }

type ErrorEvent struct {
	Envelope
	Message string
	Status  int
}

func (ErrorEvent) Kind() Kind { return KindError }

type ThoughtEvent struct {
	Envelope
	Thought    string
	Confidence *float64
	Reasoning  string
}

func (ThoughtEvent) Kind() Kind { return KindThought }

// SubAgentEvent is a lifecycle notification from a delegated agent
type SubAgentEvent struct {
	Envelope
	kind        Kind
	SubAgentID  string
	AgentPrefix string
	Data        json.RawMessage
}

func (e SubAgentEvent) Kind() Kind { return e.kind }

// NoticeEvent covers informational kinds the reducer only logs
type NoticeEvent struct {
	Envelope
	kind  Kind
	Value json.RawMessage
}

func (e NoticeEvent) Kind() Kind { return e.kind }

// UnhandledEvent holds a payload whose type is not part of the protocol
type UnhandledEvent struct {
	Envelope
	Type string
	Raw  json.RawMessage
}

func (e UnhandledEvent) Kind() Kind { return Kind(e.Type) }

var ErrMissingType = errors.New("stream: event type is required")

type wireEvent struct {
	Type        string          `json:"type"`
	Value       json.RawMessage `json:"value"`
	TraceID     string          `json:"traceId"`
	PromptID    string          `json:"promptId"`
	SubAgentID  string          `json:"subAgentId"`
	AgentPrefix string          `json:"agentPrefix"`
	Data        json.RawMessage `json:"data"`
}

// Decode parses one JSON-encoded event payload
func Decode(data []byte) (Event, error) {
	var wire wireEvent
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("decode stream event: %w", err)
	}
	if wire.Type == "" {
		return nil, ErrMissingType
	}

	env := Envelope{TraceID: wire.TraceID, PromptID: wire.PromptID}
	kind := Kind(wire.Type)

	switch kind {
	case KindContent:
		var v struct {
			Text       string `json:"text"`
			IsComplete bool   `json:"isComplete"`
		}
		if err := decodeValue(kind, wire.Value, &v); err != nil {
			return nil, err
		}
		return ContentEvent{Envelope: env, Text: v.Text, IsComplete: v.IsComplete}, nil

	case KindToolCallRequest:
		var v struct {
			ToolName string       `json:"toolName"`
			ToolCall FunctionCall `json:"toolCall"`
		}
		if err := decodeValue(kind, wire.Value, &v); err != nil {
			return nil, err
		}
		if v.ToolName == "" {
			v.ToolName = v.ToolCall.Name
		}
		return ToolCallRequestEvent{Envelope: env, ToolName: v.ToolName, ToolCall: v.ToolCall}, nil

	case KindToolCallResponse:
		var v struct {
			ToolCall FunctionCall    `json:"toolCall"`
			Result   json.RawMessage `json:"result"`
		}
		if err := decodeValue(kind, wire.Value, &v); err != nil {
			return nil, err
		}
		return ToolCallResponseEvent{Envelope: env, ToolCall: v.ToolCall, Result: v.Result}, nil

	case KindToolCallConfirmation:
		var v struct {
			Request FunctionCall    `json:"request"`
			Details json.RawMessage `json:"details"`
		}
		if err := decodeValue(kind, wire.Value, &v); err != nil {
			return nil, err
		}
		return ToolCallConfirmationEvent{Envelope: env, Request: v.Request, Details: v.Details}, nil

	case KindFinished:
		var v struct {
			Reason        string         `json:"reason"`
			UsageMetadata *UsageMetadata `json:"usageMetadata"`
		}
		if err := decodeValue(kind, wire.Value, &v); err != nil {
			return nil, err
		}
		return FinishedEvent{Envelope: env, Reason: v.Reason, Usage: v.UsageMetadata}, nil

	case KindError:
		var v struct {
			Error struct {
				Message string `json:"message"`
				Status  int    `json:"status"`
			} `json:"error"`
		}
		if err := decodeValue(kind, wire.Value, &v); err != nil {
			return nil, err
		}
		return ErrorEvent{Envelope: env, Message: v.Error.Message, Status: v.Error.Status}, nil

	case KindThought:
		var v struct {
			Thought    string   `json:"thought"`
			Confidence *float64 `json:"confidence"`
			Reasoning  string   `json:"reasoning"`
		}
		if err := decodeValue(kind, wire.Value, &v); err != nil {
			return nil, err
		}
		return ThoughtEvent{Envelope: env, Thought: v.Thought, Confidence: v.Confidence, Reasoning: v.Reasoning}, nil

	case KindSubAgentStarted, KindSubAgentCompleted, KindSubAgentError, KindSubAgentClarificationNeeded:
		payload := wire.Data
		if len(payload) == 0 {
			payload = wire.Value
		}
		return SubAgentEvent{
			Envelope:    env,
			kind:        kind,
			SubAgentID:  wire.SubAgentID,
			AgentPrefix: wire.AgentPrefix,
			Data:        payload,
		}, nil

	case KindLoopDetected, KindMaxSessionTurns, KindUserCancelled, KindChatCompressed,
		KindCitation, KindModelInfo, KindRetry, KindInvalidStream, KindContextWindowWillOverflow:
		return NoticeEvent{Envelope: env, kind: kind, Value: wire.Value}, nil
	}

	return UnhandledEvent{Envelope: env, Type: wire.Type, Raw: append(json.RawMessage(nil), data...)}, nil
}

func decodeValue(kind Kind, raw json.RawMessage, dst any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode %s value: %w", kind, err)
	}
	return nil
}
