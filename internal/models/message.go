package models

import "time"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of the conversation shown to the user
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type StepType string

const (
	StepUserInput     StepType = "user_input"
	StepModelResponse StepType = "model_response"
	StepThought       StepType = "thought"
	StepToolCall      StepType = "tool_call"
	StepToolResult    StepType = "tool_result"
	StepError         StepType = "error"
)

// AgentStep is an append-only timeline entry. Only a streaming
// model_response step has its content extended after creation.
type AgentStep struct {
	ID        string    `json:"id"`
	Type      StepType  `json:"type"`
	Content   string    `json:"content"`
	Metadata  any       `json:"metadata,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
