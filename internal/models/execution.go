package models

import "time"

type ExecutionStatus string

const (
	ExecutionExecuting ExecutionStatus = "executing"
	ExecutionSuccess   ExecutionStatus = "success"
	ExecutionError     ExecutionStatus = "error"
)

// ToolExecution tracks one tool call from request to response
type ToolExecution struct {
	ID        string          `json:"id"`
	ToolName  string          `json:"toolName"`
	Args      map[string]any  `json:"args"`
	Status    ExecutionStatus `json:"status"`
	Result    any             `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Duration  time.Duration   `json:"duration,omitempty"`
}

// SupplementalInput is user text captured while a tool call was executing.
// It is recorded but never forwarded to the backend.
type SupplementalInput struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type ExecutionContext struct {
	ConversationID     string              `json:"conversationId"`
	CurrentExecutionID string              `json:"currentExecutionId,omitempty"`
	SupplementalInputs []SupplementalInput `json:"supplementalInputs"`
}

type TodoStatus string

const (
	TodoPending    TodoStatus = "pending"
	TodoInProgress TodoStatus = "in_progress"
	TodoCompleted  TodoStatus = "completed"
	TodoCancelled  TodoStatus = "cancelled"
)

type TodoItem struct {
	ID      string     `json:"id"`
	Content string     `json:"content"`
	Status  TodoStatus `json:"status"`
	// Title mirrors Content for backends that still send the old field
	Title string `json:"title,omitempty"`
}
