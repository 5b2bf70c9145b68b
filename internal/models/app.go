package models

import "github.com/Rorical/smartagent/internal/telemetry"

// ConfirmationRequest is a tool call waiting for the user's answer
type ConfirmationRequest struct {
	CorrelationID string         // Correlation id of the bus request
	ToolName      string         // Tool awaiting confirmation
	Args          map[string]any // Arguments the tool will run with
	ServerName    string         // Optional origin of the tool
}

// AppModel represents the UI state - only local UI concerns
type AppModel struct {
	Snapshot            Snapshot             // Latest state pushed by core
	ConversationID      string               // Conversation the input is sent to
	Status              string               // Status bar text
	Width               int                  // Terminal width
	Height              int                  // Terminal height
	Metrics             telemetry.Metrics    // Telemetry refreshed on tick
	PendingConfirmation *ConfirmationRequest // Current confirmation request
	RejectedInput       string               // Text the core refused, to put back in the input box
}

// InputEnabled reports whether typed input may be submitted. Input stays
// open while a tool executes so the user can add supplemental input.
func (m AppModel) InputEnabled() bool {
	return !m.Snapshot.Streaming || m.Snapshot.ToolInFlight()
}
