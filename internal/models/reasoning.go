package models

import "time"

type PhaseID string

const (
	PhaseIntent        PhaseID = "intent"
	PhaseClarification PhaseID = "clarification"
	PhaseToolSelect    PhaseID = "tool_select"
	PhaseSafety        PhaseID = "safety"
	PhaseExecute       PhaseID = "execute"
	PhaseResult        PhaseID = "result"
	PhaseFollowup      PhaseID = "followup"
)

// Phases lists the reasoning track in display order
var Phases = [...]struct {
	ID   PhaseID
	Name string
}{
	{PhaseIntent, "意图分析"},
	{PhaseClarification, "澄清确认"},
	{PhaseToolSelect, "工具选择"},
	{PhaseSafety, "安全检查"},
	{PhaseExecute, "执行工具"},
	{PhaseResult, "结果处理"},
	{PhaseFollowup, "跟进推理"},
}

const PhaseCount = len(Phases)

type PhaseStatus string

const (
	PhasePending   PhaseStatus = "pending"
	PhaseActive    PhaseStatus = "active"
	PhaseCompleted PhaseStatus = "completed"
	PhaseFailed    PhaseStatus = "failed"
)

type ReasoningStep struct {
	ID        PhaseID       `json:"id"`
	Name      string        `json:"name"`
	Status    PhaseStatus   `json:"status"`
	Timestamp time.Time     `json:"timestamp"`
	Duration  time.Duration `json:"duration,omitempty"`
}

type SafetyStatus string

const (
	SafetySafe    SafetyStatus = "safe"
	SafetyWarning SafetyStatus = "warning"
	SafetyError   SafetyStatus = "error"
)
