package core

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Rorical/smartagent/internal/models"
)

const (
	defaultConversationID = "default"
	supplementalPrefix    = "[补充输入] "
)

type admission int

const (
	admitTurn admission = iota
	admitSupplemental
)

// turnStart describes a user message that may open a new turn
type turnStart struct {
	Text           string
	ConversationID string
	// ExplicitConversation is set when the caller named the conversation
	ExplicitConversation bool
	Complex              bool
}

// toolOutcome is the decoded result of a tool_call_response
type toolOutcome struct {
	ToolName   string
	Structured any
	Failed     bool
	Error      string
	StepText   string
}

// AgentState holds everything the reducer owns. Every exported mutation
// happens under one lock so a single event is applied atomically.
type AgentState struct {
	mu sync.RWMutex

	messages        []models.Message
	steps           []models.AgentStep
	executions      []models.ToolExecution
	todos           []models.TodoItem
	reasoning       []models.ReasoningStep
	safety          models.SafetyStatus
	traceID         string
	promptID        string
	lastUserMessage string
	execCtx         models.ExecutionContext
	loading         bool
	lastError       error

	// turnActive is exported as Snapshot.Streaming
	turnActive    bool
	openMessageID string
	openStepID    string

	newID func() string
}

func NewAgentState() *AgentState {
	st := &AgentState{newID: uuid.NewString}
	st.resetLocked()
	return st
}

func (st *AgentState) resetLocked() {
	st.messages = nil
	st.steps = nil
	st.executions = nil
	st.todos = nil
	st.reasoning = nil
	st.safety = models.SafetySafe
	st.traceID = ""
	st.promptID = ""
	st.lastUserMessage = ""
	st.execCtx = models.ExecutionContext{ConversationID: defaultConversationID}
	st.loading = false
	st.lastError = nil
	st.openMessageID = ""
	st.openStepID = ""
}

// Reset returns every observable field to its initial value. A turn that
// is still streaming keeps running against the cleared state.
func (st *AgentState) Reset() {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.resetLocked()
}

// Admit either opens a new turn for ts or, when a tool is executing,
// records ts.Text as supplemental input. It fails with ErrTurnInProgress
// while a turn streams without a tool in flight.
func (st *AgentState) Admit(ts turnStart, now time.Time) (admission, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if exec := st.currentLocked(); exec != nil && exec.Status == models.ExecutionExecuting {
		input := models.SupplementalInput{ID: st.newID(), Content: ts.Text, Timestamp: now}
		st.execCtx.SupplementalInputs = append(st.execCtx.SupplementalInputs, input)
		st.messages = append(st.messages, models.Message{
			ID:        input.ID,
			Role:      models.RoleUser,
			Content:   supplementalPrefix + ts.Text,
			Timestamp: now,
		})
		return admitSupplemental, nil
	}
	if st.turnActive {
		return admitTurn, ErrTurnInProgress
	}

	st.turnActive = true
	st.loading = true
	st.lastError = nil
	st.reasoning = newTrack(now)
	st.safety = models.SafetySafe
	st.lastUserMessage = ts.Text
	st.execCtx.ConversationID = ts.ConversationID
	st.execCtx.SupplementalInputs = nil
	st.traceID = ""
	st.promptID = ""
	if ts.ExplicitConversation {
		st.promptID = ts.ConversationID
	}
	st.openMessageID = ""
	st.openStepID = ""

	content := ts.Text
	if ts.Complex {
		content = complexTaskPrefix + ts.Text
	}
	st.messages = append(st.messages, models.Message{
		ID:        st.newID(),
		Role:      models.RoleUser,
		Content:   content,
		Timestamp: now,
	})
	st.steps = append(st.steps, models.AgentStep{
		ID:        st.newID(),
		Type:      models.StepUserInput,
		Content:   ts.Text,
		Timestamp: now,
	})
	return admitTurn, nil
}

// LatchIDs records trace and prompt ids the first time they are seen in a
// turn. Later values never overwrite them.
func (st *AgentState) LatchIDs(traceID, promptID string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.traceID == "" && traceID != "" {
		st.traceID = traceID
	}
	if st.promptID == "" && promptID != "" {
		st.promptID = promptID
	}
}

func (st *AgentState) TraceID() string {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.traceID
}

// AppendContent extends the open assistant message and model_response
// step, creating both on the first fragment of a turn
func (st *AgentState) AppendContent(text string, now time.Time) {
	st.mu.Lock()
	defer st.mu.Unlock()

	completePhase(st.reasoning, models.PhaseIntent, now)
	activatePhase(st.reasoning, models.PhaseToolSelect, now)

	if i := st.stepIndexLocked(st.openStepID); i >= 0 {
		st.steps[i].Content += text
	} else {
		st.openStepID = st.newID()
		st.steps = append(st.steps, models.AgentStep{
			ID:        st.openStepID,
			Type:      models.StepModelResponse,
			Content:   text,
			Timestamp: now,
		})
	}

	if i := st.messageIndexLocked(st.openMessageID); i >= 0 {
		st.messages[i].Content += text
	} else {
		st.openMessageID = st.newID()
		st.messages = append(st.messages, models.Message{
			ID:        st.openMessageID,
			Role:      models.RoleAssistant,
			Content:   text,
			Timestamp: now,
		})
	}
}

// StartToolCall records a tool_call step and a new executing ToolExecution
// and makes it the current execution
func (st *AgentState) StartToolCall(toolName string, args map[string]any, stepText string, metadata any, now time.Time) models.ToolExecution {
	st.mu.Lock()
	defer st.mu.Unlock()

	completePhase(st.reasoning, models.PhaseToolSelect, now)
	activatePhase(st.reasoning, models.PhaseSafety, now)
	activatePhase(st.reasoning, models.PhaseExecute, now)

	st.steps = append(st.steps, models.AgentStep{
		ID:        st.newID(),
		Type:      models.StepToolCall,
		Content:   stepText,
		Metadata:  metadata,
		Timestamp: now,
	})

	if args == nil {
		args = map[string]any{}
	}
	exec := models.ToolExecution{
		ID:        st.newID(),
		ToolName:  toolName,
		Args:      args,
		Status:    models.ExecutionExecuting,
		Timestamp: now,
	}
	st.executions = append(st.executions, exec)
	st.execCtx.CurrentExecutionID = exec.ID
	return exec
}

// CompleteToolCall appends the tool_result step and resolves the matching
// executing record: the current execution when its tool name matches, else
// the most recent executing record with that name, else the current
// execution, else the most recent executing record. The second return is
// false when nothing was executing.
func (st *AgentState) CompleteToolCall(out toolOutcome, now time.Time) (models.ToolExecution, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	completePhase(st.reasoning, models.PhaseExecute, now)
	activatePhase(st.reasoning, models.PhaseResult, now)
	st.loading = false

	st.steps = append(st.steps, models.AgentStep{
		ID:        st.newID(),
		Type:      models.StepToolResult,
		Content:   out.StepText,
		Timestamp: now,
	})

	i := st.resolveExecutionLocked(out.ToolName)
	if i < 0 {
		return models.ToolExecution{}, false
	}

	exec := &st.executions[i]
	exec.Result = out.Structured
	exec.Duration = now.Sub(exec.Timestamp)
	if out.Failed {
		exec.Status = models.ExecutionError
		exec.Error = out.Error
	} else {
		exec.Status = models.ExecutionSuccess
		if todoTools[exec.ToolName] {
			if todos, ok := parseTodos(out.Structured); ok {
				st.todos = todos
			}
		}
	}
	return *exec, true
}

func (st *AgentState) resolveExecutionLocked(toolName string) int {
	current := -1
	if id := st.execCtx.CurrentExecutionID; id != "" {
		for i := len(st.executions) - 1; i >= 0; i-- {
			if st.executions[i].ID == id && st.executions[i].Status == models.ExecutionExecuting {
				current = i
				break
			}
		}
	}
	if current >= 0 && (toolName == "" || st.executions[current].ToolName == toolName) {
		return current
	}
	if toolName != "" {
		for i := len(st.executions) - 1; i >= 0; i-- {
			if st.executions[i].ToolName == toolName && st.executions[i].Status == models.ExecutionExecuting {
				return i
			}
		}
	}
	if current >= 0 {
		return current
	}
	for i := len(st.executions) - 1; i >= 0; i-- {
		if st.executions[i].Status == models.ExecutionExecuting {
			return i
		}
	}
	return -1
}

// Finish handles a finished event
func (st *AgentState) Finish(now time.Time) {
	st.mu.Lock()
	defer st.mu.Unlock()

	settleActive(st.reasoning, models.PhaseCompleted, now)
	st.loading = false
	st.execCtx.CurrentExecutionID = ""
}

// FailTurn handles an agent-reported error: active phases fail, safety
// becomes error and exactly one error step and assistant message carry text
func (st *AgentState) FailTurn(text string, err error, now time.Time) {
	st.mu.Lock()
	defer st.mu.Unlock()

	settleActive(st.reasoning, models.PhaseFailed, now)
	st.safety = models.SafetyError
	st.loading = false
	st.execCtx.CurrentExecutionID = ""
	st.lastError = err
	st.appendErrorLocked(text, text, now)
}

// RecordFailure handles an error raised while opening or reading the
// stream
func (st *AgentState) RecordFailure(err error, now time.Time) {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.loading = false
	st.lastError = err
	st.appendErrorLocked("错误: "+err.Error(), err.Error(), now)
}

func (st *AgentState) appendErrorLocked(message, step string, now time.Time) {
	st.steps = append(st.steps, models.AgentStep{
		ID:        st.newID(),
		Type:      models.StepError,
		Content:   step,
		Timestamp: now,
	})
	st.messages = append(st.messages, models.Message{
		ID:        st.newID(),
		Role:      models.RoleAssistant,
		Content:   message,
		Timestamp: now,
	})
}

// EndTurn closes the turn: phases still active are force-completed and the
// next SendMessage may open a new stream
func (st *AgentState) EndTurn(now time.Time) {
	st.mu.Lock()
	defer st.mu.Unlock()

	settleActive(st.reasoning, models.PhaseCompleted, now)
	st.loading = false
	st.turnActive = false
	st.openMessageID = ""
	st.openStepID = ""
}

func (st *AgentState) AddStep(stepType models.StepType, content string, metadata any, now time.Time) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.steps = append(st.steps, models.AgentStep{
		ID:        st.newID(),
		Type:      stepType,
		Content:   content,
		Metadata:  metadata,
		Timestamp: now,
	})
}

func (st *AgentState) SetSafety(status models.SafetyStatus) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.safety = status
}

// ClearWarning drops a pending-confirmation warning. An error status stays.
func (st *AgentState) ClearWarning() {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.safety == models.SafetyWarning {
		st.safety = models.SafetySafe
	}
}

// LastTurn returns what RetryLast needs to resend
func (st *AgentState) LastTurn() (text, promptID string) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.lastUserMessage, st.promptID
}

func (st *AgentState) ConversationID() string {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.execCtx.ConversationID
}

func (st *AgentState) IsLoading() bool {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.loading
}

// Snapshot copies the read state
func (st *AgentState) Snapshot() models.Snapshot {
	st.mu.RLock()
	defer st.mu.RUnlock()

	execCtx := st.execCtx
	execCtx.SupplementalInputs = append([]models.SupplementalInput(nil), st.execCtx.SupplementalInputs...)

	return models.Snapshot{
		Messages:         append([]models.Message(nil), st.messages...),
		Steps:            append([]models.AgentStep(nil), st.steps...),
		Executions:       append([]models.ToolExecution(nil), st.executions...),
		Todos:            append([]models.TodoItem(nil), st.todos...),
		Reasoning:        append([]models.ReasoningStep(nil), st.reasoning...),
		SafetyStatus:     st.safety,
		TraceID:          st.traceID,
		PromptID:         st.promptID,
		LastUserMessage:  st.lastUserMessage,
		ExecutionContext: execCtx,
		Loading:          st.loading,
		Streaming:        st.turnActive,
		LastError:        st.lastError,
	}
}

func (st *AgentState) currentLocked() *models.ToolExecution {
	id := st.execCtx.CurrentExecutionID
	if id == "" {
		return nil
	}
	for i := len(st.executions) - 1; i >= 0; i-- {
		if st.executions[i].ID == id {
			return &st.executions[i]
		}
	}
	return nil
}

func (st *AgentState) stepIndexLocked(id string) int {
	if id == "" {
		return -1
	}
	for i := len(st.steps) - 1; i >= 0; i-- {
		if st.steps[i].ID == id {
			return i
		}
	}
	return -1
}

func (st *AgentState) messageIndexLocked(id string) int {
	if id == "" {
		return -1
	}
	for i := len(st.messages) - 1; i >= 0; i-- {
		if st.messages[i].ID == id {
			return i
		}
	}
	return -1
}
