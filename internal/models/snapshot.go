package models

// Snapshot is a copy of the reducer's read state handed to consumers.
// Streaming is true from the start of a turn until its stream ends, while
// Loading already drops once a tool responds.
type Snapshot struct {
	Messages         []Message
	Steps            []AgentStep
	Executions       []ToolExecution
	Todos            []TodoItem
	Reasoning        []ReasoningStep
	SafetyStatus     SafetyStatus
	TraceID          string
	PromptID         string
	LastUserMessage  string
	ExecutionContext ExecutionContext
	Loading          bool
	Streaming        bool
	LastError        error
}

// CurrentExecution returns the in-flight execution, if any
func (s Snapshot) CurrentExecution() (ToolExecution, bool) {
	id := s.ExecutionContext.CurrentExecutionID
	if id == "" {
		return ToolExecution{}, false
	}
	for i := len(s.Executions) - 1; i >= 0; i-- {
		if s.Executions[i].ID == id {
			return s.Executions[i], true
		}
	}
	return ToolExecution{}, false
}

// ToolInFlight reports whether a tool execution is currently executing
func (s Snapshot) ToolInFlight() bool {
	exec, ok := s.CurrentExecution()
	return ok && exec.Status == ExecutionExecuting
}
