package eventbus

// MessageType names a confirmation protocol message
type MessageType string

const (
	ToolConfirmationRequestType  MessageType = "tool-confirmation-request"
	ToolConfirmationResponseType MessageType = "tool-confirmation-response"
	ToolPolicyRejectionType      MessageType = "tool-policy-rejection"
	ToolExecutionSuccessType     MessageType = "tool-execution-success"
	ToolExecutionFailureType     MessageType = "tool-execution-failure"
	UpdatePolicyType             MessageType = "update-policy"
)

// ToolCall is the call a confirmation message refers to
type ToolCall struct {
	Name string
	Args map[string]any
}

// Message is the closed set of confirmation protocol messages
type Message interface {
	Type() MessageType
}

// Correlated messages take part in request/response pairing
type Correlated interface {
	Message
	Correlation() string
}

type ToolConfirmationRequest struct {
	ToolCall      ToolCall
	CorrelationID string
	ServerName    string
}

func (ToolConfirmationRequest) Type() MessageType { return ToolConfirmationRequestType }
func (m ToolConfirmationRequest) Correlation() string { return m.CorrelationID }

type ToolConfirmationResponse struct {
	CorrelationID string
	Confirmed     bool
	// RequiresUserConfirmation marks a policy decision of ask_user
	RequiresUserConfirmation bool
}

func (ToolConfirmationResponse) Type() MessageType { return ToolConfirmationResponseType }
func (m ToolConfirmationResponse) Correlation() string { return m.CorrelationID }

type ToolPolicyRejection struct {
	ToolCall ToolCall
}

func (ToolPolicyRejection) Type() MessageType { return ToolPolicyRejectionType }

type ToolExecutionSuccess struct {
	ToolCall ToolCall
	Result   any
}

func (ToolExecutionSuccess) Type() MessageType { return ToolExecutionSuccessType }

type ToolExecutionFailure struct {
	ToolCall ToolCall
	Err      error
}

func (ToolExecutionFailure) Type() MessageType { return ToolExecutionFailureType }

type UpdatePolicy struct {
	ToolName string
}

func (UpdatePolicy) Type() MessageType { return UpdatePolicyType }
