package core

import (
	"errors"

	"github.com/google/uuid"

	"github.com/Rorical/smartagent/internal/eventbus"
	"github.com/Rorical/smartagent/internal/models"
	"github.com/Rorical/smartagent/internal/policy"
	"github.com/Rorical/smartagent/internal/stream"
)

const (
	confirmApproved = "已批准"
	confirmRejected = "已拒绝"
	confirmTimedOut = "超时"
)

// handleConfirmation asks the policy engine about a tool awaiting
// confirmation. Questions for the user go over the message bus on their
// own goroutine so the stream keeps flowing.
func (s *AgentService) handleConfirmation(e stream.ToolCallConfirmationEvent) {
	call := eventbus.ToolCall{Name: e.Request.Name, Args: e.Request.Args}
	tag := s.tags.Tag(call.Name)

	switch s.policy.Check(call.Name, call.Args) {
	case policy.Allow:
		// Nobody asked, so there is no request to answer on the bus
		s.recordConfirmation(call.Name, confirmApproved)

	case policy.Deny:
		s.publish(eventbus.ToolPolicyRejection{ToolCall: call})
		s.recordConfirmation(call.Name, confirmRejected)

	default:
		correlationID := uuid.NewString()
		s.logger.Info(tag+" Awaiting user confirmation", "tool", call.Name, "correlationId", correlationID)
		s.state.SetSafety(models.SafetyWarning)

		s.pending.Add(1)
		go func() {
			defer s.pending.Done()

			resp, err := s.bus.RequestResponse(s.ctx, eventbus.ToolConfirmationRequest{
				ToolCall:      call,
				CorrelationID: correlationID,
			}, eventbus.ToolConfirmationResponseType, s.confirmTimeout)

			outcome := confirmRejected
			switch {
			case errors.Is(err, eventbus.ErrRequestTimeout):
				outcome = confirmTimedOut
			case err != nil:
				s.logger.Warn("Confirmation abandoned", "tool", call.Name, "error", err)
			default:
				if answer, ok := resp.(eventbus.ToolConfirmationResponse); ok && answer.Confirmed {
					outcome = confirmApproved
				}
			}

			if outcome == confirmApproved {
				s.state.ClearWarning()
			}
			s.recordConfirmation(call.Name, outcome)
			s.pushStateToUI()
		}()
	}
}

func (s *AgentService) recordConfirmation(toolName, outcome string) {
	s.logger.Info("Tool confirmation", "tool", toolName, "outcome", outcome)
	s.state.AddStep(models.StepThought, "工具确认: "+toolName+" "+outcome, nil, s.now())
}

func (s *AgentService) publish(msg eventbus.Message) {
	if err := s.bus.Publish(msg); err != nil {
		s.logger.Warn("Publish failed", "type", msg.Type(), "error", err)
	}
}
