package components

import (
	"strings"

	"github.com/Rorical/smartagent/internal/models"
	"github.com/Rorical/smartagent/ui/styles"
)

const stepPreview = 160

// RenderSteps renders the last limit timeline steps, one line each
func RenderSteps(steps []models.AgentStep, limit int) string {
	if len(steps) == 0 {
		return ""
	}
	if limit > 0 && len(steps) > limit {
		steps = steps[len(steps)-limit:]
	}

	var b strings.Builder
	b.WriteString(styles.TitleStyle().Render("Steps") + "\n")
	for _, step := range steps {
		line := step.Timestamp.Format("15:04:05") + " " + oneLine(step.Content, stepPreview)
		switch step.Type {
		case models.StepToolCall:
			b.WriteString(styles.ToolCallStyle().Render("→ "+line))
		case models.StepToolResult:
			b.WriteString(styles.ToolResultStyle().Render("← "+line))
		case models.StepThought:
			b.WriteString(styles.ThoughtStyle().Render("· "+line))
		case models.StepError:
			b.WriteString(styles.ErrorStyle().Render("✗ "+line))
		case models.StepUserInput:
			b.WriteString(styles.UserStepStyle().Render("> "+line))
		default:
			b.WriteString(styles.MutedStyle().MarginLeft(2).Render("  "+line))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func oneLine(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
