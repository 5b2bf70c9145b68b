package components

import (
	"fmt"

	"github.com/Rorical/smartagent/internal/models"
	"github.com/Rorical/smartagent/internal/telemetry"
	"github.com/Rorical/smartagent/ui/styles"
)

// RenderStatus renders the bottom bar: spinner and status on the left,
// safety and telemetry on the right
func RenderStatus(status string, loading bool, spinner string, safety models.SafetyStatus, metrics telemetry.Metrics, width int) string {
	statusContent := status
	if loading {
		statusContent = spinner + " " + status
	}

	if safety == "" {
		safety = models.SafetySafe
	}
	statusContent += "  " + styles.SafetyStyle(safety).Render(string(safety))
	statusContent += fmt.Sprintf("  api %d (%.0f%% fail)  streams %d",
		metrics.APICalls.Count,
		metrics.FailureRate()*100,
		metrics.Streams.Count,
	)

	return styles.StatusStyle(width).Render(statusContent)
}
