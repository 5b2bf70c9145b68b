package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/Rorical/smartagent/internal/models"
	"github.com/Rorical/smartagent/ui/styles"
)

var phaseIcons = map[models.PhaseStatus]string{
	models.PhasePending:   "○",
	models.PhaseActive:    "◐",
	models.PhaseCompleted: "●",
	models.PhaseFailed:    "✗",
}

// RenderReasoning renders the phase track on one line. Nothing is shown
// before the first turn.
func RenderReasoning(track []models.ReasoningStep) string {
	if len(track) == 0 {
		return ""
	}

	parts := make([]string, 0, len(track))
	for _, phase := range track {
		label := phaseIcons[phase.Status] + " " + phase.Name
		if phase.Duration > 0 {
			label += fmt.Sprintf(" %s", phase.Duration.Round(10*time.Millisecond))
		}
		parts = append(parts, styles.PhaseStyle(phase.Status).Render(label))
	}
	return strings.Join(parts, styles.MutedStyle().Render(" › "))
}
