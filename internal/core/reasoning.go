package core

import (
	"time"

	"github.com/Rorical/smartagent/internal/models"
)

// newTrack starts the reasoning track for a turn: intent is active, every
// other phase pending. All phases carry the turn start as timestamp until
// they are activated.
func newTrack(now time.Time) []models.ReasoningStep {
	track := make([]models.ReasoningStep, models.PhaseCount)
	for i, phase := range models.Phases {
		track[i] = models.ReasoningStep{
			ID:        phase.ID,
			Name:      phase.Name,
			Status:    models.PhasePending,
			Timestamp: now,
		}
	}
	track[0].Status = models.PhaseActive
	return track
}

func phaseIndex(id models.PhaseID) int {
	for i, phase := range models.Phases {
		if phase.ID == id {
			return i
		}
	}
	return -1
}

func completePhase(track []models.ReasoningStep, id models.PhaseID, now time.Time) {
	i := phaseIndex(id)
	if i < 0 || i >= len(track) {
		return
	}
	track[i].Status = models.PhaseCompleted
	track[i].Duration = now.Sub(track[i].Timestamp)
}

// activatePhase marks a phase active. A completed phase may become active
// again when the agent loops back to it.
func activatePhase(track []models.ReasoningStep, id models.PhaseID, now time.Time) {
	i := phaseIndex(id)
	if i < 0 || i >= len(track) || track[i].Status == models.PhaseActive {
		return
	}
	track[i].Status = models.PhaseActive
	track[i].Timestamp = now
	track[i].Duration = 0
}

// settleActive moves every active phase to status
func settleActive(track []models.ReasoningStep, status models.PhaseStatus, now time.Time) {
	for i := range track {
		if track[i].Status == models.PhaseActive {
			track[i].Status = status
			track[i].Duration = now.Sub(track[i].Timestamp)
		}
	}
}
