package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/Rorical/smartagent/internal/models"
)

func InputStyle(width int, enabled bool) lipgloss.Style {
	border := lipgloss.Color("62")
	if !enabled {
		border = lipgloss.Color("240")
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1).
		Width(max(width-4, 10))
}

func StatusStyle(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")).
		Background(lipgloss.Color("235")).
		Padding(0, 1).
		Width(width)
}

func UserStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("39")).
		Border(lipgloss.NormalBorder(), false, false, false, true).
		BorderForeground(lipgloss.Color("39")).
		Padding(0, 1).
		MarginLeft(2)
}

func AssistantStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("214")).
		Border(lipgloss.NormalBorder(), false, false, false, true).
		BorderForeground(lipgloss.Color("214")).
		Padding(0, 1).
		MarginLeft(2)
}

func UserStepStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("39")).
		MarginLeft(2)
}

func TitleStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("141")).
		Bold(true)
}

func MutedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
}

func ToolCallStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("166")).
		MarginLeft(2)
}

func ToolResultStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("72")).
		MarginLeft(2)
}

func ThoughtStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")).
		Italic(true).
		MarginLeft(2)
}

func ErrorStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("196")).
		MarginLeft(2)
}

func PanelStyle(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("238")).
		Padding(0, 1).
		Width(width)
}

func DialogStyle(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(lipgloss.Color("214")).
		Padding(0, 2).
		Width(width)
}

// PhaseStyle colours a reasoning phase by status
func PhaseStyle(status models.PhaseStatus) lipgloss.Style {
	s := lipgloss.NewStyle()
	switch status {
	case models.PhaseActive:
		return s.Foreground(lipgloss.Color("214")).Bold(true)
	case models.PhaseCompleted:
		return s.Foreground(lipgloss.Color("72"))
	case models.PhaseFailed:
		return s.Foreground(lipgloss.Color("196"))
	default:
		return s.Foreground(lipgloss.Color("240"))
	}
}

func SafetyStyle(status models.SafetyStatus) lipgloss.Style {
	s := lipgloss.NewStyle().Bold(true)
	switch status {
	case models.SafetyWarning:
		return s.Foreground(lipgloss.Color("214"))
	case models.SafetyError:
		return s.Foreground(lipgloss.Color("196"))
	default:
		return s.Foreground(lipgloss.Color("72"))
	}
}
