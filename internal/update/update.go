package update

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Rorical/smartagent/internal/dispatcher"
	"github.com/Rorical/smartagent/internal/models"
	"github.com/Rorical/smartagent/internal/telemetry"
)

// HandleUpdateWithEventBus routes the messages that only touch AppModel.
// Key presses are routed separately because the input box may consume them.
func HandleUpdateWithEventBus(appModel *models.AppModel, msg tea.Msg, metrics *telemetry.Service) tea.Cmd {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		HandleWindowSizeMsg(appModel, msg)
		return nil
	case TickMsg:
		var snapshot telemetry.Metrics
		if metrics != nil {
			snapshot = metrics.Metrics()
		}
		return HandleTickMsg(appModel, snapshot)
	case dispatcher.CoreEventMsg:
		return HandleCoreEvent(appModel, msg)
	}
	return nil
}
