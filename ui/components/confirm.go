package components

import (
	"encoding/json"

	"github.com/Rorical/smartagent/internal/models"
	"github.com/Rorical/smartagent/ui/styles"
)

// RenderConfirmation renders the modal dialog for a pending tool call
func RenderConfirmation(req *models.ConfirmationRequest, width int) string {
	if req == nil {
		return ""
	}

	body := styles.TitleStyle().Render("Tool confirmation") + "\n" +
		"Tool: " + req.ToolName
	if req.ServerName != "" {
		body += " (" + req.ServerName + ")"
	}
	if len(req.Args) > 0 {
		if args, err := json.MarshalIndent(req.Args, "", "  "); err == nil {
			body += "\nArgs: " + string(args)
		}
	}
	body += "\n\n" + styles.MutedStyle().Render("[y] allow  [a] always allow  [n] deny")

	return styles.DialogStyle(min(max(width-8, 20), 80)).Render(body)
}
