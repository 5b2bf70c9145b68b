package components

import (
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/Rorical/smartagent/internal/models"
	"github.com/Rorical/smartagent/ui/styles"
)

// RenderMessages renders the conversation. Assistant replies are rendered
// as markdown when md is set; plain text is the fallback.
func RenderMessages(messages []models.Message, md *glamour.TermRenderer) string {
	var b strings.Builder

	userStyle := styles.UserStyle()
	assistantStyle := styles.AssistantStyle()

	for _, msg := range messages {
		switch msg.Role {
		case models.RoleUser:
			b.WriteString(userStyle.Render("You: "+msg.Content) + "\n\n")
		case models.RoleAssistant:
			if msg.Content == "" {
				continue
			}
			b.WriteString(assistantStyle.Render(renderMarkdown(md, msg.Content)) + "\n\n")
		}
	}

	return b.String()
}

func renderMarkdown(md *glamour.TermRenderer, content string) string {
	if md == nil {
		return content
	}
	out, err := md.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimSpace(out)
}
