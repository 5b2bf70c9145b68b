package components

import (
	"strings"

	"github.com/Rorical/smartagent/internal/models"
	"github.com/Rorical/smartagent/ui/styles"
)

func RenderTodos(todos []models.TodoItem) string {
	if len(todos) == 0 {
		return ""
	}

	done := 0
	var b strings.Builder
	for _, todo := range todos {
		mark := "[ ]"
		switch todo.Status {
		case models.TodoInProgress:
			mark = "[~]"
		case models.TodoCompleted:
			mark = "[x]"
			done++
		case models.TodoCancelled:
			mark = "[-]"
		}
		b.WriteString("\n" + mark + " " + todo.Content)
	}

	title := styles.TitleStyle().Render("Todos") + styles.MutedStyle().Render(" "+itoa(done)+"/"+itoa(len(todos)))
	return title + b.String()
}
