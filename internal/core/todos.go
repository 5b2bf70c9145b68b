package core

import (
	"fmt"

	"github.com/Rorical/smartagent/internal/models"
)

var todoTools = map[string]bool{
	"write_todos": true,
	"write_todo":  true,
}

// parseTodos extracts the todo list from a structured tool result. Items
// may carry either content or title; both are filled from whichever is set.
func parseTodos(structured any) ([]models.TodoItem, bool) {
	obj, ok := structured.(map[string]any)
	if !ok {
		return nil, false
	}
	raw, ok := obj["todos"].([]any)
	if !ok {
		return nil, false
	}

	todos := make([]models.TodoItem, 0, len(raw))
	for _, entry := range raw {
		item, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		todo := models.TodoItem{
			ID:      stringField(item, "id"),
			Content: stringField(item, "content"),
			Title:   stringField(item, "title"),
			Status:  models.TodoStatus(stringField(item, "status")),
		}
		if todo.Content == "" {
			todo.Content = todo.Title
		}
		if todo.Title == "" {
			todo.Title = todo.Content
		}
		if todo.Status == "" {
			todo.Status = models.TodoPending
		}
		todos = append(todos, todo)
	}
	return todos, true
}

func stringField(obj map[string]any, key string) string {
	switch v := obj[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return fmt.Sprintf("%g", v)
	default:
		return fmt.Sprint(v)
	}
}
