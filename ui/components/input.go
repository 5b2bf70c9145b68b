package components

import (
	"github.com/Rorical/smartagent/ui/styles"
)

// RenderInput frames the input box view. A disabled box is dimmed.
func RenderInput(view string, enabled bool, width int) string {
	return styles.InputStyle(width, enabled).Render(view)
}
