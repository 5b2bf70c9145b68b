package components

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Rorical/smartagent/internal/device"
	"github.com/Rorical/smartagent/ui/styles"
)

// RenderDevice renders the projected glasses state
func RenderDevice(state device.State) string {
	var b strings.Builder
	b.WriteString(styles.TitleStyle().Render("Device") + styles.MutedStyle().Render(" "+string(state.Mode())))

	active := state.ActiveComponents()
	var on []string
	for _, name := range device.ComponentOrder {
		if active[name] {
			on = append(on, name)
		}
	}
	if len(on) > 0 {
		b.WriteString("\nactive: " + strings.Join(on, ", "))
	}

	if state.Music.IsPlaying || state.Music.CurrentTrack != "" {
		status := "paused"
		if state.Music.IsPlaying {
			status = "playing"
		}
		b.WriteString(fmt.Sprintf("\nmusic: %s %q vol %d", status, state.Music.CurrentTrack, state.Music.Volume))
	}
	if state.Navigation.Active {
		line := "\nnav: " + state.Navigation.Destination
		if d := state.Navigation.Distance; d != nil {
			line += fmt.Sprintf(" %.0fm", *d)
		}
		if eta := state.Navigation.ETA; eta != nil {
			line += fmt.Sprintf(" %.0fmin", *eta)
		}
		b.WriteString(line)
	}
	if state.Camera.LastPhoto != "" {
		b.WriteString("\nphoto: " + state.Camera.LastPhoto)
	}
	b.WriteString("\nbattery: " + itoa(state.Battery.Level) + "%")
	return b.String()
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

// RenderPanel frames side content
func RenderPanel(content string, width int) string {
	return styles.PanelStyle(width).Render(content)
}
