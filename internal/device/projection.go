package device

import (
	"strings"

	"github.com/Rorical/smartagent/internal/models"
)

// Apply merges one tool execution into state. Executing calls update
// optimistically from their arguments; successful calls update from their
// result. Failed calls and unknown tools leave state unchanged. Fields
// missing from the source keep their previous value.
func Apply(state State, exec models.ToolExecution) State {
	result, _ := exec.Result.(map[string]any)
	success := exec.Status == models.ExecutionSuccess && exec.Result != nil
	executing := exec.Status == models.ExecutionExecuting
	if !success && !executing {
		return state
	}

	src := exec.Args
	if success {
		src = result
	}
	action, _ := exec.Args["action"].(string)

	switch strings.ToLower(exec.ToolName) {
	case "music_player":
		if success {
			setBool(&state.Music.IsPlaying, src, "isPlaying")
			setString(&state.Music.CurrentTrack, src, "currentTrack")
		} else {
			switch action {
			case "play":
				state.Music.IsPlaying = true
			case "pause", "stop":
				state.Music.IsPlaying = false
			}
			setString(&state.Music.CurrentTrack, src, "track")
		}
		setInt(&state.Music.Volume, src, "volume")

	case "camera":
		if success {
			setBool(&state.Camera.Active, src, "active")
			setBool(&state.Camera.Recording, src, "recording")
			setString(&state.Camera.LastPhoto, src, "lastPhoto")
		} else {
			switch action {
			case "start_recording":
				state.Camera.Active, state.Camera.Recording = true, true
			case "stop_recording":
				state.Camera.Active, state.Camera.Recording = false, false
			}
		}

	case "flashlight":
		setBool(&state.Flashlight, src, "state")

	case "voice":
		setBool(&state.Voice.Listening, src, "listening")
		setBool(&state.Voice.Speaking, src, "speaking")
		setInt(&state.Voice.Volume, src, "volume")

	case "navigation":
		setBool(&state.Navigation.Active, src, "active")
		setString(&state.Navigation.Destination, src, "destination")
		setFloat(&state.Navigation.Distance, src, "distance")
		setFloat(&state.Navigation.ETA, src, "eta")
	}
	return state
}

// Project folds executions, oldest first, onto initial
func Project(initial State, executions []models.ToolExecution) State {
	state := initial
	for _, exec := range executions {
		state = Apply(state, exec)
	}
	return state
}

func setBool(dst *bool, src map[string]any, key string) {
	if v, ok := src[key].(bool); ok {
		*dst = v
	}
}

func setString(dst *string, src map[string]any, key string) {
	if v, ok := src[key].(string); ok {
		*dst = v
	}
}

func setInt(dst *int, src map[string]any, key string) {
	switch v := src[key].(type) {
	case float64:
		*dst = int(v)
	case int:
		*dst = v
	}
}

func setFloat(dst **float64, src map[string]any, key string) {
	switch v := src[key].(type) {
	case float64:
		*dst = &v
	case int:
		f := float64(v)
		*dst = &f
	}
}
