package device

// State is the projected state of the AI glasses
type State struct {
	Camera           Camera
	Voice            Voice
	Music            Music
	Navigation       Navigation
	Flashlight       bool
	Video            Video
	Bluetooth        Bluetooth
	Battery          Battery
	ScreenBrightness int // 0-100
}

type Camera struct {
	Active    bool
	LastPhoto string
	Recording bool
}

type Voice struct {
	Listening bool
	Speaking  bool
	Volume    int
}

type Music struct {
	IsPlaying    bool
	CurrentTrack string
	Volume       int
	Progress     int // 0-100
}

type Navigation struct {
	Active      bool
	Destination string
	Distance    *float64 // metres
	ETA         *float64 // minutes
}

type Video struct {
	Active    bool
	Recording bool
}

type Bluetooth struct {
	Connected bool
	Devices   []string
}

type Battery struct {
	Level    int // 0-100
	Charging bool
}

func Initial() State {
	return State{
		Voice:            Voice{Volume: 50},
		Music:            Music{Volume: 50},
		Battery:          Battery{Level: 100},
		ScreenBrightness: 80,
	}
}

type Mode string

const (
	ModeIdle       Mode = "idle"
	ModeCamera     Mode = "camera"
	ModeListening  Mode = "listening"
	ModeNavigation Mode = "navigation"
	ModeProcessing Mode = "processing"
	ModeWarning    Mode = "warning"
)

// Mode picks the display mode. Priority: camera, listening, navigation,
// processing (music playing), warning (low or charging battery), idle.
func (s State) Mode() Mode {
	switch {
	case s.Camera.Active || s.Video.Active || s.Camera.Recording || s.Video.Recording:
		return ModeCamera
	case s.Voice.Listening || s.Voice.Speaking:
		return ModeListening
	case s.Navigation.Active:
		return ModeNavigation
	case s.Music.IsPlaying:
		return ModeProcessing
	case s.Battery.Level < 20 || s.Battery.Charging:
		return ModeWarning
	}
	return ModeIdle
}

// Component names reported by ActiveComponents
const (
	ComponentCamera     = "camera"
	ComponentMicrophone = "microphone"
	ComponentSpeaker    = "speaker"
	ComponentFlashlight = "flashlight"
	ComponentBluetooth  = "bluetooth"
	ComponentBattery    = "battery"
	ComponentNavigation = "navigation"
	ComponentVideo      = "video"
	ComponentScreen     = "screen"
)

// ComponentOrder is the display order of ActiveComponents keys
var ComponentOrder = []string{
	ComponentCamera, ComponentMicrophone, ComponentSpeaker, ComponentFlashlight,
	ComponentBluetooth, ComponentBattery, ComponentNavigation, ComponentVideo, ComponentScreen,
}

func (s State) ActiveComponents() map[string]bool {
	return map[string]bool{
		ComponentCamera:     s.Camera.Active || s.Video.Active,
		ComponentMicrophone: s.Voice.Listening,
		ComponentSpeaker:    s.Music.IsPlaying || s.Voice.Speaking,
		ComponentFlashlight: s.Flashlight,
		ComponentBluetooth:  s.Bluetooth.Connected,
		ComponentBattery:    s.Battery.Charging || s.Battery.Level < 20,
		ComponentNavigation: s.Navigation.Active,
		ComponentVideo:      s.Video.Recording,
		ComponentScreen:     s.ScreenBrightness > 50,
	}
}
