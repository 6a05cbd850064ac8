package assistant

import (
	"fmt"
	"sync"
)

const defaultGPSLocation = "Latitude: -23.5505, Longitude: -46.6333 (São Paulo)"

// VehicleControl holds the state of the cabin accessories.
type VehicleControl struct {
	mu           sync.Mutex
	lightsOn     bool
	musicPlaying bool
}

func NewVehicleControl() *VehicleControl {
	return &VehicleControl{}
}

func (v *VehicleControl) ToggleLights() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.lightsOn = !v.lightsOn
	if v.lightsOn {
		return "Headlights on."
	}
	return "Headlights off."
}

func (v *VehicleControl) ToggleMusic() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.musicPlaying = !v.musicPlaying
	if v.musicPlaying {
		return "Spotify playing."
	}
	return "Spotify paused."
}

func (v *VehicleControl) LightsOn() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lightsOn
}

func (v *VehicleControl) MusicPlaying() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.musicPlaying
}

// GPSLocation is fixed until a receiver is fitted.
func (v *VehicleControl) GPSLocation() string {
	return defaultGPSLocation
}

func (v *VehicleControl) ControlCamera(action string) string {
	return fmt.Sprintf("Camera: action '%s' executed.", action)
}
