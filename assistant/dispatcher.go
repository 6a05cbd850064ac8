// Package assistant answers the driver's voice and text commands.
package assistant

import (
	"fmt"
	"strings"

	"github.com/jd3nn1s/bordo"
	log "github.com/sirupsen/logrus"
)

const notUnderstood = "Sorry, I did not understand your command."

// MotorData is the view of the telemetry the assistant needs.
type MotorData interface {
	Latest() (bordo.SensorReading, bool)
}

// Rule handles a command when Match accepts its lowercased text.
type Rule struct {
	Name   string
	Match  func(command string) bool
	Handle func(command string) string
}

// Dispatcher evaluates rules in order. The first match wins.
type Dispatcher struct {
	rules []Rule
}

func NewDispatcher(rules ...Rule) *Dispatcher {
	return &Dispatcher{
		rules: rules,
	}
}

// NewAssistant returns a dispatcher with the onboard command set.
func NewAssistant(motor MotorData, vehicle *VehicleControl, kb *KnowledgeBase) *Dispatcher {
	return NewDispatcher(
		Rule{
			Name:  "engine temperature",
			Match: containsAny("engine temperature"),
			Handle: func(string) string {
				return EngineTemperature(motor)
			},
		},
		Rule{
			Name:  "stop music",
			Match: containsAll("stop", "music"),
			Handle: func(string) string {
				if !vehicle.MusicPlaying() {
					return "Spotify is already paused."
				}
				vehicle.ToggleMusic()
				return "Spotify paused."
			},
		},
		Rule{
			Name:  "music",
			Match: containsAny("spotify", "music", "play"),
			Handle: func(string) string {
				return vehicle.ToggleMusic()
			},
		},
		Rule{
			Name:  "gas station",
			Match: containsAny("gas station"),
			Handle: func(string) string {
				return fmt.Sprintf("Searching for the nearest gas station to %s...", vehicle.GPSLocation())
			},
		},
		Rule{
			Name:   "mechanics",
			Match:  containsAny("carburetor", "injection"),
			Handle: kb.QueryMechanics,
		},
		Rule{
			Name:  "lights",
			Match: containsAny("headlight", "lights"),
			Handle: func(string) string {
				return vehicle.ToggleLights()
			},
		},
		Rule{
			Name:  "camera",
			Match: containsAny("camera"),
			Handle: func(string) string {
				return vehicle.ControlCamera("record")
			},
		},
		Rule{
			Name:  "menu",
			Match: containsAny("menu", "features"),
			Handle: func(string) string {
				return "Opening the features menu..."
			},
		},
		Rule{
			Name:   "general knowledge",
			Match:  kb.HasGeneral,
			Handle: kb.QueryGeneral,
		},
	)
}

func (d *Dispatcher) Dispatch(command string) string {
	lower := strings.ToLower(command)
	for _, rule := range d.rules {
		if rule.Match(lower) {
			log.WithField("rule", rule.Name).Debug("command matched")
			return rule.Handle(lower)
		}
	}
	log.WithField("command", command).Debug("no rule matched")
	return notUnderstood
}

// EngineTemperature describes the newest coolant temperature.
func EngineTemperature(motor MotorData) string {
	reading, ok := motor.Latest()
	if !ok {
		return "The current engine temperature is unknown."
	}
	return fmt.Sprintf("The current engine temperature is %.1f°C.", reading.CoolantTempC)
}

func containsAny(keywords ...string) func(string) bool {
	return func(command string) bool {
		for _, k := range keywords {
			if strings.Contains(command, k) {
				return true
			}
		}
		return false
	}
}

func containsAll(keywords ...string) func(string) bool {
	return func(command string) bool {
		for _, k := range keywords {
			if !strings.Contains(command, k) {
				return false
			}
		}
		return true
	}
}
