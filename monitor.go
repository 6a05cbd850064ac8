package bordo

import (
	"fmt"
	"sync"
)

const (
	overheatTempC      = 100.0
	overheatConfidence = 0.3

	OverheatAlert     = "Alert: possible engine overheating detected!"
	NoFailureDetected = "No imminent failure detected."
)

// Prediction is the outcome of one failure prediction.
type Prediction struct {
	Alert   bool   `json:"alert"`
	Message string `json:"message"`
}

// AlertMonitor inspects the newest telemetry for signs of failure and keeps
// a log of driving patterns.
type AlertMonitor struct {
	telemetry *TelemetryLog
	patterns  *DrivingPatternLog
	notifier  Notifier
	rnd       Rand

	mu          sync.Mutex
	last        *Prediction
	preferences map[string]map[string]string
}

func NewAlertMonitor(telemetry *TelemetryLog, notifier Notifier, rnd Rand) *AlertMonitor {
	if rnd == nil {
		rnd = globalRand{}
	}
	return &AlertMonitor{
		telemetry:   telemetry,
		patterns:    NewDrivingPatternLog(),
		notifier:    notifier,
		rnd:         rnd,
		preferences: map[string]map[string]string{},
	}
}

// Predict applies the overheat rule. The temperature condition alone is not
// enough: each qualifying evaluation alerts with probability overheatConfidence.
func (m *AlertMonitor) Predict(r SensorReading) Prediction {
	if r.CoolantTempC > overheatTempC && m.rnd.Float64() < overheatConfidence {
		return Prediction{Alert: true, Message: OverheatAlert}
	}
	return Prediction{Message: NoFailureDetected}
}

// Tick evaluates the newest reading and notifies on alert. An empty log is a no-op.
func (m *AlertMonitor) Tick() {
	reading, ok := m.telemetry.Latest()
	if !ok {
		return
	}
	p := m.Predict(reading)

	m.mu.Lock()
	m.last = &p
	m.mu.Unlock()

	if p.Alert && m.notifier != nil {
		m.notifier.Notify(p.Message)
	}
}

// LastPrediction returns the result of the most recent evaluation. ok is false
// before the first evaluation.
func (m *AlertMonitor) LastPrediction() (p Prediction, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.last == nil {
		return p, false
	}
	return *m.last, true
}

func (m *AlertMonitor) RecordDrivingPattern(speed, rpm, fuelConsumption float64) {
	m.patterns.Append(DrivingPattern{
		Speed:           speed,
		RPM:             rpm,
		FuelConsumption: fuelConsumption,
	})
}

func (m *AlertMonitor) DrivingPatterns() *DrivingPatternLog {
	return m.patterns
}

// LearnPreference stores a preference for userID, replacing any earlier value.
func (m *AlertMonitor) LearnPreference(userID, preference, value string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefs, ok := m.preferences[userID]
	if !ok {
		prefs = map[string]string{}
		m.preferences[userID] = prefs
	}
	prefs[preference] = value
	return fmt.Sprintf("Preference '%s' set to '%s'.", preference, value)
}

// Preferences returns a copy of the preferences learned for userID.
func (m *AlertMonitor) Preferences(userID string) map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefs := make(map[string]string, len(m.preferences[userID]))
	for k, v := range m.preferences[userID] {
		prefs[k] = v
	}
	return prefs
}
