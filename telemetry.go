package bordo

import (
	"time"
)

// HistoryCapacity is the number of entries kept by the telemetry and driving pattern logs.
const HistoryCapacity = 100

// SensorReading is a single sample of the engine sensors.
type SensorReading struct {
	LambdaVoltage float64 `json:"lambda_voltage"`
	CoolantTempC  float64 `json:"coolant_temp_c"`
	ThrottlePct   float64 `json:"throttle_pct"`
	ManifoldKPa   float64 `json:"manifold_kpa"`
	CrankDeg      int     `json:"crank_deg"`
	KnockDetected bool    `json:"knock_detected"`
}

type Status uint8

const (
	StatusOK Status = iota
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	}
	return "UNKNOWN"
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// TelemetryRecord is an ingested reading with its derived injection time.
// Records are never modified once appended to a TelemetryLog.
type TelemetryRecord struct {
	Timestamp   time.Time     `json:"timestamp"`
	Reading     SensorReading `json:"sensor_data"`
	InjectionMs float64       `json:"injection_time_ms"`
	Status      Status        `json:"status"`
}

type DrivingPattern struct {
	Speed           float64 `json:"speed"`
	RPM             float64 `json:"rpm"`
	FuelConsumption float64 `json:"fuel_consumption"`
}
