package bordo

import (
	"context"
	"time"

	"github.com/jd3nn1s/bordo/lemoncan"
)

// Rand is the random source used by the sensor simulation and the alert rule.
// *rand.Rand satisfies it.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

// Notifier delivers alert messages. Delivery is fire and forget.
type Notifier interface {
	Notify(message string)
}

// Forwarder receives every record appended to the telemetry log. prevRecord is
// nil for the first record.
type Forwarder interface {
	Forward(prevRecord *TelemetryRecord, newRecord *TelemetryRecord) error
}

type CANBus interface {
	Close() error
	Start(context.Context, lemoncan.Callbacks) error
	SendCoolantTemp(float64) error
	SendInjectionTime(float64) error
	SendOverheatAlert() error
}
