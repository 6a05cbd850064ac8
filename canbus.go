package bordo

import (
	"context"
	"sync"

	"github.com/jd3nn1s/bordo/lemoncan"
	log "github.com/sirupsen/logrus"
)

// PatternRecorder stores driving pattern samples.
type PatternRecorder interface {
	RecordDrivingPattern(speed, rpm, fuelConsumption float64)
}

// drivingData accumulates the values received since the last completed cycle.
type drivingData struct {
	Speed           float64
	RPM             float64
	FuelConsumption float64
}

type canBusRetryable struct {
	portName string
	recorder PatternRecorder

	mu   sync.Mutex
	c    CANBus
	data drivingData
}

// to allow testing
var canBusConnect = func(p string) (CANBus, error) {
	return lemoncan.Connect(p)
}

func (bus *canBusRetryable) Name() string {
	return "canbus"
}

func (bus *canBusRetryable) Open() error {
	c, err := canBusConnect(bus.portName)
	if err != nil {
		return err
	}
	bus.mu.Lock()
	bus.c = c
	bus.mu.Unlock()
	return nil
}

func (bus *canBusRetryable) Close() error {
	bus.mu.Lock()
	c := bus.c
	bus.c = nil
	bus.mu.Unlock()
	if c == nil {
		return nil
	}
	return c.Close()
}

// CANBus returns the open connection or nil when disconnected.
func (bus *canBusRetryable) CANBus() CANBus {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	return bus.c
}

func (bus *canBusRetryable) Start(ctx context.Context) error {
	c := bus.CANBus()
	if c == nil {
		return errCANNotConnected
	}
	return c.Start(ctx, lemoncan.Callbacks{
		Speed: func(v int) {
			bus.data.Speed = float64(v)
		},
		RPM: func(v int) {
			bus.data.RPM = float64(v)
		},
		// the fuel consumption frame closes an ECU cycle
		FuelConsumption: func(v int) {
			bus.data.FuelConsumption = float64(v) / 10
			bus.record()
		},
	})
}

func (bus *canBusRetryable) record() {
	if bus.recorder == nil {
		return
	}
	d := bus.data
	log.WithField("speed", d.Speed).
		WithField("rpm", d.RPM).
		WithField("fuelConsumption", d.FuelConsumption).
		Debug("recording driving pattern")
	bus.recorder.RecordDrivingPattern(d.Speed, d.RPM, d.FuelConsumption)
}

func runCAN(ctx context.Context, bus *canBusRetryable) {
	err := retry(ctx, bus, newRetryBackOff())
	if err != nil {
		log.Errorf("canbus done: %v", err)
	}
}
