package bordo

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	DefaultSampleInterval  = 100 * time.Millisecond
	DefaultMonitorInterval = 5 * time.Second
)

// Bordo runs the sensor producer and the alert monitor against a shared telemetry log.
type Bordo struct {
	telemetry *TelemetryLog
	source    *SensorSource
	monitor   *AlertMonitor
	alerts    *alertQueue
	clock     Clock

	sampleInterval  time.Duration
	monitorInterval time.Duration

	forwarders []Forwarder
	canBus     *canBusRetryable

	// only touched by the producer task
	prevRecord *TelemetryRecord

	producer *periodicTask
	watcher  *periodicTask

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewBordo(notifier Notifier) *Bordo {
	telemetry := NewTelemetryLog()
	b := &Bordo{
		telemetry:       telemetry,
		source:          NewSensorSource(nil),
		monitor:         NewAlertMonitor(telemetry, nil, nil),
		clock:           realClock{},
		sampleInterval:  DefaultSampleInterval,
		monitorInterval: DefaultMonitorInterval,
	}
	if notifier != nil {
		b.alerts = newAlertQueue(notifier)
		b.monitor.notifier = b.alerts
	}
	b.producer = newPeriodicTask("producer", b.sampleInterval, b.sample)
	b.watcher = newPeriodicTask("monitor", b.monitorInterval, b.check)
	return b
}

// SetIntervals changes the task cadences. It must be called before Start.
func (b *Bordo) SetIntervals(sample, monitor time.Duration) {
	b.sampleInterval = sample
	b.monitorInterval = monitor
	b.producer.period = sample
	b.watcher.period = monitor
}

// AddForwarder registers a forwarder. It must be called before Start.
func (b *Bordo) AddForwarder(fwd Forwarder) {
	b.forwarders = append(b.forwarders, fwd)
}

// EnableCAN connects to the CAN interface on Start. Driving pattern frames are
// recorded and the returned forwarder is registered for telemetry.
func (b *Bordo) EnableCAN(portName string) *CANForwarder {
	b.canBus = &canBusRetryable{
		portName: portName,
		recorder: b.monitor,
	}
	fwd := &CANForwarder{
		canBus: b.canBus,
	}
	b.AddForwarder(fwd)
	return fwd
}

// Start launches the tasks. They run until ctx is cancelled or Stop is called.
// Alerts are delivered on a separate go-routine that Stop does not wait for.
func (b *Bordo) Start(ctx context.Context) {
	ctx, b.cancel = context.WithCancel(ctx)

	if b.alerts != nil {
		go b.alerts.run(ctx)
	}

	b.wg.Add(2)
	go func() {
		defer b.wg.Done()
		_ = b.producer.run(ctx)
	}()
	go func() {
		defer b.wg.Done()
		_ = b.watcher.run(ctx)
	}()

	if b.canBus != nil {
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			runCAN(ctx, b.canBus)
		}()
	}
}

// Stop cancels the tasks and waits for them to return.
func (b *Bordo) Stop() {
	if b.cancel != nil {
		b.cancel()
	}
	b.wg.Wait()
}

// Wait blocks until every task has returned.
func (b *Bordo) Wait() {
	b.wg.Wait()
}

func (b *Bordo) sample() error {
	reading := b.source.Produce()
	rec := TelemetryRecord{
		Timestamp:   b.clock.Now(),
		Reading:     reading,
		InjectionMs: EstimateInjection(reading),
		Status:      StatusOK,
	}
	b.telemetry.Append(rec)

	for _, fwd := range b.forwarders {
		if err := fwd.Forward(b.prevRecord, &rec); err != nil {
			log.WithField("err", err).Warn("unable to forward telemetry")
		}
	}
	b.prevRecord = &rec
	return nil
}

func (b *Bordo) check() error {
	b.monitor.Tick()
	return nil
}

func (b *Bordo) Latest() (SensorReading, bool) {
	return b.telemetry.Latest()
}

func (b *Bordo) LastPrediction() (Prediction, bool) {
	return b.monitor.LastPrediction()
}

func (b *Bordo) RecordDrivingPattern(speed, rpm, fuelConsumption float64) {
	b.monitor.RecordDrivingPattern(speed, rpm, fuelConsumption)
}

func (b *Bordo) LearnPreference(userID, preference, value string) string {
	return b.monitor.LearnPreference(userID, preference, value)
}

func (b *Bordo) Preferences(userID string) map[string]string {
	return b.monitor.Preferences(userID)
}

func (b *Bordo) Telemetry() *TelemetryLog {
	return b.telemetry
}

func (b *Bordo) DrivingPatterns() *DrivingPatternLog {
	return b.monitor.DrivingPatterns()
}

func (b *Bordo) ProducerState() TaskState {
	return b.producer.State()
}

func (b *Bordo) MonitorState() TaskState {
	return b.watcher.State()
}
