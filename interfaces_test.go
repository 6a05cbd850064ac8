package bordo

import (
	"context"
	"sync"
	"time"

	"github.com/jd3nn1s/bordo/lemoncan"
)

type sensorStub struct {
	startChan chan struct{}
	errChan   chan error
	fnChan    chan func()
}

type canBusStub struct {
	sensorStub
	mu            sync.Mutex
	coolantTemps  []float64
	injectionMs   []float64
	overheatCount int
	callbacks     lemoncan.Callbacks
}

func createSensorStub() *sensorStub {
	ret := sensorStub{
		startChan: make(chan struct{}, 1),
		errChan:   make(chan error),
		fnChan:    make(chan func()),
	}
	return &ret
}

func (s *sensorStub) Close() error {
	return nil
}

func (s *sensorStub) start(ctx context.Context) error {
	select {
	case s.startChan <- struct{}{}:
	default:
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-s.errChan:
			return err
		case fn := <-s.fnChan:
			fn()
		}
	}
}

func createCANBusStub() *canBusStub {
	return &canBusStub{
		sensorStub: *createSensorStub(),
	}
}

func (c *canBusStub) Start(ctx context.Context, callbacks lemoncan.Callbacks) error {
	c.callbacks = callbacks
	return c.sensorStub.start(ctx)
}

func (c *canBusStub) SendCoolantTemp(v float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.coolantTemps = append(c.coolantTemps, v)
	return nil
}

func (c *canBusStub) SendInjectionTime(v float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.injectionMs = append(c.injectionMs, v)
	return nil
}

func (c *canBusStub) SendOverheatAlert() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.overheatCount++
	return nil
}

type forwarderStub struct {
	mu   sync.Mutex
	prev []*TelemetryRecord
	recs []TelemetryRecord
}

func (fwd *forwarderStub) Forward(prevRecord *TelemetryRecord, newRecord *TelemetryRecord) error {
	fwd.mu.Lock()
	defer fwd.mu.Unlock()
	fwd.prev = append(fwd.prev, prevRecord)
	fwd.recs = append(fwd.recs, *newRecord)
	return nil
}

func (fwd *forwarderStub) count() int {
	fwd.mu.Lock()
	defer fwd.mu.Unlock()
	return len(fwd.recs)
}

type notifierStub struct {
	mu       sync.Mutex
	messages []string
}

func (n *notifierStub) Notify(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, message)
}

func (n *notifierStub) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.messages)
}

func (n *notifierStub) snapshot() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.messages...)
}

// blockingNotifier never returns from Notify.
type blockingNotifier struct {
	called chan struct{}
}

func (n *blockingNotifier) Notify(message string) {
	select {
	case n.called <- struct{}{}:
	default:
	}
	select {}
}

// scriptedRand replays fixed values, cycling when exhausted.
type scriptedRand struct {
	floats []float64
	ints   []int
	fi, ii int
}

func (r *scriptedRand) Float64() float64 {
	v := r.floats[r.fi%len(r.floats)]
	r.fi++
	return v
}

func (r *scriptedRand) Intn(n int) int {
	v := r.ints[r.ii%len(r.ints)]
	r.ii++
	if v >= n {
		return n - 1
	}
	return v
}

type fakeClock struct {
	mu          sync.Mutex
	currentTime time.Time
}

func (fc *fakeClock) Now() time.Time {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.currentTime = fc.currentTime.Add(time.Millisecond)
	return fc.currentTime
}
