package bordo

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type TaskState int32

const (
	TaskStopped TaskState = iota
	TaskRunning
)

func (s TaskState) String() string {
	if s == TaskRunning {
		return "running"
	}
	return "stopped"
}

// periodicTask runs fn once immediately and then once per period until its
// context is cancelled.
type periodicTask struct {
	name   string
	period time.Duration
	fn     func() error
	state  atomic.Int32
}

func newPeriodicTask(name string, period time.Duration, fn func() error) *periodicTask {
	return &periodicTask{
		name:   name,
		period: period,
		fn:     fn,
	}
}

func (t *periodicTask) State() TaskState {
	return TaskState(t.state.Load())
}

func (t *periodicTask) run(ctx context.Context) error {
	t.state.Store(int32(TaskRunning))
	defer t.state.Store(int32(TaskStopped))

	ticker := time.NewTicker(t.period)
	defer ticker.Stop()

	log.WithField("task", t.name).
		WithField("period", t.period).
		Info("task started")
	for {
		select {
		case <-ctx.Done():
			log.WithField("task", t.name).Info("task stopped")
			return ctx.Err()
		default:
		}
		if err := t.tick(); err != nil {
			log.WithField("task", t.name).
				WithField("err", err).
				Warn("tick failed")
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
		}
	}
}

// tick turns a panic in fn into an error so the loop survives it.
func (t *periodicTask) tick() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("recovered from panic: %v", r)
		}
	}()
	return t.fn()
}
