package bordo

import (
	"context"

	log "github.com/sirupsen/logrus"
)

const alertQueueSize = 8

// alertQueue hands alerts to a sink on its own go-routine so a slow or hung
// sink never holds up the monitor task.
type alertQueue struct {
	sink Notifier
	ch   chan string
}

func newAlertQueue(sink Notifier) *alertQueue {
	return &alertQueue{
		sink: sink,
		ch:   make(chan string, alertQueueSize),
	}
}

func (q *alertQueue) Notify(message string) {
	select {
	case q.ch <- message:
	default:
		log.WithField("alert", message).Warn("alert queue full, dropping alert")
	}
}

// run delivers queued alerts until ctx is cancelled. A sink that never returns
// keeps this go-routine, and nothing else.
func (q *alertQueue) run(ctx context.Context) {
	for {
		select {
		case msg := <-q.ch:
			q.sink.Notify(msg)
		case <-ctx.Done():
			return
		}
	}
}
