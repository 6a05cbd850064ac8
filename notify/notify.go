// Package notify delivers alert messages to the driver.
package notify

import (
	"context"

	"github.com/gregdel/pushover"
	log "github.com/sirupsen/logrus"
)

// Notifier matches bordo.Notifier.
type Notifier interface {
	Notify(message string)
}

// Log writes alerts to the application log.
type Log struct{}

func (Log) Notify(message string) {
	log.WithField("alert", message).Warn("vehicle alert")
}

type pushoverClient interface {
	SendMessage(*pushover.Message, *pushover.Recipient) (*pushover.Response, error)
}

const pushQueueSize = 8

// Pushover sends alerts as push notifications to the driver's phone. Messages
// are queued by Notify and sent by Start.
type Pushover struct {
	push      pushoverClient
	recipient *pushover.Recipient
	title     string
	queue     chan string
}

func NewPushover(token, user, title string) *Pushover {
	return &Pushover{
		push:      pushover.New(token),
		recipient: pushover.NewRecipient(user),
		title:     title,
		queue:     make(chan string, pushQueueSize),
	}
}

func (p *Pushover) Notify(message string) {
	select {
	case p.queue <- message:
	default:
		// if the queue is full, skip
		log.WithField("alert", message).Warn("pushover queue full, dropping notification")
	}
}

// Start sends queued notifications until ctx is cancelled.
func (p *Pushover) Start(ctx context.Context) error {
	for {
		select {
		case msg := <-p.queue:
			p.send(msg)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (p *Pushover) send(message string) {
	_, err := p.push.SendMessage(pushover.NewMessageWithTitle(message, p.title), p.recipient)
	if err != nil {
		log.WithField("err", err).Error("unable to send pushover notification")
	}
}

// Multi fans a message out to every notifier.
type Multi []Notifier

func (m Multi) Notify(message string) {
	for _, n := range m {
		n.Notify(message)
	}
}
