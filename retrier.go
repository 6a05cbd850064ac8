package bordo

import (
	"context"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// to allow testing
var newRetryBackOff = func() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.MaxInterval = 30 * time.Second
	// keep reconnecting for as long as the process runs
	b.MaxElapsedTime = 0
	return b
}

type Retryable interface {
	Open() error
	Close() error
	Start(ctx context.Context) error
	Name() string
}

// retry keeps r open and started until ctx is done, backing off between failed attempts.
func retry(ctx context.Context, r Retryable, b backoff.BackOff) error {
	errStarting := errors.New("starting")
	err := errStarting
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err != nil {
			if err != errStarting {
				log.WithField("err", err).Errorf("%s: reconnecting due to error", r.Name())
				if cerr := r.Close(); cerr != nil {
					log.WithField("err", cerr).Warnf("%s: unable to close", r.Name())
				}
				delay := b.NextBackOff()
				if delay == backoff.Stop {
					return errors.Wrapf(err, "%s: giving up", r.Name())
				}
				select {
				case <-time.After(delay):
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			if err = r.Open(); err != nil {
				continue
			}
			b.Reset()
		}
		err = r.Start(ctx)
	}
}
