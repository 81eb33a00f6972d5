// internal/notify/notifier.go
package notify

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// DefaultWorkers bounds concurrent deliveries of a single broadcast.
const DefaultWorkers = 8

// Notifier fans an Action out to many recipients with bounded concurrency.
// A failing recipient never aborts delivery to the others.
type Notifier struct {
	workers int
	logger  *logrus.Logger
}

// New returns a Notifier running at most workers deliveries at once.
func New(logger *logrus.Logger, workers int) *Notifier {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Notifier{workers: workers, logger: logger}
}

// Broadcast invokes action for every recipient and returns once all
// deliveries have completed. Failures are logged and passed to
// onUnreachable, which may be nil.
func (n *Notifier) Broadcast(ctx context.Context, recipients []Recipient, action Action, onUnreachable func(Recipient)) {
	if len(recipients) == 0 || action == nil {
		return
	}

	var g errgroup.Group
	g.SetLimit(n.workers)
	for _, r := range recipients {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := deliver(r, action); err != nil {
				n.logger.WithFields(logrus.Fields{
					"session": r.SessionID,
					"error":   err,
				}).Warn("push delivery failed")
				if onUnreachable != nil {
					onUnreachable(r)
				}
			}
			return nil
		})
	}
	_ = g.Wait()
}

func deliver(r Recipient, action Action) (err error) {
	if r.Handle == nil {
		return ErrUnreachable
	}
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("push panicked: %v: %w", rec, ErrUnreachable)
		}
	}()
	return action(r.Handle)
}
