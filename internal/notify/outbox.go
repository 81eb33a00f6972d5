// internal/notify/outbox.go
package notify

import (
	"context"
	"sync"
)

// Outbox serializes broadcasts for one lobby. Producers enqueue while holding
// their own state lock; a single goroutine delivers in enqueue order, so a
// client sees events in the order they were issued.
type Outbox struct {
	notifier      *Notifier
	resolve       func() []Recipient
	onUnreachable func(Recipient)

	mu      sync.Mutex
	pending []Action
	closed  bool
	busy    bool
	idle    *sync.Cond

	wake chan struct{}
	done chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
}

// NewOutbox starts the delivery goroutine. resolve is called before each
// delivery to obtain the current recipients.
func NewOutbox(n *Notifier, resolve func() []Recipient, onUnreachable func(Recipient)) *Outbox {
	ctx, cancel := context.WithCancel(context.Background())
	o := &Outbox{
		notifier:      n,
		resolve:       resolve,
		onUnreachable: onUnreachable,
		wake:          make(chan struct{}, 1),
		done:          make(chan struct{}),
		ctx:           ctx,
		cancel:        cancel,
	}
	o.idle = sync.NewCond(&o.mu)
	go o.run()
	return o
}

// Enqueue schedules actions for delivery. It never blocks on I/O. Actions
// enqueued after Close are dropped.
func (o *Outbox) Enqueue(actions ...Action) {
	if len(actions) == 0 {
		return
	}
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.pending = append(o.pending, actions...)
	o.mu.Unlock()

	select {
	case o.wake <- struct{}{}:
	default:
	}
}

// Close stops accepting actions. Already queued actions are still delivered
// to whoever resolve returns. Close does not wait.
func (o *Outbox) Close() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.closed = true
	o.mu.Unlock()

	select {
	case o.wake <- struct{}{}:
	default:
	}
}

// Done is closed once the delivery goroutine has exited.
func (o *Outbox) Done() <-chan struct{} {
	return o.done
}

// Flush blocks until every action enqueued so far has been delivered.
func (o *Outbox) Flush() {
	o.mu.Lock()
	defer o.mu.Unlock()
	for len(o.pending) > 0 || o.busy {
		o.idle.Wait()
	}
}

func (o *Outbox) run() {
	defer close(o.done)
	defer o.cancel()

	for {
		o.mu.Lock()
		batch := o.pending
		o.pending = nil
		closed := o.closed
		o.busy = len(batch) > 0
		if !o.busy {
			o.idle.Broadcast()
		}
		o.mu.Unlock()

		if len(batch) == 0 {
			if closed {
				return
			}
			<-o.wake
			continue
		}

		for _, action := range batch {
			o.notifier.Broadcast(o.ctx, o.resolve(), action, o.onUnreachable)
		}
	}
}
