package notify_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jason-s-yu/memorama/internal/models"
	"github.com/jason-s-yu/memorama/internal/notify"
	"github.com/jason-s-yu/memorama/internal/notify/notifytest"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	logger, _ := test.NewNullLogger()
	return logger
}

func recipients(clients ...*notifytest.Client) []notify.Recipient {
	out := make([]notify.Recipient, len(clients))
	for i, c := range clients {
		out[i] = notify.Recipient{SessionID: string(rune('a' + i)), Handle: c}
	}
	return out
}

func chat(text string) notify.Action {
	return func(h notify.ClientHandle) error { return h.ChatMessage("system", text, true) }
}

func TestBroadcastReachesEveryone(t *testing.T) {
	a, b, c := notifytest.NewClient(), notifytest.NewClient(), notifytest.NewClient()
	n := notify.New(quietLogger(), 2)

	n.Broadcast(context.Background(), recipients(a, b, c), chat("hi"), nil)

	for _, cl := range []*notifytest.Client{a, b, c} {
		ev, ok := cl.Last("chat_message")
		require.True(t, ok)
		assert.Equal(t, "hi", ev.Text)
	}
}

func TestBroadcastIsolatesFailures(t *testing.T) {
	a, b, c := notifytest.NewClient(), notifytest.NewClient(), notifytest.NewClient()
	b.SetFail(true)
	logger, hook := test.NewNullLogger()
	n := notify.New(logger, 4)

	var mu sync.Mutex
	var lost []string
	n.Broadcast(context.Background(), recipients(a, b, c), chat("x"), func(r notify.Recipient) {
		mu.Lock()
		lost = append(lost, r.SessionID)
		mu.Unlock()
	})

	assert.Equal(t, []string{"b"}, lost)
	assert.Equal(t, 1, a.Count("chat_message"))
	assert.Equal(t, 0, b.Count("chat_message"))
	assert.Equal(t, 1, c.Count("chat_message"))
	require.NotEmpty(t, hook.Entries)
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

func TestBroadcastRecoversPanickingHandle(t *testing.T) {
	a := notifytest.NewClient()
	n := notify.New(quietLogger(), 1)
	var lost atomic.Int32

	boom := func(h notify.ClientHandle) error {
		if h == notify.ClientHandle(a) {
			panic("broken pipe")
		}
		return nil
	}
	rs := append(recipients(a), notify.Recipient{SessionID: "nil-handle"})
	n.Broadcast(context.Background(), rs, boom, func(notify.Recipient) { lost.Add(1) })

	assert.Equal(t, int32(2), lost.Load())
}

type slowClient struct {
	*notifytest.Client
	inFlight *atomic.Int32
	peak     *atomic.Int32
}

func (s slowClient) ChatMessage(sender, text string, system bool) error {
	cur := s.inFlight.Add(1)
	for {
		p := s.peak.Load()
		if cur <= p || s.peak.CompareAndSwap(p, cur) {
			break
		}
	}
	time.Sleep(10 * time.Millisecond)
	s.inFlight.Add(-1)
	return nil
}

func TestBroadcastBoundsConcurrency(t *testing.T) {
	var inFlight, peak atomic.Int32
	var rs []notify.Recipient
	for i := 0; i < 12; i++ {
		rs = append(rs, notify.Recipient{
			SessionID: string(rune('a' + i)),
			Handle:    slowClient{Client: notifytest.NewClient(), inFlight: &inFlight, peak: &peak},
		})
	}
	n := notify.New(quietLogger(), 3)
	n.Broadcast(context.Background(), rs, chat("x"), nil)

	assert.LessOrEqual(t, peak.Load(), int32(3))
	assert.Equal(t, int32(0), inFlight.Load())
}

func TestOutboxPreservesOrder(t *testing.T) {
	a, b := notifytest.NewClient(), notifytest.NewClient()
	n := notify.New(quietLogger(), 2)
	o := notify.NewOutbox(n, func() []notify.Recipient { return recipients(a, b) }, nil)

	for i := 0; i < 50; i++ {
		o.Enqueue(func(h notify.ClientHandle) error { return h.CardRevealed(i, "owl") })
	}
	o.Flush()

	for _, cl := range []*notifytest.Client{a, b} {
		evs := cl.Events()
		require.Len(t, evs, 50)
		for i, ev := range evs {
			assert.Equal(t, i, ev.Index)
		}
	}

	o.Close()
	o.Enqueue(chat("late"))
	select {
	case <-o.Done():
	case <-time.After(time.Second):
		t.Fatal("outbox did not stop")
	}
	assert.Equal(t, 0, a.Count("chat_message"))
}

func TestOutboxReportsUnreachable(t *testing.T) {
	a := notifytest.NewClient()
	a.SetFail(true)
	lost := make(chan string, 1)
	n := notify.New(quietLogger(), 1)
	o := notify.NewOutbox(n, func() []notify.Recipient { return recipients(a) }, func(r notify.Recipient) {
		lost <- r.SessionID
	})
	defer o.Close()

	o.Enqueue(func(h notify.ClientHandle) error { return h.RosterUpdated([]models.RosterEntry{}) })
	select {
	case id := <-lost:
		assert.Equal(t, "a", id)
	case <-time.After(time.Second):
		t.Fatal("unreachable callback not invoked")
	}
}
