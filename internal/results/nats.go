package results

import (
	"context"
	"fmt"
	"time"

	"github.com/jason-s-yu/memorama/internal/models"
	"github.com/nats-io/nats.go"
)

// DefaultSubject is the NATS subject results are published on.
const DefaultSubject = "memorama.results"

// ConnectNATS dials the NATS server with reconnects enabled.
func ConnectNATS(url string) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.Name("memorama"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
		nats.PingInterval(20*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}
	return conn, nil
}

// NATSRecorder publishes each result as JSON on a subject.
type NATSRecorder struct {
	conn    *nats.Conn
	subject string
}

func NewNATSRecorder(conn *nats.Conn, subject string) *NATSRecorder {
	if subject == "" {
		subject = DefaultSubject
	}
	return &NATSRecorder{conn: conn, subject: subject}
}

func (n *NATSRecorder) Record(ctx context.Context, result models.MatchResult) error {
	data, err := encode(result)
	if err != nil {
		return err
	}
	if err := n.conn.Publish(n.subject, data); err != nil {
		return fmt.Errorf("failed to publish to NATS subject '%s': %w", n.subject, err)
	}
	timeout := 2 * time.Second
	if dl, ok := ctx.Deadline(); ok {
		if d := time.Until(dl); d > 0 {
			timeout = d
		}
	}
	if err := n.conn.FlushTimeout(timeout); err != nil {
		return fmt.Errorf("failed to flush NATS connection: %w", err)
	}
	return nil
}
