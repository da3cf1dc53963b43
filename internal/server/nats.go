package server

import (
	"fmt"

	"github.com/charmbracelet/log"
	natsgo "github.com/nats-io/nats.go"

	"github.com/lox/pokerrooms/internal/game"
)

// natsConn is the subset of *natsgo.Conn the publisher uses.
type natsConn interface {
	Publish(subject string, data []byte) error
	Drain() error
}

// NATSPublisher fans room snapshots out to <prefix>.<code>.state so other
// services can follow rooms without holding a websocket.
type NATSPublisher struct {
	conn   natsConn
	prefix string
	logger *log.Logger
}

// NewNATSPublisher connects to the NATS server at url.
func NewNATSPublisher(url, prefix string, logger *log.Logger) (*NATSPublisher, error) {
	nc, err := natsgo.Connect(url, natsgo.Name("pokerrooms"))
	if err != nil {
		return nil, fmt.Errorf("connect to nats at %s: %w", url, err)
	}
	return newNATSPublisher(nc, prefix, logger), nil
}

func newNATSPublisher(conn natsConn, prefix string, logger *log.Logger) *NATSPublisher {
	if prefix == "" {
		prefix = "pokerrooms"
	}
	return &NATSPublisher{conn: conn, prefix: prefix, logger: logger.WithPrefix("nats")}
}

func (n *NATSPublisher) subject(code string) string {
	return fmt.Sprintf("%s.%s.state", n.prefix, code)
}

func (n *NATSPublisher) Publish(code string, state *game.GameState) {
	data, err := json.Marshal(state)
	if err != nil {
		n.logger.Error("Failed to encode snapshot", "room", code, "error", err)
		return
	}
	if err := n.conn.Publish(n.subject(code), data); err != nil {
		n.logger.Error("Failed to publish snapshot", "room", code, "error", err)
	}
}

// Close drains pending messages and closes the connection.
func (n *NATSPublisher) Close() error {
	return n.conn.Drain()
}
