package events

import (
	"context"
	"time"

	"github.com/nats-io/nats.go"
)

type NATS struct {
	conn *nats.Conn
}

func ConnectNATS(url string) (*NATS, error) {
	conn, err := nats.Connect(url,
		nats.Name("picshare-api"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, err
	}
	return &NATS{conn: conn}, nil
}

func (n *NATS) Publish(_ context.Context, subject string, data []byte) error {
	return n.conn.Publish(subject, data)
}

func (n *NATS) Close() error {
	if n == nil || n.conn == nil {
		return nil
	}
	return n.conn.Drain()
}
