package config

import (
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

func NewNATSConnection(url string) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name("caseflow"),
		nats.MaxReconnects(5),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return nc, nil
}
