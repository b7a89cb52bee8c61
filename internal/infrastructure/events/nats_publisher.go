// Package events holds EventPublisher implementations for the audit fan-out.
package events

import (
	"context"
	"errors"
	"strings"

	"github.com/nats-io/nats.go"

	"stagegate/internal/errs"
	"stagegate/internal/ports"
)

// NATSPublisher publishes audit facts to NATS subjects under a configured
// prefix (e.g. "stagegate.signoff.approved"). Publishing is fire-and-forget;
// durability concerns belong to the ledger tables, not the stream.
type NATSPublisher struct {
	conn   *nats.Conn
	prefix string
}

func NewNATSPublisher(url string, prefix string) (*NATSPublisher, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, errors.New("nats url is required")
	}

	conn, err := nats.Connect(url, nats.Name("stagegate"))
	if err != nil {
		return nil, errs.Wrapf(err, "connect nats %q", url)
	}

	return &NATSPublisher{
		conn:   conn,
		prefix: strings.TrimSuffix(strings.TrimSpace(prefix), "."),
	}, nil
}

func (p *NATSPublisher) Publish(ctx context.Context, subject string, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}

	full := subject
	if p.prefix != "" {
		full = p.prefix + "." + subject
	}
	if err := p.conn.Publish(full, payload); err != nil {
		return errs.Wrapf(err, "publish %q", full)
	}
	return nil
}

func (p *NATSPublisher) Close() {
	p.conn.Close()
}

var _ ports.EventPublisher = (*NATSPublisher)(nil)
