package events

import (
	"context"

	"stagegate/internal/ports"
)

// NoopPublisher is used when the events section is disabled in config.
type NoopPublisher struct{}

func NewNoopPublisher() *NoopPublisher {
	return &NoopPublisher{}
}

func (*NoopPublisher) Publish(context.Context, string, []byte) error {
	return nil
}

var _ ports.EventPublisher = (*NoopPublisher)(nil)
