package ports

import "context"

// EventPublisher fans audit facts out to downstream consumers. Publishing is
// synchronous and best effort: the ledger row is the source of truth, so a
// failed publish is logged by the caller and never fails the operation.
type EventPublisher interface {
	Publish(ctx context.Context, subject string, payload []byte) error
}
