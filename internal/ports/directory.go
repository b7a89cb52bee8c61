package ports

import (
	"context"
	"errors"
)

var ErrApproverNotFound = errors.New("approver not found")

// Approver is an account that may sign off artifacts. Accounts can be
// removed later; ledger rows keep their own name snapshot.
type Approver struct {
	ApproverID  string
	DisplayName string
	Email       string
	CreatedAt   string
}

// ActorDirectory resolves display names at write time.
type ActorDirectory interface {
	Lookup(ctx context.Context, approverID string) (Approver, error)
	Register(ctx context.Context, approver Approver) (Approver, error)
	Remove(ctx context.Context, approverID string) error
}
