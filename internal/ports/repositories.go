package ports

import (
	"context"

	"driver-portal/internal/domain/session"
	"driver-portal/internal/general/contracts"
)

// UnitOfWork interface is used to manage transactions across multiple repository operations.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// SessionStore persists the three session keys. A missing key reads as "".
// Implementations must be safe for concurrent use: the API client clears the
// store from a worker goroutine when the backend answers 401.
type SessionStore interface {
	Get(ctx context.Context) (session.Session, error)
	Save(ctx context.Context, s session.Session) error
	Clear(ctx context.Context) error
}

// EventPublisher publishes driver activity to the broker.
type EventPublisher interface {
	PublishPortalEvent(ctx context.Context, msg contracts.PortalEventMessage) error
}
