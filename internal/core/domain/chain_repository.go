package domain

import "context"

type ChainRepository interface {
	// CreateDefinition persists a new chain definition.
	CreateDefinition(ctx context.Context, def *ChainDefinition) error

	// GetDefinition retrieves a chain definition by id.
	GetDefinition(ctx context.Context, id string) (*ChainDefinition, error)

	// ListDefinitions retrieves all chain definitions for a user.
	ListDefinitions(ctx context.Context, userID string) ([]*ChainDefinition, error)

	// CreateSession inserts a new active session. The write is conditional
	// on the user having no other active session; ErrSessionConflict
	// otherwise. This is the single-active-session invariant, enforced in
	// the store rather than with an external lock.
	CreateSession(ctx context.Context, session *ChainSession) error

	// GetSession retrieves a session by id.
	GetSession(ctx context.Context, id string) (*ChainSession, error)

	// GetActiveSession returns the user's active session, or
	// ErrSessionNotFound when there is none.
	GetActiveSession(ctx context.Context, userID string) (*ChainSession, error)

	// UpdateSession persists the whole session aggregate (step states,
	// index, pause bookkeeping, finalization fields) as one conditional
	// write under optimistic locking.
	UpdateSession(ctx context.Context, session *ChainSession) error

	// ListPastSessions returns terminal sessions, most recent first.
	ListPastSessions(ctx context.Context, userID string, limit int) ([]*ChainSession, error)
}
