// Package storage defines the persistence contract for the route collection.
package storage

import (
	"context"

	"github.com/louisbranch/routekeeper/internal/services/routes/domain/route"
)

// Gateway loads the persisted routes at startup and durably records every
// collection mutation afterwards.
type Gateway interface {
	// LoadAll returns every stored route in no particular order.
	LoadAll(ctx context.Context) ([]route.Route, error)
	// Apply records one committed collection mutation.
	Apply(ctx context.Context, m route.Mutation) error
	// Flush makes every applied mutation durable. It runs once at shutdown.
	Flush(ctx context.Context) error
	Close() error
}
