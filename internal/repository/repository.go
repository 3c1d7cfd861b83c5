package repository

import (
	"context"

	"github.com/utafrali/storefront/internal/domain"
)

// CartRepository persists the cart of each storefront session. Carts live no
// longer than their session.
type CartRepository interface {
	// Get retrieves the cart of a session. A missing cart yields an error
	// matching apperrors.ErrNotFound.
	Get(ctx context.Context, sessionID string) (*domain.Cart, error)

	// Save persists a cart unconditionally, overwriting any stored cart.
	Save(ctx context.Context, cart *domain.Cart) error

	// SaveIfVersion persists the cart only if the stored version still equals
	// expectedVersion (0 meaning "not stored yet"). On success cart.Version is
	// advanced to expectedVersion+1. It reports false when another writer got
	// there first.
	SaveIfVersion(ctx context.Context, cart *domain.Cart, expectedVersion int) (bool, error)

	// Delete removes the cart of a session. Deleting a missing cart is not an error.
	Delete(ctx context.Context, sessionID string) error

	// Ping checks that the store is reachable.
	Ping(ctx context.Context) error
}
