package memory

import (
	"context"
	"sync"
	"time"

	"github.com/utafrali/storefront/internal/domain"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

type entry struct {
	cart      *domain.Cart
	expiresAt time.Time
}

// CartRepository is an in-process repository.CartRepository for local runs
// and tests. Entries expire after ttl like their Redis counterparts.
type CartRepository struct {
	mu    sync.Mutex
	carts map[string]entry
	ttl   time.Duration
	now   func() time.Time
}

// NewCartRepository creates an empty in-memory repository. A zero ttl keeps
// carts until the process exits.
func NewCartRepository(ttl time.Duration) *CartRepository {
	return &CartRepository{
		carts: make(map[string]entry),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Get returns a copy of the stored cart.
func (r *CartRepository) Get(_ context.Context, sessionID string) (*domain.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.lookup(sessionID)
	if !ok {
		return nil, apperrors.NotFound("cart", sessionID)
	}
	return e.cart.Clone(), nil
}

// Save stores a copy of the cart.
func (r *CartRepository) Save(_ context.Context, cart *domain.Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.store(cart.Clone())
	return nil
}

// SaveIfVersion stores the cart when the stored version matches.
func (r *CartRepository) SaveIfVersion(_ context.Context, cart *domain.Cart, expectedVersion int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current := 0
	if e, ok := r.lookup(cart.SessionID); ok {
		current = e.cart.Version
	}
	if current != expectedVersion {
		return false, nil
	}

	cart.Version = expectedVersion + 1
	r.store(cart.Clone())
	return true, nil
}

// Delete removes the cart if present.
func (r *CartRepository) Delete(_ context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.carts, sessionID)
	return nil
}

// Ping always succeeds.
func (r *CartRepository) Ping(context.Context) error {
	return nil
}

func (r *CartRepository) lookup(sessionID string) (entry, bool) {
	e, ok := r.carts[sessionID]
	if !ok {
		return entry{}, false
	}
	if !e.expiresAt.IsZero() && !r.now().Before(e.expiresAt) {
		delete(r.carts, sessionID)
		return entry{}, false
	}
	return e, true
}

func (r *CartRepository) store(cart *domain.Cart) {
	e := entry{cart: cart}
	if r.ttl > 0 {
		e.expiresAt = r.now().Add(r.ttl)
	}
	r.carts[cart.SessionID] = e
}
