package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/repository"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// Cart operation upper-bound limits to prevent abuse.
const (
	// MaxQuantityPerLine is the largest quantity a single line may hold.
	MaxQuantityPerLine = 100
	// MaxLinesPerCart is the maximum number of distinct variants in a cart.
	MaxLinesPerCart = 50
	// DefaultMaxRetries bounds how often a mutation is replayed after losing
	// an optimistic-lock race.
	DefaultMaxRetries = 3
)

// MaxPrice is the largest unit price accepted on add.
var MaxPrice = decimal.NewFromInt(100_000)

// Operation names used in logs and metrics.
const (
	OpToggleVisibility = "toggle_visibility"
	OpAddLine          = "add_line"
	OpRemoveLine       = "remove_line"
	OpSetQuantity      = "set_quantity"
	OpChangeSize       = "change_size"
	OpClear            = "clear"
)

// AddLineInput holds the parameters for adding a variant to the cart.
type AddLineInput struct {
	ProductID int             `json:"product_id" validate:"required,gt=0"`
	Title     string          `json:"title" validate:"required,max=300"`
	Price     decimal.Decimal `json:"price"`
	Image     string          `json:"image" validate:"omitempty,max=2048"`
	Size      int             `json:"size" validate:"required,shoe_size"`
	Color     string          `json:"color" validate:"required,color_id"`
	ColorName string          `json:"color_name" validate:"omitempty,max=64"`
}

// SetQuantityInput holds the parameters for setting a line quantity.
type SetQuantityInput struct {
	Quantity int `json:"quantity"`
}

// ChangeSizeInput holds the parameters for changing a line size.
type ChangeSizeInput struct {
	Size int `json:"size" validate:"required,shoe_size"`
}

// EventPublisher publishes cart domain events.
type EventPublisher interface {
	PublishCartUpdated(ctx context.Context, cart *domain.Cart) error
	PublishCartCleared(ctx context.Context, sessionID string, version int) error
}

// CartService applies cart operations to the session's stored cart.
// Every mutation loads the cart, applies one domain operation and saves it
// under optimistic locking, replaying the operation when another request
// wrote first.
type CartService struct {
	repo       repository.CartRepository
	events     EventPublisher
	logger     *slog.Logger
	maxRetries int
	now        func() time.Time
}

// NewCartService creates a new cart service.
func NewCartService(repo repository.CartRepository, events EventPublisher, logger *slog.Logger) *CartService {
	return &CartService{
		repo:       repo,
		events:     events,
		logger:     logger,
		maxRetries: DefaultMaxRetries,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// GetCart returns the session's cart, or a new empty one when none is stored.
func (s *CartService) GetCart(ctx context.Context, sessionID string) (*domain.Cart, error) {
	if sessionID == "" {
		return nil, apperrors.InvalidInput("session id is required")
	}
	return s.load(ctx, sessionID)
}

// ToggleVisibility flips the cart panel flag.
func (s *CartService) ToggleVisibility(ctx context.Context, sessionID string) (*domain.Cart, error) {
	if sessionID == "" {
		return nil, apperrors.InvalidInput("session id is required")
	}
	return s.mutate(ctx, sessionID, OpToggleVisibility, func(c *domain.Cart) (bool, error) {
		c.ToggleVisibility()
		return true, nil
	})
}

// AddLine adds one unit of a variant and returns the cart with the
// resulting line.
func (s *CartService) AddLine(ctx context.Context, sessionID string, input AddLineInput) (*domain.Cart, domain.CartLine, error) {
	if sessionID == "" {
		return nil, domain.CartLine{}, apperrors.InvalidInput("session id is required")
	}
	if err := validateAddLine(input); err != nil {
		return nil, domain.CartLine{}, err
	}

	colorName := input.ColorName
	if colorName == "" {
		colorName = domain.ColorName(input.Color)
	}
	newLine := domain.NewLine{
		ProductID: input.ProductID,
		Title:     strings.TrimSpace(input.Title),
		Price:     input.Price,
		Image:     domain.CleanImage(input.Image),
		Size:      input.Size,
		Color:     input.Color,
		ColorName: colorName,
	}

	var line domain.CartLine
	cart, err := s.mutate(ctx, sessionID, OpAddLine, func(c *domain.Cart) (bool, error) {
		id := domain.LineIDFor(newLine.ProductID, newLine.Size, newLine.Color)
		if existing, ok := c.Line(id); ok {
			if existing.Quantity >= MaxQuantityPerLine {
				return false, apperrors.InvalidInput(fmt.Sprintf("quantity must not exceed %d", MaxQuantityPerLine))
			}
		} else if len(c.Lines) >= MaxLinesPerCart {
			return false, apperrors.InvalidInput(fmt.Sprintf("cart must not contain more than %d lines", MaxLinesPerCart))
		}
		line = c.AddLine(newLine)
		return true, nil
	})
	if err != nil {
		return nil, domain.CartLine{}, err
	}

	s.logger.InfoContext(ctx, "line added to cart",
		slog.String("line_id", line.LineID),
		slog.Int("product_id", line.ProductID),
		slog.Int("quantity", line.Quantity),
	)
	return cart, line, nil
}

// RemoveLine deletes a line. Unknown lines are a no-op.
func (s *CartService) RemoveLine(ctx context.Context, sessionID, lineID string) (*domain.Cart, error) {
	if sessionID == "" {
		return nil, apperrors.InvalidInput("session id is required")
	}
	if lineID == "" {
		return nil, apperrors.InvalidInput("line id is required")
	}
	return s.mutate(ctx, sessionID, OpRemoveLine, func(c *domain.Cart) (bool, error) {
		return c.RemoveLine(lineID), nil
	})
}

// SetQuantity sets a line quantity exactly. Quantities below 1 leave the
// cart untouched without an error; callers clamp before calling.
func (s *CartService) SetQuantity(ctx context.Context, sessionID, lineID string, quantity int) (*domain.Cart, error) {
	if sessionID == "" {
		return nil, apperrors.InvalidInput("session id is required")
	}
	if lineID == "" {
		return nil, apperrors.InvalidInput("line id is required")
	}
	if quantity > MaxQuantityPerLine {
		return nil, apperrors.InvalidInput(fmt.Sprintf("quantity must not exceed %d", MaxQuantityPerLine))
	}
	if quantity < 1 {
		s.logger.DebugContext(ctx, "ignoring quantity below 1",
			slog.String("line_id", lineID),
			slog.Int("quantity", quantity),
		)
	}
	return s.mutate(ctx, sessionID, OpSetQuantity, func(c *domain.Cart) (bool, error) {
		return c.SetQuantity(lineID, quantity), nil
	})
}

// ChangeSize moves a line to another size, merging it into an existing line
// of the same product and color when there is one. A merge that would exceed
// MaxQuantityPerLine is rejected.
func (s *CartService) ChangeSize(ctx context.Context, sessionID, lineID string, size int) (*domain.Cart, error) {
	if sessionID == "" {
		return nil, apperrors.InvalidInput("session id is required")
	}
	if lineID == "" {
		return nil, apperrors.InvalidInput("line id is required")
	}
	if !domain.ValidSize(size) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("size %d is not offered", size))
	}
	return s.mutate(ctx, sessionID, OpChangeSize, func(c *domain.Cart) (bool, error) {
		src, ok := c.Line(lineID)
		if !ok {
			return false, nil
		}
		if dst, ok := c.Line(domain.LineIDFor(src.ProductID, size, src.Color)); ok && dst.LineID != src.LineID {
			if src.Quantity+dst.Quantity > MaxQuantityPerLine {
				return false, apperrors.InvalidInput(fmt.Sprintf("merged quantity must not exceed %d", MaxQuantityPerLine))
			}
		}
		return c.ChangeSize(lineID, size), nil
	})
}

// Clear empties the cart, keeping the panel state.
func (s *CartService) Clear(ctx context.Context, sessionID string) (*domain.Cart, error) {
	if sessionID == "" {
		return nil, apperrors.InvalidInput("session id is required")
	}
	return s.mutate(ctx, sessionID, OpClear, func(c *domain.Cart) (bool, error) {
		return c.Clear(), nil
	})
}

func (s *CartService) mutate(ctx context.Context, sessionID, op string, apply func(*domain.Cart) (bool, error)) (*domain.Cart, error) {
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		cart, err := s.load(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		expectedVersion := cart.Version

		changed, err := apply(cart)
		if err != nil {
			cartOperations.WithLabelValues(op, outcomeRejected).Inc()
			return nil, err
		}
		if !changed {
			cartOperations.WithLabelValues(op, outcomeNoop).Inc()
			return cart, nil
		}

		cart.UpdatedAt = s.now()

		ok, err := s.repo.SaveIfVersion(ctx, cart, expectedVersion)
		if err != nil {
			cartOperations.WithLabelValues(op, outcomeError).Inc()
			return nil, fmt.Errorf("save cart: %w", err)
		}
		if ok {
			cartOperations.WithLabelValues(op, outcomeApplied).Inc()
			s.publish(ctx, op, cart)
			return cart, nil
		}

		s.logger.DebugContext(ctx, "cart version conflict, retrying",
			slog.String("operation", op),
			slog.Int("attempt", attempt+1),
			slog.Int("expected_version", expectedVersion),
		)
	}

	cartOperations.WithLabelValues(op, outcomeConflict).Inc()
	return nil, apperrors.Conflict("cart was modified concurrently, please retry")
}

func (s *CartService) publish(ctx context.Context, op string, cart *domain.Cart) {
	var err error
	if op == OpClear {
		err = s.events.PublishCartCleared(ctx, cart.SessionID, cart.Version)
	} else {
		err = s.events.PublishCartUpdated(ctx, cart)
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to publish cart event",
			slog.String("operation", op),
			slog.String("error", err.Error()),
		)
	}
}

// load retrieves the cart for a session, creating an empty one if it does not exist.
func (s *CartService) load(ctx context.Context, sessionID string) (*domain.Cart, error) {
	cart, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return domain.NewCart(sessionID, s.now()), nil
		}
		return nil, fmt.Errorf("get cart: %w", err)
	}
	return cart, nil
}

func validateAddLine(input AddLineInput) error {
	if input.ProductID <= 0 {
		return apperrors.InvalidInput("product id must be positive")
	}
	if strings.TrimSpace(input.Title) == "" {
		return apperrors.InvalidInput("title is required")
	}
	if input.Price.IsNegative() {
		return apperrors.InvalidInput("price must not be negative")
	}
	if input.Price.GreaterThan(MaxPrice) {
		return apperrors.InvalidInput(fmt.Sprintf("price must not exceed %s", MaxPrice))
	}
	if !domain.ValidSize(input.Size) {
		return apperrors.InvalidInput(fmt.Sprintf("size %d is not offered", input.Size))
	}
	if input.Color == "" {
		return apperrors.InvalidInput("color is required")
	}
	if !domain.ValidColorID(input.Color) {
		return apperrors.InvalidInput(fmt.Sprintf("color %q must be 1-%d characters from a-z, 0-9 and -", input.Color, domain.MaxColorIDLen))
	}
	return nil
}
