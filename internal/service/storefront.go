package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/utafrali/storefront/internal/catalog"
	"github.com/utafrali/storefront/internal/domain"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/pagination"
)

// StorefrontConfig holds the catalog rows the product pages use.
type StorefrontConfig struct {
	RelatedCategoryID int
	RelatedLimit      int
}

// DefaultStorefrontConfig matches the "you may also like" row.
func DefaultStorefrontConfig() StorefrontConfig {
	return StorefrontConfig{
		RelatedCategoryID: 4,
		RelatedLimit:      8,
	}
}

// ProductQuery selects one page of the product listing.
type ProductQuery struct {
	CategoryID *int
	Page       pagination.Params
}

// ProductDetail is everything the product page renders.
type ProductDetail struct {
	Product domain.Product   `json:"product"`
	Gallery []string         `json:"gallery"`
	Sizes   []int            `json:"sizes"`
	Colors  []domain.Color   `json:"colors"`
	Related []domain.Product `json:"related"`
}

// CategoryView is a category with its display name.
type CategoryView struct {
	domain.Category
	DisplayName string `json:"display_name"`
}

// AddProductInput selects the variant to add from a product card or the
// product page. Zero values pick the defaults.
type AddProductInput struct {
	Size  int    `json:"size" validate:"omitempty,shoe_size"`
	Color string `json:"color" validate:"omitempty,color_id"`
}

// StorefrontService serves the read side of the storefront and the
// add-to-cart action of product pages.
type StorefrontService struct {
	catalog catalog.Gateway
	shelves *catalog.Shelves
	carts   *CartService
	cfg     StorefrontConfig
	logger  *slog.Logger
}

// NewStorefrontService creates a new storefront service.
func NewStorefrontService(gw catalog.Gateway, shelves *catalog.Shelves, carts *CartService, cfg StorefrontConfig, logger *slog.Logger) *StorefrontService {
	return &StorefrontService{
		catalog: gw,
		shelves: shelves,
		carts:   carts,
		cfg:     cfg,
		logger:  logger,
	}
}

// ListProducts returns one page of products as a fetch State. The error is
// the cause of an error state, for status mapping and logs.
func (s *StorefrontService) ListProducts(ctx context.Context, q ProductQuery) (catalog.State[pagination.Result[domain.Product]], error) {
	products, err := s.catalog.ListProducts(ctx, catalog.Filter{
		CategoryID: q.CategoryID,
		Offset:     q.Page.Offset,
		Limit:      q.Page.Limit(),
	})
	if err != nil {
		s.logFetchError(ctx, "list products", err)
		return catalog.Failed[pagination.Result[domain.Product]](catalog.ListMessages.ErrorMessage(err)), err
	}
	if len(products) == 0 {
		return catalog.Empty[pagination.Result[domain.Product]](catalog.ListMessages.Empty), nil
	}
	return catalog.Ready(pagination.NewResult(products, q.Page)), nil
}

// ProductDetail fetches a product and its related row concurrently. A
// failing related row leaves Related empty instead of failing the page.
func (s *StorefrontService) ProductDetail(ctx context.Context, id int) (catalog.State[ProductDetail], error) {
	if id <= 0 {
		err := apperrors.InvalidInput("product id must be positive")
		return catalog.Failed[ProductDetail](catalog.ProductMessages.ErrorMessage(err)), err
	}

	var (
		product *domain.Product
		related []domain.Product
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.catalog.GetProduct(gctx, id)
		if err != nil {
			return err
		}
		product = p
		return nil
	})
	g.Go(func() error {
		rel, err := s.catalog.ListProducts(gctx, catalog.InCategory(s.cfg.RelatedCategoryID, 0, s.cfg.RelatedLimit))
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				s.logger.WarnContext(ctx, "related products unavailable",
					slog.Int("product_id", id),
					slog.String("error", err.Error()),
				)
			}
			return nil
		}
		related = rel
		return nil
	})

	if err := g.Wait(); err != nil {
		s.logFetchError(ctx, "get product "+strconv.Itoa(id), err)
		return catalog.Failed[ProductDetail](catalog.ProductMessages.ErrorMessage(err)), err
	}
	if product == nil {
		return catalog.Empty[ProductDetail](catalog.ProductMessages.Empty), nil
	}

	others := make([]domain.Product, 0, len(related))
	for _, p := range related {
		if p.ID != product.ID {
			others = append(others, p)
		}
	}

	return catalog.Ready(ProductDetail{
		Product: *product,
		Gallery: product.Gallery(domain.GallerySize),
		Sizes:   domain.Sizes,
		Colors:  domain.Colors,
		Related: others,
	}), nil
}

// Categories lists the catalog categories with display names.
func (s *StorefrontService) Categories(ctx context.Context) (catalog.State[[]CategoryView], error) {
	categories, err := s.catalog.ListCategories(ctx)
	if err != nil {
		s.logFetchError(ctx, "list categories", err)
		return catalog.Failed[[]CategoryView](catalog.ListMessages.ErrorMessage(err)), err
	}
	if len(categories) == 0 {
		return catalog.Empty[[]CategoryView]("No categories found."), nil
	}

	views := make([]CategoryView, len(categories))
	for i, c := range categories {
		views[i] = CategoryView{Category: c, DisplayName: c.DisplayName()}
	}
	return catalog.Ready(views), nil
}

// Shelf returns the current State of a named shelf.
func (s *StorefrontService) Shelf(name string) (any, error) {
	return s.shelves.Snapshot(name)
}

// RetryShelf re-issues the request behind a named shelf.
func (s *StorefrontService) RetryShelf(ctx context.Context, name string) error {
	return s.shelves.Retry(ctx, name)
}

// AddProductToCart adds a catalog product to the session cart using the
// selected variant, or size 38 in navy when none is given.
func (s *StorefrontService) AddProductToCart(ctx context.Context, sessionID string, productID int, input AddProductInput) (*domain.Cart, domain.CartLine, error) {
	if sessionID == "" {
		return nil, domain.CartLine{}, apperrors.InvalidInput("session id is required")
	}
	if productID <= 0 {
		return nil, domain.CartLine{}, apperrors.InvalidInput("product id must be positive")
	}

	size := input.Size
	if size == 0 {
		size = domain.DefaultSize
	}
	color := input.Color
	if color == "" {
		color = domain.DefaultColor
	}

	product, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return nil, domain.CartLine{}, err
	}

	return s.carts.AddLine(ctx, sessionID, AddLineInput{
		ProductID: product.ID,
		Title:     product.Title,
		Price:     product.Price,
		Image:     product.PrimaryImage(),
		Size:      size,
		Color:     color,
		ColorName: domain.ColorName(color),
	})
}

func (s *StorefrontService) logFetchError(ctx context.Context, what string, err error) {
	if errors.Is(err, apperrors.ErrNotFound) || errors.Is(err, context.Canceled) {
		return
	}
	s.logger.WarnContext(ctx, "catalog fetch failed",
		slog.String("fetch", what),
		slog.String("error", err.Error()),
	)
}
