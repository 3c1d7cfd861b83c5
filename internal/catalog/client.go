package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/utafrali/storefront/internal/domain"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/httpclient"
	"github.com/utafrali/storefront/pkg/tracing"
)

const (
	serviceName = "catalog"
	tracerName  = "github.com/utafrali/storefront/internal/catalog"
)

// Gateway is the read-only product catalog the storefront renders from.
type Gateway interface {
	ListProducts(ctx context.Context, filter Filter) ([]domain.Product, error)
	GetProduct(ctx context.Context, id int) (*domain.Product, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
}

// Filter narrows a product listing. A nil CategoryID lists every category.
type Filter struct {
	CategoryID *int
	Offset     int
	Limit      int
}

// InCategory is a convenience for building a category filter.
func InCategory(categoryID, offset, limit int) Filter {
	return Filter{CategoryID: &categoryID, Offset: offset, Limit: limit}
}

func (f Filter) query() url.Values {
	q := url.Values{}
	if f.CategoryID != nil {
		q.Set("categoryId", strconv.Itoa(*f.CategoryID))
	}
	q.Set("offset", strconv.Itoa(f.Offset))
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	return q
}

// CircuitOpenFallback answers requests rejected by an open breaker with a
// structured error instead of the raw gobreaker one.
func CircuitOpenFallback(_ context.Context, _ error) (*http.Response, error) {
	return nil, apperrors.ServiceUnavailable("catalog is temporarily unavailable, please retry shortly")
}

// Client talks to the remote catalog API over HTTP.
type Client struct {
	baseURL string
	http    httpclient.Doer
	logger  *slog.Logger
	tracer  trace.Tracer
}

// NewClient creates a catalog client. doer is normally a
// *httpclient.CircuitBreakerClient.
func NewClient(baseURL string, doer httpclient.Doer, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    doer,
		logger:  logger,
		tracer:  tracing.Tracer(tracerName),
	}
}

// ListProducts returns one page of products.
func (c *Client) ListProducts(ctx context.Context, filter Filter) ([]domain.Product, error) {
	ctx, span := c.tracer.Start(ctx, "catalog.ListProducts", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.Int("catalog.offset", filter.Offset),
		attribute.Int("catalog.limit", filter.Limit),
	)
	if filter.CategoryID != nil {
		span.SetAttributes(attribute.Int("catalog.category_id", *filter.CategoryID))
	}

	var products []domain.Product
	if err := c.get(ctx, "/products?"+filter.query().Encode(), &products); err != nil {
		recordError(span, err)
		return nil, err
	}

	for i := range products {
		normalizeProduct(&products[i])
	}
	span.SetAttributes(attribute.Int("catalog.results", len(products)))
	return products, nil
}

// GetProduct returns a single product. A missing product yields an error
// matching apperrors.ErrNotFound.
func (c *Client) GetProduct(ctx context.Context, id int) (*domain.Product, error) {
	ctx, span := c.tracer.Start(ctx, "catalog.GetProduct", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(attribute.Int("catalog.product_id", id))

	var product domain.Product
	if err := c.get(ctx, "/products/"+strconv.Itoa(id), &product); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("product", strconv.Itoa(id))
		}
		recordError(span, err)
		return nil, err
	}

	normalizeProduct(&product)
	return &product, nil
}

// ListCategories returns every category.
func (c *Client) ListCategories(ctx context.Context) ([]domain.Category, error) {
	ctx, span := c.tracer.Start(ctx, "catalog.ListCategories", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	var categories []domain.Category
	if err := c.get(ctx, "/categories", &categories); err != nil {
		recordError(span, err)
		return nil, err
	}

	for i := range categories {
		categories[i].Image = domain.CleanImage(categories[i].Image)
	}
	span.SetAttributes(attribute.Int("catalog.results", len(categories)))
	return categories, nil
}

func (c *Client) get(ctx context.Context, path string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return fmt.Errorf("create catalog request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return err
		}
		var statusErr *httpclient.StatusError
		if errors.As(err, &statusErr) {
			return httpclient.ParseStatusError(statusErr, serviceName)
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("call catalog %s: %w", path, err)
		}
		c.logger.WarnContext(ctx, "catalog request failed",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return apperrors.Upstream("catalog request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return httpclient.ParseResponseError(resp, serviceName)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return apperrors.Upstream("catalog returned an unreadable response", fmt.Errorf("decode %s: %w", path, err))
	}
	return nil
}

func normalizeProduct(p *domain.Product) {
	for i, img := range p.Images {
		p.Images[i] = domain.CleanImage(img)
	}
	p.Category.Image = domain.CleanImage(p.Category.Image)
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
