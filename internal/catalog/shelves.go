package catalog

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/utafrali/storefront/internal/domain"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// Shelf names served by the storefront.
const (
	ShelfNewDrops       = "new-drops"
	ShelfYouMayAlsoLike = "you-may-also-like"
	ShelfCategories     = "categories"
)

// ShelvesConfig configures the home and cart page rows.
type ShelvesConfig struct {
	CategoryID      int
	NewDropsLimit   int
	AlsoLikeLimit   int
	RefreshInterval time.Duration
	FetchTimeout    time.Duration
}

// DefaultShelvesConfig mirrors the rows of the storefront pages.
func DefaultShelvesConfig() ShelvesConfig {
	return ShelvesConfig{
		CategoryID:      4,
		NewDropsLimit:   4,
		AlsoLikeLimit:   8,
		RefreshInterval: 5 * time.Minute,
		FetchTimeout:    10 * time.Second,
	}
}

type shelf interface {
	Name() string
	Load(ctx context.Context)
	Retry(ctx context.Context)
	Snapshot() any
	Close()
}

// Shelves keeps the catalog rows shown on every page warm. Each row is a
// Loader refreshed on an interval and retryable on demand.
type Shelves struct {
	newDrops   *Loader[[]domain.Product]
	alsoLike   *Loader[[]domain.Product]
	categories *Loader[[]domain.Category]
	byName     map[string]shelf

	interval time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	stopped chan struct{}
}

// NewShelves builds the loaders without starting them.
func NewShelves(gw Gateway, cfg ShelvesConfig, logger *slog.Logger) *Shelves {
	s := &Shelves{
		interval: cfg.RefreshInterval,
		logger:   logger,
	}

	s.newDrops = NewLoader(LoaderConfig[[]domain.Product]{
		Name: ShelfNewDrops,
		Fetch: func(ctx context.Context) ([]domain.Product, error) {
			return gw.ListProducts(ctx, InCategory(cfg.CategoryID, 0, cfg.NewDropsLimit))
		},
		IsEmpty:  EmptySlice[domain.Product],
		Messages: ListMessages,
		Timeout:  cfg.FetchTimeout,
	}, logger)

	s.alsoLike = NewLoader(LoaderConfig[[]domain.Product]{
		Name: ShelfYouMayAlsoLike,
		Fetch: func(ctx context.Context) ([]domain.Product, error) {
			return gw.ListProducts(ctx, InCategory(cfg.CategoryID, 0, cfg.AlsoLikeLimit))
		},
		IsEmpty:  EmptySlice[domain.Product],
		Messages: ListMessages,
		Timeout:  cfg.FetchTimeout,
	}, logger)

	s.categories = NewLoader(LoaderConfig[[]domain.Category]{
		Name:     ShelfCategories,
		Fetch:    gw.ListCategories,
		IsEmpty:  EmptySlice[domain.Category],
		Messages: Messages{NotFound: "No categories found.", Failure: "Failed to load data.", Empty: "No categories found."},
		Timeout:  cfg.FetchTimeout,
	}, logger)

	s.byName = map[string]shelf{
		ShelfNewDrops:       s.newDrops,
		ShelfYouMayAlsoLike: s.alsoLike,
		ShelfCategories:     s.categories,
	}
	return s
}

// Start loads every shelf and, when an interval is set, refreshes them
// until Close.
func (s *Shelves) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	for _, sh := range s.byName {
		sh.Load(ctx)
	}

	ctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.stopped = make(chan struct{})

	go s.refresh(ctx, s.stopped)
}

func (s *Shelves) refresh(ctx context.Context, stopped chan struct{}) {
	defer close(stopped)
	if s.interval <= 0 {
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.logger.DebugContext(ctx, "refreshing catalog shelves")
			for _, sh := range s.byName {
				sh.Load(ctx)
			}
		}
	}
}

// Names lists the shelf names in a stable order.
func (s *Shelves) Names() []string {
	names := make([]string, 0, len(s.byName))
	for name := range s.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Snapshot returns the State of the named shelf.
func (s *Shelves) Snapshot(name string) (any, error) {
	sh, ok := s.byName[name]
	if !ok {
		return nil, apperrors.NotFound("shelf", name)
	}
	return sh.Snapshot(), nil
}

// Retry re-issues the named shelf's request.
func (s *Shelves) Retry(ctx context.Context, name string) error {
	sh, ok := s.byName[name]
	if !ok {
		return apperrors.NotFound("shelf", name)
	}
	sh.Retry(ctx)
	return nil
}

// NewDrops returns the new-drops row.
func (s *Shelves) NewDrops() State[[]domain.Product] {
	return s.newDrops.State()
}

// YouMayAlsoLike returns the recommendation row.
func (s *Shelves) YouMayAlsoLike() State[[]domain.Product] {
	return s.alsoLike.State()
}

// Categories returns the category row.
func (s *Shelves) Categories() State[[]domain.Category] {
	return s.categories.State()
}

// Wait blocks until every shelf has settled.
func (s *Shelves) Wait(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := s.newDrops.Wait(ctx)
		return err
	})
	g.Go(func() error {
		_, err := s.alsoLike.Wait(ctx)
		return err
	})
	g.Go(func() error {
		_, err := s.categories.Wait(ctx)
		return err
	})
	return g.Wait()
}

// Close stops the refresh loop and every loader.
func (s *Shelves) Close() {
	s.mu.Lock()
	cancel, stopped := s.cancel, s.stopped
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		<-stopped
	}
	for _, sh := range s.byName {
		sh.Close()
	}
}
