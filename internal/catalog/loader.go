package catalog

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var fetchesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "catalog_fetches_total",
		Help: "Catalog fetches settled by loaders, by outcome",
	},
	[]string{"loader", "status"},
)

// FetchFunc performs one catalog request.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// LoaderConfig configures a Loader.
type LoaderConfig[T any] struct {
	Name     string
	Fetch    FetchFunc[T]
	IsEmpty  func(T) bool
	Messages Messages
	// Timeout bounds a single fetch. Zero means 10s.
	Timeout time.Duration
}

// Loader runs a fixed fetch in the background and keeps the State of the
// latest request. Every Load starts a new generation; a result that arrives
// after a newer Load, or after Close, is dropped.
type Loader[T any] struct {
	name     string
	fetch    FetchFunc[T]
	isEmpty  func(T) bool
	messages Messages
	timeout  time.Duration
	logger   *slog.Logger

	base context.Context
	stop context.CancelFunc
	wg   sync.WaitGroup

	mu     sync.Mutex
	gen    uint64
	state  State[T]
	done   chan struct{}
	closed bool
}

// NewLoader creates an idle loader. Its state is loading until the first
// Load settles.
func NewLoader[T any](cfg LoaderConfig[T], logger *slog.Logger) *Loader[T] {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	base, stop := context.WithCancel(context.Background())
	done := make(chan struct{})
	close(done)

	return &Loader[T]{
		name:     cfg.Name,
		fetch:    cfg.Fetch,
		isEmpty:  cfg.IsEmpty,
		messages: cfg.Messages,
		timeout:  timeout,
		logger:   logger.With(slog.String("loader", cfg.Name)),
		base:     base,
		stop:     stop,
		state:    Loading[T](),
		done:     done,
	}
}

// Name returns the loader name.
func (l *Loader[T]) Name() string {
	return l.name
}

// Load marks the state loading and starts the fetch. The fetch outlives the
// caller's cancellation but keeps its values (trace, correlation id).
func (l *Loader[T]) Load(ctx context.Context) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.gen++
	gen := l.gen
	done := make(chan struct{})
	l.done = done
	l.state = Loading[T]()
	l.wg.Add(1)
	l.mu.Unlock()

	go l.run(context.WithoutCancel(ctx), gen, done)
}

// Retry re-issues the same request.
func (l *Loader[T]) Retry(ctx context.Context) {
	l.logger.InfoContext(ctx, "retrying catalog fetch")
	l.Load(ctx)
}

func (l *Loader[T]) run(ctx context.Context, gen uint64, done chan struct{}) {
	defer l.wg.Done()
	defer close(done)

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()
	stop := context.AfterFunc(l.base, cancel)
	defer stop()

	data, err := l.fetch(ctx)
	next := Settle(data, err, l.isEmpty, l.messages)

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed || gen != l.gen {
		l.logger.DebugContext(ctx, "dropping stale catalog result",
			slog.Uint64("generation", gen),
			slog.Uint64("latest", l.gen),
		)
		return
	}

	l.state = next
	fetchesTotal.WithLabelValues(l.name, string(next.Status)).Inc()
	if err != nil {
		l.logger.WarnContext(ctx, "catalog fetch failed", slog.String("error", err.Error()))
	}
}

// State returns the current snapshot.
func (l *Loader[T]) State() State[T] {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Snapshot returns State as an untyped value for rendering.
func (l *Loader[T]) Snapshot() any {
	return l.State()
}

// Wait blocks until the latest generation settles and returns its state.
// It returns immediately when nothing is in flight.
func (l *Loader[T]) Wait(ctx context.Context) (State[T], error) {
	for {
		l.mu.Lock()
		done, gen := l.done, l.gen
		l.mu.Unlock()

		select {
		case <-done:
		case <-ctx.Done():
			return l.State(), ctx.Err()
		}

		l.mu.Lock()
		if l.closed || gen == l.gen {
			s := l.state
			l.mu.Unlock()
			return s, nil
		}
		l.mu.Unlock()
	}
}

// Close cancels in-flight fetches and ignores their results. Further Loads
// are no-ops.
func (l *Loader[T]) Close() {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()

	l.stop()
	l.wg.Wait()
}
