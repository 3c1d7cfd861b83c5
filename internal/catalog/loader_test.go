package catalog

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/domain"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestSettle(t *testing.T) {
	tests := []struct {
		name    string
		data    []int
		err     error
		status  Status
		message string
	}{
		{name: "ready", data: []int{1}, status: StatusReady},
		{name: "empty", data: nil, status: StatusEmpty, message: "No products found."},
		{name: "not found", err: apperrors.NotFound("product", "1"), status: StatusError, message: "No products found."},
		{name: "failure", err: errors.New("boom"), status: StatusError, message: "Failed to load data."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Settle(tt.data, tt.err, EmptySlice[int], ListMessages)
			assert.Equal(t, tt.status, s.Status)
			assert.Equal(t, tt.message, s.Message)
		})
	}
}

func TestSettle_WithoutEmptyCheck(t *testing.T) {
	s := Settle[*domain.Product](nil, nil, nil, ProductMessages)
	assert.Equal(t, StatusReady, s.Status)
}

func TestProductMessages(t *testing.T) {
	assert.Equal(t, "Product not found.", ProductMessages.ErrorMessage(apperrors.NotFound("product", "9")))
	assert.Equal(t, "Failed to load product details.", ProductMessages.ErrorMessage(apperrors.ServiceUnavailable("down")))
}

func TestLoader_InitialStateIsLoading(t *testing.T) {
	l := NewLoader(LoaderConfig[[]int]{
		Name:  "idle",
		Fetch: func(context.Context) ([]int, error) { return []int{1}, nil },
	}, discardLogger())
	defer l.Close()

	assert.Equal(t, StatusLoading, l.State().Status)

	s, err := l.Wait(waitCtx(t))
	require.NoError(t, err)
	assert.Equal(t, StatusLoading, s.Status)
}

func TestLoader_LoadSettlesReady(t *testing.T) {
	l := NewLoader(LoaderConfig[[]int]{
		Name:     "ready",
		Fetch:    func(context.Context) ([]int, error) { return []int{1, 2}, nil },
		IsEmpty:  EmptySlice[int],
		Messages: ListMessages,
	}, discardLogger())
	defer l.Close()

	l.Load(context.Background())
	s, err := l.Wait(waitCtx(t))
	require.NoError(t, err)
	assert.Equal(t, StatusReady, s.Status)
	assert.Equal(t, []int{1, 2}, s.Data)
}

func TestLoader_ErrorThenRetry(t *testing.T) {
	var calls atomic.Int32
	l := NewLoader(LoaderConfig[[]int]{
		Name: "retry",
		Fetch: func(context.Context) ([]int, error) {
			if calls.Add(1) == 1 {
				return nil, errors.New("connection reset")
			}
			return []int{7}, nil
		},
		IsEmpty:  EmptySlice[int],
		Messages: ListMessages,
	}, discardLogger())
	defer l.Close()

	l.Load(context.Background())
	s, err := l.Wait(waitCtx(t))
	require.NoError(t, err)
	assert.Equal(t, StatusError, s.Status)
	assert.Equal(t, "Failed to load data.", s.Message)

	l.Retry(context.Background())
	s, err = l.Wait(waitCtx(t))
	require.NoError(t, err)
	assert.Equal(t, StatusReady, s.Status)
	assert.Equal(t, int32(2), calls.Load())
}

func TestLoader_StaleResultIsDropped(t *testing.T) {
	release := make(chan struct{})
	var calls atomic.Int32

	l := NewLoader(LoaderConfig[string]{
		Name: "stale",
		Fetch: func(ctx context.Context) (string, error) {
			if calls.Add(1) == 1 {
				<-release
				return "old", nil
			}
			return "new", nil
		},
	}, discardLogger())
	defer l.Close()

	l.Load(context.Background())
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	l.Load(context.Background())
	s, err := l.Wait(waitCtx(t))
	require.NoError(t, err)
	assert.Equal(t, "new", s.Data)

	close(release)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, "new", l.State().Data)
}

func TestLoader_WaitFollowsNewerGeneration(t *testing.T) {
	release := make(chan struct{})
	var calls atomic.Int32

	l := NewLoader(LoaderConfig[int]{
		Name: "follow",
		Fetch: func(ctx context.Context) (int, error) {
			n := calls.Add(1)
			if n == 2 {
				<-release
			}
			return int(n), nil
		},
	}, discardLogger())
	defer l.Close()

	l.Load(context.Background())
	_, err := l.Wait(waitCtx(t))
	require.NoError(t, err)

	l.Load(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		close(release)
	}()

	s, err := l.Wait(waitCtx(t))
	require.NoError(t, err)
	assert.Equal(t, StatusReady, s.Status)
	assert.Equal(t, 2, s.Data)
}

func TestLoader_CloseIgnoresInFlight(t *testing.T) {
	started := make(chan struct{})
	l := NewLoader(LoaderConfig[string]{
		Name: "closed",
		Fetch: func(ctx context.Context) (string, error) {
			close(started)
			<-ctx.Done()
			return "late", ctx.Err()
		},
	}, discardLogger())

	l.Load(context.Background())
	<-started
	l.Close()

	assert.Equal(t, StatusLoading, l.State().Status)

	l.Load(context.Background())
	assert.Equal(t, StatusLoading, l.State().Status)
}

func TestLoader_FetchOutlivesCallerCancellation(t *testing.T) {
	l := NewLoader(LoaderConfig[string]{
		Name: "detached",
		Fetch: func(ctx context.Context) (string, error) {
			time.Sleep(20 * time.Millisecond)
			if err := ctx.Err(); err != nil {
				return "", err
			}
			return "ok", nil
		},
	}, discardLogger())
	defer l.Close()

	ctx, cancel := context.WithCancel(context.Background())
	l.Load(ctx)
	cancel()

	s, err := l.Wait(waitCtx(t))
	require.NoError(t, err)
	assert.Equal(t, StatusReady, s.Status)
	assert.Equal(t, "ok", s.Data)
}

func TestLoader_TimeoutBecomesError(t *testing.T) {
	l := NewLoader(LoaderConfig[string]{
		Name:     "timeout",
		Timeout:  10 * time.Millisecond,
		Messages: ProductMessages,
		Fetch: func(ctx context.Context) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		},
	}, discardLogger())
	defer l.Close()

	l.Load(context.Background())
	s, err := l.Wait(waitCtx(t))
	require.NoError(t, err)
	assert.Equal(t, StatusError, s.Status)
	assert.Equal(t, "Failed to load product details.", s.Message)
}
