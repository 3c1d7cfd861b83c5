package redis

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/repository"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

var _ repository.CartRepository = (*CartRepository)(nil)

func setupTestRedis(t *testing.T) (*CartRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	repo := NewCartRepository(client, 2*time.Hour)
	return repo, mr
}

func sampleCart() *domain.Cart {
	now := time.Now().UTC().Truncate(time.Millisecond)
	c := domain.NewCart("session-001", now)
	c.AddLine(domain.NewLine{
		ProductID: 12,
		Title:     "Court Classic",
		Price:     decimal.RequireFromString("89.50"),
		Image:     "https://img.example.com/c.jpg",
		Size:      42,
		Color:     "navy",
		ColorName: "Shadow Navy",
	})
	c.Visible = true
	return c
}

// ---------------------------------------------------------------------------
// Get
// ---------------------------------------------------------------------------

func TestCartRepository_Get_Success(t *testing.T) {
	repo, mr := setupTestRedis(t)

	cart := sampleCart()
	data, err := json.Marshal(cart)
	require.NoError(t, err)
	require.NoError(t, mr.Set("cart:"+cart.SessionID, string(data)))

	got, err := repo.Get(context.Background(), cart.SessionID)
	require.NoError(t, err)
	assert.Equal(t, cart.SessionID, got.SessionID)
	assert.True(t, got.Visible)
	require.Len(t, got.Lines, 1)
	assert.Equal(t, "12-42-navy", got.Lines[0].LineID)
	assert.True(t, decimal.RequireFromString("89.5").Equal(got.Lines[0].Price))
	assert.Equal(t, 1, got.Lines[0].Quantity)
}

func TestCartRepository_Get_NotFound(t *testing.T) {
	repo, _ := setupTestRedis(t)

	_, err := repo.Get(context.Background(), "nobody")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCartRepository_Get_CorruptValue(t *testing.T) {
	repo, mr := setupTestRedis(t)
	require.NoError(t, mr.Set("cart:bad", "{not json"))

	_, err := repo.Get(context.Background(), "bad")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal cart")
}

func TestCartRepository_Get_NullLinesBecomeEmpty(t *testing.T) {
	repo, mr := setupTestRedis(t)
	require.NoError(t, mr.Set("cart:s", `{"session_id":"s","lines":null,"version":1}`))

	got, err := repo.Get(context.Background(), "s")
	require.NoError(t, err)
	assert.NotNil(t, got.Lines)
	assert.Empty(t, got.Lines)
}

// ---------------------------------------------------------------------------
// Save / Delete
// ---------------------------------------------------------------------------

func TestCartRepository_Save_SetsTTL(t *testing.T) {
	repo, mr := setupTestRedis(t)

	cart := sampleCart()
	require.NoError(t, repo.Save(context.Background(), cart))

	assert.True(t, mr.Exists("cart:"+cart.SessionID))
	assert.Equal(t, 2*time.Hour, mr.TTL("cart:"+cart.SessionID))

	got, err := repo.Get(context.Background(), cart.SessionID)
	require.NoError(t, err)
	assert.Equal(t, cart.Lines[0].LineID, got.Lines[0].LineID)
}

func TestCartRepository_SessionExpiryDropsCart(t *testing.T) {
	repo, mr := setupTestRedis(t)

	cart := sampleCart()
	require.NoError(t, repo.Save(context.Background(), cart))

	mr.FastForward(2*time.Hour + time.Second)

	_, err := repo.Get(context.Background(), cart.SessionID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCartRepository_Delete(t *testing.T) {
	repo, mr := setupTestRedis(t)

	cart := sampleCart()
	require.NoError(t, repo.Save(context.Background(), cart))
	require.NoError(t, repo.Delete(context.Background(), cart.SessionID))
	assert.False(t, mr.Exists("cart:"+cart.SessionID))

	require.NoError(t, repo.Delete(context.Background(), cart.SessionID))
}

// ---------------------------------------------------------------------------
// SaveIfVersion
// ---------------------------------------------------------------------------

func TestCartRepository_SaveIfVersion_NewCart(t *testing.T) {
	repo, _ := setupTestRedis(t)

	cart := sampleCart()
	ok, err := repo.SaveIfVersion(context.Background(), cart, 0)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, cart.Version)

	got, err := repo.Get(context.Background(), cart.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Version)
}

func TestCartRepository_SaveIfVersion_MissingCartWithVersion(t *testing.T) {
	repo, _ := setupTestRedis(t)

	cart := sampleCart()
	ok, err := repo.SaveIfVersion(context.Background(), cart, 3)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, cart.Version)
}

func TestCartRepository_SaveIfVersion_Advances(t *testing.T) {
	repo, _ := setupTestRedis(t)
	ctx := context.Background()

	cart := sampleCart()
	ok, err := repo.SaveIfVersion(ctx, cart, 0)
	require.NoError(t, err)
	require.True(t, ok)

	cart.SetQuantity("12-42-navy", 3)
	ok, err = repo.SaveIfVersion(ctx, cart, 1)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, cart.Version)

	got, err := repo.Get(ctx, cart.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Version)
	assert.Equal(t, 3, got.Lines[0].Quantity)
}

func TestCartRepository_SaveIfVersion_StaleVersionRejected(t *testing.T) {
	repo, _ := setupTestRedis(t)
	ctx := context.Background()

	cart := sampleCart()
	_, err := repo.SaveIfVersion(ctx, cart, 0)
	require.NoError(t, err)

	stale := cart.Clone()
	cart.Clear()
	ok, err := repo.SaveIfVersion(ctx, cart, 1)
	require.NoError(t, err)
	require.True(t, ok)

	stale.ToggleVisibility()
	ok, err = repo.SaveIfVersion(ctx, stale, 1)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, stale.Version)

	got, err := repo.Get(ctx, cart.SessionID)
	require.NoError(t, err)
	assert.Empty(t, got.Lines)
	assert.True(t, got.Visible)
}

func TestCartRepository_SaveIfVersion_ConcurrentWritersOneWins(t *testing.T) {
	repo, _ := setupTestRedis(t)
	ctx := context.Background()

	base := sampleCart()
	_, err := repo.SaveIfVersion(ctx, base, 0)
	require.NoError(t, err)

	const writers = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := base.Clone()
			c.SetQuantity("12-42-navy", 5)
			ok, err := repo.SaveIfVersion(ctx, c, 1)
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	got, err := repo.Get(ctx, base.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Version)
}

func TestCartRepository_Ping(t *testing.T) {
	repo, mr := setupTestRedis(t)
	require.NoError(t, repo.Ping(context.Background()))

	mr.Close()
	assert.Error(t, repo.Ping(context.Background()))
}
