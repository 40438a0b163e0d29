package cache

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/msalarini/store-lamayer/internal/service/models/product"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockProductRepo struct {
	mock.Mock
}

func (m *mockProductRepo) GetByID(ctx context.Context, id int64) (product.Product, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(product.Product), args.Error(1)
}

func (m *mockProductRepo) Query(ctx context.Context, filter *product.QueryProductsModel) ([]product.Product, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]product.Product), args.Error(1)
}

func setupCache(t *testing.T) (*CachedProductRepository, *mockProductRepo, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	repo := &mockProductRepo{}

	return NewCachedProductRepository(repo, client, time.Minute), repo, mr
}

func pimenta() product.Product {
	return product.Product{
		ID:        7,
		Name:      "Pimenta do Reino",
		SellPrice: decimal.RequireFromString("12.50"),
		Quantity:  3,
	}
}

func TestGetByID_MissLoadsAndStores(t *testing.T) {
	cache, repo, mr := setupCache(t)
	ctx := context.Background()
	repo.On("GetByID", mock.Anything, int64(7)).Return(pimenta(), nil).Once()

	p, err := cache.GetByID(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "Pimenta do Reino", p.Name)

	assert.True(t, mr.Exists(cacheKey(7)))
	ttl := mr.TTL(cacheKey(7))
	assert.GreaterOrEqual(t, ttl, time.Minute)

	p, err = cache.GetByID(ctx, 7)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("12.50").Equal(p.SellPrice))

	repo.AssertExpectations(t)
}

func TestGetByID_HitSkipsDatabase(t *testing.T) {
	cache, repo, mr := setupCache(t)

	data, err := json.Marshal(pimenta())
	require.NoError(t, err)
	require.NoError(t, mr.Set(cacheKey(7), string(data)))

	p, err := cache.GetByID(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), p.ID)

	repo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestGetByID_NotFoundIsNotCached(t *testing.T) {
	cache, repo, mr := setupCache(t)
	repo.On("GetByID", mock.Anything, int64(9)).Return(product.Product{}, product.ErrProductNotFound)

	_, err := cache.GetByID(context.Background(), 9)
	assert.ErrorIs(t, err, product.ErrProductNotFound)
	assert.False(t, mr.Exists(cacheKey(9)))
}

func TestGetByID_CorruptEntryFallsBackToDatabase(t *testing.T) {
	cache, repo, mr := setupCache(t)
	require.NoError(t, mr.Set(cacheKey(7), "{not json"))
	repo.On("GetByID", mock.Anything, int64(7)).Return(pimenta(), nil).Once()

	p, err := cache.GetByID(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "Pimenta do Reino", p.Name)
	repo.AssertExpectations(t)
}

func TestGetByID_RedisDownFallsBackToDatabase(t *testing.T) {
	cache, repo, mr := setupCache(t)
	mr.Close()
	repo.On("GetByID", mock.Anything, int64(7)).Return(pimenta(), nil)

	p, err := cache.GetByID(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), p.ID)
}

func TestGetByID_ConcurrentCallsSucceed(t *testing.T) {
	cache, repo, _ := setupCache(t)
	repo.On("GetByID", mock.Anything, int64(7)).Return(pimenta(), nil)

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := cache.GetByID(context.Background(), 7)
			assert.NoError(t, err)
			assert.Equal(t, int64(7), p.ID)
		}()
	}
	wg.Wait()
}

func TestQuery_PassesThrough(t *testing.T) {
	cache, repo, _ := setupCache(t)
	filter := &product.QueryProductsModel{Search: "pim"}
	repo.On("Query", mock.Anything, filter).Return([]product.Product{pimenta()}, nil)

	products, err := cache.Query(context.Background(), filter)
	require.NoError(t, err)
	assert.Len(t, products, 1)
}
