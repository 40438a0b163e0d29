package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strconv"
	"time"

	"github.com/msalarini/store-lamayer/internal/dal/interfaces/iproductrepo"
	"github.com/msalarini/store-lamayer/internal/service/models/product"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

var ErrCacheMiss = errors.New("cache miss")

// CachedProductRepository puts a Redis cache-aside layer in front of the catalog.
// Single product lookups are cached; searches always hit the database.
type CachedProductRepository struct {
	next    iproductrepo.IProductRepository
	client  *redis.Client
	baseTTL time.Duration
	sfg     singleflight.Group
}

func NewCachedProductRepository(
	next iproductrepo.IProductRepository,
	client *redis.Client,
	ttl time.Duration,
) *CachedProductRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	return &CachedProductRepository{
		next:    next,
		client:  client,
		baseTTL: ttl,
	}
}

// GetByID serves from Redis when possible. Concurrent misses for the same id
// share one database read. Redis failures degrade to a plain database read.
func (r *CachedProductRepository) GetByID(ctx context.Context, id int64) (product.Product, error) {
	v, err, _ := r.sfg.Do(strconv.FormatInt(id, 10), func() (interface{}, error) {
		p, err := r.get(ctx, id)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			slog.WarnContext(ctx, "Product cache read failed", "product_id", id, "error", err)
		}

		p, err = r.next.GetByID(ctx, id)
		if err != nil {
			return product.Product{}, err
		}

		if err := r.set(ctx, p); err != nil {
			slog.WarnContext(ctx, "Product cache write failed", "product_id", id, "error", err)
		}

		return p, nil
	})
	if err != nil {
		return product.Product{}, err
	}

	return v.(product.Product), nil
}

func (r *CachedProductRepository) Query(
	ctx context.Context,
	filter *product.QueryProductsModel,
) ([]product.Product, error) {
	return r.next.Query(ctx, filter)
}

func (r *CachedProductRepository) get(ctx context.Context, id int64) (product.Product, error) {
	data, err := r.client.Get(ctx, cacheKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return product.Product{}, ErrCacheMiss
	}
	if err != nil {
		return product.Product{}, fmt.Errorf("redis get failed: %w", err)
	}

	var p product.Product
	if err := json.Unmarshal(data, &p); err != nil {
		return product.Product{}, fmt.Errorf("unmarshal product failed: %w", err)
	}

	return p, nil
}

func (r *CachedProductRepository) set(ctx context.Context, p product.Product) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal product failed: %w", err)
	}

	jitter := time.Duration(rand.Int63n(int64(r.baseTTL)/5 + 1))
	if err := r.client.Set(ctx, cacheKey(p.ID), data, r.baseTTL+jitter).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}

	return nil
}

func cacheKey(id int64) string {
	return fmt.Sprintf("product:%d", id)
}
