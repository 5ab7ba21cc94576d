package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	ProductsKey        = "products:all"
	TransactionsKey    = "transactions:all"
	categoryKeyPattern = "products:category:*"

	DefaultTTL = 5 * time.Minute
)

// Cache is a thin wrapper over Redis for listing caches. Every method is
// best-effort and nil-safe: a cache failure or an absent cache never fails
// the request, it only costs a DB round trip.
type Cache struct {
	Client *redis.Client
}

func Connect(addr string) *Cache {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Fatalf("Failed to connect Redis: %v", err)
	}

	log.Println("Redis connected")
	return &Cache{Client: rdb}
}

func (c *Cache) GetJSON(ctx context.Context, key string, dest any) bool {
	if c == nil || c.Client == nil {
		return false
	}
	cached, err := c.Client.Get(ctx, key).Result()
	if err != nil {
		return false
	}
	return json.Unmarshal([]byte(cached), dest) == nil
}

func (c *Cache) SetJSON(ctx context.Context, key string, value any) {
	if c == nil || c.Client == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	c.Client.Set(ctx, key, data, DefaultTTL)
}

func CategoryProductsKey(categoryID uint) string {
	return fmt.Sprintf("products:category:%d", categoryID)
}

// InvalidateProducts drops every product listing cache, including all
// per-category keys. Called after catalog writes and after every successful
// checkout, so stock levels shown to cashiers reflect the store immediately.
func (c *Cache) InvalidateProducts(ctx context.Context) {
	if c == nil || c.Client == nil {
		return
	}

	keys := []string{ProductsKey}
	iter := c.Client.Scan(ctx, 0, categoryKeyPattern, 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	c.Client.Del(ctx, keys...)
}

func (c *Cache) InvalidateTransactions(ctx context.Context) {
	if c == nil || c.Client == nil {
		return
	}
	c.Client.Del(ctx, TransactionsKey)
}
