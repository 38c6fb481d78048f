package storage

import (
	"context"
	"sync"
	"time"

	"resello/internal/domain/entity"
	"resello/internal/domain/port"
)

// MemoryCache кеш проверок ракурсов и цен в памяти процесса.
type MemoryCache struct {
	mu          sync.RWMutex
	validations map[string]entity.ViewValidationResult
	prices      map[string]priceEntry
	priceTTL    time.Duration
	now         func() time.Time
}

type priceEntry struct {
	price    *entity.MarketPrice
	storedAt time.Time
}

func NewMemoryCache(priceTTL time.Duration) *MemoryCache {
	return &MemoryCache{
		validations: make(map[string]entity.ViewValidationResult),
		prices:      make(map[string]priceEntry),
		priceTTL:    priceTTL,
		now:         time.Now,
	}
}

// GetValidation возвращает nil, nil если записи нет.
func (c *MemoryCache) GetValidation(_ context.Context, key string) (*entity.ViewValidationResult, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	r, ok := c.validations[key]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (c *MemoryCache) SetValidation(_ context.Context, key string, result entity.ViewValidationResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.validations[key] = result
	return nil
}

// GetPrice возвращает nil, nil если записи нет или она устарела.
func (c *MemoryCache) GetPrice(_ context.Context, query string) (*entity.MarketPrice, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.prices[query]
	if !ok || (c.priceTTL > 0 && c.now().Sub(e.storedAt) > c.priceTTL) {
		return nil, nil
	}
	return e.price, nil
}

func (c *MemoryCache) SetPrice(_ context.Context, query string, price *entity.MarketPrice) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.prices[query] = priceEntry{price: price, storedAt: c.now()}
	return nil
}

var (
	_ port.ValidationCache = (*MemoryCache)(nil)
	_ port.PriceCache      = (*MemoryCache)(nil)
)
