package port

import (
	"context"

	"resello/internal/domain/entity"
)

// ValidationCache кеш результатов проверки ракурсов по содержимому.
// Одна запись на ключ, повторная запись заменяет прежнюю.
type ValidationCache interface {
	GetValidation(ctx context.Context, key string) (*entity.ViewValidationResult, error)
	SetValidation(ctx context.Context, key string, result entity.ViewValidationResult) error
}

// PriceCache кеш ответов поиска цены по запросу.
type PriceCache interface {
	GetPrice(ctx context.Context, query string) (*entity.MarketPrice, error)
	SetPrice(ctx context.Context, query string, price *entity.MarketPrice) error
}
