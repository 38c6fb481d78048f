package port

import (
	"context"

	"resello/internal/domain/entity"
)

// PriceLookup ищет рыночную цену нового устройства
type PriceLookup interface {
	Search(ctx context.Context, brand, model string) (*entity.MarketPrice, error)
}
