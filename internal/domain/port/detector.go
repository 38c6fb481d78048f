package port

import (
	"context"
	"image"

	"resello/internal/domain/entity"
)

// DamageDetector интерфейс внешнего детектора повреждений
type DamageDetector interface {
	// Analyze ищет косметические повреждения на снимке одного ракурса.
	// Сбой сервиса не должен ломать сессию: реализация возвращает
	// entity.UnknownDamageReport вместо ошибки разбора.
	Analyze(ctx context.Context, img image.Image, view string, category entity.ProductCategory) (entity.DamageReport, error)
}

// DeviceVerifier проверяет, что все снимки сделаны с одного физического устройства
type DeviceVerifier interface {
	Verify(ctx context.Context, images []image.Image, category entity.ProductCategory) (entity.DeviceVerdict, error)
}
