package port

import (
	"context"

	"resello/internal/domain/entity"
	"resello/internal/domain/pricing"
)

// ReportDescriber интерфейс автора текстового отчёта
type ReportDescriber interface {
	// Describe генерирует итоговое описание состояния и обоснование цены
	Describe(ctx context.Context, inspection *entity.Inspection, result *pricing.Result) (*entity.AiReport, error)
}
