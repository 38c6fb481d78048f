package port

import (
	"context"
	"image"
)

// Scorer zero-shot модель, ранжирующая текстовые описания по изображению.
// Логиты сравнимы только внутри одного вызова.
type Scorer interface {
	Score(ctx context.Context, img image.Image, labels []string) ([]float64, error)
}

// ScorerBackend Scorer с явным жизненным циклом загрузки модели.
type ScorerBackend interface {
	Scorer
	Init(ctx context.Context) error
	Ready() bool
}
