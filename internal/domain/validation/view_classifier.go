package validation

import (
	"context"
	"fmt"
	"image"

	"resello/internal/domain/entity"
	"resello/internal/domain/port"
)

// NamedImage декодированный снимок ракурса.
type NamedImage struct {
	Name  string
	Image image.Image
}

// ViewClassifier проверяет, что снимок соответствует ожидаемому ракурсу.
type ViewClassifier struct {
	scorer port.Scorer
}

func NewViewClassifier(scorer port.Scorer) *ViewClassifier {
	return &ViewClassifier{scorer: scorer}
}

// ClassifyView сравнивает снимок с кандидатами ракурса. Ракурс без набора кандидатов
// проходит без замечаний. Ошибка возвращается только при сбое скорера.
func (c *ViewClassifier) ClassifyView(ctx context.Context, img image.Image, view string, category entity.ProductCategory) (entity.ViewValidationResult, error) {
	labels, ok := ViewLabels(view)
	if !ok {
		return entity.PassedView(view, nil), nil
	}

	logits, err := c.scorer.Score(ctx, img, labels)
	if err != nil {
		return entity.ViewValidationResult{}, fmt.Errorf("score view %q: %w", view, err)
	}
	r, err := rank(logits, len(labels))
	if err != nil {
		return entity.ViewValidationResult{}, fmt.Errorf("score view %q: %w", view, err)
	}

	info := &entity.ViewInfo{
		Predicted:  labels[r.top],
		Confidence: r.probs[r.top],
		Margin:     r.margin,
	}

	var reasons []string
	if r.top != 0 {
		reasons = append(reasons, fmt.Sprintf("matching failed: %s", labels[r.top]))
	}
	if r.margin < RequiredMargin(view, category) {
		reasons = append(reasons, fmt.Sprintf("image not clear enough (confidence margin: %.2f)", r.margin))
	}
	if len(reasons) > 0 {
		return entity.FailedView(view, info, reasons...), nil
	}
	return entity.PassedView(view, info), nil
}
