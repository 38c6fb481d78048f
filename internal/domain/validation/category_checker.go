package validation

import (
	"context"
	"fmt"
	"image"

	"resello/internal/domain/entity"
	"resello/internal/domain/port"
)

// ReasonWrongProduct причина отказа, если хотя бы один ракурс отклонён.
const ReasonWrongProduct = "unrelated / wrong product images"

// Причины отклонения ракурса, в порядке проверки.
const (
	RejectPredictedUnrelated = "predicted Unrelated"
	RejectLowMargin          = "low confidence margin"
	RejectHighUnrelated      = "high unrelated probability"
	RejectNotDominant        = "selected category not dominant"
)

// CategoryThresholds пороги проверки категории.
type CategoryThresholds struct {
	MinMargin              float64 // минимальный разрыв top1−top2 по логитам
	MinExpectedVsUnrelated float64 // минимальный разрыв логитов ожидаемой категории и Unrelated
	MaxUnrelatedProb       float64 // максимальная вероятность Unrelated
}

// DefaultCategoryThresholds значения по умолчанию.
func DefaultCategoryThresholds() CategoryThresholds {
	return CategoryThresholds{
		MinMargin:              1.5,
		MinExpectedVsUnrelated: 1.0,
		MaxUnrelatedProb:       0.45,
	}
}

// CategoryViewDetail разбор одного ракурса.
type CategoryViewDetail struct {
	Top     string   `json:"top"`
	Prob    float64  `json:"prob"`
	Margin  float64  `json:"margin"`
	Reasons []string `json:"reasons"`
}

// CategoryDecision итог проверки категории по всему набору.
type CategoryDecision struct {
	IsValid   bool
	Predicted string // победитель голосования; пусто, если были отклонённые ракурсы
	Reason    string
	PerView   map[string]CategoryViewDetail
}

// ConsistencyChecker проверяет, что все снимки изображают устройство выбранной
// категории и что это одно и то же устройство.
type ConsistencyChecker struct {
	scorer     port.Scorer
	verifier   port.DeviceVerifier
	thresholds CategoryThresholds
}

func NewConsistencyChecker(scorer port.Scorer, verifier port.DeviceVerifier, thresholds CategoryThresholds) *ConsistencyChecker {
	return &ConsistencyChecker{scorer: scorer, verifier: verifier, thresholds: thresholds}
}

// CheckCategory оценивает каждый ракурс по трём классам и голосует.
// Один отклонённый ракурс проваливает всю проверку. Ничья решается в пользу
// категории, чьё имя меньше лексикографически.
func (c *ConsistencyChecker) CheckCategory(ctx context.Context, views []NamedImage, expected entity.ProductCategory) (CategoryDecision, error) {
	expectedIdx := categoryIndex(expected)
	if !expected.Valid() || expectedIdx < 0 {
		return CategoryDecision{}, fmt.Errorf("%w: %q", entity.ErrUnknownCategory, expected)
	}
	if len(views) == 0 {
		return CategoryDecision{}, fmt.Errorf("%w: no views to check", entity.ErrInspectionNotReady)
	}

	decision := CategoryDecision{PerView: make(map[string]CategoryViewDetail, len(views))}
	votes := make(map[string]int)
	rejected := false

	for _, v := range views {
		logits, err := c.scorer.Score(ctx, v.Image, categoryLabels)
		if err != nil {
			return CategoryDecision{}, fmt.Errorf("score category of %q: %w", v.Name, err)
		}
		r, err := rank(logits, len(categoryLabels))
		if err != nil {
			return CategoryDecision{}, fmt.Errorf("score category of %q: %w", v.Name, err)
		}

		reasons := c.rejectReasons(r, expectedIdx)
		decision.PerView[v.Name] = CategoryViewDetail{
			Top:     categoryClasses[r.top],
			Prob:    r.probs[r.top],
			Margin:  r.margin,
			Reasons: reasons,
		}
		if len(reasons) > 0 {
			rejected = true
			continue
		}
		votes[categoryClasses[r.top]]++
	}

	if rejected {
		decision.Reason = ReasonWrongProduct
		return decision, nil
	}

	decision.Predicted = majority(votes)
	decision.IsValid = decision.Predicted == string(expected)
	if !decision.IsValid {
		decision.Reason = fmt.Sprintf("images look like %s, not %s", decision.Predicted, expected)
	}
	return decision, nil
}

func (c *ConsistencyChecker) rejectReasons(r ranking, expectedIdx int) []string {
	reasons := []string{}
	if r.top == unrelatedIndex {
		reasons = append(reasons, RejectPredictedUnrelated)
	}
	if r.margin < c.thresholds.MinMargin {
		reasons = append(reasons, RejectLowMargin)
	}
	if r.probs[unrelatedIndex] > c.thresholds.MaxUnrelatedProb {
		reasons = append(reasons, RejectHighUnrelated)
	}
	if r.logits[expectedIdx]-r.logits[unrelatedIndex] < c.thresholds.MinExpectedVsUnrelated {
		reasons = append(reasons, RejectNotDominant)
	}
	return reasons
}

func majority(votes map[string]int) string {
	best, bestCount := "", -1
	for name, n := range votes {
		if n > bestCount || (n == bestCount && name < best) {
			best, bestCount = name, n
		}
	}
	return best
}

// CheckSameDevice передаёт весь набор снимков внешнему верификатору и возвращает
// его вердикт без изменений.
func (c *ConsistencyChecker) CheckSameDevice(ctx context.Context, views []NamedImage, category entity.ProductCategory) (entity.DeviceVerdict, error) {
	images := make([]image.Image, 0, len(views))
	for _, v := range views {
		images = append(images, v.Image)
	}
	return c.verifier.Verify(ctx, images, category)
}
