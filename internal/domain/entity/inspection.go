package entity

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ErrInspectionNotReady возвращается, если для шага не хватает загруженных ракурсов.
var ErrInspectionNotReady = errors.New("inspection is not ready")

// Inspection одна сессия проверки устройства. Живёт, пока пользователь не сбросит её.
type Inspection struct {
	ID          string
	UserID      int64
	ProductName string
	Category    ProductCategory
	UsageYears  float64

	views    map[string]UploadedView
	results  map[string]ViewValidationResult
	findings map[string]DamageReport
}

// NewInspection создаёт пустую проверку для категории.
func NewInspection(userID int64, productName string, category ProductCategory, usageYears float64) (*Inspection, error) {
	if !category.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	if usageYears < 0 {
		return nil, fmt.Errorf("usage years must not be negative: %v", usageYears)
	}
	return &Inspection{
		ID:          uuid.NewString(),
		UserID:      userID,
		ProductName: strings.TrimSpace(productName),
		Category:    category,
		UsageYears:  usageYears,
		views:       make(map[string]UploadedView),
		results:     make(map[string]ViewValidationResult),
		findings:    make(map[string]DamageReport),
	}, nil
}

// SetView сохраняет (или заменяет) фото ракурса. Прежние результаты ракурса сбрасываются,
// как и анализ повреждений: он считался по старому набору.
func (i *Inspection) SetView(view UploadedView) error {
	if !i.Category.HasView(view.Name) {
		return fmt.Errorf("%w: %q for %s", ErrUnknownView, view.Name, i.Category)
	}
	i.views[view.Name] = view
	delete(i.results, view.Name)
	i.findings = make(map[string]DamageReport)
	return nil
}

// SetResult запоминает результат проверки ракурса.
func (i *Inspection) SetResult(result ViewValidationResult) error {
	if _, ok := i.views[result.ViewName]; !ok {
		return fmt.Errorf("%w: %q has no upload", ErrUnknownView, result.ViewName)
	}
	i.results[result.ViewName] = result
	return nil
}

// Result возвращает результат проверки ракурса.
func (i *Inspection) Result(view string) (ViewValidationResult, bool) {
	r, ok := i.results[view]
	return r, ok
}

// Views возвращает загруженные ракурсы в каноническом порядке.
func (i *Inspection) Views() []UploadedView {
	out := make([]UploadedView, 0, len(i.views))
	for _, name := range i.Category.Views() {
		if v, ok := i.views[name]; ok {
			out = append(out, v)
		}
	}
	return out
}

// NextMissingView первый ракурс без загрузки или с непройденной проверкой.
func (i *Inspection) NextMissingView() (string, bool) {
	for _, name := range i.Category.Views() {
		r, ok := i.results[name]
		if !ok || !r.Passed {
			return name, true
		}
	}
	return "", false
}

// AllViewsPassed true, когда каждый ракурс загружен и прошёл проверку.
func (i *Inspection) AllViewsPassed() bool {
	_, missing := i.NextMissingView()
	return !missing
}

// SetFindings сохраняет анализ повреждений ракурса.
func (i *Inspection) SetFindings(view string, report DamageReport) error {
	if !i.Category.HasView(view) {
		return fmt.Errorf("%w: %q for %s", ErrUnknownView, view, i.Category)
	}
	i.findings[view] = report
	return nil
}

// Findings анализ повреждений ракурса.
func (i *Inspection) Findings(view string) (DamageReport, bool) {
	r, ok := i.findings[view]
	return r, ok
}

// Analyzed true, если анализ повреждений есть для всех ракурсов.
func (i *Inspection) Analyzed() bool {
	for _, name := range i.Category.Views() {
		if _, ok := i.findings[name]; !ok {
			return false
		}
	}
	return true
}

// AllFindings собирает все находки сессии в каноническом порядке ракурсов.
func (i *Inspection) AllFindings() []DamageFinding {
	out := make([]DamageFinding, 0)
	for _, name := range i.Category.Views() {
		out = append(out, i.findings[name].Issues...)
	}
	return out
}

// ConditionScore грубая оценка состояния: минус 10 за каждую находку.
func (i *Inspection) ConditionScore() int {
	score := 100 - 10*len(i.AllFindings())
	if score < 0 {
		return 0
	}
	return score
}

// BrandModel делит название товара на бренд (первое слово) и модель (остальное).
func (i *Inspection) BrandModel() (brand, model string) {
	parts := strings.Fields(i.ProductName)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}
