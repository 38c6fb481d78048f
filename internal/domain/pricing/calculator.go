// Package pricing считает остаточную стоимость устройства по возрасту и дефектам.
package pricing

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"resello/internal/domain/entity"
)

// ErrInvalidInput неверная базовая цена или срок использования.
var ErrInvalidInput = errors.New("invalid pricing input")

// DefaultCurrency валюта по умолчанию.
const DefaultCurrency = "EGP"

// AgeDepreciation скидка за возраст.
type AgeDepreciation struct {
	Years  float64 `json:"years"`
	Rate   float64 `json:"rate"`
	Amount float64 `json:"amount"`
}

// DefectLine вклад одной находки в скидку.
type DefectLine struct {
	Type        string            `json:"type"`
	Category    entity.DefectType `json:"category"`
	Severity    entity.Severity   `json:"severity"`
	Rate        float64           `json:"rate"`
	Description string            `json:"description"`
}

// DefectDepreciation скидка за дефекты. Breakdown хранит все находки,
// даже если сработал потолок.
type DefectDepreciation struct {
	Rate      float64      `json:"rate"`
	RawRate   float64      `json:"raw_rate"`
	Capped    bool         `json:"capped"`
	Amount    float64      `json:"amount"`
	Breakdown []DefectLine `json:"breakdown"`
}

// Result полный расчёт цены.
type Result struct {
	BasePrice   float64            `json:"base_price"`
	Age         AgeDepreciation    `json:"age_depreciation"`
	Defects     DefectDepreciation `json:"defect_depreciation"`
	TotalRate   float64            `json:"total_depreciation_rate"`
	TotalAmount float64            `json:"total_depreciation_amount"`
	FinalPrice  float64            `json:"final_price"`
	Currency    string             `json:"currency"`
}

// Calculator калькулятор без состояния, кроме валюты.
type Calculator struct {
	Currency string
}

// NewCalculator создаёт калькулятор с валютой (по умолчанию DefaultCurrency).
func NewCalculator(currency string) *Calculator {
	if currency == "" {
		currency = DefaultCurrency
	}
	return &Calculator{Currency: currency}
}

// AgeRate скидка за возраст. Годы округляются вниз; после седьмого года ставка не растёт.
func AgeRate(years float64) float64 {
	whole := int(math.Floor(years))
	if whole < 0 {
		return ageRates[0]
	}
	if whole >= len(ageRates) {
		return MaxAgeRate
	}
	return ageRates[whole]
}

// DefectRate суммирует ставки всех находок и ограничивает сумму MaxDefectRate.
func DefectRate(issues []entity.DamageFinding) DefectDepreciation {
	out := DefectDepreciation{Breakdown: make([]DefectLine, 0, len(issues))}
	for _, issue := range issues {
		category := issue.Category()
		severity := issue.Level()
		rate := DefectRates(category).For(severity)
		out.RawRate += rate

		typ := strings.ToLower(issue.Type)
		if typ == "" {
			typ = string(entity.DefectOther)
		}
		out.Breakdown = append(out.Breakdown, DefectLine{
			Type:        typ,
			Category:    category,
			Severity:    severity,
			Rate:        rate,
			Description: issue.Description,
		})
	}
	out.Rate = math.Min(out.RawRate, MaxDefectRate)
	out.Capped = out.RawRate > MaxDefectRate
	return out
}

// Calculate считает итоговую цену. Повторный вызов с теми же данными даёт тот же результат.
func (c *Calculator) Calculate(basePrice, years float64, issues []entity.DamageFinding) (*Result, error) {
	if math.IsNaN(basePrice) || math.IsInf(basePrice, 0) || basePrice <= 0 {
		return nil, fmt.Errorf("%w: base price %v", ErrInvalidInput, basePrice)
	}
	if math.IsNaN(years) || math.IsInf(years, 0) || years < 0 {
		return nil, fmt.Errorf("%w: usage years %v", ErrInvalidInput, years)
	}

	ageRate := AgeRate(years)
	defects := DefectRate(issues)
	defects.Amount = basePrice * defects.Rate

	// Потолок 90% и пол 10% применяются независимо от потолков слагаемых.
	totalRate := math.Min(ageRate+defects.Rate, MaxTotalRate)
	finalPrice := math.Max(basePrice*(1-totalRate), basePrice*MinPriceShare)

	return &Result{
		BasePrice: basePrice,
		Age: AgeDepreciation{
			Years:  years,
			Rate:   ageRate,
			Amount: basePrice * ageRate,
		},
		Defects:     defects,
		TotalRate:   totalRate,
		TotalAmount: basePrice * totalRate,
		FinalPrice:  finalPrice,
		Currency:    c.Currency,
	}, nil
}
