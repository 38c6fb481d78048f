package pricing

import "resello/internal/domain/entity"

const (
	// MaxDefectRate потолок скидки за дефекты.
	MaxDefectRate = 0.50
	// MaxTotalRate потолок суммарной скидки.
	MaxTotalRate = 0.90
	// MinPriceShare минимальная доля базовой цены в итоговой.
	MinPriceShare = 0.10
	// MaxAgeRate скидка за возраст старше таблицы.
	MaxAgeRate = 0.60
)

// ageRates скидка по полным годам использования.
var ageRates = [...]float64{
	0: 0.15,
	1: 0.15,
	2: 0.25,
	3: 0.35,
	4: 0.43,
	5: 0.50,
	6: 0.55,
	7: 0.60,
}

// SeverityRates скидка по степени повреждения.
type SeverityRates struct {
	Low    float64
	Medium float64
	High   float64
}

// For возвращает ставку для степени.
func (r SeverityRates) For(s entity.Severity) float64 {
	switch s {
	case entity.SeverityMedium:
		return r.Medium
	case entity.SeverityHigh:
		return r.High
	default:
		return r.Low
	}
}

var defectRates = map[entity.DefectType]SeverityRates{
	entity.DefectScratches:     {Low: 0.02, Medium: 0.05, High: 0.08},
	entity.DefectDents:         {Low: 0.03, Medium: 0.07, High: 0.12},
	entity.DefectCracks:        {Low: 0.10, Medium: 0.20, High: 0.35},
	entity.DefectHeavyWear:     {Low: 0.05, Medium: 0.10, High: 0.15},
	entity.DefectDiscoloration: {Low: 0.02, Medium: 0.04, High: 0.07},
	entity.DefectBrokenParts:   {Low: 0.15, Medium: 0.30, High: 0.50},
	entity.DefectOther:         {Low: 0.02, Medium: 0.05, High: 0.10},
}

// DefectRates возвращает ставки для типа дефекта.
func DefectRates(t entity.DefectType) SeverityRates {
	if r, ok := defectRates[t]; ok {
		return r
	}
	return defectRates[entity.DefectOther]
}
