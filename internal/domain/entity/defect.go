package entity

import "strings"

// DefectType закрытый словарь типов повреждений.
type DefectType string

const (
	DefectScratches     DefectType = "scratches"
	DefectDents         DefectType = "dents"
	DefectCracks        DefectType = "cracks"
	DefectHeavyWear     DefectType = "heavy wear"
	DefectDiscoloration DefectType = "discoloration"
	DefectBrokenParts   DefectType = "broken parts"
	DefectOther         DefectType = "other"
)

// DefectTypes словарь в порядке сопоставления.
var DefectTypes = []DefectType{
	DefectScratches,
	DefectDents,
	DefectCracks,
	DefectHeavyWear,
	DefectDiscoloration,
	DefectBrokenParts,
	DefectOther,
}

// ParseDefectType ищет первый тип словаря, содержащийся в строке (без учёта регистра).
// Всё, что не нашлось, относится к DefectOther.
func ParseDefectType(s string) DefectType {
	s = strings.ToLower(s)
	for _, t := range DefectTypes {
		if strings.Contains(s, string(t)) {
			return t
		}
	}
	return DefectOther
}

// Severity степень повреждения
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// ParseSeverity разбирает степень; пустое или неизвестное значение считается низким.
func ParseSeverity(s string) Severity {
	switch Severity(strings.ToLower(strings.TrimSpace(s))) {
	case SeverityMedium:
		return SeverityMedium
	case SeverityHigh:
		return SeverityHigh
	default:
		return SeverityLow
	}
}

// DamageFinding одно повреждение, найденное внешним сервисом на снимке.
type DamageFinding struct {
	Type        string `json:"type"`
	Severity    string `json:"severity"`
	Location    string `json:"location"`
	Description string `json:"description"`
}

// Category сопоставляет тип находки со словарём.
func (f DamageFinding) Category() DefectType {
	if f.Type == "" {
		return DefectOther
	}
	return ParseDefectType(f.Type)
}

// Level возвращает нормализованную степень.
func (f DamageFinding) Level() Severity {
	return ParseSeverity(f.Severity)
}

// DamageReport результат анализа одного ракурса.
type DamageReport struct {
	Issues           []DamageFinding `json:"issues"`
	OverallCondition string          `json:"overall_condition"`
	Degraded         bool            `json:"-"` // сервис недоступен или ответ не разобран
}

// UnknownDamageReport безопасное значение при сбое детектора.
func UnknownDamageReport() DamageReport {
	return DamageReport{Issues: []DamageFinding{}, OverallCondition: "unknown", Degraded: true}
}
