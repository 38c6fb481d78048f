package entity

// Confidence уровень уверенности внешнего верификатора
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// DeviceVerdict ответ проверки «одно и то же устройство».
type DeviceVerdict struct {
	SameDevice bool       `json:"same_device"`
	Confidence Confidence `json:"confidence"`
	Reason     string     `json:"reason"`
	Degraded   bool       `json:"-"`
}

// SharpnessLevel уровень резкости снимка
type SharpnessLevel string

const (
	SharpnessSevere     SharpnessLevel = "severe"
	SharpnessBorderline SharpnessLevel = "borderline"
	SharpnessSharp      SharpnessLevel = "sharp"
)

// QualityReport результат проверки качества снимка.
type QualityReport struct {
	Width     int
	Height    int
	Sharpness float64
	Level     SharpnessLevel
	Reasons   []string // причины отказа, пусто если снимок годен
	Warnings  []string
}

// OK сообщает, прошёл ли снимок проверку качества.
func (q QualityReport) OK() bool {
	return len(q.Reasons) == 0
}

// PriceSource одно найденное предложение магазина.
type PriceSource struct {
	Title string  `json:"title"`
	Store string  `json:"store"`
	Price float64 `json:"price"`
	URL   string  `json:"url"`
}

// PriceStats статистика по найденным ценам.
type PriceStats struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Median float64 `json:"median"`
}

// MarketPrice ответ поиска рыночной цены. Price == nil, если цена не найдена.
type MarketPrice struct {
	Query      string        `json:"query"`
	Price      *float64      `json:"price"`
	Confidence float64       `json:"confidence"`
	Currency   string        `json:"currency"`
	Source     string        `json:"source"`
	Results    []PriceSource `json:"results"`
	Stats      *PriceStats   `json:"stats,omitempty"`
	Degraded   bool          `json:"-"`
}

// Found true, если найдена положительная цена.
func (m *MarketPrice) Found() bool {
	return m != nil && m.Price != nil && *m.Price > 0
}

// AiReport текстовый отчёт для продавца.
type AiReport struct {
	Arabic   string
	English  string
	Degraded bool
}
