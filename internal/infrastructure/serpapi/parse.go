package serpapi

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"resello/internal/domain/entity"
)

// Предложения б/у и восстановленных устройств не годятся как цена нового.
var usedKeywords = []string{"used", "refurbished", "مستعمل", "مجدد", "open box", "renewed"}

// Слова рядом с числом, после которых число считается не ценой.
var invalidContext = []string{
	"star", "rating", "review", "piece", "item", "year",
	"warranty", "month", "قسط", "شهور", "gb", "inch", "cm",
}

var (
	currencyPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?:egp|le|ج\.م|جنيه)\s*([0-9,]+(?:\.[0-9]{2})?)`),
		regexp.MustCompile(`([0-9,]+(?:\.[0-9]{2})?)\s*(?:egp|le|ج\.م|جنيه)`),
	}
	numberPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b([1-9][0-9]{1,2},[0-9]{3}(?:,[0-9]{3})*)\b`),
		regexp.MustCompile(`\b([1-9][0-9]{4,5})\b`),
	}
	nonPrice = regexp.MustCompile(`[^0-9.]`)
)

type priceRange struct {
	min, max float64
	window   int
}

var (
	shoppingRange = priceRange{min: 100, max: 200000}
	currencyRange = priceRange{min: 500, max: 200000, window: 20}
	numberRange   = priceRange{min: 3000, max: 150000, window: 30}
)

func (r priceRange) contains(v float64) bool {
	return v >= r.min && v <= r.max
}

// Магазины по фрагменту адреса. Порядок важен: первый совпавший побеждает.
var stores = []struct {
	key  string
	name string
}{
	{"jumia", "Jumia Egypt"},
	{"noon", "Noon"},
	{"b.tech", "B.TECH"},
	{"dream2000", "Dream 2000"},
	{"dubaiphone", "Dubai Phone"},
	{"xcite", "Xcite"},
	{"souq", "Souq"},
	{"2b.com", "2B Egypt"},
	{"elaraby", "El Araby Group"},
}

const defaultStore = "Egyptian Retailer"

func isUsed(text string) bool {
	text = strings.ToLower(text)
	for _, k := range usedKeywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

// shoppingPrice разбирает строку цены из Google Shopping ("EGP 15,999.00").
func shoppingPrice(s string) (float64, bool) {
	cleaned := nonPrice.ReplaceAllString(s, "")
	if cleaned == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || !shoppingRange.contains(v) {
		return 0, false
	}
	return v, true
}

// textPrice ищет цену в заголовке и сниппете органической выдачи. Сначала числа
// с валютой, и только если их нет, голые числа. Из найденных берётся наибольшая.
func textPrice(text string) (float64, bool) {
	lower := strings.ToLower(text)

	found := scan(lower, currencyPatterns, currencyRange)
	if len(found) == 0 {
		found = scan(lower, numberPatterns, numberRange)
	}
	if len(found) == 0 {
		return 0, false
	}
	best := found[0]
	for _, v := range found[1:] {
		if v > best {
			best = v
		}
	}
	return best, true
}

func scan(text string, patterns []*regexp.Regexp, r priceRange) []float64 {
	var out []float64
	for _, re := range patterns {
		for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
			raw := strings.ReplaceAll(text[m[2]:m[3]], ",", "")
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				continue
			}
			around := text[max(0, m[0]-r.window):min(len(text), m[1]+r.window)]
			if hasInvalidContext(around) {
				continue
			}
			if r.contains(v) {
				out = append(out, v)
			}
		}
	}
	return out
}

func hasInvalidContext(around string) bool {
	for _, w := range invalidContext {
		if strings.Contains(around, w) {
			return true
		}
	}
	return false
}

func storeFromURL(url string) string {
	url = strings.ToLower(url)
	for _, s := range stores {
		if strings.Contains(url, s.key) {
			return s.name
		}
	}
	return defaultStore
}

func fromShopping(results []shoppingResult) []entity.PriceSource {
	out := make([]entity.PriceSource, 0, len(results))
	for _, r := range results {
		if isUsed(r.Title) {
			continue
		}
		price, ok := shoppingPrice(r.Price)
		if !ok {
			continue
		}
		store := r.Source
		if store == "" {
			store = "Online Store"
		}
		out = append(out, entity.PriceSource{Title: r.Title, Store: store, Price: price, URL: r.Link})
	}
	return out
}

func fromOrganic(results []organicResult) []entity.PriceSource {
	out := make([]entity.PriceSource, 0, len(results))
	for _, r := range results {
		text := r.Title + " " + r.Snippet
		if isUsed(text) {
			continue
		}
		price, ok := textPrice(text)
		if !ok {
			continue
		}
		out = append(out, entity.PriceSource{Title: r.Title, Store: storeFromURL(r.Link), Price: price, URL: r.Link})
	}
	return out
}

// buildReport сортирует предложения по цене и берёт верхнюю медиану.
func buildReport(query, currency string, sources []entity.PriceSource) *entity.MarketPrice {
	report := &entity.MarketPrice{
		Query:    query,
		Currency: currency,
		Source:   "Not Found",
		Results:  []entity.PriceSource{},
	}
	if len(sources) == 0 {
		return report
	}

	sorted := make([]entity.PriceSource, len(sources))
	copy(sorted, sources)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Price < sorted[j].Price })

	median := sorted[len(sorted)/2].Price
	report.Price = &median
	report.Confidence = min(0.95, 0.6+0.05*float64(len(sorted)))
	report.Source = fmt.Sprintf("Egyptian Retailers (%d sources)", len(sorted))
	report.Results = sorted
	report.Stats = &entity.PriceStats{
		Min:    sorted[0].Price,
		Max:    sorted[len(sorted)-1].Price,
		Median: median,
	}
	return report
}
