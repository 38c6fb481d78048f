// Package validation проверяет загруженные ракурсы: соответствие ракурсу, категории и дубликаты.
package validation

import "resello/internal/domain/entity"

// viewLabels кандидаты для zero-shot проверки ракурса. Индекс 0 всегда правильное описание,
// последний элемент "unrelated".
var viewLabels = map[string][]string{
	"Screen on (front, open)": {
		"a clear photo showing the full screen of an open laptop",
		"a photo of just the laptop keyboard, screen not visible",
		"a close-up portrait of a single corner or hinge of a laptop",
		"a photo of an unrelated object, blurry scene, or extremely cropped image",
	},
	"Keyboard & trackpad": {
		"a photo showing a laptop keyboard",
		"a photo of an unrelated object or scenery",
	},
	"Top lid (closed)": {
		"a photo of the smooth outer top lid of a closed laptop with brand logo or stickers",
		"a photo of the bottom base panel of a laptop with vents screws and rubber feet",
		"a photo of an open laptop showing keyboard or screen",
		"a photo of an unrelated object",
	},
	"Left side ports": {
		"a photo of the left side edge of a laptop",
		"a photo of an unrelated object or scenery",
	},
	"Right side ports": {
		"a photo of the right side edge of a laptop",
		"a photo of an unrelated object or scenery",
	},
	"Bottom panel": {
		"a photo of the large flat bottom base panel of a laptop with screws vents and rubber feet",
		"a photo of the smooth top lid of a closed laptop with brand logo",
		"a photo of the narrow side edge of a laptop",
		"a photo of an unrelated object",
	},
	"Front screen": {
		"a handheld mobile photo of the front screen display of a smartphone with bezels and notch",
		"a photo of the back panel of a phone with camera lenses",
		"a photo of an unrelated object",
	},
	"Back panel": {
		"a wide photo of the complete full back panel of a smartphone showing the entire uncropped rear surface from top to bottom",
		"a cropped close-up photo showing only part of the phone or just the camera module",
		"a photo of the front screen of a smartphone",
		"a photo of an unrelated object",
	},
	"Left side (buttons)": {
		"a photo of the side edge of a smartphone with volume or power buttons",
		"a photo of the bottom edge with charging port and speaker holes",
		"a photo of an unrelated object",
	},
	"Right side (buttons)": {
		"a photo of the side edge of a smartphone with volume or power buttons",
		"a photo of the bottom edge with charging port and speaker holes",
		"a photo of an unrelated object",
	},
	"Bottom edge (charging port)": {
		"a photo of the bottom edge of a smartphone showing USB charging port and speaker holes",
		"a photo of the side edge of a smartphone showing volume or power buttons",
		"a photo of an unrelated object",
	},
	"Camera close-up": {
		"a close-up handheld photo of the rear camera lens and sensors of a smartphone",
		"a photo of an unrelated object",
	},
}

// viewMargins персональные пороги margin. Боковые грани почти не отличаются от
// посторонних предметов, поэтому порог у них близок к нулю.
var viewMargins = map[string]float64{
	"Screen on (front, open)": 0.35,
	"Keyboard & trackpad":     0.10,
	"Top lid (closed)":        0.15,
	"Bottom panel":            0.30,
	"Left side ports":         0.005,
	"Right side ports":        0.005,

	"Front screen":                0.25,
	"Back panel":                  0.18,
	"Left side (buttons)":         0.05,
	"Right side (buttons)":        0.05,
	"Bottom edge (charging port)": 0.15,
	"Camera close-up":             0.20,
}

// categoryMargins порог по умолчанию для ракурсов без персонального значения.
var categoryMargins = map[entity.ProductCategory]float64{
	entity.CategoryLaptop: 0.6,
	entity.CategoryMobile: 0.3,
}

// ViewLabels возвращает копию кандидатов ракурса и false, если ракурс не зарегистрирован.
func ViewLabels(view string) ([]string, bool) {
	labels, ok := viewLabels[view]
	if !ok {
		return nil, false
	}
	out := make([]string, len(labels))
	copy(out, labels)
	return out, true
}

// RequiredMargin порог margin для ракурса.
func RequiredMargin(view string, category entity.ProductCategory) float64 {
	if m, ok := viewMargins[view]; ok {
		return m
	}
	if m, ok := categoryMargins[category]; ok {
		return m
	}
	return categoryMargins[entity.CategoryLaptop]
}

// Метки проверки категории. Порядок совпадает с categoryClasses.
var categoryLabels = []string{
	"a photo of a laptop computer",
	"a photo of a smartphone",
	"a photo of an unrelated object, artwork, pattern, or scenery",
}

// CategoryUnrelated класс "посторонний предмет".
const CategoryUnrelated = "Unrelated"

var categoryClasses = []string{
	string(entity.CategoryLaptop),
	string(entity.CategoryMobile),
	CategoryUnrelated,
}

const unrelatedIndex = 2

func categoryIndex(c entity.ProductCategory) int {
	for i, name := range categoryClasses {
		if name == string(c) {
			return i
		}
	}
	return -1
}
