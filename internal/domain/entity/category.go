package entity

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownCategory возвращается для категории вне списка поддерживаемых.
	ErrUnknownCategory = errors.New("unknown product category")
	// ErrUnknownView возвращается, когда ракурс не входит в канонический список категории.
	ErrUnknownView = errors.New("view is not part of the inspection plan")
)

// ProductCategory тип проверяемого устройства
type ProductCategory string

const (
	CategoryLaptop ProductCategory = "Laptop"
	CategoryMobile ProductCategory = "Mobile"
)

// Categories перечисляет поддерживаемые категории в порядке показа пользователю.
var Categories = []ProductCategory{CategoryLaptop, CategoryMobile}

var inspectionViews = map[ProductCategory][]string{
	CategoryLaptop: {
		"Screen on (front, open)",
		"Keyboard & trackpad",
		"Top lid (closed)",
		"Left side ports",
		"Right side ports",
		"Bottom panel",
	},
	CategoryMobile: {
		"Front screen",
		"Back panel",
		"Left side (buttons)",
		"Right side (buttons)",
		"Bottom edge (charging port)",
		"Camera close-up",
	},
}

// ParseCategory разбирает название категории без учёта регистра.
func ParseCategory(s string) (ProductCategory, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "laptop":
		return CategoryLaptop, nil
	case "mobile", "phone", "smartphone":
		return CategoryMobile, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
}

// Views возвращает канонический список ракурсов. Порядок задаёт порядок съёмки.
func (c ProductCategory) Views() []string {
	views := inspectionViews[c]
	out := make([]string, len(views))
	copy(out, views)
	return out
}

// HasView проверяет, что ракурс входит в план проверки категории.
func (c ProductCategory) HasView(view string) bool {
	for _, v := range inspectionViews[c] {
		if v == view {
			return true
		}
	}
	return false
}

// Valid сообщает, поддерживается ли категория.
func (c ProductCategory) Valid() bool {
	_, ok := inspectionViews[c]
	return ok
}

func (c ProductCategory) String() string {
	return string(c)
}
