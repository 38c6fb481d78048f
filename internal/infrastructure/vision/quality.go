package vision

import (
	"fmt"
	"image"

	"resello/internal/domain/entity"
	"resello/internal/domain/port"
)

// QualityLimits пороги качества снимка для категории.
type QualityLimits struct {
	MinWidth        int
	MinHeight       int
	SevereSharpness float64 // ниже снимок отклоняется
	BorderSharpness float64 // ниже снимок принимается с предупреждением
	MaxOverexposed  float64
	MaxUnderexposed float64
}

var defaultLimits = map[entity.ProductCategory]QualityLimits{
	entity.CategoryLaptop: {
		MinWidth:        800,
		MinHeight:       600,
		SevereSharpness: 30,
		BorderSharpness: 45,
		MaxOverexposed:  0.35,
		MaxUnderexposed: 0.45,
	},
	entity.CategoryMobile: {
		MinWidth:        400,
		MinHeight:       300,
		SevereSharpness: 12,
		BorderSharpness: 18,
		MaxOverexposed:  0.35,
		MaxUnderexposed: 0.45,
	},
}

// QualityGate проверяет разрешение, резкость (дисперсия лапласиана) и экспозицию.
// Реализация лапласиана зависит от тега сборки gocv.
type QualityGate struct {
	Limits map[entity.ProductCategory]QualityLimits
}

var _ port.QualityGate = (*QualityGate)(nil)

func NewQualityGate() *QualityGate {
	limits := make(map[entity.ProductCategory]QualityLimits, len(defaultLimits))
	for k, v := range defaultLimits {
		limits[k] = v
	}
	return &QualityGate{Limits: limits}
}

// Check проверки идут по порядку, первая проваленная завершает проверку.
// Пересвет и недосвет только предупреждают.
func (g *QualityGate) Check(img image.Image, category entity.ProductCategory) entity.QualityReport {
	limits, ok := g.Limits[category]
	if !ok {
		limits = defaultLimits[entity.CategoryLaptop]
	}

	b := img.Bounds()
	report := entity.QualityReport{Width: b.Dx(), Height: b.Dy()}
	if report.Width < limits.MinWidth || report.Height < limits.MinHeight {
		report.Reasons = append(report.Reasons, fmt.Sprintf("resolution too low: %dx%d", report.Width, report.Height))
		return report
	}

	gray := toGray(img)
	report.Sharpness = laplacianVariance(gray)
	switch {
	case report.Sharpness < limits.SevereSharpness:
		report.Level = entity.SharpnessSevere
		report.Reasons = append(report.Reasons, fmt.Sprintf("image too blurry (%s)", report.Level))
		return report
	case report.Sharpness < limits.BorderSharpness:
		report.Level = entity.SharpnessBorderline
		report.Warnings = append(report.Warnings, "borderline sharpness, accepted")
	default:
		report.Level = entity.SharpnessSharp
	}

	over, under := exposure(gray)
	if over > limits.MaxOverexposed {
		report.Warnings = append(report.Warnings, fmt.Sprintf("overexposed image (ratio=%.2f)", over))
	}
	if under > limits.MaxUnderexposed {
		report.Warnings = append(report.Warnings, fmt.Sprintf("underexposed image (ratio=%.2f)", under))
	}
	return report
}

// toGray переводит снимок в оттенки серого с весами BT.601, как cv::cvtColor.
func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			lum := (299*r + 587*g + 114*bl + 500) / 1000
			gray.Pix[(y-b.Min.Y)*gray.Stride+(x-b.Min.X)] = uint8(lum >> 8)
		}
	}
	return gray
}

// exposure доли пересвеченных (>250) и тёмных (<20) пикселей.
func exposure(gray *image.Gray) (over, under float64) {
	b := gray.Bounds()
	total := b.Dx() * b.Dy()
	if total == 0 {
		return 0, 0
	}
	var bright, dark int
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := gray.Pix[(y-b.Min.Y)*gray.Stride:]
		for x := 0; x < b.Dx(); x++ {
			switch v := row[x]; {
			case v > 250:
				bright++
			case v < 20:
				dark++
			}
		}
	}
	return float64(bright) / float64(total), float64(dark) / float64(total)
}
