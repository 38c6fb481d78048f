package port

import (
	"image"

	"resello/internal/domain/entity"
)

// Fingerprinter считает перцептивный хеш изображения
type Fingerprinter interface {
	Fingerprint(img image.Image) (uint64, error)
}

// QualityGate проверяет разрешение и резкость снимка до классификации
type QualityGate interface {
	Check(img image.Image, category entity.ProductCategory) entity.QualityReport
}
