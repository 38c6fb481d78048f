package vision

import (
	"fmt"
	"image"

	"github.com/corona10/goimagehash"

	"resello/internal/domain/port"
)

// PerceptualHasher 64-битный DCT хеш (pHash).
type PerceptualHasher struct{}

var _ port.Fingerprinter = PerceptualHasher{}

func NewPerceptualHasher() PerceptualHasher {
	return PerceptualHasher{}
}

// Fingerprint считает pHash изображения.
func (PerceptualHasher) Fingerprint(img image.Image) (uint64, error) {
	if img == nil {
		return 0, fmt.Errorf("fingerprint: nil image")
	}
	h, err := goimagehash.PerceptionHash(img)
	if err != nil {
		return 0, fmt.Errorf("perception hash: %w", err)
	}
	return h.GetHash(), nil
}
