package validation

import (
	"fmt"
	"math/bits"

	"resello/internal/domain/port"
)

// DefaultDuplicateThreshold максимальное расстояние Хэмминга между хешами дубликатов.
const DefaultDuplicateThreshold = 5

// DuplicatePair пара почти одинаковых снимков: New загружен позже Previous.
type DuplicatePair struct {
	New      string `json:"new"`
	Previous string `json:"previous"`
	Distance int    `json:"distance"`
}

// Distance расстояние Хэмминга между 64-битными хешами.
func Distance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}

// DuplicateDetector ищет повторно загруженные снимки по перцептивному хешу.
type DuplicateDetector struct {
	fingerprinter port.Fingerprinter
	threshold     int
}

func NewDuplicateDetector(fp port.Fingerprinter, threshold int) *DuplicateDetector {
	if threshold < 0 {
		threshold = DefaultDuplicateThreshold
	}
	return &DuplicateDetector{fingerprinter: fp, threshold: threshold}
}

// FindDuplicates сравнивает каждый снимок со всеми предыдущими. Транзитивно пары
// не схлопываются: A≈B и B≈C дают две пары.
func (d *DuplicateDetector) FindDuplicates(views []NamedImage) ([]DuplicatePair, error) {
	hashes := make([]uint64, 0, len(views))
	pairs := []DuplicatePair{}
	for _, v := range views {
		h, err := d.fingerprinter.Fingerprint(v.Image)
		if err != nil {
			return nil, fmt.Errorf("fingerprint %q: %w", v.Name, err)
		}
		for j, prev := range hashes {
			if dist := Distance(h, prev); dist <= d.threshold {
				pairs = append(pairs, DuplicatePair{New: v.Name, Previous: views[j].Name, Distance: dist})
			}
		}
		hashes = append(hashes, h)
	}
	return pairs, nil
}
