//go:build !gocv
// +build !gocv

package vision

import "image"

// laplacianVariance дисперсия лапласиана 3x3 (ядро 0 1 0 / 1 -4 1 / 0 1 0)
// с отражением границы, как BORDER_REFLECT_101 в OpenCV.
func laplacianVariance(gray *image.Gray) float64 {
	b := gray.Bounds()
	w, h := b.Dx(), b.Dy()
	if w < 2 || h < 2 {
		return 0
	}

	at := func(x, y int) float64 {
		x = reflect101(x, w)
		y = reflect101(y, h)
		return float64(gray.Pix[y*gray.Stride+x])
	}

	var sum, sumSq float64
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			l := at(x-1, y) + at(x+1, y) + at(x, y-1) + at(x, y+1) - 4*at(x, y)
			sum += l
			sumSq += l * l
		}
	}
	n := float64(w * h)
	mean := sum / n
	return sumSq/n - mean*mean
}

func reflect101(i, n int) int {
	switch {
	case i < 0:
		return -i
	case i >= n:
		return 2*n - i - 2
	}
	return i
}
