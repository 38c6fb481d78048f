//go:build gocv
// +build gocv

package vision

import (
	"image"

	"gocv.io/x/gocv"
)

// laplacianVariance дисперсия лапласиана 3x3 средствами OpenCV.
func laplacianVariance(gray *image.Gray) float64 {
	mat, err := gocv.ImageGrayToMatGray(gray)
	if err != nil || mat.Empty() {
		return 0
	}
	defer mat.Close()

	lap := gocv.NewMat()
	defer lap.Close()
	gocv.Laplacian(mat, &lap, gocv.MatTypeCV64F, 1, 1, 0, gocv.BorderDefault)

	mean := gocv.NewMat()
	defer mean.Close()
	stddev := gocv.NewMat()
	defer stddev.Close()
	gocv.MeanStdDev(lap, &mean, &stddev)

	sd := stddev.GetDoubleAt(0, 0)
	return sd * sd
}
