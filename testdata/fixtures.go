// Package testdata provides synthetic camera imagery for tests, so the
// suite never depends on checked-in image files or a physical camera.
package testdata

import (
	"gocv.io/x/gocv"
)

// SolidMat returns a BGR image filled with a single gray level.
func SolidMat(width, height int, fill uint8) gocv.Mat {
	mat := gocv.NewMatWithSize(height, width, gocv.MatTypeCV8UC3)
	mat.SetTo(gocv.NewScalar(float64(fill), float64(fill), float64(fill), 0))
	return mat
}

// GradientMat returns a BGR image with a horizontal gradient. Unlike a
// solid fill it survives JPEG round trips with visible structure, which
// makes encoded-stream assertions meaningful.
func GradientMat(width, height int) gocv.Mat {
	mat := gocv.NewMatWithSize(height, width, gocv.MatTypeCV8UC3)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := uint8(x * 255 / width)
			mat.SetUCharAt(y, x*3, v)
			mat.SetUCharAt(y, x*3+1, v)
			mat.SetUCharAt(y, x*3+2, 255-v)
		}
	}
	return mat
}
