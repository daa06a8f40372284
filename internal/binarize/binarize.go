// Package binarize converts grayscale scans to binary page bitmaps using
// Otsu's global threshold.
package binarize

import (
	"errors"
	"fmt"
	"image"
	"image/draw"

	"gocv.io/x/gocv"

	"jbsym/internal/bitmap"
)

// ErrNilImage indicates a nil input image.
var ErrNilImage = errors.New("binarize: input image is nil")

// Otsu thresholds a scan with Otsu's method and returns a packed bitmap
// with the dark side as foreground.
func Otsu(img image.Image) (*bitmap.Bitmap, error) {
	if img == nil {
		return nil, ErrNilImage
	}
	gray := toGray(img)
	mat, err := gocv.ImageGrayToMatGray(gray)
	if err != nil {
		return nil, fmt.Errorf("binarize: convert to mat: %w", err)
	}
	defer mat.Close()

	bin := gocv.NewMat()
	defer bin.Close()
	gocv.Threshold(mat, &bin, 0, 255, gocv.ThresholdBinary|gocv.ThresholdOtsu)

	w, h := bin.Cols(), bin.Rows()
	out, err := bitmap.New(w, h)
	if err != nil {
		return nil, err
	}
	data := bin.ToBytes()
	for y := 0; y < h; y++ {
		row := data[y*w : (y+1)*w]
		for x, v := range row {
			if v == 0 { // ink is the dark side of the threshold
				out.Set(x, y)
			}
		}
	}
	return out, nil
}

func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	bounds := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(gray, gray.Bounds(), img, bounds.Min, draw.Src)
	return gray
}
