// Package pageio loads document page images into packed binary bitmaps.
// PBM/PGM/PPM files are decoded with netpbm; PNG, JPEG, and TIFF go
// through the standard image decoders. Non-binary inputs are thresholded
// at a fixed gray cutoff; use binarize.Otsu for scanned grayscale pages.
package pageio

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/spakin/netpbm"
	_ "golang.org/x/image/tiff"

	"jbsym/internal/bitmap"
)

// DefaultThreshold is the gray cutoff below which a pixel counts as ink.
const DefaultThreshold = 128

// LoadImage reads a page image file without binarizing it.
func LoadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("pageio: open page: %w", err)
	}
	defer f.Close()

	var img image.Image
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pbm", ".pgm", ".ppm", ".pnm":
		img, err = netpbm.Decode(f, &netpbm.DecodeOptions{Target: netpbm.PNM})
	default:
		img, _, err = image.Decode(f)
	}
	if err != nil {
		return nil, fmt.Errorf("pageio: decode %s: %w", path, err)
	}
	return img, nil
}

// Load reads a page image file and converts it to a packed bitmap.
func Load(path string) (*bitmap.Bitmap, error) {
	img, err := LoadImage(path)
	if err != nil {
		return nil, err
	}
	return bitmap.FromImage(img, DefaultThreshold)
}

// LoadAll reads a list of page files in order.
func LoadAll(paths []string) ([]*bitmap.Bitmap, error) {
	pages := make([]*bitmap.Bitmap, 0, len(paths))
	for _, p := range paths {
		bm, err := Load(p)
		if err != nil {
			return nil, err
		}
		pages = append(pages, bm)
	}
	return pages, nil
}
