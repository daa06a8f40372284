// Package bitmap implements a packed 1 bit/pixel raster and the boolean and
// morphological primitives the classifier needs: pixel counting, centroids,
// window extraction, XOR/AND counts, and binary erosion/dilation by a
// rectangular structuring element.
package bitmap

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math/bits"

	"jbsym/pkg/geometry"
)

const wordBits = 64

var (
	// ErrBadSize indicates a non-positive width or height.
	ErrBadSize = errors.New("bitmap: width and height must be positive")
	// ErrSizeMismatch indicates two bitmaps of different dimensions where
	// equal dimensions are required.
	ErrSizeMismatch = errors.New("bitmap: bitmaps must have equal dimensions")
	// ErrOutOfBounds indicates a window that does not fit inside the bitmap.
	ErrOutOfBounds = errors.New("bitmap: window out of bounds")
)

// Bitmap is a packed binary raster. Rows are stored MSB-first in 64-bit
// words; bit x of a row lives in Words[row*Stride + x/64] at bit position
// 63 - x%64. Padding bits past Width in the last word of each row are
// always zero, which lets counting operations work word-parallel without
// per-row masking.
type Bitmap struct {
	Width  int
	Height int
	Stride int // words per row
	Words  []uint64
}

// New creates an all-background bitmap of the given size.
func New(width, height int) (*Bitmap, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrBadSize, width, height)
	}
	stride := (width + wordBits - 1) / wordBits
	return &Bitmap{
		Width:  width,
		Height: height,
		Stride: stride,
		Words:  make([]uint64, stride*height),
	}, nil
}

// MustNew is New for dimensions known to be valid; it panics otherwise.
// Intended for tests and constant-size construction.
func MustNew(width, height int) *Bitmap {
	b, err := New(width, height)
	if err != nil {
		panic(err)
	}
	return b
}

// Clone returns a deep copy.
func (b *Bitmap) Clone() *Bitmap {
	out := &Bitmap{
		Width:  b.Width,
		Height: b.Height,
		Stride: b.Stride,
		Words:  make([]uint64, len(b.Words)),
	}
	copy(out.Words, b.Words)
	return out
}

// Get reports whether pixel (x, y) is foreground. Out-of-range pixels
// read as background.
func (b *Bitmap) Get(x, y int) bool {
	if x < 0 || x >= b.Width || y < 0 || y >= b.Height {
		return false
	}
	w := b.Words[y*b.Stride+x/wordBits]
	return w&(1<<(wordBits-1-uint(x%wordBits))) != 0
}

// Set turns pixel (x, y) to foreground. Out-of-range pixels are ignored.
func (b *Bitmap) Set(x, y int) {
	if x < 0 || x >= b.Width || y < 0 || y >= b.Height {
		return
	}
	b.Words[y*b.Stride+x/wordBits] |= 1 << (wordBits - 1 - uint(x%wordBits))
}

// ClearPixel turns pixel (x, y) to background.
func (b *Bitmap) ClearPixel(x, y int) {
	if x < 0 || x >= b.Width || y < 0 || y >= b.Height {
		return
	}
	b.Words[y*b.Stride+x/wordBits] &^= 1 << (wordBits - 1 - uint(x%wordBits))
}

// CountPixels returns the number of foreground pixels.
func (b *Bitmap) CountPixels() int {
	n := 0
	for _, w := range b.Words {
		n += bits.OnesCount64(w)
	}
	return n
}

// Empty reports whether the bitmap has no foreground pixels.
func (b *Bitmap) Empty() bool {
	for _, w := range b.Words {
		if w != 0 {
			return false
		}
	}
	return true
}

// Equal reports whether two bitmaps have identical size and content.
func (b *Bitmap) Equal(other *Bitmap) bool {
	if b.Width != other.Width || b.Height != other.Height {
		return false
	}
	for i, w := range b.Words {
		if other.Words[i] != w {
			return false
		}
	}
	return true
}

// Centroid returns the mean (x, y) of all foreground pixels, relative to
// the bitmap's own origin. The second return is false for an empty bitmap.
func (b *Bitmap) Centroid() (geometry.Point2D, bool) {
	var sumX, sumY, n float64
	for y := 0; y < b.Height; y++ {
		row := b.Words[y*b.Stride : y*b.Stride+b.Stride]
		for wi, w := range row {
			for w != 0 {
				lead := bits.LeadingZeros64(w)
				x := wi*wordBits + lead
				sumX += float64(x)
				sumY += float64(y)
				n++
				w &^= 1 << (wordBits - 1 - uint(lead))
			}
		}
	}
	if n == 0 {
		return geometry.Point2D{}, false
	}
	return geometry.Point2D{X: sumX / n, Y: sumY / n}, true
}

// AndCount returns the number of pixels foreground in both bitmaps.
// The bitmaps must have equal dimensions.
func AndCount(a, b *Bitmap) (int, error) {
	if a.Width != b.Width || a.Height != b.Height {
		return 0, ErrSizeMismatch
	}
	n := 0
	for i, w := range a.Words {
		n += bits.OnesCount64(w & b.Words[i])
	}
	return n, nil
}

// XorCount returns the number of pixels foreground in exactly one of the
// two bitmaps (the symmetric difference count).
func XorCount(a, b *Bitmap) (int, error) {
	if a.Width != b.Width || a.Height != b.Height {
		return 0, ErrSizeMismatch
	}
	n := 0
	for i, w := range a.Words {
		n += bits.OnesCount64(w ^ b.Words[i])
	}
	return n, nil
}

// AndNotCount returns the number of pixels foreground in a but not in b.
func AndNotCount(a, b *Bitmap) (int, error) {
	if a.Width != b.Width || a.Height != b.Height {
		return 0, ErrSizeMismatch
	}
	n := 0
	for i, w := range a.Words {
		n += bits.OnesCount64(w &^ b.Words[i])
	}
	return n, nil
}

// ExtractRect copies the window of size (w, h) at (x, y) into a new bitmap.
// The window must lie entirely inside b.
func (b *Bitmap) ExtractRect(x, y, w, h int) (*Bitmap, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrBadSize, w, h)
	}
	if x < 0 || y < 0 || x+w > b.Width || y+h > b.Height {
		return nil, fmt.Errorf("%w: %dx%d at (%d,%d) in %dx%d",
			ErrOutOfBounds, w, h, x, y, b.Width, b.Height)
	}
	out, _ := New(w, h)
	for row := 0; row < h; row++ {
		src := b.Words[(y+row)*b.Stride : (y+row+1)*b.Stride]
		dst := out.Words[row*out.Stride : (row+1)*out.Stride]
		for wi := range dst {
			s := x + wi*wordBits // first source bit for this word
			k := s / wordBits
			off := uint(s % wordBits)
			v := src[k] << off
			if off > 0 && k+1 < len(src) {
				v |= src[k+1] >> (wordBits - off)
			}
			dst[wi] = v
		}
		// Zero the padding bits past w in the last word.
		if rem := w % wordBits; rem != 0 {
			dst[len(dst)-1] &= ^uint64(0) << (wordBits - uint(rem))
		}
	}
	return out, nil
}

// AddBorder returns a copy padded by npix background pixels on all sides.
func (b *Bitmap) AddBorder(npix int) *Bitmap {
	out, _ := New(b.Width+2*npix, b.Height+2*npix)
	blitOr(out, b, npix, npix)
	return out
}

// blitOr ORs src into dst with src's origin at (x, y) in dst coordinates.
// Pixels falling outside dst are dropped.
func blitOr(dst, src *Bitmap, x, y int) {
	for sy := 0; sy < src.Height; sy++ {
		dy := y + sy
		if dy < 0 || dy >= dst.Height {
			continue
		}
		for sx := 0; sx < src.Width; sx++ {
			if src.Get(sx, sy) {
				dst.Set(x+sx, dy)
			}
		}
	}
}

// Paint ORs src into b with src's origin at (x, y). Out-of-range source
// pixels are dropped.
func (b *Bitmap) Paint(src *Bitmap, x, y int) {
	blitOr(b, src, x, y)
}

// ForegroundBox returns the tight bounding box of all foreground pixels.
// The second return is false for an empty bitmap.
func (b *Bitmap) ForegroundBox() (geometry.Box, bool) {
	minX, minY := b.Width, b.Height
	maxX, maxY := -1, -1
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			if !b.Get(x, y) {
				continue
			}
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}
		}
	}
	if maxX < 0 {
		return geometry.Box{}, false
	}
	return geometry.NewBox(minX, minY, maxX-minX+1, maxY-minY+1), true
}

// FromImage converts an image to a packed bitmap. Pixels whose gray value
// is strictly below threshold become foreground (scanned documents are
// dark ink on light paper).
func FromImage(img image.Image, threshold uint8) (*Bitmap, error) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	out, err := New(w, h)
	if err != nil {
		return nil, err
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			g := color.GrayModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.Gray)
			if g.Y < threshold {
				out.Set(x, y)
			}
		}
	}
	return out, nil
}

// ToImage renders the bitmap as a grayscale image with black foreground
// on white background.
func (b *Bitmap) ToImage() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, b.Width, b.Height))
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			if b.Get(x, y) {
				img.SetGray(x, y, color.Gray{Y: 0})
			} else {
				img.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return img
}
