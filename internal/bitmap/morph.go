package bitmap

import "fmt"

// Sel is a rectangular structuring element with an explicit origin.
type Sel struct {
	Width  int
	Height int
	Cx     int // origin column
	Cy     int // origin row
}

// NewRectSel returns a size x size structuring element with a centered
// origin. A size of 1 is the identity element.
func NewRectSel(size int) (Sel, error) {
	if size < 1 {
		return Sel{}, fmt.Errorf("%w: sel size %d", ErrBadSize, size)
	}
	return Sel{Width: size, Height: size, Cx: size / 2, Cy: size / 2}, nil
}

// Boundary selects how pixels outside the image are treated during
// erosion. Dilation always treats off-image pixels as background.
type Boundary int

const (
	// BoundaryBackground treats off-image pixels as background, so
	// erosion eats away the image rim.
	BoundaryBackground Boundary = iota
	// BoundaryForeground treats off-image pixels as foreground, so
	// shapes touching the rim keep their boundary pixels.
	BoundaryForeground
)

// Dilate returns the dilation of b by sel: a pixel is foreground if any
// source pixel within the reflected structuring element's reach is.
func (b *Bitmap) Dilate(sel Sel) *Bitmap {
	out, _ := New(b.Width, b.Height)
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			if !b.Get(x, y) {
				continue
			}
			for j := 0; j < sel.Height; j++ {
				for i := 0; i < sel.Width; i++ {
					out.Set(x+i-sel.Cx, y+j-sel.Cy)
				}
			}
		}
	}
	return out
}

// Erode returns the erosion of b by sel: a pixel stays foreground only if
// every pixel under the structuring element is foreground. The boundary
// parameter determines how off-image positions count.
func (b *Bitmap) Erode(sel Sel, boundary Boundary) *Bitmap {
	out, _ := New(b.Width, b.Height)
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			if eroded(b, sel, x, y, boundary) {
				out.Set(x, y)
			}
		}
	}
	return out
}

func eroded(b *Bitmap, sel Sel, x, y int, boundary Boundary) bool {
	for j := 0; j < sel.Height; j++ {
		for i := 0; i < sel.Width; i++ {
			sx := x + i - sel.Cx
			sy := y + j - sel.Cy
			if sx < 0 || sx >= b.Width || sy < 0 || sy >= b.Height {
				if boundary == BoundaryForeground {
					continue
				}
				return false
			}
			if !b.Get(sx, sy) {
				return false
			}
		}
	}
	return true
}
