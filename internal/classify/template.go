package classify

import (
	"jbsym/internal/bitmap"
	"jbsym/pkg/geometry"
)

// Template is the exemplar bitmap for one symbol class. The stored bitmap
// is padded by templateBorder background pixels on all sides; Width and
// Height describe the unpadded interior. Templates are never mutated after
// creation: the first instance promoted to a class stays its exemplar.
type Template struct {
	Bits     *bitmap.Bitmap   // bordered exemplar
	Width    int              // interior width
	Height   int              // interior height
	Centroid geometry.Point2D // relative to the interior origin
	FgPixels int              // interior foreground pixel count
	Page     int              // page index the class first appeared on
}

// Area returns the interior width times height, the size-index key.
func (t *Template) Area() int {
	return t.Width * t.Height
}

// newTemplate promotes an instance bitmap to a class exemplar. The
// centroid must be the instance's own (already computed) centroid.
func newTemplate(inst *bitmap.Bitmap, centroid geometry.Point2D, page int) *Template {
	return &Template{
		Bits:     inst.AddBorder(templateBorder),
		Width:    inst.Width,
		Height:   inst.Height,
		Centroid: centroid,
		FgPixels: inst.CountPixels(),
		Page:     page,
	}
}

// interior returns a copy of the unpadded template bitmap.
func (t *Template) interior() *bitmap.Bitmap {
	bm, err := t.Bits.ExtractRect(templateBorder, templateBorder, t.Width, t.Height)
	if err != nil {
		// The border is part of the construction invariant; this cannot
		// fail for a template built by newTemplate.
		panic(err)
	}
	return bm
}

// window extracts an interior-aligned w x h view shifted by (dx, dy):
// window pixel (i, j) reads template interior pixel (i - dx, j - dy).
// The second return is false when the shift runs past the border.
func (t *Template) window(w, h, dx, dy int) (*bitmap.Bitmap, bool) {
	x := templateBorder - dx
	y := templateBorder - dy
	if x < 0 || y < 0 || x+w > t.Bits.Width || y+h > t.Bits.Height {
		return nil, false
	}
	bm, err := t.Bits.ExtractRect(x, y, w, h)
	if err != nil {
		return nil, false
	}
	return bm, true
}
