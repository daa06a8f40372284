package classify

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"jbsym/internal/bitmap"
	"jbsym/pkg/geometry"
)

// ErrNoComposites indicates composite templates were requested from a
// classifier built without KeepComposites.
var ErrNoComposites = errors.New("classify: composites were not accumulated")

// ErrBadOccupancy indicates an occupancy fraction outside (0, 1].
var ErrBadOccupancy = errors.New("classify: occupancy fraction out of range")

// compositeSet accumulates aligned instances into per-class grayscale
// composites. Each class's accumulator spans its bordered template frame;
// matched instances are added at their refined alignment, so the composite
// sharpens rather than smears. Thresholding the composite yields a cleaned
// replacement template.
type compositeSet struct {
	accs    []*mat.Dense
	counts  []int
	widths  []int // interior dims, for the final crop
	heights []int
}

func newCompositeSet() *compositeSet {
	return &compositeSet{}
}

// add accumulates one instance into its class composite. shift is the
// total alignment (centroid shift plus refinement offset) applied to the
// instance's position record.
func (cs *compositeSet) add(class int, tpl *Template, inst *instance, shift geometry.PointInt) {
	for len(cs.accs) <= class {
		cs.accs = append(cs.accs, nil)
		cs.counts = append(cs.counts, 0)
		cs.widths = append(cs.widths, 0)
		cs.heights = append(cs.heights, 0)
	}
	if cs.accs[class] == nil {
		cs.accs[class] = mat.NewDense(tpl.Bits.Height, tpl.Bits.Width, nil)
		cs.widths[class] = tpl.Width
		cs.heights[class] = tpl.Height
	}
	acc := cs.accs[class]
	rows, cols := acc.Dims()
	for y := 0; y < inst.bits.Height; y++ {
		for x := 0; x < inst.bits.Width; x++ {
			if !inst.bits.Get(x, y) {
				continue
			}
			cx := templateBorder + x - shift.X
			cy := templateBorder + y - shift.Y
			if cx < 0 || cx >= cols || cy < 0 || cy >= rows {
				continue
			}
			acc.Set(cy, cx, acc.At(cy, cx)+1)
		}
	}
	cs.counts[class]++
}

// finalize thresholds each composite at the occupancy fraction of its
// instance count and crops back to the interior template size.
func (cs *compositeSet) finalize(occupancy float64) ([]*bitmap.Bitmap, error) {
	out := make([]*bitmap.Bitmap, len(cs.accs))
	for ci, acc := range cs.accs {
		if acc == nil {
			continue
		}
		cutoff := occupancy * float64(cs.counts[ci])
		rows, cols := acc.Dims()
		bordered, err := bitmap.New(cols, rows)
		if err != nil {
			return nil, err
		}
		for y := 0; y < rows; y++ {
			for x := 0; x < cols; x++ {
				if acc.At(y, x) >= cutoff {
					bordered.Set(x, y)
				}
			}
		}
		cropped, err := bordered.ExtractRect(templateBorder, templateBorder, cs.widths[ci], cs.heights[ci])
		if err != nil {
			return nil, fmt.Errorf("classify: crop composite for class %d: %w", ci, err)
		}
		out[ci] = cropped
	}
	return out, nil
}

// CompositeTemplates returns cleaned templates built by thresholding each
// class's accumulated composite at the given occupancy fraction. The
// classifier must have been constructed with KeepComposites.
func (c *Classifier) CompositeTemplates(occupancy float64) ([]*bitmap.Bitmap, error) {
	if c.composites == nil {
		return nil, ErrNoComposites
	}
	if occupancy <= 0 || occupancy > 1 {
		return nil, fmt.Errorf("%w: %g not in (0, 1]", ErrBadOccupancy, occupancy)
	}
	return c.composites.finalize(occupancy)
}
