package classify

import (
	"jbsym/internal/bitmap"
	"jbsym/pkg/geometry"
)

// refineAlignment searches the 3x3 neighborhood of integer offsets around
// the centroid-derived alignment and returns the (dx, dy) minimizing the
// symmetric-difference pixel count between the instance and the template
// shifted by that offset. All nine offsets are evaluated; ties keep the
// first-found offset in scan order (dy outer -1..1, dx inner -1..1), so
// the result is deterministic. shift is the rounded centroid difference
// already applied to the position estimate.
func refineAlignment(inst *instance, tpl *Template, shift geometry.PointInt) geometry.PointInt {
	best := geometry.PointInt{}
	bestCount := -1
	w, h := inst.bits.Width, inst.bits.Height
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			win, ok := tpl.window(w, h, shift.X+dx, shift.Y+dy)
			if !ok {
				continue
			}
			n, err := bitmap.XorCount(inst.bits, win)
			if err != nil {
				continue
			}
			if bestCount < 0 || n < bestCount {
				bestCount = n
				best = geometry.PointInt{X: dx, Y: dy}
			}
		}
	}
	return best
}
