package classify

import (
	"math"

	"jbsym/internal/bitmap"
	"jbsym/pkg/geometry"
)

// instance is one component occurrence being classified, with its derived
// quantities computed once up front.
type instance struct {
	bits     *bitmap.Bitmap
	box      geometry.Box
	centroid geometry.Point2D // relative to the instance bitmap origin
	fg       int
}

// scorer decides whether an instance matches a size-compatible candidate
// template. shift is the rounded centroid difference (instance minus
// template) that aligns the two bitmaps. First-fit: the classifier accepts
// the first candidate, in search order, for which match returns true.
type scorer interface {
	match(inst *instance, tpl *Template, shift geometry.PointInt) (bool, error)
}

// correlationScorer accepts when |A AND B| / sqrt(|A| * |B|) reaches the
// effective threshold. The effective threshold rises with the template's
// foreground density: heavy glyphs need a tighter correlation to avoid
// false merges, since their accidental overlap is already high.
type correlationScorer struct {
	thresh       float64
	weightFactor float64
}

func (s correlationScorer) match(inst *instance, tpl *Template, shift geometry.PointInt) (bool, error) {
	win, ok := tpl.window(inst.bits.Width, inst.bits.Height, shift.X, shift.Y)
	if !ok {
		// The centroid shift runs past the template border; overlap at
		// such a misalignment cannot reach any legal threshold.
		return false, nil
	}
	overlap, err := bitmap.AndCount(inst.bits, win)
	if err != nil {
		return false, err
	}
	if inst.fg == 0 || tpl.FgPixels == 0 {
		return false, nil
	}
	density := float64(tpl.FgPixels) / float64(tpl.Area())
	threshold := s.thresh + (1-s.thresh)*s.weightFactor*density
	score := float64(overlap) / math.Sqrt(float64(inst.fg)*float64(tpl.FgPixels))
	return score >= threshold, nil
}

// rankHausScorer accepts when, in both directions, at least a rank
// fraction of one image's foreground lies within the structuring element's
// reach of the other, tested by dilating one side and counting uncovered
// pixels on the other. Rank 1.0 is the strict Hausdorff criterion.
type rankHausScorer struct {
	rank float64
	sel  bitmap.Sel
}

func (s rankHausScorer) match(inst *instance, tpl *Template, shift geometry.PointInt) (bool, error) {
	// Overlay the instance onto a canvas in the bordered template's
	// coordinate frame, aligned by the centroid shift.
	canvas, err := bitmap.New(tpl.Bits.Width, tpl.Bits.Height)
	if err != nil {
		return false, err
	}
	canvas.Paint(inst.bits, templateBorder-shift.X, templateBorder-shift.Y)

	tplDilated := tpl.Bits.Dilate(s.sel)
	uncovered, err := bitmap.AndNotCount(canvas, tplDilated)
	if err != nil {
		return false, err
	}
	if !s.withinRank(uncovered, inst.fg) {
		return false, nil
	}

	instDilated := canvas.Dilate(s.sel)
	uncovered, err = bitmap.AndNotCount(tpl.Bits, instDilated)
	if err != nil {
		return false, err
	}
	return s.withinRank(uncovered, tpl.FgPixels), nil
}

// withinRank reports whether the uncovered count leaves at least a rank
// fraction of total covered.
func (s rankHausScorer) withinRank(uncovered, total int) bool {
	if total == 0 {
		return false
	}
	return float64(uncovered) <= (1-s.rank)*float64(total)
}

// newScorer builds the scorer configured by validated params.
func newScorer(p Params) (scorer, error) {
	switch p.Method {
	case MethodCorrelation:
		return correlationScorer{thresh: p.Thresh, weightFactor: p.WeightFactor}, nil
	case MethodRankHaus:
		sel, err := bitmap.NewRectSel(p.SelSize)
		if err != nil {
			return nil, err
		}
		return rankHausScorer{rank: p.Rank, sel: sel}, nil
	default:
		return nil, ErrBadMethod
	}
}
