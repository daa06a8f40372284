package classify

import (
	"jbsym/internal/bitmap"
)

// Record maps one classified instance to its class and the page position
// the template must be placed at to reproduce it.
type Record struct {
	Page  int `json:"page"`
	Class int `json:"class"`
	X     int `json:"x"`
	Y     int `json:"y"`
}

// Result is the serializable outcome of a classification run: the ordered
// template stream and the ordered instance stream, ready to hand to an
// entropy coder. It holds copies, never live aliases into classifier
// state, so the classifier may keep running or be discarded after the
// snapshot is taken.
type Result struct {
	Pages      int
	PageWidth  int // maximum page width seen
	PageHeight int // maximum page height seen

	// Lattice cell size: every template fits in a cell one pixel larger
	// than the largest template in each dimension.
	LatticeWidth  int
	LatticeHeight int

	// Templates holds the unpadded class exemplars; index i is class i,
	// in order of first creation.
	Templates []*bitmap.Bitmap

	// Records holds one entry per classified instance, in classification
	// order (page-major, raster order within a page).
	Records []Record
}

// Result snapshots the classifier's current state.
func (c *Classifier) Result() *Result {
	r := &Result{
		Pages:      c.pages,
		PageWidth:  c.pageWidth,
		PageHeight: c.pageHeight,
		Templates:  make([]*bitmap.Bitmap, len(c.templates)),
		Records:    make([]Record, len(c.records)),
	}
	copy(r.Records, c.records)
	maxW, maxH := 0, 0
	for i, t := range c.templates {
		r.Templates[i] = t.interior()
		if t.Width > maxW {
			maxW = t.Width
		}
		if t.Height > maxH {
			maxH = t.Height
		}
	}
	r.LatticeWidth = maxW + 1
	r.LatticeHeight = maxH + 1
	return r
}

// RenderPage reconstructs page p by stamping each record's template at its
// recorded position. Useful for verification and for inspecting lossy
// differences against the source page.
func (r *Result) RenderPage(p int) (*bitmap.Bitmap, error) {
	page, err := bitmap.New(maxInt(r.PageWidth, 1), maxInt(r.PageHeight, 1))
	if err != nil {
		return nil, err
	}
	for _, rec := range r.Records {
		if rec.Page != p {
			continue
		}
		page.Paint(r.Templates[rec.Class], rec.X, rec.Y)
	}
	return page, nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
