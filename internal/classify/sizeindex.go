package classify

// sizeIndex buckets template indices by interior area (width*height).
// It is append-only: a template joins exactly one bucket at creation and
// is never moved or removed.
type sizeIndex map[int][]int

func (s sizeIndex) add(area, tmplIndex int) {
	s[area] = append(s[area], tmplIndex)
}

// spiralOffsets is the fixed candidate-search walk over (dw, dh) size
// offsets with |dw|,|dh| <= 2: the exact size first, then the four
// axis-adjacent neighbors, then the diagonal neighbors, then the
// remaining distance-2 offsets. 25 entries total.
var spiralOffsets = [25][2]int{
	{0, 0},
	{1, 0}, {0, 1}, {-1, 0}, {0, -1},
	{1, 1}, {-1, 1}, {-1, -1}, {1, -1},
	{2, 0}, {0, 2}, {-2, 0}, {0, -2},
	{2, 1}, {1, 2}, {-1, 2}, {-2, 1},
	{-2, -1}, {-1, -2}, {1, -2}, {2, -1},
	{2, 2}, {-2, 2}, {-2, -2}, {2, -2},
}

// candidateIter lazily enumerates size-compatible template indices for a
// target (width, height), in spiral order. Buckets are keyed by area, so
// each yielded index is re-checked for exact (width, height) equality;
// different rectangles can share a product.
//
// The iterator reads the template slice it was created with; the caller
// must not append templates while iterating.
type candidateIter struct {
	templates []*Template
	index     sizeIndex
	w, h      int

	step   int // next spiralOffsets entry
	bucket []int
	pos    int // next position within bucket
	bw, bh int // exact size the current bucket is filtered by
}

// newCandidateIter starts a fresh walk for one instance size.
func newCandidateIter(templates []*Template, index sizeIndex, w, h int) *candidateIter {
	return &candidateIter{templates: templates, index: index, w: w, h: h}
}

// Next returns the next size-compatible template index. The second return
// is false when the walk is exhausted — a normal, non-error termination.
func (it *candidateIter) Next() (int, bool) {
	for {
		for it.pos < len(it.bucket) {
			ti := it.bucket[it.pos]
			it.pos++
			t := it.templates[ti]
			if t.Width == it.bw && t.Height == it.bh {
				return ti, true
			}
		}
		if it.step >= len(spiralOffsets) {
			return 0, false
		}
		off := spiralOffsets[it.step]
		it.step++
		it.bw = it.w + off[0]
		it.bh = it.h + off[1]
		if it.bw < 1 || it.bh < 1 {
			it.bucket = nil
			it.pos = 0
			continue
		}
		it.bucket = it.index[it.bw*it.bh]
		it.pos = 0
	}
}
