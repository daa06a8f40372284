package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jbsym/internal/bitmap"
	"jbsym/internal/seg"
	"jbsym/pkg/geometry"
)

// paintSquare stamps a filled size x size square at (x, y).
func paintSquare(page *bitmap.Bitmap, x, y, size int) {
	for dy := 0; dy < size; dy++ {
		for dx := 0; dx < size; dx++ {
			page.Set(x+dx, y+dy)
		}
	}
}

func TestAddPageNil(t *testing.T) {
	c, err := New(DefaultParams())
	require.NoError(t, err)
	assert.ErrorIs(t, c.AddPage(nil), ErrNilPage)
}

// An all-background page yields zero instances and zero classes.
func TestAddPageEmpty(t *testing.T) {
	c, err := New(DefaultParams())
	require.NoError(t, err)
	require.NoError(t, c.AddPage(bitmap.MustNew(100, 100)))
	assert.Zero(t, c.NumClasses())
	assert.Zero(t, c.NumInstances())
	assert.Equal(t, 1, c.Result().Pages)
}

// A template's own source bitmap, fed back as the next instance, matches
// its own class with zero alignment offset.
func TestSelfClassification(t *testing.T) {
	c, err := New(DefaultParams())
	require.NoError(t, err)

	glyph := bitmap.MustNew(7, 9)
	for _, p := range [][2]int{{0, 0}, {1, 0}, {2, 0}, {0, 1}, {0, 2}, {3, 4}, {6, 8}} {
		glyph.Set(p[0], p[1])
	}
	c.AddComponents([]seg.Component{
		{Bits: glyph.Clone(), Box: geometry.NewBox(5, 5, 7, 9)},
		{Bits: glyph.Clone(), Box: geometry.NewBox(40, 20, 7, 9)},
	})

	require.Equal(t, 1, c.NumClasses())
	r := c.Result()
	require.Len(t, r.Records, 2)
	assert.Equal(t, Record{Page: 0, Class: 0, X: 5, Y: 5}, r.Records[0])
	assert.Equal(t, Record{Page: 0, Class: 0, X: 40, Y: 20}, r.Records[1],
		"identical content must need no centroid shift and no refinement offset")
}

// Two runs over the same pages with the same configuration produce
// identical results.
func TestDeterminism(t *testing.T) {
	makePages := func() []*bitmap.Bitmap {
		p1 := bitmap.MustNew(120, 80)
		paintSquare(p1, 5, 5, 10)
		paintSquare(p1, 30, 6, 9)
		p2 := bitmap.MustNew(120, 80)
		paintSquare(p2, 50, 50, 10)
		paintSquare(p2, 7, 40, 9)
		p2.Set(100, 10)
		return []*bitmap.Bitmap{p1, p2}
	}

	run := func() *Result {
		c, err := New(DefaultParams())
		require.NoError(t, err)
		for _, p := range makePages() {
			require.NoError(t, c.AddPage(p))
		}
		return c.Result()
	}

	assert.Equal(t, run(), run())
}

// Matching is first-fit in candidate search order: a later class is only
// reached after every earlier size-compatible candidate was rejected.
func TestFirstFitOrder(t *testing.T) {
	c, err := New(DefaultParams())
	require.NoError(t, err)

	square := filledSquare(10)
	frame := bitmap.MustNew(10, 10)
	for i := 0; i < 10; i++ {
		frame.Set(i, 0)
		frame.Set(i, 9)
		frame.Set(0, i)
		frame.Set(9, i)
	}

	// Page 0 creates class 0 (square) and class 1 (frame): the frame's
	// overlap with the square, 36/sqrt(36*100) = 0.6, is below the
	// effective threshold.
	c.AddComponents([]seg.Component{
		{Bits: square.Clone(), Box: geometry.NewBox(0, 0, 10, 10)},
		{Bits: frame.Clone(), Box: geometry.NewBox(20, 0, 10, 10)},
	})
	require.Equal(t, 2, c.NumClasses())

	// The earlier candidate (class 0) must genuinely fail the scorer;
	// only then is accepting class 1 consistent with first-fit.
	shift := geometry.PointInt{}
	matched, err := c.scorer.match(makeInstance(frame), c.templates[0], shift)
	require.NoError(t, err)
	assert.False(t, matched, "class 0 must be rejected before class 1 is reached")

	// A second frame lands in class 1 even though class 0 shares its
	// size bucket and is visited first.
	c.AddComponents([]seg.Component{
		{Bits: frame.Clone(), Box: geometry.NewBox(40, 40, 10, 10)},
	})
	r := c.Result()
	require.Len(t, r.Records, 3)
	assert.Equal(t, Record{Page: 1, Class: 1, X: 40, Y: 40}, r.Records[2])
}

// The two-page scenario: a filled square recurs and a one-pixel-damaged
// copy joins the same class or founds a new one depending on the
// configured weighting.
func TestTwoPageScenario(t *testing.T) {
	makePages := func() (*bitmap.Bitmap, *bitmap.Bitmap) {
		p1 := bitmap.MustNew(80, 80)
		paintSquare(p1, 5, 5, 10)
		p2 := bitmap.MustNew(80, 80)
		paintSquare(p2, 50, 50, 10)
		paintSquare(p2, 5, 5, 10)
		p2.ClearPixel(5, 5) // top-left corner pixel of the damaged square
		return p1, p2
	}

	findRecord := func(r *Result, page, x, y int) (Record, bool) {
		for _, rec := range r.Records {
			if rec.Page == page && rec.X == x && rec.Y == y {
				return rec, true
			}
		}
		return Record{}, false
	}

	t.Run("damaged square joins class 0 at weight 0.6", func(t *testing.T) {
		c, err := New(DefaultParams()) // thresh 0.80, weight 0.6
		require.NoError(t, err)
		p1, p2 := makePages()
		require.NoError(t, c.AddPage(p1))
		require.NoError(t, c.AddPage(p2))

		r := c.Result()
		require.Len(t, r.Records, 3)
		require.Equal(t, 1, c.NumClasses())

		first, ok := findRecord(r, 0, 5, 5)
		require.True(t, ok)
		assert.Equal(t, 0, first.Class)

		moved, ok := findRecord(r, 1, 50, 50)
		require.True(t, ok)
		assert.Equal(t, 0, moved.Class)

		damaged, ok := findRecord(r, 1, 5, 5)
		require.True(t, ok, "damaged square keeps position (5,5): zero shift, zero offset")
		assert.Equal(t, 0, damaged.Class)
	})

	t.Run("damaged square founds class 1 at weight 1.0", func(t *testing.T) {
		p := DefaultParams()
		p.WeightFactor = 1.0 // full-density templates demand a perfect score
		c, err := New(p)
		require.NoError(t, err)
		p1, p2 := makePages()
		require.NoError(t, c.AddPage(p1))
		require.NoError(t, c.AddPage(p2))

		require.Equal(t, 2, c.NumClasses())
		r := c.Result()
		damaged, ok := findRecord(r, 1, 5, 5)
		require.True(t, ok)
		assert.Equal(t, 1, damaged.Class)
		moved, ok := findRecord(r, 1, 50, 50)
		require.True(t, ok)
		assert.Equal(t, 0, moved.Class, "the undamaged copy still matches perfectly")
	})
}

// Rank-Hausdorff matching works end to end.
func TestRankHausEndToEnd(t *testing.T) {
	c, err := New(DefaultParams().WithMethod(MethodRankHaus))
	require.NoError(t, err)

	page := bitmap.MustNew(60, 30)
	paintSquare(page, 3, 3, 8)
	paintSquare(page, 30, 3, 8)
	require.NoError(t, c.AddPage(page))

	assert.Equal(t, 1, c.NumClasses(), "identical squares share one class under Hausdorff")
	assert.Equal(t, 2, c.NumInstances())
}

// Lossless single-class pages reconstruct pixel-exactly.
func TestRenderPageRoundTrip(t *testing.T) {
	c, err := New(DefaultParams())
	require.NoError(t, err)
	page := bitmap.MustNew(64, 48)
	paintSquare(page, 10, 10, 9)
	paintSquare(page, 40, 25, 9)
	require.NoError(t, c.AddPage(page))

	rendered, err := c.Result().RenderPage(0)
	require.NoError(t, err)
	assert.True(t, rendered.Equal(page))
}

// Result snapshots do not alias live classifier state.
func TestResultSnapshotIsolation(t *testing.T) {
	c, err := New(DefaultParams())
	require.NoError(t, err)
	page := bitmap.MustNew(30, 30)
	paintSquare(page, 2, 2, 6)
	require.NoError(t, c.AddPage(page))

	snap := c.Result()
	snap.Records[0].Class = 99
	snap.Templates[0].ClearPixel(0, 0)

	fresh := c.Result()
	assert.Equal(t, 0, fresh.Records[0].Class)
	assert.True(t, fresh.Templates[0].Get(0, 0), "mutating a snapshot must not touch the store")
}

// Class indices are dense and assigned in order of first appearance.
func TestClassIndicesSequential(t *testing.T) {
	c, err := New(DefaultParams())
	require.NoError(t, err)
	page := bitmap.MustNew(100, 30)
	paintSquare(page, 2, 2, 5)   // class 0
	paintSquare(page, 20, 2, 9)  // class 1 (different size, no candidates)
	paintSquare(page, 40, 2, 5)  // class 0 again
	paintSquare(page, 60, 2, 14) // class 2
	require.NoError(t, c.AddPage(page))

	r := c.Result()
	require.Len(t, r.Records, 4)
	classes := []int{r.Records[0].Class, r.Records[1].Class, r.Records[2].Class, r.Records[3].Class}
	assert.Equal(t, []int{0, 1, 0, 2}, classes)
}
