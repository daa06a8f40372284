package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jbsym/internal/bitmap"
	"jbsym/pkg/geometry"
)

// makeInstance wraps a bitmap as a classification instance at (0, 0).
func makeInstance(bits *bitmap.Bitmap) *instance {
	centroid, _ := bits.Centroid()
	return &instance{
		bits:     bits,
		box:      geometry.NewBox(0, 0, bits.Width, bits.Height),
		centroid: centroid,
		fg:       bits.CountPixels(),
	}
}

// makeTemplate promotes a bitmap to a template for scoring tests.
func makeTemplate(bits *bitmap.Bitmap) *Template {
	centroid, _ := bits.Centroid()
	return newTemplate(bits, centroid, 0)
}

func filledSquare(size int) *bitmap.Bitmap {
	b := bitmap.MustNew(size, size)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			b.Set(x, y)
		}
	}
	return b
}

// A bitmap matched against a template with identical content scores 1.0.
func TestCorrelationIdentical(t *testing.T) {
	sq := filledSquare(10)
	s := correlationScorer{thresh: 0.80, weightFactor: 0.6}
	ok, err := s.match(makeInstance(sq), makeTemplate(sq), geometry.PointInt{})
	require.NoError(t, err)
	assert.True(t, ok)
}

// Exactly-at-threshold scores are accepted; one overlap pixel less in a
// controlled construction is rejected.
func TestCorrelationThresholdBoundary(t *testing.T) {
	// Both sides have 4 foreground pixels. With 2 pixels of overlap the
	// score is 2/sqrt(4*4) = 0.5, exactly the configured threshold.
	inst := bitmap.MustNew(8, 8)
	for x := 0; x < 4; x++ {
		inst.Set(x, 0)
	}
	at := bitmap.MustNew(8, 8)
	at.Set(0, 0)
	at.Set(1, 0)
	at.Set(4, 4)
	at.Set(5, 4)

	below := bitmap.MustNew(8, 8)
	below.Set(0, 0)
	below.Set(4, 4)
	below.Set(5, 4)
	below.Set(6, 4)

	s := correlationScorer{thresh: 0.5, weightFactor: 0} // weight 0: density plays no part
	ok, err := s.match(makeInstance(inst), makeTemplate(at), geometry.PointInt{})
	require.NoError(t, err)
	assert.True(t, ok, "score exactly at threshold must be accepted")

	ok, err = s.match(makeInstance(inst), makeTemplate(below), geometry.PointInt{})
	require.NoError(t, err)
	assert.False(t, ok, "score below threshold must be rejected")
}

// The weighting factor raises the effective threshold for dense templates:
// at weight 1.0 a fully-filled template demands a perfect match.
func TestCorrelationWeightFactor(t *testing.T) {
	tpl := makeTemplate(filledSquare(10))
	nearMiss := filledSquare(10)
	nearMiss.ClearPixel(0, 0)

	lenient := correlationScorer{thresh: 0.80, weightFactor: 0.6}
	ok, err := lenient.match(makeInstance(nearMiss), tpl, geometry.PointInt{})
	require.NoError(t, err)
	assert.True(t, ok, "99/100 overlap passes at weight 0.6")

	strict := correlationScorer{thresh: 0.80, weightFactor: 1.0}
	ok, err = strict.match(makeInstance(nearMiss), tpl, geometry.PointInt{})
	require.NoError(t, err)
	assert.False(t, ok, "weight 1.0 on a dense template demands a perfect score")

	ok, err = strict.match(makeInstance(filledSquare(10)), tpl, geometry.PointInt{})
	require.NoError(t, err)
	assert.True(t, ok, "a perfect score still passes")
}

// A centroid shift beyond the template border cannot match.
func TestCorrelationShiftOutOfRange(t *testing.T) {
	sq := filledSquare(10)
	s := correlationScorer{thresh: 0.80, weightFactor: 0}
	ok, err := s.match(makeInstance(sq), makeTemplate(sq), geometry.PointInt{X: templateBorder + 1})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRankHausIdentical(t *testing.T) {
	sel, err := bitmap.NewRectSel(2)
	require.NoError(t, err)
	s := rankHausScorer{rank: 1.0, sel: sel}

	sq := filledSquare(10)
	ok, err := s.match(makeInstance(sq), makeTemplate(sq), geometry.PointInt{})
	require.NoError(t, err)
	assert.True(t, ok, "strict Hausdorff must accept identical bitmaps")
}

// A far-away stray pixel fails strict Hausdorff but passes once the rank
// fraction tolerates one uncovered pixel.
func TestRankHausRankFraction(t *testing.T) {
	sel, err := bitmap.NewRectSel(2)
	require.NoError(t, err)

	base := bitmap.MustNew(12, 12)
	for x := 0; x < 9; x++ {
		base.Set(x, 0)
	}
	noisy := base.Clone()
	noisy.Set(11, 11) // outside the sel's reach of any base pixel

	tpl := makeTemplate(base)

	strict := rankHausScorer{rank: 1.0, sel: sel}
	ok, err := strict.match(makeInstance(noisy), tpl, geometry.PointInt{})
	require.NoError(t, err)
	assert.False(t, ok)

	// 10 foreground pixels, 1 uncovered: rank 0.9 tolerates it.
	tolerant := rankHausScorer{rank: 0.9, sel: sel}
	ok, err = tolerant.match(makeInstance(noisy), tpl, geometry.PointInt{})
	require.NoError(t, err)
	assert.True(t, ok)
}

// Different shapes stay apart in both directions of the coverage test.
func TestRankHausRejectsDifferentShape(t *testing.T) {
	sel, err := bitmap.NewRectSel(2)
	require.NoError(t, err)
	s := rankHausScorer{rank: 0.97, sel: sel}

	square := filledSquare(10)
	frame := bitmap.MustNew(10, 10)
	for i := 0; i < 10; i++ {
		frame.Set(i, 0)
		frame.Set(i, 9)
		frame.Set(0, i)
		frame.Set(9, i)
	}

	// The frame is covered by the square's dilation, but the square's
	// interior is far from any frame pixel.
	ok, err := s.match(makeInstance(frame), makeTemplate(square), geometry.PointInt{})
	require.NoError(t, err)
	assert.False(t, ok)
}
