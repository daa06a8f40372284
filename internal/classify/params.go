package classify

import (
	"errors"
	"fmt"
)

// Method selects the similarity scorer.
type Method int

const (
	// MethodCorrelation accepts a candidate when the normalized foreground
	// overlap reaches a (density-weighted) threshold. Recommended default.
	MethodCorrelation Method = iota
	// MethodRankHaus accepts a candidate when a rank fraction of each
	// image's foreground is covered by the dilation of the other.
	MethodRankHaus
)

func (m Method) String() string {
	switch m {
	case MethodCorrelation:
		return "correlation"
	case MethodRankHaus:
		return "rankhaus"
	default:
		return "unknown"
	}
}

// ComponentKind selects the segmentation granularity the size limits are
// tuned for.
type ComponentKind int

const (
	// KindCharacters segments at the glyph level.
	KindCharacters ComponentKind = iota
	// KindWords segments at the word level, allowing much wider components.
	KindWords
)

// Correlation threshold bounds. Values outside this range merge unrelated
// glyphs or split identical ones badly enough to be treated as caller error.
const (
	MinThresh = 0.4
	MaxThresh = 0.98
)

// templateBorder is the background margin added around every stored
// template. It absorbs the 3x3 alignment search and the structuring
// element's reach during dilation.
const templateBorder = 6

var (
	// ErrBadThresh indicates a correlation threshold outside [0.4, 0.98].
	ErrBadThresh = errors.New("classify: correlation threshold out of range")
	// ErrBadWeight indicates a weighting factor outside [0, 1].
	ErrBadWeight = errors.New("classify: weighting factor out of range")
	// ErrBadRank indicates a Hausdorff rank outside (0, 1].
	ErrBadRank = errors.New("classify: hausdorff rank out of range")
	// ErrBadSelSize indicates a non-positive structuring element size.
	ErrBadSelSize = errors.New("classify: structuring element size must be positive")
	// ErrBadMethod indicates an unknown matching method.
	ErrBadMethod = errors.New("classify: unknown matching method")
	// ErrBadMaxSize indicates a non-positive component size limit.
	ErrBadMaxSize = errors.New("classify: component size limits must be positive")
	// ErrNilPage indicates a nil page bitmap passed to AddPage.
	ErrNilPage = errors.New("classify: page bitmap is nil")
)

// Params configures a Classifier. Validation happens once, at classifier
// construction; an invalid configuration aborts the whole run before any
// page is processed.
type Params struct {
	Method Method

	// Correlation scorer settings.
	Thresh       float64 // base score threshold, in [0.4, 0.98]
	WeightFactor float64 // raises the threshold for dense templates, in [0, 1]

	// Rank-Hausdorff scorer settings.
	Rank    float64 // fraction of pixels that must satisfy coverage, in (0, 1]
	SelSize int     // structuring element side length

	// Components wider or taller than these are discarded before
	// classification.
	MaxCompWidth  int
	MaxCompHeight int

	// Connectivity for component extraction: 4 or 8.
	Connectivity int

	// KeepComposites accumulates aligned instances into per-class
	// grayscale composites for later template cleaning.
	KeepComposites bool
}

// DefaultParams returns correlation-matching parameters for character
// components.
func DefaultParams() Params {
	return Params{
		Method:        MethodCorrelation,
		Thresh:        0.80,
		WeightFactor:  0.6,
		Rank:          0.97,
		SelSize:       2,
		MaxCompWidth:  350,
		MaxCompHeight: 120,
		Connectivity:  8,
	}
}

// WithKind returns a copy of p with component size limits for the given
// segmentation granularity.
func (p Params) WithKind(kind ComponentKind) Params {
	switch kind {
	case KindWords:
		p.MaxCompWidth = 1000
		p.MaxCompHeight = 120
	default:
		p.MaxCompWidth = 350
		p.MaxCompHeight = 120
	}
	return p
}

// WithMethod returns a copy of p using the given matching method.
func (p Params) WithMethod(m Method) Params {
	p.Method = m
	return p
}

// Validate checks all configured values. It reports the first problem
// found; a failing configuration must not be used.
func (p Params) Validate() error {
	switch p.Method {
	case MethodCorrelation:
		if p.Thresh < MinThresh || p.Thresh > MaxThresh {
			return fmt.Errorf("%w: %g not in [%g, %g]", ErrBadThresh, p.Thresh, MinThresh, MaxThresh)
		}
		if p.WeightFactor < 0 || p.WeightFactor > 1 {
			return fmt.Errorf("%w: %g not in [0, 1]", ErrBadWeight, p.WeightFactor)
		}
	case MethodRankHaus:
		if p.Rank <= 0 || p.Rank > 1 {
			return fmt.Errorf("%w: %g not in (0, 1]", ErrBadRank, p.Rank)
		}
		if p.SelSize < 1 {
			return fmt.Errorf("%w: %d", ErrBadSelSize, p.SelSize)
		}
	default:
		return fmt.Errorf("%w: %d", ErrBadMethod, int(p.Method))
	}
	if p.MaxCompWidth <= 0 || p.MaxCompHeight <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrBadMaxSize, p.MaxCompWidth, p.MaxCompHeight)
	}
	if p.Connectivity != 4 && p.Connectivity != 8 {
		return fmt.Errorf("classify: connectivity must be 4 or 8, got %d", p.Connectivity)
	}
	return nil
}
