// Package classify implements unsupervised classification of connected
// components from binary document pages. Each component is matched against
// a growing set of template bitmaps; a close enough match reuses the
// existing class, otherwise the component becomes a new class. The output
// is a compact coded representation: per-class templates plus per-instance
// (page, class, position) records, sufficient to reconstruct page layout
// up to a one-pixel alignment correction.
package classify

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"jbsym/internal/bitmap"
	"jbsym/internal/seg"
	"jbsym/pkg/geometry"
)

// Classifier holds the classification state built up across pages: the
// template store, the size index, and the instance records. It owns this
// state exclusively for the lifetime of a run; processing is strictly
// sequential, instance by instance, so every instance can match classes
// created by earlier instances.
type Classifier struct {
	params Params
	scorer scorer
	log    *logrus.Logger

	templates []*Template
	index     sizeIndex

	pages      int
	pageWidth  int
	pageHeight int
	records    []Record
	composites *compositeSet
}

// New builds a classifier. Configuration errors are detected here, before
// any page is processed, and abort the run with no partial state.
func New(params Params) (*Classifier, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	sc, err := newScorer(params)
	if err != nil {
		return nil, err
	}
	c := &Classifier{
		params: params,
		scorer: sc,
		log:    logrus.StandardLogger(),
		index:  make(sizeIndex),
	}
	if params.KeepComposites {
		c.composites = newCompositeSet()
	}
	return c, nil
}

// SetLogger replaces the diagnostics logger. A nil logger is ignored.
func (c *Classifier) SetLogger(log *logrus.Logger) {
	if log != nil {
		c.log = log
	}
}

// NumClasses returns the number of classes created so far.
func (c *Classifier) NumClasses() int {
	return len(c.templates)
}

// NumInstances returns the number of instances classified so far.
func (c *Classifier) NumInstances() int {
	return len(c.records)
}

// AddPage extracts components from the page bitmap and classifies them in
// raster order. A page with no foreground pixels yields zero instances and
// is not an error. Per-instance anomalies are logged and skipped; they do
// not abort the run.
func (c *Classifier) AddPage(page *bitmap.Bitmap) error {
	if page == nil {
		return ErrNilPage
	}
	comps, err := seg.Extract(page, seg.Options{
		Connectivity: c.params.Connectivity,
		MaxWidth:     c.params.MaxCompWidth,
		MaxHeight:    c.params.MaxCompHeight,
	})
	if err != nil {
		return fmt.Errorf("classify: page %d: %w", c.pages, err)
	}
	if page.Width > c.pageWidth {
		c.pageWidth = page.Width
	}
	if page.Height > c.pageHeight {
		c.pageHeight = page.Height
	}
	c.AddComponents(comps)
	return nil
}

// AddComponents classifies pre-extracted components as one page. Callers
// running their own segmentation use this instead of AddPage.
func (c *Classifier) AddComponents(comps []seg.Component) {
	pageIndex := c.pages
	c.pages++
	classesBefore := len(c.templates)
	for i, comp := range comps {
		if err := c.classifyInstance(comp, pageIndex); err != nil {
			c.log.WithFields(logrus.Fields{
				"page":     pageIndex,
				"instance": i,
				"box":      comp.Box,
			}).WithError(err).Warn("skipping unclassifiable instance")
		}
	}
	c.log.WithFields(logrus.Fields{
		"page":       pageIndex,
		"instances":  len(comps),
		"newClasses": len(c.templates) - classesBefore,
		"classes":    len(c.templates),
	}).Debug("page classified")
}

// classifyInstance drives candidate search, scoring, and alignment for one
// instance, then records its class and position. No match promotes the
// instance to a new class.
func (c *Classifier) classifyInstance(comp seg.Component, page int) error {
	if comp.Bits == nil {
		return fmt.Errorf("classify: nil component bitmap")
	}
	centroid, ok := comp.Bits.Centroid()
	if !ok {
		return nil // entirely background: nothing to code
	}
	inst := &instance{
		bits:     comp.Bits,
		box:      comp.Box,
		centroid: centroid,
		fg:       comp.Bits.CountPixels(),
	}

	it := newCandidateIter(c.templates, c.index, comp.Bits.Width, comp.Bits.Height)
	for ti, more := it.Next(); more; ti, more = it.Next() {
		tpl := c.templates[ti]
		shift := inst.centroid.Sub(tpl.Centroid).Round()
		matched, err := c.scorer.match(inst, tpl, shift)
		if err != nil {
			return fmt.Errorf("score against class %d: %w", ti, err)
		}
		if !matched {
			continue
		}
		off := refineAlignment(inst, tpl, shift)
		c.record(page, ti, comp.Box.X+shift.X+off.X, comp.Box.Y+shift.Y+off.Y)
		if c.composites != nil {
			c.composites.add(ti, tpl, inst, shift.Add(off))
		}
		return nil
	}

	// New class: the instance becomes its own exemplar, perfectly aligned
	// to itself by definition.
	ci := len(c.templates)
	tpl := newTemplate(comp.Bits, centroid, page)
	c.templates = append(c.templates, tpl)
	c.index.add(tpl.Area(), ci)
	c.record(page, ci, comp.Box.X, comp.Box.Y)
	if c.composites != nil {
		c.composites.add(ci, tpl, inst, geometry.PointInt{})
	}
	return nil
}

// record appends an instance record, clamping positions to the page.
func (c *Classifier) record(page, class, x, y int) {
	if x < 0 {
		c.log.WithFields(logrus.Fields{"page": page, "class": class, "x": x}).
			Debug("clamping negative x position")
		x = 0
	}
	if y < 0 {
		c.log.WithFields(logrus.Fields{"page": page, "class": class, "y": y}).
			Debug("clamping negative y position")
		y = 0
	}
	c.records = append(c.records, Record{Page: page, Class: class, X: x, Y: y})
}
