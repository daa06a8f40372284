package classify

import (
	"bufio"
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/spakin/netpbm"

	"jbsym/internal/bitmap"
)

// ErrBadStream indicates a malformed persisted result stream.
var ErrBadStream = errors.New("classify: malformed result stream")

const instanceStreamMagic = "jbsym-instances 1"

// WriteFiles persists the result as its two logical streams: the template
// stream as a single PBM lattice image (every class exemplar stamped into
// a fixed-size grid cell) and the instance stream as a plain-text header
// plus one (page, class, x, y) line per instance.
func (r *Result) WriteFiles(templatePath, instancePath string) error {
	if err := r.writeTemplates(templatePath); err != nil {
		return err
	}
	return r.writeInstances(instancePath)
}

func (r *Result) writeTemplates(path string) error {
	n := len(r.Templates)
	cols := int(math.Ceil(math.Sqrt(float64(maxInt(n, 1)))))
	rows := (n + cols - 1) / cols
	lattice, err := bitmap.New(maxInt(cols*r.LatticeWidth, 1), maxInt(rows*r.LatticeHeight, 1))
	if err != nil {
		return fmt.Errorf("classify: template lattice: %w", err)
	}
	for i, t := range r.Templates {
		cx := (i % cols) * r.LatticeWidth
		cy := (i / cols) * r.LatticeHeight
		lattice.Paint(t, cx, cy)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("classify: write template stream: %w", err)
	}
	defer f.Close()
	err = netpbm.Encode(f, lattice.ToImage(), &netpbm.EncodeOptions{
		Format:   netpbm.PBM,
		MaxValue: 1,
	})
	if err != nil {
		return fmt.Errorf("classify: encode template stream: %w", err)
	}
	return nil
}

func (r *Result) writeInstances(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("classify: write instance stream: %w", err)
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	fmt.Fprintln(w, instanceStreamMagic)
	fmt.Fprintf(w, "pages %d\n", r.Pages)
	fmt.Fprintf(w, "classes %d\n", len(r.Templates))
	fmt.Fprintf(w, "pagesize %d %d\n", r.PageWidth, r.PageHeight)
	fmt.Fprintf(w, "lattice %d %d\n", r.LatticeWidth, r.LatticeHeight)
	fmt.Fprintf(w, "records %d\n", len(r.Records))
	for _, rec := range r.Records {
		fmt.Fprintf(w, "%d %d %d %d\n", rec.Page, rec.Class, rec.X, rec.Y)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("classify: write instance stream: %w", err)
	}
	return nil
}

// ReadResult loads a result previously written by WriteFiles. Template
// bitmaps are recovered from the lattice by clipping each cell to its
// foreground; class exemplars have tight bounding boxes by construction,
// so the round trip is exact.
func ReadResult(templatePath, instancePath string) (*Result, error) {
	r, err := readInstances(instancePath)
	if err != nil {
		return nil, err
	}
	if err := r.readTemplates(templatePath); err != nil {
		return nil, err
	}
	return r, nil
}

func readInstances(path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("classify: read instance stream: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	if !sc.Scan() || sc.Text() != instanceStreamMagic {
		return nil, fmt.Errorf("%w: bad magic in %s", ErrBadStream, path)
	}
	r := &Result{}
	var classes, records int
	fields := []struct {
		format string
		args   []any
	}{
		{"pages %d", []any{&r.Pages}},
		{"classes %d", []any{&classes}},
		{"pagesize %d %d", []any{&r.PageWidth, &r.PageHeight}},
		{"lattice %d %d", []any{&r.LatticeWidth, &r.LatticeHeight}},
		{"records %d", []any{&records}},
	}
	for _, fl := range fields {
		if !sc.Scan() {
			return nil, fmt.Errorf("%w: truncated header", ErrBadStream)
		}
		if _, err := fmt.Sscanf(sc.Text(), fl.format, fl.args...); err != nil {
			return nil, fmt.Errorf("%w: header line %q: %v", ErrBadStream, sc.Text(), err)
		}
	}
	r.Templates = make([]*bitmap.Bitmap, classes)
	r.Records = make([]Record, 0, records)
	for i := 0; i < records; i++ {
		if !sc.Scan() {
			return nil, fmt.Errorf("%w: expected %d records, got %d", ErrBadStream, records, i)
		}
		var rec Record
		if _, err := fmt.Sscanf(sc.Text(), "%d %d %d %d", &rec.Page, &rec.Class, &rec.X, &rec.Y); err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", ErrBadStream, i, err)
		}
		if rec.Class < 0 || rec.Class >= classes {
			return nil, fmt.Errorf("%w: record %d references class %d of %d", ErrBadStream, i, rec.Class, classes)
		}
		r.Records = append(r.Records, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("classify: read instance stream: %w", err)
	}
	return r, nil
}

func (r *Result) readTemplates(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("classify: read template stream: %w", err)
	}
	defer f.Close()
	img, err := netpbm.Decode(f, &netpbm.DecodeOptions{Target: netpbm.PBM})
	if err != nil {
		return fmt.Errorf("classify: decode template stream: %w", err)
	}
	lattice, err := bitmap.FromImage(img, 128)
	if err != nil {
		return err
	}
	n := len(r.Templates)
	cols := int(math.Ceil(math.Sqrt(float64(maxInt(n, 1)))))
	for i := 0; i < n; i++ {
		cx := (i % cols) * r.LatticeWidth
		cy := (i / cols) * r.LatticeHeight
		cell, err := lattice.ExtractRect(cx, cy, r.LatticeWidth, r.LatticeHeight)
		if err != nil {
			return fmt.Errorf("%w: template cell %d out of lattice", ErrBadStream, i)
		}
		box, ok := cell.ForegroundBox()
		if !ok {
			return fmt.Errorf("%w: template cell %d is empty", ErrBadStream, i)
		}
		tpl, err := cell.ExtractRect(box.X, box.Y, box.Width, box.Height)
		if err != nil {
			return err
		}
		r.Templates[i] = tpl
	}
	return nil
}
