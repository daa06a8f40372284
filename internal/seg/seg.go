// Package seg extracts connected components from a binary page bitmap.
// Components are found by a two-pass labelling scan with union-find
// merging of provisional labels, then materialized as (bitmap, box)
// instances in deterministic first-encounter order.
package seg

import (
	"errors"
	"fmt"

	"github.com/theodesp/unionfind"

	"jbsym/internal/bitmap"
	"jbsym/pkg/geometry"
)

var (
	// ErrNilPage indicates a nil page bitmap.
	ErrNilPage = errors.New("seg: page bitmap is nil")
	// ErrBadConnectivity indicates a connectivity other than 4 or 8.
	ErrBadConnectivity = errors.New("seg: connectivity must be 4 or 8")
)

// Options controls component extraction.
type Options struct {
	Connectivity int // 4 or 8
	MaxWidth     int // components wider than this are discarded; 0 = no limit
	MaxHeight    int // components taller than this are discarded; 0 = no limit
}

// DefaultOptions returns extraction settings for character-level components.
func DefaultOptions() Options {
	return Options{
		Connectivity: 8,
		MaxWidth:     350,
		MaxHeight:    120,
	}
}

// Component is one connected component instance: its own tight bitmap and
// its bounding box in page coordinates.
type Component struct {
	Bits *bitmap.Bitmap
	Box  geometry.Box
}

// Extract segments the page into connected components. An empty page
// yields a nil slice; that is a normal result, not an error. Components
// exceeding the configured maxima are dropped.
func Extract(page *bitmap.Bitmap, opts Options) ([]Component, error) {
	if page == nil {
		return nil, ErrNilPage
	}
	if opts.Connectivity != 4 && opts.Connectivity != 8 {
		return nil, fmt.Errorf("%w: got %d", ErrBadConnectivity, opts.Connectivity)
	}

	w, h := page.Width, page.Height
	labels := make([]int32, w*h) // 0 = background, else provisional label
	next := int32(1)
	var merges [][2]int32

	// Pass 1: provisional labels from already-visited neighbors.
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if !page.Get(x, y) {
				continue
			}
			best := int32(0)
			assign := func(nx, ny int) {
				if nx < 0 || ny < 0 || nx >= w {
					return
				}
				l := labels[ny*w+nx]
				if l == 0 {
					return
				}
				if best == 0 {
					best = l
				} else if best != l {
					merges = append(merges, [2]int32{best, l})
				}
			}
			assign(x-1, y)
			assign(x, y-1)
			if opts.Connectivity == 8 {
				assign(x-1, y-1)
				assign(x+1, y-1)
			}
			if best == 0 {
				best = next
				next++
			}
			labels[y*w+x] = best
		}
	}

	if next == 1 {
		return nil, nil // empty page
	}

	// Pass 2: resolve label equivalences.
	uf := unionfind.NewThreadSafeUnionFind(int(next))
	for _, m := range merges {
		uf.Union(int(m[0]), int(m[1]))
	}
	resolve := func(l int32) int32 {
		if r := uf.Root(int(l)); r >= 0 {
			return int32(r)
		}
		return l
	}

	// Pass 3: bounding boxes per root label, in first-encounter order.
	boxes := make(map[int32]geometry.Box)
	var order []int32
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			l := labels[y*w+x]
			if l == 0 {
				continue
			}
			root := resolve(l)
			labels[y*w+x] = root
			box, seen := boxes[root]
			if !seen {
				boxes[root] = geometry.NewBox(x, y, 1, 1)
				order = append(order, root)
				continue
			}
			if x < box.X {
				box.Width += box.X - x
				box.X = x
			} else if x >= box.X+box.Width {
				box.Width = x - box.X + 1
			}
			if y >= box.Y+box.Height { // scan order: y never shrinks
				box.Height = y - box.Y + 1
			}
			boxes[root] = box
		}
	}

	// Pass 4: materialize per-component bitmaps, applying size limits.
	comps := make(map[int32]Component)
	var out []Component
	for _, root := range order {
		box := boxes[root]
		if opts.MaxWidth > 0 && box.Width > opts.MaxWidth {
			continue
		}
		if opts.MaxHeight > 0 && box.Height > opts.MaxHeight {
			continue
		}
		bm, err := bitmap.New(box.Width, box.Height)
		if err != nil {
			return nil, fmt.Errorf("seg: component bitmap: %w", err)
		}
		comps[root] = Component{Bits: bm, Box: box}
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			l := labels[y*w+x]
			if l == 0 {
				continue
			}
			c, ok := comps[l]
			if !ok {
				continue // filtered out by size
			}
			c.Bits.Set(x-c.Box.X, y-c.Box.Y)
		}
	}
	for _, root := range order {
		if c, ok := comps[root]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}
