package packer

import "github.com/piwi3910/spritepack/internal/model"

// PackFunc is the shared contract of both packing algorithms: place
// every item into one atlas of the given working width, honoring the
// config's padding, power-of-two and shelf tunables, or fail with
// model.ErrNoFit.
type PackFunc func(items []model.Item, cfg model.Config, width int) (model.Layout, error)

// freeRect is an unoccupied region tracked during a MaxRects run.
// Transient: created and discarded within a single pack call.
type freeRect struct {
	x, y, w, h int
}

func (r freeRect) contains(o freeRect) bool {
	return r.x <= o.x && r.y <= o.y &&
		r.x+r.w >= o.x+o.w && r.y+r.h >= o.y+o.h
}

func (r freeRect) overlaps(o freeRect) bool {
	return r.x < o.x+o.w && r.x+r.w > o.x &&
		r.y < o.y+o.h && r.y+r.h > o.y
}

// shelf is one horizontal row of a Shelf run. Transient, append-only;
// only the last shelf's height may be raised by a merge.
type shelf struct {
	y        int
	height   int
	currentX int
	maxWidth int
}

func (s shelf) remainingWidth() int {
	return s.maxWidth - s.currentX
}

// utilization is the horizontally filled fraction of the shelf.
func (s shelf) utilization() float64 {
	if s.maxWidth == 0 {
		return 0
	}
	return float64(s.currentX) / float64(s.maxWidth)
}

// nextPowerOfTwo rounds n up to the nearest power of two.
func nextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// align16 rounds n up to the next multiple of 16.
func align16(n int) int {
	return (n + 15) &^ 15
}

// boundingSize computes the tight atlas bounds over all placements,
// including trailing padding, and applies power-of-two rounding when
// requested. Returns ok=false when the result would exceed the atlas
// dimension cap.
func boundingSize(placements []model.PlacedItem, padding int, powerOfTwo bool) (w, h int, ok bool) {
	for _, p := range placements {
		if right := p.X + p.Width + padding; right > w {
			w = right
		}
		if bottom := p.Y + p.Height + padding; bottom > h {
			h = bottom
		}
	}
	if powerOfTwo {
		w = nextPowerOfTwo(w)
		h = nextPowerOfTwo(h)
	}
	if w > model.MaxAtlasDimension || h > model.MaxAtlasDimension {
		return 0, 0, false
	}
	return w, h, true
}
