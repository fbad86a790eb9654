package packer

import (
	"fmt"
	"math"

	"github.com/piwi3910/spritepack/internal/model"
)

// PackMaxRects places items with the maximal-rectangles algorithm and
// the best-short-side-fit heuristic: each item goes into the free
// rectangle whose shorter leftover side is smallest, the placed region
// is carved out of every overlapping free rectangle, and redundant
// rectangles are pruned. Items are placed in caller-supplied order.
func PackMaxRects(items []model.Item, cfg model.Config, width int) (model.Layout, error) {
	padding := cfg.Padding
	free := []freeRect{{x: 0, y: 0, w: width, h: model.WorkingHeightCap}}
	placements := make([]model.PlacedItem, 0, len(items))

	for _, it := range items {
		idx, rotated := findBestShortSideFit(free, it.Width, it.Height, padding)
		if idx < 0 {
			return model.Layout{}, fmt.Errorf("%w: %s (%dx%d) at width %d",
				model.ErrNoFit, it.ID, it.Width, it.Height, width)
		}

		pw, ph := it.Width, it.Height
		if rotated {
			pw, ph = ph, pw
		}

		target := free[idx]
		placements = append(placements, model.PlacedItem{
			ID:             it.ID,
			X:              target.x,
			Y:              target.y,
			Width:          pw,
			Height:         ph,
			OriginalWidth:  it.Width,
			OriginalHeight: it.Height,
			Rotated:        rotated,
		})

		used := freeRect{x: target.x, y: target.y, w: pw + padding, h: ph + padding}
		free = splitFreeRects(free, used)
	}

	w, h, ok := boundingSize(placements, padding, cfg.UsePowerOfTwo)
	if !ok {
		return model.Layout{}, fmt.Errorf("%w: bounds exceed %dpx at width %d",
			model.ErrNoFit, model.MaxAtlasDimension, width)
	}
	return model.Layout{Width: w, Height: h, Placements: placements}, nil
}

// findBestShortSideFit returns the index of the free rectangle that
// fits a w x h item (plus padding) with the smallest leftover on its
// shorter side, ties broken by the longer side. The unrotated
// orientation is searched first; rotation is a fallback, not a
// competitor.
func findBestShortSideFit(free []freeRect, w, h, padding int) (int, bool) {
	if idx := scanShortSideFit(free, w+padding, h+padding); idx >= 0 {
		return idx, false
	}
	if w != h {
		if idx := scanShortSideFit(free, h+padding, w+padding); idx >= 0 {
			return idx, true
		}
	}
	return -1, false
}

func scanShortSideFit(free []freeRect, needW, needH int) int {
	bestIdx := -1
	bestShort := math.MaxInt
	bestLong := math.MaxInt

	for i, r := range free {
		if r.w < needW || r.h < needH {
			continue
		}
		leftoverW := r.w - needW
		leftoverH := r.h - needH
		short := min(leftoverW, leftoverH)
		long := max(leftoverW, leftoverH)
		if short < bestShort || (short == bestShort && long < bestLong) {
			bestIdx = i
			bestShort = short
			bestLong = long
		}
	}
	return bestIdx
}

// splitFreeRects builds the next free-rectangle generation after a
// placement: every overlapping rectangle is replaced by up to four
// residual slices (guillotine cuts above, below, left and right of the
// used region), then fully contained rectangles are dropped. The input
// slice is never mutated while being scanned.
func splitFreeRects(free []freeRect, used freeRect) []freeRect {
	next := make([]freeRect, 0, len(free)+3)

	for _, r := range free {
		if !r.overlaps(used) {
			next = append(next, r)
			continue
		}

		if used.x > r.x {
			next = append(next, freeRect{x: r.x, y: r.y, w: used.x - r.x, h: r.h})
		}
		if used.x+used.w < r.x+r.w {
			next = append(next, freeRect{
				x: used.x + used.w, y: r.y,
				w: r.x + r.w - (used.x + used.w), h: r.h,
			})
		}
		if used.y > r.y {
			next = append(next, freeRect{x: r.x, y: r.y, w: r.w, h: used.y - r.y})
		}
		if used.y+used.h < r.y+r.h {
			next = append(next, freeRect{
				x: r.x, y: used.y + used.h,
				w: r.w, h: r.y + r.h - (used.y + used.h),
			})
		}
	}

	return pruneContained(next)
}

// pruneContained removes rectangles fully contained in another,
// duplicates included. Keeps the free list bounded.
func pruneContained(rects []freeRect) []freeRect {
	if len(rects) <= 1 {
		return rects
	}
	kept := make([]freeRect, 0, len(rects))
	for i, a := range rects {
		contained := false
		for j, b := range rects {
			if i == j {
				continue
			}
			if b.contains(a) && (a != b || j < i) {
				contained = true
				break
			}
		}
		if !contained {
			kept = append(kept, a)
		}
	}
	return kept
}
