package packer

import (
	"fmt"
	"math"
	"sort"

	"github.com/piwi3910/spritepack/internal/model"
)

// Composite shelf score weights. Higher score wins; the dominant term
// punishes vertical waste, the y bonus keeps early shelves dense.
const (
	shelfWasteWeight    = -2.0
	shelfLeftoverWeight = -0.1
	shelfFillWeight     = 10.0
	shelfDepthWeight    = 0.05
)

// PackShelf places items into horizontal shelves. Every item is scored
// against every open shelf in both orientations; when no shelf accepts
// it, a new shelf is opened with a height chosen to serve the items
// still queued. Items that cannot be placed in the first sweep are
// retried in up to three re-sorted passes. cfg.ShelfMergeLimit caps
// the height delta for absorbing an item into the previous shelf; zero
// leaves only exact-height absorption.
func PackShelf(items []model.Item, cfg model.Config, width int) (model.Layout, error) {
	st := &shelfState{
		padding:    cfg.Padding,
		width:      width,
		mergeLimit: cfg.ShelfMergeLimit,
	}

	queue := make([]model.Item, len(items))
	copy(queue, items)

	for pass := 0; pass < 4 && len(queue) > 0; pass++ {
		resortQueue(queue, pass)

		var unplaced []model.Item
		for i, it := range queue {
			placed, err := st.place(it, queue[i+1:])
			if err != nil {
				return model.Layout{}, err
			}
			if !placed {
				unplaced = append(unplaced, it)
			}
		}
		if len(unplaced) == len(queue) {
			queue = unplaced
			break
		}
		queue = unplaced
	}

	if len(queue) > 0 {
		return model.Layout{}, fmt.Errorf("%w: %d items unplaced at width %d",
			model.ErrNoFit, len(queue), width)
	}

	w, h, ok := boundingSize(st.placements, cfg.Padding, cfg.UsePowerOfTwo)
	if !ok {
		return model.Layout{}, fmt.Errorf("%w: bounds exceed %dpx at width %d",
			model.ErrNoFit, model.MaxAtlasDimension, width)
	}
	return model.Layout{Width: w, Height: h, Placements: st.placements}, nil
}

// resortQueue reorders the retry queue for the given pass. The first
// sweep keeps the caller-supplied order; later passes try keys that
// favor slotting leftovers into existing shelves.
func resortQueue(queue []model.Item, pass int) {
	switch pass {
	case 1: // smallest edge ascending
		sort.SliceStable(queue, func(i, j int) bool {
			return min(queue[i].Width, queue[i].Height) < min(queue[j].Width, queue[j].Height)
		})
	case 2: // perimeter ascending
		sort.SliceStable(queue, func(i, j int) bool {
			return queue[i].Perimeter() < queue[j].Perimeter()
		})
	case 3: // area ascending
		sort.SliceStable(queue, func(i, j int) bool {
			return queue[i].Area() < queue[j].Area()
		})
	}
}

type shelfState struct {
	padding    int
	width      int
	mergeLimit int // px cap on shelf height delta for merging
	shelves    []shelf
	placements []model.PlacedItem
	shelfOf    []int // shelf index per placement, for exact merge re-centering
}

// place tries to put one item on an existing shelf, then on a merged
// or freshly opened shelf. Returns placed=false when the item must
// wait for a later pass, and a terminal error only when the item can
// never fit the working width in either orientation.
func (st *shelfState) place(it model.Item, queued []model.Item) (bool, error) {
	if idx, rotated, ok := st.bestShelf(it); ok {
		st.placeOnShelf(idx, it, rotated)
		return true, nil
	}
	return st.openShelf(it, queued)
}

// bestShelf scores every (shelf, orientation) pair and returns the
// global maximum among eligible ones.
func (st *shelfState) bestShelf(it model.Item) (int, bool, bool) {
	bestIdx := -1
	bestRot := false
	bestScore := math.Inf(-1)

	for i, s := range st.shelves {
		for _, rotated := range []bool{false, true} {
			pw, ph := it.Width, it.Height
			if rotated {
				if it.Width == it.Height {
					continue
				}
				pw, ph = ph, pw
			}
			if ph > s.height || s.currentX+pw+st.padding > s.maxWidth {
				continue
			}
			score := shelfWasteWeight*float64(s.height-ph) +
				shelfLeftoverWeight*float64(s.maxWidth-s.currentX-pw-st.padding) +
				shelfFillWeight*s.utilization() +
				shelfDepthWeight*float64(s.y)
			if score > bestScore {
				bestScore = score
				bestIdx = i
				bestRot = rotated
			}
		}
	}
	return bestIdx, bestRot, bestIdx >= 0
}

func (st *shelfState) placeOnShelf(idx int, it model.Item, rotated bool) {
	s := &st.shelves[idx]
	pw, ph := it.Width, it.Height
	if rotated {
		pw, ph = ph, pw
	}
	st.placements = append(st.placements, model.PlacedItem{
		ID:             it.ID,
		X:              s.currentX,
		Y:              s.y,
		Width:          pw,
		Height:         ph,
		OriginalWidth:  it.Width,
		OriginalHeight: it.Height,
		Rotated:        rotated,
	})
	st.shelfOf = append(st.shelfOf, idx)
	s.currentX += pw + st.padding
}

// openShelf creates (or merges into) a shelf for an item no existing
// shelf accepts.
func (st *shelfState) openShelf(it model.Item, queued []model.Item) (bool, error) {
	pw, ph := it.Width, it.Height
	rotated := false
	if pw+st.padding > st.width {
		if ph+st.padding > st.width {
			return false, fmt.Errorf("%w: %s (%dx%d) wider than %d in both orientations",
				model.ErrNoFit, it.ID, it.Width, it.Height, st.width)
		}
		pw, ph = ph, pw
		rotated = true
	}

	height := st.chooseShelfHeight(ph, queued)

	if st.tryMerge(it, pw, ph, rotated, height) {
		return true, nil
	}

	y := st.padding
	if n := len(st.shelves); n > 0 {
		prev := st.shelves[n-1]
		y = prev.y + prev.height + st.padding
	}
	if y+height > model.WorkingHeightCap {
		// Out of vertical room for now; a later pass may still slot the
		// item into leftover shelf width.
		return false, nil
	}

	st.shelves = append(st.shelves, shelf{y: y, height: height, maxWidth: st.width})
	st.placeOnShelf(len(st.shelves)-1, it, rotated)
	return true, nil
}

// chooseShelfHeight picks the new shelf height from a small candidate
// set derived from the items still queued: the item's own height, the
// modal height (8px buckets), the median height, and the tallest
// queued height within twice the item's. The winner maximizes how many
// queued items the shelf could still hold, lightly penalized by the
// height itself.
func (st *shelfState) chooseShelfHeight(itemHeight int, queued []model.Item) int {
	candidates := []int{itemHeight}
	if len(queued) > 0 {
		heights := make([]int, len(queued))
		for i, q := range queued {
			heights[i] = q.Height
		}
		candidates = append(candidates,
			modalHeight8(heights),
			medianHeight(heights),
			maxHeightAtMost(heights, 2*itemHeight),
		)
	}

	best := itemHeight
	bestScore := math.Inf(-1)
	for _, cand := range candidates {
		if cand < itemHeight {
			continue
		}
		fits := 0
		for _, q := range queued {
			if q.Height <= cand {
				fits++
			}
		}
		score := float64(fits)*100 - float64(cand)*0.5
		if score > bestScore {
			bestScore = score
			best = cand
		}
	}
	return best
}

// tryMerge absorbs the item into the previous shelf when their heights
// are close enough, raising that shelf and re-centering everything it
// already holds. Membership is tracked by shelf index, so re-centering
// touches exactly the placements on that shelf.
func (st *shelfState) tryMerge(it model.Item, pw, ph int, rotated bool, height int) bool {
	last := len(st.shelves) - 1
	if last < 0 {
		return false
	}
	prev := &st.shelves[last]

	delta := prev.height - height
	if delta < 0 {
		delta = -delta
	}
	tolerance := min(height/4, st.mergeLimit)
	if delta > tolerance {
		return false
	}
	if prev.currentX+pw+st.padding > prev.maxWidth {
		return false
	}
	merged := max(prev.height, height)
	if prev.y+merged > model.WorkingHeightCap {
		return false
	}

	if merged > prev.height {
		prev.height = merged
		for i := range st.placements {
			if st.shelfOf[i] == last {
				st.placements[i].Y = prev.y + (prev.height-st.placements[i].Height)/2
			}
		}
	}
	st.placeOnShelf(last, it, rotated)
	return true
}

func modalHeight8(heights []int) int {
	counts := make(map[int]int)
	for _, h := range heights {
		bucket := ((h + 4) / 8) * 8
		counts[bucket]++
	}
	best, bestCount := heights[0], 0
	for bucket, c := range counts {
		if c > bestCount || (c == bestCount && bucket > best) {
			best, bestCount = bucket, c
		}
	}
	return best
}

func medianHeight(heights []int) int {
	sorted := make([]int, len(heights))
	copy(sorted, heights)
	sort.Ints(sorted)
	return sorted[len(sorted)/2]
}

func maxHeightAtMost(heights []int, limit int) int {
	best := 0
	for _, h := range heights {
		if h <= limit && h > best {
			best = h
		}
	}
	return best
}
