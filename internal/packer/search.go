package packer

import (
	"fmt"
	"math"
	"runtime"
	"sort"
	"sync"

	"github.com/piwi3910/spritepack/internal/model"
)

// SortOrder tags one ordering of the candidate catalogue. Orders are
// dispatched through a single comparator, so adding one is a new tag
// plus a case, not a new type.
type SortOrder int

const (
	SortAreaDesc SortOrder = iota
	SortLongestEdgeDesc
	SortPerimeterDesc
	SortMaxSideDesc
	SortHeightDesc
	SortHeightAsc
	SortWidthDesc
	SortWidthAsc
	SortAspectAsc
)

func (s SortOrder) String() string {
	switch s {
	case SortAreaDesc:
		return "area-desc"
	case SortLongestEdgeDesc:
		return "longest-edge-desc"
	case SortPerimeterDesc:
		return "perimeter-desc"
	case SortMaxSideDesc:
		return "max-side-desc"
	case SortHeightDesc:
		return "height-desc"
	case SortHeightAsc:
		return "height-asc"
	case SortWidthDesc:
		return "width-desc"
	case SortWidthAsc:
		return "width-asc"
	case SortAspectAsc:
		return "aspect-asc"
	default:
		return "unknown"
	}
}

// Less is the one comparator behind every ordering tag.
func (s SortOrder) Less(a, b model.Item) bool {
	switch s {
	case SortAreaDesc:
		return a.Area() > b.Area()
	case SortLongestEdgeDesc:
		return max(a.Width, a.Height) > max(b.Width, b.Height)
	case SortPerimeterDesc:
		return a.Perimeter() > b.Perimeter()
	case SortMaxSideDesc:
		if max(a.Width, a.Height) != max(b.Width, b.Height) {
			return max(a.Width, a.Height) > max(b.Width, b.Height)
		}
		return min(a.Width, a.Height) > min(b.Width, b.Height)
	case SortHeightDesc:
		return a.Height > b.Height
	case SortHeightAsc:
		return a.Height < b.Height
	case SortWidthDesc:
		return a.Width > b.Width
	case SortWidthAsc:
		return a.Width < b.Width
	case SortAspectAsc:
		return float64(a.Width)/float64(a.Height) < float64(b.Width)/float64(b.Height)
	default:
		return a.Area() > b.Area()
	}
}

// MaxRectsOrders is the candidate catalogue for the MaxRects packer.
// The free-rectangle search is largely order-insensitive, so a small
// set of size-descending orders suffices.
func MaxRectsOrders() []SortOrder {
	return []SortOrder{SortAreaDesc, SortLongestEdgeDesc, SortPerimeterDesc, SortMaxSideDesc}
}

// ShelfOrders is the candidate catalogue for the Shelf packer, which
// is sensitive to row composition and benefits from dimension- and
// aspect-keyed orders.
func ShelfOrders() []SortOrder {
	return []SortOrder{
		SortAreaDesc, SortLongestEdgeDesc, SortPerimeterDesc, SortMaxSideDesc,
		SortHeightDesc, SortHeightAsc, SortWidthDesc, SortWidthAsc, SortAspectAsc,
	}
}

// OrdersFor returns the candidate catalogue of an algorithm.
func OrdersFor(alg model.Algorithm) []SortOrder {
	if alg == model.AlgorithmShelf {
		return ShelfOrders()
	}
	return MaxRectsOrders()
}

// FuncFor returns the PackFunc implementing an algorithm.
func FuncFor(alg model.Algorithm) PackFunc {
	if alg == model.AlgorithmShelf {
		return PackShelf
	}
	return PackMaxRects
}

// SearchStats summarizes one grid search for logging and reporting.
type SearchStats struct {
	Evaluated int
	Valid     int
	BestOrder SortOrder
	BestWidth int
	Refined   bool // genetic refinement improved on the grid result
}

// Search runs the packer across every (width, order) candidate pair
// and returns the layout with the highest space utilization, ties
// broken by smaller surface area. Candidates failing with ErrNoFit are
// discarded; if all fail, the search reports ErrPackingFailed. An
// empty item set is not a failure: it yields an empty Layout, a nil
// error and zero evaluated candidates.
//
// The grid is evaluated on a bounded worker pool. Each candidate is
// independent and operates on its own sorted copy of the items, so the
// reduction at the end is the only coordination point.
func Search(pack PackFunc, orders []SortOrder, items []model.Item, cfg model.Config) (model.Layout, SearchStats, error) {
	stats := SearchStats{BestWidth: -1}
	if len(items) == 0 {
		return model.Layout{}, stats, nil
	}

	totalArea := 0
	for _, it := range items {
		totalArea += it.Area()
	}

	widths := CandidateWidths(totalArea, cfg)

	type candidate struct {
		width int
		order SortOrder
	}
	grid := make([]candidate, 0, len(widths)*len(orders))
	for _, w := range widths {
		for _, o := range orders {
			grid = append(grid, candidate{width: w, order: o})
		}
	}
	stats.Evaluated = len(grid)

	type outcome struct {
		layout     model.Layout
		efficiency float64
		ok         bool
	}
	outcomes := make([]outcome, len(grid))

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(grid) {
		workers = len(grid)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				c := grid[i]
				ordered := sortedCopy(items, c.order)
				layout, err := pack(ordered, cfg, c.width)
				if err != nil {
					continue
				}
				outcomes[i] = outcome{
					layout:     layout,
					efficiency: float64(totalArea) / float64(layout.TotalArea()) * 100.0,
					ok:         true,
				}
			}
		}()
	}
	for i := range grid {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	// Deterministic reduction: max efficiency, then smaller area, then
	// earlier candidate.
	bestIdx := -1
	bestEff := math.Inf(-1)
	for i, out := range outcomes {
		if !out.ok {
			continue
		}
		stats.Valid++
		if out.efficiency > bestEff ||
			(out.efficiency == bestEff && bestIdx >= 0 && out.layout.TotalArea() < outcomes[bestIdx].layout.TotalArea()) {
			bestIdx = i
			bestEff = out.efficiency
		}
	}

	if bestIdx < 0 {
		return model.Layout{}, stats, fmt.Errorf("%w: %d candidates over %d widths",
			model.ErrPackingFailed, len(grid), len(widths))
	}

	best := outcomes[bestIdx].layout
	stats.BestOrder = grid[bestIdx].order
	stats.BestWidth = grid[bestIdx].width

	if cfg.UseGeneticRefinement {
		if refined, ok := RefineOrder(pack, items, cfg, stats.BestWidth, best); ok {
			best = refined
			stats.Refined = true
		}
	}

	return best, stats, nil
}

// CandidateWidths builds the width grid. Power-of-two mode sweeps
// every power of two under the ceiling, descending; otherwise a width
// is estimated from the total item area with 30% slack and probed with
// a small 16px-aligned neighborhood.
func CandidateWidths(totalArea int, cfg model.Config) []int {
	maxW := cfg.EffectiveMaxWidth()

	if cfg.UsePowerOfTwo {
		var widths []int
		for w := prevPowerOfTwo(maxW); w >= model.MinPowerOfTwoWidth; w >>= 1 {
			widths = append(widths, w)
		}
		return widths
	}

	est := align16(int(math.Ceil(math.Sqrt(float64(totalArea) * 1.3))))
	var widths []int
	seen := make(map[int]bool)
	for _, delta := range []int{0, -16, 16, -48, 48} {
		w := est + delta
		if w < model.MinSearchWidth {
			w = model.MinSearchWidth
		}
		if w > maxW {
			w = maxW
		}
		if !seen[w] {
			seen[w] = true
			widths = append(widths, w)
		}
	}
	return widths
}

func prevPowerOfTwo(n int) int {
	p := 1
	for p<<1 <= n {
		p <<= 1
	}
	return p
}

func sortedCopy(items []model.Item, order SortOrder) []model.Item {
	out := make([]model.Item, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool {
		return order.Less(out[i], out[j])
	})
	return out
}
