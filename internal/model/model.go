package model

import "github.com/google/uuid"

// Item represents one input rectangle to be packed into an atlas.
// Payload is an opaque handle owned by the caller; the packing core
// never inspects it.
type Item struct {
	ID      string `json:"id"`
	Width   int    `json:"width"`  // px
	Height  int    `json:"height"` // px
	Payload any    `json:"-"`
}

func NewItem(w, h int) Item {
	return Item{
		ID:     uuid.New().String()[:8],
		Width:  w,
		Height: h,
	}
}

// Area returns the item area in square pixels.
func (it Item) Area() int {
	return it.Width * it.Height
}

// Perimeter returns the item perimeter in pixels.
func (it Item) Perimeter() int {
	return 2 * (it.Width + it.Height)
}

// PlacedItem records where an item ended up inside a Layout.
// Width/Height are the placed dimensions; when Rotated is true they are
// the original dimensions swapped. OffsetX/OffsetY are reserved for
// future sprite trimming and are always zero.
type PlacedItem struct {
	ID             string `json:"id"`
	X              int    `json:"x"`
	Y              int    `json:"y"`
	Width          int    `json:"width"`
	Height         int    `json:"height"`
	OriginalWidth  int    `json:"original_width"`
	OriginalHeight int    `json:"original_height"`
	Rotated        bool   `json:"rotated"`
	OffsetX        int    `json:"offset_x"`
	OffsetY        int    `json:"offset_y"`
}

// Layout is the packed output: one atlas surface plus placement
// metadata for every contained item. It is the sole output unit of the
// packing core; compositing and serialization happen downstream.
type Layout struct {
	Width       int          `json:"width"`
	Height      int          `json:"height"`
	Placements  []PlacedItem `json:"placements"`
	SourceLabel string       `json:"source_label,omitempty"`
}

// UsedArea returns the total area covered by placed items.
func (l Layout) UsedArea() int {
	var total int
	for _, p := range l.Placements {
		total += p.Width * p.Height
	}
	return total
}

// TotalArea returns the atlas surface area.
func (l Layout) TotalArea() int {
	return l.Width * l.Height
}

// Efficiency returns the space utilization percentage.
func (l Layout) Efficiency() float64 {
	ta := l.TotalArea()
	if ta == 0 {
		return 0
	}
	return float64(l.UsedArea()) / float64(ta) * 100.0
}

// Group is a partition of the input items produced by the grouper and
// packed into its own atlas.
type Group struct {
	Label       string `json:"label"`
	Items       []Item `json:"items"`
	PackingHint string `json:"packing_hint,omitempty"`
}

// TotalArea returns the summed item area of the group.
func (g Group) TotalArea() int {
	var total int
	for _, it := range g.Items {
		total += it.Area()
	}
	return total
}

// Algorithm identifies a packing algorithm.
type Algorithm string

const (
	AlgorithmShelf    Algorithm = "shelf"    // Horizontal shelves, strong on uniform sets
	AlgorithmMaxRects Algorithm = "maxrects" // Free-rectangle search, strong on mixed sets
)

// PackResult holds the full multi-atlas solution: one Layout per
// successfully packed group plus the groups that could not be packed
// by any candidate configuration.
type PackResult struct {
	Layouts []Layout       `json:"layouts"`
	Failed  []GroupFailure `json:"failed,omitempty"`
}

// GroupFailure records a group whose every packing attempt failed.
type GroupFailure struct {
	Label     string `json:"label"`
	ItemCount int    `json:"item_count"`
	Reason    string `json:"reason"`
}

// TotalEfficiency returns overall utilization percentage across all
// emitted layouts.
func (pr PackResult) TotalEfficiency() float64 {
	var used, total int
	for _, l := range pr.Layouts {
		used += l.UsedArea()
		total += l.TotalArea()
	}
	if total == 0 {
		return 0
	}
	return float64(used) / float64(total) * 100.0
}

// PlacedCount returns the number of items placed across all layouts.
func (pr PackResult) PlacedCount() int {
	var n int
	for _, l := range pr.Layouts {
		n += len(l.Placements)
	}
	return n
}
