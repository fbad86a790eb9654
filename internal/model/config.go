package model

// Hard limits shared by every packer.
const (
	// MaxAtlasDimension is the largest width or height an emitted atlas
	// may have.
	MaxAtlasDimension = 2048

	// MinSearchWidth is the smallest candidate width the strategy search
	// will consider in non-power-of-two mode.
	MinSearchWidth = 256

	// MinPowerOfTwoWidth is the smallest candidate width in power-of-two
	// mode.
	MinPowerOfTwoWidth = 64

	// WorkingHeightCap bounds the vertical working area of a single
	// packer run. It is deliberately larger than MaxAtlasDimension so a
	// run can overflow the output cap and be rejected afterwards.
	WorkingHeightCap = 4096
)

// Config holds all packing tunables. It is a pure value struct: no
// ambient state, safe to copy and pass by value.
type Config struct {
	Padding       int  `json:"padding"`          // px between placed items
	MaxWidth      int  `json:"max_width"`        // candidate width ceiling, <= MaxAtlasDimension
	UsePowerOfTwo bool `json:"use_power_of_two"` // constrain output dims to powers of two

	// Multi-atlas limits enforced by the grouper.
	MaxImagesPerAtlas int `json:"max_images_per_atlas"`
	MaxAreaPerAtlas   int `json:"max_area_per_atlas"` // square px of summed item area

	// Grouping boundaries.
	SizeTierBounds  [3]int     `json:"size_tier_bounds"`  // area thresholds small/medium/large/xlarge
	AspectBands     [2]float64 `json:"aspect_bands"`      // w/h thresholds tall/normal/wide
	MinBucketSize   int        `json:"min_bucket_size"`   // buckets below this are merge candidates
	ShelfMergeLimit int        `json:"shelf_merge_limit"` // px cap on shelf height delta for merging; zero disables merging

	// Algorithm selection. Empty means the selector decides per group.
	Algorithm Algorithm `json:"algorithm,omitempty"`

	// UseGeneticRefinement enables the evolutionary order refinement
	// pass after the grid search. Deterministic but slower.
	UseGeneticRefinement bool `json:"use_genetic_refinement"`

	// Workers bounds the strategy-search worker pool. Zero means one
	// worker per logical CPU.
	Workers int `json:"workers,omitempty"`
}

func DefaultConfig() Config {
	return Config{
		Padding:           2,
		MaxWidth:          MaxAtlasDimension,
		UsePowerOfTwo:     true,
		MaxImagesPerAtlas: 50,
		MaxAreaPerAtlas:   6 * 1024 * 1024,
		SizeTierBounds:    [3]int{25_600, 102_400, 409_600},
		AspectBands:       [2]float64{0.5, 1.5},
		MinBucketSize:     5,
		ShelfMergeLimit:   48,
	}
}

// EffectiveMaxWidth clamps the configured width ceiling to the hard
// atlas limit.
func (c Config) EffectiveMaxWidth() int {
	if c.MaxWidth <= 0 || c.MaxWidth > MaxAtlasDimension {
		return MaxAtlasDimension
	}
	return c.MaxWidth
}
