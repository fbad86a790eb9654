package selector

import (
	"math"

	"github.com/piwi3910/spritepack/internal/model"
)

// Complexity buckets an item set by how much its dimensions vary
// relative to their average size.
type Complexity string

const (
	ComplexitySimple   Complexity = "simple"
	ComplexityModerate Complexity = "moderate"
	ComplexityComplex  Complexity = "complex"
)

// Shape classifies an item's aspect ratio.
type Shape string

const (
	ShapeLandscape Shape = "landscape" // w/h > 1.2
	ShapePortrait  Shape = "portrait"  // w/h < 0.8
	ShapeSquare    Shape = "square"
)

// Features is the statistical fingerprint of an item set used for
// algorithm selection.
type Features struct {
	Count     int
	TotalArea int

	AvgWidth  float64
	AvgHeight float64
	AvgSize   float64 // mean of per-item (w+h)/2
	MinSize   float64
	MaxSize   float64

	WidthVariance  float64
	HeightVariance float64
	WidthSpread    float64 // stddev(width) / avg(width)
	HeightSpread   float64 // stddev(height) / avg(height)
	Complexity     Complexity

	// AreaRatio is max item area over min item area.
	AreaRatio float64

	// UtilizationPotential is total item area over the largest possible
	// atlas surface.
	UtilizationPotential float64

	// Distribution: counts of outsized and undersized items relative to
	// the mean area, and their normalized imbalance.
	LargeCount    int
	SmallCount    int
	SizeImbalance float64

	Landscape     int
	Portrait      int
	Square        int
	DominantShape Shape
}

func (f Features) dominantShare() float64 {
	if f.Count == 0 {
		return 0
	}
	dominant := f.Square
	if f.Landscape > dominant {
		dominant = f.Landscape
	}
	if f.Portrait > dominant {
		dominant = f.Portrait
	}
	return float64(dominant) / float64(f.Count)
}

// ExtractFeatures computes the feature vector of an item set. It is a
// pure function: identical items yield identical features.
func ExtractFeatures(items []model.Item) Features {
	f := Features{Count: len(items)}
	if len(items) == 0 {
		return f
	}

	var sumW, sumH float64
	minArea, maxArea := math.MaxInt, 0
	f.MinSize = math.MaxFloat64

	for _, it := range items {
		f.TotalArea += it.Area()
		sumW += float64(it.Width)
		sumH += float64(it.Height)

		size := float64(it.Width+it.Height) / 2
		if size < f.MinSize {
			f.MinSize = size
		}
		if size > f.MaxSize {
			f.MaxSize = size
		}

		if a := it.Area(); a < minArea {
			minArea = a
		}
		if a := it.Area(); a > maxArea {
			maxArea = a
		}

		switch ratio := float64(it.Width) / float64(it.Height); {
		case ratio > 1.2:
			f.Landscape++
		case ratio < 0.8:
			f.Portrait++
		default:
			f.Square++
		}
	}

	n := float64(len(items))
	f.AvgWidth = sumW / n
	f.AvgHeight = sumH / n
	f.AvgSize = (f.AvgWidth + f.AvgHeight) / 2

	for _, it := range items {
		dw := float64(it.Width) - f.AvgWidth
		dh := float64(it.Height) - f.AvgHeight
		f.WidthVariance += dw * dw
		f.HeightVariance += dh * dh
	}
	f.WidthVariance /= n
	f.HeightVariance /= n

	if f.AvgWidth > 0 {
		f.WidthSpread = math.Sqrt(f.WidthVariance) / f.AvgWidth
	}
	if f.AvgHeight > 0 {
		f.HeightSpread = math.Sqrt(f.HeightVariance) / f.AvgHeight
	}

	// Complexity compares the mean dimension deviation to the mean size.
	totalDeviation := (math.Sqrt(f.WidthVariance) + math.Sqrt(f.HeightVariance)) / 2
	switch {
	case totalDeviation < 0.1*f.AvgSize:
		f.Complexity = ComplexitySimple
	case totalDeviation < 0.3*f.AvgSize:
		f.Complexity = ComplexityModerate
	default:
		f.Complexity = ComplexityComplex
	}

	if minArea > 0 {
		f.AreaRatio = float64(maxArea) / float64(minArea)
	}

	maxSurface := float64(model.MaxAtlasDimension * model.MaxAtlasDimension)
	f.UtilizationPotential = float64(f.TotalArea) / maxSurface

	meanArea := float64(f.TotalArea) / n
	for _, it := range items {
		a := float64(it.Area())
		if a > 2*meanArea {
			f.LargeCount++
		} else if a < 0.5*meanArea {
			f.SmallCount++
		}
	}
	imbalance := f.LargeCount - f.SmallCount
	if imbalance < 0 {
		imbalance = -imbalance
	}
	f.SizeImbalance = float64(imbalance) / n

	f.DominantShape = ShapeSquare
	if f.Landscape > f.Square && f.Landscape >= f.Portrait {
		f.DominantShape = ShapeLandscape
	} else if f.Portrait > f.Square && f.Portrait > f.Landscape {
		f.DominantShape = ShapePortrait
	}

	return f
}
