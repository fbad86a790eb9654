// Package grouper partitions large item sets into tractable packing
// buckets. Items are bucketed by size tier and aspect band, undersized
// buckets are merged, and oversized buckets are split against the
// per-atlas item and area caps. The output groups always partition the
// input exactly: no item is lost or duplicated.
package grouper

import (
	"fmt"

	"github.com/piwi3910/spritepack/internal/model"
)

var sizeTierNames = [4]string{"small", "medium", "large", "xlarge"}

// Group partitions items into packing groups. Empty input yields empty
// output, never an error.
func Group(items []model.Item, cfg model.Config) []model.Group {
	if len(items) == 0 {
		return nil
	}

	buckets := bucketize(items, cfg)
	buckets = mergeSmall(buckets, minBucketSize(cfg))
	return enforceCaps(buckets, cfg)
}

type bucket struct {
	label string
	items []model.Item
}

// bucketize assigns every item to a {sizeTier}_{aspectBand} bucket.
// Buckets are kept in first-seen order so downstream merging is
// deterministic for a given input order.
func bucketize(items []model.Item, cfg model.Config) []bucket {
	index := make(map[string]int)
	var buckets []bucket

	for _, it := range items {
		label := sizeTier(it, cfg) + "_" + aspectBand(it, cfg)
		i, ok := index[label]
		if !ok {
			i = len(buckets)
			index[label] = i
			buckets = append(buckets, bucket{label: label})
		}
		buckets[i].items = append(buckets[i].items, it)
	}
	return buckets
}

func sizeTier(it model.Item, cfg model.Config) string {
	bounds := cfg.SizeTierBounds
	if bounds == [3]int{} {
		bounds = model.DefaultConfig().SizeTierBounds
	}
	area := it.Area()
	for i, limit := range bounds {
		if area < limit {
			return sizeTierNames[i]
		}
	}
	return sizeTierNames[3]
}

func aspectBand(it model.Item, cfg model.Config) string {
	bands := cfg.AspectBands
	if bands == [2]float64{} {
		bands = model.DefaultConfig().AspectBands
	}
	ratio := float64(it.Width) / float64(it.Height)
	switch {
	case ratio < bands[0]:
		return "tall"
	case ratio < bands[1]:
		return "normal"
	default:
		return "wide"
	}
}

func minBucketSize(cfg model.Config) int {
	if cfg.MinBucketSize > 0 {
		return cfg.MinBucketSize
	}
	return model.DefaultConfig().MinBucketSize
}

// mergeSmall combines undersized buckets pairwise in creation order
// until at most one remains, then folds a leftover into the first
// adequately sized bucket. A lone small bucket with no siblings stays
// standalone.
func mergeSmall(buckets []bucket, threshold int) []bucket {
	var regular, small []bucket
	for _, b := range buckets {
		if len(b.items) < threshold {
			small = append(small, b)
		} else {
			regular = append(regular, b)
		}
	}

	for len(small) >= 2 {
		merged := bucket{
			label: small[0].label + "+" + small[1].label,
			items: append(append([]model.Item(nil), small[0].items...), small[1].items...),
		}
		rest := small[2:]
		if len(merged.items) >= threshold {
			regular = append(regular, merged)
			small = rest
		} else {
			small = append([]bucket{merged}, rest...)
		}
	}

	if len(small) == 1 {
		if len(regular) > 0 {
			regular[0].items = append(regular[0].items, small[0].items...)
		} else {
			regular = append(regular, small[0])
		}
	}
	return regular
}

// enforceCaps splits any bucket exceeding the per-atlas item or area
// caps into ordered sub-batches, preserving item order.
func enforceCaps(buckets []bucket, cfg model.Config) []model.Group {
	maxImages := cfg.MaxImagesPerAtlas
	if maxImages <= 0 {
		maxImages = model.DefaultConfig().MaxImagesPerAtlas
	}
	maxArea := cfg.MaxAreaPerAtlas
	if maxArea <= 0 {
		maxArea = model.DefaultConfig().MaxAreaPerAtlas
	}

	var groups []model.Group
	for _, b := range buckets {
		batches := splitBucket(b.items, maxImages, maxArea)
		for i, batch := range batches {
			label := b.label
			if len(batches) > 1 {
				label = fmt.Sprintf("%s_%d", b.label, i+1)
			}
			groups = append(groups, model.Group{
				Label:       label,
				Items:       batch,
				PackingHint: b.label,
			})
		}
	}
	return groups
}

func splitBucket(items []model.Item, maxImages, maxArea int) [][]model.Item {
	var batches [][]model.Item
	var current []model.Item
	currentArea := 0

	for _, it := range items {
		overCount := len(current) >= maxImages
		overArea := len(current) > 0 && currentArea+it.Area() > maxArea
		if overCount || overArea {
			batches = append(batches, current)
			current = nil
			currentArea = 0
		}
		current = append(current, it)
		currentArea += it.Area()
	}
	if len(current) > 0 {
		batches = append(batches, current)
	}
	return batches
}
