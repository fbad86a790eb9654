package grouper

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/spritepack/internal/model"
)

// countItems sums group sizes; grouping must conserve the input.
func countItems(groups []model.Group) int {
	var n int
	for _, g := range groups {
		n += len(g.Items)
	}
	return n
}

func TestGroup_EmptyInput(t *testing.T) {
	assert.Empty(t, Group(nil, model.DefaultConfig()))
}

func TestGroup_Conservation(t *testing.T) {
	var items []model.Item
	for i := 0; i < 137; i++ {
		items = append(items, model.Item{
			ID:     fmt.Sprintf("item_%d", i),
			Width:  10 + (i*53)%600,
			Height: 10 + (i*97)%600,
		})
	}

	groups := Group(items, model.DefaultConfig())
	require.NotEmpty(t, groups)
	assert.Equal(t, len(items), countItems(groups))

	// Every input id appears exactly once across all groups.
	seen := map[string]int{}
	for _, g := range groups {
		for _, it := range g.Items {
			seen[it.ID]++
		}
	}
	assert.Len(t, seen, len(items))
	for id, n := range seen {
		assert.Equal(t, 1, n, "id %s duplicated", id)
	}
}

func TestGroup_SizeTierAndAspectLabels(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.MinBucketSize = 1 // keep every bucket standalone

	items := []model.Item{
		{ID: "s", Width: 100, Height: 100},  // 10_000 < 25_600: small, square
		{ID: "m", Width: 300, Height: 200},  // 60_000: medium, ratio 1.5 wide
		{ID: "l", Width: 500, Height: 400},  // 200_000: large, normal
		{ID: "x", Width: 700, Height: 700},  // 490_000: xlarge, normal
		{ID: "t", Width: 60, Height: 200},   // ratio 0.3: small, tall
	}

	groups := Group(items, cfg)
	labels := map[string]bool{}
	for _, g := range groups {
		labels[g.Label] = true
	}

	assert.True(t, labels["small_normal"])
	assert.True(t, labels["medium_wide"])
	assert.True(t, labels["large_normal"])
	assert.True(t, labels["xlarge_normal"])
	assert.True(t, labels["small_tall"])
}

func TestGroup_MergesUndersizedBuckets(t *testing.T) {
	// Two buckets of 3 items each are both under the merge threshold;
	// together they reach 6 and become one regular group.
	var items []model.Item
	for i := 0; i < 3; i++ {
		items = append(items, model.Item{ID: fmt.Sprintf("sq_%d", i), Width: 100, Height: 100})
	}
	for i := 0; i < 3; i++ {
		items = append(items, model.Item{ID: fmt.Sprintf("tall_%d", i), Width: 50, Height: 200})
	}

	groups := Group(items, model.DefaultConfig())
	require.Len(t, groups, 1)
	assert.Len(t, groups[0].Items, 6)
}

func TestGroup_LeftoverSmallBucketJoinsFirstRegular(t *testing.T) {
	var items []model.Item
	for i := 0; i < 8; i++ {
		items = append(items, model.Item{ID: fmt.Sprintf("sq_%d", i), Width: 100, Height: 100})
	}
	// Lone undersized bucket.
	items = append(items, model.Item{ID: "tall", Width: 50, Height: 200})

	groups := Group(items, model.DefaultConfig())
	require.Len(t, groups, 1)
	assert.Equal(t, 9, countItems(groups))
}

func TestGroup_AllButOneGroupMeetThreshold(t *testing.T) {
	var items []model.Item
	for i := 0; i < 60; i++ {
		items = append(items, model.Item{
			ID:     fmt.Sprintf("i%d", i),
			Width:  20 + (i*41)%500,
			Height: 20 + (i*67)%500,
		})
	}
	cfg := model.DefaultConfig()

	groups := Group(items, cfg)
	under := 0
	for _, g := range groups {
		if len(g.Items) < cfg.MinBucketSize {
			under++
		}
	}
	assert.LessOrEqual(t, under, 1, "at most one group may stay under the merge threshold")
}

func TestGroup_SplitsOnImageCap(t *testing.T) {
	// 60 identical items with a 50-per-atlas cap must split 50/10.
	var items []model.Item
	for i := 0; i < 60; i++ {
		items = append(items, model.Item{ID: fmt.Sprintf("i%d", i), Width: 64, Height: 64})
	}
	cfg := model.DefaultConfig()
	cfg.MaxImagesPerAtlas = 50

	groups := Group(items, cfg)
	require.Len(t, groups, 2)
	assert.Len(t, groups[0].Items, 50)
	assert.Len(t, groups[1].Items, 10)

	// Original order is preserved across the split.
	assert.Equal(t, "i0", groups[0].Items[0].ID)
	assert.Equal(t, "i50", groups[1].Items[0].ID)
}

func TestGroup_SplitsOnAreaCap(t *testing.T) {
	// Three 1000x1000 items against a 2M-area cap: the batch closes
	// after two items even though the item-count cap is not reached.
	items := []model.Item{
		{ID: "a", Width: 1000, Height: 1000},
		{ID: "b", Width: 1000, Height: 1000},
		{ID: "c", Width: 1000, Height: 1000},
	}
	cfg := model.DefaultConfig()
	cfg.MaxAreaPerAtlas = 2_000_000
	cfg.MinBucketSize = 1

	groups := Group(items, cfg)
	require.Len(t, groups, 2)
	assert.Len(t, groups[0].Items, 2)
	assert.Len(t, groups[1].Items, 1)
}

func TestGroup_SubBatchLabels(t *testing.T) {
	var items []model.Item
	for i := 0; i < 60; i++ {
		items = append(items, model.Item{ID: fmt.Sprintf("i%d", i), Width: 64, Height: 64})
	}
	cfg := model.DefaultConfig()
	cfg.MaxImagesPerAtlas = 50

	groups := Group(items, cfg)
	require.Len(t, groups, 2)
	assert.Equal(t, "small_normal_1", groups[0].Label)
	assert.Equal(t, "small_normal_2", groups[1].Label)
	assert.Equal(t, "small_normal", groups[0].PackingHint)
}
