package packer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/spritepack/internal/model"
)

func geneticTestItems() []model.Item {
	var items []model.Item
	for i := 0; i < 12; i++ {
		items = append(items, model.Item{
			ID:     string(rune('a' + i)),
			Width:  30 + (i*17)%120,
			Height: 30 + (i*31)%120,
		})
	}
	return items
}

func TestRefineOrder_ProducesValidLayout(t *testing.T) {
	items := geneticTestItems()
	cfg := model.DefaultConfig()
	cfg.UsePowerOfTwo = false

	// A deliberately weak incumbent so the refiner's result is adopted.
	incumbent := model.Layout{Width: 2048, Height: 2048}

	layout, ok := RefineOrder(PackMaxRects, items, cfg, 512, incumbent)
	require.True(t, ok, "refiner should beat a near-empty incumbent")

	assert.Len(t, layout.Placements, len(items))
	assertNoPaddedOverlap(t, layout, cfg.Padding)
	assertContained(t, layout)
}

func TestRefineOrder_KeepsStrongIncumbent(t *testing.T) {
	items := geneticTestItems()
	cfg := model.DefaultConfig()
	cfg.UsePowerOfTwo = false

	// An impossible 100%+ incumbent efficiency can never be beaten.
	incumbent := model.Layout{
		Width: 10, Height: 10,
		Placements: []model.PlacedItem{{Width: 10, Height: 10}},
	}

	_, ok := RefineOrder(PackMaxRects, items, cfg, 512, incumbent)
	assert.False(t, ok)
}

func TestRefineOrder_Deterministic(t *testing.T) {
	items := geneticTestItems()
	cfg := model.DefaultConfig()
	cfg.UsePowerOfTwo = false
	incumbent := model.Layout{Width: 2048, Height: 2048}

	first, ok1 := RefineOrder(PackShelf, items, cfg, 512, incumbent)
	second, ok2 := RefineOrder(PackShelf, items, cfg, 512, incumbent)

	assert.Equal(t, ok1, ok2)
	assert.Equal(t, first, second, "seeded RNG must reproduce the result")
}

func TestRefineOrder_TooFewItems(t *testing.T) {
	items := []model.Item{{ID: "a", Width: 10, Height: 10}}
	_, ok := RefineOrder(PackMaxRects, items, model.DefaultConfig(), 512, model.Layout{})
	assert.False(t, ok)
}
