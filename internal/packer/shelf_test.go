package packer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/spritepack/internal/model"
)

func TestPackShelf_ThreeItems(t *testing.T) {
	items := []model.Item{
		{ID: "a", Width: 100, Height: 100},
		{ID: "b", Width: 150, Height: 80},
		{ID: "c", Width: 120, Height: 120},
	}

	layout, err := PackShelf(items, packConfig(2, true), 256)
	require.NoError(t, err)

	assert.Len(t, layout.Placements, 3)
	assert.True(t, isPowerOfTwo(layout.Width))
	assert.True(t, isPowerOfTwo(layout.Height))
	assertNoPaddedOverlap(t, layout, 2)
	assertContained(t, layout)
	assert.Greater(t, layout.Efficiency(), 50.0)
}

func TestPackShelf_UniformItemsShareShelves(t *testing.T) {
	var items []model.Item
	for i := 0; i < 8; i++ {
		items = append(items, model.Item{ID: string(rune('a' + i)), Width: 60, Height: 60})
	}

	layout, err := PackShelf(items, packConfig(0, false), 240)
	require.NoError(t, err)
	require.Len(t, layout.Placements, 8)

	// 240px of width holds four 60px items per shelf, so two distinct
	// row Y coordinates are expected.
	rows := map[int]int{}
	for _, p := range layout.Placements {
		rows[p.Y]++
	}
	assert.Len(t, rows, 2)
	for _, count := range rows {
		assert.Equal(t, 4, count)
	}
	assertNoPaddedOverlap(t, layout, 0)
	assertContained(t, layout)
}

func TestPackShelf_MergesCloseShelfHeights(t *testing.T) {
	// An incoming item 10px taller than the open 90px shelf is within
	// merge tolerance and the shelf has horizontal room: the shelf is
	// raised to 100px, its existing item re-centered, and the new item
	// continues the same row instead of opening a shelf below.
	st := &shelfState{width: 250, mergeLimit: 48}
	st.shelves = append(st.shelves, shelf{y: 0, height: 90, maxWidth: 250})
	st.placeOnShelf(0, model.Item{ID: "a", Width: 100, Height: 90}, false)

	placed, err := st.place(model.Item{ID: "b", Width: 100, Height: 100}, nil)
	require.NoError(t, err)
	require.True(t, placed)

	require.Len(t, st.shelves, 1, "no second shelf opened")
	assert.Equal(t, 100, st.shelves[0].height)

	a, b := st.placements[0], st.placements[1]
	assert.Equal(t, 5, a.Y, "existing item re-centered in the raised shelf")
	assert.Equal(t, 0, b.Y)
	assert.Equal(t, 100, b.X, "new item continues the same row")
}

func TestPackShelf_ZeroMergeLimitDisablesMerging(t *testing.T) {
	// Same geometry as the merge scenario, but with the configured
	// tolerance at zero the 10px height delta is out of range: the 90px
	// shelf stays untouched and the taller item opens its own shelf.
	st := &shelfState{width: 250, mergeLimit: 0}
	st.shelves = append(st.shelves, shelf{y: 0, height: 90, maxWidth: 250})
	st.placeOnShelf(0, model.Item{ID: "a", Width: 100, Height: 90}, false)

	placed, err := st.place(model.Item{ID: "b", Width: 100, Height: 100}, nil)
	require.NoError(t, err)
	require.True(t, placed)

	require.Len(t, st.shelves, 2, "merge suppressed, second shelf opened")
	assert.Equal(t, 90, st.shelves[0].height)
	assert.Equal(t, 100, st.shelves[1].height)

	a, b := st.placements[0], st.placements[1]
	assert.Equal(t, 0, a.Y, "existing item untouched")
	assert.Equal(t, 90, b.Y, "new item starts below the first shelf")
	assert.Equal(t, 0, b.X)
}

func TestPackShelf_RotatesWideItems(t *testing.T) {
	items := []model.Item{{ID: "wide", Width: 300, Height: 40}}

	layout, err := PackShelf(items, packConfig(0, false), 100)
	require.NoError(t, err)
	require.Len(t, layout.Placements, 1)
	assert.True(t, layout.Placements[0].Rotated)
	assert.Equal(t, 40, layout.Placements[0].Width)
	assert.Equal(t, 300, layout.Placements[0].Height)
}

func TestPackShelf_NoFitBothOrientations(t *testing.T) {
	items := []model.Item{{ID: "huge", Width: 3000, Height: 3000}}

	_, err := PackShelf(items, packConfig(2, false), 2048)
	assert.ErrorIs(t, err, model.ErrNoFit)
}

func TestPackShelf_MixedSizes(t *testing.T) {
	items := []model.Item{
		{ID: "a", Width: 200, Height: 180},
		{ID: "b", Width: 60, Height: 170},
		{ID: "c", Width: 90, Height: 40},
		{ID: "d", Width: 30, Height: 30},
		{ID: "e", Width: 140, Height: 175},
	}

	layout, err := PackShelf(items, packConfig(2, false), 512)
	require.NoError(t, err)
	assert.Len(t, layout.Placements, 5)
	assertNoPaddedOverlap(t, layout, 2)
	assertContained(t, layout)
}

func TestChooseShelfHeight_ServesQueuedItems(t *testing.T) {
	st := &shelfState{width: 512}

	// Many queued 64px items: a 64px shelf candidate wins over taller
	// ones because it still fits them all at lower height cost.
	queued := []model.Item{
		{Width: 64, Height: 64}, {Width: 64, Height: 64},
		{Width: 64, Height: 64}, {Width: 64, Height: 64},
	}
	assert.Equal(t, 64, st.chooseShelfHeight(64, queued))

	// No queue context: the item's own height is the only candidate.
	assert.Equal(t, 120, st.chooseShelfHeight(120, nil))
}

func TestResortQueue_PassKeys(t *testing.T) {
	items := []model.Item{
		{ID: "big", Width: 100, Height: 100},
		{ID: "thin", Width: 10, Height: 200},
		{ID: "tiny", Width: 20, Height: 20},
	}

	pass2 := append([]model.Item(nil), items...)
	resortQueue(pass2, 1)
	assert.Equal(t, "thin", pass2[0].ID, "smallest edge first")

	pass4 := append([]model.Item(nil), items...)
	resortQueue(pass4, 3)
	assert.Equal(t, "tiny", pass4[0].ID, "smallest area first")
}
