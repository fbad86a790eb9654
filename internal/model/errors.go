package model

import (
	"errors"
	"fmt"
)

var (
	// ErrNoFit reports that a single packer configuration could not
	// place the item set. It is expected and non-terminal: the strategy
	// search treats it as a discarded candidate.
	ErrNoFit = errors.New("items do not fit this configuration")

	// ErrPackingFailed reports that every candidate configuration
	// failed. It is terminal and surfaced to the caller.
	ErrPackingFailed = errors.New("packing failed for all configurations")

	// ErrInvalidItem reports a caller contract violation, caught at the
	// boundary before any packing starts.
	ErrInvalidItem = errors.New("invalid item")
)

// ValidateItems rejects items with non-positive dimensions before they
// reach the packing core.
func ValidateItems(items []Item) error {
	for i, it := range items {
		if it.Width <= 0 || it.Height <= 0 {
			return fmt.Errorf("%w: item %d (%s) has dimensions %dx%d",
				ErrInvalidItem, i, it.ID, it.Width, it.Height)
		}
	}
	return nil
}
