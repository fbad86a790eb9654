// Package atlas composes grouping, algorithm selection and the
// strategy search into the multi-atlas packing entrypoint.
package atlas

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/piwi3910/spritepack/internal/grouper"
	"github.com/piwi3910/spritepack/internal/model"
	"github.com/piwi3910/spritepack/internal/packer"
	"github.com/piwi3910/spritepack/internal/selector"
)

// Coordinator packs item sets into one or more atlases. It owns an
// algorithm selector whose history persists across Pack calls, so a
// long-lived Coordinator adapts its recommendations over time.
type Coordinator struct {
	cfg      model.Config
	selector *selector.Selector
	logger   *zap.Logger
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger attaches a structured logger for per-group progress.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Coordinator) { c.logger = logger }
}

// WithSelector supplies a shared selector instance, e.g. to carry
// packing history across coordinators.
func WithSelector(sel *selector.Selector) Option {
	return func(c *Coordinator) { c.selector = sel }
}

func New(cfg model.Config, opts ...Option) *Coordinator {
	c := &Coordinator{cfg: cfg}
	for _, opt := range opts {
		opt(c)
	}
	if c.selector == nil {
		c.selector = selector.New()
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	return c
}

// Pack validates the items, partitions them into groups, packs each
// group with the recommended algorithm and aggregates the layouts.
// Groups fail atomically: a group either contributes one complete
// Layout or one GroupFailure, never a partial layout. The returned
// error is non-nil only when the input is invalid or no group could be
// packed at all.
func (c *Coordinator) Pack(items []model.Item) (model.PackResult, error) {
	if err := model.ValidateItems(items); err != nil {
		return model.PackResult{}, err
	}
	if len(items) == 0 {
		return model.PackResult{}, nil
	}

	groups := grouper.Group(items, c.cfg)
	c.logger.Debug("items grouped",
		zap.Int("items", len(items)),
		zap.Int("groups", len(groups)))

	var result model.PackResult
	for _, g := range groups {
		layout, err := c.packGroup(g)
		if err != nil {
			c.logger.Warn("group packing failed",
				zap.String("group", g.Label),
				zap.Int("items", len(g.Items)),
				zap.Error(err))
			result.Failed = append(result.Failed, model.GroupFailure{
				Label:     g.Label,
				ItemCount: len(g.Items),
				Reason:    err.Error(),
			})
			continue
		}
		result.Layouts = append(result.Layouts, layout)
	}

	if len(result.Layouts) == 0 && len(result.Failed) > 0 {
		return result, fmt.Errorf("%w: all %d groups failed",
			model.ErrPackingFailed, len(result.Failed))
	}
	return result, nil
}

// packGroup selects an algorithm for one group, runs the strategy
// search and records the outcome in the selector history.
func (c *Coordinator) packGroup(g model.Group) (model.Layout, error) {
	alg := c.cfg.Algorithm
	confidence := 1.0
	if alg == "" {
		rec := c.selector.SelectBest(g.Items)
		alg = rec.Algorithm
		confidence = rec.Confidence
		c.logger.Debug("algorithm selected",
			zap.String("group", g.Label),
			zap.String("algorithm", string(alg)),
			zap.Float64("confidence", rec.Confidence),
			zap.String("reason", rec.Reason))
	}

	layout, stats, err := packer.Search(packer.FuncFor(alg), packer.OrdersFor(alg), g.Items, c.cfg)
	if err != nil {
		c.selector.RecordResult(alg, false, 0)
		return model.Layout{}, err
	}

	layout.SourceLabel = g.Label
	c.selector.RecordResult(alg, true, layout.Efficiency())

	c.logger.Info("group packed",
		zap.String("group", g.Label),
		zap.String("algorithm", string(alg)),
		zap.Float64("confidence", confidence),
		zap.Int("width", layout.Width),
		zap.Int("height", layout.Height),
		zap.Int("items", len(layout.Placements)),
		zap.Float64("efficiency", layout.Efficiency()),
		zap.Int("candidates", stats.Evaluated),
		zap.Int("valid", stats.Valid),
		zap.Bool("refined", stats.Refined))

	return layout, nil
}
