// Package selector recommends a packing algorithm for an item set. It
// scores the two candidates against a statistical feature vector of
// the items plus a rolling history of past packing outcomes. One
// selector instance owns its history; there is no package-level state.
package selector

import (
	"fmt"
	"sync"
	"time"

	"github.com/piwi3910/spritepack/internal/model"
)

const (
	historyCap     = 50 // records kept in the rolling history
	efficiencyCap  = 50 // efficiencies kept per algorithm
	trendWindow    = 20 // history records considered by the trend rule
	confidenceNorm = 15 // score at which confidence saturates
)

// candidates in priority order; ties favor the first.
var candidates = [2]model.Algorithm{model.AlgorithmShelf, model.AlgorithmMaxRects}

// AlgorithmStats accumulates per-algorithm outcome statistics.
type AlgorithmStats struct {
	UsageCount         int
	SuccessRate        float64
	RecentEfficiencies []float64
	AvgEfficiency      float64
}

// HistoryRecord is one packing outcome.
type HistoryRecord struct {
	Algorithm  model.Algorithm
	Success    bool
	Efficiency float64
	Timestamp  time.Time
}

// Recommendation is the result of SelectBest.
type Recommendation struct {
	Algorithm  model.Algorithm
	Reason     string
	Confidence float64
	Scores     map[model.Algorithm]int
	Features   Features
}

// Selector holds the rolling statistics behind recommendations.
// SelectBest and RecordResult are safe for concurrent use on one
// instance; all state is guarded by a single mutex.
type Selector struct {
	mu      sync.Mutex
	stats   map[model.Algorithm]*AlgorithmStats
	history []HistoryRecord
	now     func() time.Time
}

func New() *Selector {
	return &Selector{
		stats: map[model.Algorithm]*AlgorithmStats{
			model.AlgorithmShelf:    {},
			model.AlgorithmMaxRects: {},
		},
		now: time.Now,
	}
}

// SelectBest scores both algorithms for the given items and returns
// the winner with its score breakdown. Identical items and identical
// recorded history always produce the identical recommendation.
func (s *Selector) SelectBest(items []model.Item) Recommendation {
	feats := ExtractFeatures(items)

	s.mu.Lock()
	scores := s.score(feats)
	s.mu.Unlock()

	winner := candidates[0]
	if scores[candidates[1]] > scores[candidates[0]] {
		winner = candidates[1]
	}

	confidence := float64(scores[winner]) / confidenceNorm
	if confidence > 1 {
		confidence = 1
	}

	return Recommendation{
		Algorithm:  winner,
		Reason:     reasonFor(winner, feats),
		Confidence: confidence,
		Scores:     scores,
		Features:   feats,
	}
}

// score applies the independent heuristic rules. Caller holds s.mu for
// the history-based rules.
func (s *Selector) score(f Features) map[model.Algorithm]int {
	scores := map[model.Algorithm]int{
		model.AlgorithmShelf:    0,
		model.AlgorithmMaxRects: 0,
	}
	shelf := func(n int) { scores[model.AlgorithmShelf] += n }
	maxrects := func(n int) { scores[model.AlgorithmMaxRects] += n }

	// Item count: shelves shine on small batches, free rectangles on
	// big heterogeneous ones.
	switch {
	case f.Count <= 20:
		shelf(3)
	case f.Count >= 100:
		maxrects(2)
	default:
		maxrects(1)
	}

	switch f.Complexity {
	case ComplexitySimple:
		shelf(3)
	case ComplexityModerate:
		maxrects(1)
	default:
		maxrects(3)
	}

	// Dimension spread, as coefficient of variation per axis.
	if f.WidthSpread > 0.3 || f.HeightSpread > 0.3 {
		maxrects(2)
	} else if f.WidthSpread < 0.1 && f.HeightSpread < 0.1 {
		shelf(2)
	}

	if f.DominantShape == ShapeSquare {
		shelf(2)
	} else if f.dominantShare() > 0.6 {
		maxrects(1)
	}

	if f.SizeImbalance > 0.3 {
		maxrects(2)
	} else if f.SizeImbalance <= 0.1 {
		shelf(1)
	}

	s.scoreHistory(scores)

	switch ratio := f.AreaRatio; {
	case ratio > 20:
		maxrects(3)
	case ratio > 10:
		maxrects(2)
	case ratio > 2:
		maxrects(1)
	default:
		shelf(2)
	}

	switch {
	case f.UtilizationPotential > 0.8:
		maxrects(2)
	case f.UtilizationPotential < 0.3:
		shelf(1)
	}

	return scores
}

// scoreHistory applies the three history-driven rules: comparative
// success rate, comparative average efficiency (3-point margin), and
// the recent trend over the last trendWindow records (efficiency
// margin 5, then success-rate margin 0.1).
func (s *Selector) scoreHistory(scores map[model.Algorithm]int) {
	a, b := s.stats[candidates[0]], s.stats[candidates[1]]

	if a.UsageCount >= 3 && b.UsageCount >= 3 {
		if a.SuccessRate > b.SuccessRate {
			scores[candidates[0]] += 2
		} else if b.SuccessRate > a.SuccessRate {
			scores[candidates[1]] += 2
		}

		if a.AvgEfficiency >= b.AvgEfficiency+3 {
			scores[candidates[0]] += 2
		} else if b.AvgEfficiency >= a.AvgEfficiency+3 {
			scores[candidates[1]] += 2
		}
	}

	recent := s.history
	if len(recent) > trendWindow {
		recent = recent[len(recent)-trendWindow:]
	}
	if len(recent) == 0 {
		return
	}

	type trend struct {
		effSum    float64
		effCount  int
		successes int
		total     int
	}
	trends := map[model.Algorithm]*trend{
		candidates[0]: {},
		candidates[1]: {},
	}
	for _, rec := range recent {
		t := trends[rec.Algorithm]
		if t == nil {
			continue
		}
		t.total++
		if rec.Success {
			t.successes++
		}
		if rec.Efficiency > 0 {
			t.effSum += rec.Efficiency
			t.effCount++
		}
	}

	ta, tb := trends[candidates[0]], trends[candidates[1]]
	if ta.total == 0 || tb.total == 0 {
		return
	}
	avgEff := func(t *trend) float64 {
		if t.effCount == 0 {
			return 0
		}
		return t.effSum / float64(t.effCount)
	}
	if diff := avgEff(ta) - avgEff(tb); diff > 5 {
		scores[candidates[0]] += 2
	} else if diff < -5 {
		scores[candidates[1]] += 2
	} else {
		ra := float64(ta.successes) / float64(ta.total)
		rb := float64(tb.successes) / float64(tb.total)
		if ra-rb > 0.1 {
			scores[candidates[0]] += 1
		} else if rb-ra > 0.1 {
			scores[candidates[1]] += 1
		}
	}
}

// RecordResult feeds one packing outcome back into the rolling
// statistics. Efficiency is a percentage; non-positive values still
// count toward usage and success rate but are excluded from the
// efficiency average.
func (s *Selector) RecordResult(alg model.Algorithm, success bool, efficiency float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.stats[alg]
	if !ok {
		st = &AlgorithmStats{}
		s.stats[alg] = st
	}

	st.UsageCount++
	n := float64(st.UsageCount)
	outcome := 0.0
	if success {
		outcome = 1.0
	}
	st.SuccessRate = (st.SuccessRate*(n-1) + outcome) / n

	if success && efficiency > 0 {
		st.RecentEfficiencies = append(st.RecentEfficiencies, efficiency)
		if len(st.RecentEfficiencies) > efficiencyCap {
			st.RecentEfficiencies = st.RecentEfficiencies[len(st.RecentEfficiencies)-efficiencyCap:]
		}
		var sum float64
		for _, e := range st.RecentEfficiencies {
			sum += e
		}
		st.AvgEfficiency = sum / float64(len(st.RecentEfficiencies))
	}

	s.history = append(s.history, HistoryRecord{
		Algorithm:  alg,
		Success:    success,
		Efficiency: efficiency,
		Timestamp:  s.now(),
	})
	if len(s.history) > historyCap {
		s.history = s.history[len(s.history)-historyCap:]
	}
}

// Stats returns a copy of the accumulated statistics for an algorithm.
func (s *Selector) Stats(alg model.Algorithm) AlgorithmStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.stats[alg]
	if !ok {
		return AlgorithmStats{}
	}
	cp := *st
	cp.RecentEfficiencies = append([]float64(nil), st.RecentEfficiencies...)
	return cp
}

// HistoryLen returns the number of records currently retained.
func (s *Selector) HistoryLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.history)
}

func reasonFor(alg model.Algorithm, f Features) string {
	if alg == model.AlgorithmShelf {
		return fmt.Sprintf("%d %s items with %s shapes favor shelf rows",
			f.Count, f.Complexity, f.DominantShape)
	}
	return fmt.Sprintf("%d %s items with %s shapes favor free-rectangle search",
		f.Count, f.Complexity, f.DominantShape)
}
