package packer

import (
	"math/rand"
	"sort"

	"github.com/piwi3910/spritepack/internal/model"
)

// GeneticConfig holds parameters for the evolutionary order refiner.
type GeneticConfig struct {
	PopulationSize int
	Generations    int
	MutationRate   float64
	TournamentSize int
	EliteCount     int
	Seed           int64
}

// DefaultGeneticConfig returns sensible default parameters.
func DefaultGeneticConfig() GeneticConfig {
	return GeneticConfig{
		PopulationSize: 40,
		Generations:    60,
		MutationRate:   0.15,
		TournamentSize: 3,
		EliteCount:     2,
		Seed:           42,
	}
}

// chromosome is a candidate item ordering. Orientation stays with the
// packers, which own rotation decisions; the genome only permutes.
type chromosome struct {
	order   []int
	fitness float64
}

type geneticRefiner struct {
	pack  PackFunc
	items []model.Item
	cfg   model.Config
	width int
	gc    GeneticConfig
	rng   *rand.Rand
}

// RefineOrder evolves the packing order at the grid search's winning
// width and returns an improved layout when one is found. The refiner
// is deterministic for identical inputs: the RNG is seeded from config.
func RefineOrder(pack PackFunc, items []model.Item, cfg model.Config, width int, incumbent model.Layout) (model.Layout, bool) {
	if len(items) < 3 || width <= 0 {
		return model.Layout{}, false
	}

	gc := DefaultGeneticConfig()
	if len(items) > 50 {
		gc.Generations = 100
		gc.PopulationSize = 60
	}

	g := &geneticRefiner{
		pack:  pack,
		items: items,
		cfg:   cfg,
		width: width,
		gc:    gc,
		rng:   rand.New(rand.NewSource(gc.Seed)),
	}

	best, layout := g.evolve()
	if layout.TotalArea() == 0 {
		return model.Layout{}, false
	}
	if best > incumbent.Efficiency() {
		return layout, true
	}
	return model.Layout{}, false
}

func (g *geneticRefiner) evolve() (float64, model.Layout) {
	population := g.initPopulation()

	bestFitness := -1.0
	var bestLayout model.Layout
	record := func(c chromosome) {
		if c.fitness > bestFitness {
			if layout, ok := g.decode(c); ok {
				bestFitness = c.fitness
				bestLayout = layout
			}
		}
	}

	for i := range population {
		population[i].fitness = g.evaluate(population[i])
		record(population[i])
	}

	for gen := 0; gen < g.gc.Generations; gen++ {
		sort.SliceStable(population, func(i, j int) bool {
			return population[i].fitness > population[j].fitness
		})

		newPop := make([]chromosome, 0, g.gc.PopulationSize)

		elite := g.gc.EliteCount
		if elite > len(population) {
			elite = len(population)
		}
		for i := 0; i < elite; i++ {
			newPop = append(newPop, g.copyChromosome(population[i]))
		}

		for len(newPop) < g.gc.PopulationSize {
			parent1 := g.tournamentSelect(population)
			parent2 := g.tournamentSelect(population)
			child := g.orderCrossover(parent1, parent2)
			g.mutate(&child)
			child.fitness = g.evaluate(child)
			record(child)
			newPop = append(newPop, child)
		}
		population = newPop
	}

	return bestFitness, bestLayout
}

// initPopulation seeds random permutations plus one greedy
// area-descending ordering as a known-good starting point.
func (g *geneticRefiner) initPopulation() []chromosome {
	n := len(g.items)
	population := make([]chromosome, g.gc.PopulationSize)
	for i := range population {
		population[i] = chromosome{order: g.rng.Perm(n)}
	}

	greedy := make([]int, n)
	for i := range greedy {
		greedy[i] = i
	}
	sort.SliceStable(greedy, func(i, j int) bool {
		return g.items[greedy[i]].Area() > g.items[greedy[j]].Area()
	})
	population[0] = chromosome{order: greedy}

	return population
}

// evaluate packs the chromosome's ordering and scores utilization.
// Orderings that fail to pack score zero.
func (g *geneticRefiner) evaluate(c chromosome) float64 {
	layout, ok := g.decode(c)
	if !ok {
		return 0
	}
	return layout.Efficiency()
}

func (g *geneticRefiner) decode(c chromosome) (model.Layout, bool) {
	ordered := make([]model.Item, len(c.order))
	for i, idx := range c.order {
		ordered[i] = g.items[idx]
	}
	layout, err := g.pack(ordered, g.cfg, g.width)
	if err != nil {
		return model.Layout{}, false
	}
	return layout, true
}

// tournamentSelect picks the best individual from a random tournament.
func (g *geneticRefiner) tournamentSelect(population []chromosome) chromosome {
	best := population[g.rng.Intn(len(population))]
	for i := 1; i < g.gc.TournamentSize; i++ {
		candidate := population[g.rng.Intn(len(population))]
		if candidate.fitness > best.fitness {
			best = candidate
		}
	}
	return g.copyChromosome(best)
}

// orderCrossover implements Order Crossover (OX1) for permutations,
// preserving relative order from both parents.
func (g *geneticRefiner) orderCrossover(parent1, parent2 chromosome) chromosome {
	n := len(parent1.order)
	if n <= 2 {
		return g.copyChromosome(parent1)
	}

	point1 := g.rng.Intn(n)
	point2 := g.rng.Intn(n)
	if point1 > point2 {
		point1, point2 = point2, point1
	}

	child := chromosome{order: make([]int, n)}
	inSegment := make(map[int]bool, point2-point1+1)
	for i := point1; i <= point2; i++ {
		child.order[i] = parent1.order[i]
		inSegment[parent1.order[i]] = true
	}

	childIdx := (point2 + 1) % n
	for _, idx := range parent2.order {
		if !inSegment[idx] {
			child.order[childIdx] = idx
			childIdx = (childIdx + 1) % n
		}
	}
	return child
}

// mutate applies swap and segment-inversion mutations.
func (g *geneticRefiner) mutate(c *chromosome) {
	n := len(c.order)
	if n < 2 {
		return
	}

	if g.rng.Float64() < g.gc.MutationRate {
		i := g.rng.Intn(n)
		j := g.rng.Intn(n)
		c.order[i], c.order[j] = c.order[j], c.order[i]
	}

	if g.rng.Float64() < g.gc.MutationRate*0.5 {
		i := g.rng.Intn(n)
		j := g.rng.Intn(n)
		if i > j {
			i, j = j, i
		}
		for i < j {
			c.order[i], c.order[j] = c.order[j], c.order[i]
			i++
			j--
		}
	}
}

func (g *geneticRefiner) copyChromosome(c chromosome) chromosome {
	order := make([]int, len(c.order))
	copy(order, c.order)
	return chromosome{order: order, fitness: c.fitness}
}
