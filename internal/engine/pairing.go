package engine

import (
	"sort"

	"github.com/megastock/rollplan/internal/model"
)

// rankPairs returns the best placement of every feasible pair in the pool,
// ordered so the cheapest pair comes first. Orders listed in assigned are
// left out.
func rankPairs(pool []*model.Order, assigned map[string]bool, rolls []float64, ceiling int, margin float64) []*model.Combination {
	var pairs []*model.Combination
	for i := 0; i < len(pool); i++ {
		if assigned[pool[i].ID] {
			continue
		}
		for j := i + 1; j < len(pool); j++ {
			if assigned[pool[j].ID] || pool[j].ID == pool[i].ID {
				continue
			}
			if c := bestPair(pool[i], pool[j], rolls, ceiling, margin); c != nil {
				pairs = append(pairs, c)
			}
		}
	}
	sort.SliceStable(pairs, func(i, j int) bool {
		return betterCombination(pairs[i], pairs[j])
	})
	return pairs
}
