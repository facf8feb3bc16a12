package engine

import (
	"sort"

	"github.com/megastock/rollplan/internal/model"
)

// leftoverEpsilon absorbs float noise when comparing leftovers.
const leftoverEpsilon = 1e-9

// betterCombination reports whether a should win over b. The smallest
// leftover wins; ties go to the smaller roll, then individual before pair,
// then the smaller multiplier sum, then the lower order IDs.
func betterCombination(a, b *model.Combination) bool {
	if b == nil {
		return a != nil
	}
	if a == nil {
		return false
	}
	if d := a.LeftoverWidth - b.LeftoverWidth; d < -leftoverEpsilon || d > leftoverEpsilon {
		return d < 0
	}
	if a.RollWidth != b.RollWidth {
		return a.RollWidth < b.RollWidth
	}
	if len(a.Entries) != len(b.Entries) {
		return len(a.Entries) < len(b.Entries)
	}
	if ma, mb := a.MultiplierSum(), b.MultiplierSum(); ma != mb {
		return ma < mb
	}
	for i := range a.Entries {
		if a.Entries[i].OrderID != b.Entries[i].OrderID {
			return a.Entries[i].OrderID < b.Entries[i].OrderID
		}
	}
	return false
}

// ascendingRolls returns a sorted copy of the positive, unique widths.
func ascendingRolls(rollWidths []float64) []float64 {
	seen := make(map[float64]bool, len(rollWidths))
	rolls := make([]float64, 0, len(rollWidths))
	for _, w := range rollWidths {
		if w <= 0 || seen[w] {
			continue
		}
		seen[w] = true
		rolls = append(rolls, w)
	}
	sort.Float64s(rolls)
	return rolls
}

// fitsAnyRoll reports whether the order alone, at multiplier 1, fits inside
// at least one margined roll.
func fitsAnyRoll(o *model.Order, rolls []float64, margin float64) bool {
	ew := o.EffectiveWidth(1)
	for _, r := range rolls {
		if ew <= r-margin {
			return true
		}
	}
	return false
}

// Search finds the combination with the smallest leftover for principal.
// Individuals need the order to fit inside roll minus margin; pairs only
// need both widths to fit inside the roll. Candidates that are the principal
// itself or listed in assigned are skipped. Search never mutates orders and
// returns nil when nothing fits.
func Search(principal *model.Order, candidates []*model.Order, assigned map[string]bool,
	rollWidths []float64, ceiling int, margin float64) *model.Combination {
	if principal == nil {
		return nil
	}
	if ceiling < 1 {
		ceiling = 1
	}
	rolls := ascendingRolls(rollWidths)
	if !fitsAnyRoll(principal, rolls, margin) {
		return nil
	}

	best := bestIndividual(principal, rolls, ceiling, margin)

	for _, cand := range candidates {
		if cand == nil || cand == principal || cand.ID == principal.ID || assigned[cand.ID] {
			continue
		}
		if pair := bestPair(principal, cand, rolls, ceiling, margin); betterCombination(pair, best) {
			best = pair
		}
	}
	return best
}

// bestIndividual runs the principal alone over every multiplier and roll.
func bestIndividual(o *model.Order, rolls []float64, ceiling int, margin float64) *model.Combination {
	var best *model.Combination
	for m := 1; m <= ceiling; m++ {
		entries := []model.Entry{model.NewEntry(o, m)}
		for _, roll := range rolls {
			if entries[0].EffectiveWidth > roll-margin {
				continue
			}
			ev := Evaluate(entries, roll, margin)
			if !ev.Feasible {
				continue
			}
			if c := newCombination(entries, roll, ev); betterCombination(c, best) {
				best = c
			}
		}
	}
	return best
}

// bestPair returns the best placement of a and b side by side, or nil.
func bestPair(a, b *model.Order, rolls []float64, ceiling int, margin float64) *model.Combination {
	var best *model.Combination
	for ma := 1; ma <= ceiling; ma++ {
		for mb := 1; mb <= ceiling; mb++ {
			entries := []model.Entry{model.NewEntry(a, ma), model.NewEntry(b, mb)}
			for _, roll := range rolls {
				ev := Evaluate(entries, roll, margin)
				if !ev.Feasible {
					continue
				}
				if c := newCombination(entries, roll, ev); betterCombination(c, best) {
					best = c
				}
			}
		}
	}
	return best
}
