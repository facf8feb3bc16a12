package engine

import (
	"math"

	"github.com/megastock/rollplan/internal/model"
)

// Evaluation holds the figures computed for a set of entries on one roll.
type Evaluation struct {
	Feasible          bool
	TotalWidthUsed    float64   // mm
	LeftoverWidth     float64   // mm, sum of EntryLeftovers
	EntryLeftovers    []float64 // mm, slot minus effective width per entry
	EfficiencyPercent float64
	LinearMeters      float64
	Cuts              float64
}

// slotWidth splits the margined roll evenly between n orders.
func slotWidth(rollWidth, margin float64, n int) float64 {
	if n <= 0 {
		return 0
	}
	return (rollWidth - margin) / float64(n)
}

// Evaluate scores 1 or 2 entries on a roll. It has no side effects and
// returns identical results for identical inputs.
//
// When the effective widths add up to more than the roll the result is
// infeasible: zero efficiency, the whole roll as leftover and no production.
func Evaluate(entries []model.Entry, rollWidth, margin float64) Evaluation {
	var total float64
	for _, e := range entries {
		total += e.EffectiveWidth
	}
	if len(entries) == 0 || total > rollWidth {
		return Evaluation{LeftoverWidth: rollWidth}
	}

	ev := Evaluation{
		Feasible:       true,
		TotalWidthUsed: total,
		EntryLeftovers: make([]float64, len(entries)),
	}
	slot := slotWidth(rollWidth, margin, len(entries))
	for i, e := range entries {
		ev.EntryLeftovers[i] = slot - e.EffectiveWidth
		ev.LeftoverWidth += ev.EntryLeftovers[i]
	}
	if rollWidth > 0 {
		ev.EfficiencyPercent = math.Round(100 * total / rollWidth)
	}

	for _, e := range entries {
		o := e.Order
		if o == nil || o.Cavity <= 0 || o.CalculatedLength() <= 0 {
			continue
		}
		cuts := float64(o.RequestedQuantity) / float64(o.EffectiveCavity(e.CavityMultiplier))
		ev.Cuts += cuts
		ev.LinearMeters += cuts * o.CalculatedLength() / 1000
	}
	return ev
}

// newCombination builds a combination from an evaluated entry set.
func newCombination(entries []model.Entry, rollWidth float64, ev Evaluation) *model.Combination {
	return &model.Combination{
		Entries:             entries,
		Type:                model.TypeForMembers(len(entries)),
		RollWidth:           rollWidth,
		TotalWidthUsed:      ev.TotalWidthUsed,
		LeftoverWidth:       ev.LeftoverWidth,
		EfficiencyPercent:   ev.EfficiencyPercent,
		PlannedLinearMeters: ev.LinearMeters,
		TotalCuts:           ev.Cuts,
	}
}
