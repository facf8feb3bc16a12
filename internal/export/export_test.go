package export

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/megastock/rollplan/internal/model"
	"github.com/megastock/rollplan/internal/workorder"
)

// planned builds an order with a blank of width x length already placed in group.
func planned(id string, width, length float64, group string, typ model.CombinationType, roll float64, mult int) *model.Order {
	o := model.NewOrder(id, length-8, width-14, 0, 1000, 2)
	o.Customer = "Customer " + id
	o.FluteCode = "C"
	o.InnerLiner = model.PaperLayer{Grammage: 150}
	o.Medium = model.PaperLayer{Grammage: 120}
	o.OuterLiner = model.PaperLayer{Grammage: 150}
	o.Planning = model.Planning{
		Group:                group,
		CombinationType:      typ,
		RollWidthUsed:        roll,
		CavityMultiplierUsed: mult,
		PlannedQuantity:      1000,
		PlannedCuts:          500 / mult,
		PlannedLinearMeters:  300,
		EfficiencyPercent:    88,
	}
	return o
}

// buildTestReport returns a pair group, an individual group, a pending
// order and a leftover order that must never show up in exports.
func buildTestReport() Report {
	a := planned("A", 500, 700, "GROUP-001", model.CombinationPair, 1600, 2)
	b := planned("B", 400, 600, "GROUP-001", model.CombinationPair, 1600, 1)
	c := planned("C", 1200, 900, "GROUP-002", model.CombinationIndividual, 1400, 1)
	for _, o := range []*model.Order{a, b} {
		o.Planning.WidthUsed = 1400
	}
	a.Planning.LeftoverWidth = 0
	b.Planning.LeftoverWidth = 170
	c.Planning.WidthUsed = 1200
	c.Planning.LeftoverWidth = 170

	pending := model.NewOrder("D", 2000, 1986, 0, 100, 1)
	tmp, _ := model.NewTemporary(c, 200, 1)
	tmp.Planning.Group = "GROUP-003"

	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	return Report{
		Orders: []*model.Order{a, b, c, pending, tmp},
		Result: model.PlanningResult{
			RunID:             "run-1",
			GroupsCreated:     2,
			AverageEfficiency: 88,
			TotalLeftover:     340,
			PendingOrders:     1,
			IterationsUsed:    1,
			Termination:       model.TerminationConverged,
			Strategy:          model.StrategyMultiRoll,
			RollWidths:        []float64{1400, 1600},
		},
		Settings: model.DefaultSettings(),
		WorkOrders: []workorder.WorkOrder{
			{
				Number: "OT-2026-0001", Group: "GROUP-001", Type: model.CombinationPair,
				RollWidth: 1600, LinearMeters: 600, Cuts: 750, OrderIDs: []string{"A", "B"},
				EstimatedHours: 6, EstimatedCost: decimal.NewFromFloat(120.5),
				Status: workorder.StatusScheduled, CreatedAt: now,
			},
			{
				Number: "OT-2026-0002", Group: "GROUP-002", Type: model.CombinationIndividual,
				RollWidth: 1400, LinearMeters: 300, Cuts: 500, OrderIDs: []string{"C"},
				EstimatedHours: 2.5, EstimatedCost: decimal.Zero,
				Status: workorder.StatusScheduled, CreatedAt: now,
			},
		},
	}
}
