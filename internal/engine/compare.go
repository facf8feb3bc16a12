package engine

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/megastock/rollplan/internal/model"
)

// ComparisonScenario defines a named set of settings to compare.
type ComparisonScenario struct {
	Name     string
	Settings model.PlanSettings
	// RollWidths restricts the scenario to these widths; nil uses the
	// widths passed to CompareScenarios.
	RollWidths []float64
}

// ComparisonResult holds the planning result of a single scenario.
type ComparisonResult struct {
	Scenario      ComparisonScenario
	Result        model.PlanningResult
	PlannedOrders int
	PlannedMeters float64
}

// CompareScenarios plans a copy of the orders for each scenario, leaving the
// given orders untouched, and returns the results in scenario order.
func CompareScenarios(scenarios []ComparisonScenario, orders []*model.Order, rollWidths []float64) ([]ComparisonResult, error) {
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)

	results := make([]ComparisonResult, 0, len(scenarios))
	for _, scenario := range scenarios {
		trial := make([]*model.Order, 0, len(orders))
		for _, o := range orders {
			if o != nil && !o.IsTemporary {
				trial = append(trial, o.Clone())
			}
		}

		rolls := rollWidths
		if scenario.RollWidths != nil {
			rolls = scenario.RollWidths
		}

		planner := New(scenario.Settings)
		planner.Log = quiet
		result, err := planner.Plan(trial, rolls)
		if err != nil {
			return nil, err
		}

		cr := ComparisonResult{Scenario: scenario, Result: result}
		for _, o := range trial {
			if o.Planning.IsPlanned() {
				cr.PlannedOrders++
				cr.PlannedMeters += o.Planning.PlannedLinearMeters
			}
		}
		results = append(results, cr)
	}
	return results, nil
}

// BuildDefaultScenarios generates what-if alternatives around the current
// settings: the other roll strategy, one more cavity multiplier and every
// roll width on its own.
func BuildDefaultScenarios(base model.PlanSettings, rollWidths []float64) []ComparisonScenario {
	scenarios := []ComparisonScenario{
		{Name: "Current Settings", Settings: base},
	}

	alt := base
	alt.SingleRoll = !base.SingleRoll
	scenarios = append(scenarios, ComparisonScenario{
		Name:     fmt.Sprintf("Strategy %s", alt.Strategy()),
		Settings: alt,
	})

	more := base
	more.CavityMultiplierCeiling = base.CavityMultiplierCeiling + 1
	if more.CavityMultiplierCeiling < 2 {
		more.CavityMultiplierCeiling = 2
	}
	scenarios = append(scenarios, ComparisonScenario{
		Name:     fmt.Sprintf("Cavity ceiling %d", more.CavityMultiplierCeiling),
		Settings: more,
	})

	if len(rollWidths) > 1 {
		for _, w := range ascendingRolls(rollWidths) {
			only := base
			only.SingleRoll = true
			scenarios = append(scenarios, ComparisonScenario{
				Name:       fmt.Sprintf("Only %.0fmm", w),
				Settings:   only,
				RollWidths: []float64{w},
			})
		}
	}
	return scenarios
}
