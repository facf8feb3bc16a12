package engine

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/megastock/rollplan/internal/model"
)

func testApplier(t *testing.T) (*Applier, *test.Hook) {
	t.Helper()
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	return NewApplier(model.DefaultSettings(), log), hook
}

func combinationFor(t *testing.T, roll float64, entries ...model.Entry) *model.Combination {
	t.Helper()
	ev := Evaluate(entries, roll, model.DefaultSettings().SafetyMargin)
	require.True(t, ev.Feasible)
	return newCombination(entries, roll, ev)
}

func TestGroupName(t *testing.T) {
	assert.Equal(t, "GROUP-001", GroupName(1))
	assert.Equal(t, "GROUP-042", GroupName(42))
	assert.Equal(t, "GROUP-1000", GroupName(1000))
}

func TestApply_Individual(t *testing.T) {
	a, _ := testApplier(t)
	o := newTestOrder("OP-1", 800, 1000, 1000, 10)

	ok := a.Apply(combinationFor(t, 1000, model.NewEntry(o, 1)), 1)

	require.True(t, ok)
	p := o.Planning
	assert.Equal(t, "GROUP-001", p.Group)
	assert.Equal(t, model.CombinationIndividual, p.CombinationType)
	assert.Equal(t, 100, p.PlannedCuts)
	assert.Equal(t, 1000, p.PlannedQuantity)
	assert.Equal(t, 100.0, p.PlannedLinearMeters)
	assert.Equal(t, 800.0, p.WidthUsed)
	assert.Equal(t, 1000.0, p.RollWidthUsed)
	assert.Equal(t, 170.0, p.LeftoverWidth)
	assert.Equal(t, 80.0, p.EfficiencyPercent)
	assert.Equal(t, 1, p.CavityMultiplierUsed)
	assert.Equal(t, 0, o.Shortfall())
}

func TestApply_ExtraCutOnlyForLargeShortfall(t *testing.T) {
	a, _ := testApplier(t)

	large := newTestOrder("OP-1", 300, 1000, 1100, 600)
	require.True(t, a.Apply(combinationFor(t, 1000, model.NewEntry(large, 1)), 1))
	assert.Equal(t, 2, large.Planning.PlannedCuts, "500 short after flooring earns an extra cut")
	assert.Equal(t, 1200, large.Planning.PlannedQuantity)

	small := newTestOrder("OP-2", 300, 1000, 1100, 300)
	require.True(t, a.Apply(combinationFor(t, 1000, model.NewEntry(small, 1)), 2))
	assert.Equal(t, 3, small.Planning.PlannedCuts)
	assert.Equal(t, 900, small.Planning.PlannedQuantity)
	assert.Equal(t, 200, small.Shortfall())
}

func TestApply_ExtraCutDisabled(t *testing.T) {
	a, _ := testApplier(t)
	a.Settings.ExtraCutOnLargeShortfall = false
	o := newTestOrder("OP-1", 300, 1000, 1100, 600)

	require.True(t, a.Apply(combinationFor(t, 1000, model.NewEntry(o, 1)), 1))

	assert.Equal(t, 1, o.Planning.PlannedCuts)
	assert.Equal(t, 600, o.Planning.PlannedQuantity)
}

func TestApply_PairMinorDrivesMajor(t *testing.T) {
	a, _ := testApplier(t)
	minor := newTestOrder("OP-1", 400, 1000, 1000, 1)
	major := newTestOrder("OP-2", 500, 1000, 1600, 1)

	ok := a.Apply(combinationFor(t, 1000, model.NewEntry(major, 1), model.NewEntry(minor, 1)), 3)

	require.True(t, ok)
	for _, o := range []*model.Order{minor, major} {
		assert.Equal(t, "GROUP-003", o.Planning.Group)
		assert.Equal(t, model.CombinationPair, o.Planning.CombinationType)
		assert.Equal(t, 900.0, o.Planning.WidthUsed)
		assert.Equal(t, 90.0, o.Planning.EfficiencyPercent)
		assert.Equal(t, 1000.0, o.Planning.PlannedLinearMeters)
	}
	assert.Equal(t, 1000, minor.Planning.PlannedQuantity)
	assert.Equal(t, 1000, minor.Planning.PlannedCuts)
	assert.Equal(t, 85.0, minor.Planning.LeftoverWidth)

	assert.Equal(t, 1000, major.Planning.PlannedQuantity)
	assert.Equal(t, 1000, major.Planning.PlannedCuts)
	assert.Equal(t, -15.0, major.Planning.LeftoverWidth)
	assert.Equal(t, 600, major.Shortfall())
}

func TestApply_MajorNeverExceedsRequest(t *testing.T) {
	a, _ := testApplier(t)
	minor := newTestOrder("OP-1", 400, 1000, 1000, 1)
	major := newTestOrder("OP-2", 500, 500, 1600, 2)

	require.True(t, a.Apply(combinationFor(t, 1000, model.NewEntry(minor, 1), model.NewEntry(major, 1)), 1))

	// 1000m of a 500mm blank would give 2000 pieces
	assert.Equal(t, 1600, major.Planning.PlannedQuantity)
	assert.Equal(t, 800, major.Planning.PlannedCuts)
	assert.LessOrEqual(t, major.Planning.PlannedQuantity, major.RequestedQuantity)
}

func TestApply_DropsGroupedOrderAndForcesIndividual(t *testing.T) {
	a, hook := testApplier(t)
	free := newTestOrder("OP-1", 400, 1000, 1000, 1)
	taken := newTestOrder("OP-2", 500, 1000, 1000, 1)
	taken.Planning.Group = "GROUP-001"

	ok := a.Apply(combinationFor(t, 1000, model.NewEntry(free, 1), model.NewEntry(taken, 1)), 2)

	require.True(t, ok)
	assert.Equal(t, "GROUP-002", free.Planning.Group)
	assert.Equal(t, model.CombinationIndividual, free.Planning.CombinationType)
	assert.Equal(t, 400.0, free.Planning.WidthUsed)
	assert.Equal(t, 570.0, free.Planning.LeftoverWidth)
	assert.Equal(t, 40.0, free.Planning.EfficiencyPercent)
	assert.Equal(t, "GROUP-001", taken.Planning.Group, "existing group untouched")

	var warned bool
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel && e.Data["order"] == "OP-2" {
			warned = true
		}
	}
	assert.True(t, warned)
}

func TestApply_AllGroupedIsNoop(t *testing.T) {
	a, _ := testApplier(t)
	o := newTestOrder("OP-1", 400, 1000, 1000, 1)
	o.Planning.Group = "GROUP-001"
	o.Planning.PlannedQuantity = 10

	ok := a.Apply(combinationFor(t, 1000, model.NewEntry(o, 1)), 5)

	assert.False(t, ok)
	assert.Equal(t, "GROUP-001", o.Planning.Group)
	assert.Equal(t, 10, o.Planning.PlannedQuantity)
}

func TestApply_NilCombination(t *testing.T) {
	a, hook := testApplier(t)

	assert.False(t, a.Apply(nil, 1))
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

func TestApply_KeepsWorkOrderReference(t *testing.T) {
	a, _ := testApplier(t)
	o := newTestOrder("OP-1", 400, 1000, 1000, 1)
	o.Planning.WorkOrder = "OT-2026-0007"

	require.True(t, a.Apply(combinationFor(t, 1000, model.NewEntry(o, 1)), 1))
	assert.Equal(t, "OT-2026-0007", o.Planning.WorkOrder)
}

func TestApply_DropsOrderWithoutCavity(t *testing.T) {
	a, hook := testApplier(t)
	free := newTestOrder("OP-1", 400, 1000, 1000, 1)
	broken := newTestOrder("OP-2", 500, 1000, 1000, 0)

	ok := a.Apply(combinationFor(t, 1000, model.NewEntry(free, 1), model.NewEntry(broken, 1)), 1)

	require.True(t, ok)
	assert.Equal(t, "GROUP-001", free.Planning.Group)
	assert.Equal(t, model.CombinationIndividual, free.Planning.CombinationType)
	assert.Equal(t, 1000, free.Planning.PlannedQuantity)
	assert.False(t, broken.Planning.IsPlanned())
	assert.Equal(t, 0, broken.Planning.PlannedCuts)

	var logged bool
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.ErrorLevel && e.Data["order"] == "OP-2" {
			logged = true
		}
	}
	assert.True(t, logged)
}

func TestApply_OnlyOrderWithoutCavityIsNoop(t *testing.T) {
	a, _ := testApplier(t)
	o := newTestOrder("OP-1", 400, 1000, 1000, 0)

	assert.False(t, a.Apply(combinationFor(t, 1000, model.NewEntry(o, 1)), 1))
	assert.False(t, o.Planning.IsPlanned())
}

func TestHighestGroup(t *testing.T) {
	a := newTestOrder("OP-1", 400, 1000, 1000, 1)
	a.Planning.Group = "GROUP-002"
	b := newTestOrder("OP-2", 400, 1000, 1000, 1)
	b.Planning.Group = "GROUP-011"
	pending := newTestOrder("OP-3", 400, 1000, 1000, 1)

	assert.Equal(t, 11, HighestGroup([]*model.Order{a, nil, b, pending}))
	assert.Equal(t, 0, HighestGroup(nil))
}
