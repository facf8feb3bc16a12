package engine

import (
	"fmt"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/megastock/rollplan/internal/model"
)

// newTestOrder builds an order with the given blank size. Height is zero so
// the flute indices map straight onto the calculated dimensions.
func newTestOrder(id string, calcWidth, calcLength float64, qty, cavity int) *model.Order {
	return model.NewOrder(id, calcLength-8, calcWidth-14, 0, qty, cavity)
}

func testPlanner(settings model.PlanSettings) (*Planner, *test.Hook) {
	log, hook := test.NewNullLogger()
	p := New(settings)
	p.Log = log
	return p, hook
}

func TestPlan_NoRollWidths(t *testing.T) {
	p, _ := testPlanner(model.DefaultSettings())
	o := newTestOrder("OP-1", 400, 1000, 1000, 1)

	_, err := p.Plan([]*model.Order{o}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoRollWidths))

	_, err = p.Plan([]*model.Order{o}, []float64{0, -100})
	assert.True(t, errors.Is(err, ErrNoRollWidths))
}

func TestPlan_SingleOrderConverges(t *testing.T) {
	p, _ := testPlanner(model.DefaultSettings())
	o := newTestOrder("OP-1", 800, 1000, 1000, 10)

	res, err := p.Plan([]*model.Order{o}, []float64{1000})
	require.NoError(t, err)

	assert.Equal(t, model.TerminationConverged, res.Termination)
	assert.Equal(t, 1, res.GroupsCreated)
	assert.Equal(t, 0, res.PendingOrders)
	assert.Equal(t, 1, res.IterationsUsed)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, model.CombinationIndividual, o.Planning.CombinationType)
	assert.Equal(t, 10, o.EffectiveCavity(o.Planning.CavityMultiplierUsed))
	assert.Equal(t, 100, o.Planning.PlannedCuts)
	assert.Equal(t, 1000, o.Planning.PlannedQuantity)
	assert.Equal(t, 0, o.Shortfall())
}

func TestPlan_PairOnOneRoll(t *testing.T) {
	p, _ := testPlanner(model.DefaultSettings())
	a := newTestOrder("OP-1", 400, 1000, 1000, 1)
	b := newTestOrder("OP-2", 500, 1000, 1000, 1)

	res, err := p.Plan([]*model.Order{a, b}, []float64{1000})
	require.NoError(t, err)

	assert.Equal(t, model.TerminationConverged, res.Termination)
	assert.Equal(t, 1, res.GroupsCreated)
	assert.Equal(t, a.Planning.Group, b.Planning.Group)
	assert.Equal(t, model.CombinationPair, a.Planning.CombinationType)
	assert.Equal(t, 85.0, a.Planning.LeftoverWidth)
	assert.Equal(t, -15.0, b.Planning.LeftoverWidth)
	assert.Equal(t, 90.0, res.AverageEfficiency)
	assert.Equal(t, 70.0, res.TotalLeftover)
	assert.Equal(t, []float64{1000}, res.RollWidths)
}

func TestPlan_InfeasibleSmallOrderEndsPending(t *testing.T) {
	p, _ := testPlanner(model.DefaultSettings())
	o := newTestOrder("OP-1", 1200, 1000, 300, 1)

	res, err := p.Plan([]*model.Order{o}, []float64{800, 1000})
	require.NoError(t, err)

	assert.Equal(t, model.TerminationPartialConverged, res.Termination)
	assert.Equal(t, 1, res.PendingOrders)
	assert.Equal(t, 0, res.GroupsCreated)
	assert.False(t, o.Planning.IsPlanned())
}

func TestPlan_InfeasibleLargeOrderGetsStuck(t *testing.T) {
	p, _ := testPlanner(model.DefaultSettings())
	o := newTestOrder("OP-1", 1200, 1000, 1000, 1)

	res, err := p.Plan([]*model.Order{o}, []float64{800, 1000})
	require.NoError(t, err)

	assert.Equal(t, model.TerminationStuck, res.Termination)
	assert.Equal(t, 3, res.IterationsUsed)
	assert.Equal(t, 2, res.TemporariesCreated)
	assert.Equal(t, 1, res.PendingOrders)
	assert.Empty(t, o.Planning.Group)
}

func TestPlan_SingleRollExhaustsBudget(t *testing.T) {
	s := model.DefaultSettings()
	s.SingleRoll = true
	s.MaxIterations = 5
	p, _ := testPlanner(s)
	o := newTestOrder("OP-1", 1200, 1000, 1000, 1)

	res, err := p.Plan([]*model.Order{o}, []float64{1000})
	require.NoError(t, err)

	assert.Equal(t, model.TerminationExhausted, res.Termination)
	assert.Equal(t, 5, res.IterationsUsed)
	assert.Equal(t, 1, res.PendingOrders)
}

func TestPlan_ExhaustedOrderGetsFinalIndividualRun(t *testing.T) {
	s := model.DefaultSettings()
	s.SingleRoll = true
	p, hook := testPlanner(s)
	x := newTestOrder("OP-1", 300, 1000, 100, 1)
	y := newTestOrder("OP-2", 600, 1000, 100000, 1)
	z := newTestOrder("OP-3", 300, 1000, 100, 1)

	res, err := p.Plan([]*model.Order{x, y, z}, []float64{1000})
	require.NoError(t, err)

	assert.Equal(t, model.TerminationExhausted, res.Termination)
	assert.Equal(t, s.MaxIterations, res.IterationsUsed)
	assert.Equal(t, 0, res.PendingOrders)
	assert.Equal(t, 3, res.GroupsCreated)

	assert.Equal(t, "GROUP-003", y.Planning.Group)
	assert.Equal(t, model.CombinationIndividual, y.Planning.CombinationType)
	assert.Equal(t, 100000, y.Planning.PlannedQuantity)
	assert.Equal(t, 0, y.Shortfall())

	for _, o := range []*model.Order{x, z} {
		assert.True(t, o.Planning.IsPlanned(), o.ID)
		assert.NotEqual(t, y.Planning.Group, o.Planning.Group, o.ID)
		assert.Equal(t, model.CombinationIndividual, o.Planning.CombinationType, "%s left alone in its group", o.ID)
	}

	var retried bool
	for _, e := range hook.AllEntries() {
		if e.Message == "large shortfalls left, trying individual runs" {
			retried = true
		}
	}
	assert.True(t, retried)
}

func TestPlan_LargeShortfallReplansThroughTemporary(t *testing.T) {
	p, hook := testPlanner(model.DefaultSettings())
	x := newTestOrder("OP-1", 300, 1000, 1000, 1)
	y := newTestOrder("OP-2", 600, 1000, 1600, 1)
	orders := []*model.Order{x, y}

	res, err := p.Plan(orders, []float64{1000})
	require.NoError(t, err)

	assert.Equal(t, model.TerminationConverged, res.Termination)
	assert.Equal(t, 2, res.IterationsUsed)
	assert.Equal(t, 1, res.TemporariesCreated)
	assert.Equal(t, 0, res.PendingOrders)

	assert.Equal(t, 1000, y.Planning.PlannedQuantity)
	assert.Equal(t, 600, y.Planning.LeftoverCoveredQuantity)
	assert.Equal(t, 0, y.Shortfall())
	assert.Equal(t, 0, x.Shortfall())
	assert.Len(t, orders, 2, "temporaries never reach the caller")

	var created bool
	for _, e := range hook.AllEntries() {
		if e.Message == "temporary order created" {
			created = true
			assert.Equal(t, "OP-2/F1", e.Data["order"])
			assert.Equal(t, 600, e.Data["quantity"])
		}
	}
	assert.True(t, created)
}

func TestPlan_SmallShortfallEndsPartial(t *testing.T) {
	p, _ := testPlanner(model.DefaultSettings())
	x := newTestOrder("OP-1", 300, 1000, 1000, 1)
	y := newTestOrder("OP-2", 600, 1000, 1200, 1)

	res, err := p.Plan([]*model.Order{x, y}, []float64{1000})
	require.NoError(t, err)

	assert.Equal(t, model.TerminationPartialConverged, res.Termination)
	assert.Equal(t, 0, res.TemporariesCreated)
	assert.Equal(t, 1, res.PendingOrders)
	assert.False(t, y.Planning.IsPlanned())
	assert.Equal(t, 1200, y.Shortfall())

	// the partner is left alone in its group and gets corrected
	require.True(t, x.Planning.IsPlanned())
	assert.Equal(t, model.CombinationIndividual, x.Planning.CombinationType)
	assert.Equal(t, 670.0, x.Planning.LeftoverWidth)
}

func TestPlan_ResetsPreviousPlanningAndIgnoresTemporaries(t *testing.T) {
	p, _ := testPlanner(model.DefaultSettings())
	o := newTestOrder("OP-1", 800, 1000, 1000, 10)
	o.Planning = model.Planning{Group: "GROUP-099", PlannedQuantity: 5, LeftoverCoveredQuantity: 700}
	stale := newTestOrder("OP-1/F3", 100, 1000, 1000, 1)
	stale.IsTemporary = true
	stale.OriginalOrderID = "OP-1"

	res, err := p.Plan([]*model.Order{o, stale}, []float64{1000})
	require.NoError(t, err)

	assert.Equal(t, "GROUP-001", o.Planning.Group)
	assert.Equal(t, 0, o.Planning.LeftoverCoveredQuantity)
	assert.False(t, stale.Planning.IsPlanned())
	assert.Equal(t, 1, res.GroupsCreated)
	assert.Equal(t, 0, res.PendingOrders)
}

func TestPlan_SingleRollChoosesOneWidth(t *testing.T) {
	s := model.DefaultSettings()
	s.SingleRoll = true
	p, _ := testPlanner(s)
	a := newTestOrder("OP-1", 800, 1000, 1000, 1)
	b := newTestOrder("OP-2", 500, 1000, 1000, 1)

	res, err := p.Plan([]*model.Order{a, b}, []float64{1000, 1400})
	require.NoError(t, err)

	assert.Equal(t, model.StrategySingleRoll, res.Strategy)
	assert.Equal(t, []float64{1400}, res.RollWidths)
	assert.Equal(t, model.TerminationConverged, res.Termination)
	assert.Equal(t, a.Planning.Group, b.Planning.Group)
}

func TestPlan_SingleRollUsesOneWidthForEveryGroup(t *testing.T) {
	s := model.DefaultSettings()
	s.SingleRoll = true
	p, _ := testPlanner(s)
	var orders []*model.Order
	widths := []float64{250, 310, 420, 515, 640, 700, 180}
	for i, w := range widths {
		orders = append(orders, newTestOrder(fmt.Sprintf("OP-%d", i+1), w, 900, 2000, 4))
	}

	res, err := p.Plan(orders, []float64{800, 1000, 1200, 1400})
	require.NoError(t, err)

	require.Len(t, res.RollWidths, 1)
	for _, o := range orders {
		if o.Planning.IsPlanned() {
			assert.Equal(t, res.RollWidths[0], o.Planning.RollWidthUsed)
		}
	}
}

func TestPlan_GroupInvariants(t *testing.T) {
	s := model.DefaultSettings()
	s.CavityMultiplierCeiling = 2
	p, _ := testPlanner(s)

	var orders []*model.Order
	specs := []struct {
		width, length float64
		qty, cavity   int
	}{
		{320, 900, 5000, 2}, {410, 1200, 800, 1}, {275, 700, 12000, 4},
		{560, 1100, 2500, 2}, {190, 650, 300, 6}, {730, 1400, 1800, 1},
		{480, 980, 3100, 3}, {1590, 900, 1000, 1}, {365, 820, 7000, 2},
	}
	for i, sp := range specs {
		orders = append(orders, newTestOrder(fmt.Sprintf("OP-%02d", i+1), sp.width, sp.length, sp.qty, sp.cavity))
	}

	res, err := p.Plan(orders, []float64{1000, 1200, 1400, 1600})
	require.NoError(t, err)
	assert.LessOrEqual(t, res.IterationsUsed, s.MaxIterations)

	members := make(map[string][]*model.Order)
	pending := 0
	for _, o := range orders {
		if !o.Planning.IsPlanned() {
			pending++
			continue
		}
		members[o.Planning.Group] = append(members[o.Planning.Group], o)
		assert.LessOrEqual(t, o.Planning.WidthUsed, o.Planning.RollWidthUsed, "order %s", o.ID)
	}
	assert.Equal(t, pending, res.PendingOrders)
	assert.Equal(t, len(members), res.GroupsCreated)

	for g, group := range members {
		require.GreaterOrEqual(t, len(group), 1, g)
		require.LessOrEqual(t, len(group), 2, g)
		for _, o := range group {
			assert.Equal(t, model.TypeForMembers(len(group)), o.Planning.CombinationType, "group %s", g)
			assert.LessOrEqual(t, o.Planning.PlannedQuantity, o.RequestedQuantity+o.EffectiveCavity(o.Planning.CavityMultiplierUsed)-1)
		}
	}

	wide := orders[7]
	assert.False(t, wide.Planning.IsPlanned(), "1590mm blank fits no margined roll up to 1600")
}

func TestPlan_ConcurrentRunsAreSerialized(t *testing.T) {
	p, _ := testPlanner(model.DefaultSettings())

	var wg sync.WaitGroup
	results := make([]model.PlanningResult, 4)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			orders := []*model.Order{
				newTestOrder("OP-1", 400, 1000, 1000, 1),
				newTestOrder("OP-2", 500, 1000, 1000, 1),
			}
			res, err := p.Plan(orders, []float64{1000})
			assert.NoError(t, err)
			results[i] = res
		}(i)
	}
	wg.Wait()

	for _, res := range results {
		assert.Equal(t, model.TerminationConverged, res.Termination)
		assert.Equal(t, 1, res.GroupsCreated)
	}
}

func TestPlan_GroupOffsetLeavesOtherOrdersAlone(t *testing.T) {
	p, _ := testPlanner(model.DefaultSettings())
	held := newTestOrder("OP-1", 400, 1000, 1000, 1)
	held.Planning = model.Planning{Group: "GROUP-004", WorkOrder: "OT-2026-0003", PlannedQuantity: 1000}
	o := newTestOrder("OP-2", 800, 1000, 1000, 10)

	p.GroupOffset = HighestGroup([]*model.Order{held})
	res, err := p.Plan([]*model.Order{o}, []float64{1000})
	require.NoError(t, err)

	assert.Equal(t, 1, res.GroupsCreated)
	assert.Equal(t, "GROUP-005", o.Planning.Group)
	assert.Equal(t, "GROUP-004", held.Planning.Group)
	assert.Equal(t, "OT-2026-0003", held.Planning.WorkOrder)
	assert.Equal(t, 1000, held.Planning.PlannedQuantity)
}
