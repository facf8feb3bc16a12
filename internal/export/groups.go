// Package export renders planning results to PDF reports, QR labels,
// DXF knife layouts and Excel workbooks.
package export

import (
	"sort"

	"github.com/megastock/rollplan/internal/model"
	"github.com/megastock/rollplan/internal/workorder"
)

// Group is one roll run as drawn in the exports.
type Group struct {
	Name          string
	Type          model.CombinationType
	RollWidth     float64
	WidthUsed     float64
	LeftoverWidth float64
	Efficiency    float64
	LinearMeters  float64
	WorkOrder     string
	Orders        []*model.Order
}

// Report bundles everything the exports need from one planning run.
type Report struct {
	Orders     []*model.Order
	Result     model.PlanningResult
	Settings   model.PlanSettings
	WorkOrders []workorder.WorkOrder
}

// CollectGroups gathers the planned originals by group name, sorted by name.
// Temporary orders are ignored.
func CollectGroups(orders []*model.Order) []Group {
	index := make(map[string]int)
	var groups []Group
	for _, o := range orders {
		if o == nil || o.IsTemporary || !o.Planning.IsPlanned() {
			continue
		}
		p := o.Planning
		i, ok := index[p.Group]
		if !ok {
			i = len(groups)
			index[p.Group] = i
			groups = append(groups, Group{
				Name:       p.Group,
				Type:       p.CombinationType,
				RollWidth:  p.RollWidthUsed,
				WidthUsed:  p.WidthUsed,
				Efficiency: p.EfficiencyPercent,
				WorkOrder:  p.WorkOrder,
			})
		}
		g := &groups[i]
		g.LeftoverWidth += p.LeftoverWidth
		g.LinearMeters += p.PlannedLinearMeters
		g.Orders = append(g.Orders, o)
	}
	sort.Slice(groups, func(a, b int) bool { return groups[a].Name < groups[b].Name })
	return groups
}

// PendingOrders returns the originals left without a group.
func PendingOrders(orders []*model.Order) []*model.Order {
	var pending []*model.Order
	for _, o := range orders {
		if o != nil && !o.IsTemporary && !o.Planning.IsPlanned() {
			pending = append(pending, o)
		}
	}
	return pending
}

// strip is one order's band across the roll, in roll coordinates (mm).
type strip struct {
	Order      *model.Order
	Offset     float64
	Width      float64
	Multiplier int
}

// layoutStrips places the group's orders side by side, starting after half
// the safety margin. It returns the strips and the offset where the
// unused width begins.
func layoutStrips(g Group, margin float64) ([]strip, float64) {
	x := margin / 2
	var strips []strip
	for _, o := range g.Orders {
		m := o.Planning.CavityMultiplierUsed
		if m < 1 {
			m = 1
		}
		w := o.EffectiveWidth(m)
		strips = append(strips, strip{Order: o, Offset: x, Width: w, Multiplier: m})
		x += w
	}
	return strips, x
}
