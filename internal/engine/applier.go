package engine

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/megastock/rollplan/internal/model"
)

// GroupName formats a planning group sequence number.
func GroupName(seq int) string {
	return fmt.Sprintf("GROUP-%03d", seq)
}

// HighestGroup returns the largest group number carried by orders, or 0.
func HighestGroup(orders []*model.Order) int {
	highest := 0
	for _, o := range orders {
		if o == nil {
			continue
		}
		n, err := strconv.Atoi(strings.TrimPrefix(o.Planning.Group, "GROUP-"))
		if err == nil && n > highest {
			highest = n
		}
	}
	return highest
}

// Applier commits combinations to orders. It is the only writer of the
// planning fields besides the resets done by the Planner.
type Applier struct {
	Settings model.PlanSettings
	Log      logrus.FieldLogger
}

// NewApplier creates an applier logging to log, or to the standard logger
// when log is nil.
func NewApplier(settings model.PlanSettings, log logrus.FieldLogger) *Applier {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Applier{Settings: settings, Log: log}
}

// allocation is the production assigned to one order of a group.
type allocation struct {
	cuts   int
	qty    int
	linear float64
}

// Apply writes comb into a new planning group named after groupSeq.
// Entries whose order already belongs to a group or has no cavity are
// dropped; when that leaves nothing the call is a no-op. Problems are
// logged and reported through the boolean result only.
func (a *Applier) Apply(comb *model.Combination, groupSeq int) bool {
	group := GroupName(groupSeq)
	log := a.Log.WithField("group", group)
	if comb == nil || len(comb.Entries) == 0 {
		log.Warn("empty combination, nothing to apply")
		return false
	}

	entries := make([]model.Entry, 0, len(comb.Entries))
	seen := make(map[*model.Order]bool, len(comb.Entries))
	for _, e := range comb.Entries {
		if e.Order == nil || seen[e.Order] {
			continue
		}
		seen[e.Order] = true
		if e.Order.Planning.IsPlanned() {
			log.WithFields(logrus.Fields{
				"order":          e.Order.ID,
				"existing_group": e.Order.Planning.Group,
			}).Warn("order already grouped, dropped from combination")
			continue
		}
		if e.Order.EffectiveCavity(e.CavityMultiplier) <= 0 {
			log.WithField("order", e.Order.ID).Error("order has no cavity, dropped from combination")
			continue
		}
		entries = append(entries, e)
	}
	if len(entries) == 0 {
		log.Warn("no order of the combination can be grouped, skipped")
		return false
	}
	if len(entries) > model.MaxOrdersPerRoll {
		log.WithField("orders", len(entries)).Error("combination exceeds the slitter knives, skipped")
		return false
	}

	margin := a.Settings.SafetyMargin
	ev := Evaluate(entries, comb.RollWidth, margin)
	if len(entries) != len(comb.Entries) {
		log.WithField("orders", len(entries)).Info("combination re-evaluated after dropping orders")
	}
	if !ev.Feasible {
		log.WithField("roll_width", comb.RollWidth).Error("combination does not fit its roll, skipped")
		return false
	}

	typ := comb.Type
	if len(entries) == 1 && typ != model.CombinationIndividual {
		log.WithField("type", typ).Warn("single order left, forcing individual")
		typ = model.CombinationIndividual
	} else if len(entries) == 2 {
		typ = model.CombinationPair
	}

	allocs := make([]allocation, len(entries))
	if typ == model.CombinationPair {
		minor, major := 0, 1
		if entries[1].Order.RequestedQuantity < entries[0].Order.RequestedQuantity {
			minor, major = 1, 0
		}
		allocs[minor] = a.allocate(entries[minor])
		allocs[major] = a.allocateMajor(entries[major], allocs[minor].linear)
	} else {
		allocs[0] = a.allocate(entries[0])
	}

	for i, e := range entries {
		o := e.Order
		o.Planning = model.Planning{
			Group:                   group,
			CombinationType:         typ,
			WidthUsed:               ev.TotalWidthUsed,
			RollWidthUsed:           comb.RollWidth,
			LeftoverWidth:           ev.EntryLeftovers[i],
			EfficiencyPercent:       ev.EfficiencyPercent,
			PlannedLinearMeters:     allocs[i].linear,
			PlannedCuts:             allocs[i].cuts,
			PlannedQuantity:         allocs[i].qty,
			CavityMultiplierUsed:    e.CavityMultiplier,
			LeftoverCoveredQuantity: o.Planning.LeftoverCoveredQuantity,
			WorkOrder:               o.Planning.WorkOrder,
		}
		log.WithFields(logrus.Fields{
			"order":      o.ID,
			"roll_width": comb.RollWidth,
			"multiplier": e.CavityMultiplier,
			"cuts":       allocs[i].cuts,
			"quantity":   allocs[i].qty,
			"leftover":   ev.EntryLeftovers[i],
		}).Debug("order allocated")
	}

	log.WithFields(logrus.Fields{
		"type":       typ,
		"roll_width": comb.RollWidth,
		"leftover":   ev.LeftoverWidth,
		"efficiency": ev.EfficiencyPercent,
	}).Info("combination applied")
	return true
}

// allocate computes the production of an individual order or the minor
// order of a pair. The cut count is floored and gets one extra cut only
// when the floor would leave a large shortfall.
func (a *Applier) allocate(e model.Entry) allocation {
	o := e.Order
	ec := o.EffectiveCavity(e.CavityMultiplier)
	if ec <= 0 {
		a.Log.WithField("order", o.ID).Error("order has no cavity, nothing allocated")
		return allocation{}
	}

	cuts := o.RequestedQuantity / ec
	if a.Settings.ExtraCutOnLargeShortfall && o.RequestedQuantity-cuts*ec >= a.largeShortfall() {
		cuts++
	}
	qty := cuts * ec
	return allocation{
		cuts:   cuts,
		qty:    qty,
		linear: math.Round(float64(qty) * o.CalculatedLength() / float64(ec) / 1000),
	}
}

// allocateMajor derives the production of the major order of a pair from
// the linear meters the minor order runs. It never exceeds the request.
func (a *Applier) allocateMajor(e model.Entry, linear float64) allocation {
	o := e.Order
	ec := o.EffectiveCavity(e.CavityMultiplier)
	calcLen := o.CalculatedLength()
	if ec <= 0 || calcLen <= 0 {
		a.Log.WithField("order", o.ID).Error("order has no cavity or length, nothing allocated")
		return allocation{linear: linear}
	}

	qty := int(math.Floor(linear / calcLen * 1000))
	if qty > o.RequestedQuantity {
		qty = o.RequestedQuantity
	}
	if qty < 0 {
		qty = 0
	}
	return allocation{
		cuts:   qty / ec,
		qty:    qty,
		linear: linear,
	}
}

func (a *Applier) largeShortfall() int {
	if a.Settings.LargeShortfall > 0 {
		return a.Settings.LargeShortfall
	}
	return model.DefaultSettings().LargeShortfall
}
