package engine

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/megastock/rollplan/internal/model"
)

// Planner allocates orders to roll runs and replans large shortfalls
// through temporary leftover orders until the run settles.
type Planner struct {
	Settings model.PlanSettings
	Log      logrus.FieldLogger

	// GroupOffset is the highest group number already in use outside the
	// run. New groups are numbered after it.
	GroupOffset int

	// mu serializes runs; a run owns the order set it was given.
	mu sync.Mutex
}

func New(settings model.PlanSettings) *Planner {
	return &Planner{Settings: settings, Log: logrus.StandardLogger()}
}

// Plan runs the planner over orders using the given roll widths and writes
// the outcome into each order's Planning. Temporary orders in the input are
// ignored and orders not in the input are never touched. The only error
// returned is ErrNoRollWidths.
func (p *Planner) Plan(orders []*model.Order, rollWidths []float64) (model.PlanningResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	settings := p.normalizedSettings()
	rolls := ascendingRolls(rollWidths)
	if len(rolls) == 0 {
		return model.PlanningResult{}, errors.Wrapf(ErrNoRollWidths, "%d widths supplied", len(rollWidths))
	}

	runID := uuid.New().String()
	log := p.logger().WithFields(logrus.Fields{
		"run":      runID,
		"strategy": settings.Strategy(),
	})

	var originals []*model.Order
	for _, o := range orders {
		if o == nil {
			continue
		}
		if o.IsTemporary {
			log.WithField("order", o.ID).Warn("temporary order in input, ignored")
			continue
		}
		// a new run invalidates earlier work orders
		o.Planning = model.Planning{}
		originals = append(originals, o)
	}

	if settings.SingleRoll && len(rolls) > 1 {
		width := p.chooseSingleRoll(originals, rolls, settings, log)
		log.WithField("roll_width", width).Info("single roll selected")
		rolls = []float64{width}
	}

	r := newRun(originals, rolls, settings, log)
	r.groupBase = p.GroupOffset
	outcome := r.execute()

	result := summarize(originals)
	result.RunID = runID
	result.IterationsUsed = outcome.iterations
	result.Termination = outcome.termination
	result.Strategy = settings.Strategy()
	result.TemporariesCreated = outcome.temporaries

	log.WithFields(logrus.Fields{
		"termination": result.Termination,
		"iterations":  result.IterationsUsed,
		"groups":      result.GroupsCreated,
		"pending":     result.PendingOrders,
		"efficiency":  result.AverageEfficiency,
	}).Info("planning finished")
	return result, nil
}

func (p *Planner) logger() logrus.FieldLogger {
	if p.Log == nil {
		return logrus.StandardLogger()
	}
	return p.Log
}

// normalizedSettings replaces unusable settings with the defaults.
func (p *Planner) normalizedSettings() model.PlanSettings {
	s := p.Settings
	defaults := model.DefaultSettings()
	if s.CavityMultiplierCeiling < 1 {
		s.CavityMultiplierCeiling = 1
	}
	if s.SafetyMargin < 0 {
		s.SafetyMargin = 0
	}
	if s.LargeShortfall <= 0 {
		s.LargeShortfall = defaults.LargeShortfall
	}
	if s.MaxIterations <= 0 {
		s.MaxIterations = defaults.MaxIterations
	}
	if s.StuckRepeatLimit <= 0 {
		s.StuckRepeatLimit = defaults.StuckRepeatLimit
	}
	return s
}

// chooseSingleRoll trial-plans every width on a copy of the orders and
// keeps the one leaving the fewest pending orders, then the least leftover,
// then the narrowest roll.
func (p *Planner) chooseSingleRoll(originals []*model.Order, rolls []float64, s model.PlanSettings, log logrus.FieldLogger) float64 {
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)

	best := rolls[0]
	bestPending, bestLeftover := -1, 0.0
	for _, w := range rolls {
		trial := make([]*model.Order, len(originals))
		for i, o := range originals {
			trial[i] = o.Clone()
		}
		newRun(trial, []float64{w}, s, quiet).execute()
		res := summarize(trial)

		log.WithFields(logrus.Fields{
			"roll_width": w,
			"pending":    res.PendingOrders,
			"leftover":   res.TotalLeftover,
		}).Debug("single roll trial")

		if bestPending < 0 || res.PendingOrders < bestPending ||
			(res.PendingOrders == bestPending && res.TotalLeftover < bestLeftover-leftoverEpsilon) {
			best, bestPending, bestLeftover = w, res.PendingOrders, res.TotalLeftover
		}
	}
	return best
}

// runOutcome is how a run ended.
type runOutcome struct {
	termination model.Termination
	iterations  int
	temporaries int
}

// run is the state of one planning run over a fixed order set.
type run struct {
	settings  model.PlanSettings
	log       logrus.FieldLogger
	applier   *Applier
	rolls     []float64
	originals []*model.Order
	temps     []*model.Order

	groupBase   int
	groupSeq    int
	temporaries int
}

func newRun(originals []*model.Order, rolls []float64, s model.PlanSettings, log logrus.FieldLogger) *run {
	return &run{
		settings:  s,
		log:       log,
		applier:   NewApplier(s, log),
		rolls:     rolls,
		originals: originals,
	}
}

// execute iterates until the run converges or gives up, then removes the
// temporaries and repairs group cardinality.
func (r *run) execute() runOutcome {
	var (
		termination model.Termination
		iteration   = 1
		lastSig     string
		repeats     int
		large       []*model.Order
	)

	for {
		log := r.log.WithField("iteration", iteration)
		log.WithField("temporaries", len(r.temps)).Debug("iteration started")

		r.pass()

		var small []*model.Order
		large, small = r.classify()
		log.WithFields(logrus.Fields{
			"large_shortfall": len(large),
			"small_shortfall": len(small),
			"groups":          r.groupSeq - r.groupBase,
		}).Info("iteration finished")

		if len(large) == 0 {
			if len(small) == 0 {
				termination = model.TerminationConverged
			} else {
				termination = model.TerminationPartialConverged
				for _, o := range small {
					log.WithFields(logrus.Fields{
						"order":     o.ID,
						"shortfall": r.shortfall(o),
					}).Info("small shortfall, order left pending")
					r.resetWithTemporaries(o)
				}
			}
			break
		}

		if iteration >= r.settings.MaxIterations {
			termination = model.TerminationExhausted
			break
		}
		if !r.settings.SingleRoll {
			sig := r.signature(large)
			if sig == lastSig {
				repeats++
			} else {
				lastSig, repeats = sig, 1
			}
			if repeats >= r.settings.StuckRepeatLimit {
				termination = model.TerminationStuck
				break
			}
		}

		r.replan(large, iteration)
		iteration++
	}

	if termination == model.TerminationExhausted || termination == model.TerminationStuck {
		r.log.WithFields(logrus.Fields{
			"termination": termination,
			"orders":      len(large),
		}).Warn("large shortfalls left, trying individual runs")
		r.finalIndividuals(large)
	}

	r.dropTemporaries()
	r.repairGroups()

	return runOutcome{
		termination: termination,
		iterations:  iteration,
		temporaries: r.temporaries,
	}
}

// pool returns the originals followed by the live temporaries.
func (r *run) pool() []*model.Order {
	pool := make([]*model.Order, 0, len(r.originals)+len(r.temps))
	pool = append(pool, r.originals...)
	return append(pool, r.temps...)
}

// pass allocates the whole pool once. Group numbering restarts with every
// pass since every order is reset in between.
func (r *run) pass() {
	r.groupSeq = r.groupBase
	pool := r.pool()
	assigned := make(map[string]bool, len(pool))
	s := r.settings

	if !s.SingleRoll {
		for _, pair := range rankPairs(pool, assigned, r.rolls, s.CavityMultiplierCeiling, s.SafetyMargin) {
			if assigned[pair.Entries[0].OrderID] || assigned[pair.Entries[1].OrderID] {
				continue
			}
			r.apply(pair, assigned)
		}
	}

	for _, o := range pool {
		if assigned[o.ID] {
			continue
		}
		comb := Search(o, pool, assigned, r.rolls, s.CavityMultiplierCeiling, s.SafetyMargin)
		if comb == nil {
			r.log.WithField("order", o.ID).Debug("no roll fits the order")
			continue
		}
		r.apply(comb, assigned)
	}
}

func (r *run) apply(comb *model.Combination, assigned map[string]bool) {
	r.groupSeq++
	if !r.applier.Apply(comb, r.groupSeq) {
		r.groupSeq--
		return
	}
	for _, e := range comb.Entries {
		if e.Order.Planning.IsPlanned() {
			assigned[e.OrderID] = true
		}
	}
}

// temporaryProduction sums the planned quantity of the live temporaries
// of every original.
func (r *run) temporaryProduction() map[string]int {
	produced := make(map[string]int)
	for _, t := range r.temps {
		produced[t.OriginalOrderID] += t.Planning.PlannedQuantity
	}
	return produced
}

// shortfall is the quantity of an original still missing, counting what
// its temporaries produce in the current pass.
func (r *run) shortfall(o *model.Order) int {
	return o.Shortfall() - r.temporaryProduction()[o.ID]
}

// classify splits the originals by shortfall size.
func (r *run) classify() (large, small []*model.Order) {
	produced := r.temporaryProduction()
	for _, o := range r.originals {
		s := o.Shortfall() - produced[o.ID]
		switch {
		case s >= r.settings.LargeShortfall:
			large = append(large, o)
		case s > 0:
			small = append(small, o)
		}
	}
	return large, small
}

// signature identifies a set of large shortfalls independently of order.
func (r *run) signature(large []*model.Order) string {
	produced := r.temporaryProduction()
	parts := make([]string, len(large))
	for i, o := range large {
		parts[i] = fmt.Sprintf("%s=%d", o.ID, o.Shortfall()-produced[o.ID])
	}
	sort.Strings(parts)
	return strings.Join(parts, ";")
}

// replan resets the pool and creates one temporary per large shortfall.
// Quantities are captured before the reset wipes the planned figures.
func (r *run) replan(large []*model.Order, generation int) {
	missing := make([]int, len(large))
	for i, o := range large {
		missing[i] = o.RequestedQuantity - o.Planning.PlannedQuantity
	}

	for _, o := range r.originals {
		o.ResetPlanning()
	}
	r.temps = r.temps[:0]

	for i, o := range large {
		tmp, err := model.NewTemporary(o, missing[i], generation)
		if err != nil {
			r.log.WithError(err).WithField("order", o.ID).Error("cannot create temporary order")
			continue
		}
		r.temps = append(r.temps, tmp)
		r.temporaries++
		r.log.WithFields(logrus.Fields{
			"order":     tmp.ID,
			"original":  o.ID,
			"quantity":  tmp.RequestedQuantity,
			"iteration": generation,
		}).Info("temporary order created")
	}
}

// resetWithTemporaries leaves o pending along with every temporary it owns.
func (r *run) resetWithTemporaries(o *model.Order) {
	o.ResetPlanning()
	for _, t := range r.temps {
		if t.OriginalOrderID == o.ID {
			t.ResetPlanning()
		}
	}
}

// finalIndividuals gives each large-shortfall order one last chance as a
// single-order run. Orders that fit nowhere stay pending.
func (r *run) finalIndividuals(large []*model.Order) {
	for _, o := range large {
		r.resetWithTemporaries(o)
	}
	for _, o := range large {
		comb := Search(o, nil, nil, r.rolls, r.settings.CavityMultiplierCeiling, r.settings.SafetyMargin)
		if comb == nil {
			r.log.WithField("order", o.ID).Warn("order fits no roll, left pending")
			continue
		}
		r.groupSeq++
		if !r.applier.Apply(comb, r.groupSeq) {
			r.groupSeq--
		}
	}
}

// dropTemporaries folds what the temporaries produced into their originals
// and discards them.
func (r *run) dropTemporaries() {
	produced := r.temporaryProduction()
	for _, o := range r.originals {
		o.Planning.LeftoverCoveredQuantity += produced[o.ID]
	}
	r.temps = nil
}

// repairGroups rewrites the combination type and leftover of every group
// whose member count no longer matches its type.
func (r *run) repairGroups() {
	members := make(map[string][]*model.Order)
	var groups []string
	for _, o := range r.originals {
		g := o.Planning.Group
		if g == "" {
			continue
		}
		if _, ok := members[g]; !ok {
			groups = append(groups, g)
		}
		members[g] = append(members[g], o)
	}

	for _, g := range groups {
		group := members[g]
		want := model.TypeForMembers(len(group))
		if len(group) > model.MaxOrdersPerRoll {
			r.log.WithFields(logrus.Fields{"group": g, "orders": len(group)}).Error("group has too many orders")
			continue
		}
		if group[0].Planning.CombinationType == want {
			continue
		}
		r.log.WithFields(logrus.Fields{
			"group": g,
			"from":  group[0].Planning.CombinationType,
			"to":    want,
		}).Info("group type corrected")
		for _, o := range group {
			slot := slotWidth(o.Planning.RollWidthUsed, r.settings.SafetyMargin, len(group))
			o.Planning.CombinationType = want
			o.Planning.LeftoverWidth = slot - o.EffectiveWidth(o.Planning.CavityMultiplierUsed)
		}
	}
}

// summarize computes the run figures from the planned originals.
func summarize(originals []*model.Order) model.PlanningResult {
	var res model.PlanningResult
	groups := make(map[string]bool)
	rolls := make(map[float64]bool)
	var efficiency float64
	for _, o := range originals {
		p := o.Planning
		if !p.IsPlanned() {
			res.PendingOrders++
			continue
		}
		res.TotalLeftover += p.LeftoverWidth
		if !groups[p.Group] {
			groups[p.Group] = true
			efficiency += p.EfficiencyPercent
		}
		if !rolls[p.RollWidthUsed] {
			rolls[p.RollWidthUsed] = true
			res.RollWidths = append(res.RollWidths, p.RollWidthUsed)
		}
	}
	res.GroupsCreated = len(groups)
	if res.GroupsCreated > 0 {
		res.AverageEfficiency = efficiency / float64(res.GroupsCreated)
	}
	sort.Float64s(res.RollWidths)
	return res
}
