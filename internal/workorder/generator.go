// Package workorder turns planning groups into schedulable work orders and
// estimates the paper they consume.
package workorder

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/megastock/rollplan/internal/model"
)

// Status is the lifecycle state of a work order.
type Status string

const (
	StatusDraft      Status = "draft"
	StatusScheduled  Status = "scheduled"
	StatusInProgress Status = "in_progress"
	StatusPaused     Status = "paused"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// ErrInvalidTransition is returned when a status change is not allowed.
var ErrInvalidTransition = errors.New("invalid work order transition")

// WorkOrder is one roll run scheduled on the corrugator.
type WorkOrder struct {
	ID                string                `json:"id"`
	Number            string                `json:"number"` // OT-YYYY-NNNN
	Group             string                `json:"group"`
	Type              model.CombinationType `json:"type"`
	RollWidth         float64               `json:"roll_width"`
	WidthUsed         float64               `json:"width_used"`
	LeftoverWidth     float64               `json:"leftover_width"`
	EfficiencyPercent float64               `json:"efficiency_percent"`
	LinearMeters      float64               `json:"linear_meters"`
	Cuts              int                   `json:"cuts"`
	OrderIDs          []string              `json:"order_ids"`
	EstimatedHours    float64               `json:"estimated_hours"`
	Material          Consumption           `json:"material"`
	EstimatedCost     decimal.Decimal       `json:"estimated_cost"`
	Status            Status                `json:"status"`
	CreatedAt         time.Time             `json:"created_at"`
	StartedAt         time.Time             `json:"started_at,omitempty"`
	FinishedAt        time.Time             `json:"finished_at,omitempty"`
}

// allowed lists the states each status may move to.
var allowed = map[Status][]Status{
	StatusDraft:      {StatusScheduled, StatusCancelled},
	StatusScheduled:  {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusPaused, StatusCompleted, StatusCancelled},
	StatusPaused:     {StatusInProgress, StatusCancelled},
}

// Transition moves the work order to next, stamping start and finish times.
func (w *WorkOrder) Transition(next Status, now time.Time) error {
	for _, s := range allowed[w.Status] {
		if s != next {
			continue
		}
		switch {
		case next == StatusInProgress && w.StartedAt.IsZero():
			w.StartedAt = now
		case next == StatusCompleted:
			w.FinishedAt = now
		}
		w.Status = next
		return nil
	}
	return errors.Wrapf(ErrInvalidTransition, "%s: %s to %s", w.Number, w.Status, next)
}

// ActualHours is the elapsed time of a finished run.
func (w *WorkOrder) ActualHours() float64 {
	if w.StartedAt.IsZero() || w.FinishedAt.IsZero() {
		return 0
	}
	return w.FinishedAt.Sub(w.StartedAt).Hours()
}

// Sequence numbers work orders per year.
type Sequence struct {
	Year int `json:"year"`
	Last int `json:"last"`
}

// SequenceFrom resumes numbering after the given work order number.
// An unparsable number starts a fresh sequence.
func SequenceFrom(number string) Sequence {
	parts := strings.Split(number, "-")
	if len(parts) != 3 || parts[0] != "OT" {
		return Sequence{}
	}
	year, err1 := strconv.Atoi(parts[1])
	last, err2 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil {
		return Sequence{}
	}
	return Sequence{Year: year, Last: last}
}

// Next returns the next number, restarting at 1 when the year changes.
func (s *Sequence) Next(now time.Time) string {
	if now.Year() != s.Year {
		s.Year = now.Year()
		s.Last = 0
	}
	s.Last++
	return fmt.Sprintf("OT-%d-%04d", s.Year, s.Last)
}

// Generator builds work orders from planned orders.
type Generator struct {
	BaseSpeed         float64 // m/h for pairs
	IndividualSpeedup float64 // factor applied to single-order runs
	Catalog           *model.Catalog
	Seq               Sequence
	Now               func() time.Time
	Log               logrus.FieldLogger
}

// NewGenerator creates a generator with the speeds from cfg.
func NewGenerator(cfg model.AppConfig, cat *model.Catalog, seq Sequence) *Generator {
	g := &Generator{
		BaseSpeed:         cfg.WorkOrderBaseSpeed,
		IndividualSpeedup: cfg.WorkOrderIndividualSpeedup,
		Catalog:           cat,
		Seq:               seq,
		Now:               time.Now,
		Log:               logrus.StandardLogger(),
	}
	if g.BaseSpeed <= 0 {
		g.BaseSpeed = model.DefaultAppConfig().WorkOrderBaseSpeed
	}
	if g.IndividualSpeedup <= 0 {
		g.IndividualSpeedup = model.DefaultAppConfig().WorkOrderIndividualSpeedup
	}
	return g
}

// EstimateHours converts linear meters into run time for a combination type.
func (g *Generator) EstimateHours(meters float64, typ model.CombinationType) float64 {
	speed := g.BaseSpeed
	if typ == model.CombinationIndividual {
		speed *= g.IndividualSpeedup
	}
	if speed <= 0 {
		return 0
	}
	return meters / speed
}

// Generate creates one scheduled work order per planning group. Groups whose
// orders already carry a work order are skipped. Each member order receives
// the new work order number.
func (g *Generator) Generate(orders []*model.Order) []WorkOrder {
	groups := make(map[string][]*model.Order)
	var names []string
	for _, o := range orders {
		if o == nil || o.IsTemporary || !o.Planning.IsPlanned() {
			continue
		}
		name := o.Planning.Group
		if _, ok := groups[name]; !ok {
			names = append(names, name)
		}
		groups[name] = append(groups[name], o)
	}
	sort.Strings(names)

	now := g.Now()
	var result []WorkOrder
	for _, name := range names {
		members := groups[name]
		if scheduled(members) {
			g.Log.WithField("group", name).Debug("group already has a work order")
			continue
		}

		first := members[0].Planning
		wo := WorkOrder{
			ID:        uuid.New().String(),
			Number:    g.Seq.Next(now),
			Group:     name,
			Type:      first.CombinationType,
			RollWidth: first.RollWidthUsed,
			WidthUsed: first.WidthUsed,
			Status:    StatusScheduled,
			CreatedAt: now,
		}
		var efficiency float64
		for _, o := range members {
			p := o.Planning
			wo.LeftoverWidth += p.LeftoverWidth
			efficiency += p.EfficiencyPercent
			wo.LinearMeters += p.PlannedLinearMeters
			wo.Cuts += p.PlannedCuts
			wo.OrderIDs = append(wo.OrderIDs, o.ID)
			wo.Material = wo.Material.Add(OrderConsumption(o))
		}
		wo.EfficiencyPercent = efficiency / float64(len(members))
		wo.EstimatedHours = g.EstimateHours(wo.LinearMeters, wo.Type)
		wo.EstimatedCost = decimal.Zero
		if g.Catalog != nil {
			if roll := g.Catalog.FindRollByWidth(wo.RollWidth); roll != nil {
				wo.EstimatedCost = EstimateCost(wo.Material, roll.CostPerKg)
			}
		}

		for _, o := range members {
			o.Planning.WorkOrder = wo.Number
		}
		g.Log.WithFields(logrus.Fields{
			"work_order": wo.Number,
			"group":      name,
			"orders":     len(members),
			"hours":      wo.EstimatedHours,
		}).Info("work order created")
		result = append(result, wo)
	}
	return result
}

func scheduled(members []*model.Order) bool {
	for _, o := range members {
		if o.Planning.WorkOrder == "" {
			return false
		}
	}
	return true
}
