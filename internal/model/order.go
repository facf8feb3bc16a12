package model

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
)

// Fixed allowances added by the corrugator to the flute-compensated box
// dimensions when computing the blank size.
const (
	lengthAllowance = 8.0  // mm added to the calculated length
	widthAllowance  = 14.0 // mm added to the calculated width

	// DieCutExtraWidth is the extra width a die-cut order would need.
	// It is currently not added to CalculatedWidth (see dieCutExtraEnabled).
	DieCutExtraWidth = 2.0
)

// dieCutExtraEnabled keeps the die-cut width extra switched off until the
// plant confirms whether die-cut blanks really need it.
const dieCutExtraEnabled = false

// PaperLayer describes one of the three paper layers of the board.
type PaperLayer struct {
	Supplier string  `json:"supplier,omitempty"`
	Width    float64 `json:"width"`    // mm
	Grammage float64 `json:"grammage"` // g/m²
	Type     string  `json:"type,omitempty"`
}

// Planning holds the fields written by the allocation step.
type Planning struct {
	Group                   string          `json:"group,omitempty"`
	CombinationType         CombinationType `json:"combination_type,omitempty"`
	WidthUsed               float64         `json:"width_used"`                // mm, total across the group
	RollWidthUsed           float64         `json:"roll_width_used"`           // mm
	LeftoverWidth           float64         `json:"leftover_width"`            // mm, this order's share
	EfficiencyPercent       float64         `json:"efficiency_percent"`        // shared by the group
	PlannedLinearMeters     float64         `json:"planned_linear_meters"`     // m
	PlannedCuts             int             `json:"planned_cuts"`              // knife strokes
	PlannedQuantity         int             `json:"planned_quantity"`          // pieces
	CavityMultiplierUsed    int             `json:"cavity_multiplier_used"`    // 0 when unplanned
	LeftoverCoveredQuantity int             `json:"leftover_covered_quantity"` // pieces produced by leftover runs
	WorkOrder               string          `json:"work_order,omitempty"`
}

// IsPlanned reports whether the order currently belongs to a planning group.
func (p Planning) IsPlanned() bool {
	return p.Group != ""
}

// Order is a production order for one box reference.
type Order struct {
	ID            string    `json:"id"` // order reference, unique
	Customer      string    `json:"customer,omitempty"`
	CustomerOrder string    `json:"customer_order,omitempty"`
	Code          string    `json:"code,omitempty"`
	Description   string    `json:"description,omitempty"`
	FluteCode     string    `json:"flute,omitempty"`
	OrderDate     time.Time `json:"order_date,omitempty"`
	DueDate       time.Time `json:"due_date,omitempty"`
	DieNumber     string    `json:"die_number,omitempty"`
	DieCut        bool      `json:"die_cut,omitempty"`

	// Raw box dimensions in mm.
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`

	// Dimensions after flute compensation, in mm.
	LengthFluteIndex float64 `json:"length_flute_index"`
	WidthFluteIndex  float64 `json:"width_flute_index"`
	HeightFluteIndex float64 `json:"height_flute_index"`

	RequestedQuantity int `json:"requested_quantity"`
	Cavity            int `json:"cavity"`

	InnerLiner PaperLayer `json:"inner_liner"`
	Medium     PaperLayer `json:"medium"`
	OuterLiner PaperLayer `json:"outer_liner"`

	// Temporary orders carry a leftover quantity of OriginalOrderID
	// during a planning run and never outlive it.
	IsTemporary     bool   `json:"is_temporary,omitempty"`
	OriginalOrderID string `json:"original_order_id,omitempty"`

	Planning Planning `json:"planning"`
}

// NewOrder creates an order whose flute indices equal the raw dimensions.
// Call ApplyFlute to compensate them for a known flute.
func NewOrder(id string, length, width, height float64, qty, cavity int) *Order {
	return &Order{
		ID:                id,
		Length:            length,
		Width:             width,
		Height:            height,
		LengthFluteIndex:  length,
		WidthFluteIndex:   width,
		HeightFluteIndex:  height,
		RequestedQuantity: qty,
		Cavity:            cavity,
	}
}

// ApplyFlute recomputes the flute indices from the raw dimensions and the
// flute's compensation offsets.
func (o *Order) ApplyFlute(f Flute) {
	o.FluteCode = f.Code
	o.LengthFluteIndex = o.Length + f.LengthOffset
	o.WidthFluteIndex = o.Width + f.WidthOffset
	o.HeightFluteIndex = o.Height + f.HeightOffset
}

// CalculatedLength is the blank length along the roll, in mm.
func (o *Order) CalculatedLength() float64 {
	if o.LengthFluteIndex <= 0 {
		return 0
	}
	return 2*o.HeightFluteIndex + o.LengthFluteIndex + lengthAllowance
}

// CalculatedWidth is the blank width across the roll, in mm.
func (o *Order) CalculatedWidth() float64 {
	if o.WidthFluteIndex <= 0 {
		return 0
	}
	w := 2*o.HeightFluteIndex + o.WidthFluteIndex + widthAllowance
	if dieCutExtraEnabled && o.DieCut {
		w += DieCutExtraWidth
	}
	return w
}

// EffectiveWidth is the width taken on the roll when the blank is repeated
// multiplier times across it.
func (o *Order) EffectiveWidth(multiplier int) float64 {
	return o.CalculatedWidth() * float64(multiplier)
}

// EffectiveCavity is the number of pieces produced per cut with the given
// cavity multiplier.
func (o *Order) EffectiveCavity(multiplier int) int {
	return o.Cavity * multiplier
}

// Shortfall is the quantity still missing after planning. Negative values
// mean overproduction.
func (o *Order) Shortfall() int {
	return o.RequestedQuantity - o.Planning.PlannedQuantity - o.Planning.LeftoverCoveredQuantity
}

// ResetPlanning clears every planning output, leaving the order pending.
// The work order reference is kept.
func (o *Order) ResetPlanning() {
	wo := o.Planning.WorkOrder
	o.Planning = Planning{WorkOrder: wo}
}

// Clone returns a deep copy of the order.
func (o *Order) Clone() *Order {
	cp := *o
	return &cp
}

// ErrNestedTemporary is returned when a temporary order is used as the
// origin of another temporary.
var ErrNestedTemporary = errors.New("temporary orders cannot originate leftovers")

// NewTemporary creates a leftover order carrying qty pieces of the original.
// Temporaries of temporaries are not allowed.
func NewTemporary(original *Order, qty int, generation int) (*Order, error) {
	if original.IsTemporary {
		return nil, errors.Wrapf(ErrNestedTemporary, "order %s", original.ID)
	}
	tmp := original.Clone()
	tmp.ID = fmt.Sprintf("%s/F%d", original.ID, generation)
	tmp.RequestedQuantity = qty
	tmp.IsTemporary = true
	tmp.OriginalOrderID = original.ID
	tmp.Planning = Planning{}
	return tmp, nil
}

// Label returns a human readable name for reports.
func (o *Order) Label() string {
	if o.Customer == "" {
		return o.ID
	}
	return fmt.Sprintf("%s - %s", o.ID, o.Customer)
}
