package workorder

import (
	"github.com/shopspring/decimal"

	"github.com/megastock/rollplan/internal/model"
)

// MediumTakeUp is the corrugated medium consumed per meter of liner.
var MediumTakeUp = decimal.RequireFromString("1.45")

var million = decimal.NewFromInt(1_000_000)

// Consumption is the paper needed for a production run, in kg.
type Consumption struct {
	InnerLinerKg decimal.Decimal `json:"inner_liner_kg"`
	MediumKg     decimal.Decimal `json:"medium_kg"`
	OuterLinerKg decimal.Decimal `json:"outer_liner_kg"`
}

// Total returns the combined weight of the three layers.
func (c Consumption) Total() decimal.Decimal {
	return c.InnerLinerKg.Add(c.MediumKg).Add(c.OuterLinerKg)
}

// Add returns the sum of two consumptions.
func (c Consumption) Add(o Consumption) Consumption {
	return Consumption{
		InnerLinerKg: c.InnerLinerKg.Add(o.InnerLinerKg),
		MediumKg:     c.MediumKg.Add(o.MediumKg),
		OuterLinerKg: c.OuterLinerKg.Add(o.OuterLinerKg),
	}
}

// LayerKg is width (mm) x grammage (g/m²) x meters / 1e6, scaled by factor.
func LayerKg(width, grammage, meters float64, factor decimal.Decimal) decimal.Decimal {
	return decimal.NewFromFloat(width).
		Mul(decimal.NewFromFloat(grammage)).
		Mul(decimal.NewFromFloat(meters)).
		Div(million).
		Mul(factor).
		Round(2)
}

// OrderConsumption computes the paper used by an order's planned run.
// A layer without a width is assumed to span the roll used.
func OrderConsumption(o *model.Order) Consumption {
	meters := o.Planning.PlannedLinearMeters
	width := func(l model.PaperLayer) float64 {
		if l.Width > 0 {
			return l.Width
		}
		return o.Planning.RollWidthUsed
	}
	return Consumption{
		InnerLinerKg: LayerKg(width(o.InnerLiner), o.InnerLiner.Grammage, meters, decimal.NewFromInt(1)),
		MediumKg:     LayerKg(width(o.Medium), o.Medium.Grammage, meters, MediumTakeUp),
		OuterLinerKg: LayerKg(width(o.OuterLiner), o.OuterLiner.Grammage, meters, decimal.NewFromInt(1)),
	}
}

// BoardGrammage is the combined board weight: inner + medium x 1.45 + outer.
func BoardGrammage(o *model.Order) decimal.Decimal {
	return decimal.NewFromFloat(o.InnerLiner.Grammage).
		Add(decimal.NewFromFloat(o.Medium.Grammage).Mul(MediumTakeUp)).
		Add(decimal.NewFromFloat(o.OuterLiner.Grammage))
}

// EstimateCost prices a consumption at costPerKg.
func EstimateCost(c Consumption, costPerKg decimal.Decimal) decimal.Decimal {
	return c.Total().Mul(costPerKg).Round(2)
}
