package model

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Roll is a paper roll width available to the corrugator.
type Roll struct {
	ID           string          `json:"id"`
	Code         string          `json:"code,omitempty"`
	Width        float64         `json:"width"` // mm
	Active       bool            `json:"active"`
	Supplier     string          `json:"supplier,omitempty"`
	StockOnHand  float64         `json:"stock_on_hand"` // kg
	MinimumStock float64         `json:"minimum_stock"` // kg
	CostPerKg    decimal.Decimal `json:"cost_per_kg"`
}

// NewRoll creates an active roll with a generated ID.
func NewRoll(width float64) Roll {
	return Roll{
		ID:        uuid.New().String()[:8],
		Width:     width,
		Active:    true,
		CostPerKg: decimal.Zero,
	}
}

// Name returns the display name used in selectors and reports.
func (r Roll) Name() string {
	name := fmt.Sprintf("%.0fmm", r.Width)
	if !r.Active {
		name += " (inactive)"
	}
	return name
}

// BelowMinimum reports whether stock has fallen under the minimum.
func (r Roll) BelowMinimum() bool {
	return r.MinimumStock > 0 && r.StockOnHand < r.MinimumStock
}

// Flute is a corrugation profile with its dimensional compensation.
type Flute struct {
	ID           string  `json:"id"`
	Code         string  `json:"code"`
	Name         string  `json:"name"`
	LengthOffset float64 `json:"length_offset"` // mm
	WidthOffset  float64 `json:"width_offset"`  // mm
	HeightOffset float64 `json:"height_offset"` // mm
	Active       bool    `json:"active"`
}

// NormalizeFluteCode upper-cases and trims a flute code.
func NormalizeFluteCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// NewFlute creates an active flute with a normalized code.
func NewFlute(code, name string, lengthOff, widthOff, heightOff float64) Flute {
	return Flute{
		ID:           uuid.New().String()[:8],
		Code:         NormalizeFluteCode(code),
		Name:         name,
		LengthOffset: lengthOff,
		WidthOffset:  widthOff,
		HeightOffset: heightOff,
		Active:       true,
	}
}

// Catalog holds the plant's roll widths and flute table.
type Catalog struct {
	Rolls  []Roll  `json:"rolls"`
	Flutes []Flute `json:"flutes"`
}

// DefaultRollWidths are the widths seeded into a new catalog.
var DefaultRollWidths = []float64{1800, 1600, 1400, 1200, 1000, 800}

// DefaultCatalog returns a catalog populated with the plant defaults.
func DefaultCatalog() Catalog {
	cat := Catalog{
		Flutes: []Flute{
			NewFlute("A", "A flute (4.8mm)", 6, 6, 5),
			NewFlute("B", "B flute (3.2mm)", 4, 4, 3),
			NewFlute("C", "C flute (4.0mm)", 5, 5, 4),
			NewFlute("E", "E flute (1.6mm)", 2, 2, 2),
			NewFlute("F", "F flute (0.8mm)", 1, 1, 1),
			NewFlute("BC", "Double wall BC", 9, 9, 7),
			NewFlute("EB", "Double wall EB", 6, 6, 5),
		},
	}
	for _, w := range DefaultRollWidths {
		cat.Rolls = append(cat.Rolls, NewRoll(w))
	}
	return cat
}

// ActiveRollWidths returns the unique widths of active rolls, widest first.
func (c *Catalog) ActiveRollWidths() []float64 {
	seen := make(map[float64]bool)
	var widths []float64
	for _, r := range c.Rolls {
		if !r.Active || r.Width <= 0 || seen[r.Width] {
			continue
		}
		seen[r.Width] = true
		widths = append(widths, r.Width)
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(widths)))
	return widths
}

// SelectRollWidths validates a user selection against the active rolls.
// An empty selection returns every active width.
func (c *Catalog) SelectRollWidths(requested []float64) ([]float64, error) {
	active := c.ActiveRollWidths()
	if len(requested) == 0 {
		return active, nil
	}
	activeSet := make(map[float64]bool, len(active))
	for _, w := range active {
		activeSet[w] = true
	}
	seen := make(map[float64]bool)
	var selected []float64
	for _, w := range requested {
		if !activeSet[w] {
			return nil, fmt.Errorf("roll width %.0fmm is not an active roll", w)
		}
		if !seen[w] {
			seen[w] = true
			selected = append(selected, w)
		}
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(selected)))
	return selected, nil
}

// FindRollByID returns a pointer to the roll with the given ID, or nil.
func (c *Catalog) FindRollByID(id string) *Roll {
	for i := range c.Rolls {
		if c.Rolls[i].ID == id {
			return &c.Rolls[i]
		}
	}
	return nil
}

// FindRollByWidth returns the first active roll with the given width, or nil.
func (c *Catalog) FindRollByWidth(width float64) *Roll {
	for i := range c.Rolls {
		if c.Rolls[i].Active && c.Rolls[i].Width == width {
			return &c.Rolls[i]
		}
	}
	return nil
}

// FindFlute looks up an active flute by code, case-insensitively.
func (c *Catalog) FindFlute(code string) (Flute, bool) {
	code = NormalizeFluteCode(code)
	if code == "" {
		return Flute{}, false
	}
	for _, f := range c.Flutes {
		if f.Active && f.Code == code {
			return f, true
		}
	}
	return Flute{}, false
}

// RollNames returns display names for every roll.
func (c *Catalog) RollNames() []string {
	names := make([]string, len(c.Rolls))
	for i, r := range c.Rolls {
		names[i] = r.Name()
	}
	return names
}
