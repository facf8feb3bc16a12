package model

// CombinationType tells how many orders share one roll run.
type CombinationType string

const (
	CombinationIndividual CombinationType = "individual" // one order on the roll
	CombinationPair       CombinationType = "pair"       // two orders side by side
)

func (c CombinationType) String() string {
	switch c {
	case CombinationIndividual:
		return "Individual"
	case CombinationPair:
		return "Pair"
	default:
		return "None"
	}
}

// TypeForMembers returns the combination type matching a group size.
func TypeForMembers(n int) CombinationType {
	if n == 2 {
		return CombinationPair
	}
	return CombinationIndividual
}

// MaxOrdersPerRoll is the number of knives on the corrugator slitter.
const MaxOrdersPerRoll = 2

// Entry is one order placed on a roll with its cavity multiplier.
type Entry struct {
	Order            *Order  `json:"-"`
	OrderID          string  `json:"order_id"`
	CavityMultiplier int     `json:"cavity_multiplier"`
	EffectiveWidth   float64 `json:"effective_width"` // mm
}

// NewEntry builds an entry for the order at the given multiplier.
func NewEntry(o *Order, multiplier int) Entry {
	return Entry{
		Order:            o,
		OrderID:          o.ID,
		CavityMultiplier: multiplier,
		EffectiveWidth:   o.EffectiveWidth(multiplier),
	}
}

// Combination is a candidate roll run produced by the search.
type Combination struct {
	Entries             []Entry         `json:"entries"`
	Type                CombinationType `json:"type"`
	RollWidth           float64         `json:"roll_width"`
	TotalWidthUsed      float64         `json:"total_width_used"`
	LeftoverWidth       float64         `json:"leftover_width"`
	EfficiencyPercent   float64         `json:"efficiency_percent"`
	PlannedLinearMeters float64         `json:"planned_linear_meters"`
	TotalCuts           float64         `json:"total_cuts"`
}

// MultiplierSum adds the cavity multipliers of all entries.
func (c Combination) MultiplierSum() int {
	total := 0
	for _, e := range c.Entries {
		total += e.CavityMultiplier
	}
	return total
}

// Strategy selects how roll widths are used across a planning run.
type Strategy string

const (
	StrategyMultiRoll  Strategy = "multi-roll"  // every group picks its best roll
	StrategySingleRoll Strategy = "single-roll" // one roll width for the whole run
)

// PlanSettings holds the planner configuration.
type PlanSettings struct {
	SingleRoll              bool    `json:"single_roll"`               // use one roll width for all groups
	CavityMultiplierCeiling int     `json:"cavity_multiplier_ceiling"` // highest multiplier tried, >= 1
	SafetyMargin            float64 `json:"safety_margin"`             // mm reserved on every roll
	LargeShortfall          int     `json:"large_shortfall"`           // shortfall that triggers a leftover run
	MaxIterations           int     `json:"max_iterations"`            // replanning budget
	StuckRepeatLimit        int     `json:"stuck_repeat_limit"`        // identical passes before giving up (multi-roll)

	// ExtraCutOnLargeShortfall adds one cut to an allocation whose floor
	// rounding would leave a large shortfall.
	ExtraCutOnLargeShortfall bool `json:"extra_cut_on_large_shortfall"`
}

// Strategy returns the roll strategy selected by the settings.
func (s PlanSettings) Strategy() Strategy {
	if s.SingleRoll {
		return StrategySingleRoll
	}
	return StrategyMultiRoll
}

func DefaultSettings() PlanSettings {
	return PlanSettings{
		SingleRoll:               false,
		CavityMultiplierCeiling:  1,
		SafetyMargin:             30.0,
		LargeShortfall:           500,
		MaxIterations:            50,
		StuckRepeatLimit:         3,
		ExtraCutOnLargeShortfall: true,
	}
}

// Termination is the final state of a planning run.
type Termination string

const (
	TerminationConverged        Termination = "converged"
	TerminationPartialConverged Termination = "partial_converged"
	TerminationExhausted        Termination = "exhausted"
	TerminationStuck            Termination = "stuck"
)

// PlanningResult summarizes a planning run.
type PlanningResult struct {
	RunID              string      `json:"run_id"`
	GroupsCreated      int         `json:"groups_created"`
	AverageEfficiency  float64     `json:"average_efficiency"`
	TotalLeftover      float64     `json:"total_leftover"`
	PendingOrders      int         `json:"pending_orders"`
	IterationsUsed     int         `json:"iterations_used"`
	Termination        Termination `json:"termination"`
	Strategy           Strategy    `json:"strategy"`
	RollWidths         []float64   `json:"roll_widths"` // widths actually used by groups
	TemporariesCreated int         `json:"temporaries_created"`
}
