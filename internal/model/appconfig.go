package model

// AppConfig holds application-wide preferences and default settings.
type AppConfig struct {
	// Default planner settings applied to every run
	DefaultSingleRoll          bool    `json:"default_single_roll" mapstructure:"default_single_roll"`
	DefaultCavityCeiling       int     `json:"default_cavity_ceiling" mapstructure:"default_cavity_ceiling"`
	DefaultSafetyMargin        float64 `json:"default_safety_margin" mapstructure:"default_safety_margin"`
	DefaultLargeShortfall      int     `json:"default_large_shortfall" mapstructure:"default_large_shortfall"`
	DefaultMaxIterations       int     `json:"default_max_iterations" mapstructure:"default_max_iterations"`
	DefaultExtraCut            bool    `json:"default_extra_cut" mapstructure:"default_extra_cut"`
	WorkOrderBaseSpeed         float64 `json:"work_order_base_speed" mapstructure:"work_order_base_speed"`                 // m/h
	WorkOrderIndividualSpeedup float64 `json:"work_order_individual_speedup" mapstructure:"work_order_individual_speedup"` // factor for single-order runs

	// Files
	OrdersPath  string `json:"orders_path" mapstructure:"orders_path"`
	CatalogPath string `json:"catalog_path" mapstructure:"catalog_path"`

	// Logging
	LogLevel  string `json:"log_level" mapstructure:"log_level"`   // "debug", "info", "warn"
	LogFormat string `json:"log_format" mapstructure:"log_format"` // "text" or "json"
}

// DefaultAppConfig returns an AppConfig populated with sensible defaults
// matching the values from DefaultSettings().
func DefaultAppConfig() AppConfig {
	defaults := DefaultSettings()
	return AppConfig{
		DefaultSingleRoll:          defaults.SingleRoll,
		DefaultCavityCeiling:       defaults.CavityMultiplierCeiling,
		DefaultSafetyMargin:        defaults.SafetyMargin,
		DefaultLargeShortfall:      defaults.LargeShortfall,
		DefaultMaxIterations:       defaults.MaxIterations,
		DefaultExtraCut:            defaults.ExtraCutOnLargeShortfall,
		WorkOrderBaseSpeed:         100,
		WorkOrderIndividualSpeedup: 1.2,
		OrdersPath:                 "orders.json",
		CatalogPath:                "",
		LogLevel:                   "info",
		LogFormat:                  "text",
	}
}

// ApplyToSettings copies the default values from AppConfig into a PlanSettings struct.
// Zero values in the config keep the setting's current value.
func (c AppConfig) ApplyToSettings(s *PlanSettings) {
	s.SingleRoll = c.DefaultSingleRoll
	s.ExtraCutOnLargeShortfall = c.DefaultExtraCut
	if c.DefaultCavityCeiling > 0 {
		s.CavityMultiplierCeiling = c.DefaultCavityCeiling
	}
	if c.DefaultSafetyMargin > 0 {
		s.SafetyMargin = c.DefaultSafetyMargin
	}
	if c.DefaultLargeShortfall > 0 {
		s.LargeShortfall = c.DefaultLargeShortfall
	}
	if c.DefaultMaxIterations > 0 {
		s.MaxIterations = c.DefaultMaxIterations
	}
}
