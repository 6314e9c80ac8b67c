package config

import (
	"fmt"
	"sort"

	"github.com/Veraticus/sku-resolver/internal/common"
	"github.com/spf13/viper"
)

// Band awards Points when a dimension delta is at most MaxDeltaMM.
type Band struct {
	MaxDeltaMM float64 `mapstructure:"max_delta_mm"`
	Points     float64 `mapstructure:"points"`
}

// Matching holds the gate and score constants of the catalog matcher.
type Matching struct {
	SingleBands            []Band  `mapstructure:"single_bands"`
	CompoundBands          []Band  `mapstructure:"compound_bands"`
	Limit                  int     `mapstructure:"limit"`
	TypeGate               float64 `mapstructure:"type_gate"`
	TypeWeight             float64 `mapstructure:"type_weight"`
	SingleDimensionFloorMM float64 `mapstructure:"single_dimension_floor_mm"`
	MinToleranceMM         float64 `mapstructure:"min_tolerance_mm"`
	TolerancePercent       float64 `mapstructure:"tolerance_percent"`
}

// Resolution holds the confidence policy of the resolution controller.
type Resolution struct {
	AutoResolveThreshold float64 `mapstructure:"auto_resolve_threshold"`
	CandidateThreshold   float64 `mapstructure:"candidate_threshold"`
	ScoreScale           float64 `mapstructure:"score_scale"`
	MaxCandidates        int     `mapstructure:"max_candidates"`
	Workers              int     `mapstructure:"workers"`
	RetryAttempts        int     `mapstructure:"retry_attempts"`
}

// Vocabulary holds site-specific aliases added to the built-in vocabulary.
type Vocabulary struct {
	TypeAliases     map[string]string `mapstructure:"type_aliases"`
	MaterialAliases map[string]string `mapstructure:"material_aliases"`
}

// Engine groups every tunable of the resolution engine.
type Engine struct {
	Vocabulary Vocabulary `mapstructure:"vocabulary"`
	Matching   Matching   `mapstructure:"matching"`
	Resolution Resolution `mapstructure:"resolution"`
}

// DefaultMatching returns the empirical matcher constants.
func DefaultMatching() Matching {
	return Matching{
		Limit:                  25,
		TypeGate:               0.35,
		TypeWeight:             120,
		SingleDimensionFloorMM: 2.0,
		MinToleranceMM:         1.0,
		TolerancePercent:       0.02,
		SingleBands: []Band{
			{MaxDeltaMM: 1, Points: 40},
			{MaxDeltaMM: 2, Points: 30},
			{MaxDeltaMM: 5, Points: 15},
			{MaxDeltaMM: 10, Points: 5},
		},
		CompoundBands: []Band{
			{MaxDeltaMM: 1, Points: 40},
			{MaxDeltaMM: 2, Points: 32},
			{MaxDeltaMM: 5, Points: 20},
			{MaxDeltaMM: 10, Points: 8},
		},
	}
}

// DefaultResolution returns the default confidence policy.
func DefaultResolution() Resolution {
	return Resolution{
		AutoResolveThreshold: 0.80,
		CandidateThreshold:   0.50,
		ScoreScale:           160,
		MaxCandidates:        3,
		Workers:              4,
		RetryAttempts:        3,
	}
}

// DefaultEngine returns the full default engine configuration.
func DefaultEngine() Engine {
	return Engine{
		Matching:   DefaultMatching(),
		Resolution: DefaultResolution(),
	}
}

// SetDefaults registers engine defaults on v so config files only need overrides.
func SetDefaults(v *viper.Viper) {
	d := DefaultEngine()

	v.SetDefault("matching.limit", d.Matching.Limit)
	v.SetDefault("matching.type_gate", d.Matching.TypeGate)
	v.SetDefault("matching.type_weight", d.Matching.TypeWeight)
	v.SetDefault("matching.single_dimension_floor_mm", d.Matching.SingleDimensionFloorMM)
	v.SetDefault("matching.min_tolerance_mm", d.Matching.MinToleranceMM)
	v.SetDefault("matching.tolerance_percent", d.Matching.TolerancePercent)
	v.SetDefault("matching.single_bands", bandMaps(d.Matching.SingleBands))
	v.SetDefault("matching.compound_bands", bandMaps(d.Matching.CompoundBands))

	v.SetDefault("resolution.auto_resolve_threshold", d.Resolution.AutoResolveThreshold)
	v.SetDefault("resolution.candidate_threshold", d.Resolution.CandidateThreshold)
	v.SetDefault("resolution.score_scale", d.Resolution.ScoreScale)
	v.SetDefault("resolution.max_candidates", d.Resolution.MaxCandidates)
	v.SetDefault("resolution.workers", d.Resolution.Workers)
	v.SetDefault("resolution.retry_attempts", d.Resolution.RetryAttempts)

	v.SetDefault("database.path", DefaultDatabasePath)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// LoadEngine reads the engine configuration from v.
// Precedence follows viper: flags, SKU_ environment variables, config file, defaults.
func LoadEngine(v *viper.Viper) (Engine, error) {
	SetDefaults(v)

	var cfg Engine
	if err := v.Unmarshal(&cfg); err != nil {
		return Engine{}, fmt.Errorf("%w: %w", common.ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return Engine{}, err
	}

	sortBands(cfg.Matching.SingleBands)
	sortBands(cfg.Matching.CompoundBands)

	return cfg, nil
}

// Validate checks the configuration for internally inconsistent values.
func (e Engine) Validate() error {
	r := e.Resolution
	if r.CandidateThreshold < 0 || r.AutoResolveThreshold > 1 {
		return fmt.Errorf("%w: thresholds must lie within [0,1]", common.ErrInvalidConfig)
	}
	if r.CandidateThreshold > r.AutoResolveThreshold {
		return fmt.Errorf("%w: candidate_threshold %.2f exceeds auto_resolve_threshold %.2f",
			common.ErrInvalidConfig, r.CandidateThreshold, r.AutoResolveThreshold)
	}
	if r.ScoreScale <= 0 {
		return fmt.Errorf("%w: score_scale must be positive", common.ErrInvalidConfig)
	}
	if r.MaxCandidates < 1 || r.Workers < 1 {
		return fmt.Errorf("%w: max_candidates and workers must be at least 1", common.ErrInvalidConfig)
	}

	m := e.Matching
	if m.Limit < 1 {
		return fmt.Errorf("%w: matching.limit must be at least 1", common.ErrInvalidConfig)
	}
	if m.TypeGate < 0 || m.TypeGate > 1 {
		return fmt.Errorf("%w: matching.type_gate must lie within [0,1]", common.ErrInvalidConfig)
	}
	if len(m.SingleBands) == 0 || len(m.CompoundBands) == 0 {
		return fmt.Errorf("%w: dimension bands cannot be empty", common.ErrInvalidConfig)
	}
	return nil
}

func bandMaps(bands []Band) []map[string]any {
	out := make([]map[string]any, len(bands))
	for i, b := range bands {
		out[i] = map[string]any{"max_delta_mm": b.MaxDeltaMM, "points": b.Points}
	}
	return out
}

func sortBands(bands []Band) {
	sort.Slice(bands, func(i, j int) bool {
		return bands[i].MaxDeltaMM < bands[j].MaxDeltaMM
	})
}
