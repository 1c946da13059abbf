package corners

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// Config enumerates every detector option. Zero values are not defaults; start
// from DefaultConfig and override.
type Config struct {
	// AngleCount is the number of edge directions, a multiple of 4.
	AngleCount int `yaml:"angle_count" mapstructure:"angle_count" json:"angle_count"`

	// BeamCount overrides the number of kernel beams. 0 means AngleCount.
	BeamCount int `yaml:"beam_count" mapstructure:"beam_count" json:"beam_count"`

	BeamWidth  int     `yaml:"beam_width" mapstructure:"beam_width" json:"beam_width"`
	ForkSpread float64 `yaml:"fork_spread" mapstructure:"fork_spread" json:"fork_spread"`
	BeamLength int     `yaml:"beam_length" mapstructure:"beam_length" json:"beam_length"`
	BeamStart  int     `yaml:"beam_start" mapstructure:"beam_start" json:"beam_start"`

	EvalMethod EvalConfig `yaml:"eval_method" mapstructure:"eval_method" json:"eval_method"`

	// GridSize is the spacing of ray search seed points.
	GridSize int `yaml:"grid_size" mapstructure:"grid_size" json:"grid_size"`

	// MinGrid is the score a seed point must exceed to start ray following.
	MinGrid float64 `yaml:"min_grid" mapstructure:"min_grid" json:"min_grid"`

	// MinCornerScore is the strength a basin search maximum must exceed to be kept.
	MinCornerScore float64 `yaml:"min_corner_score" mapstructure:"min_corner_score" json:"min_corner_score"`

	Search  SearchConfig  `yaml:"search" mapstructure:"search" json:"search"`
	Simplex SimplexConfig `yaml:"simplex" mapstructure:"simplex" json:"simplex"`
}

// EvalConfig is the serialized form of an EvalMethod.
type EvalConfig struct {
	Sectional        bool `yaml:"sectional" mapstructure:"sectional" json:"sectional"`
	EliminationWidth int  `yaml:"elimination_width" mapstructure:"elimination_width" json:"elimination_width"`
	MaxN             int  `yaml:"max_n" mapstructure:"max_n" json:"max_n"`
	ElimDoubleEnds   bool `yaml:"elim_double_ends" mapstructure:"elim_double_ends" json:"elim_double_ends"`
}

// SearchConfig bounds the maxima searches.
type SearchConfig struct {
	// EdgeOffset is the border excluded from the basin coverage condition.
	EdgeOffset int `yaml:"edge_offset" mapstructure:"edge_offset" json:"edge_offset"`

	// StopPercent stops the basin search once this fraction of pixels is
	// claimed. 0 disables it.
	StopPercent float64 `yaml:"stop_percent" mapstructure:"stop_percent" json:"stop_percent"`

	// MaxRounds caps basin search optimizer runs. 0 disables it.
	MaxRounds int `yaml:"max_rounds" mapstructure:"max_rounds" json:"max_rounds"`

	TopN int   `yaml:"top_n" mapstructure:"top_n" json:"top_n"`
	Seed int64 `yaml:"seed" mapstructure:"seed" json:"seed"`
}

// SimplexConfig parameterizes SimplexOptimizer.
type SimplexConfig struct {
	MaxIters           int     `yaml:"max_iters" mapstructure:"max_iters" json:"max_iters"`
	MaxStep            int     `yaml:"max_step" mapstructure:"max_step" json:"max_step"`
	InitialSimplexSize float64 `yaml:"initial_simplex_size" mapstructure:"initial_simplex_size" json:"initial_simplex_size"`
}

// DefaultConfig returns the stock detector configuration.
func DefaultConfig() Config {
	return Config{
		AngleCount: 12,
		BeamWidth:  2,
		ForkSpread: 2,
		BeamLength: 30,
		BeamStart:  0,
		EvalMethod: EvalConfig{
			Sectional:        false,
			EliminationWidth: 0, // beam count / 30
			MaxN:             3,
			ElimDoubleEnds:   false,
		},
		GridSize:       30,
		MinGrid:        0.1,
		MinCornerScore: 0,
		Search: SearchConfig{
			EdgeOffset: 5,
			TopN:       10,
			Seed:       1,
		},
		Simplex: SimplexConfig{
			MaxIters:           1000,
			MaxStep:            4,
			InitialSimplexSize: 3,
		},
	}
}

// Beams returns the effective number of kernel beams.
func (c Config) Beams() int {
	if c.BeamCount == 0 {
		return c.AngleCount
	}
	return c.BeamCount
}

// Method returns the tagged evaluation variant for this configuration.
func (c EvalConfig) Method() EvalMethod {
	if !c.Sectional {
		return Amorphous{}
	}
	return Sectional{
		EliminationWidth: c.EliminationWidth,
		MaxN:             c.MaxN,
		ElimDoubleEnds:   c.ElimDoubleEnds,
	}
}

// ConfigurationError reports an invalid option or a configuration that
// produces a degenerate kernel.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

func invalid(field, format string, args ...interface{}) error {
	return &ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// Validate checks every option range and returns all violations combined.
// Individual violations are *ConfigurationError values reachable with errors.As
// or multierr.Errors.
func (c Config) Validate() error {
	var err error
	if c.AngleCount <= 0 || c.AngleCount%4 != 0 {
		err = multierr.Append(err, invalid("angle_count", "must be a positive multiple of 4, got %d", c.AngleCount))
	}
	if c.BeamCount < 0 {
		err = multierr.Append(err, invalid("beam_count", "must be >= 0, got %d", c.BeamCount))
	}
	if c.BeamWidth <= 0 {
		err = multierr.Append(err, invalid("beam_width", "must be > 0, got %d", c.BeamWidth))
	}
	if c.ForkSpread < 0 || math.IsNaN(c.ForkSpread) || math.IsInf(c.ForkSpread, 0) {
		err = multierr.Append(err, invalid("fork_spread", "must be finite and >= 0, got %v", c.ForkSpread))
	}
	if c.BeamLength <= 0 {
		err = multierr.Append(err, invalid("beam_length", "must be > 0, got %d", c.BeamLength))
	}
	if c.BeamStart < 0 || c.BeamStart > c.BeamLength {
		err = multierr.Append(err, invalid("beam_start", "must be in [0, beam_length], got %d", c.BeamStart))
	}
	if c.EvalMethod.Sectional {
		if c.EvalMethod.MaxN <= 0 || (c.Beams() > 0 && c.EvalMethod.MaxN > c.Beams()) {
			err = multierr.Append(err, invalid("eval_method.max_n", "must be in [1, %d], got %d", c.Beams(), c.EvalMethod.MaxN))
		}
		if c.EvalMethod.EliminationWidth < 0 {
			err = multierr.Append(err, invalid("eval_method.elimination_width", "must be >= 0, got %d", c.EvalMethod.EliminationWidth))
		}
	}
	if c.GridSize <= 0 {
		err = multierr.Append(err, invalid("grid_size", "must be > 0, got %d", c.GridSize))
	}
	if math.IsNaN(c.MinGrid) || math.IsNaN(c.MinCornerScore) {
		err = multierr.Append(err, invalid("min_grid", "thresholds must not be NaN"))
	}
	if c.Search.EdgeOffset < 0 {
		err = multierr.Append(err, invalid("search.edge_offset", "must be >= 0, got %d", c.Search.EdgeOffset))
	}
	if c.Search.StopPercent < 0 || c.Search.StopPercent > 1 || math.IsNaN(c.Search.StopPercent) {
		err = multierr.Append(err, invalid("search.stop_percent", "must be in [0, 1], got %v", c.Search.StopPercent))
	}
	if c.Search.MaxRounds < 0 {
		err = multierr.Append(err, invalid("search.max_rounds", "must be >= 0, got %d", c.Search.MaxRounds))
	}
	if c.Search.TopN <= 0 {
		err = multierr.Append(err, invalid("search.top_n", "must be > 0, got %d", c.Search.TopN))
	}
	if c.Simplex.MaxIters <= 0 {
		err = multierr.Append(err, invalid("simplex.max_iters", "must be > 0, got %d", c.Simplex.MaxIters))
	}
	if c.Simplex.MaxStep <= 0 {
		err = multierr.Append(err, invalid("simplex.max_step", "must be > 0, got %d", c.Simplex.MaxStep))
	}
	if !(c.Simplex.InitialSimplexSize > 0) {
		err = multierr.Append(err, invalid("simplex.initial_simplex_size", "must be > 0, got %v", c.Simplex.InitialSimplexSize))
	}
	return err
}

// ApplyOptions overrides fields from a free-form option map such as a tool
// call argument. Keys use the yaml names; nested sections are nested maps.
// Unknown keys are rejected and c is left unchanged on error.
func (c *Config) ApplyOptions(opts map[string]interface{}) error {
	if len(opts) == 0 {
		return nil
	}
	merged := *c
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused: true,
		Result:      &merged,
		TagName:     "mapstructure",
	})
	if err != nil {
		return fmt.Errorf("failed to create option decoder: %w", err)
	}
	if err := decoder.Decode(opts); err != nil {
		return &ConfigurationError{Field: "options", Reason: err.Error()}
	}
	*c = merged
	return nil
}

// LoadConfig reads a YAML configuration file on top of DefaultConfig.
// A missing file yields the defaults; unknown keys are an error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig writes cfg as YAML, creating parent directories as needed.
func SaveConfig(cfg Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
