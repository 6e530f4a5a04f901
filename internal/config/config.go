// Package config defines the data structures related to configuration and
// includes functions for loading, defaulting and validating it.
package config

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/iwvelando/payout-elasticity/internal/cache"
	"github.com/iwvelando/payout-elasticity/pkg/constants"
	"github.com/iwvelando/payout-elasticity/pkg/philosophy"
	"github.com/iwvelando/payout-elasticity/pkg/validation"
	"github.com/spf13/viper"
)

// envPrefix scopes environment overrides, e.g. PAYOUT_ANALYSIS_BASESALARY.
const envPrefix = "PAYOUT"

// Configuration holds all configuration for payout-elasticity.
type Configuration struct {
	Logging    LoggingConfig        `yaml:"logging,omitempty"`
	Output     OutputConfig         `yaml:"output,omitempty"`
	Analysis   AnalysisConfig       `yaml:"analysis,omitempty"`
	Cache      cache.Config         `yaml:"cache,omitempty"`
	Structures []PayoutStructure    `yaml:"structures,omitempty"`
	Profiles   []PerformanceProfile `yaml:"profiles,omitempty"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty"`      // debug, info, warn, error
	Format     string `yaml:"format,omitempty"`     // json, console
	OutputFile string `yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty"` // pretty, json
}

// AnalysisConfig selects what the report analyses.
type AnalysisConfig struct {
	// Structure and Profile name the records to analyse; empty means the first.
	Structure string `yaml:"structure,omitempty"`
	Profile   string `yaml:"profile,omitempty"`
	// BaseSalary feeds the pay-mix ratio; 0 disables it.
	BaseSalary float64 `yaml:"baseSalary,omitempty"`
	GoalFocus  string  `yaml:"goalFocus,omitempty"`
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}
	return decode(v)
}

// LoadConfigurationFromReader loads YAML configuration from r.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := newViper()
	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config data, %s", err)
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}
	configuration.ApplyDefaults()
	return &configuration, nil
}

// ApplyDefaults fills in the built-in structure and profile when none are
// configured, and the output, goal and cache defaults.
func (c *Configuration) ApplyDefaults() {
	if len(c.Structures) == 0 {
		c.Structures = []PayoutStructure{DefaultStructure()}
	}
	if len(c.Profiles) == 0 {
		c.Profiles = []PerformanceProfile{DefaultProfile()}
	}
	if c.Output.Format == "" {
		c.Output.Format = constants.OutputFormatPretty
	}
	if c.Analysis.GoalFocus == "" {
		c.Analysis.GoalFocus = string(philosophy.GoalOverall)
	}
	if c.Cache.Type == "" {
		c.Cache.Type = constants.CacheTypeMemory
	}
	if c.Cache.MaxSize <= 0 {
		c.Cache.MaxSize = constants.DefaultCacheMaxSize
	}
	c.Cache.TTL = c.Cache.EntryTTL()
}

// Structure returns the named payout structure, or the first one when name
// is empty.
func (c *Configuration) Structure(name string) (PayoutStructure, error) {
	if name == "" && len(c.Structures) > 0 {
		return c.Structures[0], nil
	}
	for _, s := range c.Structures {
		if s.Name == name {
			return s, nil
		}
	}
	return PayoutStructure{}, fmt.Errorf("%w: %q", ErrUnknownStructure, name)
}

// Profile returns the named performance profile, or the first one when name
// is empty.
func (c *Configuration) Profile(name string) (PerformanceProfile, error) {
	if name == "" && len(c.Profiles) > 0 {
		return c.Profiles[0], nil
	}
	for _, p := range c.Profiles {
		if p.Name == name {
			return p, nil
		}
	}
	return PerformanceProfile{}, fmt.Errorf("%w: %q", ErrUnknownProfile, name)
}

// ValidateConfiguration performs general validation of the configuration and
// returns warnings. Hard errors surface when a record is converted.
func (c *Configuration) ValidateConfiguration() []string {
	var warnings []string

	seen := make(map[string]bool)
	for _, s := range c.Structures {
		if seen[s.Name] {
			warnings = append(warnings, fmt.Sprintf("Structure '%s' is defined more than once; the first definition is used", s.Name))
		}
		seen[s.Name] = true

		if !s.UseRollingAverage {
			warnings = append(warnings, fmt.Sprintf("Structure '%s' pays commission on raw monthly sales; month-end spikes are rewarded", s.Name))
		}
		if n := len(s.QuarterlyWeights); n > 0 {
			total := 0.0
			for _, w := range s.QuarterlyWeights {
				total += w
			}
			if n != 4 || math.Abs(total-constants.PercentageMultiplier) > constants.CurrencyTolerance {
				warnings = append(warnings, fmt.Sprintf("Structure '%s' quarterly weights do not describe 4 quarters summing to 100 (got %d summing to %.2f)", s.Name, n, total))
			}
		}
		if open := openInteriorTiers(s); open > 0 {
			warnings = append(warnings, fmt.Sprintf("Structure '%s' has %d interior tiers without an upper bound", s.Name, open))
		}
	}

	seen = make(map[string]bool)
	for _, p := range c.Profiles {
		if seen[p.Name] {
			warnings = append(warnings, fmt.Sprintf("Profile '%s' is defined more than once; the first definition is used", p.Name))
		}
		seen[p.Name] = true

		if p.FTE > 0 && p.FTE <= constants.CommissionFTEFloor {
			warnings = append(warnings, fmt.Sprintf("Profile '%s' has FTE %.2f; no commission is paid at or below %.2f FTE", p.Name, p.FTE, constants.CommissionFTEFloor))
		}
		if p.Target() == 0 {
			warnings = append(warnings, fmt.Sprintf("Profile '%s' has a zero yearly target; revenue ratios will read 0", p.Name))
		}
	}

	if name := c.Analysis.Structure; name != "" {
		if _, err := c.Structure(name); err != nil {
			warnings = append(warnings, fmt.Sprintf("Analysis structure '%s' is not defined", name))
		}
	}
	if name := c.Analysis.Profile; name != "" {
		if _, err := c.Profile(name); err != nil {
			warnings = append(warnings, fmt.Sprintf("Analysis profile '%s' is not defined", name))
		}
	}
	if _, err := philosophy.ParseGoal(c.Analysis.GoalFocus); err != nil {
		warnings = append(warnings, fmt.Sprintf("Analysis goal focus '%s' is not recognised", c.Analysis.GoalFocus))
	}
	if err := validation.ValidateBaseSalary(c.Analysis.BaseSalary); err != nil {
		warnings = append(warnings, fmt.Sprintf("Analysis %s; the pay mix will be wrong", err))
	}
	if err := validation.ValidateLogLevel(c.Logging.Level); err != nil {
		warnings = append(warnings, fmt.Sprintf("Logging: %s; info is used", err))
	}
	if c.Output.Format != "" {
		if err := validation.ValidateOutputFormat(c.Output.Format); err != nil {
			warnings = append(warnings, fmt.Sprintf("Output: %s", err))
		}
	}
	if err := validation.ValidateCacheType(c.Cache.Type); err != nil {
		warnings = append(warnings, fmt.Sprintf("Cache: %s", err))
	}

	return warnings
}

func openInteriorTiers(s PayoutStructure) int {
	open := 0
	for i, t := range s.CommissionThresholds {
		if i < len(s.CommissionThresholds)-1 && t.UpTo == nil {
			open++
		}
	}
	for _, list := range [][]BonusThreshold{s.QuarterlyThresholds, s.ContinuityThresholds} {
		for i, t := range list {
			if i < len(list)-1 && t.UpTo == nil {
				open++
			}
		}
	}
	return open
}
