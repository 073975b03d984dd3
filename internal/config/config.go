// Package config loads ram-pet settings from defaults, a YAML file,
// RAM_PET_* environment variables and command-line flags, in rising order
// of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/rcliao/ram-pet/internal/governor"
	"github.com/rcliao/ram-pet/internal/pet"
)

// ByteSize accepts plain integers or human strings such as "50MiB" or "1 GB".
type ByteSize uint64

func (b *ByteSize) UnmarshalText(text []byte) error {
	n, err := humanize.ParseBytes(strings.TrimSpace(string(text)))
	if err != nil {
		return fmt.Errorf("byte size %q: %w", text, err)
	}
	*b = ByteSize(n)
	return nil
}

func (b ByteSize) MarshalText() ([]byte, error) {
	return []byte(humanize.IBytes(uint64(b))), nil
}

func (b ByteSize) String() string {
	return humanize.IBytes(uint64(b))
}

type Config struct {
	StartingSize            ByteSize      `yaml:"starting_size_bytes" mapstructure:"starting_size_bytes" validate:"gt=0"`
	MetabolismRate          float64       `yaml:"metabolism_rate" mapstructure:"metabolism_rate" validate:"gte=0"`
	ReserveFloor            ByteSize      `yaml:"reserve_floor_bytes" mapstructure:"reserve_floor_bytes" validate:"gt=0"`
	WarningMargin           ByteSize      `yaml:"warning_margin_bytes" mapstructure:"warning_margin_bytes"`
	TickPeriod              time.Duration `yaml:"tick_period" mapstructure:"tick_period" validate:"min=10ms"`
	StartingHunger          float64       `yaml:"starting_hunger" mapstructure:"starting_hunger" validate:"gte=0,lte=100"`
	MealSize                ByteSize      `yaml:"meal_bytes" mapstructure:"meal_bytes" validate:"gt=0"`
	ReliefPerMiB            float64       `yaml:"relief_per_mib" mapstructure:"relief_per_mib" validate:"gt=0"`
	StarvationBytesPerPoint ByteSize      `yaml:"starvation_bytes_per_point" mapstructure:"starvation_bytes_per_point"`
	DistressedGrowthFactor  float64       `yaml:"distressed_growth_factor" mapstructure:"distressed_growth_factor" validate:"gt=0,lte=1"`
	AutosaveInterval        time.Duration `yaml:"autosave_interval" mapstructure:"autosave_interval" validate:"gte=0"`
	SavePath                string        `yaml:"save_path" mapstructure:"save_path" validate:"required"`
	JournalPath             string        `yaml:"journal_path" mapstructure:"journal_path" validate:"required"`
	Simulate                bool          `yaml:"simulate" mapstructure:"simulate"`
	SimulatedTotal          ByteSize      `yaml:"simulated_total_bytes" mapstructure:"simulated_total_bytes" validate:"gt=0"`
	SimulatedFree           ByteSize      `yaml:"simulated_free_bytes" mapstructure:"simulated_free_bytes" validate:"ltefield=SimulatedTotal"`
	LogLevel                string        `yaml:"log_level" mapstructure:"log_level" validate:"oneof=debug info warn error"`
	MetricsAddr             string        `yaml:"metrics_addr" mapstructure:"metrics_addr"`
}

// Dir is where ram-pet keeps its files by default.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ram-pet"
	}
	return filepath.Join(home, ".ram-pet")
}

func DefaultConfig() *Config {
	return &Config{
		StartingSize:            50 * governor.MiB,
		MetabolismRate:          1.0,
		ReserveFloor:            1 * governor.GiB,
		WarningMargin:           512 * governor.MiB,
		TickPeriod:              200 * time.Millisecond,
		StartingHunger:          30,
		MealSize:                50 * governor.MiB,
		ReliefPerMiB:            1.0,
		StarvationBytesPerPoint: 1 * governor.MiB,
		DistressedGrowthFactor:  0.5,
		AutosaveInterval:        60 * time.Second,
		SavePath:                filepath.Join(Dir(), "pet.json"),
		JournalPath:             filepath.Join(Dir(), "journal.db"),
		SimulatedTotal:          8 * governor.GiB,
		SimulatedFree:           4 * governor.GiB,
		LogLevel:                "info",
	}
}

// flagKeys maps command-line flags onto config keys.
var flagKeys = map[string]string{
	"save":         "save_path",
	"journal":      "journal_path",
	"log-level":    "log_level",
	"simulate":     "simulate",
	"metrics-addr": "metrics_addr",
}

// Load resolves the effective configuration. file may be empty, in which
// case ./ram-pet.yaml and then ~/.ram-pet/config.yaml are tried. flags may
// be nil.
func Load(file string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	def := DefaultConfig()
	v.SetDefault("starting_size_bytes", uint64(def.StartingSize))
	v.SetDefault("metabolism_rate", def.MetabolismRate)
	v.SetDefault("reserve_floor_bytes", uint64(def.ReserveFloor))
	v.SetDefault("warning_margin_bytes", uint64(def.WarningMargin))
	v.SetDefault("tick_period", def.TickPeriod)
	v.SetDefault("starting_hunger", def.StartingHunger)
	v.SetDefault("meal_bytes", uint64(def.MealSize))
	v.SetDefault("relief_per_mib", def.ReliefPerMiB)
	v.SetDefault("starvation_bytes_per_point", uint64(def.StarvationBytesPerPoint))
	v.SetDefault("distressed_growth_factor", def.DistressedGrowthFactor)
	v.SetDefault("autosave_interval", def.AutosaveInterval)
	v.SetDefault("save_path", def.SavePath)
	v.SetDefault("journal_path", def.JournalPath)
	v.SetDefault("simulate", def.Simulate)
	v.SetDefault("simulated_total_bytes", uint64(def.SimulatedTotal))
	v.SetDefault("simulated_free_bytes", uint64(def.SimulatedFree))
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("metrics_addr", def.MetricsAddr)

	// Environment variables
	v.SetEnvPrefix("RAM_PET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	if file == "" {
		file = findConfigFile()
	}
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	cfg := &Config{}
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.TextUnmarshallerHookFunc(),
	))
	if err := v.Unmarshal(cfg, hook); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg.SavePath = expandHome(cfg.SavePath)
	cfg.JournalPath = expandHome(cfg.JournalPath)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func findConfigFile() string {
	candidates := []string{
		"ram-pet.yaml",
		filepath.Join(Dir(), "config.yaml"),
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return p
		}
		return filepath.Join(home, strings.TrimPrefix(p, "~"))
	}
	return p
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("config: %s fails %q (got %v)", fe.Field(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Governor builds the safety policy from the configured floor and margin.
func (c *Config) Governor() governor.Governor {
	return governor.Governor{
		ReserveFloor:  uint64(c.ReserveFloor),
		WarningMargin: uint64(c.WarningMargin),
	}
}

// PetParams builds the state machine rates.
func (c *Config) PetParams() pet.Params {
	return pet.Params{
		MetabolismRate:          c.MetabolismRate,
		ReliefPerMiB:            c.ReliefPerMiB,
		StarvationBytesPerPoint: uint64(c.StarvationBytesPerPoint),
		DistressedGrowthFactor:  c.DistressedGrowthFactor,
	}
}
