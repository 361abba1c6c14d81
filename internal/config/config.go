// Package config loads caliper's settings.
//
// Precedence, highest first:
//  1. Command-line flags (when a flag set is bound)
//  2. Environment variables prefixed CALIPER_ (measure.workers -> CALIPER_MEASURE_WORKERS)
//  3. caliper.yaml in the working directory or $HOME/.config/caliper
//  4. Defaults
package config

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is the full application configuration.
type Config struct {
	Measure MeasureConfig `mapstructure:"measure"`
	Kernel  KernelConfig  `mapstructure:"kernel"`
	Engine  EngineConfig  `mapstructure:"engine"`
	Log     LogConfig     `mapstructure:"log"`
}

// MeasureConfig tunes the measurement service.
type MeasureConfig struct {
	// AngularEpsilon is the angle in radians under which two faces tie
	// for a direction.
	AngularEpsilon float64 `mapstructure:"angular_epsilon"`

	// TieDistance is how close two tied faces' centroids may be along the
	// direction before the selection is ambiguous.
	TieDistance float64 `mapstructure:"tie_distance"`

	AlignTolerance float64 `mapstructure:"align_tolerance"`
	Workers        int     `mapstructure:"workers"`
}

// KernelConfig selects and tunes the geometry backend.
type KernelConfig struct {
	// Backend is "poly" or "sdfx".
	Backend   string `mapstructure:"backend"`
	Segments  int    `mapstructure:"segments"`
	MeshCells int    `mapstructure:"mesh_cells"`
}

type EngineConfig struct {
	EvalTimeout time.Duration `mapstructure:"eval_timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Backends lists the accepted values of kernel.backend.
var Backends = []string{"poly", "sdfx"}

// flagKeys maps flag names to the configuration keys they override.
var flagKeys = map[string]string{
	"backend":         "kernel.backend",
	"segments":        "kernel.segments",
	"mesh-cells":      "kernel.mesh_cells",
	"workers":         "measure.workers",
	"align-tolerance": "measure.align_tolerance",
	"timeout":         "engine.eval_timeout",
	"log-level":       "log.level",
	"log-format":      "log.format",
	"config":          "",
}

// RegisterFlags adds caliper's flags to fs. Flags left unset do not
// override lower-precedence sources.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "path to a config file (default: caliper.yaml)")
	fs.String("backend", "poly", "geometry kernel: poly or sdfx")
	fs.Int("segments", 64, "facets around curved primitives")
	fs.Int("mesh-cells", 200, "marching cubes cells along the longest side (sdfx)")
	fs.Int("workers", 4, "parts surveyed concurrently")
	fs.Float64("align-tolerance", 0.01, "default tolerance for alignment checks")
	fs.Duration("timeout", 5*time.Second, "hard limit for one script evaluation")
	fs.String("log-level", "info", "log level: debug, info, warn, error")
	fs.String("log-format", "console", "log format: console or json")
}

// Load reads the configuration. fs may be nil; otherwise its flags must
// have been added with RegisterFlags and parsed.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("yaml")
	explicit := ""
	if fs != nil {
		if f := fs.Lookup("config"); f != nil {
			explicit = f.Value.String()
		}
	}
	if explicit != "" {
		v.SetConfigFile(explicit)
	} else {
		v.SetConfigName("caliper")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/caliper")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("CALIPER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if fs != nil {
		for name, key := range flagKeys {
			f := fs.Lookup(name)
			if key == "" || f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("failed to bind flag --%s: %w", name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// MustLoad loads the configuration and panics on error.
func MustLoad(fs *pflag.FlagSet) *Config {
	cfg, err := Load(fs)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("measure.angular_epsilon", 1e-6)
	v.SetDefault("measure.tie_distance", 1e-6)
	v.SetDefault("measure.align_tolerance", 0.01)
	v.SetDefault("measure.workers", 4)

	v.SetDefault("kernel.backend", "poly")
	v.SetDefault("kernel.segments", 64)
	v.SetDefault("kernel.mesh_cells", 200)

	v.SetDefault("engine.eval_timeout", 5*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// Validate reports the first setting that is out of range.
func (c *Config) Validate() error {
	positive := func(key string, x float64) error {
		if math.IsNaN(x) || x <= 0 {
			return fmt.Errorf("config: %s must be positive, got %g", key, x)
		}
		return nil
	}
	for _, check := range []error{
		positive("measure.angular_epsilon", c.Measure.AngularEpsilon),
		positive("measure.tie_distance", c.Measure.TieDistance),
		positive("measure.workers", float64(c.Measure.Workers)),
		positive("kernel.segments", float64(c.Kernel.Segments)),
		positive("kernel.mesh_cells", float64(c.Kernel.MeshCells)),
		positive("engine.eval_timeout", float64(c.Engine.EvalTimeout)),
	} {
		if check != nil {
			return check
		}
	}
	if math.IsNaN(c.Measure.AlignTolerance) || c.Measure.AlignTolerance < 0 {
		return fmt.Errorf("config: measure.align_tolerance must be non-negative, got %g", c.Measure.AlignTolerance)
	}
	switch c.Kernel.Backend {
	case "poly", "sdfx":
	default:
		return fmt.Errorf("config: kernel.backend must be one of %v, got %q", Backends, c.Kernel.Backend)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("config: log.format must be console or json, got %q", c.Log.Format)
	}
	return nil
}
