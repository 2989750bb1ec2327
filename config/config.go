// config loads the sketch definition from yaml, env and flags via viper.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"schotter/chaos"
	"schotter/models"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// DefaultPath is read when no config is passed; unlike an explicit path, it may be missing.
const DefaultPath = "./config.yaml"

// EnvPrefix prefixes env overrides, e.g. SCHOTTER_DEF_SEED=42 or SCHOTTER_KIND=static.
const EnvPrefix = "SCHOTTER"

// MaxAdjust is the upper bound of the adjust sliders.
const MaxAdjust = 5.0

// OuterConfig is the file envelope: a kind selecting the chaos preset, and its definition.
type OuterConfig struct {
	Kind string       `mapstructure:"kind" yaml:"kind"`
	Def  SketchConfig `mapstructure:"def" yaml:"def"`
}

// SketchConfig holds everything needed to draw and serve the sketch.
type SketchConfig struct {
	Grid               models.GridConfig `mapstructure:"grid" yaml:"grid"`
	DisplacementAdjust float64           `mapstructure:"displacement_adjust" yaml:"displacement_adjust"`
	RotationAdjust     float64           `mapstructure:"rotation_adjust" yaml:"rotation_adjust"`
	// Seed fixes the startup seed. Zero means a random seed is drawn at startup.
	Seed uint64 `mapstructure:"seed" yaml:"seed"`
	// CaptureName is the frame capture file. Empty means "<program-name>.png" in the working dir.
	CaptureName string       `mapstructure:"capture_name" yaml:"capture_name"`
	Server      ServerConfig `mapstructure:"server" yaml:"server"`
	LogLevel    string       `mapstructure:"log_level" yaml:"log_level"`
}

// ServerConfig is where the control panel is served.
type ServerConfig struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port string `mapstructure:"port" yaml:"port"`
}

// Addr returns the listen address.
func (srv ServerConfig) Addr() string {
	return srv.Host + ":" + srv.Port
}

// Default is the interactive sketch with both adjusts at 1.0 on port 8080.
func Default() OuterConfig {
	return OuterConfig{
		Kind: chaos.Interactive.Name,
		Def: SketchConfig{
			Grid:               models.DefaultGridConfig(),
			DisplacementAdjust: 1.0,
			RotationAdjust:     1.0,
			Server: ServerConfig{
				Port: "8080",
			},
			LogLevel: "info",
		},
	}
}

// Preset returns the chaos preset selected by Kind.
func (cfg *OuterConfig) Preset() (chaos.Preset, error) {
	preset, ok := chaos.PresetByName(cfg.Kind)
	if !ok {
		return chaos.Preset{}, fmt.Errorf("%w: unknown kind %q", ErrInvalidConfig, cfg.Kind)
	}
	return preset, nil
}

// Params returns the startup parameters, drawing a random seed unless one is configured.
func (cfg *OuterConfig) Params() chaos.Params {
	seed := cfg.Def.Seed
	if seed == 0 {
		seed = chaos.RandomSeed()
	}
	return chaos.Params{
		Seed:               seed,
		DisplacementAdjust: cfg.Def.DisplacementAdjust,
		RotationAdjust:     cfg.Def.RotationAdjust,
	}
}

// ErrInvalidConfig wraps all validation failures.
var ErrInvalidConfig = errors.New("invalid config")

var logLevels = map[string]struct{}{
	"trace": {}, "debug": {}, "info": {}, "warn": {}, "error": {}, "none": {},
}

// Validate checks the config for values that cannot be drawn or served.
func (cfg *OuterConfig) Validate() (err error) {
	if _, err = cfg.Preset(); err != nil {
		return
	}
	if err = cfg.Def.Grid.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if cfg.Def.DisplacementAdjust < 0 || cfg.Def.RotationAdjust < 0 {
		return fmt.Errorf("%w: adjusts must be non-negative", ErrInvalidConfig)
	}
	if _, ok := logLevels[strings.ToLower(cfg.Def.LogLevel)]; !ok {
		return fmt.Errorf("%w: unknown log level %q", ErrInvalidConfig, cfg.Def.LogLevel)
	}
	return nil
}

// New returns a viper instance holding the defaults, with env overrides enabled.
// Callers bind their flags to it before calling FromViper.
func New() *viper.Viper {
	vp := viper.New()
	def := Default()
	vp.SetDefault("kind", def.Kind)
	vp.SetDefault("def.grid.rows", def.Def.Grid.Rows)
	vp.SetDefault("def.grid.cols", def.Def.Grid.Cols)
	vp.SetDefault("def.grid.cell_size", def.Def.Grid.CellSize)
	vp.SetDefault("def.grid.margin", def.Def.Grid.Margin)
	vp.SetDefault("def.grid.line_width", def.Def.Grid.LineWidth)
	vp.SetDefault("def.displacement_adjust", def.Def.DisplacementAdjust)
	vp.SetDefault("def.rotation_adjust", def.Def.RotationAdjust)
	vp.SetDefault("def.seed", def.Def.Seed)
	vp.SetDefault("def.capture_name", def.Def.CaptureName)
	vp.SetDefault("def.server.host", def.Def.Server.Host)
	vp.SetDefault("def.server.port", def.Def.Server.Port)
	vp.SetDefault("def.log_level", def.Def.LogLevel)

	vp.SetEnvPrefix(EnvPrefix)
	vp.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	vp.AutomaticEnv()
	return vp
}

// FromViper reads the yaml file at path into vp and decodes the merged config.
// A missing file is only tolerated at DefaultPath; an empty path skips the file entirely.
func FromViper(vp *viper.Viper, path string) (*OuterConfig, error) {
	if path != "" {
		vp.SetConfigFile(path)
		vp.SetConfigType("yaml")
		if err := vp.ReadInConfig(); err != nil {
			if !(path == DefaultPath && errors.Is(err, fs.ErrNotExist)) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	cfg := &OuterConfig{}
	if err := vp.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromYaml loads the config at path with defaults and env overrides, but no flags.
func FromYaml(path string) (*OuterConfig, error) {
	return FromViper(New(), path)
}

// WriteYaml writes the config in the same envelope it is read from.
func WriteYaml(w io.Writer, cfg *OuterConfig) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return enc.Close()
}
