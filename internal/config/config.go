// Package config provides configuration management for bustle using Viper
// for loading from files, environment variables, and command-line flags.
//
// The configuration system supports YAML files, environment variable
// overrides with the BUSTLE_ prefix, defaults, and validation. It describes
// where assets live, where the bundle manifest and build artifact are, and
// how LESS sources are preprocessed.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/conneroisu/bustle/internal/staleness"
)

// Defaults applied when a key is not set anywhere.
const (
	DefaultStaticRoot  = "static"
	DefaultStaticURL   = "/static/"
	DefaultManifest    = "assets.yml"
	DefaultBuildFile   = "build.json"
	DefaultLessBin     = "lessc"
	DefaultLessTimeout = 30 * time.Second
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "text"
)

type Config struct {
	Static    StaticConfig `mapstructure:"static"`
	Manifest  string       `mapstructure:"manifest"`
	BuildFile string       `mapstructure:"build_file"`
	Debug     bool         `mapstructure:"debug"`
	Less      LessConfig   `mapstructure:"less"`
	Output    string       `mapstructure:"output"`
	Log       LogConfig    `mapstructure:"log"`
}

type StaticConfig struct {
	Root    string   `mapstructure:"root"`
	URL     string   `mapstructure:"url"`
	Sources []string `mapstructure:"sources"`
}

type LessConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Bin     string        `mapstructure:"bin"`
	Policy  string        `mapstructure:"policy"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("static.root", DefaultStaticRoot)
	v.SetDefault("static.url", DefaultStaticURL)
	v.SetDefault("manifest", DefaultManifest)
	v.SetDefault("build_file", DefaultBuildFile)
	v.SetDefault("debug", false)
	v.SetDefault("less.enabled", false)
	v.SetDefault("less.bin", DefaultLessBin)
	v.SetDefault("less.policy", staleness.PolicyMtimeCompare.String())
	v.SetDefault("less.timeout", DefaultLessTimeout)
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.format", DefaultLogFormat)
}

// EnvPrefix prefixes environment overrides, e.g. BUSTLE_STATIC_URL.
const EnvPrefix = "BUSTLE"

// BindEnv makes v read BUSTLE_* environment variables, mapping nested keys
// such as less.bin to BUSTLE_LESS_BIN.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load reads the configuration from the global viper instance.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads and validates the configuration held by v.
func LoadFrom(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decoding configuration: %w", err)
	}

	// Slices set as a single comma separated string (env, flags)
	if v.IsSet("static.sources") && len(config.Static.Sources) == 0 {
		config.Static.Sources = v.GetStringSlice("static.sources")
	}

	// The production build writes next to the served files unless told otherwise
	if config.Output == "" {
		config.Output = config.Static.Root
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// StalePolicy returns the parsed staleness policy. Load has already
// validated it.
func (c *Config) StalePolicy() staleness.Policy {
	p, err := staleness.ParsePolicy(c.Less.Policy)
	if err != nil {
		return staleness.PolicyMtimeCompare
	}
	return p
}

// ManifestPath resolves the manifest relative to dir unless it is absolute.
func (c *Config) ManifestPath(dir string) string {
	return resolvePath(dir, c.Manifest)
}

// BuildFilePath resolves the build artifact relative to dir unless it is
// absolute.
func (c *Config) BuildFilePath(dir string) string {
	return resolvePath(dir, c.BuildFile)
}

func resolvePath(dir, p string) string {
	if p == "" || filepath.IsAbs(p) || dir == "" {
		return p
	}
	return filepath.Join(dir, p)
}
