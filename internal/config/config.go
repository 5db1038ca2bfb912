// Package config loads the iiinspect configuration.
//
// Values are layered, lowest precedence first: built-in defaults, the
// iiinspect.yaml file, IIINSPECT_ environment variables and command-line
// flags. Nested keys are addressed with a double underscore in the
// environment, e.g. IIINSPECT_REDIS__ADDR for redis.addr.
package config

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/syssam/actian/dialect/ingres"
)

// EnvPrefix prefixes the environment variables read by Load.
const EnvPrefix = "IIINSPECT_"

// Default values.
const (
	DefaultDriver        = "odbc"
	DefaultOutput        = OutputTable
	DefaultNameCase      = "lower"
	DefaultSlowThreshold = 250 * time.Millisecond
)

// Output formats.
const (
	OutputTable = "table"
	OutputYAML  = "yaml"
	OutputJSON  = "json"
)

// configFiles are searched in the working directory when no file is given.
var configFiles = []string{"iiinspect.yaml", "iiinspect.yml"}

// Config holds the iiinspect configuration.
type Config struct {
	Driver        string        `koanf:"driver"`
	DSN           string        `koanf:"dsn"`
	Schema        string        `koanf:"schema"`
	NameCase      string        `koanf:"name_case"`
	SystemIndexes bool          `koanf:"system_indexes"`
	Output        string        `koanf:"output"`
	Verbose       bool          `koanf:"verbose"`
	Stats         bool          `koanf:"stats"`
	SlowThreshold time.Duration `koanf:"slow_threshold"`
	Redis         Redis         `koanf:"redis"`

	// File is the configuration file that was loaded, if any.
	File string `koanf:"-"`
}

// Redis configures the shared reflection cache. The cache is disabled
// when Addr is empty.
type Redis struct {
	Addr      string        `koanf:"addr"`
	Password  string        `koanf:"password"`
	DB        int           `koanf:"db"`
	Namespace string        `koanf:"namespace"`
	TTL       time.Duration `koanf:"ttl"`
}

// Load reads the configuration. An explicit cfgFile must exist; otherwise
// iiinspect.yaml is used when present. Only flags that were set on the
// command line override other sources.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults.
	if err := k.Load(confmap.Provider(map[string]any{
		"driver":         DefaultDriver,
		"output":         DefaultOutput,
		"name_case":      DefaultNameCase,
		"slow_threshold": DefaultSlowThreshold.String(),
		"redis.ttl":      "10m",
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("config: load defaults: %w", err)
	}

	// 2. Config file.
	path := findConfigFile(cfgFile)
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	// 3. Environment. IIINSPECT_REDIS__ADDR -> redis.addr.
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("config: load env: %w", err)
	}

	// 4. Flags.
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			if key == "redis" {
				key = "redis.addr"
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("config: load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	cfg.File = path
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range configFiles {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// Validate checks the values that can be checked without a connection.
func (c *Config) Validate() error {
	if c.Driver == "" {
		return fmt.Errorf("config: driver is required")
	}
	if !slices.Contains([]string{OutputTable, OutputYAML, OutputJSON}, c.Output) {
		return fmt.Errorf("config: unknown output format %q", c.Output)
	}
	if _, err := ingres.ParseNameCase(c.NameCase); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.SlowThreshold < 0 {
		return fmt.Errorf("config: negative slow_threshold %s", c.SlowThreshold)
	}
	return nil
}

// Case returns the parsed name_case value.
func (c *Config) Case() ingres.NameCase {
	nc, _ := ingres.ParseNameCase(c.NameCase)
	return nc
}
