package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	// Normalization policy
	Locale          string  `mapstructure:"locale" yaml:"locale"`
	DateOrder       string  `mapstructure:"date_order" yaml:"date_order"`
	DetectThreshold float64 `mapstructure:"detect_threshold" yaml:"detect_threshold"`

	// Query defaults
	DefaultAggFunc string `mapstructure:"default_agg_func" yaml:"default_agg_func"`

	// Ingestion
	CSVDelimiter string `mapstructure:"csv_delimiter" yaml:"csv_delimiter"`
	MaxRows      int    `mapstructure:"max_rows" yaml:"max_rows"`

	// Output
	PreviewRows  int    `mapstructure:"preview_rows" yaml:"preview_rows"`
	OutputFormat string `mapstructure:"output_format" yaml:"output_format"`
	LogLevel     string `mapstructure:"log_level" yaml:"log_level"`
}

// Defaults returns the configuration used when nothing else is set.
func Defaults() Global {
	return Global{
		Locale:          "compat",
		DateOrder:       "month-first",
		DetectThreshold: 0.5,
		DefaultAggFunc:  "sum",
		PreviewRows:     5,
		OutputFormat:    "table",
		LogLevel:        "warn",
	}
}

// Dir returns ~/.finnorm.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".finnorm"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.finnorm/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	var path string
	if cfgFile != "" {
		path = cfgFile
	} else {
		dir, err := Dir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. Command-line flags are applied by
// the caller on top of the result.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("FINNORM")
	v.AutomaticEnv()

	d := Defaults()
	v.SetDefault("locale", d.Locale)
	v.SetDefault("date_order", d.DateOrder)
	v.SetDefault("detect_threshold", d.DetectThreshold)
	v.SetDefault("default_agg_func", d.DefaultAggFunc)
	v.SetDefault("csv_delimiter", d.CSVDelimiter)
	v.SetDefault("max_rows", d.MaxRows)
	v.SetDefault("preview_rows", d.PreviewRows)
	v.SetDefault("output_format", d.OutputFormat)
	v.SetDefault("log_level", d.LogLevel)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		// a missing explicit file is fine; config set creates it
		if _, err := os.Stat(cfgFile); err == nil {
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		// optional read
		_ = v.ReadInConfig()
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks value ranges that viper cannot.
func (c *Global) Validate() error {
	if c.DetectThreshold < 0 || c.DetectThreshold > 1 {
		return fmt.Errorf("detect_threshold must be within [0,1], got %v", c.DetectThreshold)
	}
	if c.MaxRows < 0 {
		return fmt.Errorf("max_rows must be >= 0, got %d", c.MaxRows)
	}
	if c.PreviewRows < 0 {
		return fmt.Errorf("preview_rows must be >= 0, got %d", c.PreviewRows)
	}
	switch c.CSVDelimiter {
	case "", `\t`, "tab":
	default:
		if len([]rune(c.CSVDelimiter)) != 1 {
			return fmt.Errorf("csv_delimiter must be a single character, got %q", c.CSVDelimiter)
		}
	}
	switch c.OutputFormat {
	case "", "table", "json", "yaml":
	default:
		return fmt.Errorf("invalid output_format: %s (use table, json or yaml)", c.OutputFormat)
	}
	return nil
}

// Delimiter returns the configured CSV delimiter, or 0 to sniff it.
func (c *Global) Delimiter() rune {
	switch c.CSVDelimiter {
	case "":
		return 0
	case `\t`, "tab":
		return '\t'
	}
	return []rune(c.CSVDelimiter)[0]
}
