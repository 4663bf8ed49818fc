package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/vidstats-cli/internal/logging"
	"github.com/KaramelBytes/vidstats-cli/internal/validation"
	"github.com/KaramelBytes/vidstats-cli/internal/videos"
)

const (
	dirName  = ".vidstats"
	fileName = "config.yaml"
)

// Global configuration structure.
type Global struct {
	// Delimiter is auto, comma, semicolon, tab or pipe.
	Delimiter         string   `mapstructure:"delimiter" yaml:"delimiter" validate:"oneof=auto comma semicolon tab pipe"`
	MissingMarkers    []string `mapstructure:"missing_markers" yaml:"missing_markers"`
	AllowExtraColumns bool     `mapstructure:"allow_extra_columns" yaml:"allow_extra_columns"`
	Sheet             string   `mapstructure:"sheet" yaml:"sheet"`
	ZeroViews         string   `mapstructure:"zero_views" yaml:"zero_views" validate:"oneof=sentinel exclude"`

	// Output
	OutputDir   string `mapstructure:"output_dir" yaml:"output_dir"`
	ChartFormat string `mapstructure:"chart_format" yaml:"chart_format" validate:"oneof=xlsx vegalite"`
	SampleRows  int    `mapstructure:"sample_rows" yaml:"sample_rows" validate:"gte=0,lte=1000"`
	TopKeywords int    `mapstructure:"top_keywords" yaml:"top_keywords" validate:"gte=0"`

	// Logging
	LogLevel  string `mapstructure:"log_level" yaml:"log_level" validate:"oneof=debug info warn error"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format" validate:"oneof=text json"`
}

// Keys lists the settable configuration keys in display order.
var Keys = []string{
	"delimiter", "missing_markers", "allow_extra_columns", "sheet", "zero_views",
	"output_dir", "chart_format", "sample_rows", "top_keywords",
	"log_level", "log_format",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("delimiter", "auto")
	v.SetDefault("missing_markers", videos.DefaultMissingMarkers())
	v.SetDefault("allow_extra_columns", false)
	v.SetDefault("sheet", "")
	v.SetDefault("zero_views", string(videos.ZeroViewsSentinel))
	v.SetDefault("output_dir", "vidstats-out")
	v.SetDefault("chart_format", "xlsx")
	v.SetDefault("sample_rows", 5)
	v.SetDefault("top_keywords", 10)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", logging.FormatText)
}

// Defaults returns the configuration used when no file or env is present.
func Defaults() *Global {
	v := viper.New()
	setDefaults(v)
	var c Global
	_ = v.Unmarshal(&c)
	c.normalize()
	return &c
}

// DefaultPath returns ~/.vidstats/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, dirName, fileName), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.vidstats/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	path := cfgFile
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
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
// Precedence: env > config file > defaults. Command flags are applied by the
// caller on top of the result.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("VIDSTATS")
	v.AutomaticEnv()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	} else {
		path, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(filepath.Dir(path))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	// VIDSTATS_MISSING_MARKERS arrives as one comma separated string.
	c.MissingMarkers = splitList(strings.Join(c.MissingMarkers, ","))
	c.normalize()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &c, nil
}

func (c *Global) normalize() {
	if _, err := ParseDelimiter(c.Delimiter); err == nil {
		c.Delimiter = delimiterName(c.Delimiter)
	}
	c.ZeroViews = strings.ToLower(strings.TrimSpace(c.ZeroViews))
	c.ChartFormat = strings.ToLower(strings.TrimSpace(c.ChartFormat))
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
}

// Validate checks enumerations and ranges.
func (c *Global) Validate() error {
	return validation.New().Validate(c)
}

// LoadOptions converts the loader settings.
func (c *Global) LoadOptions() videos.LoadOptions {
	d, _ := ParseDelimiter(c.Delimiter)
	return videos.LoadOptions{
		Delimiter:         d,
		MissingMarkers:    append([]string(nil), c.MissingMarkers...),
		AllowExtraColumns: c.AllowExtraColumns,
		Sheet:             c.Sheet,
	}
}

// DeriveOptions converts the deriver settings.
func (c *Global) DeriveOptions() (videos.DeriveOptions, error) {
	p, err := videos.ParseZeroViewsPolicy(c.ZeroViews)
	if err != nil {
		return videos.DeriveOptions{}, err
	}
	return videos.DeriveOptions{ZeroViews: p}, nil
}

// ParseDelimiter accepts a delimiter name or the literal character. "auto"
// and "" return 0 so the loader picks one from the file extension.
func ParseDelimiter(s string) (rune, error) {
	if s == "\t" {
		return '\t', nil
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return 0, nil
	case "comma", ",":
		return ',', nil
	case "semicolon", ";":
		return ';', nil
	case "tab", `\t`:
		return '\t', nil
	case "pipe", "|":
		return '|', nil
	}
	return 0, fmt.Errorf("unsupported delimiter %q (use auto|comma|semicolon|tab|pipe)", s)
}

// Set assigns one key from its string form.
func (c *Global) Set(key, value string) error {
	switch key {
	case "delimiter":
		if _, err := ParseDelimiter(value); err != nil {
			return err
		}
		c.Delimiter = value
	case "missing_markers":
		c.MissingMarkers = splitList(value)
	case "allow_extra_columns":
		b, err := parseBool(value)
		if err != nil {
			return fmt.Errorf("allow_extra_columns: %w", err)
		}
		c.AllowExtraColumns = b
	case "sheet":
		c.Sheet = strings.TrimSpace(value)
	case "zero_views":
		c.ZeroViews = value
	case "output_dir":
		c.OutputDir = value
	case "chart_format":
		c.ChartFormat = value
	case "sample_rows":
		n, err := parseInt(value)
		if err != nil {
			return fmt.Errorf("sample_rows: %w", err)
		}
		c.SampleRows = n
	case "top_keywords":
		n, err := parseInt(value)
		if err != nil {
			return fmt.Errorf("top_keywords: %w", err)
		}
		c.TopKeywords = n
	case "log_level":
		c.LogLevel = value
	case "log_format":
		c.LogFormat = value
	default:
		return fmt.Errorf("unknown key %q (use %s)", key, strings.Join(Keys, ", "))
	}
	c.normalize()
	return c.Validate()
}

// Get returns the string form of one key.
func (c *Global) Get(key string) (string, error) {
	switch key {
	case "delimiter":
		return c.Delimiter, nil
	case "missing_markers":
		return strings.Join(c.MissingMarkers, ","), nil
	case "allow_extra_columns":
		return fmt.Sprintf("%t", c.AllowExtraColumns), nil
	case "sheet":
		return c.Sheet, nil
	case "zero_views":
		return c.ZeroViews, nil
	case "output_dir":
		return c.OutputDir, nil
	case "chart_format":
		return c.ChartFormat, nil
	case "sample_rows":
		return fmt.Sprintf("%d", c.SampleRows), nil
	case "top_keywords":
		return fmt.Sprintf("%d", c.TopKeywords), nil
	case "log_level":
		return c.LogLevel, nil
	case "log_format":
		return c.LogFormat, nil
	}
	return "", fmt.Errorf("unknown key %q (use %s)", key, strings.Join(Keys, ", "))
}

func delimiterName(s string) string {
	switch r, _ := ParseDelimiter(s); r {
	case ',':
		return "comma"
	case ';':
		return "semicolon"
	case '\t':
		return "tab"
	case '|':
		return "pipe"
	}
	return "auto"
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseBool(s string) (bool, error) {
	return strconv.ParseBool(strings.TrimSpace(s))
}

func parseInt(s string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(s))
}
