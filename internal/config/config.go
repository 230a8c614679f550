// Package config loads the settings of a kebiao-ics run.
//
// Settings are layered: the embedded default.yaml, then an optional user
// file, then KEBIAO_* environment variables (a .env file in the working
// directory is loaded first), then command-line flags. The merged result
// is validated before use.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "KEBIAO"

// DefaultFile is read from the working directory when no file is given.
const DefaultFile = "kebiao.yaml"

//go:embed default.yaml
var defaultYAML []byte

type Config struct {
	Portal      PortalConfig    `mapstructure:"portal"`
	Term        TermConfig      `mapstructure:"term"`
	Fetch       FetchConfig     `mapstructure:"fetch"`
	Dirs        DirsConfig      `mapstructure:"dirs"`
	Locations   LocationsConfig `mapstructure:"locations"`
	Periods     []PeriodConfig  `mapstructure:"periods" validate:"required,min=1,dive"`
	Log         LogConfig       `mapstructure:"log"`
	MetricsFile string          `mapstructure:"metrics_file"`
	StudentID   string          `mapstructure:"student_id"`
	XLSX        bool            `mapstructure:"xlsx"`
	Offline     bool            `mapstructure:"offline"`
}

type PortalConfig struct {
	BaseURL      string `mapstructure:"base_url" validate:"required,url"`
	SchedulePath string `mapstructure:"schedule_path" validate:"required,startswith=/"`
	Cookie       string `mapstructure:"cookie"`
}

// TermConfig selects the term to scrape.
type TermConfig struct {
	Year    string         `mapstructure:"year" validate:"required,numeric"`
	Code    string         `mapstructure:"code" validate:"required"`
	Weeks   int            `mapstructure:"weeks" validate:"min=1,max=60"`
	Anchors []AnchorConfig `mapstructure:"anchors" validate:"dive"`
}

// AnchorConfig is the week-1 anchor date of one term.
type AnchorConfig struct {
	Year string `mapstructure:"year" validate:"required"`
	Code string `mapstructure:"code" validate:"required"`
	Date string `mapstructure:"date" validate:"required,datetime=2006-01-02"`
}

// FetchConfig controls portal requests.
type FetchConfig struct {
	Timeout     time.Duration `mapstructure:"timeout" validate:"gt=0"`
	Retries     int           `mapstructure:"retries" validate:"min=0,max=10"`
	OnFailure   string        `mapstructure:"on_failure" validate:"oneof=skip abort"`
	Concurrency int           `mapstructure:"concurrency" validate:"min=1,max=32"`
	DetailTTL   time.Duration `mapstructure:"detail_ttl" validate:"min=0"`
}

type DirsConfig struct {
	Pages  string `mapstructure:"pages" validate:"required"`
	Output string `mapstructure:"output" validate:"required"`
}

// LocationsConfig holds the location resolution policy and table files.
type LocationsConfig struct {
	Sentinel      string        `mapstructure:"sentinel" validate:"required"`
	TieBreak      string        `mapstructure:"tie_break" validate:"oneof=first strict"`
	LocationTable string        `mapstructure:"location_table"`
	RosterTable   string        `mapstructure:"roster_table"`
	Fixed         []FixedConfig `mapstructure:"fixed" validate:"dive"`
}

type FixedConfig struct {
	Course   string `mapstructure:"course" validate:"required"`
	Location string `mapstructure:"location" validate:"required"`
}

// PeriodConfig is one row of the period table.
type PeriodConfig struct {
	Index int    `mapstructure:"index" validate:"min=1"`
	Start string `mapstructure:"start" validate:"required,datetime=15:04"`
	End   string `mapstructure:"end" validate:"required,datetime=15:04"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error DEBUG INFO WARN ERROR"`
	Format string `mapstructure:"format" validate:"oneof=json console"`
}

// Options tells Load where to look besides the defaults.
type Options struct {
	// File is a YAML file merged over the defaults. When empty, DefaultFile
	// is used if it exists.
	File string
	// EnvFile is loaded into the environment first; ".env" when empty.
	EnvFile string
	// Flags maps config keys to command-line flags. A flag overrides its key
	// only when it was set.
	Flags    *pflag.FlagSet
	FlagKeys map[string]string
}

// Load builds and validates the configuration.
func Load(opts Options) (*Config, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading %s: %w", envFile, err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(defaultYAML)); err != nil {
		return nil, fmt.Errorf("reading default config: %w", err)
	}

	file := opts.File
	if file == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			file = DefaultFile
		}
	}
	if file != "" {
		v.SetConfigFile(file)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", file, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.Flags != nil {
		for key, name := range opts.FlagKeys {
			flag := opts.Flags.Lookup(name)
			if flag == nil {
				return nil, fmt.Errorf("unknown flag %q for key %s", name, key)
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return nil, fmt.Errorf("binding flag %s: %w", name, err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints and that the selected term has an
// anchor.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := c.AnchorDate(); err != nil {
		return err
	}
	return nil
}

// AnchorDate returns the configured anchor of the selected term.
func (c *Config) AnchorDate() (string, error) {
	for _, a := range c.Term.Anchors {
		if a.Year == c.Term.Year && a.Code == c.Term.Code {
			return a.Date, nil
		}
	}
	return "", fmt.Errorf("no anchor date configured for term %s/%s", c.Term.Year, c.Term.Code)
}
