package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Mode selects how a profile talks to the API.
type Mode string

const (
	// ModeBatch sends every row in a single batch request.
	ModeBatch Mode = "batch"
	// ModeGeocode geocodes rows one request at a time.
	ModeGeocode Mode = "geocode"
	// ModeFuzzy runs a fuzzy search per row anchored to the coordinates of its context.
	ModeFuzzy Mode = "fuzzy"
)

// APIKeyEnv is the environment variable holding the TomTom API key.
const APIKeyEnv = "TOMTOM_API_KEY"

var (
	// ErrMissingAPIKey is returned by Validate when no API key was configured.
	ErrMissingAPIKey = errors.New("'" + APIKeyEnv + "' not found, add it to the environment or to a .env file")
	// ErrUnknownProfile is returned when a profile name is not configured.
	ErrUnknownProfile = errors.New("unknown profile")
	// ErrInvalidProfile is returned when a profile cannot be executed.
	ErrInvalidProfile = errors.New("invalid profile")
)

// Config holds the configuration settings for the waypoint CLI.
// It is built once at process start and passed to every component explicitly.
//
// Fields:
// - Env: The current environment (local, development, production), selects the log format.
// - TomTom: API endpoint, key and result language.
// - Anchor: Provider used to resolve fuzzy search contexts into coordinates.
// - Search: Radius and result limit of fuzzy searches.
// - Timeouts: Per-request timeouts for each kind of API call.
// - Throttle: Fixed spacing between successive API calls.
// - Metrics: Optional Prometheus textfile output.
// - Profiles: Named pipelines (mode, input columns, output shape).
type Config struct {
	Env      string             `mapstructure:"env"`
	TomTom   TomTomConfig       `mapstructure:"tomtom"`
	Anchor   AnchorConfig       `mapstructure:"anchor"`
	Search   SearchConfig       `mapstructure:"search"`
	Timeouts TimeoutConfig      `mapstructure:"timeouts"`
	Throttle ThrottleConfig     `mapstructure:"throttle"`
	Metrics  MetricsConfig      `mapstructure:"metrics"`
	Profiles map[string]Profile `mapstructure:"profiles"`
}

// TomTomConfig holds the TomTom Search API settings.
type TomTomConfig struct {
	BaseURL  string `mapstructure:"base_url"`
	APIKey   string `mapstructure:"api_key"`
	Language string `mapstructure:"language"` // Language of returned results, e.g. en-US.
}

// AnchorConfig configures the coordinate resolution provider (tomtom, google, nominatim).
type AnchorConfig struct {
	Provider string `mapstructure:"provider"`
	APIKey   string `mapstructure:"api_key"` // Only used by the google provider.
}

// SearchConfig holds fuzzy search parameters.
type SearchConfig struct {
	Radius int `mapstructure:"radius"` // Search radius around the anchor, in meters.
	Limit  int `mapstructure:"limit"`  // Maximum number of results per query.
}

// TimeoutConfig holds per-request timeouts.
type TimeoutConfig struct {
	Batch   time.Duration `mapstructure:"batch"`
	Geocode time.Duration `mapstructure:"geocode"`
	Anchor  time.Duration `mapstructure:"anchor"`
	Search  time.Duration `mapstructure:"search"`
}

// ThrottleConfig holds the fixed-interval throttle policy of loop modes.
type ThrottleConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

// MetricsConfig configures metrics output.
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"` // Path of a Prometheus textfile, empty disables it.
}

// Profile describes one pipeline: where rows come from, how they are sent and where results go.
type Profile struct {
	Mode    Mode     `mapstructure:"mode"`
	Input   string   `mapstructure:"input"`
	Output  string   `mapstructure:"output"`
	Columns []string `mapstructure:"columns"`
	Indent  int      `mapstructure:"indent"`
}

// Load reads the configuration from defaults, an optional config.yaml, a .env file and the environment.
func Load() (*Config, error) {
	// Values already present in the environment win over the .env file.
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("WAYPOINT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.BindEnv("tomtom.api_key", APIKeyEnv); err != nil {
		return nil, fmt.Errorf("failed to bind api key variable: %w", err)
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "local")
	v.SetDefault("tomtom.base_url", "https://api.tomtom.com")
	v.SetDefault("tomtom.api_key", "")
	v.SetDefault("tomtom.language", "en-US")
	v.SetDefault("anchor.provider", "tomtom")
	v.SetDefault("anchor.api_key", "")
	v.SetDefault("search.radius", 10000)
	v.SetDefault("search.limit", 5)
	v.SetDefault("timeouts.batch", 30*time.Second)
	v.SetDefault("timeouts.geocode", 15*time.Second)
	v.SetDefault("timeouts.anchor", 10*time.Second)
	v.SetDefault("timeouts.search", 15*time.Second)
	v.SetDefault("throttle.interval", 200*time.Millisecond)
	v.SetDefault("metrics.textfile", "")

	for name, profile := range DefaultProfiles() {
		prefix := "profiles." + name + "."
		v.SetDefault(prefix+"mode", string(profile.Mode))
		v.SetDefault(prefix+"input", profile.Input)
		v.SetDefault(prefix+"output", profile.Output)
		v.SetDefault(prefix+"columns", profile.Columns)
		v.SetDefault(prefix+"indent", profile.Indent)
	}
}

// DefaultProfiles returns the built-in profiles.
func DefaultProfiles() map[string]Profile {
	const (
		indentCompact = 2
		indentWide    = 4
	)

	return map[string]Profile{
		"batch": {
			Mode:    ModeBatch,
			Input:   "data/addresses_batch.csv",
			Output:  "results/geocoding_batch_api.json",
			Columns: []string{"address"},
			Indent:  indentCompact,
		},
		"batch_pt": {
			Mode:    ModeBatch,
			Input:   "enderecos.csv",
			Output:  "resultados_geocodificacao.json",
			Columns: []string{"endereco"},
			Indent:  indentCompact,
		},
		"geocode": {
			Mode:    ModeGeocode,
			Input:   "data/addresses_geocoding.csv",
			Output:  "results/geocoding.json",
			Columns: []string{"address"},
			Indent:  indentCompact,
		},
		"fuzzy": {
			Mode:    ModeFuzzy,
			Input:   "data/addresses_fuzzy.csv",
			Output:  "results/fuzzy.json",
			Columns: []string{"query", "context"},
			Indent:  indentWide,
		},
	}
}

// Validate checks the settings every run needs before touching files or the network.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.TomTom.APIKey) == "" {
		return ErrMissingAPIKey
	}

	return nil
}

// Profile returns the profile registered under name.
func (c *Config) Profile(name string) (Profile, error) {
	profile, ok := c.Profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q (available: %s)", ErrUnknownProfile, name, strings.Join(c.ProfileNames(), ", "))
	}

	return profile, nil
}

// ProfileNames returns the configured profile names in lexical order.
func (c *Config) ProfileNames() []string {
	names := make([]string, 0, len(c.Profiles))
	for name := range c.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// Validate checks that the profile describes a runnable pipeline.
func (p Profile) Validate() error {
	var wantColumns int
	switch p.Mode {
	case ModeBatch, ModeGeocode:
		wantColumns = 1
	case ModeFuzzy:
		wantColumns = 2
	default:
		return fmt.Errorf("%w: unsupported mode %q", ErrInvalidProfile, p.Mode)
	}

	if len(p.Columns) != wantColumns {
		return fmt.Errorf("%w: mode %s needs %d column(s), got %d", ErrInvalidProfile, p.Mode, wantColumns, len(p.Columns))
	}

	for _, column := range p.Columns {
		if strings.TrimSpace(column) == "" {
			return fmt.Errorf("%w: empty column name", ErrInvalidProfile)
		}
	}

	if p.Input == "" || p.Output == "" {
		return fmt.Errorf("%w: input and output paths are required", ErrInvalidProfile)
	}

	if p.Indent < 0 {
		return fmt.Errorf("%w: negative indent", ErrInvalidProfile)
	}

	return nil
}
