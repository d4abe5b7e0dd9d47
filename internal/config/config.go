// Package config loads vpcinfo settings from a TOML file.
package config

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/Masterminds/semver/v3"
	"github.com/go-playground/validator/v10"

	"github.com/beetlebugorg/vpc/internal/catalog"
)

// Config is the complete vpcinfo configuration. Load starts from Default,
// so settings missing from the file keep their defaults.
type Config struct {
	Log      LogConfig      `toml:"log"`
	HTTP     HTTPConfig     `toml:"http"`
	Catalog  CatalogConfig  `toml:"catalog"`
	Registry RegistryConfig `toml:"registry"`
}

// LogConfig selects the log level and output format.
type LogConfig struct {
	Level  string `toml:"level" validate:"oneof=trace debug info warn error disabled"`
	Format string `toml:"format" validate:"oneof=console json"`
}

// HTTPConfig configures the client used for remote tiles.
type HTTPConfig struct {
	Timeout   Duration `toml:"timeout" validate:"gte=0"`
	UserAgent string   `toml:"user_agent"`
}

// CatalogConfig controls catalog decoding.
type CatalogConfig struct {
	STACVersions string `toml:"stac_versions" validate:"required,semver_constraint"`
}

// RegistryConfig controls tile loading.
type RegistryConfig struct {
	MaxResident int `toml:"max_resident" validate:"gte=0"`
	Parallel    int `toml:"parallel" validate:"gte=1,lte=256"`
}

// Duration is a time.Duration written as "30s" in TOML.
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return fmt.Errorf("parse duration: %w", err)
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

// Default returns the settings used when no file is given.
func Default() Config {
	return Config{
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		HTTP: HTTPConfig{
			Timeout:   Duration(30 * time.Second),
			UserAgent: "vpcinfo",
		},
		Catalog: CatalogConfig{
			STACVersions: catalog.DefaultVersions,
		},
		Registry: RegistryConfig{
			Parallel: 4,
		},
	}
}

// Load reads path over the defaults and validates the result. Unknown keys
// are rejected.
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("config load failed (%s): unknown keys %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config invalid (%s): %w", path, err)
	}
	return cfg, nil
}

// Validate checks every field.
func (c Config) Validate() error {
	err := newValidator().Struct(c)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterValidation("semver_constraint", func(fl validator.FieldLevel) bool {
		_, err := semver.NewConstraint(fl.Field().String())
		return err == nil
	})
	return v
}

// HTTPClient returns a client honoring the HTTP settings.
func (c Config) HTTPClient() *http.Client {
	client := &http.Client{Timeout: c.HTTP.Timeout.Std()}
	if c.HTTP.UserAgent != "" {
		client.Transport = userAgent{name: c.HTTP.UserAgent, next: http.DefaultTransport}
	}
	return client
}

type userAgent struct {
	name string
	next http.RoundTripper
}

func (u userAgent) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", u.name)
	return u.next.RoundTrip(req)
}
