package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/handiism/problem-archiver/internal/completion"
	"github.com/handiism/problem-archiver/internal/model"
	"github.com/handiism/problem-archiver/internal/progress"
)

// EnvPrefix prefixes every environment override, e.g. ARCHIVER_CONCURRENCY.
const EnvPrefix = "ARCHIVER"

// Settings holds all configuration options.
type Settings struct {
	// Run selection
	OutputDir             string   `mapstructure:"output_dir" validate:"required"`
	ItemID                int      `mapstructure:"item_id" validate:"gte=0"`
	Formats               []string `mapstructure:"formats" validate:"min=1,dive,oneof=structured lightweight raw html markdown md"`
	FetchTemplates        bool     `mapstructure:"fetch_templates"`
	FetchCommunityAnswers bool     `mapstructure:"fetch_community_answers"`
	FetchOfficialAnswer   bool     `mapstructure:"fetch_official_answer"`
	Concurrency           int      `mapstructure:"concurrency" validate:"gte=1,lte=64"`

	Retry   RetrySettings   `mapstructure:"retry"`
	Media   MediaSettings   `mapstructure:"media"`
	Catalog CatalogSettings `mapstructure:"catalog"`
	Auth    AuthSettings    `mapstructure:"auth"`
	Logging LoggingSettings `mapstructure:"logging"`
	Metrics MetricsSettings `mapstructure:"metrics"`
}

// RetrySettings configures the retry executor.
type RetrySettings struct {
	MaxAttempts int           `mapstructure:"max_attempts" validate:"gte=1,lte=10"`
	BaseDelay   time.Duration `mapstructure:"base_delay" validate:"gte=0"`
}

// MediaSettings configures embedded media downloads.
type MediaSettings struct {
	Timeout time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

// CatalogSettings configures the remote catalog client.
type CatalogSettings struct {
	Endpoint      string        `mapstructure:"endpoint" validate:"required,url"`
	PageSize      int           `mapstructure:"page_size" validate:"gte=1,lte=500"`
	UserAgent     string        `mapstructure:"user_agent"`
	Timeout       time.Duration `mapstructure:"timeout" validate:"gt=0"`
	SessionCookie string        `mapstructure:"session_cookie" validate:"required"`
}

// AuthSettings names where credentials are read from.
type AuthSettings struct {
	TokenEnv string `mapstructure:"token_env" validate:"required"`
	CSRFEnv  string `mapstructure:"csrf_env"`
	EnvFile  string `mapstructure:"env_file"`
}

// LoggingSettings toggles zap development features.
type LoggingSettings struct {
	Development bool `mapstructure:"development"`
}

// MetricsSettings controls the end-of-run metrics export.
type MetricsSettings struct {
	// Textfile is written in the Prometheus text format when set.
	Textfile string `mapstructure:"textfile"`
}

// DefaultSettings returns settings with default values.
func DefaultSettings() *Settings {
	return &Settings{
		OutputDir:             "archive",
		Formats:               []string{"lightweight"},
		FetchTemplates:        true,
		FetchCommunityAnswers: true,
		FetchOfficialAnswer:   true,
		Concurrency:           5,

		Retry: RetrySettings{
			MaxAttempts: 3,
			BaseDelay:   time.Second,
		},
		Media: MediaSettings{
			Timeout: 10 * time.Second,
		},
		Catalog: CatalogSettings{
			Endpoint:      "https://leetcode.com/graphql",
			PageSize:      100,
			UserAgent:     "problem-archiver/1.0",
			Timeout:       60 * time.Second,
			SessionCookie: "LEETCODE_SESSION",
		},
		Auth: AuthSettings{
			TokenEnv: "ARCHIVER_SESSION",
			CSRFEnv:  "ARCHIVER_CSRF",
			EnvFile:  ".env",
		},
	}
}

// NewViper returns a viper instance with defaults and environment overrides
// registered. Callers may bind flags to it before calling Load.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, DefaultSettings())
	return v
}

func setDefaults(v *viper.Viper, d *Settings) {
	v.SetDefault("output_dir", d.OutputDir)
	v.SetDefault("item_id", d.ItemID)
	v.SetDefault("formats", d.Formats)
	v.SetDefault("fetch_templates", d.FetchTemplates)
	v.SetDefault("fetch_community_answers", d.FetchCommunityAnswers)
	v.SetDefault("fetch_official_answer", d.FetchOfficialAnswer)
	v.SetDefault("concurrency", d.Concurrency)
	v.SetDefault("retry.max_attempts", d.Retry.MaxAttempts)
	v.SetDefault("retry.base_delay", d.Retry.BaseDelay)
	v.SetDefault("media.timeout", d.Media.Timeout)
	v.SetDefault("catalog.endpoint", d.Catalog.Endpoint)
	v.SetDefault("catalog.page_size", d.Catalog.PageSize)
	v.SetDefault("catalog.user_agent", d.Catalog.UserAgent)
	v.SetDefault("catalog.timeout", d.Catalog.Timeout)
	v.SetDefault("catalog.session_cookie", d.Catalog.SessionCookie)
	v.SetDefault("auth.token_env", d.Auth.TokenEnv)
	v.SetDefault("auth.csrf_env", d.Auth.CSRFEnv)
	v.SetDefault("auth.env_file", d.Auth.EnvFile)
	v.SetDefault("logging.development", d.Logging.Development)
	v.SetDefault("metrics.textfile", d.Metrics.Textfile)
}

// Load reads the optional config file at path into v and decodes validated
// Settings. Environment variables and bound flags take precedence over the
// file, which takes precedence over the defaults.
func Load(v *viper.Viper, path string) (*Settings, error) {
	if v == nil {
		v = NewViper()
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate enforces required values and limits.
func (s *Settings) Validate() error {
	err := validator.New().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate config: %w", err)
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fmt.Sprintf("%s fails %q (got %v)", fe.Namespace(), fe.ActualTag(), fe.Value()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// OutputFormats parses Formats.
func (s *Settings) OutputFormats() ([]model.Format, error) {
	return model.ParseFormats(s.Formats)
}

// Requested returns the optional sub-resources the run should fetch.
func (s *Settings) Requested() completion.Requested {
	return completion.Requested{
		Templates:        s.FetchTemplates,
		CommunityAnswers: s.FetchCommunityAnswers,
		OfficialAnswer:   s.FetchOfficialAnswer,
	}
}

// ProgressFile returns the location of the progress file.
func (s *Settings) ProgressFile() string {
	return filepath.Join(s.OutputDir, progress.FileName)
}
