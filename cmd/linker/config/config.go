// Package config loads the linker's settings from built-in defaults and an
// optional YAML file. LINKER_* environment variables override both.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"trade-journal-linker/internal/matcher"
	"trade-journal-linker/internal/reporter"
	"trade-journal-linker/internal/store/gormstore"
	"trade-journal-linker/internal/sweep"
	"trade-journal-linker/pkg/errors"
	"trade-journal-linker/pkg/logger"
)

// EnvPrefix is prepended to every environment override, e.g. LINKER_DB_DSN
const EnvPrefix = "LINKER"

// Store drivers accepted by store.driver
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config is the complete linker configuration
type Config struct {
	App     AppConfig             `mapstructure:"app"`
	Server  ServerConfig          `mapstructure:"server"`
	Log     logger.Config         `mapstructure:"log"`
	DB      gormstore.Config      `mapstructure:"db"`
	Store   StoreConfig           `mapstructure:"store"`
	Linking matcher.LinkingConfig `mapstructure:"linking"`
	Sweep   sweep.Config          `mapstructure:"sweep"`
	Report  ReportConfig          `mapstructure:"report"`
}

// AppConfig holds application-wide settings. Env other than "dev" puts gin
// into release mode.
type AppConfig struct {
	Env string `mapstructure:"env"`
}

// ServerConfig configures the HTTP listener used by serve
type ServerConfig struct {
	HTTPAddr        string        `mapstructure:"http_addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// StoreConfig selects the persistence backend. The memory driver loads
// Fixture when set and starts empty otherwise.
type StoreConfig struct {
	Driver  string `mapstructure:"driver"`
	Fixture string `mapstructure:"fixture"`
}

// ReportConfig holds the CLI report defaults
type ReportConfig struct {
	Format           string `mapstructure:"format"`
	IncludeOutcomes  bool   `mapstructure:"include_outcomes"`
	IncludeBreakdown bool   `mapstructure:"include_breakdown"`
}

// Load reads path when non-empty and applies environment overrides.
// linking.preset picks the base linking settings; explicit linking keys
// still override it.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "config_file", path, err).
				WithSuggestion("Check that the config file exists and is valid YAML")
		}
	}

	preset := strings.ToLower(strings.TrimSpace(v.GetString("linking.preset")))
	linking, err := matcher.Preset(preset)
	if err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "linking.preset", preset, err).
			WithSuggestion("Use one of: default, conservative")
	}
	setLinkingDefaults(v, linking)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "config", path, err)
	}
	cfg.Store.Driver = strings.ToLower(strings.TrimSpace(cfg.Store.Driver))

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	db := gormstore.DefaultConfig()
	sw := sweep.DefaultConfig()
	lg := logger.DefaultConfig()

	v.SetDefault("app.env", "dev")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("log.level", string(lg.Level))
	v.SetDefault("log.format", string(lg.Format))
	v.SetDefault("log.output", string(logger.StderrOutput))
	v.SetDefault("log.file", "")
	v.SetDefault("log.disable_timestamp", false)
	v.SetDefault("log.caller_info", false)

	v.SetDefault("db.dsn", "")
	v.SetDefault("db.max_open_conns", db.MaxOpenConns)
	v.SetDefault("db.max_idle_conns", db.MaxIdleConns)
	v.SetDefault("db.conn_max_lifetime", db.ConnMaxLifetime.String())
	v.SetDefault("db.conn_max_idle_time", db.ConnMaxIdleTime.String())
	v.SetDefault("db.log_sql", false)

	v.SetDefault("store.driver", DriverPostgres)
	v.SetDefault("store.fixture", "")

	v.SetDefault("linking.preset", "default")
	setLinkingDefaults(v, matcher.DefaultLinkingConfig())

	v.SetDefault("sweep.enabled", sw.Enabled)
	v.SetDefault("sweep.schedule", sw.Schedule)
	v.SetDefault("sweep.lookback", sw.Lookback.String())
	v.SetDefault("sweep.batch_size", sw.BatchSize)
	v.SetDefault("sweep.max_entries", sw.MaxEntries)

	v.SetDefault("report.format", string(reporter.FormatConsole))
	v.SetDefault("report.include_outcomes", true)
	v.SetDefault("report.include_breakdown", false)
}

func setLinkingDefaults(v *viper.Viper, linking *matcher.LinkingConfig) {
	v.SetDefault("linking.date_window_days", linking.DateWindowDays)
	v.SetDefault("linking.max_candidates", linking.MaxCandidates)
	v.SetDefault("linking.suggestion_threshold", linking.SuggestionThreshold)
	v.SetDefault("linking.auto_link_threshold", linking.AutoLinkThreshold)
	v.SetDefault("linking.default_suggestions", linking.DefaultSuggestions)
	v.SetDefault("linking.max_suggestions", linking.MaxSuggestions)
	v.SetDefault("linking.max_batch_size", linking.MaxBatchSize)
	v.SetDefault("linking.timezone", linking.Timezone)
	v.SetDefault("linking.weights.ticker", linking.Weights.Ticker)
	v.SetDefault("linking.weights.date_same_day", linking.Weights.DateSameDay)
	v.SetDefault("linking.weights.date_one_day", linking.Weights.DateOneDay)
	v.SetDefault("linking.weights.date_in_window", linking.Weights.DateInWindow)
	v.SetDefault("linking.weights.strategy", linking.Weights.Strategy)
	v.SetDefault("linking.weights.status_open", linking.Weights.StatusOpen)
	v.SetDefault("linking.weights.status_closed", linking.Weights.StatusClosed)
}

// Validate checks every section and reports the first invalid one
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server.HTTPAddr) == "" {
		return errors.ConfigurationError(errors.CodeMissingConfig, "server.http_addr", nil, nil)
	}

	if err := c.Log.Validate(); err != nil {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "log", c.Log.Level, err)
	}

	switch c.Store.Driver {
	case DriverPostgres:
		if strings.TrimSpace(c.DB.DSN) == "" {
			return errors.ConfigurationError(errors.CodeMissingConfig, "db.dsn", nil, nil).
				WithSuggestion("Set LINKER_DB_DSN or use store.driver=memory with a fixture")
		}
	case DriverMemory:
	default:
		return errors.ConfigurationError(errors.CodeInvalidConfig, "store.driver", c.Store.Driver,
			fmt.Errorf("expected %s or %s", DriverPostgres, DriverMemory))
	}

	if err := c.Linking.Validate(); err != nil {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "linking", "", err)
	}

	if err := c.Sweep.Validate(); err != nil {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "sweep", c.Sweep.Schedule, err)
	}

	if !reporter.OutputFormat(c.Report.Format).IsValid() {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "report.format", c.Report.Format, nil).
			WithSuggestion("Use one of: console, json, csv")
	}

	return nil
}

// CreateReportConfig builds the reporter settings, letting format override
// the configured one when non-empty
func (c *Config) CreateReportConfig(format string) *reporter.ReportConfig {
	rc := reporter.DefaultReportConfig()
	rc.Format = reporter.OutputFormat(c.Report.Format)
	if format != "" {
		rc.Format = reporter.OutputFormat(strings.ToLower(format))
	}
	rc.IncludeOutcomes = c.Report.IncludeOutcomes
	rc.IncludeBreakdown = c.Report.IncludeBreakdown
	return rc
}
