// Package cli holds the flags shared by the survey commands.
package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"feedbacksurvey/internal/config"
	"feedbacksurvey/internal/logging"
)

// Options are the persistent flags every command accepts. Non-empty values
// override the config file and environment.
type Options struct {
	ConfigPath string
	LogLevel   string
	LogFormat  string
	Store      string
}

// Bind registers the persistent flags on cmd
func (o *Options) Bind(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	pf.StringVarP(&o.ConfigPath, "config", "c", "", "path to a YAML config file")
	pf.StringVar(&o.LogLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&o.LogFormat, "log-format", "", "log format: json or console")
	pf.StringVar(&o.Store, "store", "", "response store: memory, mongo or postgres")
}

// Load reads the configuration, applies flag overrides and builds the logger
func (o *Options) Load() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return nil, nil, err
	}

	if o.LogLevel != "" {
		cfg.Logging.Level = o.LogLevel
	}
	if o.LogFormat != "" {
		cfg.Logging.Format = o.LogFormat
	}
	if o.Store != "" {
		cfg.Store = o.Store
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	log, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}
