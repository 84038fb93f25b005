package config

import (
	"go.uber.org/fx"

	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/support/util/logger"
)

// NewLoggingConfigProvider exposes the logging section on its own.
func NewLoggingConfigProvider(cfg *Config) *LoggingConfig {
	return &cfg.Taxi.System.Logging
}

// ApplyLogLevel sets the process-wide log level from the logging section.
func ApplyLogLevel(lc *LoggingConfig) {
	logger.SetLogLevel(lc.Level)
	logger.Debugf("Log level set to: %s", lc.Level)
}

// Module loads *Config and provides its sections and the EnvironmentExpander.
// It needs an EmbeddedConfig and, optionally, a named "envFilePath" string.
var Module = fx.Options(
	fx.Provide(func() EnvironmentExpander {
		return NewOsEnvironmentExpander()
	}),
	fx.Provide(NewConfigProvider),
	fx.Provide(NewLoggingConfigProvider),
	fx.Invoke(ApplyLogLevel),
)
