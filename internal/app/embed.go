package app

import (
	_ "embed"

	config "github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/core/config"
)

// embeddedConfig is the default application.yaml compiled into every binary.
//
//go:embed resources/application.yaml
var embeddedConfig []byte

// EmbeddedConfig returns the compiled-in configuration document.
func EmbeddedConfig() config.EmbeddedConfig {
	return config.EmbeddedConfig(embeddedConfig)
}
