package config

import "github.com/kelseyhightower/envconfig"

// parseEnv overlays Config with values from LOADGATE_* environment
// variables. Variables that are not set leave the current value untouched.
func parseEnv(cfg *Config) {
	if err := envconfig.Process("loadgate", cfg); err != nil {
		panic(err)
	}
}
