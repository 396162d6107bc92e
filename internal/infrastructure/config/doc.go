// Package config loads the gateway's configuration.
//
// Configuration is layered: hardcoded defaults, then the YAML file,
// then SENTRYGATE_* environment variable overrides. Load validates the
// result, so a gateway never starts with a config it cannot run on.
package config
