// Package config defines the application configuration structure and loading
// logic. Configuration is read from environment variables (LANEBOARD_ prefix)
// and an optional YAML config file, then validated before use.
package config
