// Package config loads typed configuration structs from environment
// variables using github.com/caarlos0/env, with optional .env support via
// godotenv for local development.
//
// Configuration is declared as plain structs with `env` tags next to the
// component that consumes it (see pg.Config, realtime.RelayConfig), and
// loaded once per type for the lifetime of the process.
package config
