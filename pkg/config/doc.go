// Package config loads typed configuration structs from environment
// variables using caarlos0/env tags, with optional .env file support via
// godotenv for local development.
//
// Each package that needs configuration declares its own Config struct with
// env tags and defaults; the binary composes them and calls MustLoad during
// startup so misconfiguration fails fast instead of surfacing mid-request.
package config
