// Package config loads typed configuration structs from environment
// variables, with optional .env file support for local development.
//
// Each config type is parsed exactly once per process and cached, so it
// is safe (and cheap) for every package to load its own configuration
// at construction time.
package config
