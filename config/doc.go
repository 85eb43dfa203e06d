// Package config loads the lending configuration from the environment and opens database connections.
package config
