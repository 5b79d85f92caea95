// Package logging constructs the slog loggers used across the daemon and
// provides shared attribute helpers.
package logging
