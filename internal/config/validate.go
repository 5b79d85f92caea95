package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks cross-field constraints after normalization.
func (c *Config) Validate() error {
	var problems []string

	switch c.Database.Driver {
	case "sqlite":
		if c.Database.SQLitePath == "" {
			problems = append(problems, "database.sqlite_path must be set for the sqlite driver")
		}
	case "postgres":
		if c.Database.PostgresDSN == "" {
			problems = append(problems, "database.postgres_dsn must be set for the postgres driver")
		}
	default:
		problems = append(problems, fmt.Sprintf("database.driver %q is not supported (sqlite, postgres)", c.Database.Driver))
	}

	switch c.Logging.Format {
	case "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format %q is not supported (console, json)", c.Logging.Format))
	}

	if c.EDCB.Enabled && c.EDCB.URL == "" {
		problems = append(problems, "edcb.url must be set when edcb.enabled is true")
	}

	if len(problems) > 0 {
		return errors.New("invalid configuration: " + strings.Join(problems, "; "))
	}
	return nil
}
