package testsupport

import (
	"path/filepath"
	"testing"

	"mytvlog/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.APIBind = "127.0.0.1:0"
	cfg.Database.SQLitePath = filepath.Join(base, "data", "tv.db")
	cfg.SMB.Server = "nas"
	cfg.SMB.Username = "test"
	cfg.SMB.Password = "test"

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithDriver selects the metadata store backend on the test config.
func WithDriver(driver string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Database.Driver = driver
	}
}

// WithEDCB points the recorder feed at the given URL and enables it.
func WithEDCB(url string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.EDCB.Enabled = true
		cfg.EDCB.URL = url
	}
}
