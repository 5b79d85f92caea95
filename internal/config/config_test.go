package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mytvlog/internal/config"
)

func TestDefaultIsValidAfterNormalize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(""), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("unexpected resolution: %q exists=%v", resolved, exists)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Fatalf("default driver = %q", cfg.Database.Driver)
	}
	if cfg.Database.SQLitePath == "" || !strings.HasSuffix(cfg.Database.SQLitePath, "tv.db") {
		t.Fatalf("sqlite path not defaulted: %q", cfg.Database.SQLitePath)
	}
}

func TestLoadParsesSections(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
api_bind = "127.0.0.1:0"

[database]
driver = "postgres"
postgres_dsn = "postgres://localhost/mytvlog"

[smb]
server = "nas"
username = "rec"
password = "secret"

[logging]
format = "json"
level = "debug"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.Driver != "postgres" {
		t.Fatalf("driver = %q", cfg.Database.Driver)
	}
	if cfg.SMB.Server != "nas" || cfg.SMB.Port != 445 {
		t.Fatalf("smb not parsed: %+v", cfg.SMB)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("logging not parsed: %+v", cfg.Logging)
	}
}

func TestValidateRejectsUnknownDriver(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("[database]\ndriver = \"oracle\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestValidateRequiresPostgresDSN(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("[database]\ndriver = \"postgres\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected error when postgres_dsn is missing")
	}
}
