package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("writing config fixture: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
remote:
  token: test-token
  base_url: http://localhost:9999/v1
store:
  path: /tmp/test.db
  retention_days: 90
wallet:
  fixture_path: fixtures/wallet.yaml
  window_days: 14
sync:
  categorize_incoming: true
  auto_import: true
  apply_rules: true
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Remote.Token != "test-token" {
		t.Errorf("Remote.Token = %q, want %q", cfg.Remote.Token, "test-token")
	}
	if cfg.Store.RetentionDays != 90 {
		t.Errorf("Store.RetentionDays = %d, want 90", cfg.Store.RetentionDays)
	}
	if cfg.Wallet.WindowDays != 14 {
		t.Errorf("Wallet.WindowDays = %d, want 14", cfg.Wallet.WindowDays)
	}
	if !cfg.Sync.AutoImport || !cfg.Sync.ApplyRules {
		t.Errorf("Sync toggles not loaded: %+v", cfg.Sync)
	}
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "remote:\n  token: t\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Wallet.WindowDays != 30 {
		t.Errorf("default Wallet.WindowDays = %d, want 30", cfg.Wallet.WindowDays)
	}
	if cfg.Daemon.IntervalMinutes != 60 {
		t.Errorf("default Daemon.IntervalMinutes = %d, want 60", cfg.Daemon.IntervalMinutes)
	}
	if !cfg.Sync.SkipDuplicates {
		t.Error("default Sync.SkipDuplicates should be true")
	}
	if cfg.Remote.BaseURL == "" {
		t.Error("default Remote.BaseURL should be set")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Error("Load() should fail for a missing file")
	}
}
