package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaultsWhenFileAbsent(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("KANSO_DB_PATH", "")
	t.Setenv("KANSO_DEMO_MODE", "")
	t.Setenv("KANSO_POLL_INTERVAL_MS", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.DemoMode {
		t.Error("default DemoMode = false, want true")
	}
	if cfg.DBPath != "" {
		t.Errorf("default DBPath = %q, want empty", cfg.DBPath)
	}
	if cfg.PollIntervalMS != 0 {
		t.Errorf("default PollIntervalMS = %d, want 0", cfg.PollIntervalMS)
	}
}

func TestLoadReadsFileAndEnvWins(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	cfgDir := filepath.Join(dir, "kanso")
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		t.Fatal(err)
	}
	content := "db_path: /tmp/from-file.db\ndemo_mode: false\npoll_interval_ms: 250\n"
	if err := os.WriteFile(filepath.Join(cfgDir, "config.yaml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("KANSO_DB_PATH", "/tmp/from-env.db")
	t.Setenv("KANSO_DEMO_MODE", "true")
	t.Setenv("KANSO_POLL_INTERVAL_MS", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBPath != "/tmp/from-env.db" {
		t.Errorf("DBPath = %q, env should win", cfg.DBPath)
	}
	if !cfg.DemoMode {
		t.Error("DemoMode = false, env should win")
	}
	if cfg.PollIntervalMS != 250 {
		t.Errorf("PollIntervalMS = %d, want file value 250", cfg.PollIntervalMS)
	}
}

func TestLoadIgnoresMalformedEnv(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("KANSO_DB_PATH", "")
	t.Setenv("KANSO_DEMO_MODE", "not-a-bool")
	t.Setenv("KANSO_POLL_INTERVAL_MS", "-5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.DemoMode {
		t.Error("malformed KANSO_DEMO_MODE overrode the default")
	}
	if cfg.PollIntervalMS != 0 {
		t.Errorf("negative poll interval accepted: %d", cfg.PollIntervalMS)
	}
}
