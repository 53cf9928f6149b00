package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_FirstRunCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "config.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Listen != "127.0.0.1:8080" {
		t.Errorf("Listen = %q", cfg.Listen)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("default config not written: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("config perms = %o, want 600", perm)
	}
}

func TestLoad_ExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "listen: \"0.0.0.0:9000\"\ncatalog: \"/data/events.json\"\nrefresh: \"*/30 * * * *\"\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Listen != "0.0.0.0:9000" {
		t.Errorf("Listen = %q", cfg.Listen)
	}
	if cfg.Catalog != "/data/events.json" {
		t.Errorf("Catalog = %q", cfg.Catalog)
	}
	if cfg.RefreshCron != "*/30 * * * *" {
		t.Errorf("RefreshCron = %q", cfg.RefreshCron)
	}
	// Unset fields pick up defaults.
	if cfg.CacheDir == "" {
		t.Error("CacheDir not defaulted")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("listen: \"127.0.0.1:8080\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("VFESTT_LISTEN", "127.0.0.1:7777")
	t.Setenv("VFESTT_SHARE_BASE_URL", "https://share.example.com/")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Listen != "127.0.0.1:7777" {
		t.Errorf("Listen = %q, env override lost", cfg.Listen)
	}
	if cfg.ShareBaseURL != "https://share.example.com/" {
		t.Errorf("ShareBaseURL = %q, env override lost", cfg.ShareBaseURL)
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	want := &Config{
		Listen:      "127.0.0.1:8081",
		Catalog:     "https://example.com/events.json",
		RefreshCron: "0 * * * *",
		BasicAuth:   &BasicAuthConfig{Username: "vfes", Password: "secret"},
	}
	if err := want.Save(path); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if got.Listen != want.Listen || got.Catalog != want.Catalog || got.RefreshCron != want.RefreshCron {
		t.Errorf("round trip = %+v, want %+v", got, want)
	}
	if got.BasicAuth == nil || got.BasicAuth.Username != "vfes" {
		t.Errorf("BasicAuth round trip = %+v", got.BasicAuth)
	}
}
