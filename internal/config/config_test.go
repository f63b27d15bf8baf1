package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadCreatesDefaultOnFirstRun(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Listen == "" || cfg.RefreshCron == "" {
		t.Errorf("default config not normalized: %+v", cfg)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("config file not created: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("config perms = %o, want 600", perm)
	}
}

func TestLoadPartialConfigFillsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	partial := "listen: \"0.0.0.0:9000\"\nband_name: \"The Regulars\"\n"
	if err := os.WriteFile(path, []byte(partial), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Listen != "0.0.0.0:9000" {
		t.Errorf("listen = %q", cfg.Listen)
	}
	if cfg.BandName != "The Regulars" {
		t.Errorf("band_name = %q", cfg.BandName)
	}
	if cfg.Layout.PixelsPerHour != 60 || cfg.Layout.SnapMinutes != 15 {
		t.Errorf("layout defaults missing: %+v", cfg.Layout)
	}
	if cfg.StatusColors["confirmed"] == "" {
		t.Error("status color defaults missing")
	}
	if cfg.BasicAuth.File == "" {
		t.Error("auth file default missing")
	}
}

func TestNormalizeRejectsBadWindow(t *testing.T) {
	cfg := &Config{Layout: LayoutConfig{DayStartHour: 20, DayEndHour: 8}}
	cfg.Normalize()
	start, end := cfg.VisibleWindow()
	if start >= end {
		t.Errorf("window not repaired: [%d, %d)", start, end)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	cfg := DefaultConfig()
	cfg.Subscriptions = []SubscriptionConfig{{ID: "venue", Name: "Venue", URL: "https://example.com/venue.ics"}}
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded.Subscriptions) != 1 || loaded.Subscriptions[0].ID != "venue" {
		t.Errorf("subscriptions lost in round trip: %+v", loaded.Subscriptions)
	}
}
