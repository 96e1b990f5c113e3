package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadCreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Listen != defaultListen || cfg.RefreshCron != defaultRefresh {
		t.Errorf("defaults not applied: %+v", cfg)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("config not written: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("perm = %o, want 600", perm)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoadNormalizesPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `timezone: Europe/Berlin
week_start: friday
ics:
  - id: work
    url: https://example.com/work.ics
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Timezone != "Europe/Berlin" {
		t.Errorf("Timezone = %q", cfg.Timezone)
	}
	if cfg.WeekStart != "monday" {
		t.Errorf("WeekStart = %q, want monday", cfg.WeekStart)
	}
	if cfg.DayStart != "08:00" || cfg.DayEnd != "20:00" {
		t.Errorf("day bounds = %s-%s", cfg.DayStart, cfg.DayEnd)
	}
	if len(cfg.ICS) != 1 || cfg.ICS[0].ID != "work" {
		t.Errorf("ICS = %+v", cfg.ICS)
	}
	if cfg.Location().String() != "Europe/Berlin" {
		t.Errorf("Location = %v", cfg.Location())
	}
}

func TestLoadRejectsBrokenYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("listen: [unterminated"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("broken yaml accepted")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	cfg.BasicAuth = &BasicAuthConfig{Username: "admin", Password: "secret"}
	cfg.ICS = append(cfg.ICS, ICSConfig{ID: "home", URL: "file:///tmp/home.ics"})

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.BasicAuth == nil || got.BasicAuth.Username != "admin" {
		t.Errorf("BasicAuth = %+v", got.BasicAuth)
	}
	if len(got.ICS) != 1 || got.ICS[0].URL != "file:///tmp/home.ics" {
		t.Errorf("ICS = %+v", got.ICS)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"bad timezone", func(c *Config) { c.Timezone = "Mars/Olympus" }, "timezone"},
		{"bad cron", func(c *Config) { c.RefreshCron = "every minute" }, "refresh"},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }, "log_level"},
		{"bad clock", func(c *Config) { c.DayStart = "8am" }, "day_start"},
		{"inverted day", func(c *Config) { c.DayStart, c.DayEnd = "18:00", "09:00" }, "not before"},
		{"missing url", func(c *Config) { c.ICS = []ICSConfig{{ID: "x"}} }, "no url"},
		{"duplicate id", func(c *Config) {
			c.ICS = []ICSConfig{{ID: "x", URL: "a.ics"}, {ID: "x", URL: "b.ics"}}
		}, "duplicate"},
		{"half auth", func(c *Config) { c.BasicAuth = &BasicAuthConfig{Username: "u"} }, "basic_auth"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}
