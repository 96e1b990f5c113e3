package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"dragcal/internal/config"
)

func writeFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	start := time.Now().UTC().Truncate(time.Hour).Add(24 * time.Hour)
	feed := strings.Join([]string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//test//EN",
		"BEGIN:VEVENT",
		"UID:tomorrow",
		"DTSTAMP:20240101T000000Z",
		"DTSTART:" + start.Format("20060102T150405Z"),
		"DTEND:" + start.Add(time.Hour).Format("20060102T150405Z"),
		"SUMMARY:Tomorrow",
		"END:VEVENT",
		"END:VCALENDAR",
		"",
	}, "\r\n")
	feedPath := filepath.Join(dir, "feed.ics")
	if err := os.WriteFile(feedPath, []byte(feed), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg := config.DefaultConfig()
	cfg.CacheDir = filepath.Join(dir, "cache")
	cfg.ICS = []config.ICSConfig{{ID: "local", URL: feedPath}}
	cfgPath := filepath.Join(dir, "config.yaml")
	if err := cfg.Save(cfgPath); err != nil {
		t.Fatal(err)
	}
	return cfgPath
}

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestEventsJSON(t *testing.T) {
	cfgPath := writeFixture(t)

	out, err := runRoot(t, "events", "--config", cfgPath)
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	var lines []eventLine
	if err := json.Unmarshal([]byte(out), &lines); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if len(lines) != 1 || lines[0].Key != "tomorrow" {
		t.Errorf("events = %+v", lines)
	}
}

func TestEventsICS(t *testing.T) {
	cfgPath := writeFixture(t)

	out, err := runRoot(t, "events", "--config", cfgPath, "--format", "ics")
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if !strings.Contains(out, "UID:tomorrow") {
		t.Errorf("ics output missing event:\n%s", out)
	}
}

func TestEventsRejectsFormat(t *testing.T) {
	if _, err := runRoot(t, "events", "--config", writeFixture(t), "--format", "xml"); err == nil {
		t.Error("unknown format accepted")
	}
}
