package ics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const fixture = `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//test//EN
BEGIN:VEVENT
UID:single-1
DTSTAMP:20240101T000000Z
DTSTART:20240102T090000Z
DTEND:20240102T100000Z
SUMMARY:Design review
LOCATION:Room 4
END:VEVENT
BEGIN:VEVENT
UID:weekly-1
DTSTAMP:20240101T000000Z
DTSTART:20240101T140000Z
DTEND:20240101T143000Z
RRULE:FREQ=WEEKLY;COUNT=4
EXDATE:20240115T140000Z
SUMMARY:Sync
END:VEVENT
BEGIN:VEVENT
UID:weekly-1
DTSTAMP:20240101T000000Z
RECURRENCE-ID:20240108T140000Z
DTSTART:20240108T160000Z
DTEND:20240108T163000Z
SUMMARY:Sync (moved)
END:VEVENT
BEGIN:VEVENT
UID:broken
DTSTAMP:20240101T000000Z
SUMMARY:no start
END:VEVENT
END:VCALENDAR
`

func expandFixture(t *testing.T) ExpandResult {
	t.Helper()
	parsed, err := ParseICS(Source{ID: "work"}, []byte(fixture))
	if err != nil {
		t.Fatalf("ParseICS: %v", err)
	}
	if len(parsed) != 3 {
		t.Fatalf("parsed %d events, want 3 (broken one skipped)", len(parsed))
	}
	res, err := ExpandOccurrences(parsed, ExpandConfig{
		DisplayLocation: time.UTC,
		RangeStart:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		RangeEnd:        time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("ExpandOccurrences: %v", err)
	}
	return res
}

func TestParseAndExpand(t *testing.T) {
	res := expandFixture(t)

	got := map[string]time.Time{}
	for _, ev := range res.Events {
		got[ev.Key] = ev.Start()
	}
	want := map[string]time.Time{
		"single-1":                      time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC),
		"weekly-1@2024-01-01T14:00:00Z": time.Date(2024, 1, 1, 14, 0, 0, 0, time.UTC),
		"weekly-1@2024-01-08T14:00:00Z": time.Date(2024, 1, 8, 16, 0, 0, 0, time.UTC),
		"weekly-1@2024-01-22T14:00:00Z": time.Date(2024, 1, 22, 14, 0, 0, 0, time.UTC),
	}
	if len(got) != len(want) {
		t.Fatalf("keys = %v, want %v", got, want)
	}
	for key, start := range want {
		if !got[key].Equal(start) {
			t.Errorf("%s start = %v, want %v", key, got[key], start)
		}
	}

	for _, ev := range res.Events {
		if ev.Key == "single-1" {
			v := ev.Values()
			if v.Summary != "Design review" || v.Location != "Room 4" || v.SourceID != "work" {
				t.Errorf("single-1 fields = %+v", v)
			}
			if !ev.Recurrence.IsZero() {
				t.Error("standalone event has a recurrence id")
			}
		}
	}
}

func TestExpandRejectsInvertedRange(t *testing.T) {
	_, err := ExpandOccurrences(nil, ExpandConfig{
		RangeStart: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		RangeEnd:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	if err == nil {
		t.Error("inverted range accepted")
	}
}

func TestEncodeMovedInstance(t *testing.T) {
	res := expandFixture(t)

	for _, ev := range res.Events {
		if ev.Key != "weekly-1@2024-01-22T14:00:00Z" {
			continue
		}
		v := ev.Values()
		v.Start = v.Start.Add(45 * time.Minute)
		v.End = v.End.Add(45 * time.Minute)
		ev.Update(v)
	}

	out := Encode(res.Events, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	text := string(out)
	for _, want := range []string{
		"PRODID:" + ProductID,
		"METHOD:PUBLISH",
		"RECURRENCE-ID:20240122T140000Z",
		"DTSTART:20240122T144500Z",
		"LOCATION:Room 4",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("export missing %q:\n%s", want, text)
		}
	}

	back, err := ParseICS(Source{ID: "export"}, out)
	if err != nil {
		t.Fatalf("re-parse export: %v", err)
	}
	if len(back) != len(res.Events) {
		t.Errorf("re-parsed %d events, want %d", len(back), len(res.Events))
	}
}

func TestFetchLocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cal.ics")
	if err := os.WriteFile(path, []byte(fixture), 0o600); err != nil {
		t.Fatal(err)
	}
	f := NewFetcher(t.TempDir(), nil)

	for _, u := range []string{path, "file://" + path} {
		res, err := f.FetchOne(context.Background(), Source{ID: "local", URL: u})
		if err != nil {
			t.Fatalf("FetchOne(%s): %v", u, err)
		}
		if string(res.Body) != fixture {
			t.Errorf("FetchOne(%s) body mismatch", u)
		}
	}
}

func TestFetchHTTPCache(t *testing.T) {
	fail := false
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if fail {
			http.Error(w, "down", http.StatusBadGateway)
			return
		}
		if r.Header.Get("If-None-Match") == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		_, _ = w.Write([]byte(fixture))
	}))
	defer srv.Close()

	f := NewFetcher(t.TempDir(), srv.Client())
	src := Source{ID: "remote", URL: srv.URL + "/private/token.ics"}
	ctx := context.Background()

	first, err := f.FetchOne(ctx, src)
	if err != nil || first.FromCache {
		t.Fatalf("first fetch = %+v, %v", first.FromCache, err)
	}
	second, err := f.FetchOne(ctx, src)
	if err != nil || !second.FromCache || string(second.Body) != fixture {
		t.Fatalf("conditional fetch: fromCache=%v err=%v", second.FromCache, err)
	}

	fail = true
	third, err := f.FetchOne(ctx, src)
	if err != nil || !third.FromCache {
		t.Fatalf("fallback fetch: fromCache=%v err=%v", third.FromCache, err)
	}
	if hits != 3 {
		t.Errorf("server hits = %d, want 3", hits)
	}

	results, errs := f.FetchAll(ctx, []Source{src, {ID: "empty"}})
	if len(results) != 1 || len(errs) != 1 {
		t.Errorf("FetchAll = %d results, %d errors; want 1/1", len(results), len(errs))
	}
}

func TestRedactURL(t *testing.T) {
	got := redactURL("https://calendar.example.com/private/abc/basic.ics?token=1")
	if got != "https://calendar.example.com/...(redacted)" {
		t.Errorf("redactURL = %q", got)
	}
}
