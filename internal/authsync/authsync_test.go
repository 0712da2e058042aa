package authsync

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pythonstrup/openclaw-docker/internal/store"
)

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func testConfig(t *testing.T) Config {
	t.Helper()
	dir := t.TempDir()
	return Config{
		SourcePath: filepath.Join(dir, "auth.json"),
		StorePath:  filepath.Join(dir, "auth-profiles.json"),
	}
}

func writeSource(t *testing.T, cfg Config, body string) {
	t.Helper()
	if err := os.WriteFile(cfg.SourcePath, []byte(body), 0600); err != nil {
		t.Fatal(err)
	}
}

func TestSyncOnce_PublishesProfile(t *testing.T) {
	cfg := testConfig(t)
	writeSource(t, cfg, `{
		"tokens": {"access_token": "acc-1", "refresh_token": "ref-1", "account_id": "acct-9"},
		"last_refresh": "2025-06-01T11:30:00Z"
	}`)

	changed, err := SyncOnce(cfg, now)
	if err != nil {
		t.Fatalf("SyncOnce: %v", err)
	}
	if !changed {
		t.Error("first sync reported no change")
	}

	st := store.Load(cfg.StorePath, AuthStore{})
	profile, ok := st.Profiles[DefaultProfileID]
	if !ok {
		t.Fatalf("store missing profile %q: %+v", DefaultProfileID, st)
	}
	if st.Version != 1 {
		t.Errorf("version = %d, want 1", st.Version)
	}
	want := AuthProfile{
		Type:     "oauth",
		Provider: "anthropic",
		Access:   "acc-1",
		Refresh:  "ref-1",
		Expires:  time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC).UnixMilli(),
		Account:  "acct-9",
	}
	if profile != want {
		t.Errorf("profile = %+v, want %+v", profile, want)
	}
}

func TestSyncOnce_Idempotent(t *testing.T) {
	cfg := testConfig(t)
	writeSource(t, cfg, `{
		"tokens": {"access_token": "acc", "refresh_token": "ref"},
		"last_refresh": "2025-06-01T11:00:00Z"
	}`)

	if changed, err := SyncOnce(cfg, now); err != nil || !changed {
		t.Fatalf("first sync = (%v, %v), want (true, nil)", changed, err)
	}
	before, err := os.ReadFile(cfg.StorePath)
	if err != nil {
		t.Fatal(err)
	}

	// Unchanged source, later wall clock: the stored expiry derives
	// from last_refresh, so nothing should be rewritten.
	if changed, err := SyncOnce(cfg, now.Add(time.Minute)); err != nil || changed {
		t.Fatalf("second sync = (%v, %v), want (false, nil)", changed, err)
	}
	after, err := os.ReadFile(cfg.StorePath)
	if err != nil {
		t.Fatal(err)
	}
	if string(before) != string(after) {
		t.Error("store contents changed on idempotent re-sync")
	}
}

func TestSyncOnce_BadLastRefreshFallsBackToNow(t *testing.T) {
	cfg := testConfig(t)
	writeSource(t, cfg, `{
		"tokens": {"access_token": "acc", "refresh_token": "ref"},
		"last_refresh": "yesterday-ish"
	}`)

	if _, err := SyncOnce(cfg, now); err != nil {
		t.Fatalf("SyncOnce: %v", err)
	}

	st := store.Load(cfg.StorePath, AuthStore{})
	if got, want := st.Profiles[DefaultProfileID].Expires, now.Add(time.Hour).UnixMilli(); got != want {
		t.Errorf("expires = %d, want now+1h = %d", got, want)
	}
}

func TestSyncOnce_SourceErrors(t *testing.T) {
	tests := []struct {
		name   string
		body   string // "" means no file at all
		want   error
	}{
		{"missing_file", "", ErrSourceUnreadable},
		{"not_json", "not json at all", ErrSourceInvalid},
		{"not_an_object", `[1,2,3]`, ErrSourceInvalid},
		{"no_tokens", `{"last_refresh": "2025-06-01T11:00:00Z"}`, ErrSourceInvalid},
		{"blank_access", `{"tokens": {"access_token": " ", "refresh_token": "ref"}}`, ErrSourceInvalid},
		{"missing_refresh", `{"tokens": {"access_token": "acc"}}`, ErrSourceInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			if tt.body != "" {
				writeSource(t, cfg, tt.body)
			}

			changed, err := SyncOnce(cfg, now)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
			if changed {
				t.Error("store written on skipped cycle")
			}
			if _, statErr := os.Stat(cfg.StorePath); statErr == nil {
				t.Error("store file created on skipped cycle")
			}
		})
	}
}

func TestSyncOnce_PreservesStoreVersionAndOtherProfiles(t *testing.T) {
	cfg := testConfig(t)
	existing := AuthStore{
		Version: 7,
		Profiles: map[string]AuthProfile{
			"other:slot": {Type: "oauth", Provider: "other", Access: "x", Refresh: "y"},
		},
	}
	if err := store.Save(cfg.StorePath, existing); err != nil {
		t.Fatal(err)
	}
	writeSource(t, cfg, `{"tokens": {"access_token": "acc", "refresh_token": "ref"}}`)

	if _, err := SyncOnce(cfg, now); err != nil {
		t.Fatalf("SyncOnce: %v", err)
	}

	st := store.Load(cfg.StorePath, AuthStore{})
	if st.Version != 7 {
		t.Errorf("version = %d, want preserved 7", st.Version)
	}
	if _, ok := st.Profiles["other:slot"]; !ok {
		t.Error("unrelated profile dropped by sync")
	}
	if _, ok := st.Profiles[DefaultProfileID]; !ok {
		t.Error("synced profile missing")
	}
}

func TestSyncOnce_RepublishesOnTokenChange(t *testing.T) {
	cfg := testConfig(t)
	writeSource(t, cfg, `{"tokens": {"access_token": "acc-1", "refresh_token": "ref"}}`)
	if _, err := SyncOnce(cfg, now); err != nil {
		t.Fatal(err)
	}

	writeSource(t, cfg, `{"tokens": {"access_token": "acc-2", "refresh_token": "ref"}}`)
	changed, err := SyncOnce(cfg, now)
	if err != nil {
		t.Fatalf("SyncOnce: %v", err)
	}
	if !changed {
		t.Error("token change not republished")
	}

	st := store.Load(cfg.StorePath, AuthStore{})
	if got := st.Profiles[DefaultProfileID].Access; got != "acc-2" {
		t.Errorf("access = %q, want acc-2", got)
	}
}

func TestSyncer_RunSyncsAndStops(t *testing.T) {
	cfg := testConfig(t)
	cfg.PollInterval = 20 * time.Millisecond
	cfg.Debounce = 5 * time.Millisecond
	writeSource(t, cfg, `{"tokens": {"access_token": "acc", "refresh_token": "ref"}}`)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewSyncer(cfg).Run(ctx)
		close(done)
	}()

	waitFor(t, func() bool {
		st := store.Load(cfg.StorePath, AuthStore{})
		return st.Profiles[DefaultProfileID].Access == "acc"
	})

	// A source update must be picked up by a later cycle.
	writeSource(t, cfg, `{"tokens": {"access_token": "acc-next", "refresh_token": "ref"}}`)
	waitFor(t, func() bool {
		st := store.Load(cfg.StorePath, AuthStore{})
		return st.Profiles[DefaultProfileID].Access == "acc-next"
	})

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("syncer did not stop on cancellation")
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}
