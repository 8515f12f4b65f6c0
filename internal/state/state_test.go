package state

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/enbi81/attendance-board/internal/attendance"
	"github.com/enbi81/attendance-board/internal/fault"
)

func completeCredentials() *Credentials {
	return &Credentials{
		AccessToken:  "access",
		RefreshToken: "refresh",
		TokenType:    "Bearer",
		Expiry:       time.Date(2024, 6, 6, 10, 0, 0, 0, time.UTC),
	}
}

func TestCredentialsComplete(t *testing.T) {
	if (*Credentials)(nil).Complete() {
		t.Fatalf("nil credentials must be incomplete")
	}
	creds := completeCredentials()
	if !creds.Complete() {
		t.Fatalf("expected complete credentials")
	}
	creds.RefreshToken = ""
	if creds.Complete() {
		t.Fatalf("credentials without refresh token must be incomplete")
	}
}

func TestMerge(t *testing.T) {
	defaults := ConfigState{
		SpreadsheetID:    "env-sheet",
		SpreadsheetRange: "Sheet1!A1:E10",
		Aliases:          attendance.AliasTable{"a": "env"},
	}

	t.Run("persisted values win", func(t *testing.T) {
		merged := Merge(defaults, ConfigState{
			Credentials:   completeCredentials(),
			SpreadsheetID: "saved-sheet",
			Aliases:       attendance.AliasTable{"a": "saved", "b": "B"},
		})
		if merged.SpreadsheetID != "saved-sheet" {
			t.Fatalf("expected persisted spreadsheet id, got %q", merged.SpreadsheetID)
		}
		if merged.SpreadsheetRange != "Sheet1!A1:E10" {
			t.Fatalf("expected default range to survive, got %q", merged.SpreadsheetRange)
		}
		if merged.Aliases["a"] != "saved" || merged.Aliases["b"] != "B" {
			t.Fatalf("unexpected aliases %v", merged.Aliases)
		}
		if !merged.Credentials.Complete() {
			t.Fatalf("expected credentials to be carried over")
		}
	})

	t.Run("partial credentials are dropped", func(t *testing.T) {
		partial := completeCredentials()
		partial.AccessToken = ""
		merged := Merge(defaults, ConfigState{Credentials: partial})
		if merged.Credentials != nil {
			t.Fatalf("expected partial credentials to be treated as absent")
		}
	})

	t.Run("does not alias defaults", func(t *testing.T) {
		merged := Merge(defaults, ConfigState{})
		merged.Aliases["c"] = "C"
		if _, ok := defaults.Aliases["c"]; ok {
			t.Fatalf("merge must not mutate the defaults table")
		}
	})
}

func TestLoad(t *testing.T) {
	ctx := context.Background()
	defaults := ConfigState{SpreadsheetID: "env-sheet"}

	t.Run("returns defaults when nothing persisted", func(t *testing.T) {
		backend, err := NewFileBackend(filepath.Join(t.TempDir(), "state.json"))
		if err != nil {
			t.Fatalf("NewFileBackend: %v", err)
		}
		got, err := Load(ctx, backend, defaults)
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}
		if got.SpreadsheetID != "env-sheet" || got.Aliases == nil {
			t.Fatalf("unexpected state %+v", got)
		}
	})

	t.Run("reports corrupt documents as persistence errors", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "state.json")
		if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		backend, _ := NewFileBackend(path)
		got, err := Load(ctx, backend, defaults)
		if !errors.Is(err, fault.ErrPersistence) {
			t.Fatalf("expected persistence error, got %v", err)
		}
		if got.SpreadsheetID != "env-sheet" {
			t.Fatalf("expected defaults on failure, got %+v", got)
		}
	})
}

func TestBackendsRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	backends := map[string]func(t *testing.T) Backend{
		"json": func(t *testing.T) Backend {
			b, err := Open("json", filepath.Join(dir, "nested", "state.json"))
			if err != nil {
				t.Fatalf("open json: %v", err)
			}
			return b
		},
		"sqlite": func(t *testing.T) Backend {
			b, err := Open("sqlite", filepath.Join(dir, "state.db"))
			if err != nil {
				t.Fatalf("open sqlite: %v", err)
			}
			return b
		},
	}

	for name, open := range backends {
		t.Run(name, func(t *testing.T) {
			backend := open(t)
			defer backend.Close()

			if _, found, err := backend.Load(ctx); err != nil || found {
				t.Fatalf("expected empty backend, found=%v err=%v", found, err)
			}

			want := ConfigState{
				Credentials:      completeCredentials(),
				SpreadsheetID:    "sheet",
				SpreadsheetRange: "A1:C3",
				Aliases:          attendance.AliasTable{"Jon": "John"},
			}
			if err := backend.Save(ctx, want); err != nil {
				t.Fatalf("Save: %v", err)
			}
			want.SpreadsheetRange = "A1:D4"
			if err := backend.Save(ctx, want); err != nil {
				t.Fatalf("second Save: %v", err)
			}

			got, found, err := backend.Load(ctx)
			if err != nil || !found {
				t.Fatalf("Load: found=%v err=%v", found, err)
			}
			if got.SpreadsheetRange != "A1:D4" || got.Aliases["Jon"] != "John" {
				t.Fatalf("unexpected document %+v", got)
			}
			if !got.Credentials.Expiry.Equal(want.Credentials.Expiry) {
				t.Fatalf("expiry mismatch: %v", got.Credentials.Expiry)
			}
		})
	}
}

func TestOpenUnknownBackend(t *testing.T) {
	if _, err := Open("redis", "x"); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}

type failingBackend struct{ calls int }

func (f *failingBackend) Load(context.Context) (ConfigState, bool, error) {
	return ConfigState{}, false, nil
}

func (f *failingBackend) Save(context.Context, ConfigState) error {
	f.calls++
	return errors.New("disk full")
}

func (f *failingBackend) Close() error { return nil }

func TestPersisterWritesLatestSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	backend, _ := NewFileBackend(path)
	persister := NewPersister(backend, nil)

	for _, id := range []string{"one", "two", "three"} {
		persister.Save(ConfigState{SpreadsheetID: id})
	}
	persister.Close()

	got, found, err := backend.Load(context.Background())
	if err != nil || !found {
		t.Fatalf("Load: found=%v err=%v", found, err)
	}
	if got.SpreadsheetID != "three" {
		t.Fatalf("expected latest snapshot, got %q", got.SpreadsheetID)
	}
	if persister.Saved() < 1 || persister.Failures() != 0 {
		t.Fatalf("unexpected counters saved=%d failures=%d", persister.Saved(), persister.Failures())
	}
}

func TestPersisterSwallowsFailures(t *testing.T) {
	backend := &failingBackend{}
	persister := NewPersister(backend, nil)
	persister.Save(ConfigState{SpreadsheetID: "x"})
	persister.Close()

	if persister.Failures() != 1 {
		t.Fatalf("expected one recorded failure, got %d", persister.Failures())
	}
	// Saving after close is a logged no-op.
	persister.Save(ConfigState{})
	persister.Close()
}
