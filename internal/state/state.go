// Package state persists the OAuth credential set, the sheet coordinates and
// the alias table as one JSON document, merging it over environment defaults
// at startup.
package state

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/enbi81/attendance-board/internal/attendance"
	"github.com/enbi81/attendance-board/internal/fault"
)

// Credentials is the OAuth token bundle. A set missing any field is treated
// as absent.
type Credentials struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	Expiry       time.Time `json:"expiry"`
}

// Complete reports whether all four fields are present.
func (c *Credentials) Complete() bool {
	return c != nil &&
		c.AccessToken != "" &&
		c.RefreshToken != "" &&
		c.TokenType != "" &&
		!c.Expiry.IsZero()
}

// Coordinates locate the range that is read from the spreadsheet.
type Coordinates struct {
	SpreadsheetID string
	Range         string
}

// Set reports whether both parts are non-empty.
func (c Coordinates) Set() bool {
	return strings.TrimSpace(c.SpreadsheetID) != "" && strings.TrimSpace(c.Range) != ""
}

// ConfigState is the persisted document.
type ConfigState struct {
	Credentials      *Credentials          `json:"credentials,omitempty"`
	SpreadsheetID    string                `json:"spreadsheet_id"`
	SpreadsheetRange string                `json:"spreadsheet_range"`
	Aliases          attendance.AliasTable `json:"aliases"`
}

// Coordinates returns the sheet coordinates held by the state.
func (s ConfigState) Coordinates() Coordinates {
	return Coordinates{SpreadsheetID: s.SpreadsheetID, Range: s.SpreadsheetRange}
}

// Clone returns a deep copy of the state.
func (s ConfigState) Clone() ConfigState {
	out := s
	if s.Credentials != nil {
		creds := *s.Credentials
		out.Credentials = &creds
	}
	out.Aliases = s.Aliases.Clone()
	return out
}

// Merge overlays persisted on defaults. Persisted values win wherever they
// are set; incomplete persisted credentials are ignored.
func Merge(defaults, persisted ConfigState) ConfigState {
	out := defaults.Clone()
	if persisted.Credentials.Complete() {
		creds := *persisted.Credentials
		out.Credentials = &creds
	}
	if persisted.SpreadsheetID != "" {
		out.SpreadsheetID = persisted.SpreadsheetID
	}
	if persisted.SpreadsheetRange != "" {
		out.SpreadsheetRange = persisted.SpreadsheetRange
	}
	for raw, canonical := range persisted.Aliases {
		out.Aliases[raw] = canonical
	}
	if !out.Credentials.Complete() {
		out.Credentials = nil
	}
	return out
}

// Backend is the durable location of the document.
type Backend interface {
	// Load returns the stored document and whether one exists.
	Load(ctx context.Context) (ConfigState, bool, error)
	// Save overwrites the stored document.
	Save(ctx context.Context, state ConfigState) error
	Close() error
}

// Load reads the persisted document and merges it over defaults. On a read
// failure the defaults are returned together with a persistence error.
func Load(ctx context.Context, backend Backend, defaults ConfigState) (ConfigState, error) {
	base := Merge(defaults, ConfigState{})
	if backend == nil {
		return base, nil
	}
	persisted, found, err := backend.Load(ctx)
	if err != nil {
		return base, fault.Persistence("load", err)
	}
	if !found {
		return base, nil
	}
	return Merge(defaults, persisted), nil
}

// Open returns the backend named by kind ("json" or "sqlite") at path.
func Open(kind, path string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", "json":
		return NewFileBackend(path)
	case "sqlite":
		return OpenSQLite(path)
	}
	return nil, fmt.Errorf("state: unknown backend %q", kind)
}

func encode(state ConfigState) ([]byte, error) {
	if state.Aliases == nil {
		state.Aliases = attendance.AliasTable{}
	}
	return json.MarshalIndent(state, "", "  ")
}

func decode(data []byte) (ConfigState, error) {
	var state ConfigState
	if err := json.Unmarshal(data, &state); err != nil {
		return ConfigState{}, fmt.Errorf("state: decode document: %w", err)
	}
	return state, nil
}
