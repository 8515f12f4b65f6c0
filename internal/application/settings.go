package application

import (
	"sync"

	"github.com/enbi81/attendance-board/internal/attendance"
	"github.com/enbi81/attendance-board/internal/state"
)

// StateSaver persists a snapshot of the document without blocking.
type StateSaver interface {
	Save(state state.ConfigState)
}

// Settings is the in-memory copy of the persisted document shared by all
// requests. Every mutation is followed by a save.
type Settings struct {
	mu    sync.RWMutex
	doc   state.ConfigState
	saver StateSaver
}

// NewSettings wraps the document loaded at startup.
func NewSettings(doc state.ConfigState, saver StateSaver) *Settings {
	doc = doc.Clone()
	return &Settings{doc: doc, saver: saver}
}

// Snapshot returns a deep copy of the document.
func (s *Settings) Snapshot() state.ConfigState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.Clone()
}

// Coordinates returns the current sheet coordinates.
func (s *Settings) Coordinates() state.Coordinates {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.Coordinates()
}

// Aliases returns a copy of the alias table.
func (s *Settings) Aliases() attendance.AliasTable {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.Aliases.Clone()
}

// Credentials returns the persisted credential set, if any.
func (s *Settings) Credentials() *state.Credentials {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.doc.Credentials == nil {
		return nil
	}
	creds := *s.doc.Credentials
	return &creds
}

// SetCredentials records a newly issued or refreshed credential set.
func (s *Settings) SetCredentials(creds state.Credentials) {
	s.update(func(doc *state.ConfigState) {
		doc.Credentials = &creds
	})
}

// SetSpreadsheetID replaces the spreadsheet id.
func (s *Settings) SetSpreadsheetID(id string) {
	s.update(func(doc *state.ConfigState) { doc.SpreadsheetID = id })
}

// SetSpreadsheetRange replaces the range expression.
func (s *Settings) SetSpreadsheetRange(rangeExpr string) {
	s.update(func(doc *state.ConfigState) { doc.SpreadsheetRange = rangeExpr })
}

// PutAlias inserts or replaces one alias entry.
func (s *Settings) PutAlias(raw, canonical string) {
	s.update(func(doc *state.ConfigState) {
		if doc.Aliases == nil {
			doc.Aliases = attendance.AliasTable{}
		}
		doc.Aliases[raw] = canonical
	})
}

func (s *Settings) update(mutate func(*state.ConfigState)) {
	s.mu.Lock()
	mutate(&s.doc)
	snapshot := s.doc.Clone()
	s.mu.Unlock()

	if s.saver != nil {
		s.saver.Save(snapshot)
	}
}
