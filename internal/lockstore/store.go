// Package lockstore persists per-symbol strategy locks. A locked symbol
// keeps evaluating under its pinned preset no matter what the diagnosis
// recommends.
package lockstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"QuantDeck/internal/model"
)

type fileState struct {
	Locks     map[string]model.Preset `json:"locks"`
	UpdatedAt time.Time               `json:"updated_at"`
}

// Store is a JSON-file backed lock map with concurrency safety. Every
// mutation rewrites the whole file; the map is small enough that atomicity
// beats incremental writes.
type Store struct {
	mu       sync.Mutex
	locks    map[string]model.Preset
	filePath string
	log      zerolog.Logger
}

// New loads the lock file at path, starting from an empty map when the file
// is missing or unreadable. Locks are advisory state; a corrupt file must
// not keep the dashboard from starting.
func New(path string, log zerolog.Logger) *Store {
	s := &Store{
		locks:    make(map[string]model.Preset),
		filePath: path,
		log:      log.With().Str("component", "lockstore").Logger(),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn().Err(err).Str("path", path).Msg("could not read lock file, starting empty")
		}
		return s
	}

	var state fileState
	if err := json.Unmarshal(data, &state); err != nil {
		s.log.Warn().Err(err).Str("path", path).Msg("lock file is corrupt, starting empty")
		return s
	}
	for symbol, preset := range state.Locks {
		if _, ok := model.ParsePreset(string(preset)); !ok {
			s.log.Warn().Str("symbol", symbol).Str("preset", string(preset)).Msg("dropping lock with unknown preset")
			continue
		}
		s.locks[symbol] = preset
	}
	return s
}

// Get returns the locked preset for symbol, or fallback when no lock is set.
func (s *Store) Get(symbol string, fallback model.Preset) model.Preset {
	s.mu.Lock()
	defer s.mu.Unlock()
	if preset, ok := s.locks[symbol]; ok {
		return preset
	}
	return fallback
}

// Locked reports whether symbol has an explicit lock.
func (s *Store) Locked(symbol string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.locks[symbol]
	return ok
}

// Set pins symbol to preset and persists immediately.
func (s *Store) Set(symbol string, preset model.Preset) error {
	if _, ok := model.ParsePreset(string(preset)); !ok {
		return fmt.Errorf("unknown preset %q", preset)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locks[symbol] = preset
	return s.save()
}

// Clear removes the lock for symbol, if any, and persists immediately.
func (s *Store) Clear(symbol string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.locks[symbol]; !ok {
		return nil
	}
	delete(s.locks, symbol)
	return s.save()
}

// All returns a copy of the current lock map.
func (s *Store) All() map[string]model.Preset {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]model.Preset, len(s.locks))
	for symbol, preset := range s.locks {
		out[symbol] = preset
	}
	return out
}

// save must be called with the mutex held.
func (s *Store) save() error {
	state := fileState{Locks: s.locks, UpdatedAt: time.Now()}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(s.filePath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(s.filePath, data, 0644)
}
