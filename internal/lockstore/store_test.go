package lockstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"QuantDeck/internal/model"
)

func TestStore_GetFallsBackToDefault(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "locks.json"), zerolog.Nop())

	assert.Equal(t, model.PresetSMACross, s.Get("AAPL", model.PresetSMACross))
	assert.False(t, s.Locked("AAPL"))
}

func TestStore_SetPersistsAcrossReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "locks.json")

	s := New(path, zerolog.Nop())
	require.NoError(t, s.Set("AAPL", model.PresetRSI))
	require.NoError(t, s.Set("ENB.TO", model.PresetBollinger))

	reloaded := New(path, zerolog.Nop())
	assert.Equal(t, model.PresetRSI, reloaded.Get("AAPL", model.PresetSMACross))
	assert.Equal(t, model.PresetBollinger, reloaded.Get("ENB.TO", model.PresetSMACross))
	assert.True(t, reloaded.Locked("AAPL"))
}

func TestStore_SetRejectsUnknownPreset(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "locks.json"), zerolog.Nop())

	err := s.Set("AAPL", model.Preset("Moon Phase"))
	require.Error(t, err)
	assert.False(t, s.Locked("AAPL"))
}

func TestStore_ClearRemovesLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "locks.json")
	s := New(path, zerolog.Nop())
	require.NoError(t, s.Set("AAPL", model.PresetRSI))

	require.NoError(t, s.Clear("AAPL"))
	assert.False(t, s.Locked("AAPL"))
	require.NoError(t, s.Clear("AAPL"), "clearing an absent lock is a no-op")

	reloaded := New(path, zerolog.Nop())
	assert.False(t, reloaded.Locked("AAPL"))
}

func TestStore_CorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "locks.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	s := New(path, zerolog.Nop())
	assert.Empty(t, s.All())
	require.NoError(t, s.Set("AAPL", model.PresetRSI), "store stays writable after a corrupt load")
}

func TestStore_DropsUnknownPresetsOnLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "locks.json")
	body := `{"locks":{"AAPL":"RSI","GME":"Astrology"}}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	s := New(path, zerolog.Nop())
	assert.True(t, s.Locked("AAPL"))
	assert.False(t, s.Locked("GME"))
}

func TestStore_AllReturnsCopy(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "locks.json"), zerolog.Nop())
	require.NoError(t, s.Set("AAPL", model.PresetRSI))

	all := s.All()
	all["AAPL"] = model.PresetBollinger
	assert.Equal(t, model.PresetRSI, s.Get("AAPL", model.PresetSMACross))
}

func TestStore_CreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "locks.json")
	s := New(path, zerolog.Nop())

	require.NoError(t, s.Set("AAPL", model.PresetRSI))
	_, err := os.Stat(path)
	require.NoError(t, err)
}
