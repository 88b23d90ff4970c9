package prefs

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datascope/backend/internal/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "prefs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestGetReturnsDefaultsWhenEmpty(t *testing.T) {
	s := openTestStore(t)

	p, err := s.Get()
	require.NoError(t, err)
	assert.Equal(t, models.DefaultPreferences(), p)
	assert.Equal(t, "dark", p.Theme)
}

func TestPutGetRoundTrip(t *testing.T) {
	s := openTestStore(t)

	p := models.DefaultPreferences()
	p.Theme = "light"
	p.FontSize = 16
	p.ShowSchema = false
	p.RecentsLimit = 5
	require.NoError(t, s.Put(p))

	got, err := s.Get()
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestPutReplacesWholesale(t *testing.T) {
	s := openTestStore(t)

	p := models.DefaultPreferences()
	p.Theme = "light"
	require.NoError(t, s.Put(p))

	p.Theme = "dark"
	p.WordWrap = true
	require.NoError(t, s.Put(p))

	got, err := s.Get()
	require.NoError(t, err)
	assert.Equal(t, "dark", got.Theme)
	assert.True(t, got.WordWrap)
}

func TestCorruptRowFallsBackToDefaults(t *testing.T) {
	s := openTestStore(t)

	_, err := s.db.Exec(`INSERT INTO preferences (key, value) VALUES (?, ?)`, prefsKey, "{not json")
	require.NoError(t, err)

	p, err := s.Get()
	require.NoError(t, err)
	assert.Equal(t, models.DefaultPreferences(), p)
}

func TestPreferencesSurviveReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.db")

	s, err := Open(path)
	require.NoError(t, err)
	p := models.DefaultPreferences()
	p.FontSize = 18
	require.NoError(t, s.Put(p))
	require.NoError(t, s.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()
	got, err := s2.Get()
	require.NoError(t, err)
	assert.Equal(t, 18, got.FontSize)
}
