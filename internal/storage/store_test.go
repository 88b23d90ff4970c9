package storage

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *LocalStore {
	t.Helper()
	s, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestSaveAndGet(t *testing.T) {
	s := newTestStore(t)

	info, err := s.Save("data.jsonl", strings.NewReader("{\"a\":1}\n"))
	require.NoError(t, err)
	assert.NotEmpty(t, info.ID)
	assert.Equal(t, "data.jsonl", info.Name)
	assert.Equal(t, int64(8), info.Size)

	got, err := s.Get(info.ID)
	require.NoError(t, err)
	assert.Equal(t, info, got)

	path, err := s.GetFilePath(info.ID)
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{\"a\":1}\n", string(data))
}

func TestGetMissing(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Get("nope")
	assert.Error(t, err)
	_, err = s.GetFilePath("nope")
	assert.Error(t, err)
}

func TestListMostRecentFirst(t *testing.T) {
	s := newTestStore(t)

	var ids []string
	for _, name := range []string{"a.json", "b.json", "c.json"} {
		info, err := s.SaveBytes(name, []byte("{}"))
		require.NoError(t, err)
		ids = append(ids, info.ID)
	}

	list, err := s.List(2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	// Timestamps may collide at millisecond resolution, so only check the
	// limit and membership.
	for _, info := range list {
		assert.Contains(t, ids, info.ID)
	}
}

func TestDeleteRemovesFile(t *testing.T) {
	s := newTestStore(t)

	info, err := s.SaveBytes("gone.csv", []byte("a,b\n1,2\n"))
	require.NoError(t, err)
	path, err := s.GetFilePath(info.ID)
	require.NoError(t, err)

	require.NoError(t, s.Delete(info.ID))
	_, err = s.Get(info.ID)
	assert.Error(t, err)
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	assert.Error(t, s.Delete(info.ID))
}

func TestRename(t *testing.T) {
	s := newTestStore(t)

	info, err := s.SaveBytes("old.json", []byte("{}"))
	require.NoError(t, err)

	renamed, err := s.Rename(info.ID, "new.json")
	require.NoError(t, err)
	assert.Equal(t, "new.json", renamed.Name)

	got, err := s.Get(info.ID)
	require.NoError(t, err)
	assert.Equal(t, "new.json", got.Name)

	_, err = s.Rename("missing", "x")
	assert.Error(t, err)
}
