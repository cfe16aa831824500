package history

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EgorLis/musicbot/internal/music"
)

func openTemp(t *testing.T, limit int) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "history.db"), limit)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_RecentNewestFirst(t *testing.T) {
	s := openTemp(t, 10)
	base := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

	for i := 1; i <= 3; i++ {
		tr := music.Track{Title: fmt.Sprintf("t%d", i), Duration: time.Duration(i) * time.Minute, HasDuration: true, RequesterID: "u1"}
		require.NoError(t, s.Record("g1", tr, base.Add(time.Duration(i)*time.Minute)))
	}

	got, err := s.Recent("g1", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "t3", got[0].Title)
	assert.Equal(t, 3*time.Minute, got[0].Duration)
	assert.True(t, got[0].HasDuration)
	assert.Equal(t, "u1", got[0].RequesterID)
	assert.True(t, got[0].PlayedAt.Equal(base.Add(3*time.Minute)))
	assert.Equal(t, "t2", got[1].Title)
}

func TestStore_TrimsToLimit(t *testing.T) {
	s := openTemp(t, 3)
	for i := 0; i < 5; i++ {
		require.NoError(t, s.Record("g1", music.Track{Title: fmt.Sprint(i)}, time.Now()))
	}

	got, err := s.Recent("g1", 10)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"4", "3", "2"}, []string{got[0].Title, got[1].Title, got[2].Title})
}

func TestStore_GuildsAreSeparate(t *testing.T) {
	s := openTemp(t, 10)
	require.NoError(t, s.Record("g1", music.Track{Title: "a"}, time.Now()))

	got, err := s.Recent("g2", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	s, err := Open(path, 0)
	require.NoError(t, err)
	require.NoError(t, s.Record("g1", music.Track{Title: "kept"}, time.Now()))
	require.NoError(t, s.Close())

	s, err = Open(path, 0)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Recent("g1", 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "kept", got[0].Title)
}
