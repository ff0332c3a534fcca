package logx

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnsureDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	require.NoError(t, EnsureDir(dir))
	require.NoError(t, EnsureDir(dir), "existing directory is not an error")

	file := filepath.Join(t.TempDir(), "plain")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	require.Error(t, EnsureDir(file), "existing non-directory must surface")
}

func TestStoreAndMean(t *testing.T) {
	l, err := NewEpochLogger(t.TempDir())
	require.NoError(t, err)
	defer l.Close()

	_, ok := l.Mean("episode_return")
	require.False(t, ok)

	l.Store("episode_return", 1, 2, 3)
	avg, ok := l.Mean("episode_return")
	require.True(t, ok)
	require.InDelta(t, 2.0, avg, 1e-12)

	// Mean must not consume.
	avg, ok = l.Mean("episode_return")
	require.True(t, ok)
	require.InDelta(t, 2.0, avg, 1e-12)
}

func TestLogEpochStatsConsumes(t *testing.T) {
	l, err := NewEpochLogger(t.TempDir())
	require.NoError(t, err)
	defer l.Close()

	l.Store("q_vals", 1, 3)
	l.LogEpochStats("q_vals", true)
	_, ok := l.Mean("q_vals")
	require.False(t, ok, "dumping an epoch stat clears its values")
}

func TestDumpWritesProgress(t *testing.T) {
	dir := t.TempDir()
	l, err := NewEpochLogger(dir)
	require.NoError(t, err)

	l.LogTabular("epoch", 1)
	l.Store("episode_return", 4, 6)
	l.LogEpochStats("episode_return", false)
	l.Dump()

	l.LogTabular("epoch", 2)
	l.Store("episode_return", 8)
	l.LogEpochStats("episode_return", false)
	l.Dump()
	require.NoError(t, l.Close())

	raw, err := os.ReadFile(filepath.Join(dir, "progress.txt"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 3, "header plus one row per dump")
	require.Equal(t, "epoch\tepisode_return_avg", lines[0])
	require.Equal(t, "1\t5", lines[1])
	require.Equal(t, "2\t8", lines[2])
}
