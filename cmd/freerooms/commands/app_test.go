package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freerooms/internal/cache"
	"freerooms/internal/config"
	"freerooms/internal/rooms"
)

func writeConfig(t *testing.T, cfg *config.Config) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, cfg.Save(path))
	return path
}

func resetFlags(t *testing.T) {
	t.Helper()
	configPath, listenAddr, port = "", "", 0
	t.Cleanup(func() { configPath, listenAddr, port = "", "", 0 })
}

func TestLoadConfigAppliesPortOverride(t *testing.T) {
	resetFlags(t)
	cfg := config.DefaultConfig()
	cfg.Listen = "0.0.0.0:8080"
	configPath = writeConfig(t, cfg)
	port = 7878

	got, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:7878", got.Listen)
}

func TestLoadConfigListenFlagWins(t *testing.T) {
	resetFlags(t)
	configPath = writeConfig(t, config.DefaultConfig())
	listenAddr = ":9000"

	got, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":9000", got.Listen)
}

func TestNewAppBackends(t *testing.T) {
	for _, backend := range []string{config.BackendFile, config.BackendMemory, config.BackendSQLite} {
		t.Run(backend, func(t *testing.T) {
			dir := t.TempDir()
			cfg := config.DefaultConfig()
			cfg.Cache.Backend = backend
			cfg.Cache.Dir = filepath.Join(dir, "cache")
			cfg.Cache.SQLitePath = filepath.Join(dir, "db", "freerooms.db")

			a, err := newApp(context.Background(), cfg)
			require.NoError(t, err)
			defer a.Close()

			require.NoError(t, a.initCaches())
			require.NoError(t, a.resources.Put(rooms.FetchableIDs()[0], "BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n"))
			_, ok := a.resources.Get(rooms.FetchableIDs()[0])
			assert.True(t, ok)
			_, ok = a.resources.Get(rooms.FetchableIDs()[1])
			assert.False(t, ok, "seeded rooms start stale")

			if backend == config.BackendFile {
				_, err := os.Stat(filepath.Join(cfg.Cache.Dir, cache.ResourceStampFile))
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewAppRejectsUnknownActivityLevel(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Cache.Backend = config.BackendMemory
	cfg.ActivityLevels["TD04"] = "whisper"

	_, err := newApp(context.Background(), cfg)
	assert.Error(t, err)
}

func TestInitCacheCommand(t *testing.T) {
	resetFlags(t)
	cfg := config.DefaultConfig()
	cfg.Cache.Backend = config.BackendMemory
	path := writeConfig(t, cfg)

	root := newRootCommand("test", "none")
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"init-cache", "--config", path})

	require.NoError(t, root.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), "memory cache ready")
}
