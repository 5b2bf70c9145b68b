package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Rorical/smartagent/internal/observability"
)

func newTestStorage(t *testing.T) (*Storage, *FileStore) {
	t.Helper()
	store := NewFileStore(filepath.Join(t.TempDir(), "storage.json"))
	return NewStorage(store, observability.Discard()), store
}

func TestSaveLoadRoundTrip(t *testing.T) {
	storage, _ := newTestStorage(t)

	saved := LLMConfig{APIKey: "k", BaseURL: "b", ModelName: "m"}
	require.NoError(t, storage.Save(saved))

	loaded := storage.Load()
	require.NotNil(t, loaded)
	require.Equal(t, saved, *loaded)
}

func TestLoadWithoutSaveReturnsNil(t *testing.T) {
	storage, _ := newTestStorage(t)
	require.Nil(t, storage.Load())
	require.Equal(t, Default(), storage.Get())
}

func TestDefaultValues(t *testing.T) {
	require.Equal(t, LLMConfig{
		APIKey:    "",
		BaseURL:   "https://api.moonshot.cn/v1",
		ModelName: "kimi-k2-thinking",
	}, Default())
}

func TestLoadCorruptedValueReturnsNil(t *testing.T) {
	storage, store := newTestStorage(t)
	require.NoError(t, store.Set(StorageKey, "invalid-json"))

	require.Nil(t, storage.Load())
	require.Equal(t, Default(), storage.Get())
}

func TestLoadCorruptedFileReturnsNil(t *testing.T) {
	storage, store := newTestStorage(t)
	require.NoError(t, os.WriteFile(store.Path(), []byte("{broken"), 0600))

	require.Nil(t, storage.Load())
}

func TestGetMergesDefaults(t *testing.T) {
	storage, _ := newTestStorage(t)
	temperature := 0.3
	require.NoError(t, storage.Save(LLMConfig{APIKey: "saved-key", Temperature: &temperature}))

	cfg := storage.Get()
	require.Equal(t, "saved-key", cfg.APIKey)
	require.Equal(t, DefaultBaseURL, cfg.BaseURL)
	require.Equal(t, DefaultModelName, cfg.ModelName)
	require.NotNil(t, cfg.Temperature)
	require.InDelta(t, 0.3, *cfg.Temperature, 1e-9)
}

func TestClearRemovesOnlyConfigKey(t *testing.T) {
	storage, store := newTestStorage(t)
	require.NoError(t, store.Set("other", "value"))
	require.NoError(t, storage.Save(LLMConfig{APIKey: "k", ModelName: "m"}))

	require.NoError(t, storage.Clear())
	require.Nil(t, storage.Load())

	other, ok, err := store.Get("other")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "value", other)
}

func TestFileStoreWritesPrivateFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "storage.json")
	store := NewFileStore(path)
	require.NoError(t, store.Set("a", "1"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestHomeDirHonoursEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("SMARTAGENT_HOME", dir)

	home, err := HomeDir()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, ".smartagent"), home)
}

func TestEndpointHonoursEnv(t *testing.T) {
	t.Setenv("SMARTAGENT_ENDPOINT", "")
	require.Equal(t, DefaultEndpoint, Endpoint())

	t.Setenv("SMARTAGENT_ENDPOINT", "http://agent.local/api/agent")
	require.Equal(t, "http://agent.local/api/agent", Endpoint())
}

func TestMemoryStore(t *testing.T) {
	storage := NewStorage(NewMemoryStore(), observability.Discard())
	require.NoError(t, storage.Save(LLMConfig{APIKey: "k", ModelName: "m"}))
	require.Equal(t, "k", storage.Load().APIKey)
}
