package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileFallsBackToEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "9999")

	v, err := Load(t.TempDir(), "does-not-exist")
	require.NoError(t, err)
	assert.Equal(t, 9999, v.GetInt("server.port"))
}

func TestLoad_ReadsYAML(t *testing.T) {
	dir := t.TempDir()
	body := []byte("server:\n  host: 127.0.0.1\n  port: 8000\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "chat.yaml"), body, 0o600))

	v, err := Load(dir, "chat")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", v.GetString("server.host"))
	assert.Equal(t, 8000, v.GetInt("server.port"))
}

func TestLoad_BrokenYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "chat.yaml"), []byte("server: [\n"), 0o600))

	_, err := Load(dir, "chat")
	require.Error(t, err)
}
