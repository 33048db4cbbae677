package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConfigureDisabledIsNoop(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Configure(dir, false, nil, "info"))

	l := Get(CategoryStore)
	l.Info("should not be written")

	_, err := os.Stat(filepath.Join(dir, ".bookmarkd", "logs"))
	require.True(t, os.IsNotExist(err))
}

func TestConfigureEnabledWritesFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Configure(dir, true, nil, "debug"))
	defer Close()

	l := Get(CategoryIngestion)
	l.Info("hello %s", "world")

	path := filepath.Join(dir, ".bookmarkd", "logs", "ingestion.log")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "hello world")
}

func TestCategoryToggleSuppressesOutput(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Configure(dir, true, map[string]bool{string(CategoryCache): false}, "debug"))
	defer Close()

	l := Get(CategoryCache)
	l.Info("suppressed")

	path := filepath.Join(dir, ".bookmarkd", "logs", "cache.log")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Empty(t, string(data))
}
