package userconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileIsEmpty(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, &UserConfig{}, cfg)
}

func TestSelectedProfileAndLastEmail(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	require.NoError(t, SetSelectedProfile("dev"))
	require.NoError(t, SetLastEmail("a@x.com"))

	alias, err := GetSelectedProfile()
	require.NoError(t, err)
	assert.Equal(t, "dev", alias)

	email, err := GetLastEmail()
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", email)

	_, err = os.Stat(filepath.Join(home, ".config", "idsession", "config.json"))
	assert.NoError(t, err)
}

func TestLoad_CorruptFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := filepath.Join(home, ".config", "idsession")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte("{"), 0644))

	_, err := Load()
	assert.ErrorContains(t, err, "failed to parse user config file")
}
