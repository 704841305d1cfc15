package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0644))
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `
[project]
name = "hello"
version = "0.1.0"

[log]
verbosity = 2
file = "logs/luar.log"

[runtime]
trace = true

[cache]
enabled = true
path = "build/chunks.db"
`)

	m, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "hello", m.Project.Name)
	assert.Equal(t, "0.1.0", m.Project.Version)
	assert.Equal(t, 2, m.Log.Verbosity)
	assert.True(t, m.Runtime.Trace)
	assert.True(t, m.Cache.Enabled)

	abs, err := filepath.Abs(dir)
	require.NoError(t, err)
	assert.Equal(t, abs, m.Dir)
	assert.Equal(t, filepath.Join(abs, "build", "chunks.db"), m.CachePath())

	logFile := m.LogFile()
	require.NotNil(t, logFile)
	assert.Equal(t, filepath.Join(abs, "logs", "luar.log"), *logFile)
}

func TestLoadManifestDefaults(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `
[project]
name = "minimal"
`)

	m, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, 0, m.Log.Verbosity)
	assert.Nil(t, m.LogFile())
	assert.False(t, m.Runtime.Trace)
	assert.False(t, m.Cache.Enabled)
	assert.Equal(t, DefaultCachePath, m.Cache.Path)
	assert.Equal(t, filepath.Join(m.Dir, ".luar", "cache.db"), m.CachePath())
}

func TestLoadEmptyManifest(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "")

	m, err := Load(dir)
	require.NoError(t, err)
	assert.False(t, m.Cache.Enabled)
}

func TestLoadMissingManifest(t *testing.T) {
	_, err := Load(t.TempDir())
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoadRejectsInvalidManifest(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown section", "[server]\nport = 1\n"},
		{"unknown key", "[cache]\nenable = true\n"},
		{"wrong type", "[runtime]\ntrace = \"yes\"\n"},
		{"verbosity out of range", "[log]\nverbosity = 9\n"},
		{"empty cache path", "[cache]\npath = \"\"\n"},
		{"empty project name", "[project]\nname = \"\"\n"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			writeManifest(t, dir, tc.content)

			_, err := Load(dir)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestLoadRejectsMalformedToml(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "[log\nverbosity = ")

	_, err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse error")
	assert.NotErrorIs(t, err, ErrInvalid)
}

func TestFindAndLoad(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "[project]\nname = \"walk\"\n")

	nested := filepath.Join(root, "scripts", "deep")
	require.NoError(t, os.MkdirAll(nested, 0755))

	m, err := FindAndLoad(nested)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "walk", m.Project.Name)

	abs, _ := filepath.Abs(root)
	assert.Equal(t, abs, m.Dir)
}

func TestFindOrDefault(t *testing.T) {
	// The temp dir is assumed not to sit below a luar.toml.
	dir := t.TempDir()

	m, err := FindAndLoad(dir)
	require.NoError(t, err)
	if m != nil {
		t.Skip("a luar.toml exists above the temp directory")
	}

	m, err = FindOrDefault(dir)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "", m.Dir)
	assert.Equal(t, DefaultCachePath, m.CachePath())
}

func TestParse(t *testing.T) {
	m, err := Parse([]byte("[log]\nverbosity = -4\nfile = \"/var/log/luar.log\"\n"))
	require.NoError(t, err)
	assert.Equal(t, -4, m.Log.Verbosity)
	require.NotNil(t, m.LogFile())
	assert.Equal(t, "/var/log/luar.log", *m.LogFile())
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(nil))
	assert.NoError(t, Validate(map[string]any{
		"cache": map[string]any{"enabled": true},
	}))
	assert.ErrorIs(t, Validate(map[string]any{"extra": 1}), ErrInvalid)
}
