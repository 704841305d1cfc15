// Package manifest handles luar.toml project configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileName is the name of the configuration file.
const FileName = "luar.toml"

// DefaultCachePath is where the chunk cache lives, relative to the manifest
// directory.
const DefaultCachePath = ".luar/cache.db"

// Manifest represents a luar.toml project configuration.
type Manifest struct {
	Project Project       `toml:"project"`
	Log     LogConfig     `toml:"log"`
	Runtime RuntimeConfig `toml:"runtime"`
	Cache   CacheConfig   `toml:"cache"`

	// Dir is the directory containing the luar.toml file (set at load time).
	// Empty for the built-in defaults.
	Dir string `toml:"-"`
}

// Project contains project metadata.
type Project struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// LogConfig configures commonlog.
type LogConfig struct {
	Verbosity int    `toml:"verbosity"`
	File      string `toml:"file"`
}

// RuntimeConfig configures the virtual machine.
type RuntimeConfig struct {
	Trace bool `toml:"trace"`
}

// CacheConfig configures the compiled chunk cache.
type CacheConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Default returns the configuration used when no luar.toml exists.
func Default() *Manifest {
	m := &Manifest{}
	m.applyDefaults()
	return m
}

func (m *Manifest) applyDefaults() {
	if m.Cache.Path == "" {
		m.Cache.Path = DefaultCachePath
	}
}

// Load parses a luar.toml file from the given directory. The file is checked
// against the manifest schema before it is decoded.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}
	return m, nil
}

// Parse validates and decodes luar.toml content. The result has no Dir.
func Parse(data []byte) (*Manifest, error) {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	if err := Validate(raw); err != nil {
		return nil, err
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	m.applyDefaults()
	return &m, nil
}

// FindAndLoad walks up from startDir to find a luar.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// FindOrDefault is FindAndLoad falling back to Default when no luar.toml
// exists above startDir.
func FindOrDefault(startDir string) (*Manifest, error) {
	m, err := FindAndLoad(startDir)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return Default(), nil
	}
	return m, nil
}

// CachePath returns the cache database path, resolved against Dir when
// relative.
func (m *Manifest) CachePath() string {
	return m.resolve(m.Cache.Path)
}

// LogFile returns the log file path for commonlog.Configure, or nil to log
// to stderr.
func (m *Manifest) LogFile() *string {
	if m.Log.File == "" {
		return nil
	}
	path := m.resolve(m.Log.File)
	return &path
}

func (m *Manifest) resolve(path string) string {
	if filepath.IsAbs(path) || m.Dir == "" {
		return path
	}
	return filepath.Join(m.Dir, path)
}
