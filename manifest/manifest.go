// Package manifest handles borges.toml project configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileName is the name of the project configuration file.
const FileName = "borges.toml"

// Stream formats accepted in [codec] format.
const (
	FormatChunk = "chunk"
	FormatRaw   = "raw"
)

// Manifest represents a borges.toml project configuration.
type Manifest struct {
	Project Project      `toml:"project"`
	Codec   CodecConfig  `toml:"codec"`
	Store   StoreConfig  `toml:"store"`
	Server  ServerConfig `toml:"server"`
	Log     LogConfig    `toml:"log"`

	// Dir is the directory containing the borges.toml file (set at load time).
	Dir string `toml:"-"`
}

// Project contains project metadata.
type Project struct {
	Name string `toml:"name"`
}

// CodecConfig configures how streams are written.
type CodecConfig struct {
	Shared bool   `toml:"shared"`
	Format string `toml:"format"`
}

// StoreConfig configures the snapshot store.
type StoreConfig struct {
	Path string `toml:"path"`
}

// ServerConfig configures the codec service.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// LogConfig configures logging.
type LogConfig struct {
	Verbosity int    `toml:"verbosity"`
	File      string `toml:"file"`
}

// Default returns the configuration used when no borges.toml exists.
func Default(dir string) *Manifest {
	m := &Manifest{Dir: dir}
	m.applyDefaults()
	return m
}

func (m *Manifest) applyDefaults() {
	if m.Codec.Format == "" {
		m.Codec.Format = FormatChunk
	}
	if m.Store.Path == "" {
		m.Store.Path = filepath.Join(".borges", "snapshots.db")
	}
	if m.Server.Addr == "" {
		m.Server.Addr = ":4567"
	}
}

// Validate checks values that have a fixed set of choices.
func (m *Manifest) Validate() error {
	switch m.Codec.Format {
	case FormatChunk, FormatRaw:
	default:
		return fmt.Errorf("codec.format must be %q or %q, got %q", FormatChunk, FormatRaw, m.Codec.Format)
	}
	if m.Log.Verbosity < 0 {
		return fmt.Errorf("log.verbosity must not be negative, got %d", m.Log.Verbosity)
	}
	return nil
}

// Load parses a borges.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	return LoadFile(path)
}

// LoadFile parses the configuration file at path.
func LoadFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", path, err)
	}

	m.applyDefaults()
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", path, err)
	}
	return &m, nil
}

// FindAndLoad walks up from startDir to find a borges.toml file,
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

// StorePath returns the absolute path of the snapshot database.
func (m *Manifest) StorePath() string {
	if filepath.IsAbs(m.Store.Path) {
		return m.Store.Path
	}
	return filepath.Join(m.Dir, m.Store.Path)
}

// LogPath returns the absolute log file path, or "" to log to stderr.
func (m *Manifest) LogPath() string {
	if m.Log.File == "" || filepath.IsAbs(m.Log.File) {
		return m.Log.File
	}
	return filepath.Join(m.Dir, m.Log.File)
}
