// Package settings persists the launcher's user state as a compact binary
// blob in the game directory.
package settings

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"github.com/team-ns/launcher/internal/bytesize"
	"github.com/team-ns/launcher/internal/logger"
)

// FileName is the settings blob inside the game directory.
const FileName = "settings.bin"

// Settings is the launcher's persisted user state.
type Settings struct {
	// Ram is the JVM heap size; zero means "use the configured default".
	Ram bytesize.ByteSize

	// SaveData remembers credentials between runs.
	SaveData bool

	// LastName is the last login used, kept when SaveData is set.
	LastName string

	// SavedPassword is the sealed-box form of the remembered password. Only
	// the server can open it; the launcher stores and replays it verbatim.
	SavedPassword string

	// Optionals holds the selected optional names per profile.
	Optionals map[string][]string

	// Properties carries free-form key/value state owned by extensions.
	Properties map[string]string
}

// Default returns empty settings with allocated maps.
func Default() *Settings {
	return &Settings{
		Optionals:  make(map[string][]string),
		Properties: make(map[string]string),
	}
}

// SelectedOptionals returns the stored selection for a profile.
func (s *Settings) SelectedOptionals(profile string) []string {
	return s.Optionals[profile]
}

// SetSelectedOptionals replaces the stored selection for a profile.
func (s *Settings) SetSelectedOptionals(profile string, names []string) {
	if s.Optionals == nil {
		s.Optionals = make(map[string][]string)
	}
	s.Optionals[profile] = append([]string(nil), names...)
}

// Load reads the settings blob from gameDir. A missing or unreadable blob
// yields defaults: settings are a cache, not a source of truth.
func Load(gameDir string) *Settings {
	path := filepath.Join(gameDir, FileName)
	raw, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("settings unreadable, using defaults", logger.Path(path), logger.Err(err))
		}
		return Default()
	}

	s := Default()
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(s); err != nil {
		logger.Warn("settings corrupted, using defaults", logger.Path(path), logger.Err(err))
		return Default()
	}
	if s.Optionals == nil {
		s.Optionals = make(map[string][]string)
	}
	if s.Properties == nil {
		s.Properties = make(map[string]string)
	}
	return s
}

// Save writes the settings blob into gameDir.
func (s *Settings) Save(gameDir string) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(s); err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := os.MkdirAll(gameDir, 0755); err != nil {
		return fmt.Errorf("create game dir: %w", err)
	}
	path := filepath.Join(gameDir, FileName)
	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}
