package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/team-ns/launcher/internal/bytesize"
)

func TestSaveAndLoadRoundTrip(t *testing.T) {
	t.Parallel()

	gameDir := t.TempDir()
	s := Default()
	s.Ram = 2 * bytesize.GiB
	s.SaveData = true
	s.LastName = "alice"
	s.SavedPassword = "c2VhbGVkIGJveA=="
	s.SetSelectedOptionals("vanilla", []string{"shaders", "music"})
	s.Properties["theme"] = "dark"

	require.NoError(t, s.Save(gameDir))

	loaded := Load(gameDir)
	assert.Equal(t, s, loaded)
	assert.Equal(t, []string{"shaders", "music"}, loaded.SelectedOptionals("vanilla"))
}

func TestLoadMissingYieldsDefaults(t *testing.T) {
	t.Parallel()

	s := Load(t.TempDir())
	assert.Equal(t, Default(), s)
	assert.NotNil(t, s.Optionals)
	assert.NotNil(t, s.Properties)
}

func TestLoadCorruptYieldsDefaults(t *testing.T) {
	t.Parallel()

	gameDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(gameDir, FileName), []byte("not gob"), 0600))

	s := Load(gameDir)
	assert.Equal(t, Default(), s)
}

func TestSaveCreatesGameDir(t *testing.T) {
	t.Parallel()

	gameDir := filepath.Join(t.TempDir(), "not", "yet", "created")
	require.NoError(t, Default().Save(gameDir))
	assert.FileExists(t, filepath.Join(gameDir, FileName))
}

func TestSetSelectedOptionalsCopies(t *testing.T) {
	t.Parallel()

	s := &Settings{}
	names := []string{"shaders"}
	s.SetSelectedOptionals("vanilla", names)
	names[0] = "mutated"
	assert.Equal(t, []string{"shaders"}, s.SelectedOptionals("vanilla"))
}
