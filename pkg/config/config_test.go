package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/team-ns/launcher/internal/auth"
	"github.com/team-ns/launcher/internal/bytesize"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadServerMissingFileUsesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := LoadServer(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultServerConfig(), cfg)
}

func TestLoadServerOverridesAndDefaults(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
bind: "127.0.0.1:8080"
static_dir: "/srv/static"
default_jre: "jre17"
shutdown_timeout: "5s"
auth:
  kind: "accept"
`)
	cfg, err := LoadServer(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8080", cfg.Bind)
	assert.Equal(t, "/srv/static", cfg.StaticDir)
	assert.Equal(t, "jre17", cfg.DefaultJre)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, auth.KindAcceptAny, cfg.Auth.Kind)

	// Unset fields fall back to defaults.
	assert.Equal(t, DefaultServerConfig().SecureDir, cfg.SecureDir)
	assert.Equal(t, DefaultServerConfig().Logging, cfg.Logging)
}

func TestLoadServerRejectsBadBind(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `bind: "not a hostport"`)
	_, err := LoadServer(path)
	assert.ErrorContains(t, err, "validation failed")
}

func TestLoadLauncher(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
server_url: "ws://127.0.0.1:9274/api"
game_dir: "/home/player/game"
public_key: "c29tZSBrZXk="
ram: "4Gi"
`)
	cfg, err := LoadLauncher(path)
	require.NoError(t, err)

	assert.Equal(t, "ws://127.0.0.1:9274/api", cfg.ServerURL)
	assert.Equal(t, 4*bytesize.GiB, cfg.Ram)
	assert.Equal(t, "Launcher", cfg.ProjectName)
	assert.Equal(t, 900, cfg.Window.Width)
}

func TestLoadLauncherRequiresCoreFields(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `project_name: "My Project"`)
	_, err := LoadLauncher(path)
	assert.ErrorContains(t, err, "validation failed")
}

func TestSaveRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	want := DefaultServerConfig()
	want.Bind = "127.0.0.1:7777"
	require.NoError(t, Save(want, path))

	got, err := LoadServer(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}
