package game

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/team-ns/launcher/internal/bytesize"
	"github.com/team-ns/launcher/pkg/profile"
)

func testOptions() Options {
	return Options{
		GameDir: filepath.Join("/", "home", "player", "game"),
		Ram:     2 * bytesize.GiB,
		Profile: profile.Profile{
			Name:      "vanilla",
			MainClass: "net.minecraft.client.main.Main",
			Libraries: []string{"core/core.jar", "render/fancy.jar"},
			ClassPath: []string{"client.jar"},
			JvmArgs:   []string{"-XX:+UseG1GC"},
			ClientArgs: []string{
				"--username", "${username}",
				"--uuid", "${uuid}",
				"--accessToken", "${accessToken}",
				"--gameDir", "${gameDir}",
				"--assetsDir", "${assetsDir}",
			},
			AssetsDir: "assets",
		},
		Username:    "alice",
		UUID:        uuid.MustParse("11111111-2222-3333-4444-555555555555"),
		AccessToken: "tok",
	}
}

func TestClassPathOrder(t *testing.T) {
	t.Parallel()

	opts := testOptions()
	entries := strings.Split(classPath(opts), string(os.PathListSeparator))
	assert.Equal(t, []string{
		filepath.Join(opts.GameDir, "libraries", "core", "core.jar"),
		filepath.Join(opts.GameDir, "libraries", "render", "fancy.jar"),
		filepath.Join(opts.GameDir, "client.jar"),
	}, entries)
}

func TestExpandArgs(t *testing.T) {
	t.Parallel()

	opts := testOptions()
	args := expandArgs(opts.Profile.ClientArgs, opts)
	assert.Equal(t, []string{
		"--username", "alice",
		"--uuid", "11111111-2222-3333-4444-555555555555",
		"--accessToken", "tok",
		"--gameDir", opts.GameDir,
		"--assetsDir", filepath.Join(opts.GameDir, "assets"),
	}, args)
}

func TestBuildArgs(t *testing.T) {
	t.Parallel()

	opts := testOptions()
	args := buildArgs(opts)

	assert.Equal(t, "-XX:+UseG1GC", args[0])
	assert.Contains(t, args, "-Xmx2048M")
	assert.Contains(t, args, "-Djava.library.path="+filepath.Join(opts.GameDir, "natives"))
	assert.Contains(t, args, opts.Profile.MainClass)

	// Client arguments come after the main class.
	mainAt := -1
	for i, arg := range args {
		if arg == opts.Profile.MainClass {
			mainAt = i
		}
	}
	assert.Equal(t, []string{"--username", "alice"}, args[mainAt+1:mainAt+3])
}

func TestBuildArgsDoesNotMutateProfile(t *testing.T) {
	t.Parallel()

	opts := testOptions()
	buildArgs(opts)
	assert.Equal(t, []string{"-XX:+UseG1GC"}, opts.Profile.JvmArgs)
}

func TestJavaBinary(t *testing.T) {
	t.Parallel()

	path := javaBinary(filepath.Join("/", "game"))
	assert.True(t, strings.HasPrefix(path, filepath.Join("/", "game", "jre", "bin", "java")))
}
