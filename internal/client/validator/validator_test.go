package validator

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/team-ns/launcher/internal/client/downloader"
	"github.com/team-ns/launcher/internal/t1ha"
	"github.com/team-ns/launcher/pkg/manifest"
)

// remoteFixture serves a content map and builds its manifest.
type remoteFixture struct {
	files  map[string][]byte
	remote manifest.RemoteDirectory
}

func newRemoteFixture(t *testing.T, files map[string][]byte) *remoteFixture {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, ok := files[strings.TrimPrefix(r.URL.Path, "/")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		http.ServeContent(w, r, r.URL.Path, time.Time{}, bytes.NewReader(data))
	}))
	t.Cleanup(ts.Close)

	remote := make(manifest.RemoteDirectory, len(files))
	for rel, data := range files {
		remote[rel] = manifest.RemoteFile{
			URI:      ts.URL + "/" + rel,
			Size:     uint64(len(data)),
			Checksum: manifest.Checksum(t1ha.Digest128(data, 0)),
		}
	}
	return &remoteFixture{files: files, remote: remote}
}

// materialize writes every manifest file into gameDir.
func (f *remoteFixture) materialize(t *testing.T, gameDir string) {
	t.Helper()
	for rel, data := range f.files {
		writeLocal(t, gameDir, rel, data)
	}
}

func writeLocal(t *testing.T, gameDir, rel string, data []byte) {
	t.Helper()
	path := filepath.Join(gameDir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, data, 0644))
}

func gameFiles() map[string][]byte {
	return map[string][]byte{
		"client.jar":             []byte("game client code"),
		"libraries/core.jar":     []byte("core library"),
		"libraries/render.jar":   []byte("render library"),
		"natives/liblwjgl64.so":  []byte("native code"),
		"assets/icons/icon.png":  []byte("icon"),
		"jre/bin/java":           []byte("java binary"),
		"config/settings.txt":    []byte("user config"),
		"mods/approved-mods.jar": []byte("approved"),
	}
}

func verifyDirs() []string { return []string{"libraries", "natives", "mods"} }

func TestValidateFreshInstall(t *testing.T) {
	t.Parallel()

	f := newRemoteFixture(t, gameFiles())
	v := New(t.TempDir(), f.remote, verifyDirs(), nil)

	res, err := v.Validate()
	require.NoError(t, err)
	assert.False(t, res.Success())
	assert.Len(t, res.Download, len(f.files), "every manifest file is missing")
	assert.Empty(t, res.Remove)
}

func TestValidateCleanTree(t *testing.T) {
	t.Parallel()

	f := newRemoteFixture(t, gameFiles())
	gameDir := t.TempDir()
	f.materialize(t, gameDir)

	res, err := New(gameDir, f.remote, verifyDirs(), nil).Validate()
	require.NoError(t, err)
	assert.True(t, res.Success())
}

func TestValidateNoVerifyDirs(t *testing.T) {
	t.Parallel()

	f := newRemoteFixture(t, gameFiles())
	res, err := New(t.TempDir(), f.remote, nil, nil).Validate()
	require.NoError(t, err)
	assert.True(t, res.Success(), "nothing is checked without verified directories")
}

func TestValidateDetectsTamperAndForeignFiles(t *testing.T) {
	t.Parallel()

	f := newRemoteFixture(t, gameFiles())
	gameDir := t.TempDir()
	f.materialize(t, gameDir)

	// Overwrite part of a library and drop a foreign jar into mods.
	libPath := filepath.Join(gameDir, "libraries", "core.jar")
	tampered := append([]byte(nil), f.files["libraries/core.jar"]...)
	for i := range tampered {
		tampered[i] = 0xFF
	}
	require.NoError(t, os.WriteFile(libPath, tampered, 0644))
	writeLocal(t, gameDir, "mods/evil.jar", []byte("injected"))

	res, err := New(gameDir, f.remote, verifyDirs(), nil).Validate()
	require.NoError(t, err)
	assert.Equal(t, []string{"libraries/core.jar"}, res.Download)
	assert.Equal(t, []string{"mods/evil.jar"}, res.Remove)
}

func TestValidateExcludedPrefixIsIgnored(t *testing.T) {
	t.Parallel()

	f := newRemoteFixture(t, gameFiles())
	gameDir := t.TempDir()
	f.materialize(t, gameDir)
	writeLocal(t, gameDir, "mods/local/extra.jar", []byte("user mod"))

	res, err := New(gameDir, f.remote, verifyDirs(), []string{"mods/local/"}).Validate()
	require.NoError(t, err)
	assert.True(t, res.Success())
}

func TestReconcileRepairsTree(t *testing.T) {
	t.Parallel()

	f := newRemoteFixture(t, gameFiles())
	gameDir := t.TempDir()
	f.materialize(t, gameDir)

	writeLocal(t, gameDir, "libraries/core.jar", []byte("tampered"))
	writeLocal(t, gameDir, "mods/evil.jar", []byte("injected"))
	require.NoError(t, os.Remove(filepath.Join(gameDir, "natives", "liblwjgl64.so")))

	v := New(gameDir, f.remote, verifyDirs(), nil)
	require.NoError(t, v.Reconcile(context.Background(), downloader.New()))

	res, err := v.Validate()
	require.NoError(t, err)
	assert.True(t, res.Success())
	assert.NoFileExists(t, filepath.Join(gameDir, "mods", "evil.jar"))

	got, err := os.ReadFile(filepath.Join(gameDir, "libraries", "core.jar"))
	require.NoError(t, err)
	assert.Equal(t, f.files["libraries/core.jar"], got)
}

func TestReconcileFatalWhenServerContentDiffers(t *testing.T) {
	t.Parallel()

	// The served bytes have the right size but the wrong checksum, so the
	// second validation pass still fails.
	f := newRemoteFixture(t, map[string][]byte{"client.jar": []byte("served!!")})
	remote := f.remote.Clone()
	entry := remote["client.jar"]
	entry.Checksum = manifest.Checksum(t1ha.Digest128([]byte("expected"), 0))
	remote["client.jar"] = entry

	v := New(t.TempDir(), remote, nil, nil)
	err := v.Reconcile(context.Background(), downloader.New())
	assert.ErrorContains(t, err, "still differs")
	assert.ErrorContains(t, err, "client.jar")
}

func TestWatchDetectsContentMismatch(t *testing.T) {
	t.Parallel()

	f := newRemoteFixture(t, gameFiles())
	gameDir := t.TempDir()
	f.materialize(t, gameDir)
	v := New(gameDir, f.remote, verifyDirs(), nil)

	errCh := make(chan error, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { errCh <- v.Watch(ctx) }()

	time.Sleep(100 * time.Millisecond)
	writeLocal(t, gameDir, "libraries/core.jar", []byte("patched at runtime"))

	select {
	case err := <-errCh:
		require.Error(t, err)
		assert.Contains(t, err.Error(), "libraries/core.jar")
		assert.Contains(t, err.Error(), "content mismatch")
	case <-time.After(5 * time.Second):
		t.Fatal("watcher missed the modification")
	}
}

func TestWatchDetectsForeignFile(t *testing.T) {
	t.Parallel()

	f := newRemoteFixture(t, gameFiles())
	gameDir := t.TempDir()
	f.materialize(t, gameDir)
	v := New(gameDir, f.remote, verifyDirs(), nil)

	errCh := make(chan error, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { errCh <- v.Watch(ctx) }()

	time.Sleep(100 * time.Millisecond)
	writeLocal(t, gameDir, "mods/evil.jar", []byte("injected"))

	select {
	case err := <-errCh:
		require.Error(t, err)
		assert.Contains(t, err.Error(), "mods/evil.jar")
	case <-time.After(5 * time.Second):
		t.Fatal("watcher missed the foreign file")
	}
}

func TestWatchStopsOnCancel(t *testing.T) {
	t.Parallel()

	f := newRemoteFixture(t, gameFiles())
	gameDir := t.TempDir()
	f.materialize(t, gameDir)
	v := New(gameDir, f.remote, verifyDirs(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- v.Watch(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop on cancel")
	}
}

func TestPollingDiffStamps(t *testing.T) {
	t.Parallel()

	f := newRemoteFixture(t, gameFiles())
	gameDir := t.TempDir()
	f.materialize(t, gameDir)
	v := New(gameDir, f.remote, verifyDirs(), nil)

	prev, err := v.snapshot()
	require.NoError(t, err)
	require.NoError(t, v.diffStamps(prev, prev))

	// Same size, different content: the stamp change forces a rehash.
	writeLocal(t, gameDir, "libraries/core.jar", bytes.ToUpper(f.files["libraries/core.jar"]))
	next, err := v.snapshot()
	require.NoError(t, err)
	err = v.diffStamps(prev, next)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "content mismatch")

	// A known file disappearing is a violation too.
	f.materialize(t, gameDir)
	prev, err = v.snapshot()
	require.NoError(t, err)
	require.NoError(t, os.Remove(filepath.Join(gameDir, "natives", "liblwjgl64.so")))
	next, err = v.snapshot()
	require.NoError(t, err)
	err = v.diffStamps(prev, next)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "monitored file removed")
}
