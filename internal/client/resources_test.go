package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/team-ns/launcher/internal/protocol"
	"github.com/team-ns/launcher/pkg/manifest"
)

func TestMergeResourcesLayout(t *testing.T) {
	t.Parallel()

	file := func(uri string) manifest.RemoteFile {
		return manifest.RemoteFile{URI: uri, Size: 1}
	}
	res := protocol.ProfileResources{
		Profile: manifest.RemoteDirectory{
			"client.jar":      file("u1"),
			"config/base.cfg": file("u2"),
		},
		Libraries: manifest.RemoteDirectory{"core/core.jar": file("u3")},
		Assets:    manifest.RemoteDirectory{"objects/ab/abcdef": file("u4")},
		Natives:   manifest.RemoteDirectory{"liblwjgl64.so": file("u5")},
		Jre:       manifest.RemoteDirectory{"bin/java": file("u6")},
	}

	merged := MergeResources(res, "assets")
	require.Len(t, merged, 6)
	assert.Equal(t, file("u1"), merged["client.jar"])
	assert.Equal(t, file("u2"), merged["config/base.cfg"])
	assert.Equal(t, file("u3"), merged["libraries/core/core.jar"])
	assert.Equal(t, file("u4"), merged["assets/objects/ab/abcdef"])
	assert.Equal(t, file("u5"), merged["natives/liblwjgl64.so"])
	assert.Equal(t, file("u6"), merged["jre/bin/java"])
}

func TestMergeResourcesTrimsAssetsDir(t *testing.T) {
	t.Parallel()

	res := protocol.ProfileResources{
		Assets: manifest.RemoteDirectory{"icon.png": {Size: 4}},
	}
	merged := MergeResources(res, "/resources/")
	assert.Contains(t, merged, "resources/icon.png")
}

func TestMergeResourcesEmpty(t *testing.T) {
	t.Parallel()

	merged := MergeResources(protocol.ProfileResources{}, "assets")
	assert.Empty(t, merged)
}
