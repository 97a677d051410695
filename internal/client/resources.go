package client

import (
	"strings"

	"github.com/team-ns/launcher/internal/protocol"
	"github.com/team-ns/launcher/pkg/manifest"
)

// Game directory subtrees the non-profile manifests materialize under.
const (
	LibrariesSubdir = "libraries"
	NativesSubdir   = "natives"
	JreSubdir       = "jre"
)

// MergeResources flattens the five served manifests into one directory keyed
// by game-dir-relative path. Profile files land at the game dir root;
// libraries, natives and the runtime under fixed subtrees; assets under the
// profile's asset directory name.
func MergeResources(res protocol.ProfileResources, assetsDir string) manifest.RemoteDirectory {
	size := len(res.Profile) + len(res.Libraries) + len(res.Assets) + len(res.Natives) + len(res.Jre)
	merged := make(manifest.RemoteDirectory, size)

	addPrefixed := func(prefix string, dir manifest.RemoteDirectory) {
		for path, file := range dir {
			merged[prefix+path] = file
		}
	}

	addPrefixed("", res.Profile)
	addPrefixed(LibrariesSubdir+"/", res.Libraries)
	addPrefixed(strings.Trim(assetsDir, "/")+"/", res.Assets)
	addPrefixed(NativesSubdir+"/", res.Natives)
	addPrefixed(JreSubdir+"/", res.Jre)
	return merged
}
