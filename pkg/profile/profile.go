// Package profile owns the game profile definitions served by the launch
// server: the immutable Profile descriptor, the Optional conditional feature
// model and the catalog that loads and validates them from the static tree.
package profile

import "github.com/team-ns/launcher/pkg/manifest"

// Profile is a named immutable descriptor of a launchable game version.
// It is read from static/profiles/<name>/profile.json.
type Profile struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	MainClass string `json:"mainClass"`

	// Libraries are the declared library paths, relative to static/libraries,
	// in class-path order.
	Libraries []string `json:"libraries"`

	// ClassPath lists profile-relative entries appended after the libraries.
	ClassPath []string `json:"classPath"`

	JvmArgs    []string `json:"jvmArgs"`
	ClientArgs []string `json:"clientArgs"`

	// Assets names the asset set under static/assets; AssetsDir is the
	// directory name the launcher materializes it under.
	Assets    string `json:"assets"`
	AssetsDir string `json:"assetsDir"`

	// Jre optionally names the bundled runtime for this profile; empty
	// falls back to the server-wide default.
	Jre string `json:"jre,omitempty"`

	// UpdateVerify lists game-directory roots the launcher validates and
	// watches; UpdateExclusion lists path prefixes exempt from both.
	UpdateVerify    []string `json:"updateVerify"`
	UpdateExclusion []string `json:"updateExclusion"`

	// ServerID is the multiplayer server this profile connects to by default.
	ServerID string `json:"serverId,omitempty"`
}

// Data bundles a Profile with the sidecar files read from its directory.
type Data struct {
	Profile     Profile
	Description string
	Optionals   []Optional
}

// Info is the user-visible projection of a profile sent to launchers.
type Info struct {
	Name        string     `json:"name"`
	Version     string     `json:"version"`
	Description string     `json:"description"`
	Optionals   []Optional `json:"optionals"`
}

// Info projects d for a client platform. The optional list is restricted to
// optionals visible for that platform.
func (d *Data) Info(os manifest.OsType) Info {
	var visible []Optional
	for _, opt := range d.Optionals {
		if opt.Visible && opt.matchesOs(os) {
			visible = append(visible, opt)
		}
	}
	return Info{
		Name:        d.Profile.Name,
		Version:     d.Profile.Version,
		Description: d.Description,
		Optionals:   visible,
	}
}
