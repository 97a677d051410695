package server

import (
	"fmt"

	"github.com/team-ns/launcher/internal/logger"
	"github.com/team-ns/launcher/internal/protocol"
	"github.com/team-ns/launcher/pkg/manifest"
	"github.com/team-ns/launcher/pkg/profile"
)

// profileResources assembles the manifest set the launcher reconciles
// against, with optional filtering applied: files of irrelevant optionals
// are removed, and rename pairs of relevant optionals swap the source file
// under its destination key.
func (s *Server) profileResources(name string, os manifest.OsType, selected []string) (protocol.ProfileResources, error) {
	data, err := s.catalog.Get(name)
	if err != nil {
		return protocol.ProfileResources{}, err
	}

	prof, ok := s.hasher.Get(manifest.ProfileLocation(name))
	if !ok {
		return protocol.ProfileResources{}, fmt.Errorf("profile %q has no hashed content", name)
	}
	libs, ok := s.hasher.Get(manifest.LibrariesLocation(name))
	if !ok {
		return protocol.ProfileResources{}, fmt.Errorf("profile %q has no hashed libraries", name)
	}
	assets, ok := s.hasher.Get(manifest.AssetsLocation(data.Profile.Assets))
	if !ok {
		return protocol.ProfileResources{}, fmt.Errorf("unknown asset set %q", data.Profile.Assets)
	}

	filtered := map[profile.ActionLocation]manifest.RemoteDirectory{
		profile.LocationProfile:   prof.Clone(),
		profile.LocationLibraries: libs.Clone(),
		profile.LocationAssets:    assets.Clone(),
	}

	for _, opt := range data.IrrelevantOptionals(os, selected) {
		for loc, dir := range filtered {
			for _, path := range opt.FilePaths(loc) {
				delete(dir, path)
			}
			for src := range opt.RenamePairs(loc) {
				delete(dir, src)
			}
		}
	}

	for _, opt := range data.RelevantOptionals(os, selected) {
		for loc, dir := range filtered {
			for src, dst := range opt.RenamePairs(loc) {
				file, ok := dir[src]
				if !ok && loc == profile.LocationLibraries {
					file, ok = s.hasher.LookupLibrary(src)
				}
				if !ok {
					logger.Warn("optional rename source is not hashed",
						logger.Profile(name), logger.Path(src))
					continue
				}
				delete(dir, src)
				dir[dst] = file
			}
		}
	}

	jreName := data.Profile.Jre
	if jreName == "" {
		jreName = s.cfg.DefaultJre
	}

	// Natives and JRE manifests may legitimately be absent for a platform;
	// the launcher treats an empty directory as nothing to reconcile.
	natives, ok := s.hasher.Get(manifest.NativesLocation(data.Profile.Version, os))
	if !ok {
		natives = make(manifest.RemoteDirectory)
	}
	jre, ok := s.hasher.Get(manifest.JresLocation(jreName, os))
	if !ok {
		jre = make(manifest.RemoteDirectory)
	}

	return protocol.ProfileResources{
		Profile:   filtered[profile.LocationProfile],
		Libraries: filtered[profile.LocationLibraries],
		Assets:    filtered[profile.LocationAssets],
		Natives:   natives,
		Jre:       jre,
	}, nil
}
