// Package hasher walks the server's static content tree and produces the
// in-memory manifests served to launchers. Files are hashed with
// t1ha2-atonce-128 and addressed by absolute URL under the file server base.
//
// The visible manifest map is replaced atomically at the end of a successful
// rehash; concurrent readers observe either the previous or the new map,
// never a mixture.
package hasher

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/team-ns/launcher/internal/logger"
	"github.com/team-ns/launcher/internal/t1ha"
	"github.com/team-ns/launcher/pkg/manifest"
	"github.com/team-ns/launcher/pkg/profile"
)

// hashParallelism bounds concurrent file reads during a rehash.
const hashParallelism = 50

// hashSeed is the fixed t1ha2 seed; both peers must agree on it.
const hashSeed = 0

// Fixed subtrees of the static directory.
const (
	ProfilesDir  = "profiles"
	LibrariesDir = "libraries"
	AssetsDir    = "assets"
	NativesDir   = "natives"
	JreDir       = "jre"
)

// PassNames lists the rehash sub-passes in execution order. Libraries depend
// on profile definitions, so the profiles pass runs first.
var PassNames = []string{ProfilesDir, LibrariesDir, AssetsDir, NativesDir, JreDir}

// Service converts the static tree into manifests keyed by location.
type Service struct {
	staticDir string
	baseURL   string
	catalog   *profile.Catalog

	mu        sync.RWMutex
	manifests map[manifest.Location]manifest.RemoteDirectory
	libraries manifest.RemoteDirectory
}

// New creates a hashing service rooted at staticDir. URLs are built as
// baseURL + "/" + path relative to staticDir.
func New(staticDir, baseURL string, catalog *profile.Catalog) *Service {
	return &Service{
		staticDir: staticDir,
		baseURL:   strings.TrimRight(baseURL, "/"),
		catalog:   catalog,
		manifests: make(map[manifest.Location]manifest.RemoteDirectory),
		libraries: make(manifest.RemoteDirectory),
	}
}

// StaticDir returns the root of the content tree.
func (s *Service) StaticDir() string {
	return s.staticDir
}

// EnsureLayout creates any missing fixed subtree of the static directory.
func (s *Service) EnsureLayout() error {
	for _, sub := range PassNames {
		if err := os.MkdirAll(filepath.Join(s.staticDir, sub), 0755); err != nil {
			return fmt.Errorf("create static subtree %q: %w", sub, err)
		}
	}
	return nil
}

// build is the staging area of one rehash. It starts as a copy of the
// current map so a filtered rehash keeps untouched locations intact.
type build struct {
	mu        sync.Mutex
	manifests map[manifest.Location]manifest.RemoteDirectory
	libraries manifest.RemoteDirectory
}

func (b *build) put(loc manifest.Location, dir manifest.RemoteDirectory) {
	b.mu.Lock()
	b.manifests[loc] = dir
	b.mu.Unlock()
}

// dropKind removes every staged manifest of one family before its pass
// rebuilds it.
func (b *build) dropKind(kind manifest.LocationKind) {
	for loc := range b.manifests {
		if loc.Kind == kind {
			delete(b.manifests, loc)
		}
	}
}

// Rehash refreshes the named sub-passes, or all of them when none are given.
// The published map switches only after every requested pass succeeded.
func (s *Service) Rehash(ctx context.Context, passes ...string) error {
	if len(passes) == 0 {
		passes = PassNames
	}
	requested := make(map[string]bool, len(passes))
	for _, name := range passes {
		found := false
		for _, known := range PassNames {
			if known == name {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("unknown rehash pass %q", name)
		}
		requested[name] = true
	}

	start := time.Now()

	s.mu.RLock()
	staged := &build{
		manifests: make(map[manifest.Location]manifest.RemoteDirectory, len(s.manifests)),
		libraries: s.libraries,
	}
	for loc, dir := range s.manifests {
		staged.manifests[loc] = dir
	}
	s.mu.RUnlock()

	for _, name := range PassNames {
		if !requested[name] {
			continue
		}
		passStart := time.Now()
		var err error
		switch name {
		case ProfilesDir:
			err = s.hashProfiles(ctx, staged)
		case LibrariesDir:
			err = s.hashLibraries(ctx, staged)
		case AssetsDir:
			err = s.hashAssets(ctx, staged)
		case NativesDir:
			err = s.hashNatives(ctx, staged)
		case JreDir:
			err = s.hashJres(ctx, staged)
		}
		if err != nil {
			return fmt.Errorf("rehash pass %q: %w", name, err)
		}
		logger.Debug("rehash pass complete", logger.KeyPass, name,
			logger.DurationMs(logger.Duration(passStart)))
	}

	s.mu.Lock()
	s.manifests = staged.manifests
	s.libraries = staged.libraries
	s.mu.Unlock()

	logger.Info("rehash complete", "locations", len(staged.manifests),
		logger.DurationMs(logger.Duration(start)))
	return nil
}

// Get returns the manifest filed under loc. The returned map is shared and
// must not be mutated; Clone before filtering.
func (s *Service) Get(loc manifest.Location) (manifest.RemoteDirectory, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	dir, ok := s.manifests[loc]
	return dir, ok
}

// LookupLibrary resolves a path under static/libraries regardless of any
// profile declaring it. Used for optional rename resolution.
func (s *Service) LookupLibrary(path string) (manifest.RemoteFile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.libraries[path]
	return f, ok
}

// fileJob is one file scheduled for hashing.
type fileJob struct {
	abs string // absolute path on disk
	key string // manifest key (relative, forward slashes)
	url string // path relative to staticDir (forward slashes)
}

// hashFile reads the whole file and produces its RemoteFile plus raw bytes.
func (s *Service) hashFile(job fileJob) (manifest.RemoteFile, []byte, error) {
	data, err := os.ReadFile(job.abs)
	if err != nil {
		return manifest.RemoteFile{}, nil, fmt.Errorf("read %q: %w", job.abs, err)
	}
	return manifest.RemoteFile{
		URI:      s.baseURL + "/" + job.url,
		Size:     uint64(len(data)),
		Checksum: manifest.Checksum(t1ha.Digest128(data, hashSeed)),
	}, data, nil
}

// collectTree lists every regular file under root. Keys are relative to
// keyBase, URLs relative to the static dir, both forward-slash normalized.
func (s *Service) collectTree(root, keyBase string, skip func(rel string) bool) ([]fileJob, error) {
	var jobs []fileJob
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(keyBase, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if skip != nil && skip(rel) {
			return nil
		}
		urlRel, err := filepath.Rel(s.staticDir, path)
		if err != nil {
			return err
		}
		jobs = append(jobs, fileJob{abs: path, key: rel, url: filepath.ToSlash(urlRel)})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

// hashTree hashes all jobs with bounded parallelism into one directory.
func (s *Service) hashTree(ctx context.Context, jobs []fileJob) (manifest.RemoteDirectory, error) {
	out := make(manifest.RemoteDirectory, len(jobs))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(hashParallelism)
	for _, job := range jobs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			file, _, err := s.hashFile(job)
			if err != nil {
				return err
			}
			mu.Lock()
			out[job.key] = file
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// hashProfiles hashes every profile directory, excluding the descriptor
// sidecars the catalog consumes.
func (s *Service) hashProfiles(ctx context.Context, staged *build) error {
	root := filepath.Join(s.staticDir, ProfilesDir)
	entries, err := os.ReadDir(root)
	if err != nil {
		return err
	}

	staged.dropKind(manifest.KindProfile)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		dir := filepath.Join(root, name)
		jobs, err := s.collectTree(dir, dir, func(rel string) bool {
			return rel == "profile.json" || rel == "description.txt"
		})
		if err != nil {
			return err
		}
		hashed, err := s.hashTree(ctx, jobs)
		if err != nil {
			return err
		}
		staged.put(manifest.ProfileLocation(name), hashed)
	}
	return nil
}

// hashLibraries hashes the shared library tree, then resolves each profile's
// declared libraries against it, falling back to optional rename sources.
func (s *Service) hashLibraries(ctx context.Context, staged *build) error {
	root := filepath.Join(s.staticDir, LibrariesDir)
	jobs, err := s.collectTree(root, root, nil)
	if err != nil {
		return err
	}
	all, err := s.hashTree(ctx, jobs)
	if err != nil {
		return err
	}
	staged.libraries = all

	staged.dropKind(manifest.KindLibraries)
	for _, name := range s.catalog.Names() {
		data, err := s.catalog.Get(name)
		if err != nil {
			continue
		}
		resolved := make(manifest.RemoteDirectory)
		for _, lib := range data.Profile.Libraries {
			lib = filepath.ToSlash(lib)
			if file, ok := all[lib]; ok {
				resolved[lib] = file
				continue
			}
			if src, ok := renameSourceFor(data.Optionals, lib); ok {
				if file, ok := all[src]; ok {
					resolved[src] = file
					continue
				}
			}
			logger.Warn("declared library has no match", logger.Profile(name), logger.Path(lib))
		}
		staged.put(manifest.LibrariesLocation(name), resolved)
	}
	return nil
}

// renameSourceFor finds an optional rename source whose destination is the
// declared library path.
func renameSourceFor(optionals []profile.Optional, declared string) (string, bool) {
	for _, opt := range optionals {
		for src, dst := range opt.RenamePairs(profile.LocationLibraries) {
			if dst == declared {
				return src, true
			}
		}
	}
	return "", false
}

func (s *Service) hashAssets(ctx context.Context, staged *build) error {
	root := filepath.Join(s.staticDir, AssetsDir)
	entries, err := os.ReadDir(root)
	if err != nil {
		return err
	}

	staged.dropKind(manifest.KindAssets)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(root, entry.Name())
		jobs, err := s.collectTree(dir, dir, nil)
		if err != nil {
			return err
		}
		hashed, err := s.hashTree(ctx, jobs)
		if err != nil {
			return err
		}
		staged.put(manifest.AssetsLocation(entry.Name()), hashed)
	}
	return nil
}

// hashNatives partitions each version's natives by platform, classifying
// every file from its extension and binary header. Files that cannot be
// classified are skipped with an error log.
func (s *Service) hashNatives(ctx context.Context, staged *build) error {
	root := filepath.Join(s.staticDir, NativesDir)
	entries, err := os.ReadDir(root)
	if err != nil {
		return err
	}

	staged.dropKind(manifest.KindNatives)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		version := entry.Name()
		dir := filepath.Join(root, version)
		jobs, err := s.collectTree(dir, dir, nil)
		if err != nil {
			return err
		}

		byOs := make(map[manifest.OsType]manifest.RemoteDirectory)
		var mu sync.Mutex
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(hashParallelism)
		for _, job := range jobs {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				file, data, err := s.hashFile(job)
				if err != nil {
					return err
				}
				osType, err := classifyNative(job.key, data)
				if err != nil {
					logger.Error("skipping unclassifiable native",
						logger.KeyVersion, version, logger.Path(job.key), logger.Err(err))
					return nil
				}
				mu.Lock()
				if byOs[osType] == nil {
					byOs[osType] = make(manifest.RemoteDirectory)
				}
				byOs[osType][job.key] = file
				mu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
		for osType, dir := range byOs {
			staged.put(manifest.NativesLocation(version, osType), dir)
		}
	}
	return nil
}

// hashJres hashes each bundled runtime per platform. The platform directory
// component is stripped from the stored relative path so every client sees a
// uniform runtime layout.
func (s *Service) hashJres(ctx context.Context, staged *build) error {
	root := filepath.Join(s.staticDir, JreDir)
	names, err := os.ReadDir(root)
	if err != nil {
		return err
	}

	staged.dropKind(manifest.KindJres)
	for _, nameEntry := range names {
		if !nameEntry.IsDir() {
			continue
		}
		jreName := nameEntry.Name()
		osDirs, err := os.ReadDir(filepath.Join(root, jreName))
		if err != nil {
			return err
		}
		for _, osEntry := range osDirs {
			if !osEntry.IsDir() {
				continue
			}
			osType := manifest.OsType(osEntry.Name())
			if !osType.Valid() {
				logger.Warn("skipping unknown jre platform directory",
					logger.Path(filepath.Join(JreDir, jreName, osEntry.Name())))
				continue
			}
			dir := filepath.Join(root, jreName, osEntry.Name())
			jobs, err := s.collectTree(dir, dir, nil)
			if err != nil {
				return err
			}
			hashed, err := s.hashTree(ctx, jobs)
			if err != nil {
				return err
			}
			staged.put(manifest.JresLocation(jreName, osType), hashed)
		}
	}
	return nil
}
