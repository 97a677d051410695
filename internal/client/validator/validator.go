// Package validator reconciles a local game directory against a served
// manifest and keeps watch over it while the game runs.
//
// Validation diffs the tree in both directions: manifest entries whose local
// file is missing or differs are scheduled for download, and local files the
// manifest does not know are scheduled for removal. The watcher then detects
// post-validation tampering, preferring native notifications and falling
// back to polling.
package validator

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/team-ns/launcher/internal/client/downloader"
	"github.com/team-ns/launcher/internal/logger"
	"github.com/team-ns/launcher/internal/t1ha"
	"github.com/team-ns/launcher/pkg/manifest"
)

// hashSeed matches the server's manifest seed.
const hashSeed = 0

// maxReported bounds the offender list in fatal diagnostics.
const maxReported = 5

// Result is the outcome of one validation pass.
type Result struct {
	// Download lists manifest keys whose local file is missing or differs.
	Download []string
	// Remove lists game-dir-relative foreign files.
	Remove []string
}

// Success reports whether the tree already matches the manifest.
func (r Result) Success() bool {
	return len(r.Download) == 0 && len(r.Remove) == 0
}

// Validator checks one game directory against one merged manifest.
type Validator struct {
	gameDir         string
	remote          manifest.RemoteDirectory
	verifyDirs      []string
	excludePrefixes []string
}

// New creates a validator. verifyDirs and excludePrefixes come from the
// profile; paths are game-dir-relative with forward slashes.
func New(gameDir string, remote manifest.RemoteDirectory, verifyDirs, excludePrefixes []string) *Validator {
	return &Validator{
		gameDir:         gameDir,
		remote:          remote,
		verifyDirs:      verifyDirs,
		excludePrefixes: excludePrefixes,
	}
}

// excluded reports whether a relative path falls under an exclude prefix.
func (v *Validator) excluded(rel string) bool {
	for _, prefix := range v.excludePrefixes {
		if strings.HasPrefix(rel, prefix) {
			return true
		}
	}
	return false
}

// localPath maps a manifest key onto disk.
func (v *Validator) localPath(rel string) string {
	return filepath.Join(v.gameDir, filepath.FromSlash(rel))
}

// hashLocal reads and hashes one local file.
func hashLocal(path string) (manifest.HashedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return manifest.HashedFile{}, err
	}
	return manifest.HashedFile{
		Size:     uint64(len(data)),
		Checksum: manifest.Checksum(t1ha.Digest128(data, hashSeed)),
	}, nil
}

// Validate runs one diff pass. Both result lists are sorted. A profile with
// no verified directories opts out of validation entirely.
func (v *Validator) Validate() (Result, error) {
	var res Result

	if len(v.verifyDirs) == 0 {
		return res, nil
	}

	for _, dir := range v.verifyDirs {
		root := v.localPath(dir)
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if os.IsNotExist(err) && path == root {
					return filepath.SkipAll
				}
				return err
			}
			if d.IsDir() {
				return nil
			}
			rel, err := filepath.Rel(v.gameDir, path)
			if err != nil {
				return err
			}
			rel = filepath.ToSlash(rel)
			if v.excluded(rel) {
				return nil
			}
			if _, ok := v.remote[rel]; !ok {
				res.Remove = append(res.Remove, rel)
			}
			return nil
		})
		if err != nil {
			return Result{}, fmt.Errorf("scan %q: %w", dir, err)
		}
	}

	for rel, remote := range v.remote {
		if v.excluded(rel) {
			continue
		}
		local, err := hashLocal(v.localPath(rel))
		if err != nil {
			if os.IsNotExist(err) {
				res.Download = append(res.Download, rel)
				continue
			}
			return Result{}, fmt.Errorf("hash %q: %w", rel, err)
		}
		if !remote.Matches(local) {
			res.Download = append(res.Download, rel)
		}
	}

	sort.Strings(res.Download)
	sort.Strings(res.Remove)
	return res, nil
}

// Reconcile validates and, when needed, downloads and removes until the tree
// matches. A second mismatch after reconciliation is fatal: the tree cannot
// be trusted.
func (v *Validator) Reconcile(ctx context.Context, d *downloader.Downloader) error {
	res, err := v.Validate()
	if err != nil {
		return err
	}
	if res.Success() {
		return nil
	}

	logger.Info("game directory needs update",
		"download", len(res.Download), "remove", len(res.Remove))

	tasks := make([]downloader.Task, 0, len(res.Download))
	for _, rel := range res.Download {
		tasks = append(tasks, downloader.Task{
			Path: v.localPath(rel),
			File: v.remote[rel],
		})
	}
	if err := d.Download(ctx, tasks); err != nil {
		return fmt.Errorf("download updates: %w", err)
	}
	for _, rel := range res.Remove {
		if err := os.Remove(v.localPath(rel)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove foreign file %q: %w", rel, err)
		}
		logger.Info("removed foreign file", logger.Path(rel))
	}

	res, err = v.Validate()
	if err != nil {
		return err
	}
	if res.Success() {
		return nil
	}
	return fmt.Errorf("game directory still differs after update: %s",
		offenders(res))
}

// offenders renders the first few mismatched paths for diagnostics.
func offenders(res Result) string {
	all := append(append([]string(nil), res.Download...), res.Remove...)
	sort.Strings(all)
	if len(all) > maxReported {
		return fmt.Sprintf("%v and %d more", all[:maxReported], len(all)-maxReported)
	}
	return fmt.Sprintf("%v", all)
}
