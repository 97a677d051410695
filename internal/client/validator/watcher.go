package validator

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/team-ns/launcher/internal/logger"
)

// pollInterval is the fallback scan cadence when native watch registration
// fails.
const pollInterval = time.Second

// tamperError is a watcher violation naming the offending path.
type tamperError struct {
	path   string
	reason string
}

func (e *tamperError) Error() string {
	return fmt.Sprintf("game directory tampered: %s (%s)", e.path, e.reason)
}

// Watch blocks until ctx is canceled (returns nil) or a violation is
// detected (returns a non-nil error naming the path). It must only be called
// after a successful validation pass.
func (v *Validator) Watch(ctx context.Context) error {
	err := v.watchNative(ctx)
	if err == errNativeUnavailable {
		logger.Warn("native file watch unavailable, falling back to polling")
		return v.watchPolling(ctx)
	}
	return err
}

var errNativeUnavailable = fmt.Errorf("native watch unavailable")

// watchNative runs the fsnotify-backed watcher. Registration failure is
// reported as errNativeUnavailable so the caller can fall back to polling.
func (v *Validator) watchNative(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Debug("fsnotify init failed", logger.Err(err))
		return errNativeUnavailable
	}
	defer w.Close()

	for _, dir := range v.verifyDirs {
		if err := v.addRecursive(w, v.localPath(dir)); err != nil {
			logger.Debug("fsnotify registration failed", logger.Path(dir), logger.Err(err))
			return errNativeUnavailable
		}
	}

	logger.Info("watching game directory", "dirs", len(v.verifyDirs))
	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("file watch failed: %w", err)
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if err := v.handleEvent(w, event); err != nil {
				return err
			}
		}
	}
}

// addRecursive registers dir and every subdirectory, skipping excluded
// prefixes.
func (v *Validator) addRecursive(w *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == dir {
				return filepath.SkipAll
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(v.gameDir, path)
		if err != nil {
			return err
		}
		if v.excluded(filepath.ToSlash(rel) + "/") {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}

// handleEvent checks one notification against the manifest.
func (v *Validator) handleEvent(w *fsnotify.Watcher, event fsnotify.Event) error {
	rel, err := filepath.Rel(v.gameDir, event.Name)
	if err != nil {
		return err
	}
	rel = filepath.ToSlash(rel)
	if v.excluded(rel) {
		return nil
	}

	info, statErr := os.Stat(event.Name)
	if statErr == nil && info.IsDir() {
		// New directories join the watch; anything inside them raises its
		// own events.
		if event.Has(fsnotify.Create) {
			return v.addRecursive(w, event.Name)
		}
		return nil
	}

	remote, known := v.remote[rel]
	switch {
	case event.Has(fsnotify.Create) && !known:
		return &tamperError{path: rel, reason: "foreign file created"}
	case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
		if known {
			return &tamperError{path: rel, reason: "monitored file removed"}
		}
		return nil
	case event.Has(fsnotify.Write) || event.Has(fsnotify.Create):
		if !known {
			return &tamperError{path: rel, reason: "foreign file created"}
		}
		local, err := hashLocal(event.Name)
		if err != nil {
			if os.IsNotExist(err) {
				return &tamperError{path: rel, reason: "monitored file removed"}
			}
			return err
		}
		if !remote.Matches(local) {
			return &tamperError{path: rel, reason: "content mismatch"}
		}
	}
	return nil
}

// fileStamp is the polling watcher's cheap change signal.
type fileStamp struct {
	size    int64
	modTime time.Time
}

// watchPolling rescans the verify dirs on a fixed cadence, re-hashing only
// files whose size or mtime changed.
func (v *Validator) watchPolling(ctx context.Context) error {
	stamps, err := v.snapshot()
	if err != nil {
		return err
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			next, err := v.snapshot()
			if err != nil {
				return err
			}
			if err := v.diffStamps(stamps, next); err != nil {
				return err
			}
			stamps = next
		}
	}
}

// snapshot stamps every non-excluded file under the verify dirs.
func (v *Validator) snapshot() (map[string]fileStamp, error) {
	stamps := make(map[string]fileStamp)
	for _, dir := range v.verifyDirs {
		root := v.localPath(dir)
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if os.IsNotExist(err) {
					return nil
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
			info, err := d.Info()
			if err != nil {
				return nil
			}
			stamps[rel] = fileStamp{size: info.Size(), modTime: info.ModTime()}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("poll scan %q: %w", dir, err)
		}
	}
	return stamps, nil
}

// diffStamps checks a new snapshot against the previous one.
func (v *Validator) diffStamps(prev, next map[string]fileStamp) error {
	for rel, stamp := range next {
		remote, known := v.remote[rel]
		if !known {
			return &tamperError{path: rel, reason: "foreign file created"}
		}
		if old, ok := prev[rel]; ok && old == stamp {
			continue
		}
		local, err := hashLocal(v.localPath(rel))
		if err != nil {
			if os.IsNotExist(err) {
				return &tamperError{path: rel, reason: "monitored file removed"}
			}
			return err
		}
		if !remote.Matches(local) {
			return &tamperError{path: rel, reason: "content mismatch"}
		}
	}
	for rel := range prev {
		if _, ok := next[rel]; !ok {
			if _, known := v.remote[rel]; known {
				return &tamperError{path: rel, reason: "monitored file removed"}
			}
		}
	}
	return nil
}
