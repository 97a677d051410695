package profile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/team-ns/launcher/internal/logger"
	"github.com/team-ns/launcher/pkg/manifest"
)

// ErrNotFound is returned by Get for an unknown profile name.
var ErrNotFound = errors.New("profile not found")

const (
	profileFileName     = "profile.json"
	descriptionFileName = "description.txt"
	optionalsFileName   = "optionals.json"

	defaultDescription = "No description"
)

// Catalog owns the loaded profile set. Refresh replaces the set atomically;
// readers always observe a complete load.
type Catalog struct {
	mu       sync.RWMutex
	profiles map[string]*Data
	order    []string
}

// NewCatalog returns an empty catalog. Call Refresh to populate it.
func NewCatalog() *Catalog {
	return &Catalog{profiles: make(map[string]*Data)}
}

// Refresh reloads every profile under profilesDir. A profile directory that
// fails to parse is skipped with a warning; the refresh itself only fails on
// directory-level I/O errors.
func (c *Catalog) Refresh(profilesDir string) error {
	entries, err := os.ReadDir(profilesDir)
	if err != nil {
		return fmt.Errorf("read profiles dir %q: %w", profilesDir, err)
	}

	loaded := make(map[string]*Data)
	var order []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		data, err := loadProfileDir(filepath.Join(profilesDir, entry.Name()))
		if err != nil {
			logger.Warn("skipping invalid profile", logger.Profile(entry.Name()), logger.Err(err))
			continue
		}
		loaded[data.Profile.Name] = data
		order = append(order, data.Profile.Name)
	}
	sort.Strings(order)

	c.mu.Lock()
	c.profiles = loaded
	c.order = order
	c.mu.Unlock()

	logger.Info("profile catalog refreshed", "profiles", len(loaded))
	return nil
}

// loadProfileDir reads profile.json and its sidecar files from dir.
func loadProfileDir(dir string) (*Data, error) {
	raw, err := os.ReadFile(filepath.Join(dir, profileFileName))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", profileFileName, err)
	}

	var p Profile
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("parse %s: %w", profileFileName, err)
	}
	if p.Name == "" {
		return nil, fmt.Errorf("%s: profile name is required", profileFileName)
	}
	if p.Name != filepath.Base(dir) {
		logger.Warn("profile name differs from its directory",
			logger.Profile(p.Name), logger.Path(dir))
	}

	description := defaultDescription
	if raw, err := os.ReadFile(filepath.Join(dir, descriptionFileName)); err == nil {
		description = string(raw)
	}

	var optionals []Optional
	if raw, err := os.ReadFile(filepath.Join(dir, optionalsFileName)); err == nil {
		if err := json.Unmarshal(raw, &optionals); err != nil {
			return nil, fmt.Errorf("parse %s: %w", optionalsFileName, err)
		}
		optionals = validateOptionals(p.Name, optionals)
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read %s: %w", optionalsFileName, err)
	}

	return &Data{Profile: p, Description: description, Optionals: optionals}, nil
}

// validateOptionals drops invalid and duplicate optionals, keeping the first
// occurrence of each name.
func validateOptionals(profileName string, optionals []Optional) []Optional {
	seen := make(map[string]bool)
	out := optionals[:0]
	for _, opt := range optionals {
		if opt.Visible && opt.Name == "" {
			logger.Warn("dropping visible optional without a name", logger.Profile(profileName))
			continue
		}
		if opt.Name != "" {
			if seen[opt.Name] {
				logger.Warn("dropping duplicate optional",
					logger.Profile(profileName), "optional", opt.Name)
				continue
			}
			seen[opt.Name] = true
		}
		if !opt.Visible && opt.Enabled && (opt.Name != "" || opt.Description != "") {
			logger.Warn("optional is auto-enabled but carries display fields",
				logger.Profile(profileName), "optional", opt.Name)
		}
		out = append(out, opt)
	}
	return out
}

// ListInfo returns the user-visible projection of every profile, with each
// optional list filtered for the client platform.
func (c *Catalog) ListInfo(os manifest.OsType) []Info {
	c.mu.RLock()
	defer c.mu.RUnlock()

	infos := make([]Info, 0, len(c.order))
	for _, name := range c.order {
		infos = append(infos, c.profiles[name].Info(os))
	}
	return infos
}

// Get returns the profile data for name, or ErrNotFound.
func (c *Catalog) Get(name string) (*Data, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	data, ok := c.profiles[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return data, nil
}

// Names returns the profile names in listing order.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.order...)
}

// selectedSet turns a selection list into a lookup set.
func selectedSet(selected []string) map[string]bool {
	set := make(map[string]bool, len(selected))
	for _, name := range selected {
		set[name] = true
	}
	return set
}

// RelevantOptionals returns the optionals that apply for the platform and
// selection, in declaration order.
func (d *Data) RelevantOptionals(os manifest.OsType, selected []string) []Optional {
	set := selectedSet(selected)
	var out []Optional
	for _, opt := range d.Optionals {
		if opt.Relevant(os, set) {
			out = append(out, opt)
		}
	}
	return out
}

// IrrelevantOptionals returns the complement of RelevantOptionals restricted
// to optionals with file actions; these are the ones whose files must be
// subtracted from the served manifests.
func (d *Data) IrrelevantOptionals(os manifest.OsType, selected []string) []Optional {
	set := selectedSet(selected)
	var out []Optional
	for _, opt := range d.Optionals {
		if !opt.Relevant(os, set) && opt.hasFileActions() {
			out = append(out, opt)
		}
	}
	return out
}
