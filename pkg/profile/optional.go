package profile

import "github.com/team-ns/launcher/pkg/manifest"

// RuleCompare says whether a rule requires the client platform to match or
// to differ.
type RuleCompare string

const (
	CompareEqual    RuleCompare = "equal"
	CompareNotEqual RuleCompare = "not_equal"
)

// Rule gates an optional on the client platform.
type Rule struct {
	OsType  manifest.OsType `json:"osType"`
	Compare RuleCompare     `json:"compare"`
}

// Accepts reports whether the rule allows the given platform.
func (r Rule) Accepts(os manifest.OsType) bool {
	if r.Compare == CompareNotEqual {
		return r.OsType != os
	}
	return r.OsType == os
}

// ActionType discriminates optional actions.
type ActionType string

const (
	// ActionFile substitutes files in a manifest location.
	ActionFile ActionType = "file"
	// ActionArgs appends extra JVM arguments.
	ActionArgs ActionType = "args"
)

// ActionLocation is the manifest family a file action applies to.
type ActionLocation string

const (
	LocationProfile   ActionLocation = "profile"
	LocationLibraries ActionLocation = "libraries"
	LocationAssets    ActionLocation = "assets"
)

// Action is one effect of an optional: either a file substitution at a
// location, or extra JVM arguments.
type Action struct {
	Type     ActionType     `json:"type"`
	Location ActionLocation `json:"location,omitempty"`

	// Paths are files included unconditionally when the optional applies.
	Paths []string `json:"paths,omitempty"`

	// Rename maps a source path to the destination it replaces. When a
	// declared library is a rename destination of a relevant optional, the
	// source is served in its place.
	Rename map[string]string `json:"rename,omitempty"`

	Args []string `json:"args,omitempty"`
}

// Optional is a conditional feature modifier of a profile. A visible optional
// is offered to the user for selection; an invisible enabled optional applies
// automatically whenever its rules accept the client platform.
type Optional struct {
	Name        string   `json:"name,omitempty"`
	Description string   `json:"description,omitempty"`
	Enabled     bool     `json:"enabled"`
	Visible     bool     `json:"visible"`
	Rules       []Rule   `json:"rules,omitempty"`
	Actions     []Action `json:"actions,omitempty"`
}

// matchesOs reports whether every rule accepts the platform. An optional
// without rules applies everywhere.
func (o Optional) matchesOs(os manifest.OsType) bool {
	for _, r := range o.Rules {
		if !r.Accepts(os) {
			return false
		}
	}
	return true
}

// hasFileActions reports whether the optional touches any manifest location.
func (o Optional) hasFileActions() bool {
	for _, a := range o.Actions {
		if a.Type == ActionFile {
			return true
		}
	}
	return false
}

// FilePaths collects the unconditional include paths at the given location.
func (o Optional) FilePaths(loc ActionLocation) []string {
	var out []string
	for _, a := range o.Actions {
		if a.Type == ActionFile && a.Location == loc {
			out = append(out, a.Paths...)
		}
	}
	return out
}

// RenamePairs collects source→destination pairs at the given location.
func (o Optional) RenamePairs(loc ActionLocation) map[string]string {
	out := make(map[string]string)
	for _, a := range o.Actions {
		if a.Type != ActionFile || a.Location != loc {
			continue
		}
		for src, dst := range a.Rename {
			out[src] = dst
		}
	}
	return out
}

// ExtraJvmArgs collects additional JVM arguments in declaration order.
func (o Optional) ExtraJvmArgs() []string {
	var out []string
	for _, a := range o.Actions {
		if a.Type == ActionArgs {
			out = append(out, a.Args...)
		}
	}
	return out
}

// Relevant reports whether the optional applies for a platform and a user
// selection: its rules must accept the platform and it must either be
// auto-enabled (invisible + enabled) or explicitly selected.
func (o Optional) Relevant(os manifest.OsType, selected map[string]bool) bool {
	if !o.matchesOs(os) {
		return false
	}
	if !o.Visible {
		return o.Enabled
	}
	return selected[o.Name]
}
