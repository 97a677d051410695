// Package manifest defines the content-addressing data model shared by the
// LaunchServer and the Launcher: hashed files, remote files, per-location
// manifests and the location keys they are filed under.
//
// A manifest is the server's answer to "what should this client's tree
// contain": a mapping from a relative path (forward-slash normalized on the
// wire) to a RemoteFile carrying an absolute URI, the byte size and a 128-bit
// t1ha2 content hash.
package manifest

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// OsType identifies a client platform. It selects the natives and JRE
// manifests a client receives and gates optional rules.
type OsType string

const (
	LinuxX32   OsType = "LinuxX32"
	LinuxX64   OsType = "LinuxX64"
	MacOsX64   OsType = "MacOsX64"
	WindowsX32 OsType = "WindowsX32"
	WindowsX64 OsType = "WindowsX64"
)

// Valid reports whether t is one of the enumerated platforms.
func (t OsType) Valid() bool {
	switch t {
	case LinuxX32, LinuxX64, MacOsX64, WindowsX32, WindowsX64:
		return true
	}
	return false
}

// Checksum is a t1ha2-atonce-128 digest over full file bytes.
type Checksum [16]byte

// String returns the lowercase hex form used on the wire and in logs.
func (c Checksum) String() string {
	return hex.EncodeToString(c[:])
}

// MarshalJSON encodes the checksum as a hex string.
func (c Checksum) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON decodes a hex string checksum.
func (c *Checksum) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("invalid checksum %q: %w", s, err)
	}
	if len(raw) != len(c) {
		return fmt.Errorf("invalid checksum length %d, want %d", len(raw), len(c))
	}
	copy(c[:], raw)
	return nil
}

// HashedFile is the local-side identity of a file: size plus content hash.
type HashedFile struct {
	Size     uint64   `json:"size"`
	Checksum Checksum `json:"checksum"`
}

// RemoteFile is a HashedFile that is additionally resolvable over HTTPS.
type RemoteFile struct {
	URI      string   `json:"uri"`
	Size     uint64   `json:"size"`
	Checksum Checksum `json:"checksum"`
}

// Matches reports whether the local file h is the same content as r.
func (r RemoteFile) Matches(h HashedFile) bool {
	return r.Size == h.Size && r.Checksum == h.Checksum
}

// RemoteDirectory maps a relative, forward-slash path to its RemoteFile.
type RemoteDirectory map[string]RemoteFile

// Clone returns a shallow copy. RemoteFile values are immutable so a shallow
// copy is sufficient for per-request filtering.
func (d RemoteDirectory) Clone() RemoteDirectory {
	out := make(RemoteDirectory, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Location is the tagged key a manifest is filed under. Exactly one of the
// constructor helpers below should be used; comparability makes it usable as
// a map key.
type Location struct {
	Kind    LocationKind
	Name    string // profile name, asset set or jre name depending on Kind
	Version string // natives only
	Os      OsType // natives and jres only
}

// LocationKind enumerates the manifest families the hasher produces.
type LocationKind uint8

const (
	KindProfile LocationKind = iota
	KindLibraries
	KindAssets
	KindNatives
	KindJres
)

func (k LocationKind) String() string {
	switch k {
	case KindProfile:
		return "profile"
	case KindLibraries:
		return "libraries"
	case KindAssets:
		return "assets"
	case KindNatives:
		return "natives"
	case KindJres:
		return "jre"
	default:
		return "unknown"
	}
}

// ProfileLocation keys the per-profile file manifest.
func ProfileLocation(name string) Location {
	return Location{Kind: KindProfile, Name: name}
}

// LibrariesLocation keys the resolved library manifest of a profile.
func LibrariesLocation(profileName string) Location {
	return Location{Kind: KindLibraries, Name: profileName}
}

// AssetsLocation keys an asset set manifest.
func AssetsLocation(assetSet string) Location {
	return Location{Kind: KindAssets, Name: assetSet}
}

// NativesLocation keys the natives manifest of a version/platform pair.
func NativesLocation(version string, os OsType) Location {
	return Location{Kind: KindNatives, Version: version, Os: os}
}

// JresLocation keys a bundled runtime manifest for a platform.
func JresLocation(jreName string, os OsType) Location {
	return Location{Kind: KindJres, Name: jreName, Os: os}
}

func (l Location) String() string {
	switch l.Kind {
	case KindNatives:
		return fmt.Sprintf("natives/%s/%s", l.Version, l.Os)
	case KindJres:
		return fmt.Sprintf("jre/%s/%s", l.Name, l.Os)
	default:
		return fmt.Sprintf("%s/%s", l.Kind, l.Name)
	}
}
