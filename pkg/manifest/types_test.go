package manifest

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChecksumJSON(t *testing.T) {
	t.Parallel()

	var c Checksum
	copy(c[:], []byte{0xde, 0xad, 0xbe, 0xef})

	raw, err := json.Marshal(c)
	require.NoError(t, err)
	assert.Equal(t, `"deadbeef000000000000000000000000"`, string(raw))

	var back Checksum
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, c, back)
}

func TestChecksumJSONRejectsBadInput(t *testing.T) {
	t.Parallel()

	var c Checksum
	assert.Error(t, json.Unmarshal([]byte(`"zz"`), &c), "non-hex input")
	assert.Error(t, json.Unmarshal([]byte(`"abcd"`), &c), "wrong length")
}

func TestRemoteFileMatches(t *testing.T) {
	t.Parallel()

	remote := RemoteFile{URI: "https://example.com/a", Size: 10, Checksum: Checksum{1}}
	assert.True(t, remote.Matches(HashedFile{Size: 10, Checksum: Checksum{1}}))
	assert.False(t, remote.Matches(HashedFile{Size: 11, Checksum: Checksum{1}}))
	assert.False(t, remote.Matches(HashedFile{Size: 10, Checksum: Checksum{2}}))
}

func TestRemoteDirectoryClone(t *testing.T) {
	t.Parallel()

	dir := RemoteDirectory{"a.jar": {Size: 1}}
	clone := dir.Clone()
	delete(clone, "a.jar")
	clone["b.jar"] = RemoteFile{Size: 2}

	assert.Contains(t, dir, "a.jar")
	assert.NotContains(t, dir, "b.jar")
}

func TestOsTypeValid(t *testing.T) {
	t.Parallel()

	for _, os := range []OsType{LinuxX32, LinuxX64, MacOsX64, WindowsX32, WindowsX64} {
		assert.True(t, os.Valid(), os)
	}
	assert.False(t, OsType("SolarisX64").Valid())
	assert.False(t, OsType("").Valid())
}

func TestLocationKeys(t *testing.T) {
	t.Parallel()

	// Locations are map keys; distinct coordinates must be distinct keys.
	locs := []Location{
		ProfileLocation("vanilla"),
		LibrariesLocation("vanilla"),
		AssetsLocation("vanilla"),
		NativesLocation("1.12.2", LinuxX64),
		NativesLocation("1.12.2", WindowsX64),
		JresLocation("jre8", LinuxX64),
	}
	set := make(map[Location]bool)
	for _, loc := range locs {
		set[loc] = true
	}
	assert.Len(t, set, len(locs))

	assert.Equal(t, "natives/1.12.2/LinuxX64", NativesLocation("1.12.2", LinuxX64).String())
	assert.Equal(t, "jre/jre8/LinuxX64", JresLocation("jre8", LinuxX64).String())
}
