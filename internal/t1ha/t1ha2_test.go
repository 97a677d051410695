package t1ha

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// knownDigests pins the digest for inputs spanning the tail switch, the
// 32-byte block loop and both seeds. Any change to the mixing constants or
// the update order breaks these.
var knownDigests = []struct {
	length int
	seed   uint64
	digest string
}{
	{0, 0, "0ab0338ea4f6c74e8d6bd9efdc1b9787"},
	{1, 0, "ec31c823be3badb75aea0d2676f6882d"},
	{7, 0, "c2a502450f4b4e40ce6276af7b3075f6"},
	{8, 0, "a135c885bfa781bcaf9601c68e177b23"},
	{9, 0, "c9004dd5024a9a00dd00ed26d161340f"},
	{16, 0, "5d53c8576049b9c15601f26439356393"},
	{17, 0, "5127b5409b3118705693adb7de567dec"},
	{24, 0, "b78ef4676d869b3f6189145a9f41a798"},
	{25, 0, "f0cb55cf07d1fcc809323fc3be76ba4b"},
	{31, 0, "48d9a359bf2efdb1f9f3d01ec0b8a9e7"},
	{32, 0, "e8dbda7f4edb526c1f076ac3a187b3b9"},
	{33, 0, "7895cde020cb72cc91404a18af3e9c1c"},
	{63, 0, "32380176b740a6ac804e9d0bfcfeb459"},
	{64, 0, "ceefa7f5c3e3ea0d3d82fbb7f2c8444d"},
	{65, 0, "f9c7be13cac70cc2b7bcd228902426f9"},
	{127, 0, "0e185e84ada0c7596de74b6c9f8b4b20"},
	{128, 0, "844ee9cd917074c661dfa3ef0a1e2c74"},
	{1000, 0, "34c45528d83b2f95ac99107f2351c3e1"},
	{0, 0x0123456789ABCDEF, "1db6ff473dc7e55505f41c34b9c905f9"},
	{13, 0x0123456789ABCDEF, "0b21bb93658e5e4c4adcb5c6cc7edab6"},
	{32, 0x0123456789ABCDEF, "3cd522ca9ca72f995e170f402da8fcde"},
	{100, 0x0123456789ABCDEF, "322c6d58c7715bca59df47cf90bc8bc6"},
}

// knownInput generates the deterministic byte pattern the known digests
// were computed over.
func knownInput(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i*131 + 57)
	}
	return data
}

func TestDigest128KnownAnswers(t *testing.T) {
	t.Parallel()

	for _, tc := range knownDigests {
		digest := Digest128(knownInput(tc.length), tc.seed)
		require.Equal(t, tc.digest, hex.EncodeToString(digest[:]),
			"length %d seed %#x", tc.length, tc.seed)
	}
}

func TestSum128Deterministic(t *testing.T) {
	t.Parallel()

	data := []byte("the quick brown fox jumps over the lazy dog")
	h1, x1 := Sum128(data, 0)
	h2, x2 := Sum128(data, 0)
	assert.Equal(t, h1, h2)
	assert.Equal(t, x1, x2)
}

func TestSum128SeedSensitivity(t *testing.T) {
	t.Parallel()

	data := []byte("identical input")
	h1, _ := Sum128(data, 0)
	h2, _ := Sum128(data, 1)
	assert.NotEqual(t, h1, h2)
}

func TestSum128InputSensitivity(t *testing.T) {
	t.Parallel()

	a := make([]byte, 256)
	b := make([]byte, 256)
	b[255] = 1

	ha, xa := Sum128(a, 0)
	hb, xb := Sum128(b, 0)
	assert.False(t, ha == hb && xa == xb, "single flipped byte must change the digest")
}

// Digests must differ across every tail-switch and block boundary length.
func TestSum128LengthBoundaries(t *testing.T) {
	t.Parallel()

	lengths := []int{0, 1, 7, 8, 9, 15, 16, 17, 23, 24, 25, 31, 32, 33, 63, 64, 65, 95, 96, 97, 1024}
	seen := make(map[[16]byte]int)
	for _, n := range lengths {
		data := make([]byte, n)
		for i := range data {
			data[i] = byte(i * 31)
		}
		digest := Digest128(data, 0)
		prev, dup := seen[digest]
		require.False(t, dup, "length %d collides with length %d", n, prev)
		seen[digest] = n
	}
}

func TestDigest128Layout(t *testing.T) {
	t.Parallel()

	data := []byte("layout check")
	primary, extra := Sum128(data, 42)
	digest := Digest128(data, 42)

	var fromSums [16]byte
	for i := 0; i < 8; i++ {
		fromSums[i] = byte(primary >> (8 * i))
		fromSums[8+i] = byte(extra >> (8 * i))
	}
	assert.Equal(t, fromSums, [16]byte(digest))
}

func TestSum128PrefixIndependence(t *testing.T) {
	t.Parallel()

	// A digest over a prefix must not equal the digest over the full input.
	data := make([]byte, 128)
	for i := range data {
		data[i] = byte(i)
	}
	full := Digest128(data, 0)
	prefix := Digest128(data[:64], 0)
	assert.NotEqual(t, full, prefix)
}
