package bytesize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want ByteSize
	}{
		{"0", 0},
		{"512", 512},
		{"1Ki", KiB},
		{"2Mi", 2 * MiB},
		{"2Gi", 2 * GiB},
		{"1K", KB},
		{"3M", 3 * MB},
		{"1G", GB},
	}
	for _, tc := range cases {
		got, err := Parse(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"", "abc", "-1Mi", "1Xi"} {
		_, err := Parse(in)
		assert.Error(t, err, in)
	}
}

func TestUnmarshalText(t *testing.T) {
	t.Parallel()

	var s ByteSize
	require.NoError(t, s.UnmarshalText([]byte("4Gi")))
	assert.Equal(t, 4*GiB, s)
}

func TestMegabytes(t *testing.T) {
	t.Parallel()

	assert.Equal(t, uint64(2048), (2 * GiB).Megabytes())
	assert.Equal(t, uint64(512), (512 * MiB).Megabytes())
}
