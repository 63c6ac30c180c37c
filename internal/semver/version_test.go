package semver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_RoundTrip(t *testing.T) {
	for _, s := range []string{
		"1.2.3",
		"0.0.1",
		"1.2.3-alpha",
		"1.2.3-alpha.1",
		"1.2.3+build.5",
		"1.2.3-beta+exp.sha.5114f85",
		"1.2.3-0.0",
	} {
		v, err := Parse(s)
		require.NoError(t, err, s)
		assert.Equal(t, s, v.String())
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, s := range []string{
		"1.2",
		"1.2.3-",
		"1.2.3-.",
		"1.2.3+",
		"1.2.3-01",
		"-1.2.3",
		"1.2.3-alpha_beta",
		"",
	} {
		_, err := Parse(s)
		assert.Error(t, err, s)
	}
}

func TestVersion_Equal_IgnoresBuildMetadata(t *testing.T) {
	a := MustParse("1.2.3+build1")
	b := MustParse("1.2.3+build2")
	assert.True(t, a.Equal(b))
	assert.Equal(t, a.HashKey(), b.HashKey())
}

func TestVersion_Compare_PrereleaseOrdering(t *testing.T) {
	assert.True(t, MustParse("1.0.0-alpha").LessThan(MustParse("1.0.0")))
	assert.True(t, MustParse("1.0.0-alpha").LessThan(MustParse("1.0.0-alpha.1")))
	assert.True(t, MustParse("1.0.0-alpha.1").LessThan(MustParse("1.0.0-alpha.beta")))
	assert.True(t, MustParse("1.0.0-1").LessThan(MustParse("1.0.0-2")))
}

func TestSortUnique(t *testing.T) {
	vs := []Version{
		MustParse("2.0.0"),
		MustParse("1.1.1"),
		MustParse("1.1.0+build1"),
		MustParse("1.1.0+build2"),
		MustParse("1.0.0"),
	}
	got := SortUnique(vs)
	want := []string{"1.0.0", "1.1.0+build1", "1.1.1", "2.0.0"}
	require.Len(t, got, len(want))
	for i, w := range want {
		assert.Equal(t, w, got[i].String())
	}
}

func TestIsValid(t *testing.T) {
	assert.True(t, IsValid("1.0.0"))
	assert.False(t, IsValid("1.0"))
}
