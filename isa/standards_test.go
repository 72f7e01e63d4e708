package isa

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVersion(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]Version{"v4": V4, "ARMv4T": V4T, "armv5te": V5TE, "v6t2": V6T2, "v7": V7} {
		got, err := ParseVersion(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseVersion("v8")
	assert.ErrorContains(t, err, `unknown architecture version "v8"`)
	assert.Equal(t, "Version(200)", Version(200).String())
}

func TestParseExtension(t *testing.T) {
	t.Parallel()

	got, err := ParseExtension("DSP")
	require.NoError(t, err)
	assert.Equal(t, ExtDSP, got)
	_, err = ParseExtension("neon")
	assert.Error(t, err)
}

func TestVersionsFrom(t *testing.T) {
	t.Parallel()

	s := VersionsFrom(V5TE)
	assert.False(t, s.Has(V5T))
	assert.True(t, s.Has(V5TE))
	assert.True(t, s.Has(V7))
	assert.Equal(t, "v5te, v6, v6k, v6t2, v7", s.String())
	assert.Equal(t, AllVersions, VersionsFrom(V4))
}

func TestRequiresSatisfied(t *testing.T) {
	t.Parallel()

	r := Since(V5T, ExtDSP)
	assert.True(t, r.Satisfied(V5TE, Extensions(ExtDSP)))
	assert.True(t, r.Satisfied(V7, AllExtensions))
	assert.False(t, r.Satisfied(V4T, AllExtensions))
	assert.False(t, r.Satisfied(V7, Extensions(ExtIDIV)))
	assert.Equal(t, "versions: v5t, v5te, v6, v6k, v6t2, v7; extensions: dsp", r.String())

	assert.True(t, Requires{}.Satisfied(V4, 0))
	assert.Equal(t, "always", Requires{}.String())

	set := Extensions(ExtDSP).Union(Extensions(ExtIDIV))
	assert.Equal(t, 2, set.Len())
	assert.True(t, AllExtensions.HasAll(set))
	assert.False(t, set.HasAll(AllExtensions))
	assert.Equal(t, "dsp, idiv", set.String())
}
