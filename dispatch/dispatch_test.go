package dispatch

import (
	"math/rand"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// linear is the reference decoder every tree must agree with: the
// matching entries in priority order.
func linear(sorted []Entry, w uint32) []int {
	var ret []int
	for _, e := range sorted {
		if e.Matches(w) {
			ret = append(ret, e.Ref)
		}
	}
	return ret
}

func matching(candidates []Entry, w uint32) []int {
	var ret []int
	for _, e := range candidates {
		if e.Matches(w) {
			ret = append(ret, e.Ref)
		}
	}
	return ret
}

func randomEntries(seed int64, n int, width uint8) []Entry {
	rng := rand.New(rand.NewSource(seed))
	full := uint32(1)<<width - 1
	ret := make([]Entry, n)
	for i := range ret {
		mask := rng.Uint32() & rng.Uint32() & full
		ret[i] = Entry{
			Mask:    mask,
			Pattern: rng.Uint32() & mask,
			Order:   i,
			Ref:     i,
		}
	}
	return ret
}

func TestPrioritize(t *testing.T) {
	t.Parallel()

	entries := []Entry{
		{Mask: 0x0f, Order: 0, Ref: 0},
		{Mask: 0xff, Order: 1, Ref: 1},
		{Mask: 0xf0, Order: 2, Ref: 2},
		{Mask: 0x01, Order: 3, Ref: 3},
	}
	sorted := Prioritize(entries)
	refs := make([]int, len(sorted))
	for i, e := range sorted {
		refs[i] = e.Ref
	}
	assert.Equal(t, []int{1, 0, 2, 3}, refs)
	assert.Equal(t, 0, entries[0].Ref, "input is not reordered")
}

func TestTreeAgreesWithLinearScan(t *testing.T) {
	properties := gopter.NewProperties(nil)

	for _, opts := range []Options{
		{Strategy: Adaptive},
		{Strategy: Adaptive, LeafSize: 5},
		{Strategy: Buckets},
		{Strategy: Buckets, Selector: 0xf000},
	} {
		properties.Property(opts.Strategy.String()+" lookup keeps every match in order", prop.ForAll(
			func(seed int64, w uint16) bool {
				entries := randomEntries(seed, 24, 16)
				tree := Build(entries, 16, opts)
				want := linear(Prioritize(entries), uint32(w))
				got := matching(tree.Lookup(uint32(w)), uint32(w))
				if len(want) == 0 {
					return len(got) == 0
				}
				return assert.ObjectsAreEqual(want, got)
			},
			gen.Int64(),
			gen.UInt16(),
		))
	}

	properties.TestingRun(t)
}

func TestTreeExhaustive(t *testing.T) {
	t.Parallel()

	entries := randomEntries(1, 40, 16)
	sorted := Prioritize(entries)
	for _, strategy := range []Strategy{Adaptive, Buckets} {
		tree := Build(entries, 16, Options{Strategy: strategy})
		for w := uint32(0); w < 1<<16; w++ {
			want := linear(sorted, w)
			got := matching(tree.Lookup(w), w)
			if len(want) != len(got) {
				require.Equal(t, want, got, "%s word %#04x", strategy, w)
			}
			for i := range want {
				if want[i] != got[i] {
					require.Equal(t, want, got, "%s word %#04x", strategy, w)
				}
			}
		}
	}
}

func TestLeavesAreShared(t *testing.T) {
	t.Parallel()

	// Bits 7..4 are never constrained, so the buckets they select are
	// identical and share one leaf.
	entries := []Entry{
		{Mask: 0x0f, Pattern: 0x01, Order: 0, Ref: 0},
		{Mask: 0x0f, Pattern: 0x02, Order: 1, Ref: 1},
		{Mask: 0x03, Pattern: 0x03, Order: 2, Ref: 2},
	}
	tree := Build(entries, 8, Options{Strategy: Buckets, Selector: 0xf0})
	require.Len(t, tree.Root.Children, 16)
	for _, c := range tree.Root.Children[1:] {
		assert.Same(t, tree.Root.Children[0], c)
	}

	stats := tree.Stats()
	assert.Equal(t, 1, stats.Probes)
	assert.Equal(t, 1, stats.Leaves)
	assert.Equal(t, 16, stats.SharedMax)
	assert.Equal(t, 3, stats.MaxLeaf)
}

func TestBuildEmpty(t *testing.T) {
	t.Parallel()

	for _, strategy := range []Strategy{Adaptive, Buckets} {
		tree := Build(nil, 32, Options{Strategy: strategy})
		assert.Empty(t, tree.Lookup(0xe0812003))
	}
}

func TestDump(t *testing.T) {
	t.Parallel()

	entries := []Entry{
		{Mask: 0x1, Pattern: 0x0, Ref: 0},
		{Mask: 0x1, Pattern: 0x1, Order: 1, Ref: 1},
	}
	tree := Build(entries, 8, Options{LeafSize: 1})
	names := []string{"even", "odd"}
	dump := tree.Dump(func(e Entry) string { return names[e.Ref] })
	assert.Equal(t, "bits [0] = 0:\n  leaf [even]\nbits [0] = 1:\n  leaf [odd]\n", dump)
}

func TestParseStrategy(t *testing.T) {
	t.Parallel()

	s, err := ParseStrategy("buckets")
	require.NoError(t, err)
	assert.Equal(t, Buckets, s)
	_, err = ParseStrategy("hash")
	assert.Error(t, err)
}
