// Package dispatch builds decision structures that map an instruction
// word to the encodings it could match, most specific first.
package dispatch

import (
	"fmt"
	"math/bits"
	"sort"
	"strings"

	"github.com/bits-and-blooms/bitset"
)

// Entry is one encoding as seen by the builder.
type Entry struct {
	Mask    uint32
	Pattern uint32

	// Order is the declaration order, used to break ties between entries
	// of equal specificity.
	Order int

	// Ref identifies the encoding to the caller. The builder never
	// interprets it.
	Ref int
}

func (e Entry) Matches(w uint32) bool {
	return w&e.Mask == e.Pattern
}

// specificity is the number of constrained bits.
func (e Entry) specificity() int {
	return bits.OnesCount32(e.Mask)
}

// Strategy selects how the decision structure is built.
type Strategy uint8

const (
	// Adaptive builds a binary decision tree, choosing at every node the
	// bit that minimizes the largest resulting bucket.
	Adaptive Strategy = iota

	// Buckets builds a single table indexed by a selector bit group.
	Buckets
)

func (s Strategy) String() string {
	switch s {
	case Adaptive:
		return "adaptive"
	case Buckets:
		return "buckets"
	default:
		return fmt.Sprintf("Strategy(%d)", uint8(s))
	}
}

// ParseStrategy accepts the names printed by Strategy.String.
func ParseStrategy(s string) (Strategy, error) {
	switch s {
	case "adaptive", "tree":
		return Adaptive, nil
	case "buckets", "bucket":
		return Buckets, nil
	}
	return 0, fmt.Errorf("unknown dispatch strategy %q", s)
}

type Options struct {
	Strategy Strategy

	// Selector fixes the bucket selector bits for the Buckets strategy.
	// When zero the builder chooses up to MaxSelectorBits greedily.
	Selector        uint32
	MaxSelectorBits int

	// LeafSize is the candidate count at or below which the adaptive
	// builder stops splitting. Zero means 2.
	LeafSize int
}

const defaultMaxSelectorBits = 8

// Node is either a probe, whose Bits select one of its Children, or a
// leaf holding the candidates for every word that reaches it.
type Node struct {
	// Bits are the probed bit positions; bit i of the child index is
	// taken from word bit Bits[i].
	Bits     []uint8
	Children []*Node

	Candidates []Entry
}

func (n *Node) IsLeaf() bool {
	return n.Children == nil
}

// childIndex gathers the probed bits of w into a child index.
func (n *Node) childIndex(w uint32) int {
	idx := 0
	for i, b := range n.Bits {
		idx |= int(w>>b&1) << i
	}
	return idx
}

// Tree is an immutable decision structure built for one word width.
type Tree struct {
	Width    uint8
	Strategy Strategy
	Root     *Node
}

// Lookup returns the priority-ordered candidates for w. The caller must
// still test each candidate against w.
func (t *Tree) Lookup(w uint32) []Entry {
	n := t.Root
	for !n.IsLeaf() {
		n = n.Children[n.childIndex(w)]
	}
	return n.Candidates
}

// Build returns a decision structure for entries, which must all fit in
// width bits.
func Build(entries []Entry, width uint8, opts Options) *Tree {
	sorted := Prioritize(entries)
	b := &builder{
		width:  width,
		all:    sorted,
		leaves: make(map[string]*Node),
	}
	t := &Tree{Width: width, Strategy: opts.Strategy}
	idx := make([]int, len(sorted))
	for i := range idx {
		idx[i] = i
	}
	switch opts.Strategy {
	case Buckets:
		selector := opts.Selector
		if selector == 0 {
			limit := opts.MaxSelectorBits
			if limit == 0 {
				limit = defaultMaxSelectorBits
			}
			selector = b.chooseSelector(idx, limit)
		}
		t.Root = b.buckets(idx, selector)
	default:
		leafSize := opts.LeafSize
		if leafSize == 0 {
			leafSize = 2
		}
		t.Root = b.tree(idx, 0, leafSize)
	}
	return t
}

// Prioritize returns a copy of entries ordered most specific first, then
// by declaration order.
func Prioritize(entries []Entry) []Entry {
	ret := make([]Entry, len(entries))
	copy(ret, entries)
	sort.SliceStable(ret, func(i, j int) bool {
		si, sj := ret[i].specificity(), ret[j].specificity()
		if si != sj {
			return si > sj
		}
		return ret[i].Order < ret[j].Order
	})
	return ret
}

type builder struct {
	width  uint8
	all    []Entry
	leaves map[string]*Node
}

// leaf returns the shared leaf for a set of candidates. Candidate index
// lists are always in priority order, so equal sets are equal lists.
func (b *builder) leaf(idx []int) *Node {
	set := bitset.New(uint(len(b.all)))
	for _, i := range idx {
		set.Set(uint(i))
	}
	key := set.String()
	if n, ok := b.leaves[key]; ok {
		return n
	}
	n := &Node{Candidates: make([]Entry, len(idx))}
	for i, j := range idx {
		n.Candidates[i] = b.all[j]
	}
	b.leaves[key] = n
	return n
}

func (b *builder) tree(idx []int, probed uint32, leafSize int) *Node {
	if len(idx) <= leafSize {
		return b.leaf(idx)
	}
	best, bestMax := -1, len(idx)
	for bit := 0; bit < int(b.width); bit++ {
		if probed&(1<<bit) != 0 {
			continue
		}
		zeros, ones := b.splitCounts(idx, uint8(bit))
		if m := max(zeros, ones); m < bestMax {
			best, bestMax = bit, m
		}
	}
	if best < 0 {
		return b.leaf(idx)
	}
	bit := uint8(best)
	return &Node{
		Bits: []uint8{bit},
		Children: []*Node{
			b.tree(b.consistent(idx, []uint8{bit}, 0), probed|1<<bit, leafSize),
			b.tree(b.consistent(idx, []uint8{bit}, 1), probed|1<<bit, leafSize),
		},
	}
}

// splitCounts counts the candidates that survive each value of bit.
// Candidates that leave the bit unconstrained survive both.
func (b *builder) splitCounts(idx []int, bit uint8) (zeros, ones int) {
	for _, i := range idx {
		e := b.all[i]
		if e.Mask>>bit&1 == 0 {
			zeros++
			ones++
		} else if e.Pattern>>bit&1 == 0 {
			zeros++
		} else {
			ones++
		}
	}
	return zeros, ones
}

// consistent filters idx down to the entries that agree with key on the
// selected bit positions.
func (b *builder) consistent(idx []int, positions []uint8, key int) []int {
	var ret []int
	for _, i := range idx {
		e := b.all[i]
		ok := true
		for k, pos := range positions {
			if e.Mask>>pos&1 == 0 {
				continue
			}
			if int(e.Pattern>>pos&1) != key>>k&1 {
				ok = false
				break
			}
		}
		if ok {
			ret = append(ret, i)
		}
	}
	return ret
}

func (b *builder) buckets(idx []int, selector uint32) *Node {
	positions := maskPositions(selector)
	n := &Node{
		Bits:     positions,
		Children: make([]*Node, 1<<len(positions)),
	}
	for key := range n.Children {
		n.Children[key] = b.leaf(b.consistent(idx, positions, key))
	}
	return n
}

// chooseSelector greedily adds the bit that most reduces the largest
// bucket until no bit helps or limit bits are chosen.
func (b *builder) chooseSelector(idx []int, limit int) uint32 {
	var selector uint32
	current := len(idx)
	for chosen := 0; chosen < limit; chosen++ {
		best, bestMax := -1, current
		for bit := 0; bit < int(b.width); bit++ {
			if selector&(1<<bit) != 0 {
				continue
			}
			if m := b.largestBucket(idx, maskPositions(selector|1<<bit)); m < bestMax {
				best, bestMax = bit, m
			}
		}
		if best < 0 {
			break
		}
		selector |= 1 << best
		current = bestMax
	}
	return selector
}

func (b *builder) largestBucket(idx []int, positions []uint8) int {
	largest := 0
	for key := 0; key < 1<<len(positions); key++ {
		if n := len(b.consistent(idx, positions, key)); n > largest {
			largest = n
		}
	}
	return largest
}

func maskPositions(mask uint32) []uint8 {
	var ret []uint8
	for mask != 0 {
		bit := bits.TrailingZeros32(mask)
		ret = append(ret, uint8(bit))
		mask &^= 1 << bit
	}
	return ret
}

// Stats summarizes the shape of a tree.
type Stats struct {
	Probes    int
	Leaves    int
	Depth     int
	MaxLeaf   int
	Entries   int
	SharedMax int
}

func (t *Tree) Stats() Stats {
	var s Stats
	seen := make(map[*Node]int)
	var walk func(n *Node, depth int)
	walk = func(n *Node, depth int) {
		if depth > s.Depth {
			s.Depth = depth
		}
		if n.IsLeaf() {
			seen[n]++
			if seen[n] > 1 {
				return
			}
			s.Leaves++
			s.Entries += len(n.Candidates)
			if len(n.Candidates) > s.MaxLeaf {
				s.MaxLeaf = len(n.Candidates)
			}
			return
		}
		s.Probes++
		for _, c := range n.Children {
			walk(c, depth+1)
		}
	}
	walk(t.Root, 0)
	for _, refs := range seen {
		if refs > s.SharedMax {
			s.SharedMax = refs
		}
	}
	return s
}

// Dump writes an indented outline of the tree, for debugging.
func (t *Tree) Dump(name func(Entry) string) string {
	var b strings.Builder
	var walk func(n *Node, indent int)
	walk = func(n *Node, indent int) {
		pad := strings.Repeat("  ", indent)
		if n.IsLeaf() {
			names := make([]string, len(n.Candidates))
			for i, c := range n.Candidates {
				names[i] = name(c)
			}
			fmt.Fprintf(&b, "%sleaf [%s]\n", pad, strings.Join(names, ", "))
			return
		}
		for key, c := range n.Children {
			fmt.Fprintf(&b, "%sbits %v = %d:\n", pad, n.Bits, key)
			walk(c, indent+1)
		}
	}
	walk(t.Root, 0)
	return b.String()
}
