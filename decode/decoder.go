// Package decode turns instruction words into typed instruction records
// using the rules of an isa.Table.
package decode

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/apparentlymart/arm-meta/dispatch"
	"github.com/apparentlymart/arm-meta/isa"
)

// Config is the decode-time configuration. It is always passed
// explicitly and never stored by the decoder.
type Config struct {
	Version    isa.Version
	Extensions isa.ExtensionSet
}

func (c Config) String() string {
	if c.Extensions == 0 {
		return c.Version.String()
	}
	return fmt.Sprintf("%s+%s", c.Version, c.Extensions)
}

type options struct {
	dispatch dispatch.Options
	logger   zerolog.Logger
}

type Option func(*options)

// WithDispatch selects how the decision structures are built.
func WithDispatch(o dispatch.Options) Option {
	return func(opts *options) {
		opts.dispatch = o
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(opts *options) {
		opts.logger = l
	}
}

// Decoder decodes words against one table. It holds only read-only
// structures built by New, so one Decoder may be shared by any number of
// goroutines.
type Decoder struct {
	table *isa.Table
	trees map[isa.Width]*dispatch.Tree
}

func New(table *isa.Table, opts ...Option) (*Decoder, error) {
	o := options{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	d := &Decoder{
		table: table,
		trees: make(map[isa.Width]*dispatch.Tree),
	}
	for _, width := range table.Widths() {
		encs := table.EncodingsOf(width)
		if len(encs) == 0 {
			continue
		}
		entries := make([]dispatch.Entry, len(encs))
		for i, enc := range encs {
			entries[i] = dispatch.Entry{
				Mask:    uint32(enc.Mask),
				Pattern: uint32(enc.Pattern),
				Order:   enc.Discriminant(),
				Ref:     enc.Discriminant(),
			}
		}
		bits := uint8(32)
		if width == isa.Half16 {
			bits = 16
		}
		tree := dispatch.Build(entries, bits, o.dispatch)
		d.trees[width] = tree

		stats := tree.Stats()
		o.logger.Debug().
			Str("table", table.Name()).
			Stringer("width", width).
			Stringer("strategy", tree.Strategy).
			Int("encodings", len(encs)).
			Int("probes", stats.Probes).
			Int("leaves", stats.Leaves).
			Int("depth", stats.Depth).
			Int("max_leaf", stats.MaxLeaf).
			Msg("built dispatch tree")
	}
	if len(d.trees) == 0 {
		return nil, fmt.Errorf("table %s has no encodings", table.Name())
	}
	return d, nil
}

func (d *Decoder) Table() *isa.Table {
	return d.table
}

// Tree returns the decision structure for one width, or nil.
func (d *Decoder) Tree(w isa.Width) *dispatch.Tree {
	return d.trees[w]
}

// Decode decodes the instruction starting with word. For half-word tables
// only the low 16 bits of word and next are used, and next is consulted
// only when word begins a paired encoding; if it does and hasNext is false
// the result is IllegalTruncated and zero bytes are consumed.
//
// Decode never fails: words that do not decode yield an illegal
// instruction. The second result is the number of bytes consumed.
func (d *Decoder) Decode(word, next uint32, hasNext bool, pc uint32, cfg Config) (Instruction, int) {
	w, width, ok := d.assemble(word, next, hasNext)
	if !ok {
		return illegal(IllegalTruncated, DiscTruncated, word, 0, pc), 0
	}
	size := width.Size()
	tree := d.trees[width]
	if tree == nil {
		return illegal(IllegalNoMatch, DiscNoMatch, w, size, pc), size
	}

	unsupported := false
	encs := d.table.Encodings()
	for _, c := range tree.Lookup(w) {
		if !c.Matches(w) {
			continue
		}
		enc := encs[c.Ref]
		if !enc.Requires.Satisfied(cfg.Version, cfg.Extensions) {
			unsupported = true
			continue
		}
		return materialize(enc, w, size, pc), size
	}
	if unsupported {
		return illegal(IllegalUnsupported, DiscUnsupported, w, size, pc), size
	}
	return illegal(IllegalNoMatch, DiscNoMatch, w, size, pc), size
}

// DecodeWithDiscriminant rebuilds the instruction Decode returned with the
// given discriminant, without searching. The configuration must have the
// same version and extensions as the original call; the result is then
// identical to Decode's.
func (d *Decoder) DecodeWithDiscriminant(word, next uint32, hasNext bool, disc int, pc uint32, cfg Config) Instruction {
	w, width, ok := d.assemble(word, next, hasNext)
	if !ok {
		return illegal(IllegalTruncated, DiscTruncated, word, 0, pc)
	}
	size := width.Size()
	switch disc {
	case DiscNoMatch:
		return illegal(IllegalNoMatch, DiscNoMatch, w, size, pc)
	case DiscUnsupported:
		return illegal(IllegalUnsupported, DiscUnsupported, w, size, pc)
	}
	enc, ok := d.table.Encoding(disc)
	if !ok || enc.Width != width {
		return illegal(IllegalNoMatch, DiscNoMatch, w, size, pc)
	}
	return materialize(enc, w, size, pc)
}

// assemble forms the word to match and its width. Paired half-words are
// combined with the first half-word in the high bits.
func (d *Decoder) assemble(word, next uint32, hasNext bool) (uint32, isa.Width, bool) {
	if !d.table.Halfwords() {
		return word, isa.Word32, true
	}
	h := uint16(word)
	if !d.table.IsPairPrefix(h) {
		return uint32(h), isa.Half16, true
	}
	if !hasNext {
		return 0, isa.HalfPair, false
	}
	return uint32(h)<<16 | uint32(uint16(next)), isa.HalfPair, true
}

// materialize evaluates every binding of enc against w. A modifier or
// enum without a matching case, or a violated reserved bit, downgrades the
// result to IllegalReserved.
func materialize(enc *isa.Encoding, w uint32, size int, pc uint32) Instruction {
	disc := enc.Discriminant()
	if !enc.Reserved.Satisfied(w) {
		return illegal(IllegalReserved, disc, w, size, pc)
	}

	inst := Instruction{
		Encoding:     enc,
		Discriminant: disc,
		Raw:          w,
		Size:         size,
		PC:           pc,
	}
	for i, m := range enc.AppliedModifiers() {
		c := m.Match(w)
		if c < 0 {
			return illegal(IllegalReserved, disc, w, size, pc)
		}
		inst.Mods[i] = int8(c)
	}

	op := enc.Opcode()
	for i, p := range op.Params {
		v, ok := decodeBinding(enc.Binding(i), p.Type, w)
		if !ok {
			return illegal(IllegalReserved, disc, w, size, pc)
		}
		inst.Params[i] = v
	}

	var args argBuilder
	for i, p := range op.Params {
		args.flatten(inst.Params[i], p.Flags, i)
	}
	inst.Args = args.args
	return inst
}
