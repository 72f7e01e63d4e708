package isa

import (
	"errors"
	"fmt"

	"github.com/SaveTheRbtz/mph"
)

// Prefix marks the first half-words that begin a paired encoding.
type Prefix struct {
	Mask    uint16
	Pattern uint16
}

// TableSpec is the declarative description of an instruction set, as
// handed to NewTable.
type TableSpec struct {
	Name string

	// Halfwords selects a stream of 16-bit half-words, possibly paired,
	// rather than 32-bit words.
	Halfwords bool

	// PCBias is how far ahead of an instruction's address the PC reads.
	PCBias uint32

	PairPrefixes []Prefix
	Modifiers    []*Modifier
	Opcodes      []*Opcode
}

// Table is a validated, immutable instruction set. It is safe for
// concurrent use once NewTable returns.
type Table struct {
	name      string
	halfwords bool
	pcBias    uint32
	prefixes  []Prefix
	modifiers map[string]*Modifier
	opcodes   []*Opcode
	encodings []*Encoding
	names     *mph.Table
	nameIndex []*Opcode
}

// ValidationError describes one problem found in a TableSpec. Encoding is
// -1 when the problem concerns the opcode as a whole.
type ValidationError struct {
	Opcode   string
	Encoding int
	Err      error
}

func (e *ValidationError) Error() string {
	switch {
	case e.Opcode == "":
		return e.Err.Error()
	case e.Encoding < 0:
		return fmt.Sprintf("opcode %s: %s", e.Opcode, e.Err)
	default:
		return fmt.Sprintf("opcode %s encoding %d: %s", e.Opcode, e.Encoding, e.Err)
	}
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewTable validates spec and builds a table from it. All problems found
// are returned together. The opcodes, encodings and types in spec belong
// to the table afterwards and must not be modified.
func NewTable(spec TableSpec) (*Table, error) {
	t := &Table{
		name:      spec.Name,
		halfwords: spec.Halfwords,
		pcBias:    spec.PCBias,
		prefixes:  spec.PairPrefixes,
		modifiers: make(map[string]*Modifier, len(spec.Modifiers)),
	}

	var errs []error
	for _, m := range spec.Modifiers {
		if err := validateModifier(m); err != nil {
			errs = append(errs, &ValidationError{Encoding: -1, Err: err})
			continue
		}
		if _, exists := t.modifiers[m.Name]; exists {
			errs = append(errs, &ValidationError{Encoding: -1, Err: fmt.Errorf("duplicate modifier %q", m.Name)})
			continue
		}
		t.modifiers[m.Name] = m
	}

	seenNames := make(map[string]bool, len(spec.Opcodes))
	seenTypes := make(map[*DataType]bool)
	for _, op := range spec.Opcodes {
		if seenNames[op.Name] {
			errs = append(errs, &ValidationError{Opcode: op.Name, Encoding: -1, Err: errors.New("duplicate opcode name")})
			continue
		}
		seenNames[op.Name] = true

		opErrs := t.addOpcode(op, seenTypes)
		errs = append(errs, opErrs...)
	}
	if len(t.opcodes) == 0 && len(errs) == 0 {
		errs = append(errs, &ValidationError{Encoding: -1, Err: errors.New("table has no opcodes")})
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	keys := make([]string, len(t.opcodes))
	for i, op := range t.opcodes {
		keys[i] = op.Name
	}
	t.names = mph.Build(keys)
	t.nameIndex = t.opcodes

	return t, nil
}

// MustNewTable is like NewTable but panics on a validation error. It is
// intended for statically-declared tables.
func MustNewTable(spec TableSpec) *Table {
	t, err := NewTable(spec)
	if err != nil {
		panic(fmt.Sprintf("invalid %s instruction table: %s", spec.Name, err))
	}
	return t
}

func (t *Table) addOpcode(op *Opcode, seenTypes map[*DataType]bool) []error {
	var errs []error
	opErr := func(enc int, err error) {
		errs = append(errs, &ValidationError{Opcode: op.Name, Encoding: enc, Err: err})
	}

	if err := t.checkOpcode(op, seenTypes); err != nil {
		opErr(-1, err)
		return errs
	}

	type key struct {
		width         Width
		mask, pattern Bits
	}
	seenPatterns := make(map[key]int)
	for i, enc := range op.Encodings {
		k := key{enc.Width, enc.Mask, enc.Pattern}
		if prev, exists := seenPatterns[k]; exists {
			opErr(i, fmt.Errorf("same mask and pattern as encoding %d", prev))
			continue
		}
		seenPatterns[k] = i

		if err := t.checkEncoding(op, enc); err != nil {
			opErr(i, err)
		}
	}
	if len(errs) > 0 {
		return errs
	}

	for _, enc := range op.Encodings {
		enc.opcode = op
		enc.table = t
		enc.disc = len(t.encodings)
		t.encodings = append(t.encodings, enc)
	}
	t.opcodes = append(t.opcodes, op)
	return nil
}

func (t *Table) Name() string { return t.name }

// Halfwords reports whether the table decodes a stream of half-words.
func (t *Table) Halfwords() bool { return t.halfwords }

// Unit is the alignment of instructions in the table's stream, in bytes.
func (t *Table) Unit() int {
	if t.halfwords {
		return 2
	}
	return 4
}

func (t *Table) PCBias() uint32 { return t.pcBias }

// Widths returns the encoding widths instructions of this table can have.
func (t *Table) Widths() []Width {
	if t.halfwords {
		return []Width{Half16, HalfPair}
	}
	return []Width{Word32}
}

// IsPairPrefix reports whether a first half-word starts a paired encoding.
func (t *Table) IsPairPrefix(h uint16) bool {
	for _, p := range t.prefixes {
		if h&p.Mask == p.Pattern {
			return true
		}
	}
	return false
}

func (t *Table) Opcodes() []*Opcode {
	return t.opcodes
}

// Encodings returns every encoding, indexed by discriminant.
func (t *Table) Encodings() []*Encoding {
	return t.encodings
}

// EncodingsOf returns the encodings of one width in declaration order.
func (t *Table) EncodingsOf(w Width) []*Encoding {
	var ret []*Encoding
	for _, enc := range t.encodings {
		if enc.Width == w {
			ret = append(ret, enc)
		}
	}
	return ret
}

// Encoding returns the encoding with the given discriminant.
func (t *Table) Encoding(disc int) (*Encoding, bool) {
	if disc < 0 || disc >= len(t.encodings) {
		return nil, false
	}
	return t.encodings[disc], true
}

func (t *Table) OpcodeByName(name string) (*Opcode, bool) {
	i, ok := t.names.Lookup(name)
	if !ok {
		return nil, false
	}
	return t.nameIndex[i], true
}

func (t *Table) Modifier(name string) (*Modifier, bool) {
	m, ok := t.modifiers[name]
	return m, ok
}
