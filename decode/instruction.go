package decode

import (
	"fmt"

	"github.com/apparentlymart/arm-meta/isa"
)

// Illegal says why an instruction did not decode.
type Illegal uint8

const (
	IllegalNone Illegal = iota

	// IllegalNoMatch: no encoding's pattern agrees with the word.
	IllegalNoMatch

	// IllegalUnsupported: a pattern matched, but only for encodings the
	// configuration excludes.
	IllegalUnsupported

	// IllegalReserved: the matched encoding's reserved bits, modifiers or
	// enum selectors reject the word.
	IllegalReserved

	// IllegalTruncated: the second half of a paired encoding is missing.
	IllegalTruncated
)

func (k Illegal) String() string {
	switch k {
	case IllegalNone:
		return "legal"
	case IllegalNoMatch:
		return "no match"
	case IllegalUnsupported:
		return "unsupported"
	case IllegalReserved:
		return "reserved"
	case IllegalTruncated:
		return "truncated"
	default:
		return fmt.Sprintf("Illegal(%d)", uint8(k))
	}
}

// Discriminants of instructions that matched no encoding. Every other
// discriminant is an encoding's index in its table.
const (
	DiscNoMatch     = -1
	DiscUnsupported = -2
	DiscTruncated   = -3
)

// Instruction is a decoded instruction. It is a plain value that owns
// nothing from the input buffer.
type Instruction struct {
	// Encoding is the matched encoding, or nil when Illegal is set.
	Encoding *isa.Encoding

	Discriminant int
	Illegal      Illegal

	// Raw is the matched word; paired half-words hold the first
	// half-word in bits 31..16.
	Raw  uint32
	Size int
	PC   uint32

	// Mods holds the matched case of each modifier the encoding applies.
	Mods [isa.MaxModifiers]int8

	// Params holds one value per opcode parameter.
	Params [isa.MaxParams]Value

	// Args is the flattened argument sequence, terminated by the first
	// argument whose Kind is isa.DisplayNone.
	Args [isa.MaxArgs]Arg
}

func illegal(kind Illegal, disc int, raw uint32, size int, pc uint32) Instruction {
	return Instruction{
		Discriminant: disc,
		Illegal:      kind,
		Raw:          raw,
		Size:         size,
		PC:           pc,
	}
}

// IsIllegal reports whether the instruction failed to decode. The zero
// Instruction, which names no encoding, is illegal too.
func IsIllegal(inst Instruction) bool {
	return inst.Illegal != IllegalNone || inst.Encoding == nil
}

// Opcode returns the matched opcode, or nil.
func (i *Instruction) Opcode() *isa.Opcode {
	if i.Encoding == nil {
		return nil
	}
	return i.Encoding.Opcode()
}

// Arguments returns the arguments up to the sentinel.
func (i *Instruction) Arguments() []Arg {
	for n, a := range i.Args {
		if a.Kind == isa.DisplayNone {
			return i.Args[:n]
		}
	}
	return i.Args[:]
}

// Param returns the value of the named parameter.
func (i *Instruction) Param(name string) (Value, bool) {
	op := i.Opcode()
	if op == nil {
		return Value{}, false
	}
	idx := op.ParamIndex(name)
	if idx < 0 {
		return Value{}, false
	}
	return i.Params[idx], true
}

// Modifier returns the matched case of the named modifier.
func (i *Instruction) Modifier(name string) (int, bool) {
	if i.Encoding == nil {
		return 0, false
	}
	idx := i.Encoding.ModifierIndex(name)
	if idx < 0 {
		return 0, false
	}
	return int(i.Mods[idx]), true
}

// Arg is one rendered argument. Value holds a register number, register
// list bitmap or immediate, depending on Kind.
type Arg struct {
	Kind  isa.Display
	Flags isa.ArgFlags
	Shift isa.ShiftOp
	Param int8
	Value int64
}

// Reg returns the argument's register.
func (a Arg) Reg() isa.Reg {
	return isa.Reg(a.Value)
}

// Value is a decoded parameter or member value. Primitive values hold
// their payload in Int; composite values hold their members, and enums
// the index of the selected variant.
type Value struct {
	Type    *isa.DataType
	Int     int64
	Variant int
	Members []Value
}

// VariantName returns the name of an enum value's variant.
func (v Value) VariantName() string {
	if v.Type == nil || v.Type.Kind != isa.TypeEnum {
		return ""
	}
	return v.Type.Variants[v.Variant].Name
}

// Member returns the named member of a struct or enum value.
func (v Value) Member(name string) (Value, bool) {
	if v.Type == nil {
		return Value{}, false
	}
	var members []isa.Member
	switch v.Type.Kind {
	case isa.TypeStruct:
		members = v.Type.Members
	case isa.TypeEnum:
		members = v.Type.Variants[v.Variant].Members
	}
	for i, m := range members {
		if m.Name == name {
			return v.Members[i], true
		}
	}
	return Value{}, false
}
