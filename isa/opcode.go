package isa

import (
	"fmt"
	"strings"
)

// Fixed capacities of a decoded instruction. Table validation rejects
// opcodes that could exceed them.
const (
	MaxArgs      = 6
	MaxParams    = 6
	MaxModifiers = 3
)

// Width is the shape of an encoding's bit pattern.
type Width uint8

const (
	Word32   Width = iota // one 32-bit word
	Half16                // one 16-bit half-word
	HalfPair              // two half-words, the first in bits 31..16
)

func (w Width) String() string {
	switch w {
	case Word32:
		return "word32"
	case Half16:
		return "half16"
	case HalfPair:
		return "halfpair"
	default:
		return fmt.Sprintf("Width(%d)", uint8(w))
	}
}

func (w Width) Mask() Bits {
	if w == Half16 {
		return 0xffff
	}
	return 0xffffffff
}

// Size is the number of bytes an instruction of this width consumes.
func (w Width) Size() int {
	if w == Half16 {
		return 2
	}
	return 4
}

// Access says whether an instruction reads or writes a parameter.
type Access uint8

const (
	AccessNone   Access = 0
	AccessUse    Access = 1
	AccessDef    Access = 2
	AccessDefUse        = AccessUse | AccessDef
)

func (a Access) Uses() bool { return a&AccessUse != 0 }
func (a Access) Defs() bool { return a&AccessDef != 0 }

type Param struct {
	Name   string
	Type   *DataType
	Access Access
	Flags  ArgFlags
}

// Operand places a parameter in a rendered operand list. AsShift renders
// an immediate or register parameter as the amount of a shift by Shift.
type Operand struct {
	Param   string
	AsShift bool
	Shift   ShiftOp

	index int
}

func Op(param string) Operand {
	return Operand{Param: param}
}

func ShiftBy(op ShiftOp, param string) Operand {
	return Operand{Param: param, AsShift: true, Shift: op}
}

// Index returns the resolved parameter index.
func (o Operand) Index() int {
	return o.index
}

// Reserved bits must hold fixed values for the encoding to be legal but
// do not take part in matching.
type Reserved struct {
	SBO Bits
	SBZ Bits
}

func (r Reserved) Mask() Bits {
	return r.SBO | r.SBZ
}

// Satisfied reports whether w holds the required reserved bit values.
func (r Reserved) Satisfied(w uint32) bool {
	return Bits(w)&r.SBO == r.SBO && Bits(w)&r.SBZ == 0
}

// Case is one alternative of a modifier.
type Case struct {
	Mask    Bits
	Pattern Bits
	Text    string
	AltText string
}

// Modifier is a bit group shared by many opcodes, such as the condition
// field. Its text is spliced into mnemonics wherever the template names it.
// When HasAlt is set the divided dialect uses each case's AltText.
type Modifier struct {
	Name   string
	Cases  []Case
	HasAlt bool
}

// Mask returns the bits every case of the modifier claims.
func (m *Modifier) Mask() Bits {
	if len(m.Cases) == 0 {
		return 0
	}
	return m.Cases[0].Mask
}

// Match returns the index of the case matching w, or -1.
func (m *Modifier) Match(w uint32) int {
	for i, c := range m.Cases {
		if Bits(w)&c.Mask == c.Pattern {
			return i
		}
	}
	return -1
}

// Text returns the text of case i in the given dialect.
func (m *Modifier) Text(i int, alt bool) string {
	if alt && m.HasAlt {
		return m.Cases[i].AltText
	}
	return m.Cases[i].Text
}

// Encoding is one bit pattern of an opcode together with its parameter
// bindings.
type Encoding struct {
	Width     Width
	Mask      Bits
	Pattern   Bits
	Requires  Requires
	Modifiers []string
	Bind      map[string]Binding
	Reserved  Reserved

	opcode *Opcode
	table  *Table
	disc   int
	mods   []*Modifier
	binds  []Binding
}

func (e *Encoding) Opcode() *Opcode { return e.opcode }
func (e *Encoding) Table() *Table   { return e.table }

// Discriminant is the encoding's stable index within its table.
func (e *Encoding) Discriminant() int { return e.disc }

// Matches reports whether w agrees with the encoding's pattern.
func (e *Encoding) Matches(w uint32) bool {
	return Bits(w)&e.Mask == e.Pattern
}

// AppliedModifiers returns the modifiers applied by the encoding, in the
// order of its Modifiers list.
func (e *Encoding) AppliedModifiers() []*Modifier {
	return e.mods
}

// ModifierIndex returns the position of the named modifier among those
// applied by the encoding, or -1.
func (e *Encoding) ModifierIndex(name string) int {
	for i, m := range e.mods {
		if m.Name == name {
			return i
		}
	}
	return -1
}

// Binding returns the resolved binding of the opcode's i'th parameter.
func (e *Encoding) Binding(i int) *Binding {
	return &e.binds[i]
}

func (e *Encoding) String() string {
	return fmt.Sprintf("%s[%s %s/%s]", e.opcode.Name, e.Width, e.Pattern, e.Mask)
}

// Opcode is a named instruction with one or more encodings.
//
// Mnemonic is a template such as "add{s}{cond}" in which each braced name
// is replaced by the text of that modifier. AltMnemonic and AltOperands
// give the divided dialect's spelling when it differs. A nil operand list
// renders every parameter in declaration order.
type Opcode struct {
	Name        string
	Mnemonic    string
	AltMnemonic string
	Params      []Param
	Operands    []Operand
	AltOperands []Operand
	Encodings   []*Encoding

	template    []Token
	altTemplate []Token
}

// Token is one piece of a compiled mnemonic template: either literal
// text or a modifier reference.
type Token struct {
	Text     string
	Modifier string
}

// Template returns the compiled mnemonic template for a dialect.
func (o *Opcode) Template(alt bool) []Token {
	if alt && o.altTemplate != nil {
		return o.altTemplate
	}
	return o.template
}

// OperandList returns the resolved operand list for a dialect.
func (o *Opcode) OperandList(alt bool) []Operand {
	if alt && o.AltOperands != nil {
		return o.AltOperands
	}
	return o.Operands
}

// ParamIndex returns the index of the named parameter, or -1.
func (o *Opcode) ParamIndex(name string) int {
	for i, p := range o.Params {
		if p.Name == name {
			return i
		}
	}
	return -1
}

func parseTemplate(tmpl string) ([]Token, error) {
	var ret []Token
	for tmpl != "" {
		open := strings.IndexByte(tmpl, '{')
		if open < 0 {
			ret = append(ret, Token{Text: tmpl})
			break
		}
		if open > 0 {
			ret = append(ret, Token{Text: tmpl[:open]})
		}
		rest := tmpl[open+1:]
		end := strings.IndexByte(rest, '}')
		if end <= 0 {
			return nil, fmt.Errorf("unterminated or empty modifier reference in %q", tmpl)
		}
		ret = append(ret, Token{Modifier: rest[:end]})
		tmpl = rest[end+1:]
	}
	if len(ret) == 0 {
		return nil, fmt.Errorf("empty mnemonic")
	}
	return ret, nil
}
