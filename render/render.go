// Package render produces assembly text from decoded instructions.
package render

import (
	"fmt"
	"strings"

	"github.com/apparentlymart/arm-meta/decode"
	"github.com/apparentlymart/arm-meta/isa"
)

// IllegalText is the text of every illegal instruction.
const IllegalText = "<illegal>"

// Dialect is a textual syntax convention.
type Dialect uint8

const (
	// UAL is the unified assembler language.
	UAL Dialect = iota

	// Divided is the older divided syntax, with condition codes before
	// size suffixes and separate spellings for some opcode families.
	Divided
)

func (d Dialect) String() string {
	if d == Divided {
		return "divided"
	}
	return "ual"
}

func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(s) {
	case "", "ual", "unified":
		return UAL, nil
	case "divided", "pre-ual", "legacy":
		return Divided, nil
	}
	return 0, fmt.Errorf("unknown syntax dialect %q", s)
}

// Options is the display-time configuration.
type Options struct {
	Dialect Dialect
	Regs    RegNames
}

// Resolver names branch targets and PC-relative memory locations.
type Resolver interface {
	Lookup(source, destination uint32) (string, bool)
}

type ResolverFunc func(source, destination uint32) (string, bool)

func (f ResolverFunc) Lookup(source, destination uint32) (string, bool) {
	return f(source, destination)
}

// SymbolMap resolves destinations by exact address.
type SymbolMap map[uint32]string

func (m SymbolMap) Lookup(_, destination uint32) (string, bool) {
	name, ok := m[destination]
	return name, ok
}

// Render returns the assembly text of inst. The resolver may be nil.
func Render(inst decode.Instruction, opts Options, r Resolver) string {
	mnemonic, operands := Parts(inst, opts, r)
	if operands == "" {
		return mnemonic
	}
	return mnemonic + " " + operands
}

// Parts returns the mnemonic and operand text of inst separately.
func Parts(inst decode.Instruction, opts Options, r Resolver) (mnemonic, operands string) {
	if decode.IsIllegal(inst) {
		return IllegalText, ""
	}
	alt := opts.Dialect == Divided
	return Mnemonic(inst, alt), operandText(inst, opts, alt, r)
}

// Mnemonic expands the opcode's mnemonic template for one dialect.
func Mnemonic(inst decode.Instruction, alt bool) string {
	enc := inst.Encoding
	if enc == nil {
		return IllegalText
	}
	var b strings.Builder
	for _, tok := range enc.Opcode().Template(alt) {
		if tok.Modifier == "" {
			b.WriteString(tok.Text)
			continue
		}
		if idx := enc.ModifierIndex(tok.Modifier); idx >= 0 {
			m := enc.AppliedModifiers()[idx]
			b.WriteString(m.Text(int(inst.Mods[idx]), alt))
		}
	}
	return b.String()
}

// selectArgs orders the instruction's arguments by the dialect's operand
// list, leaving out hidden parameters.
func selectArgs(inst *decode.Instruction, alt bool) []decode.Arg {
	var buf [2 * isa.MaxArgs]decode.Arg
	ret := buf[:0]
	all := inst.Arguments()
	for _, operand := range inst.Opcode().OperandList(alt) {
		for _, a := range all {
			if int(a.Param) != operand.Index() {
				continue
			}
			if operand.AsShift {
				a.Shift = operand.Shift
				switch a.Kind {
				case isa.DisplayImm:
					a.Kind = isa.DisplayShiftImm
				case isa.DisplayReg:
					a.Kind = isa.DisplayShiftReg
				}
			}
			if len(ret) < cap(ret) {
				ret = append(ret, a)
			}
		}
	}
	return ret
}

func operandText(inst decode.Instruction, opts Options, alt bool, r Resolver) string {
	var b strings.Builder
	var (
		inDeref    bool
		pendingWB  bool
		base       isa.Reg
		symbol     string
		haveSymbol bool
	)
	lookup := func(dest uint32) {
		if r == nil || haveSymbol {
			return
		}
		symbol, haveSymbol = r.Lookup(inst.PC, dest)
	}
	// A dereference closed early by a post-indexed offset writes back
	// implicitly, so only one closed at its natural end gets the '!'.
	closeDeref := func(early bool) {
		b.WriteByte(']')
		if pendingWB && !early {
			b.WriteByte('!')
		}
		inDeref, pendingWB = false, false
	}

	first := true
	for _, a := range selectArgs(&inst, alt) {
		if inDeref && a.Flags.Has(isa.FlagEndsDeref) {
			closeDeref(true)
		}

		if a.Kind == isa.DisplayBranch {
			lookup(branchTarget(inst, a))
		}
		if inDeref && a.Kind == isa.DisplayOffsetImm {
			if base == isa.RegPC {
				lookup(pcRelative(inst, a))
			}
			if a.Value == 0 && !a.Flags.Has(isa.FlagSubtract) {
				// A zero immediate offset inside the brackets is left out.
				continue
			}
		}

		if !first {
			b.WriteString(", ")
		}
		first = false

		if a.Flags.Has(isa.FlagMemBase) {
			b.WriteByte('[')
			inDeref = true
			pendingWB = a.Flags.Has(isa.FlagWriteback)
			base = a.Reg()
			b.WriteString(opts.Regs.Name(base))
			continue
		}
		writeArg(&b, inst, a, opts)
		if a.Kind == isa.DisplayReg && a.Flags.Has(isa.FlagWriteback) {
			b.WriteByte('!')
		}
	}
	if inDeref {
		closeDeref(false)
	}
	if haveSymbol {
		fmt.Fprintf(&b, " <%s>", symbol)
	}
	return b.String()
}

func branchTarget(inst decode.Instruction, a decode.Arg) uint32 {
	pc := inst.PC + inst.Encoding.Table().PCBias()
	if a.Flags.Has(isa.FlagAlignPC) {
		pc &^= 3
	}
	return uint32(int64(pc) + a.Value)
}

func pcRelative(inst decode.Instruction, a decode.Arg) uint32 {
	pc := inst.PC + inst.Encoding.Table().PCBias()
	if a.Flags.Has(isa.FlagAlignPC) {
		pc &^= 3
	}
	if a.Flags.Has(isa.FlagSubtract) {
		return pc - uint32(a.Value)
	}
	return pc + uint32(a.Value)
}

func writeArg(b *strings.Builder, inst decode.Instruction, a decode.Arg, opts Options) {
	switch a.Kind {
	case isa.DisplayReg:
		b.WriteString(opts.Regs.Name(a.Reg()))
	case isa.DisplayRegList:
		writeRegList(b, uint16(a.Value), opts)
		if a.Flags.Has(isa.FlagUserMode) {
			b.WriteByte('^')
		}
	case isa.DisplayImm:
		fmt.Fprintf(b, "#0x%x", uint64(a.Value))
	case isa.DisplaySImm:
		writeSigned(b, a.Value)
	case isa.DisplayBranch:
		fmt.Fprintf(b, "#0x%x", branchTarget(inst, a))
	case isa.DisplayOffsetImm:
		if a.Flags.Has(isa.FlagSubtract) {
			fmt.Fprintf(b, "#-0x%x", uint64(a.Value))
		} else {
			fmt.Fprintf(b, "#0x%x", uint64(a.Value))
		}
	case isa.DisplayOffsetReg:
		if a.Flags.Has(isa.FlagSubtract) {
			b.WriteByte('-')
		}
		b.WriteString(opts.Regs.Name(a.Reg()))
	case isa.DisplayShiftImm, isa.DisplayRotation:
		fmt.Fprintf(b, "%s #0x%x", a.Shift, uint64(a.Value))
	case isa.DisplayShiftReg:
		fmt.Fprintf(b, "%s %s", a.Shift, opts.Regs.Name(a.Reg()))
	case isa.DisplayRRX:
		b.WriteString("rrx")
	case isa.DisplayCoproc:
		fmt.Fprintf(b, "p%d", a.Value)
	case isa.DisplayCoReg:
		fmt.Fprintf(b, "c%d", a.Value)
	case isa.DisplayCoOption:
		fmt.Fprintf(b, "{%d}", a.Value)
	case isa.DisplayStatusReg:
		b.WriteString(statusReg(a.Value != 0))
	case isa.DisplayStatusFields:
		b.WriteString(statusReg(a.Value&0x10 != 0))
		if fields := a.Value & 0xf; fields != 0 {
			b.WriteByte('_')
			for _, f := range []struct {
				bit    int64
				letter byte
			}{{8, 'f'}, {4, 's'}, {2, 'x'}, {1, 'c'}} {
				if fields&f.bit != 0 {
					b.WriteByte(f.letter)
				}
			}
		}
	}
}

func writeSigned(b *strings.Builder, v int64) {
	if v < 0 {
		fmt.Fprintf(b, "#-0x%x", uint64(-v))
		return
	}
	fmt.Fprintf(b, "#0x%x", uint64(v))
}

func writeRegList(b *strings.Builder, list uint16, opts Options) {
	b.WriteByte('{')
	first := true
	for r := isa.Reg(0); r < isa.NumRegs; r++ {
		if list&(1<<r) == 0 {
			continue
		}
		if !first {
			b.WriteString(", ")
		}
		first = false
		b.WriteString(opts.Regs.Name(r))
	}
	b.WriteByte('}')
}

func statusReg(spsr bool) string {
	if spsr {
		return "spsr"
	}
	return "cpsr"
}
