// Package defuse reports the registers an instruction reads and writes.
package defuse

import (
	"strings"

	"github.com/apparentlymart/arm-meta/decode"
	"github.com/apparentlymart/arm-meta/isa"
)

// Capacity bounds the registers one instruction can report: a full
// register list plus every other argument.
const Capacity = isa.NumRegs + isa.MaxArgs + 2

// Set is an unordered collection of registers. It does not deduplicate:
// a register named by two arguments appears twice.
type Set struct {
	regs [Capacity]isa.Reg
	n    int
}

func (s *Set) add(r isa.Reg) {
	if s.n < len(s.regs) {
		s.regs[s.n] = r
		s.n++
	}
}

func (s *Set) addList(list uint16) {
	for r := isa.Reg(0); r < isa.NumRegs; r++ {
		if list&(1<<r) != 0 {
			s.add(r)
		}
	}
}

func (s Set) Len() int {
	return s.n
}

// Regs returns the registers in argument order.
func (s Set) Regs() []isa.Reg {
	return append([]isa.Reg(nil), s.regs[:s.n]...)
}

func (s Set) Contains(r isa.Reg) bool {
	return s.Count(r) > 0
}

// Count returns how many times r was reported.
func (s Set) Count(r isa.Reg) int {
	ret := 0
	for _, o := range s.regs[:s.n] {
		if o == r {
			ret++
		}
	}
	return ret
}

func (s Set) String() string {
	names := make([]string, s.n)
	for i, r := range s.regs[:s.n] {
		names[i] = regName(r)
	}
	return "{" + strings.Join(names, ", ") + "}"
}

var names = [isa.NumRegs]string{
	"r0", "r1", "r2", "r3", "r4", "r5", "r6", "r7",
	"r8", "r9", "r10", "r11", "r12", "sp", "lr", "pc",
}

func regName(r isa.Reg) string {
	if r < isa.NumRegs {
		return names[r]
	}
	return "?"
}

// Defs returns the registers inst writes.
func Defs(inst decode.Instruction) Set {
	var s Set
	walk(inst, func(r isa.Reg, access isa.Access) {
		if access.Defs() {
			s.add(r)
		}
	}, func(list uint16, access isa.Access) {
		if access.Defs() {
			s.addList(list)
		}
	})
	return s
}

// Uses returns the registers inst reads.
func Uses(inst decode.Instruction) Set {
	var s Set
	walk(inst, func(r isa.Reg, access isa.Access) {
		if access.Uses() {
			s.add(r)
		}
	}, func(list uint16, access isa.Access) {
		if access.Uses() {
			s.addList(list)
		}
	})
	return s
}

// walk reports every register argument with its effective access. A base
// register is always read, and written only when it is written back.
// Offset and shift registers are always read.
func walk(inst decode.Instruction, reg func(isa.Reg, isa.Access), list func(uint16, isa.Access)) {
	op := inst.Opcode()
	if op == nil {
		return
	}
	for _, a := range inst.Arguments() {
		access := op.Params[a.Param].Access
		switch a.Kind {
		case isa.DisplayReg:
			if a.Flags.Has(isa.FlagMemBase) || a.Flags.Has(isa.FlagWriteback) {
				access = isa.AccessUse
				if a.Flags.Has(isa.FlagWriteback) {
					access = isa.AccessDefUse
				}
			}
			reg(a.Reg(), access)
		case isa.DisplayOffsetReg, isa.DisplayShiftReg:
			reg(a.Reg(), isa.AccessUse)
		case isa.DisplayRegList:
			list(uint16(a.Value), access)
		}
	}
}
