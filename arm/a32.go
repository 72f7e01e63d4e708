package arm

import (
	"fmt"

	"github.com/apparentlymart/arm-meta/isa"
)

// a32Types are the composite types of the 32-bit instruction set. They
// are built afresh for each spec because a table resolves the bindings of
// the types it validates in place.
type a32Types struct {
	shiftImm, shiftReg, satShift, op2 *isa.DataType
	addr2, addr2T, addr3, addr5, pld  *isa.DataType
	statusFields, ldmBase, ldmRegs    *isa.DataType
}

// rotatedImm is the modified immediate of data processing instructions.
func rotatedImm() *isa.Formula {
	return isa.RotateRight(isa.R(7, 0), isa.ShiftLeft(isa.R(11, 8), 1))
}

// upBit turns the U bit into the subtract flag of an offset.
func upBit() isa.Binding {
	return formula(isa.Not(isa.Bit(23)))
}

func newA32Types() *a32Types {
	ty := &a32Types{}
	ty.shiftImm = isa.Struct("shift_imm", isa.DisplayShiftImm,
		member("op", numberType, bits(6, 5)),
		member("amount", immType, bits(11, 7)),
	)
	ty.shiftReg = isa.Struct("shift_reg", isa.DisplayShiftReg,
		member("op", numberType, bits(6, 5)),
		member("rs", regType, bits(11, 8)),
	)
	ty.satShift = isa.Struct("sat_shift", isa.DisplayShiftImm,
		member("op", numberType, formula(isa.ShiftLeft(isa.Bit(6), 1))),
		member("amount", immType, bits(11, 7)),
	)
	ty.op2 = isa.Enum("op2",
		variant("imm", "25=1",
			member("value", immType, formula(rotatedImm())),
		),
		variant("shift_imm", "25=0 4=0",
			member("rm", regType, bits(3, 0)),
			member("shift", ty.shiftImm, isa.BindDecode()),
		),
		variant("shift_reg", "25=0 7=0 4=1",
			member("rm", regType, bits(3, 0)),
			member("shift", ty.shiftReg, isa.BindDecode()),
		),
	)

	offImm12 := isa.Struct("offset_imm12", isa.DisplayOffsetImm,
		member("sub", flagType, upBit()),
		member("value", immType, bits(11, 0)),
	)
	offImm8 := isa.Struct("offset_imm8", isa.DisplayOffsetImm,
		member("sub", flagType, upBit()),
		member("value", immType, formula(isa.Concat(isa.R(11, 8), isa.R(3, 0)))),
	)
	offWords := isa.Struct("offset_words", isa.DisplayOffsetImm,
		member("sub", flagType, upBit()),
		member("value", immType, formula(isa.ShiftLeft(isa.R(7, 0), 2))),
	)
	offReg := isa.Struct("offset_reg", isa.DisplayOffsetReg,
		member("sub", flagType, upBit()),
		member("rm", regType, bits(3, 0)),
	)

	base := func(flags isa.ArgFlags) isa.Member {
		return member("rn", regType, bits(19, 16), isa.FlagMemBase|flags)
	}
	wb := isa.FlagWriteback
	post := isa.FlagEndsDeref
	shift := member("shift", ty.shiftImm, isa.BindDecode())

	ty.addr2 = isa.Enum("addrmode2",
		variant("offset_imm", "25=0 24=1 21=0", base(0), member("offset", offImm12, isa.BindDecode())),
		variant("pre_imm", "25=0 24=1 21=1", base(wb), member("offset", offImm12, isa.BindDecode())),
		variant("post_imm", "25=0 24=0 21=0", base(wb), member("offset", offImm12, isa.BindDecode(), post)),
		variant("offset_reg", "25=1 24=1 21=0 4=0", base(0), member("offset", offReg, isa.BindDecode()), shift),
		variant("pre_reg", "25=1 24=1 21=1 4=0", base(wb), member("offset", offReg, isa.BindDecode()), shift),
		variant("post_reg", "25=1 24=0 21=0 4=0", base(wb), member("offset", offReg, isa.BindDecode(), post), shift),
	)
	// The user-mode forms are always post-indexed; P and W are part of
	// their encodings.
	ty.addr2T = isa.Enum("addrmode2_t",
		variant("post_imm", "25=0", base(wb), member("offset", offImm12, isa.BindDecode(), post)),
		variant("post_reg", "25=1 4=0", base(wb), member("offset", offReg, isa.BindDecode(), post), shift),
	)
	ty.addr3 = isa.Enum("addrmode3",
		variant("offset_imm", "24=1 22=1 21=0", base(0), member("offset", offImm8, isa.BindDecode())),
		variant("pre_imm", "24=1 22=1 21=1", base(wb), member("offset", offImm8, isa.BindDecode())),
		variant("post_imm", "24=0 22=1 21=0", base(wb), member("offset", offImm8, isa.BindDecode(), post)),
		variant("offset_reg", "24=1 22=0 21=0 11..8=0", base(0), member("offset", offReg, isa.BindDecode())),
		variant("pre_reg", "24=1 22=0 21=1 11..8=0", base(wb), member("offset", offReg, isa.BindDecode())),
		variant("post_reg", "24=0 22=0 21=0 11..8=0", base(wb), member("offset", offReg, isa.BindDecode(), post)),
	)
	ty.addr5 = isa.Enum("addrmode5",
		variant("offset", "24=1 21=0", base(0), member("offset", offWords, isa.BindDecode())),
		variant("pre", "24=1 21=1", base(wb), member("offset", offWords, isa.BindDecode())),
		variant("post", "24=0 21=1", base(wb), member("offset", offWords, isa.BindDecode(), post)),
		variant("unindexed", "24=0 23=1 21=0", base(0), member("option", coOptionType, bits(7, 0), post)),
	)
	ty.pld = isa.Enum("pld_addr",
		variant("imm", "25=0", base(0), member("offset", offImm12, isa.BindDecode())),
		variant("reg", "25=1 4=0", base(0), member("offset", offReg, isa.BindDecode()), shift),
	)

	ty.statusFields = isa.Struct("status_fields", isa.DisplayStatusFields,
		member("spsr", psrType, isa.BindFlag(22)),
		member("mask", numberType, bits(19, 16)),
	)
	ty.ldmBase = isa.Enum("ldm_base",
		variant("plain", "21=0", member("rn", regType, bits(19, 16))),
		variant("writeback", "21=1", member("rn", regType, bits(19, 16), wb)),
	)
	ty.ldmRegs = isa.Enum("ldm_regs",
		variant("plain", "22=0", member("list", regListType, bits(15, 0))),
		variant("user", "22=1", member("list", regListType, bits(15, 0), isa.FlagUserMode)),
	)
	return ty
}

func a32Modifiers() []*isa.Modifier {
	return []*isa.Modifier{
		condModifier(28, 15),
		flagModifier("s", 20, "s"),
		{
			Name:   "amode",
			HasAlt: true,
			Cases: []isa.Case{
				{Mask: 3 << 23, Pattern: 0 << 23, Text: "da", AltText: "da"},
				{Mask: 3 << 23, Pattern: 1 << 23, Text: "", AltText: "ia"},
				{Mask: 3 << 23, Pattern: 2 << 23, Text: "db", AltText: "db"},
				{Mask: 3 << 23, Pattern: 3 << 23, Text: "ib", AltText: "ib"},
			},
		},
		flagModifier("long", 22, "l"),
	}
}

// a32Spec describes the ARM instruction set from ARMv4 up to a subset of
// ARMv7.
func a32Spec() isa.TableSpec {
	ty := newA32Types()
	var ops []*isa.Opcode
	ops = append(ops, ty.dataProcessing()...)
	ops = append(ops, ty.shifts()...)
	ops = append(ops, ty.multiplies()...)
	ops = append(ops, ty.miscellaneous()...)
	ops = append(ops, ty.loadStore()...)
	ops = append(ops, ty.blockTransfer()...)
	ops = append(ops, ty.branches()...)
	ops = append(ops, ty.coprocessor()...)
	ops = append(ops, ty.media()...)
	return isa.TableSpec{
		Name:      "a32",
		PCBias:    8,
		Modifiers: a32Modifiers(),
		Opcodes:   ops,
	}
}

var dataProcessingOps = [...]string{
	"and", "eor", "sub", "rsb", "add", "adc", "sbc", "rsc",
	"tst", "teq", "cmp", "cmn", "orr", "mov", "bic", "mvn",
}

func (ty *a32Types) dataProcessing() []*isa.Opcode {
	var ret []*isa.Opcode
	for code, name := range dataProcessingOps {
		match := fmt.Sprintf("27..26=0 24..21=%d", code)
		op := &isa.Opcode{
			Name:        name,
			Mnemonic:    name + "{s}{cond}",
			AltMnemonic: name + "{cond}{s}",
		}
		op2 := param("op2", ty.op2, isa.AccessUse)
		switch name {
		case "tst", "teq", "cmp", "cmn":
			// The S bit is implied and not written.
			op.Mnemonic, op.AltMnemonic = name+"{cond}", ""
			op.Params = []isa.Param{param("rn", regType, isa.AccessUse), op2}
			op.Encodings = []*isa.Encoding{
				a32(match+" 20=1", binds{"rn": bits(19, 16)}, reserved("15..12=0")),
			}
		case "mov", "mvn":
			op.Params = []isa.Param{param("rd", regType, isa.AccessDef), op2}
			op.Encodings = []*isa.Encoding{
				a32(match, binds{"rd": bits(15, 12)}, mods("cond", "s"), reserved("19..16=0")),
			}
			if name == "mov" {
				// An unshifted register, which the shift forms below
				// would otherwise claim as lsl #0.
				op.Encodings = append(op.Encodings, a32("27..21=0b0001101 11..4=0", binds{
					"rd": bits(15, 12),
					"op2": isa.BindVariant("shift_imm", binds{
						"rm":    bits(3, 0),
						"shift": isa.BindStruct(binds{"op": lit(0), "amount": lit(0)}),
					}),
				}, mods("cond", "s"), reserved("19..16=0")))
			}
		default:
			op.Params = []isa.Param{
				param("rd", regType, isa.AccessDef),
				param("rn", regType, isa.AccessUse),
				op2,
			}
			op.Encodings = []*isa.Encoding{
				a32(match, binds{"rd": bits(15, 12), "rn": bits(19, 16)}, mods("cond", "s")),
			}
		}
		ret = append(ret, op)
	}
	return ret
}

// shifts are the move-with-shift forms, which the unified syntax spells
// as shift mnemonics and the divided syntax as mov.
func (ty *a32Types) shifts() []*isa.Opcode {
	var ret []*isa.Opcode
	for _, s := range []isa.ShiftOp{isa.ShiftLSL, isa.ShiftLSR, isa.ShiftASR, isa.ShiftROR} {
		name := s.String()
		amount := bits(11, 7)
		if s == isa.ShiftLSR || s == isa.ShiftASR {
			amount = formula(isa.ZeroIs(isa.R(11, 7), 32))
		}
		ret = append(ret, &isa.Opcode{
			Name:        name + "_imm",
			Mnemonic:    name + "{s}{cond}",
			AltMnemonic: "mov{cond}{s}",
			Params: []isa.Param{
				param("rd", regType, isa.AccessDef),
				param("rm", regType, isa.AccessUse),
				param("amount", immType, isa.AccessNone),
			},
			AltOperands: []isa.Operand{isa.Op("rd"), isa.Op("rm"), isa.ShiftBy(s, "amount")},
			Encodings: []*isa.Encoding{
				a32(fmt.Sprintf("27..21=0b0001101 6..5=%d 4=0", s), binds{
					"rd":     bits(15, 12),
					"rm":     bits(3, 0),
					"amount": amount,
				}, mods("cond", "s"), reserved("19..16=0")),
			},
		})
		ret = append(ret, &isa.Opcode{
			Name:        name + "_reg",
			Mnemonic:    name + "{s}{cond}",
			AltMnemonic: "mov{cond}{s}",
			Params: []isa.Param{
				param("rd", regType, isa.AccessDef),
				param("rm", regType, isa.AccessUse),
				param("rs", regType, isa.AccessUse),
			},
			AltOperands: []isa.Operand{isa.Op("rd"), isa.Op("rm"), isa.ShiftBy(s, "rs")},
			Encodings: []*isa.Encoding{
				a32(fmt.Sprintf("27..21=0b0001101 7=0 6..5=%d 4=1", s), binds{
					"rd": bits(15, 12),
					"rm": bits(3, 0),
					"rs": bits(11, 8),
				}, mods("cond", "s"), reserved("19..16=0")),
			},
		})
	}
	ret = append(ret, &isa.Opcode{
		Name:        "rrx",
		Mnemonic:    "rrx{s}{cond}",
		AltMnemonic: "mov{cond}{s}",
		Params: []isa.Param{
			param("rd", regType, isa.AccessDef),
			param("rm", regType, isa.AccessUse),
			param("shift", ty.shiftImm, isa.AccessNone),
		},
		Operands:    operands("rd", "rm"),
		AltOperands: operands("rd", "rm", "shift"),
		Encodings: []*isa.Encoding{
			a32("27..21=0b0001101 11..4=0b00000110", binds{
				"rd":    bits(15, 12),
				"rm":    bits(3, 0),
				"shift": isa.BindStruct(binds{"op": lit(int64(isa.ShiftROR)), "amount": lit(0)}),
			}, mods("cond", "s"), reserved("19..16=0")),
		},
	})
	return ret
}

func (ty *a32Types) multiplies() []*isa.Opcode {
	ret := []*isa.Opcode{
		{
			Name:        "mul",
			Mnemonic:    "mul{s}{cond}",
			AltMnemonic: "mul{cond}{s}",
			Params: []isa.Param{
				param("rd", regType, isa.AccessDef),
				param("rm", regType, isa.AccessUse),
				param("rs", regType, isa.AccessUse),
			},
			Encodings: []*isa.Encoding{
				a32("27..21=0 7..4=9", binds{
					"rd": bits(19, 16),
					"rm": bits(3, 0),
					"rs": bits(11, 8),
				}, mods("cond", "s"), reserved("15..12=0")),
			},
		},
		{
			Name:        "mla",
			Mnemonic:    "mla{s}{cond}",
			AltMnemonic: "mla{cond}{s}",
			Params: []isa.Param{
				param("rd", regType, isa.AccessDef),
				param("rm", regType, isa.AccessUse),
				param("rs", regType, isa.AccessUse),
				param("rn", regType, isa.AccessUse),
			},
			Encodings: []*isa.Encoding{
				a32("27..21=1 7..4=9", binds{
					"rd": bits(19, 16),
					"rm": bits(3, 0),
					"rs": bits(11, 8),
					"rn": bits(15, 12),
				}, mods("cond", "s")),
			},
		},
	}
	for i, name := range []string{"umull", "umlal", "smull", "smlal"} {
		access := isa.AccessDef
		if i%2 == 1 {
			access = isa.AccessDefUse
		}
		ret = append(ret, &isa.Opcode{
			Name:        name,
			Mnemonic:    name + "{s}{cond}",
			AltMnemonic: name + "{cond}{s}",
			Params: []isa.Param{
				param("rdlo", regType, access),
				param("rdhi", regType, access),
				param("rm", regType, isa.AccessUse),
				param("rs", regType, isa.AccessUse),
			},
			Encodings: []*isa.Encoding{
				a32(fmt.Sprintf("27..21=%d 7..4=9", 4+i), binds{
					"rdlo": bits(15, 12),
					"rdhi": bits(19, 16),
					"rm":   bits(3, 0),
					"rs":   bits(11, 8),
				}, mods("cond", "s")),
			},
		})
	}
	for _, s := range []struct {
		name, alt string
		b         int
	}{{"swp", "", 0}, {"swpb", "swp{cond}b", 1}} {
		ret = append(ret, &isa.Opcode{
			Name:        s.name,
			Mnemonic:    s.name + "{cond}",
			AltMnemonic: s.alt,
			Params: []isa.Param{
				param("rd", regType, isa.AccessDef),
				param("rm", regType, isa.AccessUse),
				flagged(param("rn", regType, isa.AccessUse), isa.FlagMemBase),
			},
			Encodings: []*isa.Encoding{
				a32(fmt.Sprintf("27..23=0b00010 22=%d 21..20=0 11..4=9", s.b), binds{
					"rd": bits(15, 12),
					"rm": bits(3, 0),
					"rn": bits(19, 16),
				}),
			},
		})
	}
	return ret
}

func (ty *a32Types) miscellaneous() []*isa.Opcode {
	ret := []*isa.Opcode{
		{
			Name:     "bx",
			Mnemonic: "bx{cond}",
			Params:   []isa.Param{param("rm", regType, isa.AccessUse)},
			Encodings: []*isa.Encoding{
				a32("27..20=0x12 7..4=1", binds{"rm": bits(3, 0)}, reserved("19..8=0xfff")),
			},
		},
		{
			Name:     "bxj",
			Mnemonic: "bxj{cond}",
			Params:   []isa.Param{param("rm", regType, isa.AccessUse)},
			Encodings: []*isa.Encoding{
				a32("27..20=0x12 7..4=2", binds{"rm": bits(3, 0)}, reserved("19..8=0xfff"), since(isa.V5TE, isa.ExtJazelle)),
			},
		},
		{
			Name:     "blx_reg",
			Mnemonic: "blx{cond}",
			Params: []isa.Param{
				param("rm", regType, isa.AccessUse),
				param("link", regType, isa.AccessDef),
			},
			Operands: operands("rm"),
			Encodings: []*isa.Encoding{
				a32("27..20=0x12 7..4=3", binds{"rm": bits(3, 0), "link": lit(int64(isa.RegLR))}, reserved("19..8=0xfff"), since(isa.V5T)),
			},
		},
		{
			Name:     "clz",
			Mnemonic: "clz{cond}",
			Params: []isa.Param{
				param("rd", regType, isa.AccessDef),
				param("rm", regType, isa.AccessUse),
			},
			Encodings: []*isa.Encoding{
				a32("27..20=0x16 7..4=1", binds{"rd": bits(15, 12), "rm": bits(3, 0)}, reserved("19..16=0xf 11..8=0xf"), since(isa.V5T)),
			},
		},
		{
			// Only the always condition is legal.
			Name:     "bkpt",
			Mnemonic: "bkpt",
			Params:   []isa.Param{param("imm", immType, isa.AccessNone)},
			Encodings: []*isa.Encoding{
				a32("27..20=0x12 7..4=7", binds{
					"imm": formula(isa.Concat(isa.R(19, 8), isa.R(3, 0))),
				}, mods(), reserved("31..28=0xe"), since(isa.V5T)),
			},
		},
	}
	for i, name := range []string{"qadd", "qsub", "qdadd", "qdsub"} {
		ret = append(ret, &isa.Opcode{
			Name:     name,
			Mnemonic: name + "{cond}",
			Params: []isa.Param{
				param("rd", regType, isa.AccessDef),
				param("rm", regType, isa.AccessUse),
				param("rn", regType, isa.AccessUse),
			},
			Encodings: []*isa.Encoding{
				a32(fmt.Sprintf("27..20=%#x 7..4=5", 0x10+2*i), binds{
					"rd": bits(15, 12),
					"rm": bits(3, 0),
					"rn": bits(19, 16),
				}, reserved("11..8=0"), since(isa.V5TE, isa.ExtDSP)),
			},
		})
	}
	ret = append(ret,
		&isa.Opcode{
			Name:     "mrs",
			Mnemonic: "mrs{cond}",
			Params: []isa.Param{
				param("rd", regType, isa.AccessDef),
				param("psr", psrType, isa.AccessNone),
			},
			Encodings: []*isa.Encoding{
				a32("27..23=0b00010 21..20=0 7..4=0", binds{
					"rd":  bits(15, 12),
					"psr": isa.BindFlag(22),
				}, reserved("19..16=0xf 11..8=0 3..0=0")),
			},
		},
		&isa.Opcode{
			Name:     "msr_reg",
			Mnemonic: "msr{cond}",
			Params: []isa.Param{
				param("fields", ty.statusFields, isa.AccessNone),
				param("rm", regType, isa.AccessUse),
			},
			Encodings: []*isa.Encoding{
				a32("27..23=0b00010 21..20=0b10 7..4=0", binds{"rm": bits(3, 0)}, reserved("15..12=0xf 11..8=0")),
			},
		},
		&isa.Opcode{
			Name:     "msr_imm",
			Mnemonic: "msr{cond}",
			Params: []isa.Param{
				param("fields", ty.statusFields, isa.AccessNone),
				param("imm", immType, isa.AccessNone),
			},
			Encodings: []*isa.Encoding{
				a32("27..23=0b00110 21..20=0b10", binds{"imm": formula(rotatedImm())}, reserved("15..12=0xf")),
			},
		},
	)
	return ret
}

func (ty *a32Types) loadStore() []*isa.Opcode {
	var ret []*isa.Opcode
	for _, ls := range []struct {
		name, alt string
		b, l      int
	}{
		{"str", "", 0, 0},
		{"ldr", "", 0, 1},
		{"strb", "str{cond}b", 1, 0},
		{"ldrb", "ldr{cond}b", 1, 1},
	} {
		ret = append(ret, &isa.Opcode{
			Name:        ls.name,
			Mnemonic:    ls.name + "{cond}",
			AltMnemonic: ls.alt,
			Params: []isa.Param{
				param("rd", regType, transferAccess(ls.l)),
				param("addr", ty.addr2, isa.AccessUse),
			},
			Encodings: []*isa.Encoding{
				a32(fmt.Sprintf("27..26=1 22=%d 20=%d", ls.b, ls.l), binds{"rd": bits(15, 12)}),
			},
		})
	}
	for _, ls := range []struct {
		name, alt string
		b, l      int
	}{
		{"strt", "str{cond}t", 0, 0},
		{"ldrt", "ldr{cond}t", 0, 1},
		{"strbt", "str{cond}bt", 1, 0},
		{"ldrbt", "ldr{cond}bt", 1, 1},
	} {
		ret = append(ret, &isa.Opcode{
			Name:        ls.name,
			Mnemonic:    ls.name + "{cond}",
			AltMnemonic: ls.alt,
			Params: []isa.Param{
				param("rd", regType, transferAccess(ls.l)),
				param("addr", ty.addr2T, isa.AccessUse),
			},
			Encodings: []*isa.Encoding{
				a32(fmt.Sprintf("27..26=1 24=0 22=%d 21=1 20=%d", ls.b, ls.l), binds{"rd": bits(15, 12)}),
			},
		})
	}
	for _, ls := range []struct {
		name, alt string
		l, sh     int
		rd        *isa.DataType
		access    isa.Access
		req       []encOpt
	}{
		{"strh", "str{cond}h", 0, 1, regType, isa.AccessUse, nil},
		{"ldrh", "ldr{cond}h", 1, 1, regType, isa.AccessDef, nil},
		{"ldrsb", "ldr{cond}sb", 1, 2, regType, isa.AccessDef, nil},
		{"ldrsh", "ldr{cond}sh", 1, 3, regType, isa.AccessDef, nil},
		{"ldrd", "ldr{cond}d", 0, 2, regPairType, isa.AccessDef, []encOpt{since(isa.V5TE, isa.ExtDSP)}},
		{"strd", "str{cond}d", 0, 3, regPairType, isa.AccessUse, []encOpt{since(isa.V5TE, isa.ExtDSP)}},
	} {
		ret = append(ret, &isa.Opcode{
			Name:        ls.name,
			Mnemonic:    ls.name + "{cond}",
			AltMnemonic: ls.alt,
			Params: []isa.Param{
				param("rd", ls.rd, ls.access),
				param("addr", ty.addr3, isa.AccessUse),
			},
			Encodings: []*isa.Encoding{
				a32(fmt.Sprintf("27..25=0 20=%d 7=1 6..5=%d 4=1", ls.l, ls.sh), binds{"rd": bits(15, 12)}, ls.req...),
			},
		})
	}
	return ret
}

func transferAccess(load int) isa.Access {
	if load != 0 {
		return isa.AccessDef
	}
	return isa.AccessUse
}

func (ty *a32Types) blockTransfer() []*isa.Opcode {
	return []*isa.Opcode{
		{
			Name:        "pop",
			Mnemonic:    "pop{cond}",
			AltMnemonic: "ldm{cond}ia",
			Params: []isa.Param{
				flagged(param("base", regType, isa.AccessUse), isa.FlagWriteback),
				param("regs", regListType, isa.AccessDef),
			},
			Operands:    operands("regs"),
			AltOperands: operands("base", "regs"),
			Encodings: []*isa.Encoding{
				a32("27..16=0x8bd", binds{"base": lit(int64(isa.RegSP)), "regs": bits(15, 0)}),
			},
		},
		{
			Name:        "push",
			Mnemonic:    "push{cond}",
			AltMnemonic: "stm{cond}db",
			Params: []isa.Param{
				flagged(param("base", regType, isa.AccessUse), isa.FlagWriteback),
				param("regs", regListType, isa.AccessUse),
			},
			Operands:    operands("regs"),
			AltOperands: operands("base", "regs"),
			Encodings: []*isa.Encoding{
				a32("27..16=0x92d", binds{"base": lit(int64(isa.RegSP)), "regs": bits(15, 0)}),
			},
		},
		{
			Name:        "ldm",
			Mnemonic:    "ldm{amode}{cond}",
			AltMnemonic: "ldm{cond}{amode}",
			Params: []isa.Param{
				param("rn", ty.ldmBase, isa.AccessUse),
				param("regs", ty.ldmRegs, isa.AccessDef),
			},
			Encodings: []*isa.Encoding{
				a32("27..25=0b100 20=1", nil, mods("cond", "amode")),
			},
		},
		{
			Name:        "stm",
			Mnemonic:    "stm{amode}{cond}",
			AltMnemonic: "stm{cond}{amode}",
			Params: []isa.Param{
				param("rn", ty.ldmBase, isa.AccessUse),
				param("regs", ty.ldmRegs, isa.AccessUse),
			},
			Encodings: []*isa.Encoding{
				a32("27..25=0b100 20=0", nil, mods("cond", "amode")),
			},
		},
	}
}

func (ty *a32Types) branches() []*isa.Opcode {
	target := formula(isa.ShiftLeft(isa.SignExtend(isa.R(23, 0), 24), 2))
	link := lit(int64(isa.RegLR))
	return []*isa.Opcode{
		{
			Name:     "b",
			Mnemonic: "b{cond}",
			Params:   []isa.Param{param("target", branchType, isa.AccessNone)},
			Encodings: []*isa.Encoding{
				a32("27..24=0b1010", binds{"target": target}),
			},
		},
		{
			Name:     "bl",
			Mnemonic: "bl{cond}",
			Params: []isa.Param{
				param("target", branchType, isa.AccessNone),
				param("link", regType, isa.AccessDef),
			},
			Operands: operands("target"),
			Encodings: []*isa.Encoding{
				a32("27..24=0b1011", binds{"target": target, "link": link}),
			},
		},
		{
			Name:     "blx_imm",
			Mnemonic: "blx",
			Params: []isa.Param{
				param("target", branchType, isa.AccessNone),
				param("link", regType, isa.AccessDef),
			},
			Operands: operands("target"),
			Encodings: []*isa.Encoding{
				a32("31..25=0b1111101", binds{
					"target": formula(isa.SignExtend(isa.Concat(isa.R(23, 0), isa.Bit(24), isa.Const(0, 1)), 26)),
					"link":   link,
				}, mods(), since(isa.V5T)),
			},
		},
		{
			Name:        "svc",
			Mnemonic:    "svc{cond}",
			AltMnemonic: "swi{cond}",
			Params:      []isa.Param{param("imm", immType, isa.AccessNone)},
			Encodings: []*isa.Encoding{
				a32("27..24=0xf", binds{"imm": bits(23, 0)}),
			},
		},
	}
}

func (ty *a32Types) coprocessor() []*isa.Opcode {
	ret := []*isa.Opcode{
		{
			Name:     "cdp",
			Mnemonic: "cdp{cond}",
			Params: []isa.Param{
				param("coproc", coprocType, isa.AccessNone),
				param("opc1", immType, isa.AccessNone),
				param("crd", coRegType, isa.AccessNone),
				param("crn", coRegType, isa.AccessNone),
				param("crm", coRegType, isa.AccessNone),
				param("opc2", immType, isa.AccessNone),
			},
			Encodings: []*isa.Encoding{
				a32("27..24=0xe 4=0", binds{
					"coproc": bits(11, 8),
					"opc1":   bits(23, 20),
					"crd":    bits(15, 12),
					"crn":    bits(19, 16),
					"crm":    bits(3, 0),
					"opc2":   bits(7, 5),
				}),
			},
		},
	}
	for _, c := range []struct {
		name string
		l    int
	}{{"mcr", 0}, {"mrc", 1}} {
		ret = append(ret, &isa.Opcode{
			Name:     c.name,
			Mnemonic: c.name + "{cond}",
			Params: []isa.Param{
				param("coproc", coprocType, isa.AccessNone),
				param("opc1", immType, isa.AccessNone),
				param("rd", regType, transferAccess(c.l)),
				param("crn", coRegType, isa.AccessNone),
				param("crm", coRegType, isa.AccessNone),
				param("opc2", immType, isa.AccessNone),
			},
			Encodings: []*isa.Encoding{
				a32(fmt.Sprintf("27..24=0xe 20=%d 4=1", c.l), binds{
					"coproc": bits(11, 8),
					"opc1":   bits(23, 21),
					"rd":     bits(15, 12),
					"crn":    bits(19, 16),
					"crm":    bits(3, 0),
					"opc2":   bits(7, 5),
				}),
			},
		})
	}
	for _, c := range []struct {
		name string
		l    int
	}{{"stc", 0}, {"ldc", 1}} {
		ret = append(ret, &isa.Opcode{
			Name:        c.name,
			Mnemonic:    c.name + "{long}{cond}",
			AltMnemonic: c.name + "{cond}{long}",
			Params: []isa.Param{
				param("coproc", coprocType, isa.AccessNone),
				param("crd", coRegType, isa.AccessNone),
				param("addr", ty.addr5, isa.AccessUse),
			},
			Encodings: []*isa.Encoding{
				a32(fmt.Sprintf("27..25=0b110 20=%d", c.l), binds{
					"coproc": bits(11, 8),
					"crd":    bits(15, 12),
				}, mods("cond", "long")),
			},
		})
	}
	return ret
}

// media holds the ARMv6 and ARMv7 additions.
func (ty *a32Types) media() []*isa.Opcode {
	var ret []*isa.Opcode
	for _, d := range []struct {
		name string
		code int
	}{{"sdiv", 0x71}, {"udiv", 0x73}} {
		ret = append(ret, &isa.Opcode{
			Name:     d.name,
			Mnemonic: d.name + "{cond}",
			Params: []isa.Param{
				param("rd", regType, isa.AccessDef),
				param("rn", regType, isa.AccessUse),
				param("rm", regType, isa.AccessUse),
			},
			Encodings: []*isa.Encoding{
				a32(fmt.Sprintf("27..20=%#x 15..12=0xf 7..4=1", d.code), binds{
					"rd": bits(19, 16),
					"rn": bits(3, 0),
					"rm": bits(11, 8),
				}, since(isa.V7, isa.ExtIDIV)),
			},
		})
	}
	for _, r := range []struct {
		name  string
		match string
	}{
		{"rev", "27..16=0x6bf 11..4=0xf3"},
		{"rev16", "27..16=0x6bf 11..4=0xfb"},
		{"revsh", "27..16=0x6ff 11..4=0xfb"},
	} {
		ret = append(ret, &isa.Opcode{
			Name:     r.name,
			Mnemonic: r.name + "{cond}",
			Params: []isa.Param{
				param("rd", regType, isa.AccessDef),
				param("rm", regType, isa.AccessUse),
			},
			Encodings: []*isa.Encoding{
				a32(r.match, binds{"rd": bits(15, 12), "rm": bits(3, 0)}, since(isa.V6)),
			},
		})
	}
	for _, x := range []struct {
		name string
		code int
	}{{"sxtb", 0x6af}, {"sxth", 0x6bf}, {"uxtb", 0x6ef}, {"uxth", 0x6ff}} {
		ret = append(ret, &isa.Opcode{
			Name:     x.name,
			Mnemonic: x.name + "{cond}",
			Params: []isa.Param{
				param("rd", regType, isa.AccessDef),
				param("rm", regType, isa.AccessUse),
				param("rotation", rotationType, isa.AccessNone),
			},
			Encodings: []*isa.Encoding{
				a32(fmt.Sprintf("27..16=%#x 9..4=0b000111", x.code), binds{
					"rd":       bits(15, 12),
					"rm":       bits(3, 0),
					"rotation": formula(isa.ShiftLeft(isa.R(11, 10), 3)),
				}, since(isa.V6)),
			},
		})
	}
	ret = append(ret,
		&isa.Opcode{
			Name:     "ssat",
			Mnemonic: "ssat{cond}",
			Params: []isa.Param{
				param("rd", regType, isa.AccessDef),
				param("sat", immType, isa.AccessNone),
				param("rn", regType, isa.AccessUse),
				param("shift", ty.satShift, isa.AccessNone),
			},
			Encodings: []*isa.Encoding{
				a32("27..21=0b0110101 5..4=1", binds{
					"rd":  bits(15, 12),
					"sat": formula(isa.SatAdd(isa.R(20, 16), isa.Const(1, 1), 6)),
					"rn":  bits(3, 0),
				}, since(isa.V6)),
			},
		},
		&isa.Opcode{
			Name:     "usat",
			Mnemonic: "usat{cond}",
			Params: []isa.Param{
				param("rd", regType, isa.AccessDef),
				param("sat", immType, isa.AccessNone),
				param("rn", regType, isa.AccessUse),
				param("shift", ty.satShift, isa.AccessNone),
			},
			Encodings: []*isa.Encoding{
				a32("27..21=0b0110111 5..4=1", binds{
					"rd":  bits(15, 12),
					"sat": bits(20, 16),
					"rn":  bits(3, 0),
				}, since(isa.V6)),
			},
		},
	)
	for i, name := range hintNames {
		ret = append(ret, &isa.Opcode{
			Name:     name,
			Mnemonic: name + "{cond}",
			Encodings: []*isa.Encoding{
				a32(fmt.Sprintf("27..0=%#x", 0x320f000+i), nil, since(isa.V6K)),
			},
		})
	}
	ret = append(ret, &isa.Opcode{
		Name:     "pld",
		Mnemonic: "pld",
		Params:   []isa.Param{param("addr", ty.pld, isa.AccessUse)},
		Encodings: []*isa.Encoding{
			a32("31..26=0b111101 24=1 22..20=0b101 15..12=0xf", nil, mods(), since(isa.V5TE, isa.ExtDSP)),
		},
	})
	return ret
}

var hintNames = [...]string{"nop", "yield", "wfe", "wfi", "sev"}
