package arm

import (
	"fmt"

	"github.com/apparentlymart/arm-meta/isa"
)

// thumbSpec describes the 16-bit Thumb instruction set along with the
// paired bl and blx encodings.
func thumbSpec() isa.TableSpec {
	ty := newThumbTypes()
	var ops []*isa.Opcode
	ops = append(ops, ty.shiftAddSub()...)
	ops = append(ops, ty.immediates()...)
	ops = append(ops, ty.alu()...)
	ops = append(ops, ty.hiRegisters()...)
	ops = append(ops, ty.loadStore()...)
	ops = append(ops, ty.stack()...)
	ops = append(ops, ty.branches()...)
	ops = append(ops, ty.v6()...)
	return isa.TableSpec{
		Name:      "thumb",
		Halfwords: true,
		PCBias:    4,
		PairPrefixes: []isa.Prefix{
			{Mask: 0xf800, Pattern: 0xe800},
			{Mask: 0xf000, Pattern: 0xf000},
		},
		Modifiers: []*isa.Modifier{condModifier(8, 14)},
		Opcodes:   ops,
	}
}

type thumbTypes struct {
	hiRd, hiRm                *isa.DataType
	regAddr, litAddr, spAddr  *isa.DataType
	wordAddr, byteAddr, hAddr *isa.DataType
}

func newThumbTypes() *thumbTypes {
	offset := func(name string, f *isa.Formula) *isa.DataType {
		return isa.Struct(name, isa.DisplayOffsetImm,
			member("sub", flagType, lit(0)),
			member("value", immType, formula(f)),
		)
	}
	scaled := func(name string, scale uint8) *isa.DataType {
		return isa.Struct(name, isa.DisplayNone,
			member("rn", regType, bits(5, 3), isa.FlagMemBase),
			member("offset", offset(name+"_offset", isa.ShiftLeft(isa.R(10, 6), scale)), isa.BindDecode()),
		)
	}
	fixed := func(name string, base isa.Reg, flags isa.ArgFlags) *isa.DataType {
		return isa.Struct(name, isa.DisplayNone,
			member("base", regType, lit(int64(base)), isa.FlagMemBase),
			member("offset", offset(name+"_offset", isa.ShiftLeft(isa.R(7, 0), 2)), isa.BindDecode(), flags),
		)
	}
	return &thumbTypes{
		hiRd: isa.Alias("hi_rd", regType, isa.Concat(isa.Bit(7), isa.R(2, 0))),
		hiRm: isa.Alias("hi_rm", regType, isa.Concat(isa.Bit(6), isa.R(5, 3))),
		regAddr: isa.Struct("reg_addr", isa.DisplayNone,
			member("rn", regType, bits(5, 3), isa.FlagMemBase),
			member("offset", isa.Struct("reg_offset", isa.DisplayOffsetReg,
				member("sub", flagType, lit(0)),
				member("rm", regType, bits(8, 6)),
			), isa.BindDecode()),
		),
		litAddr:  fixed("lit_addr", isa.RegPC, isa.FlagAlignPC),
		spAddr:   fixed("sp_addr", isa.RegSP, 0),
		wordAddr: scaled("word_addr", 2),
		byteAddr: scaled("byte_addr", 0),
		hAddr:    scaled("half_addr", 1),
	}
}

func (ty *thumbTypes) shiftAddSub() []*isa.Opcode {
	var ret []*isa.Opcode
	for _, s := range []isa.ShiftOp{isa.ShiftLSL, isa.ShiftLSR, isa.ShiftASR} {
		amount := bits(10, 6)
		if s != isa.ShiftLSL {
			amount = formula(isa.ZeroIs(isa.R(10, 6), 32))
		}
		ret = append(ret, &isa.Opcode{
			Name:        s.String() + "s_imm",
			Mnemonic:    s.String() + "s",
			AltMnemonic: s.String(),
			Params: []isa.Param{
				param("rd", regType, isa.AccessDef),
				param("rm", regType, isa.AccessUse),
				param("amount", immType, isa.AccessNone),
			},
			Encodings: []*isa.Encoding{
				t16(fmt.Sprintf("15..13=0 12..11=%d", s), binds{
					"rd":     bits(2, 0),
					"rm":     bits(5, 3),
					"amount": amount,
				}),
			},
		})
	}
	ret = append(ret, &isa.Opcode{
		// lsls with a zero amount.
		Name:        "movs_reg",
		Mnemonic:    "movs",
		AltMnemonic: "mov",
		Params: []isa.Param{
			param("rd", regType, isa.AccessDef),
			param("rm", regType, isa.AccessUse),
		},
		Encodings: []*isa.Encoding{
			t16("15..6=0", binds{"rd": bits(2, 0), "rm": bits(5, 3)}),
		},
	})
	for i, name := range []string{"adds", "subs"} {
		base := name[:3]
		ret = append(ret,
			&isa.Opcode{
				Name:        name + "_reg",
				Mnemonic:    name,
				AltMnemonic: base,
				Params: []isa.Param{
					param("rd", regType, isa.AccessDef),
					param("rn", regType, isa.AccessUse),
					param("rm", regType, isa.AccessUse),
				},
				Encodings: []*isa.Encoding{
					t16(fmt.Sprintf("15..10=0b000110 9=%d", i), binds{
						"rd": bits(2, 0),
						"rn": bits(5, 3),
						"rm": bits(8, 6),
					}),
				},
			},
			&isa.Opcode{
				Name:        name + "_imm3",
				Mnemonic:    name,
				AltMnemonic: base,
				Params: []isa.Param{
					param("rd", regType, isa.AccessDef),
					param("rn", regType, isa.AccessUse),
					param("imm", immType, isa.AccessNone),
				},
				Encodings: []*isa.Encoding{
					t16(fmt.Sprintf("15..10=0b000111 9=%d", i), binds{
						"rd":  bits(2, 0),
						"rn":  bits(5, 3),
						"imm": bits(8, 6),
					}),
				},
			},
		)
	}
	return ret
}

func (ty *thumbTypes) immediates() []*isa.Opcode {
	var ret []*isa.Opcode
	for i, im := range []struct {
		name, ual, alt string
		access         isa.Access
	}{
		{"movs_imm", "movs", "mov", isa.AccessDef},
		{"cmp_imm", "cmp", "", isa.AccessUse},
		{"adds_imm8", "adds", "add", isa.AccessDefUse},
		{"subs_imm8", "subs", "sub", isa.AccessDefUse},
	} {
		ret = append(ret, &isa.Opcode{
			Name:        im.name,
			Mnemonic:    im.ual,
			AltMnemonic: im.alt,
			Params: []isa.Param{
				param("rd", regType, im.access),
				param("imm", immType, isa.AccessNone),
			},
			Encodings: []*isa.Encoding{
				t16(fmt.Sprintf("15..13=1 12..11=%d", i), binds{"rd": bits(10, 8), "imm": bits(7, 0)}),
			},
		})
	}
	return ret
}

// alu is the register to register data processing format.
func (ty *thumbTypes) alu() []*isa.Opcode {
	var ret []*isa.Opcode
	for code, a := range []struct {
		name, ual, alt string
		access         isa.Access
	}{
		{"ands", "ands", "and", isa.AccessDefUse},
		{"eors", "eors", "eor", isa.AccessDefUse},
		{"lsls_reg", "lsls", "lsl", isa.AccessDefUse},
		{"lsrs_reg", "lsrs", "lsr", isa.AccessDefUse},
		{"asrs_reg", "asrs", "asr", isa.AccessDefUse},
		{"adcs", "adcs", "adc", isa.AccessDefUse},
		{"sbcs", "sbcs", "sbc", isa.AccessDefUse},
		{"rors", "rors", "ror", isa.AccessDefUse},
		{"tst", "tst", "", isa.AccessUse},
		{"rsbs", "rsbs", "neg", isa.AccessDef},
		{"cmp_reg", "cmp", "", isa.AccessUse},
		{"cmn", "cmn", "", isa.AccessUse},
		{"orrs", "orrs", "orr", isa.AccessDefUse},
		{"muls", "muls", "mul", isa.AccessDefUse},
		{"bics", "bics", "bic", isa.AccessDefUse},
		{"mvns", "mvns", "mvn", isa.AccessDef},
	} {
		op := &isa.Opcode{
			Name:        a.name,
			Mnemonic:    a.ual,
			AltMnemonic: a.alt,
			Params: []isa.Param{
				param("rd", regType, a.access),
				param("rm", regType, isa.AccessUse),
			},
		}
		b := binds{"rd": bits(2, 0), "rm": bits(5, 3)}
		switch a.name {
		case "rsbs":
			op.Params = append(op.Params, param("zero", immType, isa.AccessNone))
			op.AltOperands = operands("rd", "rm")
			b["zero"] = lit(0)
		case "muls":
			op.Operands = operands("rd", "rm", "rd")
			op.AltOperands = operands("rd", "rm")
		}
		op.Encodings = []*isa.Encoding{
			t16(fmt.Sprintf("15..10=0b010000 9..6=%d", code), b),
		}
		ret = append(ret, op)
	}
	return ret
}

func (ty *thumbTypes) hiRegisters() []*isa.Opcode {
	var ret []*isa.Opcode
	for i, h := range []struct {
		name, mnemonic string
		access         isa.Access
	}{
		{"add_hi", "add", isa.AccessDefUse},
		{"cmp_hi", "cmp", isa.AccessUse},
		{"mov_hi", "mov", isa.AccessDef},
	} {
		ret = append(ret, &isa.Opcode{
			Name:     h.name,
			Mnemonic: h.mnemonic,
			Params: []isa.Param{
				param("rd", ty.hiRd, h.access),
				param("rm", ty.hiRm, isa.AccessUse),
			},
			Encodings: []*isa.Encoding{
				t16(fmt.Sprintf("15..10=0b010001 9..8=%d", i), nil),
			},
		})
	}
	ret = append(ret,
		&isa.Opcode{
			Name:     "bx",
			Mnemonic: "bx",
			Params:   []isa.Param{param("rm", ty.hiRm, isa.AccessUse)},
			Encodings: []*isa.Encoding{
				t16("15..7=0b010001110", nil, reserved("2..0=0")),
			},
		},
		&isa.Opcode{
			Name:     "blx_reg",
			Mnemonic: "blx",
			Params: []isa.Param{
				param("rm", ty.hiRm, isa.AccessUse),
				param("link", regType, isa.AccessDef),
			},
			Operands: operands("rm"),
			Encodings: []*isa.Encoding{
				t16("15..7=0b010001111", binds{"link": lit(int64(isa.RegLR))}, reserved("2..0=0"), since(isa.V5T)),
			},
		},
	)
	return ret
}

func (ty *thumbTypes) loadStore() []*isa.Opcode {
	ret := []*isa.Opcode{
		{
			Name:     "ldr_lit",
			Mnemonic: "ldr",
			Params: []isa.Param{
				param("rd", regType, isa.AccessDef),
				param("addr", ty.litAddr, isa.AccessUse),
			},
			Encodings: []*isa.Encoding{
				t16("15..11=0b01001", binds{"rd": bits(10, 8)}),
			},
		},
	}
	for code, name := range []string{"str", "strh", "strb", "ldrsb", "ldr", "ldrh", "ldrb", "ldrsh"} {
		access := isa.AccessDef
		if code < 3 {
			access = isa.AccessUse
		}
		ret = append(ret, &isa.Opcode{
			Name:     name + "_reg",
			Mnemonic: name,
			Params: []isa.Param{
				param("rd", regType, access),
				param("addr", ty.regAddr, isa.AccessUse),
			},
			Encodings: []*isa.Encoding{
				t16(fmt.Sprintf("15..12=0b0101 11..9=%d", code), binds{"rd": bits(2, 0)}),
			},
		})
	}
	for _, im := range []struct {
		name  string
		match string
		addr  *isa.DataType
		load  bool
	}{
		{"str", "15..11=0b01100", ty.wordAddr, false},
		{"ldr", "15..11=0b01101", ty.wordAddr, true},
		{"strb", "15..11=0b01110", ty.byteAddr, false},
		{"ldrb", "15..11=0b01111", ty.byteAddr, true},
		{"strh", "15..11=0b10000", ty.hAddr, false},
		{"ldrh", "15..11=0b10001", ty.hAddr, true},
	} {
		access := isa.AccessUse
		if im.load {
			access = isa.AccessDef
		}
		ret = append(ret, &isa.Opcode{
			Name:     im.name + "_imm",
			Mnemonic: im.name,
			Params: []isa.Param{
				param("rd", regType, access),
				param("addr", im.addr, isa.AccessUse),
			},
			Encodings: []*isa.Encoding{
				t16(im.match, binds{"rd": bits(2, 0)}),
			},
		})
	}
	for i, name := range []string{"str", "ldr"} {
		ret = append(ret, &isa.Opcode{
			Name:     name + "_sp",
			Mnemonic: name,
			Params: []isa.Param{
				param("rd", regType, transferAccess(i)),
				param("addr", ty.spAddr, isa.AccessUse),
			},
			Encodings: []*isa.Encoding{
				t16(fmt.Sprintf("15..12=0b1001 11=%d", i), binds{"rd": bits(10, 8)}),
			},
		})
	}
	for i, name := range []string{"stm", "ldm"} {
		ret = append(ret, &isa.Opcode{
			Name:        name + "ia",
			Mnemonic:    name,
			AltMnemonic: name + "ia",
			Params: []isa.Param{
				flagged(param("rn", regType, isa.AccessUse), isa.FlagWriteback),
				param("regs", regListType, transferAccess(i)),
			},
			Encodings: []*isa.Encoding{
				t16(fmt.Sprintf("15..12=0b1100 11=%d", i), binds{"rn": bits(10, 8), "regs": bits(7, 0)}),
			},
		})
	}
	// A load whose base is also in the list does not write back.
	nowb := &isa.Opcode{
		Name:        "ldmia_nowb",
		Mnemonic:    "ldm",
		AltMnemonic: "ldmia",
		Params: []isa.Param{
			param("rn", regType, isa.AccessUse),
			param("regs", regListType, isa.AccessDef),
		},
	}
	for rn := uint8(0); rn < 8; rn++ {
		nowb.Encodings = append(nowb.Encodings, t16(
			fmt.Sprintf("15..11=0b11001 10..8=%d %d=1", rn, rn),
			binds{"rn": lit(int64(rn)), "regs": formula(listWith(rn))},
		))
	}
	return append(ret, nowb)
}

// listWith reads the low register list with bit n fixed to one, since
// the encoding's pattern already claims that bit.
func listWith(n uint8) *isa.Formula {
	var parts []*isa.Formula
	if n < 7 {
		parts = append(parts, isa.R(7, n+1))
	}
	parts = append(parts, isa.Const(1, 1))
	if n > 0 {
		parts = append(parts, isa.R(n-1, 0))
	}
	return isa.Concat(parts...)
}

func (ty *thumbTypes) stack() []*isa.Opcode {
	sp := lit(int64(isa.RegSP))
	return []*isa.Opcode{
		{
			Name:     "add_pc",
			Mnemonic: "add",
			Params: []isa.Param{
				param("rd", regType, isa.AccessDef),
				param("pc", regType, isa.AccessUse),
				param("imm", immType, isa.AccessNone),
			},
			Encodings: []*isa.Encoding{
				t16("15..11=0b10100", binds{
					"rd":  bits(10, 8),
					"pc":  lit(int64(isa.RegPC)),
					"imm": formula(isa.ShiftLeft(isa.R(7, 0), 2)),
				}),
			},
		},
		{
			Name:     "add_sp",
			Mnemonic: "add",
			Params: []isa.Param{
				param("rd", regType, isa.AccessDef),
				param("sp", regType, isa.AccessUse),
				param("imm", immType, isa.AccessNone),
			},
			Encodings: []*isa.Encoding{
				t16("15..11=0b10101", binds{
					"rd":  bits(10, 8),
					"sp":  sp,
					"imm": formula(isa.ShiftLeft(isa.R(7, 0), 2)),
				}),
			},
		},
		{
			Name:     "add_sp_imm",
			Mnemonic: "add",
			Params: []isa.Param{
				param("sp", regType, isa.AccessDefUse),
				param("imm", immType, isa.AccessNone),
			},
			Operands:    operands("sp", "sp", "imm"),
			AltOperands: operands("sp", "imm"),
			Encodings: []*isa.Encoding{
				t16("15..7=0b101100000", binds{"sp": sp, "imm": formula(isa.ShiftLeft(isa.R(6, 0), 2))}),
			},
		},
		{
			Name:     "sub_sp_imm",
			Mnemonic: "sub",
			Params: []isa.Param{
				param("sp", regType, isa.AccessDefUse),
				param("imm", immType, isa.AccessNone),
			},
			Operands:    operands("sp", "sp", "imm"),
			AltOperands: operands("sp", "imm"),
			Encodings: []*isa.Encoding{
				t16("15..7=0b101100001", binds{"sp": sp, "imm": formula(isa.ShiftLeft(isa.R(6, 0), 2))}),
			},
		},
		{
			// Bit 8 adds lr to the list.
			Name:     "push",
			Mnemonic: "push",
			Params: []isa.Param{
				flagged(param("base", regType, isa.AccessUse), isa.FlagWriteback),
				param("regs", regListType, isa.AccessUse),
			},
			Operands: operands("regs"),
			Encodings: []*isa.Encoding{
				t16("15..9=0b1011010", binds{
					"base": sp,
					"regs": formula(isa.Concat(isa.Bit(8), isa.Const(0, 6), isa.R(7, 0))),
				}),
			},
		},
		{
			// Bit 8 adds pc to the list.
			Name:     "pop",
			Mnemonic: "pop",
			Params: []isa.Param{
				flagged(param("base", regType, isa.AccessUse), isa.FlagWriteback),
				param("regs", regListType, isa.AccessDef),
			},
			Operands: operands("regs"),
			Encodings: []*isa.Encoding{
				t16("15..9=0b1011110", binds{
					"base": sp,
					"regs": formula(isa.Concat(isa.Bit(8), isa.Const(0, 7), isa.R(7, 0))),
				}),
			},
		},
	}
}

func (ty *thumbTypes) branches() []*isa.Opcode {
	link := lit(int64(isa.RegLR))
	return []*isa.Opcode{
		{
			Name:     "b_cond",
			Mnemonic: "b{cond}",
			Params:   []isa.Param{param("target", branchType, isa.AccessNone)},
			Encodings: []*isa.Encoding{
				t16("15..12=0b1101", binds{
					"target": formula(isa.SignExtend(isa.ShiftLeft(isa.R(7, 0), 1), 9)),
				}, mods("cond")),
			},
		},
		{
			Name:        "svc",
			Mnemonic:    "svc",
			AltMnemonic: "swi",
			Params:      []isa.Param{param("imm", immType, isa.AccessNone)},
			Encodings: []*isa.Encoding{
				t16("15..8=0xdf", binds{"imm": bits(7, 0)}),
			},
		},
		{
			Name:     "b",
			Mnemonic: "b",
			Params:   []isa.Param{param("target", branchType, isa.AccessNone)},
			Encodings: []*isa.Encoding{
				t16("15..11=0b11100", binds{
					"target": formula(isa.SignExtend(isa.ShiftLeft(isa.R(10, 0), 1), 12)),
				}),
			},
		},
		{
			Name:     "bl",
			Mnemonic: "bl",
			Params: []isa.Param{
				param("target", branchType, isa.AccessNone),
				param("link", regType, isa.AccessDef),
			},
			Operands: operands("target"),
			Encodings: []*isa.Encoding{
				tpair("31..27=0b11110 15..11=0b11111", binds{
					"target": formula(isa.SignExtend(isa.Concat(isa.R(26, 16), isa.R(10, 0), isa.Const(0, 1)), 23)),
					"link":   link,
				}),
			},
		},
		{
			// The target of blx is word aligned, so the PC it is relative
			// to is aligned too.
			Name:     "blx_imm",
			Mnemonic: "blx",
			Params: []isa.Param{
				flagged(param("target", branchType, isa.AccessNone), isa.FlagAlignPC),
				param("link", regType, isa.AccessDef),
			},
			Operands: operands("target"),
			Encodings: []*isa.Encoding{
				tpair("31..27=0b11110 15..11=0b11101", binds{
					"target": formula(isa.SignExtend(isa.Concat(isa.R(26, 16), isa.R(10, 1), isa.Const(0, 2)), 23)),
					"link":   link,
				}, reserved("0=0"), since(isa.V5T)),
			},
		},
		{
			Name:     "bkpt",
			Mnemonic: "bkpt",
			Params:   []isa.Param{param("imm", immType, isa.AccessNone)},
			Encodings: []*isa.Encoding{
				t16("15..8=0xbe", binds{"imm": bits(7, 0)}, since(isa.V5T)),
			},
		},
	}
}

func (ty *thumbTypes) v6() []*isa.Opcode {
	var ret []*isa.Opcode
	for code, name := range []string{"sxth", "sxtb", "uxth", "uxtb"} {
		ret = append(ret, &isa.Opcode{
			Name:     name,
			Mnemonic: name,
			Params: []isa.Param{
				param("rd", regType, isa.AccessDef),
				param("rm", regType, isa.AccessUse),
			},
			Encodings: []*isa.Encoding{
				t16(fmt.Sprintf("15..8=0xb2 7..6=%d", code), binds{"rd": bits(2, 0), "rm": bits(5, 3)}, since(isa.V6)),
			},
		})
	}
	for _, r := range []struct {
		name string
		code int
	}{{"rev", 0}, {"rev16", 1}, {"revsh", 3}} {
		ret = append(ret, &isa.Opcode{
			Name:     r.name,
			Mnemonic: r.name,
			Params: []isa.Param{
				param("rd", regType, isa.AccessDef),
				param("rm", regType, isa.AccessUse),
			},
			Encodings: []*isa.Encoding{
				t16(fmt.Sprintf("15..8=0xba 7..6=%d", r.code), binds{"rd": bits(2, 0), "rm": bits(5, 3)}, since(isa.V6)),
			},
		})
	}
	for i, name := range hintNames {
		ret = append(ret, &isa.Opcode{
			Name:     name,
			Mnemonic: name,
			Encodings: []*isa.Encoding{
				t16(fmt.Sprintf("15..0=%#x", 0xbf00+i<<4), nil, since(isa.V6T2)),
			},
		})
	}
	return ret
}
