package arm

import "github.com/apparentlymart/arm-meta/isa"

type binds = map[string]isa.Binding

type encOpt func(*isa.Encoding)

func since(v isa.Version, exts ...isa.Extension) encOpt {
	return func(e *isa.Encoding) {
		e.Requires = isa.Since(v, exts...)
	}
}

// reserved takes a match spec whose one bits are should-be-one and whose
// zero bits are should-be-zero.
func reserved(spec string) encOpt {
	pattern, mask := isa.MustMatch(spec)
	return func(e *isa.Encoding) {
		e.Reserved = isa.Reserved{SBO: pattern, SBZ: mask &^ pattern}
	}
}

func mods(names ...string) encOpt {
	return func(e *isa.Encoding) {
		e.Modifiers = names
	}
}

func encoding(width isa.Width, match string, b binds, defaultMods []string, opts ...encOpt) *isa.Encoding {
	pattern, mask := isa.MustMatch(match)
	e := &isa.Encoding{
		Width:     width,
		Mask:      mask,
		Pattern:   pattern,
		Modifiers: defaultMods,
		Bind:      b,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// a32 declares a conditional 32-bit encoding.
func a32(match string, b binds, opts ...encOpt) *isa.Encoding {
	return encoding(isa.Word32, match, b, []string{"cond"}, opts...)
}

func t16(match string, b binds, opts ...encOpt) *isa.Encoding {
	return encoding(isa.Half16, match, b, nil, opts...)
}

func tpair(match string, b binds, opts ...encOpt) *isa.Encoding {
	return encoding(isa.HalfPair, match, b, nil, opts...)
}

func param(name string, t *isa.DataType, access isa.Access) isa.Param {
	return isa.Param{Name: name, Type: t, Access: access}
}

func flagged(p isa.Param, flags isa.ArgFlags) isa.Param {
	p.Flags |= flags
	return p
}

func member(name string, t *isa.DataType, b isa.Binding, flags ...isa.ArgFlags) isa.Member {
	m := isa.Member{Name: name, Type: t, Bind: b}
	for _, f := range flags {
		m.Flags |= f
	}
	return m
}

func variant(name, match string, members ...isa.Member) isa.Variant {
	pattern, mask := isa.MustMatch(match)
	return isa.Variant{Name: name, Mask: mask, Pattern: pattern, Members: members}
}

func operands(names ...string) []isa.Operand {
	ret := make([]isa.Operand, len(names))
	for i, name := range names {
		ret[i] = isa.Op(name)
	}
	return ret
}

func bits(hi, lo uint8) isa.Binding {
	return isa.BindBits(hi, lo)
}

func lit(v int64) isa.Binding {
	return isa.BindLit(v)
}

func formula(f *isa.Formula) isa.Binding {
	return isa.BindFormula(f)
}

// primitives shared by both instruction sets. Primitive types hold no
// bindings, so sharing them between tables is safe.
var (
	regType      = isa.Uint("reg", isa.DisplayReg)
	regPairType  = isa.Uint("regpair", isa.DisplayRegPair)
	immType      = isa.Uint("imm", isa.DisplayImm)
	regListType  = isa.Uint("reglist", isa.DisplayRegList)
	branchType   = isa.Int("branch", isa.DisplayBranch)
	coprocType   = isa.Uint("coproc", isa.DisplayCoproc)
	coRegType    = isa.Uint("coreg", isa.DisplayCoReg)
	coOptionType = isa.Uint("cooption", isa.DisplayCoOption)
	psrType      = isa.Bool("psr", isa.DisplayStatusReg)
	rotationType = isa.Uint("rotation", isa.DisplayRotation)
	flagType     = isa.Bool("flag", isa.DisplayNone)
	numberType   = isa.Uint("number", isa.DisplayNone)
)
