package decode

import "github.com/apparentlymart/arm-meta/isa"

func decodeBinding(b *isa.Binding, t *isa.DataType, w uint32) (Value, bool) {
	switch b.Kind {
	case isa.BindingField:
		return Value{Type: t, Int: b.Field.Eval(w)}, true
	case isa.BindingLiteral:
		return Value{Type: t, Int: b.Literal}, true
	case isa.BindingFormula:
		return Value{Type: t, Int: b.Formula.Eval(w)}, true
	case isa.BindingVariant:
		idx := b.VariantIndex()
		return decodeMembers(t, idx, t.Variants[idx].Members, b, w)
	case isa.BindingStruct:
		return decodeMembers(t, 0, t.Members, b, w)
	default:
		return decodeType(t, w)
	}
}

// decodeType decodes a composite value as its type says.
func decodeType(t *isa.DataType, w uint32) (Value, bool) {
	switch t.Kind {
	case isa.TypeEnum:
		for i := range t.Variants {
			v := &t.Variants[i]
			if isa.Bits(w)&v.Mask == v.Pattern {
				return decodeMembers(t, i, v.Members, nil, w)
			}
		}
		return Value{}, false
	case isa.TypeStruct:
		return decodeMembers(t, 0, t.Members, nil, w)
	case isa.TypeAlias:
		return Value{Type: t, Int: t.Formula.Eval(w)}, true
	default:
		return Value{}, false
	}
}

// decodeMembers decodes members with their declared bindings, or with
// the resolved member bindings of b when given.
func decodeMembers(t *isa.DataType, variant int, members []isa.Member, b *isa.Binding, w uint32) (Value, bool) {
	ret := Value{Type: t, Variant: variant}
	if len(members) == 0 {
		return ret, true
	}
	ret.Members = make([]Value, len(members))
	for i := range members {
		mb := &members[i].Bind
		if b != nil {
			mb = b.Member(i)
		}
		v, ok := decodeBinding(mb, members[i].Type, w)
		if !ok {
			return Value{}, false
		}
		ret.Members[i] = v
	}
	return ret, true
}

// argBuilder flattens parameter values into the fixed argument array.
type argBuilder struct {
	args [isa.MaxArgs]Arg
	n    int
}

func (b *argBuilder) emit(a Arg) {
	// Table validation bounds the argument count, so this only guards
	// against a table built around validation.
	if b.n < len(b.args) {
		b.args[b.n] = a
		b.n++
	}
}

func (b *argBuilder) flatten(v Value, flags isa.ArgFlags, param int) {
	t := v.Type
	switch t.Kind {
	case isa.TypeEnum:
		members := t.Variants[v.Variant].Members
		for i, m := range members {
			b.flatten(v.Members[i], flags|m.Flags, param)
		}
	case isa.TypeStruct:
		if t.Display != isa.DisplayNone {
			b.composite(t.Display, v, flags, param)
			return
		}
		for i, m := range t.Members {
			b.flatten(v.Members[i], flags|m.Flags, param)
		}
	default:
		display := t.Display
		if t.Kind == isa.TypeAlias {
			display = t.Target.Display
		}
		b.primitive(display, v.Int, flags, param)
	}
}

func (b *argBuilder) primitive(display isa.Display, v int64, flags isa.ArgFlags, param int) {
	switch display {
	case isa.DisplayNone:
		return
	case isa.DisplayRegPair:
		b.emit(Arg{Kind: isa.DisplayReg, Flags: flags, Param: int8(param), Value: v})
		b.emit(Arg{Kind: isa.DisplayReg, Flags: flags, Param: int8(param), Value: (v + 1) % isa.NumRegs})
	case isa.DisplayRotation:
		if v == 0 {
			return
		}
		b.emit(Arg{Kind: isa.DisplayRotation, Shift: isa.ShiftROR, Flags: flags, Param: int8(param), Value: v})
	default:
		b.emit(Arg{Kind: display, Flags: flags, Param: int8(param), Value: v})
	}
}

func (b *argBuilder) composite(display isa.Display, v Value, flags isa.ArgFlags, param int) {
	first, second := v.Members[0].Int, v.Members[1].Int
	a := Arg{Kind: display, Flags: flags, Param: int8(param), Value: second}
	switch display {
	case isa.DisplayShiftImm:
		a.Shift = isa.ShiftOp(first)
		switch {
		case second != 0:
		case a.Shift == isa.ShiftLSL:
			// lsl #0 is no shift at all.
			return
		case a.Shift == isa.ShiftROR:
			a.Kind = isa.DisplayRRX
		default:
			a.Value = 32
		}
	case isa.DisplayShiftReg:
		a.Shift = isa.ShiftOp(first)
	case isa.DisplayOffsetImm, isa.DisplayOffsetReg:
		if first != 0 {
			a.Flags |= isa.FlagSubtract
		}
	case isa.DisplayStatusFields:
		a.Value = first<<4 | second
	}
	b.emit(a)
}
