package isa

import "fmt"

// FieldKind says how a Field's bits become a value.
type FieldKind uint8

const (
	FieldUnsigned FieldKind = iota
	FieldSigned
	FieldBool
	FieldFormula
)

func (k FieldKind) String() string {
	switch k {
	case FieldUnsigned:
		return "unsigned"
	case FieldSigned:
		return "signed"
	case FieldBool:
		return "bool"
	case FieldFormula:
		return "formula"
	default:
		return fmt.Sprintf("FieldKind(%d)", uint8(k))
	}
}

// Field is a fixed projection of an instruction word to a value.
type Field struct {
	Kind  FieldKind
	Range BitRange

	// SignBits is the sign-extension width of a signed field. Zero means
	// the width of Range.
	SignBits uint8

	Formula *Formula
}

func (f Field) Mask() Bits {
	if f.Kind == FieldFormula {
		return f.Formula.Mask()
	}
	return f.Range.Mask()
}

func (f Field) Eval(w uint32) int64 {
	switch f.Kind {
	case FieldSigned:
		signBits := f.SignBits
		if signBits == 0 {
			signBits = f.Range.Width()
		}
		shift := 64 - uint(signBits)
		return int64(f.Range.Extract(w)) << shift >> shift
	case FieldBool:
		if f.Range.Extract(w) != 0 {
			return 1
		}
		return 0
	case FieldFormula:
		return f.Formula.Eval(w)
	default:
		return int64(f.Range.Extract(w))
	}
}

func (f Field) validate(width Width) error {
	if f.Kind == FieldFormula {
		if f.Formula == nil {
			return fmt.Errorf("formula field has no formula")
		}
		if err := f.Formula.validate(); err != nil {
			return err
		}
	} else if !f.Range.valid() {
		return fmt.Errorf("invalid field range %s", f.Range)
	}
	if f.Mask()&^width.Mask() != 0 {
		return fmt.Errorf("field %s exceeds the %s encoding width", f, width)
	}
	return nil
}

func (f Field) String() string {
	switch f.Kind {
	case FieldFormula:
		return f.Formula.String()
	case FieldSigned:
		return "s" + f.Range.String()
	case FieldBool:
		return "b" + f.Range.String()
	default:
		return f.Range.String()
	}
}
