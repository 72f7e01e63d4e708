package isa

import (
	"fmt"
	"math/bits"
	"strings"
)

// FormulaOp is one of the closed set of operators a Formula can apply.
type FormulaOp uint8

const (
	OpRange       FormulaOp = iota // bits Range of the word, right-justified
	OpConst                        // Value, Width bits wide
	OpConcat                       // Args joined, first argument most significant
	OpSignExtend                   // Args[0] sign-extended from Width bits
	OpShiftLeft                    // Args[0] << Value
	OpRotateRight                  // Args[0] rotated right by Args[1] within 32 bits
	OpAdd                          // Args[0] + Args[1], wrapping at Width bits
	OpSub                          // Args[0] - Args[1], wrapping at Width bits
	OpSatAdd                       // Args[0] + Args[1], saturating at Width bits
	OpZeroIs                       // Value when Args[0] is zero, otherwise Args[0]
	OpNot                          // 1 when Args[0] is zero, otherwise 0
)

var formulaOpNames = [...]string{
	OpRange:       "range",
	OpConst:       "const",
	OpConcat:      "concat",
	OpSignExtend:  "sext",
	OpShiftLeft:   "lsl",
	OpRotateRight: "ror",
	OpAdd:         "add",
	OpSub:         "sub",
	OpSatAdd:      "satadd",
	OpZeroIs:      "zerois",
	OpNot:         "not",
}

func (op FormulaOp) String() string {
	if int(op) < len(formulaOpNames) {
		return formulaOpNames[op]
	}
	return fmt.Sprintf("FormulaOp(%d)", uint8(op))
}

// Formula computes a value from one or more bit ranges of an instruction
// word. Formulas are pure: the same word always evaluates to the same value.
type Formula struct {
	Op    FormulaOp
	Range BitRange
	Value int64
	Width uint8
	Args  []*Formula
}

// R returns a formula reading bits hi..lo.
func R(hi, lo uint8) *Formula {
	return &Formula{Op: OpRange, Range: Span(hi, lo)}
}

// Bit returns a formula reading the single bit n.
func Bit(n uint8) *Formula {
	return R(n, n)
}

func Const(v int64, width uint8) *Formula {
	return &Formula{Op: OpConst, Value: v, Width: width}
}

func Concat(parts ...*Formula) *Formula {
	return &Formula{Op: OpConcat, Args: parts}
}

func SignExtend(f *Formula, width uint8) *Formula {
	return &Formula{Op: OpSignExtend, Width: width, Args: []*Formula{f}}
}

func ShiftLeft(f *Formula, n uint8) *Formula {
	return &Formula{Op: OpShiftLeft, Value: int64(n), Args: []*Formula{f}}
}

func RotateRight(f, amount *Formula) *Formula {
	return &Formula{Op: OpRotateRight, Args: []*Formula{f, amount}}
}

// Add wraps at width bits. A zero width never wraps.
func Add(a, b *Formula, width uint8) *Formula {
	return &Formula{Op: OpAdd, Width: width, Args: []*Formula{a, b}}
}

func Sub(a, b *Formula, width uint8) *Formula {
	return &Formula{Op: OpSub, Width: width, Args: []*Formula{a, b}}
}

func SatAdd(a, b *Formula, width uint8) *Formula {
	return &Formula{Op: OpSatAdd, Width: width, Args: []*Formula{a, b}}
}

func ZeroIs(f *Formula, v int64) *Formula {
	return &Formula{Op: OpZeroIs, Value: v, Args: []*Formula{f}}
}

func Not(f *Formula) *Formula {
	return &Formula{Op: OpNot, Args: []*Formula{f}}
}

// Eval computes the formula's value for the word w.
func (f *Formula) Eval(w uint32) int64 {
	switch f.Op {
	case OpRange:
		return int64(f.Range.Extract(w))
	case OpConst:
		return f.Value
	case OpConcat:
		var ret int64
		for _, part := range f.Args {
			width := part.width()
			ret = ret<<width | part.Eval(w)&(1<<width-1)
		}
		return ret
	case OpSignExtend:
		shift := 64 - uint(f.Width)
		return f.Args[0].Eval(w) << shift >> shift
	case OpShiftLeft:
		return f.Args[0].Eval(w) << uint(f.Value)
	case OpRotateRight:
		v := uint32(f.Args[0].Eval(w))
		n := int(f.Args[1].Eval(w) & 31)
		return int64(bits.RotateLeft32(v, -n))
	case OpAdd:
		return wrap(f.Args[0].Eval(w)+f.Args[1].Eval(w), f.Width)
	case OpSub:
		return wrap(f.Args[0].Eval(w)-f.Args[1].Eval(w), f.Width)
	case OpSatAdd:
		sum := f.Args[0].Eval(w) + f.Args[1].Eval(w)
		if f.Width != 0 {
			if limit := int64(1)<<f.Width - 1; sum > limit {
				return limit
			}
		}
		return sum
	case OpZeroIs:
		if v := f.Args[0].Eval(w); v != 0 {
			return v
		}
		return f.Value
	case OpNot:
		if f.Args[0].Eval(w) == 0 {
			return 1
		}
		return 0
	default:
		// Unreachable for formulas that passed validation.
		return 0
	}
}

func wrap(v int64, width uint8) int64 {
	if width == 0 {
		return v
	}
	return v & (1<<width - 1)
}

// Mask returns the set of word bits the formula reads.
func (f *Formula) Mask() Bits {
	if f.Op == OpRange {
		return f.Range.Mask()
	}
	var ret Bits
	for _, arg := range f.Args {
		ret |= arg.Mask()
	}
	return ret
}

// width is the number of significant bits a Concat part contributes.
func (f *Formula) width() uint8 {
	switch f.Op {
	case OpRange:
		return f.Range.Width()
	case OpShiftLeft:
		return f.Args[0].width() + uint8(f.Value)
	case OpConcat:
		var ret uint8
		for _, part := range f.Args {
			ret += part.width()
		}
		return ret
	default:
		return f.Width
	}
}

func (f *Formula) validate() error {
	wantArgs := map[FormulaOp]int{
		OpRange: 0, OpConst: 0, OpSignExtend: 1, OpShiftLeft: 1,
		OpRotateRight: 2, OpAdd: 2, OpSub: 2, OpSatAdd: 2, OpZeroIs: 1, OpNot: 1,
	}
	if f.Op > OpNot {
		return fmt.Errorf("unknown formula operator %d", uint8(f.Op))
	}
	if want, ok := wantArgs[f.Op]; ok && len(f.Args) != want {
		return fmt.Errorf("%s takes %d arguments, got %d", f.Op, want, len(f.Args))
	}
	switch f.Op {
	case OpRange:
		if !f.Range.valid() {
			return fmt.Errorf("invalid range %s", f.Range)
		}
	case OpConcat:
		if len(f.Args) == 0 {
			return fmt.Errorf("concat of nothing")
		}
		for _, part := range f.Args {
			if part.width() == 0 {
				return fmt.Errorf("concat part %s has no fixed width", part)
			}
		}
	case OpSignExtend:
		if f.Width == 0 || f.Width > 63 {
			return fmt.Errorf("invalid sign extension width %d", f.Width)
		}
	}
	for _, arg := range f.Args {
		if err := arg.validate(); err != nil {
			return err
		}
	}
	return nil
}

func (f *Formula) String() string {
	switch f.Op {
	case OpRange:
		return f.Range.String()
	case OpConst:
		return fmt.Sprintf("%#x", f.Value)
	}
	var b strings.Builder
	b.WriteString(f.Op.String())
	b.WriteByte('(')
	for i, arg := range f.Args {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(arg.String())
	}
	switch f.Op {
	case OpSignExtend, OpAdd, OpSub, OpSatAdd:
		fmt.Fprintf(&b, "; %d", f.Width)
	case OpShiftLeft, OpZeroIs:
		fmt.Fprintf(&b, "; %d", f.Value)
	}
	b.WriteByte(')')
	return b.String()
}
