package isa

import (
	"fmt"
	"sort"
)

// BindingKind says where a parameter or member value comes from.
type BindingKind uint8

const (
	// BindingDecode decodes the value from the word as its type says: an
	// enum by its variants' selectors, a struct by its members' own
	// bindings, an alias by its formula.
	BindingDecode BindingKind = iota
	BindingField
	BindingLiteral
	BindingFormula
	BindingVariant
	BindingStruct
)

func (k BindingKind) String() string {
	switch k {
	case BindingDecode:
		return "decode"
	case BindingField:
		return "field"
	case BindingLiteral:
		return "literal"
	case BindingFormula:
		return "formula"
	case BindingVariant:
		return "variant"
	case BindingStruct:
		return "struct"
	default:
		return fmt.Sprintf("BindingKind(%d)", uint8(k))
	}
}

// Binding maps a parameter (or a member of a composite value) to its
// source in the instruction word. The zero Binding decodes the value from
// the word as its type says.
type Binding struct {
	Kind    BindingKind
	Field   Field
	Literal int64
	Formula *Formula

	// Variant names the selected enum variant of a BindingVariant, and
	// Members binds that variant's members (or a struct literal's). A
	// member left out of Members keeps its declared binding.
	Variant string
	Members map[string]Binding

	variant int
	members []Binding
}

// BindBits binds an unsigned field hi..lo.
func BindBits(hi, lo uint8) Binding {
	return Binding{Kind: BindingField, Field: Field{Kind: FieldUnsigned, Range: Span(hi, lo)}}
}

// BindSigned binds a signed field hi..lo, sign-extended from its width.
func BindSigned(hi, lo uint8) Binding {
	return Binding{Kind: BindingField, Field: Field{Kind: FieldSigned, Range: Span(hi, lo)}}
}

// BindFlag binds a single-bit boolean field.
func BindFlag(bit uint8) Binding {
	return Binding{Kind: BindingField, Field: Field{Kind: FieldBool, Range: Span(bit, bit)}}
}

func BindLit(v int64) Binding {
	return Binding{Kind: BindingLiteral, Literal: v}
}

func BindFormula(f *Formula) Binding {
	return Binding{Kind: BindingFormula, Formula: f}
}

func BindDecode() Binding {
	return Binding{Kind: BindingDecode}
}

func BindVariant(name string, members map[string]Binding) Binding {
	return Binding{Kind: BindingVariant, Variant: name, Members: members}
}

func BindStruct(members map[string]Binding) Binding {
	return Binding{Kind: BindingStruct, Members: members}
}

// VariantIndex returns the selected variant of a resolved BindingVariant.
func (b *Binding) VariantIndex() int {
	return b.variant
}

// Member returns the resolved binding of the i'th member of a
// BindingVariant or BindingStruct.
func (b *Binding) Member(i int) *Binding {
	return &b.members[i]
}

// resolve checks b against the type it binds and returns a copy with the
// variant index and per-member bindings filled in.
func (b Binding) resolve(t *DataType, width Width) (Binding, error) {
	switch b.Kind {
	case BindingField:
		if t.Kind > TypeBool {
			return b, fmt.Errorf("%s type %s cannot be bound to a field", t.Kind, t.Name)
		}
		if err := b.Field.validate(width); err != nil {
			return b, err
		}
	case BindingLiteral:
		if t.Kind > TypeBool {
			return b, fmt.Errorf("%s type %s cannot be bound to a literal", t.Kind, t.Name)
		}
	case BindingFormula:
		if t.Kind > TypeBool {
			return b, fmt.Errorf("%s type %s cannot be bound to a formula", t.Kind, t.Name)
		}
		if b.Formula == nil {
			return b, fmt.Errorf("formula binding has no formula")
		}
		if err := b.Formula.validate(); err != nil {
			return b, err
		}
		if b.Formula.Mask()&^width.Mask() != 0 {
			return b, fmt.Errorf("formula %s exceeds the %s encoding width", b.Formula, width)
		}
	case BindingDecode:
		if t.Kind <= TypeBool {
			return b, fmt.Errorf("%s type %s needs a field, literal or formula binding", t.Kind, t.Name)
		}
	case BindingVariant:
		if t.Kind != TypeEnum {
			return b, fmt.Errorf("variant binding on %s type %s", t.Kind, t.Name)
		}
		b.variant = t.VariantOf(b.Variant)
		if b.variant < 0 {
			return b, fmt.Errorf("enum %s has no variant %q", t.Name, b.Variant)
		}
		members, err := resolveMembers(t.Variants[b.variant].Members, b.Members, width)
		if err != nil {
			return b, fmt.Errorf("variant %s: %w", b.Variant, err)
		}
		b.members = members
	case BindingStruct:
		if t.Kind != TypeStruct {
			return b, fmt.Errorf("struct binding on %s type %s", t.Kind, t.Name)
		}
		members, err := resolveMembers(t.Members, b.Members, width)
		if err != nil {
			return b, err
		}
		b.members = members
	default:
		return b, fmt.Errorf("unknown binding kind %d", uint8(b.Kind))
	}
	return b, nil
}

func resolveMembers(members []Member, given map[string]Binding, width Width) ([]Binding, error) {
	known := make(map[string]bool, len(members))
	ret := make([]Binding, len(members))
	for i, m := range members {
		known[m.Name] = true
		b, ok := given[m.Name]
		if !ok {
			b = m.Bind
		}
		resolved, err := b.resolve(m.Type, width)
		if err != nil {
			return nil, fmt.Errorf("member %s: %w", m.Name, err)
		}
		ret[i] = resolved
	}
	var unknown []string
	for name := range given {
		if !known[name] {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("no such members: %v", unknown)
	}
	return ret, nil
}

// claim returns the word bits a resolved binding reads when decoding a
// value of type t.
func (b *Binding) claim(t *DataType) (Bits, error) {
	switch b.Kind {
	case BindingField:
		return b.Field.Mask(), nil
	case BindingLiteral:
		return 0, nil
	case BindingFormula:
		return b.Formula.Mask(), nil
	case BindingDecode:
		return t.decodedClaim()
	case BindingVariant:
		return membersClaim(t.Variants[b.variant].Members, b.members)
	case BindingStruct:
		return membersClaim(t.Members, b.members)
	default:
		return 0, fmt.Errorf("unknown binding kind %d", uint8(b.Kind))
	}
}

func (b Binding) String() string {
	switch b.Kind {
	case BindingField:
		return b.Field.String()
	case BindingLiteral:
		return fmt.Sprintf("%#x", b.Literal)
	case BindingFormula:
		return b.Formula.String()
	case BindingVariant:
		return b.Variant + "{...}"
	case BindingStruct:
		return "{...}"
	default:
		return "decode"
	}
}
