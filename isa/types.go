package isa

import "fmt"

// TypeKind distinguishes the primitive and composite data types.
type TypeKind uint8

const (
	TypeUint TypeKind = iota
	TypeInt
	TypeBool
	TypeEnum
	TypeStruct
	TypeAlias
)

func (k TypeKind) String() string {
	switch k {
	case TypeUint:
		return "uint"
	case TypeInt:
		return "int"
	case TypeBool:
		return "bool"
	case TypeEnum:
		return "enum"
	case TypeStruct:
		return "struct"
	case TypeAlias:
		return "alias"
	default:
		return fmt.Sprintf("TypeKind(%d)", uint8(k))
	}
}

// Display is the text rule a value is rendered with. Primitive values
// render as a single argument; a struct with a Display renders all of its
// members as one composite argument.
type Display uint8

const (
	DisplayNone Display = iota
	DisplayReg
	DisplayRegList
	DisplayImm
	DisplaySImm
	DisplayBranch
	DisplayOffsetImm    // struct {sub, value} or plain unsigned offset
	DisplayOffsetReg    // struct {sub, reg}
	DisplayShiftImm     // struct {op, amount}
	DisplayShiftReg     // struct {op, reg}
	DisplayRRX          // produced from a ror #0 shift
	DisplayRotation     // "ror #n", omitted when zero
	DisplayCoproc       // p0-p15
	DisplayCoReg        // c0-c15
	DisplayCoOption     // {n}
	DisplayStatusReg    // cpsr or spsr
	DisplayStatusFields // struct {spsr, mask}
	DisplayRegPair      // two consecutive registers from one field
)

var displayNames = [...]string{
	DisplayNone:         "none",
	DisplayReg:          "reg",
	DisplayRegList:      "reglist",
	DisplayImm:          "imm",
	DisplaySImm:         "simm",
	DisplayBranch:       "branch",
	DisplayOffsetImm:    "offset-imm",
	DisplayOffsetReg:    "offset-reg",
	DisplayShiftImm:     "shift-imm",
	DisplayShiftReg:     "shift-reg",
	DisplayRRX:          "rrx",
	DisplayRotation:     "rotation",
	DisplayCoproc:       "coproc",
	DisplayCoReg:        "coreg",
	DisplayCoOption:     "cooption",
	DisplayStatusReg:    "status-reg",
	DisplayStatusFields: "status-fields",
	DisplayRegPair:      "regpair",
}

func (d Display) String() string {
	if int(d) < len(displayNames) {
		return displayNames[d]
	}
	return fmt.Sprintf("Display(%d)", uint8(d))
}

// composite reports whether d renders a struct as a single argument, and
// how many members that struct must have.
func (d Display) composite() (int, bool) {
	switch d {
	case DisplayOffsetImm, DisplayOffsetReg, DisplayShiftImm, DisplayShiftReg, DisplayStatusFields:
		return 2, true
	}
	return 0, false
}

// ArgFlags annotate a rendered argument with its role in an addressing
// mode or register list.
type ArgFlags uint16

const (
	FlagMemBase   ArgFlags = 1 << iota // opens a dereference
	FlagWriteback                      // base register is written back
	FlagEndsDeref                      // closes the dereference before this argument
	FlagAlignPC                        // PC-relative with the PC aligned down to 4
	FlagUserMode                       // register list transfers user-mode registers
	FlagSubtract                       // offset is subtracted from the base
)

func (f ArgFlags) Has(o ArgFlags) bool {
	return f&o == o
}

// ShiftOp is a barrel shifter operation.
type ShiftOp uint8

const (
	ShiftLSL ShiftOp = iota
	ShiftLSR
	ShiftASR
	ShiftROR
)

func (op ShiftOp) String() string {
	switch op {
	case ShiftLSL:
		return "lsl"
	case ShiftLSR:
		return "lsr"
	case ShiftASR:
		return "asr"
	case ShiftROR:
		return "ror"
	default:
		return fmt.Sprintf("ShiftOp(%d)", uint8(op))
	}
}

// Reg is an architectural core register number.
type Reg uint8

const (
	RegSP Reg = 13
	RegLR Reg = 14
	RegPC Reg = 15

	NumRegs = 16
)

// DataType describes the value of an opcode parameter or of a member of
// a composite type.
type DataType struct {
	Name    string
	Kind    TypeKind
	Display Display

	// Variants of an enum, each selected by its own Mask/Pattern.
	Variants []Variant

	// Members of a struct.
	Members []Member

	// Target and Formula of an alias.
	Target  *DataType
	Formula *Formula
}

type Variant struct {
	Name    string
	Mask    Bits
	Pattern Bits
	Members []Member
}

// Member is a named part of a struct or enum variant. Bind says how the
// member is decoded when its parent is decoded from the word.
type Member struct {
	Name  string
	Type  *DataType
	Bind  Binding
	Flags ArgFlags
}

func Uint(name string, display Display) *DataType {
	return &DataType{Name: name, Kind: TypeUint, Display: display}
}

func Int(name string, display Display) *DataType {
	return &DataType{Name: name, Kind: TypeInt, Display: display}
}

func Bool(name string, display Display) *DataType {
	return &DataType{Name: name, Kind: TypeBool, Display: display}
}

func Enum(name string, variants ...Variant) *DataType {
	return &DataType{Name: name, Kind: TypeEnum, Variants: variants}
}

func Struct(name string, display Display, members ...Member) *DataType {
	return &DataType{Name: name, Kind: TypeStruct, Display: display, Members: members}
}

func Alias(name string, target *DataType, f *Formula) *DataType {
	return &DataType{Name: name, Kind: TypeAlias, Target: target, Formula: f}
}

// VariantOf returns the index of the named variant, or -1.
func (t *DataType) VariantOf(name string) int {
	for i, v := range t.Variants {
		if v.Name == name {
			return i
		}
	}
	return -1
}

func (t *DataType) String() string {
	return t.Name
}

// MaxArgs returns the largest number of rendered arguments a value of the
// type can flatten to.
func (t *DataType) MaxArgs() int {
	switch t.Kind {
	case TypeEnum:
		ret := 0
		for _, v := range t.Variants {
			if n := membersMaxArgs(v.Members); n > ret {
				ret = n
			}
		}
		return ret
	case TypeStruct:
		if _, ok := t.Display.composite(); ok {
			return 1
		}
		return membersMaxArgs(t.Members)
	case TypeAlias:
		return t.Target.MaxArgs()
	default:
		switch t.Display {
		case DisplayNone:
			return 0
		case DisplayRegPair:
			return 2
		}
		return 1
	}
}

func membersMaxArgs(members []Member) int {
	ret := 0
	for _, m := range members {
		ret += m.Type.MaxArgs()
	}
	return ret
}

// decodedClaim returns the bits a type-driven decode of t reads.
func (t *DataType) decodedClaim() (Bits, error) {
	switch t.Kind {
	case TypeEnum:
		var ret Bits
		for i, v := range t.Variants {
			claim, err := membersClaim(v.Members, nil)
			if err != nil {
				return 0, fmt.Errorf("variant %s: %w", v.Name, err)
			}
			if claim&v.Mask != 0 {
				return 0, fmt.Errorf("variant %s: members overlap its selector bits %s", v.Name, claim&v.Mask)
			}
			claim |= v.Mask
			if i > 0 && claim != ret {
				return 0, fmt.Errorf("variant %s claims %s but %s claims %s", v.Name, claim, t.Variants[0].Name, ret)
			}
			ret = claim
		}
		return ret, nil
	case TypeStruct:
		return membersClaim(t.Members, nil)
	case TypeAlias:
		return t.Formula.Mask(), nil
	default:
		return 0, fmt.Errorf("%s value cannot be decoded without a field binding", t.Kind)
	}
}

// membersClaim returns the union of the members' claims, using the
// overriding bindings where given. Members may not share bits.
func membersClaim(members []Member, binds []Binding) (Bits, error) {
	var ret Bits
	for i, m := range members {
		b := &members[i].Bind
		if binds != nil {
			b = &binds[i]
		}
		claim, err := b.claim(m.Type)
		if err != nil {
			return 0, fmt.Errorf("member %s: %w", m.Name, err)
		}
		if ret&claim != 0 {
			return 0, fmt.Errorf("member %s reuses bits %s", m.Name, ret&claim)
		}
		ret |= claim
	}
	return ret, nil
}

func (t *DataType) validate(width Width, seen map[*DataType]bool) error {
	if seen[t] {
		return nil
	}
	seen[t] = true
	switch t.Kind {
	case TypeEnum:
		if len(t.Variants) == 0 {
			return fmt.Errorf("enum %s has no variants", t.Name)
		}
		for i, v := range t.Variants {
			if v.Pattern&^v.Mask != 0 {
				return fmt.Errorf("enum %s variant %s: pattern bits %s outside its mask", t.Name, v.Name, v.Pattern&^v.Mask)
			}
			for _, o := range t.Variants[:i] {
				common := v.Mask & o.Mask
				if v.Pattern&common == o.Pattern&common {
					return fmt.Errorf("enum %s variants %s and %s overlap", t.Name, o.Name, v.Name)
				}
			}
			for j := range v.Members {
				if err := v.Members[j].validate(width, seen); err != nil {
					return fmt.Errorf("enum %s variant %s: %w", t.Name, v.Name, err)
				}
			}
		}
	case TypeStruct:
		n, ok := t.Display.composite()
		switch {
		case t.Display == DisplayNone:
		case !ok:
			return fmt.Errorf("struct %s cannot be displayed as %s", t.Name, t.Display)
		case len(t.Members) != n:
			return fmt.Errorf("struct %s displayed as %s needs %d members", t.Name, t.Display, n)
		}
		for i := range t.Members {
			if err := t.Members[i].validate(width, seen); err != nil {
				return fmt.Errorf("struct %s: %w", t.Name, err)
			}
		}
	case TypeAlias:
		if t.Target == nil || t.Formula == nil {
			return fmt.Errorf("alias %s needs a target and a formula", t.Name)
		}
		if t.Target.Kind > TypeBool {
			return fmt.Errorf("alias %s must target a primitive type", t.Name)
		}
		if err := t.Formula.validate(); err != nil {
			return fmt.Errorf("alias %s: %w", t.Name, err)
		}
	}
	return nil
}

func (m *Member) validate(width Width, seen map[*DataType]bool) error {
	if m.Type == nil {
		return fmt.Errorf("member %s has no type", m.Name)
	}
	if err := m.Type.validate(width, seen); err != nil {
		return err
	}
	resolved, err := m.Bind.resolve(m.Type, width)
	if err != nil {
		return fmt.Errorf("member %s: %w", m.Name, err)
	}
	m.Bind = resolved
	return nil
}
