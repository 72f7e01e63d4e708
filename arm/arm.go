// Package arm holds the rule tables of the 32-bit ARM and Thumb
// instruction sets.
package arm

import (
	"fmt"
	"strings"
	"sync"

	"github.com/apparentlymart/arm-meta/decode"
	"github.com/apparentlymart/arm-meta/isa"
)

// A32 returns the validated ARM instruction set table.
var A32 = sync.OnceValue(func() *isa.Table {
	return isa.MustNewTable(a32Spec())
})

// Thumb returns the validated Thumb instruction set table.
var Thumb = sync.OnceValue(func() *isa.Table {
	return isa.MustNewTable(thumbSpec())
})

// A32Spec returns a fresh, unvalidated description of the ARM
// instruction set, for callers that build their own tables from it.
func A32Spec() isa.TableSpec {
	return a32Spec()
}

// ThumbSpec is the Thumb counterpart of A32Spec.
func ThumbSpec() isa.TableSpec {
	return thumbSpec()
}

// TableNames lists the names accepted by TableByName.
var TableNames = []string{"a32", "thumb"}

// TableByName returns one of the built-in tables.
func TableByName(name string) (*isa.Table, error) {
	switch strings.ToLower(name) {
	case "a32", "arm":
		return A32(), nil
	case "thumb", "t16", "t32":
		return Thumb(), nil
	}
	return nil, fmt.Errorf("unknown instruction set %q", name)
}

// NewDecoder builds a decoder for one of the built-in tables.
func NewDecoder(name string, opts ...decode.Option) (*decode.Decoder, error) {
	table, err := TableByName(name)
	if err != nil {
		return nil, err
	}
	return decode.New(table, opts...)
}

// DefaultConfig decodes everything the tables describe.
func DefaultConfig() decode.Config {
	return decode.Config{Version: isa.V7, Extensions: isa.AllExtensions}
}

// Condition is the condition an instruction executes under.
type Condition uint8

const (
	CondEQ Condition = iota
	CondNE
	CondCS
	CondCC
	CondMI
	CondPL
	CondVS
	CondVC
	CondHI
	CondLS
	CondGE
	CondLT
	CondGT
	CondLE
	CondAL
)

var conditionNames = [...]string{
	"eq", "ne", "cs", "cc", "mi", "pl", "vs", "vc",
	"hi", "ls", "ge", "lt", "gt", "le", "al",
}

func (c Condition) String() string {
	if int(c) < len(conditionNames) {
		return conditionNames[c]
	}
	return fmt.Sprintf("Condition(%d)", uint8(c))
}

// ConditionOf returns the condition of inst. Instructions without a
// condition field always execute.
func ConditionOf(inst decode.Instruction) Condition {
	if c, ok := inst.Modifier("cond"); ok {
		return Condition(c)
	}
	return CondAL
}

// condModifier is a four-bit condition field at bit lo with its first n
// cases. The always condition has no suffix.
func condModifier(lo uint8, n int) *isa.Modifier {
	m := &isa.Modifier{Name: "cond"}
	mask := isa.Bits(0xf) << lo
	for i := 0; i < n; i++ {
		text := conditionNames[i]
		if Condition(i) == CondAL {
			text = ""
		}
		m.Cases = append(m.Cases, isa.Case{
			Mask:    mask,
			Pattern: isa.Bits(i) << lo,
			Text:    text,
		})
	}
	return m
}

// flagModifier is a single bit that adds text to the mnemonic when set.
func flagModifier(name string, bit uint8, text string) *isa.Modifier {
	mask := isa.Bits(1) << bit
	return &isa.Modifier{
		Name: name,
		Cases: []isa.Case{
			{Mask: mask, Pattern: 0},
			{Mask: mask, Pattern: mask, Text: text},
		},
	}
}
