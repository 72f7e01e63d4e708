package arm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apparentlymart/arm-meta/decode"
	"github.com/apparentlymart/arm-meta/isa"
)

func TestTablesBuild(t *testing.T) {
	t.Parallel()

	for _, spec := range []isa.TableSpec{A32Spec(), ThumbSpec()} {
		table, err := isa.NewTable(spec)
		require.NoError(t, err, spec.Name)
		assert.NotEmpty(t, table.Encodings())
		for i, enc := range table.Encodings() {
			assert.Equal(t, i, enc.Discriminant())
			assert.Same(t, table, enc.Table())
		}
	}

	assert.False(t, A32().Halfwords())
	assert.Equal(t, uint32(8), A32().PCBias())
	assert.True(t, Thumb().Halfwords())
	assert.Equal(t, uint32(4), Thumb().PCBias())
	assert.Equal(t, []isa.Width{isa.Half16, isa.HalfPair}, Thumb().Widths())
}

func TestTableByName(t *testing.T) {
	t.Parallel()

	for name, want := range map[string]*isa.Table{
		"a32":   A32(),
		"ARM":   A32(),
		"thumb": Thumb(),
		"t16":   Thumb(),
	} {
		got, err := TableByName(name)
		require.NoError(t, err, name)
		assert.Same(t, want, got, name)
	}
	_, err := TableByName("aarch64")
	assert.ErrorContains(t, err, `unknown instruction set "aarch64"`)

	_, err = NewDecoder("mips")
	assert.Error(t, err)
}

func TestConditionOf(t *testing.T) {
	t.Parallel()

	a32, err := NewDecoder("a32")
	require.NoError(t, err)
	thumb, err := NewDecoder("thumb")
	require.NoError(t, err)
	cfg := DefaultConfig()

	for word, want := range map[uint32]Condition{
		0xe0812003: CondAL,
		0x00812003: CondEQ,
		0x10812003: CondNE,
		0xc0812003: CondGT,
	} {
		inst, _ := a32.Decode(word, 0, false, 0, cfg)
		require.False(t, decode.IsIllegal(inst))
		assert.Equal(t, want, ConditionOf(inst), "%08x", word)
	}

	// Thumb conditional branch.
	inst, _ := thumb.Decode(0xd1fe, 0, false, 0, cfg)
	require.False(t, decode.IsIllegal(inst))
	assert.Equal(t, CondNE, ConditionOf(inst))

	// Unconditional Thumb instructions have no condition field.
	inst, _ = thumb.Decode(0x4008, 0, false, 0, cfg)
	require.False(t, decode.IsIllegal(inst))
	assert.Equal(t, CondAL, ConditionOf(inst))
}

func TestConditionString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "eq", CondEQ.String())
	assert.Equal(t, "le", CondLE.String())
	assert.Equal(t, "al", CondAL.String())
	assert.Equal(t, "Condition(15)", Condition(15).String())
}

func TestEncodingsWellFormed(t *testing.T) {
	t.Parallel()

	for _, table := range []*isa.Table{A32(), Thumb()} {
		for _, op := range table.Opcodes() {
			assert.NotEmpty(t, op.Encodings, "%s %s", table.Name(), op.Name)
			for _, enc := range op.Encodings {
				assert.Zero(t, enc.Pattern&^enc.Mask, "%s", enc)
				assert.Zero(t, enc.Mask&^enc.Width.Mask(), "%s", enc)
				assert.Same(t, op, enc.Opcode())
			}
		}
	}
}
