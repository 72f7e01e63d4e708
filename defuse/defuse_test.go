package defuse_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apparentlymart/arm-meta/arm"
	"github.com/apparentlymart/arm-meta/decode"
	"github.com/apparentlymart/arm-meta/defuse"
	"github.com/apparentlymart/arm-meta/isa"
)

func TestDefsUses(t *testing.T) {
	t.Parallel()

	a32, err := arm.NewDecoder("a32")
	require.NoError(t, err)
	thumb, err := arm.NewDecoder("thumb")
	require.NoError(t, err)

	tests := []struct {
		dec        *decode.Decoder
		first      uint32
		second     uint32
		defs, uses string
	}{
		{a32, 0xe8bd0505, 0, "{sp, r0, r2, r8, r10}", "{sp}"},
		{a32, 0xe92d4010, 0, "{sp}", "{sp, r4, lr}"},
		{a32, 0xe0812003, 0, "{r2}", "{r1, r3}"},
		{a32, 0xe0812313, 0, "{r2}", "{r1, r3, r3}"},
		{a32, 0xe1500001, 0, "{}", "{r0, r1}"},
		{a32, 0xe5912fff, 0, "{r2}", "{r1}"},
		{a32, 0xe52d0004, 0, "{sp}", "{r0, sp}"},
		{a32, 0xe4910004, 0, "{r0, r1}", "{r1}"},
		{a32, 0xe7910102, 0, "{r0}", "{r1, r2}"},
		{a32, 0xe1c120d4, 0, "{r2, r3}", "{r1}"},
		{a32, 0xe8b10006, 0, "{r1, r1, r2}", "{r1}"},
		{a32, 0xe0210392, 0, "{r1}", "{r2, r3, r0}"},
		{a32, 0xebfffffe, 0, "{lr}", "{}"},
		{thumb, 0xbd01, 0, "{sp, r0, pc}", "{sp}"},
		{thumb, 0x4348, 0, "{r0}", "{r0, r1}"},
		{thumb, 0xf000, 0xf800, "{lr}", "{}"},
		{thumb, 0x4801, 0, "{r0}", "{pc}"},
		{thumb, 0xc906, 0, "{r1, r2}", "{r1}"},
		{thumb, 0xc806, 0, "{r0, r1, r2}", "{r0}"},
		{thumb, 0xc101, 0, "{r1}", "{r1, r0}"},
	}
	for _, test := range tests {
		inst, _ := test.dec.Decode(test.first, test.second, true, 0, arm.DefaultConfig())
		require.False(t, decode.IsIllegal(inst), "%#x", test.first)
		assert.Equal(t, test.defs, defuse.Defs(inst).String(), "defs of %#x", test.first)
		assert.Equal(t, test.uses, defuse.Uses(inst).String(), "uses of %#x", test.first)
	}
}

func TestSet(t *testing.T) {
	t.Parallel()

	dec, err := arm.NewDecoder("a32")
	require.NoError(t, err)
	inst, _ := dec.Decode(0xe8bd8001, 0, false, 0, arm.DefaultConfig())
	defs := defuse.Defs(inst)
	assert.Equal(t, 3, defs.Len())
	assert.Equal(t, []isa.Reg{isa.RegSP, 0, isa.RegPC}, defs.Regs())
	assert.True(t, defs.Contains(isa.RegPC))
	assert.False(t, defs.Contains(isa.RegLR))
	assert.Equal(t, 1, defs.Count(isa.RegSP))

	illegal := defuse.Defs(decode.Instruction{Illegal: decode.IllegalNoMatch})
	assert.Equal(t, 0, illegal.Len())
}
