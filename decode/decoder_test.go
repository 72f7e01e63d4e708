package decode_test

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apparentlymart/arm-meta/arm"
	"github.com/apparentlymart/arm-meta/decode"
	"github.com/apparentlymart/arm-meta/dispatch"
	"github.com/apparentlymart/arm-meta/internal/testutil"
	"github.com/apparentlymart/arm-meta/isa"
	"github.com/apparentlymart/arm-meta/render"
)

func newDecoder(t testing.TB, name string, opts ...decode.Option) *decode.Decoder {
	t.Helper()
	dec, err := arm.NewDecoder(name, opts...)
	require.NoError(t, err)
	return dec
}

func TestDecodeA32(t *testing.T) {
	t.Parallel()

	dec := newDecoder(t, "a32")
	cfg := arm.DefaultConfig()

	tests := []struct {
		word   uint32
		opcode string
		text   string
	}{
		{0xe0812003, "add", "add r2, r1, r3"},
		{0xe0912103, "add", "adds r2, r1, r3, lsl #0x2"},
		{0xe2812001, "add", "add r2, r1, #0x1"},
		{0xe3a004ff, "mov", "mov r0, #0xff000000"},
		{0xe1a00001, "mov", "mov r0, r1"},
		{0x11b00001, "mov", "movsne r0, r1"},
		{0xe1a00181, "lsl_imm", "lsl r0, r1, #0x3"},
		{0xe1a00061, "rrx", "rrx r0, r1"},
		{0xe1500001, "cmp", "cmp r0, r1"},
		{0xe5912fff, "ldr", "ldr r2, [r1, #0xfff]"},
		{0xe5910000, "ldr", "ldr r0, [r1]"},
		{0xe52d0004, "str", "str r0, [sp, #-0x4]!"},
		{0xe4910004, "ldr", "ldr r0, [r1], #0x4"},
		{0xe7910102, "ldr", "ldr r0, [r1, r2, lsl #0x2]"},
		{0xe1c120d4, "ldrd", "ldrd r2, r3, [r1, #0x4]"},
		{0xe8bd0505, "pop", "pop {r0, r2, r8, r10}"},
		{0xe92d4010, "push", "push {r4, lr}"},
		{0xe8b10006, "ldm", "ldm r1!, {r1, r2}"},
		{0xe9100006, "ldm", "ldmdb r0, {r1, r2}"},
		{0xe12fff1e, "bx", "bx lr"},
		{0xe0010392, "mul", "mul r1, r2, r3"},
		{0xef000011, "svc", "svc #0x11"},
		{0xe1200070, "bkpt", "bkpt #0x0"},
		{0xe10f0000, "mrs", "mrs r0, cpsr"},
		{0xe129f001, "msr_reg", "msr cpsr_fc, r1"},
		{0xe320f000, "nop", "nop"},
		{0xe16f0f11, "clz", "clz r0, r1"},
		{0xee010f10, "mcr", "mcr p15, #0x0, r0, c1, c0, #0x0"},
	}
	for _, test := range tests {
		inst, n := dec.Decode(test.word, 0, false, 0x8000, cfg)
		if !assert.False(t, decode.IsIllegal(inst), "%#08x: %s", test.word, inst.Illegal) {
			continue
		}
		assert.Equal(t, 4, n)
		assert.Equal(t, test.opcode, inst.Opcode().Name, "%#08x", test.word)
		assert.Equal(t, test.text, render.Render(inst, render.Options{}, nil), "%#08x", test.word)
	}
}

func TestDecodeThumb(t *testing.T) {
	t.Parallel()

	dec := newDecoder(t, "thumb")
	cfg := arm.DefaultConfig()

	tests := []struct {
		first, second uint32
		size          int
		text          string
	}{
		{0x1c08, 0, 2, "adds r0, r1, #0x0"},
		{0x0008, 0, 2, "movs r0, r1"},
		{0x00c8, 0, 2, "lsls r0, r1, #0x3"},
		{0x0848, 0, 2, "lsrs r0, r1, #0x1"},
		{0x0808, 0, 2, "lsrs r0, r1, #0x20"},
		{0x4348, 0, 2, "muls r0, r1, r0"},
		{0x4248, 0, 2, "rsbs r0, r1, #0x0"},
		{0xb500, 0, 2, "push {lr}"},
		{0xbd01, 0, 2, "pop {r0, pc}"},
		{0x4770, 0, 2, "bx lr"},
		{0x4801, 0, 2, "ldr r0, [pc, #0x4]"},
		{0x6848, 0, 2, "ldr r0, [r1, #0x4]"},
		{0x6808, 0, 2, "ldr r0, [r1]"},
		{0x5888, 0, 2, "ldr r0, [r1, r2]"},
		{0xc906, 0, 2, "ldm r1, {r1, r2}"},
		{0xc806, 0, 2, "ldm r0!, {r1, r2}"},
		{0xcf80, 0, 2, "ldm r7, {r7}"},
		{0xc101, 0, 2, "stm r1!, {r0}"},
		{0xc102, 0, 2, "stm r1!, {r1}"},
		{0xb082, 0, 2, "sub sp, sp, #0x8"},
		{0xd0fe, 0, 2, "beq #0x1000"},
		{0xe7fe, 0, 2, "b #0x1000"},
		{0xdf01, 0, 2, "svc #0x1"},
		{0xbf00, 0, 2, "nop"},
		{0xf000, 0xf800, 4, "bl #0x1004"},
		{0xf7ff, 0xfffe, 4, "bl #0x1000"},
		{0xf000, 0xe800, 4, "blx #0x1004"},
	}
	for _, test := range tests {
		inst, n := dec.Decode(test.first, test.second, true, 0x1000, cfg)
		if !assert.False(t, decode.IsIllegal(inst), "%#04x: %s", test.first, inst.Illegal) {
			continue
		}
		assert.Equal(t, test.size, n, "%#04x", test.first)
		assert.Equal(t, test.size, inst.Size)
		assert.Equal(t, test.text, render.Render(inst, render.Options{}, nil), "%#04x", test.first)
	}
}

func TestDecodeIllegal(t *testing.T) {
	t.Parallel()

	a32 := newDecoder(t, "a32")
	thumb := newDecoder(t, "thumb")
	v5t := decode.Config{Version: isa.V5T}

	tests := []struct {
		name   string
		dec    *decode.Decoder
		word   uint32
		cfg    decode.Config
		want   decode.Illegal
		disc   int
		isDisc bool
	}{
		{name: "bkpt must be unconditional", dec: a32, word: 0x01200070, cfg: arm.DefaultConfig(), want: decode.IllegalReserved, isDisc: true},
		{name: "qadd needs dsp", dec: a32, word: 0xe1000050, cfg: decode.Config{Version: isa.V5TE}, want: decode.IllegalUnsupported, disc: decode.DiscUnsupported},
		{name: "qadd before v5te", dec: a32, word: 0xe1000050, cfg: v5t, want: decode.IllegalUnsupported, disc: decode.DiscUnsupported},
		{name: "bx with nonzero sbo", dec: a32, word: 0xe12f0f1e, cfg: arm.DefaultConfig(), want: decode.IllegalReserved, isDisc: true},
		{name: "thumb rev before v6", dec: thumb, word: 0xba08, cfg: v5t, want: decode.IllegalUnsupported, disc: decode.DiscUnsupported},
		{name: "thumb undefined condition", dec: thumb, word: 0xde00, cfg: arm.DefaultConfig(), want: decode.IllegalReserved, isDisc: true},
	}
	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			inst, n := test.dec.Decode(test.word, 0, false, 0, test.cfg)
			require.True(t, decode.IsIllegal(inst))
			assert.Equal(t, test.want, inst.Illegal)
			assert.Nil(t, inst.Encoding)
			assert.Equal(t, test.dec.Table().Unit(), n, "an illegal unit is still consumed")
			if test.isDisc {
				assert.GreaterOrEqual(t, inst.Discriminant, 0, "a reserved-bit failure keeps the matched encoding's discriminant")
			} else {
				assert.Equal(t, test.disc, inst.Discriminant)
			}
			assert.Equal(t, render.IllegalText, render.Render(inst, render.Options{}, nil))
		})
	}
}

func TestZeroInstructionIsIllegal(t *testing.T) {
	t.Parallel()

	var inst decode.Instruction
	assert.True(t, decode.IsIllegal(inst))
	assert.Nil(t, inst.Opcode())
	assert.Empty(t, inst.Arguments())
	_, ok := inst.Param("rd")
	assert.False(t, ok)
}

func TestDecodeTruncatedPair(t *testing.T) {
	t.Parallel()

	dec := newDecoder(t, "thumb")
	inst, n := dec.Decode(0xf000, 0, false, 0x20, arm.DefaultConfig())
	assert.Equal(t, 0, n)
	assert.Equal(t, decode.IllegalTruncated, inst.Illegal)
	assert.Equal(t, decode.DiscTruncated, inst.Discriminant)
	assert.Equal(t, uint32(0x20), inst.PC)
}

func TestDecodeThumbExhaustive(t *testing.T) {
	t.Parallel()

	dec := newDecoder(t, "thumb")
	buckets := newDecoder(t, "thumb", decode.WithDispatch(dispatch.Options{Strategy: dispatch.Buckets}))
	cfg := arm.DefaultConfig()
	for _, next := range []uint32{0x0000, 0xf800, 0xe801, 0x1234} {
		for h := uint32(0); h < 1<<16; h++ {
			inst, n := dec.Decode(h, next, true, 0x4000, cfg)
			if n != 2 && n != 4 {
				t.Fatalf("%#04x %#04x consumed %d bytes", h, next, n)
			}
			if !decode.IsIllegal(inst) {
				enc := inst.Encoding
				if !enc.Matches(inst.Raw) || !enc.Reserved.Satisfied(inst.Raw) {
					t.Fatalf("%#04x decoded as %s, which does not match it", h, enc)
				}
				if text := render.Render(inst, render.Options{}, nil); text == "" {
					t.Fatalf("%#04x rendered as empty text", h)
				}
			}

			again := dec.DecodeWithDiscriminant(h, next, true, inst.Discriminant, 0x4000, cfg)
			if !assert.ObjectsAreEqual(inst, again) {
				testutil.AssertEqualWithDiff(t, inst, again)
				t.FailNow()
			}
			other, _ := buckets.Decode(h, next, true, 0x4000, cfg)
			if !assert.ObjectsAreEqual(inst, other) {
				testutil.AssertEqualWithDiff(t, inst, other)
				t.FailNow()
			}
		}
	}
}

func TestDecodeA32Total(t *testing.T) {
	dec := newDecoder(t, "a32")
	buckets := newDecoder(t, "a32", decode.WithDispatch(dispatch.Options{Strategy: dispatch.Buckets}))

	properties := gopter.NewProperties(nil)

	properties.Property("every word decodes to a matching encoding or an illegal instruction", prop.ForAll(
		func(w uint32, v uint8, exts uint8) bool {
			cfg := decode.Config{
				Version:    isa.Version(v % uint8(isa.V7+1)),
				Extensions: isa.ExtensionSet(exts) & isa.AllExtensions,
			}
			inst, n := dec.Decode(w, 0, false, 0, cfg)
			if n != 4 || inst.Size != 4 {
				return false
			}
			if decode.IsIllegal(inst) {
				return inst.Encoding == nil
			}
			enc := inst.Encoding
			return enc.Matches(w) &&
				enc.Reserved.Satisfied(w) &&
				enc.Requires.Satisfied(cfg.Version, cfg.Extensions) &&
				render.Render(inst, render.Options{}, nil) != ""
		},
		gen.UInt32(),
		gen.UInt8(),
		gen.UInt8(),
	))

	properties.Property("the discriminant reproduces the instruction", prop.ForAll(
		func(w uint32) bool {
			cfg := arm.DefaultConfig()
			inst, _ := dec.Decode(w, 0, false, 0x100, cfg)
			again := dec.DecodeWithDiscriminant(w, 0, false, inst.Discriminant, 0x100, cfg)
			return assert.ObjectsAreEqual(inst, again)
		},
		gen.UInt32(),
	))

	properties.Property("dispatch strategies agree", prop.ForAll(
		func(w uint32) bool {
			cfg := arm.DefaultConfig()
			a, _ := dec.Decode(w, 0, false, 0, cfg)
			b, _ := buckets.Decode(w, 0, false, 0, cfg)
			return assert.ObjectsAreEqual(a, b)
		},
		gen.UInt32(),
	))

	properties.TestingRun(t)
}

func TestDecodeMostSpecificWins(t *testing.T) {
	t.Parallel()

	dec := newDecoder(t, "a32")
	// pop is ldmia sp! with a fixed base; both match, pop is more specific.
	inst, _ := dec.Decode(0xe8bd8000, 0, false, 0, arm.DefaultConfig())
	require.False(t, decode.IsIllegal(inst))
	assert.Equal(t, "pop", inst.Opcode().Name)

	ldm, ok := dec.Table().OpcodeByName("ldm")
	require.True(t, ok)
	assert.True(t, ldm.Encodings[0].Matches(0xe8bd8000))
}

// nop is a v6K hint carved out of msr_imm. Before v6K the next candidate
// in priority order, msr_imm, decodes the word.
func TestDecodeFallsBackInPriorityOrder(t *testing.T) {
	t.Parallel()

	dec := newDecoder(t, "a32")
	const word = 0xe320f000

	var names []string
	for _, c := range dec.Tree(isa.Word32).Lookup(word) {
		if c.Matches(word) {
			enc, ok := dec.Table().Encoding(c.Ref)
			require.True(t, ok)
			names = append(names, enc.Opcode().Name)
		}
	}
	assert.Equal(t, []string{"nop", "msr_imm"}, names)

	for _, test := range []struct {
		version isa.Version
		opcode  string
		text    string
	}{
		{isa.V4, "msr_imm", "msr cpsr, #0x0"},
		{isa.V6, "msr_imm", "msr cpsr, #0x0"},
		{isa.V6K, "nop", "nop"},
		{isa.V7, "nop", "nop"},
	} {
		cfg := decode.Config{Version: test.version}
		inst, n := dec.Decode(word, 0, false, 0, cfg)
		require.False(t, decode.IsIllegal(inst), "%s: %s", test.version, inst.Illegal)
		assert.Equal(t, 4, n)
		assert.Equal(t, test.opcode, inst.Opcode().Name, "%s", test.version)
		assert.Equal(t, test.text, render.Render(inst, render.Options{}, nil), "%s", test.version)
		assert.Equal(t, inst, dec.DecodeWithDiscriminant(word, 0, false, inst.Discriminant, 0, cfg))
	}
}

func TestInstructionAccessors(t *testing.T) {
	t.Parallel()

	dec := newDecoder(t, "a32")
	inst, _ := dec.Decode(0x10912103, 0, false, 0, arm.DefaultConfig())
	require.False(t, decode.IsIllegal(inst))

	s, ok := inst.Modifier("s")
	require.True(t, ok)
	assert.Equal(t, 1, s)
	cond, ok := inst.Modifier("cond")
	require.True(t, ok)
	assert.Equal(t, int(arm.CondNE), cond)
	_, ok = inst.Modifier("amode")
	assert.False(t, ok)

	op2, ok := inst.Param("op2")
	require.True(t, ok)
	assert.Equal(t, "shift_imm", op2.VariantName())
	shift, ok := op2.Member("shift")
	require.True(t, ok)
	amount, ok := shift.Member("amount")
	require.True(t, ok)
	assert.Equal(t, int64(2), amount.Int)

	rd, ok := inst.Param("rd")
	require.True(t, ok)
	assert.Equal(t, int64(2), rd.Int)
	_, ok = inst.Param("rs")
	assert.False(t, ok)
}
