package main

import (
	"bytes"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apparentlymart/arm-meta/arm"
	"github.com/apparentlymart/arm-meta/decode"
)

func TestClosest(t *testing.T) {
	t.Parallel()

	names := []string{"disasm", "decode", "dump", "encodings", "find", "gen", "repl"}
	for in, want := range map[string]string{
		"dissasm":  "disasm",
		"decod":    "decode",
		"encoding": "encodings",
		"rpel":     "repl",
	} {
		got, ok := closest(in, names)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	_, ok := closest("xyz", names)
	assert.False(t, ok)
}

func TestUnknownOpcode(t *testing.T) {
	t.Parallel()

	err := unknownOpcode(arm.A32(), "ldrr")
	assert.EqualError(t, err, `no opcode "ldrr" in a32; did you mean "ldr"?`)

	err = unknownOpcode(arm.Thumb(), "zzzzzzzzzz")
	assert.EqualError(t, err, `no opcode "zzzzzzzzzz" in thumb`)
}

func TestHexUint(t *testing.T) {
	t.Parallel()

	var h hexUint
	require.NoError(t, h.Set("0x8000"))
	assert.Equal(t, hexUint(0x8000), h)
	assert.Equal(t, "0x8000", h.String())
	require.NoError(t, h.Set("4096"))
	assert.Equal(t, hexUint(0x1000), h)
	assert.Error(t, h.Set("0x1ffffffff"))
}

type fakeBar struct {
	total int
	err   error
}

func (b *fakeBar) Add(n int) error {
	b.total += n
	return b.err
}

func TestReportProgress(t *testing.T) {
	t.Parallel()

	var logged bytes.Buffer
	log := zerolog.New(&logged).Level(zerolog.DebugLevel)

	bar := &fakeBar{}
	report := reportProgress(bar, log)
	report(4)
	report(2)
	assert.Equal(t, 6, bar.total)
	assert.Zero(t, logged.Len())

	bar.err = errors.New("terminal went away")
	report(2)
	assert.Equal(t, 8, bar.total)
	assert.Contains(t, logged.String(), `"error":"terminal went away"`)
	assert.Contains(t, logged.String(), `"message":"updating progress bar"`)
}

func TestDecodeWord(t *testing.T) {
	t.Parallel()

	c := common{isa: "thumb"}
	e, err := c.setup()
	require.NoError(t, err)

	inst, err := e.decodeWord("f000f800", 0x1000)
	require.NoError(t, err)
	assert.False(t, decode.IsIllegal(inst))
	assert.Equal(t, 4, inst.Size)

	inst, err = e.decodeWord("0x4770", 0x1004)
	require.NoError(t, err)
	assert.Equal(t, 2, inst.Size)

	var buf bytes.Buffer
	e.describe(&buf, inst, false)
	assert.Equal(t, "00001004:  00004770  bx lr\n", buf.String())

	_, err = e.decodeWord("nothex", 0)
	assert.EqualError(t, err, `invalid word "nothex"`)
}

func TestDescribeDetails(t *testing.T) {
	t.Parallel()

	c := common{isa: "a32", syntax: "ual"}
	e, err := c.setup()
	require.NoError(t, err)

	inst, err := e.decodeWord("e0812003", 0x8000)
	require.NoError(t, err)
	var buf bytes.Buffer
	e.describe(&buf, inst, true)
	out := buf.String()
	assert.Contains(t, out, "00008000:  e0812003  add r2, r1, r3\n")
	assert.Contains(t, out, "    opcode:  add (encoding ")
	assert.Contains(t, out, "    cond:    al\n")
	assert.Contains(t, out, "    defs:    {r2}\n")
	assert.Contains(t, out, "    uses:    {r1, r3}\n")

	inst, err = e.decodeWord("01200070", 0x8004)
	require.NoError(t, err)
	buf.Reset()
	e.describe(&buf, inst, true)
	assert.Equal(t, "00008004:  01200070  <illegal>\n    illegal: reserved\n", buf.String())
}

func TestSetupRejectsBadFlags(t *testing.T) {
	t.Parallel()

	_, err := (&common{syntax: "intel"}).setup()
	assert.Error(t, err)
	_, err = (&common{isa: "mips"}).setup()
	assert.ErrorContains(t, err, "mips")
}
